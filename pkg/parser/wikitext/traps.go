package wikitext

import (
	"fmt"
	"regexp"

	"github.com/miki725/smc.mw/pkg/peg"
)

// The semantic traps below implement the stateful side of the grammar:
// empty-RHS rules that push, pop, and consult the four auxiliary stacks.
// Every push_* in a rule body is paired with a pop_* on the success
// path; the evaluator rewinds the stacks on the failure path.

// Fixed-form stack entries, compiled once.
var (
	entryNoNL      = peg.PatternEntry(`\n`)
	entryBolUL     = peg.PatternEntry(`\*`)
	entryBolOL     = peg.PatternEntry(`#`)
	entryBolDL     = peg.PatternEntry(`[;:]`)
	entryBolWspre  = peg.PatternEntry(` `)
	entryWspreOff  = peg.MarkerEntry("off")
	entryWspreOn   = peg.MarkerEntry("on")
	entryIfnotLink = peg.PatternEntry(`\]\]`)
	entryIfnotExt  = peg.PatternEntry(`\]`)
	entryIfnotData = peg.PatternEntry(`\|\|`)
	entryIfnotHdr  = peg.PatternEntry(`!!|\|\|`)
	entryIfnotDT   = peg.PatternEntry(`:`)

	// entryNoH[n] gates inline content against the level-n heading
	// terminator: a run of n '=' optionally followed by comments,
	// then end of line or input.
	entryNoH [7]peg.StackEntry

	// entryNoTableline terminates embedded block mode inside table
	// cells. Only meaningful at beginning of line.
	entryNoTableline = peg.StackEntry{
		Pattern: peg.MustPattern(`[ \t]*[|!]`),
		Label:   "tableline",
		BOL:     true,
	}
)

func init() {
	for n := 1; n <= 6; n++ {
		pat := fmt.Sprintf(`={%d}[ \t]*(?:<!--(?s:.*?)-->[ \t]*)*(?:\n|\z)`, n)
		entryNoH[n] = peg.PatternEntry(pat)
	}
}

// pushTrap returns a trap pushing a fixed entry.
func pushTrap(name string, id peg.StackID, e peg.StackEntry) peg.Expr {
	return peg.Trap(name, func(p *peg.Parser) bool {
		p.Push(id, e)
		return true
	})
}

// popTrap returns a trap popping the identified stack.
func popTrap(name string, id peg.StackID) peg.Expr {
	return peg.Trap(name, func(p *peg.Parser) bool {
		return p.Pop(id)
	})
}

var (
	popNo      = popTrap("pop_no", peg.StackNo)
	popIfnot   = popTrap("pop_ifnot", peg.StackIfnot)
	popBolSkip = popTrap("pop_bol_skip", peg.StackBolSkip)
	popWspre   = popTrap("pop_wspre", peg.StackWspre)

	pushNoNL        = pushTrap("push_no_nl", peg.StackNo, entryNoNL)
	pushNoTableline = pushTrap("push_no_tableline", peg.StackNo, entryNoTableline)

	pushBolSkipUL    = pushTrap("push_bol_skip_ul", peg.StackBolSkip, entryBolUL)
	pushBolSkipOL    = pushTrap("push_bol_skip_ol", peg.StackBolSkip, entryBolOL)
	pushBolSkipDL    = pushTrap("push_bol_skip_dl", peg.StackBolSkip, entryBolDL)
	pushBolSkipWspre = pushTrap("push_bol_skip_wspre", peg.StackBolSkip, entryBolWspre)

	pushWspreOff = pushTrap("push_wspre_off", peg.StackWspre, entryWspreOff)
	setWspreOn   = pushTrap("set_wspre_on", peg.StackWspre, entryWspreOn)

	pushIfnotLink = pushTrap("push_ifnot_link", peg.StackIfnot, entryIfnotLink)
	pushIfnotExt  = pushTrap("push_ifnot_extlink", peg.StackIfnot, entryIfnotExt)
	pushIfnotData = pushTrap("push_ifnot_cell", peg.StackIfnot, entryIfnotData)
	pushIfnotHdr  = pushTrap("push_ifnot_headercell", peg.StackIfnot, entryIfnotHdr)
	pushIfnotDT   = pushTrap("push_ifnot_dt", peg.StackIfnot, entryIfnotDT)
)

func pushNoH(level int) peg.Expr {
	return pushTrap(fmt.Sprintf("push_no_h%d", level), peg.StackNo, entryNoH[level])
}

// checkNo fails when any entry on the `no` stack matches at the current
// position. Entries flagged BOL apply only at beginning of line.
var checkNo = peg.Trap("check_no", checkNoFn)

func checkNoFn(p *peg.Parser) bool {
	bol := p.AtBOL()
	for _, e := range p.Entries(peg.StackNo) {
		if e.Pattern == nil {
			continue
		}
		if e.BOL && !bol {
			continue
		}
		if _, ok := p.MatchPattern(e.Pattern); ok {
			return false
		}
	}
	return true
}

// checkIfnot fails when any entry on the `ifnot` stack matches at the
// current position: a closing delimiter of an enclosing context ends
// the current inline run.
var checkIfnot = peg.Trap("check_ifnot", checkIfnotFn)

func checkIfnotFn(p *peg.Parser) bool {
	for _, e := range p.Entries(peg.StackIfnot) {
		if e.Pattern == nil {
			continue
		}
		if _, ok := p.MatchPattern(e.Pattern); ok {
			return false
		}
	}
	return true
}

// checkIfnots guards every generic character consumption in inline
// contexts: check_ifnot followed by check_no.
var checkIfnots = peg.Trap("check_ifnots", func(p *peg.Parser) bool {
	return checkIfnotFn(p) && checkNoFn(p)
})

// atIfnotClose succeeds when a pending close delimiter sits at the
// current position; inline lines may end there without a newline.
var atIfnotClose = peg.Trap("at_ifnot_close", func(p *peg.Parser) bool {
	return !checkIfnotFn(p)
})

// checkBolSkip consumes, bottom to top, each pattern on the bol_skip
// stack at the start of a new line. Any entry that does not match
// terminates the enclosing nested context.
var checkBolSkip = peg.Trap("check_bol_skip", func(p *peg.Parser) bool {
	for _, e := range p.Entries(peg.StackBolSkip) {
		end, ok := p.MatchPattern(e.Pattern)
		if !ok {
			return false
		}
		p.SetPos(end)
	}
	return true
})

// checkBolSkipIfBOL is checkBolSkip applied only at beginning of line.
// List items use it so the first item on a marker line (where the
// parent marker was already consumed) passes through unchanged.
var checkBolSkipIfBOL = peg.Trap("check_bol_skip_bol", func(p *peg.Parser) bool {
	if !p.AtBOL() {
		return true
	}
	for _, e := range p.Entries(peg.StackBolSkip) {
		end, ok := p.MatchPattern(e.Pattern)
		if !ok {
			return false
		}
		p.SetPos(end)
	}
	return true
})

// checkWspre fails when indent-pre recognition is toggled off.
// An empty wspre stack means on.
var checkWspre = peg.Trap("check_wspre", func(p *peg.Parser) bool {
	top, ok := p.Top(peg.StackWspre)
	return !ok || top.Label != "off"
})

// checkBOL gates block rules that exist only at beginning of line.
var checkBOL = peg.Trap("check_bol", func(p *peg.Parser) bool {
	return p.AtBOL()
})

// htmlClosePatterns maps each recognized tag name to its compiled
// close-tag pattern. Populated for the closed tag set at load time so
// push_ifnot_html_tag never compiles at parse time.
var htmlClosePatterns = map[string]*regexp.Regexp{}

func init() {
	for _, name := range allTagNames() {
		htmlClosePatterns[name] = peg.MustPattern(`(?i:</` + name + `\s*>)`)
	}
}

// pushIfnotHTMLTag reads the tag name captured by the immediately
// preceding open-tag match and pushes its close-tag pattern.
var pushIfnotHTMLTag = peg.Trap("push_ifnot_html_tag", func(p *peg.Parser) bool {
	caps := p.Captures()
	if len(caps) < 2 {
		return false
	}
	name := lowerASCII(caps[1])
	re, ok := htmlClosePatterns[name]
	if !ok {
		return false
	}
	p.Push(peg.StackIfnot, peg.StackEntry{Pattern: re, Label: "</" + name + ">"})
	return true
})

// consumeIfnotClose matches and consumes the top ifnot pattern (the
// pending close tag). Close tags are optional for most elements, so
// this appears under Opt.
var consumeIfnotClose = peg.Trap("consume_ifnot_close", func(p *peg.Parser) bool {
	top, ok := p.Top(peg.StackIfnot)
	if !ok || top.Pattern == nil {
		return false
	}
	end, ok := p.MatchPattern(top.Pattern)
	if !ok {
		return false
	}
	p.SetPos(end)
	return true
})

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
