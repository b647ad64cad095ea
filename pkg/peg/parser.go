package peg

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Options configures a single parse.
type Options struct {
	// Memoize enables the packrat cache for rules marked Memo.
	// The produced tree is identical either way; memoization only
	// bounds worst-case time.
	Memoize bool
}

// DefaultOptions returns the default parse options.
func DefaultOptions() Options {
	return Options{Memoize: true}
}

// Parser evaluates a Grammar over one input. All state — position, memo
// table, side stacks, diagnostics — is local to the parser, so a parse
// is a pure function of its input and independent parses may run
// concurrently on separate parsers.
type Parser struct {
	grammar *Grammar
	buf     buffer
	opts    Options

	pos     int
	stacks  stackSet
	memo    memoTable
	cutMark int

	// lastCaps holds the submatches of the most recent rxExpr match.
	// Traps that need a captured group (the HTML open-tag name) read it
	// before any later match overwrites it.
	lastCaps []string

	diags []Diagnostic
}

// NewParser creates a parser for one parse of input.
func NewParser(g *Grammar, input string, opts Options) *Parser {
	return &Parser{
		grammar: g,
		buf:     buffer{data: input},
		opts:    opts,
	}
}

// savepoint captures everything a failing trial must rewind: the input
// position, the heights of the four side stacks, and the diagnostics
// count (so probed-and-abandoned branches leave no stray warnings).
type savepoint struct {
	pos     int
	heights stackHeights
	diags   int
}

func (p *Parser) save() savepoint {
	return savepoint{pos: p.pos, heights: p.stacks.heights(), diags: len(p.diags)}
}

func (p *Parser) restore(sp savepoint) {
	p.pos = sp.pos
	p.stacks.truncate(sp.heights)
	if len(p.diags) > sp.diags {
		p.diags = p.diags[:sp.diags]
	}
}

// Pos returns the current input position.
func (p *Parser) Pos() int {
	return p.pos
}

// SetPos moves the input position. Traps that consume prefix patterns
// (check_bol_skip), actions that give back the end of their match, and
// drivers stepping past unparsed input use it.
func (p *Parser) SetPos(pos int) {
	p.pos = pos
}

// Input returns the full source text.
func (p *Parser) Input() string {
	return p.buf.data
}

// AtEOF reports whether the parser is at end of input.
func (p *Parser) AtEOF() bool {
	return p.buf.isEOF(p.pos)
}

// AtBOL reports whether the parser is at the beginning of a line.
func (p *Parser) AtBOL() bool {
	return p.buf.isBOL(p.pos)
}

// Captures returns the submatches of the most recent regex match,
// whole match first.
func (p *Parser) Captures() []string {
	return p.lastCaps
}

// MatchPattern matches a compiled anchored pattern at the current
// position without consuming. Returns the end position on success.
func (p *Parser) MatchPattern(re *regexp.Regexp) (int, bool) {
	end, _, ok := p.buf.matchRegex(p.pos, re)
	return end, ok
}

// Push pushes an entry onto the identified side stack.
func (p *Parser) Push(id StackID, e StackEntry) {
	p.stacks.push(id, e)
}

// Pop removes the top entry of the identified side stack.
func (p *Parser) Pop(id StackID) bool {
	_, ok := p.stacks.pop(id)
	return ok
}

// Top returns the top entry of the identified side stack.
func (p *Parser) Top(id StackID) (StackEntry, bool) {
	return p.stacks.top(id)
}

// Entries returns the identified stack bottom-to-top. The slice is the
// live backing store; callers must not retain or mutate it.
func (p *Parser) Entries(id StackID) []StackEntry {
	return p.stacks.entries(id)
}

// StacksEmpty reports whether all four side stacks are empty. After a
// successful parse this must hold: every push is balanced by a pop on
// the success path and rewound on the failure path.
func (p *Parser) StacksEmpty() bool {
	return p.stacks.empty()
}

// Warnf records a non-fatal diagnostic at the given position.
func (p *Parser) Warnf(pos int, format string, args ...any) {
	line, col := p.buf.lineCol(pos)
	p.diags = append(p.diags, Diagnostic{
		Offset:  pos,
		Line:    line,
		Column:  col,
		Message: fmt.Sprintf(format, args...),
	})
}

// Diagnostics returns the warnings collected so far, in the order they
// were recorded. An action runs after its sub-expressions, so a warning
// about an enclosing element follows the warnings about its contents.
func (p *Parser) Diagnostics() []Diagnostic {
	return p.diags
}

// Cut commits prior choices: memo entries below the current position are
// purged and can never be consulted again. Cut is a performance device;
// the produced tree is identical with or without it.
func (p *Parser) Cut() {
	if p.pos > p.cutMark {
		p.cutMark = p.pos
		p.memo.purgeBelow(p.cutMark)
	}
}

// MemoSize returns the number of live memo entries. Exposed for tests
// asserting the cut bound.
func (p *Parser) MemoSize() int {
	return p.memo.size()
}

// ParseRule evaluates the named rule at the current position.
// On failure the position and side stacks are rewound.
func (p *Parser) ParseRule(name string) (any, bool) {
	rule := p.grammar.Lookup(name)
	if rule == nil {
		panic(fmt.Sprintf("peg: unknown rule %q", name))
	}
	return p.evalRule(rule)
}

func (p *Parser) evalRule(rule *Rule) (any, bool) {
	if rule.Memo && p.opts.Memoize {
		if res, hit := p.memo.get(rule, p.pos); hit {
			if res.ok {
				p.pos = res.end
			}
			return res.val, res.ok
		}
		start := p.pos
		val, ok := p.eval(rule.Expr)
		p.memo.set(rule, start, memoResult{val: val, end: p.pos, ok: ok})
		return val, ok
	}
	return p.eval(rule.Expr)
}

// eval interprets one expression. Every failing path leaves position and
// stacks exactly as they were at entry.
func (p *Parser) eval(e Expr) (any, bool) {
	switch e := e.(type) {
	case *litExpr:
		end, ok := p.buf.matchLiteral(p.pos, e.val)
		if !ok {
			return nil, false
		}
		p.pos = end
		return e.val, true

	case *rxExpr:
		end, caps, ok := p.buf.matchRegex(p.pos, e.re)
		if !ok {
			return nil, false
		}
		p.lastCaps = caps
		p.pos = end
		return caps[0], true

	case *seqExpr:
		sp := p.save()
		vals := make([]any, 0, len(e.exprs))
		for _, sub := range e.exprs {
			v, ok := p.eval(sub)
			if !ok {
				p.restore(sp)
				return nil, false
			}
			vals = append(vals, v)
		}
		return vals, true

	case *choiceExpr:
		for _, alt := range e.alts {
			sp := p.save()
			if v, ok := p.eval(alt); ok {
				return v, true
			}
			p.restore(sp)
		}
		return nil, false

	case *optExpr:
		sp := p.save()
		if v, ok := p.eval(e.expr); ok {
			return v, true
		}
		p.restore(sp)
		return nil, true

	case *starExpr:
		var vals []any
		for {
			sp := p.save()
			v, ok := p.eval(e.expr)
			if !ok {
				p.restore(sp)
				return vals, true
			}
			if p.pos == sp.pos {
				// Zero-width match: stop rather than loop forever.
				p.restore(sp)
				return vals, true
			}
			vals = append(vals, v)
		}

	case *plusExpr:
		first, ok := p.eval(e.expr)
		if !ok {
			return nil, false
		}
		vals := []any{first}
		for {
			sp := p.save()
			v, ok := p.eval(e.expr)
			if !ok || p.pos == sp.pos {
				p.restore(sp)
				return vals, true
			}
			vals = append(vals, v)
		}

	case *andExpr:
		sp := p.save()
		_, ok := p.eval(e.expr)
		p.restore(sp)
		return nil, ok

	case *notExpr:
		sp := p.save()
		_, ok := p.eval(e.expr)
		p.restore(sp)
		return nil, !ok

	case *refExpr:
		rule := p.grammar.Lookup(e.name)
		if rule == nil {
			panic(fmt.Sprintf("peg: reference to unknown rule %q", e.name))
		}
		return p.evalRule(rule)

	case *cutExpr:
		p.Cut()
		return nil, true

	case *trapExpr:
		return nil, e.fn(p)

	case *actExpr:
		start := p.pos
		v, ok := p.eval(e.expr)
		if !ok {
			return nil, false
		}
		return e.fn(p, start, p.pos, v), true

	case *anyExpr:
		if p.buf.isEOF(p.pos) {
			return nil, false
		}
		_, w := utf8.DecodeRuneInString(p.buf.data[p.pos:])
		s := p.buf.data[p.pos : p.pos+w]
		p.pos += w
		return s, true

	case *eofExpr:
		return nil, p.buf.isEOF(p.pos)

	default:
		panic(fmt.Sprintf("peg: unknown expression type %T", e))
	}
}
