package wikitext

import (
	"strings"

	"github.com/miki725/smc.mw/pkg/entity"
	"github.com/miki725/smc.mw/pkg/peg"
	"github.com/miki725/smc.mw/pkg/wikiast"
)

// collectInline flattens an inline value (a node, a node slice, or a
// star of either) into a node slice with adjacent text nodes merged.
func collectInline(_ *peg.Parser, _, _ int, v any) any {
	var nodes []*wikiast.Node
	appendInlineValue(&nodes, v)
	return mergeTextNodes(nodes)
}

func appendInlineValue(nodes *[]*wikiast.Node, v any) {
	switch val := v.(type) {
	case nil:
	case *wikiast.Node:
		*nodes = append(*nodes, val)
	case []*wikiast.Node:
		*nodes = append(*nodes, val...)
	case []any:
		for _, item := range val {
			appendInlineValue(nodes, item)
		}
	case string:
		*nodes = append(*nodes, wikiast.NewTextString(val))
	}
}

func mergeTextNodes(nodes []*wikiast.Node) []*wikiast.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n.Kind == wikiast.NodeText && len(out) > 0 &&
			out[len(out)-1].Kind == wikiast.NodeText {
			// Merge into a fresh node: prev may be a memoized value (an
			// unknown entity kept as text) that a later memo hit returns.
			prev := out[len(out)-1]
			out[len(out)-1] = wikiast.NewText(append(append([]byte(nil), prev.Literal...), n.Literal...))
			continue
		}
		out = append(out, n)
	}
	return out
}

func (b *builder) inlineRules() {
	g := b.g

	g.Add("inline0", peg.Act(peg.Star(peg.Ref("inline_element")), collectInline))
	g.Add("inline1", peg.Act(peg.Plus(peg.Ref("inline_element")), collectInline))

	g.Add("inline_element", peg.Choice(
		peg.Ref("comment_inline"),
		peg.Ref("html_inline"),
		peg.Ref("internal_link"),
		peg.Ref("external_link"),
		peg.Ref("plain_link"),
		peg.Ref("entity"),
		peg.Ref("quotes"),
		peg.Ref("inline_nl"),
		peg.Ref("apos_text"),
		peg.Ref("lone_bracket"),
		peg.Ref("lone_lt"),
		peg.Ref("inline_char"),
	))

	g.Add("comment_inline", peg.Act(
		peg.Rx(`<!--(?s:.*?)(?:-->|\z)`),
		func(p *peg.Parser, start, end int, _ any) any {
			span := p.Input()[start:end]
			inner := strings.TrimPrefix(span, "<!--")
			if strings.HasSuffix(inner, "-->") && len(span) >= 7 {
				inner = inner[:len(inner)-3]
			} else {
				p.Warnf(start, "unclosed comment")
			}
			n := wikiast.NewNode(wikiast.NodeComment)
			n.Literal = []byte(inner)
			return n
		}))

	g.AddMemo("entity", peg.Act(
		peg.Rx(`&(?:([A-Za-z][A-Za-z0-9]*)|#([0-9]{1,7})|#[xX]([0-9A-Fa-f]{1,6}));`),
		b.entityAction()))

	// A character run can never straddle a gate position: every byte a
	// stack pattern may begin with (newline, quote, bracket, pipe,
	// bang, colon, equals, ampersand, angle) is excluded from the run
	// and goes through the single-character rule below, which re-checks
	// the stacks. That rule also refuses a position where a block element
	// opens, so the inline line ends there and the element becomes the
	// next block.
	g.Add("inline_char", peg.Seq(checkIfnots, peg.Choice(
		peg.Act(peg.Rx(`[^\n<\['&\]|!:=]+`), b.textRunAction()),
		peg.Act(peg.Seq(peg.Not(peg.Ref("html_block")), peg.Rx(`[^\n]`)), textNode),
	)))

	// A newline continues the surrounding inline run only when the next
	// line starts neither a block nor an empty line, and no stack entry
	// fires at the new position.
	g.Add("inline_nl", peg.Act(peg.Seq(
		checkIfnots,
		peg.Lit("\n"),
		checkNo,
		checkIfnot,
		peg.Not(peg.Ref("block_probe")),
		peg.Not(peg.EOF()),
	), func(*peg.Parser, int, int, any) any {
		return wikiast.NewNode(wikiast.NodeLineBreak)
	}))

	// A lone apostrophe (not introducing a quote run) is plain text.
	g.Add("apos_text", peg.Seq(checkIfnots,
		peg.Act(peg.Seq(peg.Lit("'"), peg.Not(peg.Lit("'"))), textNode)))

	// Brackets that opened no link fall through one at a time.
	g.Add("lone_bracket", peg.Seq(checkIfnots,
		peg.Act(peg.Rx(`[\[\]]`), textNode)))

	// A '<' that opens no recognized construct is plain text, unless a
	// block element begins here (the enclosing block must end instead).
	g.Add("lone_lt", peg.Seq(checkIfnots,
		peg.Not(peg.Rx(blockOpenPat)),
		peg.Act(peg.Lit("<"), textNode)))

	b.quoteRules()
}

func textNode(p *peg.Parser, start, end int, _ any) any {
	return wikiast.NewText([]byte(p.Input()[start:end]))
}

// textRunAction emits a text run, backing off a trailing scheme name
// when a free link actually starts there. Runs stop at ':' anyway, so
// a swallowed scheme always sits at the run's end; giving it back lets
// the plain_link alternative match on the next iteration.
func (b *builder) textRunAction() peg.ActionFunc {
	return func(p *peg.Parser, start, end int, _ any) any {
		text := p.Input()[start:end]

		if end < len(p.Input()) && p.Input()[end] == ':' {
			for _, scheme := range b.schemes {
				cut := len(text) - len(scheme)
				if cut <= 0 || !strings.EqualFold(text[cut:], scheme) {
					continue
				}
				if isWordByte(text[cut-1]) {
					continue
				}
				if b.urlRe.MatchString(p.Input()[start+cut:]) {
					p.SetPos(start + cut)
					text = text[:cut]
				}
				break
			}
		}

		return wikiast.NewText([]byte(text))
	}
}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

func (b *builder) entityAction() peg.ActionFunc {
	return func(p *peg.Parser, start, end int, _ any) any {
		caps := p.Captures()
		attrs := &wikiast.EntityAttrs{}
		var ok bool
		switch {
		case caps[1] != "":
			attrs.Form = wikiast.EntityNamed
			attrs.Name = caps[1]
			attrs.Code, ok = b.entities.Resolve(caps[1])
			if !ok {
				// Unknown names stay literal text.
				return wikiast.NewTextString(p.Input()[start:end])
			}
		case caps[2] != "":
			attrs.Form = wikiast.EntityDecimal
			attrs.Code, ok = entity.Decimal(caps[2])
			if !ok {
				return wikiast.NewTextString(p.Input()[start:end])
			}
		default:
			attrs.Form = wikiast.EntityHex
			attrs.Code, ok = entity.Hex(caps[3])
			if !ok {
				return wikiast.NewTextString(p.Input()[start:end])
			}
		}

		n := wikiast.NewNode(wikiast.NodeEntity)
		n.Inline = &wikiast.InlineAttrs{Entity: attrs}
		return n
	}
}

// quoteRules implement bold/italic apostrophe runs.
//
// A run of five is tried as a unit (BoldItalic), then split as
// bold-then-italic, then italic-then-bold, in that order. Runs of four
// or six and more peel leading apostrophes into literal text until
// exactly three or five remain. Newlines close open quotes through the
// `no` stack; a missing close run simply ends the quote at the end of
// the surrounding inline context.
func (b *builder) quoteRules() {
	g := b.g

	g.Add("quotes", peg.Choice(
		peg.Ref("quote_peel6"),
		peg.Ref("bolditalic"),
		peg.Ref("quote_peel4"),
		peg.Ref("bold"),
		peg.Ref("italic"),
	))

	// Leading apostrophes of an over-long run become literal text.
	g.Add("quote_peel6", peg.Act(peg.Seq(
		peg.Plus(peg.Seq(peg.Lit("'"), peg.And(peg.Rx(`'{5}`)))),
		peg.Ref("bolditalic"),
	), peelAction))

	g.Add("quote_peel4", peg.Act(peg.Seq(
		peg.Lit("'"), peg.And(peg.Seq(peg.Rx(`'{3}`), peg.Not(peg.Lit("'")))),
		peg.Ref("bold"),
	), peelAction))

	g.Add("bolditalic", peg.Choice(
		peg.Ref("bolditalic_unit"),
		peg.Ref("bolditalic_bold_first"),
		peg.Ref("bolditalic_italic_first"),
	))

	// bold and italic content forbid apostrophe runs that would
	// re-enter the same level; the run that stops the content then
	// closes the element (or an enclosing one).
	boldContent := peg.Act(peg.Star(peg.Seq(
		peg.Not(peg.Rx(`'{3}`)),
		peg.Ref("inline_element"),
	)), collectInline)
	italicContent := peg.Act(peg.Star(peg.Seq(
		peg.Not(peg.Rx(`'{2}`)),
		peg.Ref("inline_element"),
	)), collectInline)

	closeBold := peg.Seq(peg.Lit("'''"), peg.Not(peg.Lit("'")))
	closeItalic := peg.Seq(peg.Lit("''"), peg.Not(peg.Lit("'")))

	g.Add("bolditalic_unit", peg.Act(peg.Seq(
		peg.Lit("'''''"), peg.Not(peg.Lit("'")),
		pushNoNL,
		italicContent,
		popNo,
		peg.Lit("'''''"),
	), func(_ *peg.Parser, _, _ int, v any) any {
		seq := v.([]any)
		n := wikiast.NewNode(wikiast.NodeBoldItalic)
		wikiast.AppendChildren(n, seq[3].([]*wikiast.Node))
		return n
	}))

	g.Add("bolditalic_bold_first", peg.Act(peg.Seq(
		peg.Lit("'''''"), peg.Not(peg.Lit("'")),
		pushNoNL,
		italicContent,
		peg.Opt(closeItalic),
		boldContent,
		popNo,
		peg.Opt(closeBold),
	), func(_ *peg.Parser, _, _ int, v any) any {
		seq := v.([]any)
		italic := wikiast.NewNode(wikiast.NodeItalic)
		wikiast.AppendChildren(italic, seq[3].([]*wikiast.Node))
		bold := wikiast.NewNode(wikiast.NodeBold)
		wikiast.AppendChild(bold, italic)
		wikiast.AppendChildren(bold, seq[5].([]*wikiast.Node))
		return bold
	}))

	g.Add("bolditalic_italic_first", peg.Act(peg.Seq(
		peg.Lit("'''''"), peg.Not(peg.Lit("'")),
		pushNoNL,
		boldContent,
		peg.Opt(closeBold),
		italicContent,
		popNo,
		peg.Opt(closeItalic),
	), func(_ *peg.Parser, _, _ int, v any) any {
		seq := v.([]any)
		bold := wikiast.NewNode(wikiast.NodeBold)
		wikiast.AppendChildren(bold, seq[3].([]*wikiast.Node))
		italic := wikiast.NewNode(wikiast.NodeItalic)
		wikiast.AppendChild(italic, bold)
		wikiast.AppendChildren(italic, seq[5].([]*wikiast.Node))
		return italic
	}))

	g.Add("bold", peg.Act(peg.Seq(
		peg.Lit("'''"), peg.Not(peg.Lit("'")),
		pushNoNL,
		boldContent,
		popNo,
		peg.Opt(closeBold),
	), func(_ *peg.Parser, _, _ int, v any) any {
		seq := v.([]any)
		n := wikiast.NewNode(wikiast.NodeBold)
		wikiast.AppendChildren(n, seq[3].([]*wikiast.Node))
		return n
	}))

	g.Add("italic", peg.Act(peg.Seq(
		peg.Lit("''"), peg.Not(peg.Lit("'")),
		pushNoNL,
		italicContent,
		popNo,
		peg.Opt(closeItalic),
	), func(_ *peg.Parser, _, _ int, v any) any {
		seq := v.([]any)
		n := wikiast.NewNode(wikiast.NodeItalic)
		wikiast.AppendChildren(n, seq[3].([]*wikiast.Node))
		return n
	}))
}

func peelAction(p *peg.Parser, start, _ int, v any) any {
	seq := v.([]any)
	quote := seq[len(seq)-1].(*wikiast.Node)

	// Everything before the quote node's own span is peeled text.
	var peeled int
	switch lead := seq[0].(type) {
	case []any:
		peeled = len(lead)
	case string:
		peeled = len(lead)
	}
	leader := wikiast.NewText([]byte(p.Input()[start : start+peeled]))
	return []*wikiast.Node{leader, quote}
}
