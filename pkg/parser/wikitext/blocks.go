package wikitext

import (
	"bytes"
	"strings"

	"github.com/miki725/smc.mw/pkg/peg"
	"github.com/miki725/smc.mw/pkg/wikiast"
)

// lineTail ends an inline-content line: a newline, end of input, an
// HTML-like block element opening mid-line (which then becomes the
// next block), or a pending close delimiter of an enclosing context.
func lineTail() peg.Expr {
	return peg.Choice(
		peg.Lit("\n"),
		peg.And(peg.EOF()),
		peg.And(peg.Rx(blockOpenPat)),
		atIfnotClose,
	)
}

func (b *builder) blockRules() {
	g := b.g

	g.Add("document_block", peg.Choice(
		peg.Ref("block_at_bol"),
		peg.Ref("html_block"),
		peg.Ref("paragraph"),
	))

	// Blocks that exist only at beginning of line, in dispatch order.
	// The list alternative comes after the table one so that the
	// "::{|" indented-table idiom wins over a definition list.
	g.Add("block_at_bol", peg.Act(peg.Seq(checkBOL, peg.Choice(
		peg.Ref("heading"),
		peg.Ref("horizontal_rule"),
		peg.Ref("table"),
		peg.Ref("list"),
		peg.Ref("toc_marker"),
		peg.Ref("indent_pre"),
	)), func(_ *peg.Parser, _, _ int, v any) any {
		return v.([]any)[1]
	}))

	// nested_document is the inner document of div-like elements. The
	// guard stops it where an enclosing close delimiter or forbidden
	// pattern fires.
	g.Add("nested_document", peg.Act(
		peg.Star(peg.Seq(checkIfnots, peg.Ref("document_block"))),
		collectBlocks))

	// block_probe answers "does a block or an empty line start here".
	// Paragraph continuation lines and single empty lines consult it.
	g.Add("block_probe", peg.Choice(
		peg.Ref("empty_line"),
		peg.Ref("block_at_bol"),
		peg.Rx(blockOpenPat),
	))

	g.AddMemo("empty_line", peg.Rx(`[ \t]*\n`))
	g.Add("empty_tail", peg.Seq(
		peg.Star(peg.Ref("empty_line")),
		peg.Rx(`[ \t]*`),
		peg.EOF(),
	))

	g.Add("heading", peg.Choice(
		b.headingRule(6), b.headingRule(5), b.headingRule(4),
		b.headingRule(3), b.headingRule(2), b.headingRule(1),
	))

	g.AddMemo("horizontal_rule", peg.Act(peg.Seq(
		peg.Rx(`----+[ \t]*`),
		peg.Opt(peg.Lit("\n")),
	), func(*peg.Parser, int, int, any) any {
		return wikiast.NewNode(wikiast.NodeHorizontalRule)
	}))

	g.AddMemo("toc_marker", peg.Act(peg.Seq(
		peg.Rx(`[ \t]*__(?:(TOC)|(NOTOC)|(FORCETOC))__[ \t]*`),
		peg.Choice(peg.Lit("\n"), peg.And(peg.EOF())),
	), tocAction))

	b.listRules()
	b.indentPreRules()
	b.paragraphRules()
}

// headingRule builds the level-n heading: "="×n, gated inline content,
// "="×n, trailing blanks and comments, end of line. Empty lines after a
// heading are consumed so they produce no break paragraphs.
func (b *builder) headingRule(level int) peg.Expr {
	marker := strings.Repeat("=", level)
	return peg.Act(peg.Seq(
		peg.Lit(marker),
		pushNoH(level),
		pushNoNL,
		peg.Ref("inline0"),
		popNo,
		popNo,
		peg.Lit(marker),
		peg.Rx(`[ \t]*(?:<!--(?s:.*?)-->[ \t]*)*`),
		peg.Choice(peg.Lit("\n"), peg.And(peg.EOF())),
		peg.Rx(`(?:[ \t]*\n)*`),
	), func(p *peg.Parser, start, _ int, v any) any {
		seq := v.([]any)
		children := trimInlineEdges(seq[3].([]*wikiast.Node))

		if hasEdgeEquals(children) {
			p.Warnf(start, "unbalanced heading markers")
		}

		n := wikiast.NewNode(wikiast.NodeHeading)
		n.Block = &wikiast.BlockAttrs{HeadingLevel: level}
		wikiast.AppendChildren(n, children)
		return n
	})
}

func tocAction(p *peg.Parser, _, _ int, _ any) any {
	caps := p.Captures()
	n := wikiast.NewNode(wikiast.NodeTOCMarker)
	n.Block = &wikiast.BlockAttrs{}
	switch {
	case caps[1] != "":
		n.Block.TOC = wikiast.TOCHere
	case caps[2] != "":
		n.Block.TOC = wikiast.TOCNone
	default:
		n.Block.TOC = wikiast.TOCForce
	}
	return n
}

func (b *builder) listRules() {
	g := b.g

	g.Add("list", peg.Choice(
		peg.Ref("list_ul"),
		peg.Ref("list_ol"),
		peg.Ref("list_dl"),
	))

	b.addMarkerList("ul", "*", pushBolSkipUL, wikiast.ListBullet)
	b.addMarkerList("ol", "#", pushBolSkipOL, wikiast.ListOrdered)

	// Definition lists. A dt may share its line with a dd via ':', but
	// sublists after that line become their own items; the dt/dd choice
	// belongs to the innermost marker, so an item whose content is a
	// nested list always wraps as dd.
	g.Add("list_dl", peg.Act(peg.Seq(
		peg.And(peg.Rx(`[;:]`)),
		peg.Plus(peg.Ref("dl_item")),
	), listAction(wikiast.ListDefinition)))

	g.Add("dl_item", peg.Choice(peg.Ref("dt_item"), peg.Ref("dd_item")))

	g.Add("dt_item", peg.Act(peg.Seq(
		checkBolSkipIfBOL,
		peg.Lit(";"),
		pushBolSkipDL,
		peg.Choice(
			peg.Ref("list"),
			peg.Act(peg.Seq(
				pushIfnotDT,
				pushNoNL,
				peg.Ref("inline0"),
				popNo,
				popIfnot,
				peg.Opt(peg.Ref("dt_inline_dd")),
				lineTail(),
			), func(_ *peg.Parser, _, _ int, v any) any {
				seq := v.([]any)
				return dlLine{
					content:  seq[2].([]*wikiast.Node),
					inlineDD: seq[5],
				}
			}),
		),
		popBolSkip,
	), dtAction))

	// dt_inline_dd admits only inline content after the ':'. Narrow on
	// purpose; kept as-is.
	g.Add("dt_inline_dd", peg.Act(peg.Seq(
		peg.Lit(":"),
		pushNoNL,
		peg.Ref("inline0"),
		popNo,
	), func(_ *peg.Parser, _, _ int, v any) any {
		return v.([]any)[2]
	}))

	g.Add("dd_item", peg.Act(peg.Seq(
		checkBolSkipIfBOL,
		peg.Lit(":"),
		pushBolSkipDL,
		peg.Ref("list_item_body"),
		popBolSkip,
	), func(_ *peg.Parser, _, _ int, v any) any {
		return buildDlItem(wikiast.NodeDefDef, v.([]any)[3])
	}))

	// list_item_body: either the line continues with deeper markers
	// (the item is just a nested list), or inline content up to the end
	// of line plus any following deeper-nested lines, which attach to
	// this item rather than opening a new one.
	g.Add("list_item_body", peg.Choice(
		peg.Ref("list"),
		peg.Act(peg.Seq(
			pushNoNL,
			peg.Ref("inline0"),
			popNo,
			lineTail(),
			peg.Star(peg.Ref("item_sublist")),
		), func(_ *peg.Parser, _, _ int, v any) any {
			seq := v.([]any)
			body := itemBody{content: seq[1].([]*wikiast.Node)}
			for _, sub := range seq[4].([]any) {
				body.sublists = append(body.sublists, sub.(*wikiast.Node))
			}
			return body
		}),
	))

	// A following line nests deeper when, after consuming the stacked
	// parent markers, another list marker remains.
	g.Add("item_sublist", peg.Act(peg.Seq(
		checkBolSkip,
		peg.Ref("list"),
	), func(_ *peg.Parser, _, _ int, v any) any {
		return v.([]any)[1]
	}))
}

// addMarkerList registers the rules for a single-marker list flavor.
func (b *builder) addMarkerList(name, marker string, push peg.Expr, kind wikiast.ListKind) {
	g := b.g

	g.Add("list_"+name, peg.Act(peg.Seq(
		peg.And(peg.Lit(marker)),
		peg.Plus(peg.Ref(name+"_item")),
	), listAction(kind)))

	g.Add(name+"_item", peg.Act(peg.Seq(
		checkBolSkipIfBOL,
		peg.Lit(marker),
		push,
		peg.Ref("list_item_body"),
		popBolSkip,
	), func(_ *peg.Parser, _, _ int, v any) any {
		return buildListItem(v.([]any)[3])
	}))
}

// itemBody is the parsed content of a list item line.
type itemBody struct {
	content  []*wikiast.Node
	sublists []*wikiast.Node
}

// dlLine is the parsed content of a ';' line, with its optional
// same-line dd.
type dlLine struct {
	content  []*wikiast.Node
	inlineDD any
}

func buildListItem(body any) *wikiast.Node {
	item := wikiast.NewNode(wikiast.NodeListItem)
	fillItem(item, body)
	return item
}

func buildDlItem(kind wikiast.NodeKind, body any) *wikiast.Node {
	item := wikiast.NewNode(kind)
	fillItem(item, body)
	return item
}

func fillItem(item *wikiast.Node, body any) {
	switch v := body.(type) {
	case *wikiast.Node:
		// The whole item is a nested list.
		wikiast.AppendChild(item, v)
	case itemBody:
		wikiast.AppendChildren(item, trimInlineEdges(v.content))
		wikiast.AppendChildren(item, v.sublists)
	}
}

// dtAction builds the DefTerm node, plus a sibling DefDef when the line
// carried an inline ": def" part.
func dtAction(_ *peg.Parser, _, _ int, v any) any {
	seq := v.([]any)
	body := seq[3]

	if list, ok := body.(*wikiast.Node); ok {
		return buildDlItem(wikiast.NodeDefDef, list)
	}

	line := body.(dlLine)
	dt := wikiast.NewNode(wikiast.NodeDefTerm)
	wikiast.AppendChildren(dt, trimInlineEdges(line.content))

	if line.inlineDD == nil {
		return dt
	}
	dd := wikiast.NewNode(wikiast.NodeDefDef)
	wikiast.AppendChildren(dd, trimInlineEdges(line.inlineDD.([]*wikiast.Node)))
	return []*wikiast.Node{dt, dd}
}

// listAction wraps the collected items (single nodes or node slices,
// for dt+dd lines) in a List node.
func listAction(kind wikiast.ListKind) peg.ActionFunc {
	return func(_ *peg.Parser, _, _ int, v any) any {
		seq := v.([]any)
		n := wikiast.NewNode(wikiast.NodeList)
		n.Block = &wikiast.BlockAttrs{List: &wikiast.ListAttrs{Kind: kind}}
		for _, item := range seq[1].([]any) {
			switch it := item.(type) {
			case *wikiast.Node:
				wikiast.AppendChild(n, it)
			case []*wikiast.Node:
				wikiast.AppendChildren(n, it)
			}
		}
		return n
	}
}

func (b *builder) indentPreRules() {
	g := b.g

	// Indent-pre: a beginning-of-line space while wspre is on, with
	// non-blank content on the first line. Each following line must
	// start with the stacked single-space prefix.
	g.Add("indent_pre", peg.Act(peg.Seq(
		checkWspre,
		peg.Lit(" "),
		peg.And(peg.Rx(`[ \t]*[^ \t\n]`)),
		pushBolSkipWspre,
		pushNoNL,
		peg.Ref("inline0"),
		popNo,
		peg.Star(peg.Ref("ipre_line")),
		popBolSkip,
		peg.Opt(peg.Lit("\n")),
	), func(_ *peg.Parser, _, _ int, v any) any {
		seq := v.([]any)
		n := wikiast.NewNode(wikiast.NodeIndentPre)
		wikiast.AppendChildren(n, seq[5].([]*wikiast.Node))
		for _, line := range seq[7].([]any) {
			wikiast.AppendChildren(n, line.([]*wikiast.Node))
		}
		return n
	}))

	g.Add("ipre_line", peg.Act(peg.Seq(
		peg.Lit("\n"),
		checkBolSkip,
		pushNoNL,
		peg.Ref("inline0"),
		popNo,
	), func(_ *peg.Parser, _, _ int, v any) any {
		nodes := []*wikiast.Node{wikiast.NewNode(wikiast.NodeLineBreak)}
		return append(nodes, v.([]any)[3].([]*wikiast.Node)...)
	}))
}

func (b *builder) paragraphRules() {
	g := b.g

	g.Add("paragraph", peg.Choice(
		peg.Act(peg.Seq(
			peg.Ref("empty_line"),
			peg.Plus(peg.Ref("empty_line")),
		), brOnlyPara),
		peg.Act(peg.Seq(
			peg.Ref("empty_line"),
			peg.Not(peg.Ref("block_probe")),
			peg.Ref("para_content"),
		), func(_ *peg.Parser, _, _ int, v any) any {
			p := v.([]any)[2].(*wikiast.Node)
			p.Block.LeadingBreak = true
			return p
		}),
		peg.Ref("para_content"),
		peg.Act(peg.Ref("empty_line"), brOnlyPara),
	))

	g.Add("para_content", peg.Act(peg.Seq(
		peg.Ref("inline1"),
		lineTail(),
	), func(_ *peg.Parser, _, _ int, v any) any {
		n := wikiast.NewNode(wikiast.NodeParagraph)
		n.Block = &wikiast.BlockAttrs{}
		wikiast.AppendChildren(n, v.([]any)[0].([]*wikiast.Node))
		return n
	}))
}

func brOnlyPara(*peg.Parser, int, int, any) any {
	n := wikiast.NewNode(wikiast.NodeParagraph)
	n.Block = &wikiast.BlockAttrs{LeadingBreak: true}
	return n
}

func collectBlocks(_ *peg.Parser, _, _ int, v any) any {
	var blocks []*wikiast.Node
	for _, item := range v.([]any) {
		pair := item.([]any)
		if n, ok := pair[1].(*wikiast.Node); ok {
			blocks = append(blocks, n)
		}
	}
	return blocks
}

// trimInlineEdges strips leading/trailing blanks from the first and
// last text nodes of an inline run, dropping nodes that become empty.
func trimInlineEdges(nodes []*wikiast.Node) []*wikiast.Node {
	if len(nodes) > 0 && nodes[0].Kind == wikiast.NodeText {
		nodes[0].Literal = bytes.TrimLeft(nodes[0].Literal, " \t")
		if len(nodes[0].Literal) == 0 {
			nodes = nodes[1:]
		}
	}
	if len(nodes) > 0 && nodes[len(nodes)-1].Kind == wikiast.NodeText {
		last := nodes[len(nodes)-1]
		last.Literal = bytes.TrimRight(last.Literal, " \t")
		if len(last.Literal) == 0 {
			nodes = nodes[:len(nodes)-1]
		}
	}
	return nodes
}

// hasEdgeEquals reports heading content whose edges still carry '='
// characters, the typical sign of mismatched marker runs.
func hasEdgeEquals(nodes []*wikiast.Node) bool {
	if len(nodes) == 0 {
		return false
	}
	if first := nodes[0]; first.Kind == wikiast.NodeText &&
		bytes.HasPrefix(first.Literal, []byte("=")) {
		return true
	}
	last := nodes[len(nodes)-1]
	return last.Kind == wikiast.NodeText && bytes.HasSuffix(last.Literal, []byte("="))
}
