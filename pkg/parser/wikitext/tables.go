package wikitext

import (
	"github.com/miki725/smc.mw/pkg/peg"
	"github.com/miki725/smc.mw/pkg/wikiast"
)

// tablelineRe recognizes a line that belongs to the enclosing table
// structure; embedded block mode inside cells stops in front of it.
var tablelineRe = peg.MustPattern(`[ \t]*[|!]`)

func (b *builder) tableRules() {
	g := b.g

	// {| attrs ... |} on its own line, optionally indented with ':'
	// runs (the indent is preserved on the node).
	g.Add("table", peg.Act(peg.Seq(
		peg.Rx(`(:*)`),
		peg.Lit("{|"),
		peg.Ref("attrs_to_eol"),
		peg.Rx(`[ \t]*`),
		peg.Choice(peg.Lit("\n"), peg.And(peg.EOF())),
		peg.Opt(peg.Ref("table_caption")),
		peg.Opt(peg.Ref("table_first_row")),
		peg.Star(peg.Ref("table_row")),
		peg.Rx(`[ \t]*\|\}[ \t]*`),
		peg.Opt(peg.Lit("\n")),
	), tableAction))

	g.Add("table_caption", peg.Act(peg.Seq(
		checkBOL,
		peg.Rx(`\|\+`),
		peg.Opt(peg.Ref("cell_attr_prefix")),
		peg.Ref("table_mode_document"),
	), func(_ *peg.Parser, _, _ int, v any) any {
		seq := v.([]any)
		n := wikiast.NewNode(wikiast.NodeTableCaption)
		n.Block = &wikiast.BlockAttrs{Attrs: optAttrs(seq[2])}
		wikiast.AppendChildren(n, seq[3].([]*wikiast.Node))
		return n
	}))

	// The first row needs no "|-" line.
	g.Add("table_first_row", peg.Act(
		peg.Plus(peg.Ref("cell_line")),
		func(_ *peg.Parser, _, _ int, v any) any {
			row := wikiast.NewNode(wikiast.NodeTableRow)
			row.Block = &wikiast.BlockAttrs{}
			appendCellLines(row, v.([]any))
			return row
		}))

	g.Add("table_row", peg.Act(peg.Seq(
		checkBOL,
		peg.Rx(`\|-+`),
		peg.Ref("attrs_to_eol"),
		peg.Rx(`[ \t]*`),
		peg.Choice(peg.Lit("\n"), peg.And(peg.EOF())),
		peg.Star(peg.Ref("cell_line")),
	), func(_ *peg.Parser, _, _ int, v any) any {
		seq := v.([]any)
		row := wikiast.NewNode(wikiast.NodeTableRow)
		row.Block = &wikiast.BlockAttrs{Attrs: seq[2].([]wikiast.Attribute)}
		appendCellLines(row, seq[5].([]any))
		return row
	}))

	g.Add("cell_line", peg.Choice(
		peg.Ref("data_cell_line"),
		peg.Ref("header_cell_line"),
	))

	// A data line: "|" cells separated by "||". A header line: "!"
	// cells separated by "!!" (or "||", a synonym after "!").
	g.Add("data_cell_line", peg.Act(peg.Seq(
		checkBOL,
		peg.Lit("|"),
		peg.Not(peg.Rx(`[-}+]`)),
		peg.Ref("data_cells"),
	), func(_ *peg.Parser, _, _ int, v any) any {
		return v.([]any)[3]
	}))

	g.Add("header_cell_line", peg.Act(peg.Seq(
		checkBOL,
		peg.Lit("!"),
		peg.Ref("header_cells"),
	), func(_ *peg.Parser, _, _ int, v any) any {
		return v.([]any)[2]
	}))

	b.addCellChain("data_cells", "data_cell_inline", "data_cell_block",
		peg.Rx(`\|\|`), pushIfnotData, false)
	b.addCellChain("header_cells", "header_cell_inline", "header_cell_block",
		peg.Rx(`!!|\|\|`), pushIfnotHdr, true)

	// Attributes on a cell or caption precede a single "|".
	g.Add("cell_attr_prefix", peg.Act(peg.Seq(
		peg.Ref("attrs_to_cell"),
		peg.Rx(`[ \t]*`),
		peg.Lit("|"),
		peg.Not(peg.Lit("|")),
	), func(_ *peg.Parser, _, _ int, v any) any {
		return v.([]any)[0]
	}))

	// table_mode_document: embedded block content of a terminal cell.
	// The pushed pattern keeps nested blocks from consuming subsequent
	// cell or row starts.
	g.Add("table_mode_document", peg.Act(peg.Seq(
		pushNoTableline,
		peg.Star(peg.Seq(
			peg.Trap("cell_block_guard", func(p *peg.Parser) bool {
				if !p.AtBOL() {
					return true
				}
				_, hit := p.MatchPattern(tablelineRe)
				return !hit
			}),
			peg.Ref("document_block"),
		)),
		popNo,
	), func(_ *peg.Parser, _, _ int, v any) any {
		return collectBlocks(nil, 0, 0, v.([]any)[1])
	}))
}

// addCellChain registers the recursive cells-on-a-line rules: inline
// cells separated by sep, ending in one block-capable terminal cell.
func (b *builder) addCellChain(chain, inlineName, blockName string, sep, pushSep peg.Expr, header bool) {
	g := b.g

	g.Add(chain, peg.Choice(
		peg.Act(peg.Seq(
			peg.Ref(inlineName),
			sep,
			peg.Ref(chain),
		), func(_ *peg.Parser, _, _ int, v any) any {
			seq := v.([]any)
			cells := []*wikiast.Node{seq[0].(*wikiast.Node)}
			return append(cells, seq[2].([]*wikiast.Node)...)
		}),
		peg.Act(peg.Ref(blockName), func(_ *peg.Parser, _, _ int, v any) any {
			return []*wikiast.Node{v.(*wikiast.Node)}
		}),
	))

	g.Add(inlineName, peg.Act(peg.Seq(
		peg.Opt(peg.Ref("cell_attr_prefix")),
		pushSep,
		pushNoNL,
		peg.Ref("inline0"),
		popNo,
		popIfnot,
	), func(_ *peg.Parser, _, _ int, v any) any {
		seq := v.([]any)
		return newCell(header, optAttrs(seq[0]), trimInlineEdges(seq[3].([]*wikiast.Node)))
	}))

	g.Add(blockName, peg.Act(peg.Seq(
		peg.Opt(peg.Ref("cell_attr_prefix")),
		peg.Ref("table_mode_document"),
	), func(_ *peg.Parser, _, _ int, v any) any {
		seq := v.([]any)
		return newCell(header, optAttrs(seq[0]), seq[1].([]*wikiast.Node))
	}))
}

func newCell(header bool, attrs []wikiast.Attribute, children []*wikiast.Node) *wikiast.Node {
	n := wikiast.NewNode(wikiast.NodeTableCell)
	n.Block = &wikiast.BlockAttrs{
		Cell:  &wikiast.CellAttrs{Header: header},
		Attrs: attrs,
	}
	wikiast.AppendChildren(n, children)
	return n
}

func optAttrs(v any) []wikiast.Attribute {
	if v == nil {
		return nil
	}
	return v.([]wikiast.Attribute)
}

func appendCellLines(row *wikiast.Node, lines []any) {
	for _, line := range lines {
		wikiast.AppendChildren(row, line.([]*wikiast.Node))
	}
}

func tableAction(_ *peg.Parser, _, _ int, v any) any {
	seq := v.([]any)

	n := wikiast.NewNode(wikiast.NodeTable)
	n.Block = &wikiast.BlockAttrs{
		Indent: len(seq[0].(string)),
		Attrs:  seq[2].([]wikiast.Attribute),
	}

	if seq[5] != nil {
		wikiast.AppendChild(n, seq[5].(*wikiast.Node))
	}
	if seq[6] != nil {
		wikiast.AppendChild(n, seq[6].(*wikiast.Node))
	}
	for _, row := range seq[7].([]any) {
		wikiast.AppendChild(n, row.(*wikiast.Node))
	}
	return n
}
