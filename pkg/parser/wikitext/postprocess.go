package wikitext

import (
	"bytes"

	"github.com/miki725/smc.mw/pkg/wikiast"
)

// postprocess applies the tree normalizations that run after the
// grammar: cell flattening and adjacent-list merging.
func postprocess(doc *wikiast.Node) {
	flattenCells(doc)
	mergeAdjacentLists(doc)
}

// flattenCells rewrites table cells and captions whose body is a single
// plain paragraph into inline content. The rule applies uniformly to
// captions, data cells, and header cells.
func flattenCells(root *wikiast.Node) {
	_ = wikiast.Walk(root, func(n *wikiast.Node) error {
		if n.Kind != wikiast.NodeTableCell && n.Kind != wikiast.NodeTableCaption {
			return nil
		}

		only := n.FirstChild
		if only == nil || only.Next != nil || only.Kind != wikiast.NodeParagraph {
			return nil
		}
		if only.Block != nil && (only.Block.LeadingBreak || only.Block.TrailingBreak) {
			return nil
		}

		wikiast.RemoveChild(n, only)
		wikiast.Reparent(n, only)
		trimEdgeText(n)
		return nil
	})
}

// trimEdgeText strips blanks from the first and last text children of
// a node, dropping children that become empty.
func trimEdgeText(n *wikiast.Node) {
	if first := n.FirstChild; first != nil && first.Kind == wikiast.NodeText {
		first.Literal = bytes.TrimLeft(first.Literal, " \t")
		if len(first.Literal) == 0 {
			wikiast.RemoveChild(n, first)
		}
	}
	if last := n.LastChild; last != nil && last.Kind == wikiast.NodeText {
		last.Literal = bytes.TrimRight(last.Literal, " \t")
		if len(last.Literal) == 0 {
			wikiast.RemoveChild(n, last)
		}
	}
}

// mergeAdjacentLists joins sibling List nodes of the same kind into
// one, so item runs split by the grammar read as a single list.
func mergeAdjacentLists(root *wikiast.Node) {
	_ = wikiast.Walk(root, func(n *wikiast.Node) error {
		child := n.FirstChild
		for child != nil {
			next := child.Next
			if next != nil && sameListKind(child, next) {
				wikiast.RemoveChild(n, next)
				wikiast.Reparent(child, next)
				continue
			}
			child = next
		}
		return nil
	})
}

func sameListKind(a, b *wikiast.Node) bool {
	if a.Kind != wikiast.NodeList || b.Kind != wikiast.NodeList {
		return false
	}
	if a.Block == nil || b.Block == nil || a.Block.List == nil || b.Block.List == nil {
		return false
	}
	return a.Block.List.Kind == b.Block.List.Kind
}
