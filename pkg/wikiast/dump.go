package wikiast

import (
	"fmt"
	"strings"
)

// Dump renders the tree as an indented multi-line string for debugging
// and for golden comparisons in tests. The format is stable: one node
// per line, two-space indentation, kind name first, then the attributes
// that distinguish the node.
func Dump(root *Node) string {
	var b strings.Builder
	dumpNode(&b, root, 0)
	return b.String()
}

func dumpNode(b *strings.Builder, n *Node, depth int) {
	if n == nil {
		return
	}

	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Kind.String())

	for _, part := range describe(n) {
		b.WriteByte(' ')
		b.WriteString(part)
	}
	b.WriteByte('\n')

	for c := n.FirstChild; c != nil; c = c.Next {
		dumpNode(b, c, depth+1)
	}
}

// describe returns the attribute fragments shown after the kind name.
func describe(n *Node) []string {
	var parts []string

	if len(n.Literal) > 0 {
		parts = append(parts, fmt.Sprintf("%q", string(n.Literal)))
	}

	if n.Block != nil {
		ba := n.Block
		if n.Kind == NodeHeading {
			parts = append(parts, fmt.Sprintf("level=%d", ba.HeadingLevel))
		}
		if ba.List != nil {
			parts = append(parts, "kind="+ba.List.Kind.String())
		}
		if ba.Cell != nil {
			if ba.Cell.Header {
				parts = append(parts, "header")
			} else {
				parts = append(parts, "data")
			}
		}
		if n.Kind == NodeTOCMarker {
			parts = append(parts, "kind="+ba.TOC.String())
		}
		if ba.Indent > 0 {
			parts = append(parts, fmt.Sprintf("indent=%d", ba.Indent))
		}
		if ba.LeadingBreak {
			parts = append(parts, "leading-br")
		}
		if ba.TrailingBreak {
			parts = append(parts, "trailing-br")
		}
		for _, a := range ba.Attrs {
			parts = append(parts, fmt.Sprintf("%s=%q", a.Name, a.Value))
		}
	}

	if n.Inline != nil {
		ia := n.Inline
		if ia.Link != nil {
			if ia.Link.Target != "" {
				parts = append(parts, fmt.Sprintf("target=%q", ia.Link.Target))
			}
			if ia.Link.URL != "" {
				parts = append(parts, fmt.Sprintf("url=%q", ia.Link.URL))
			}
			if ia.Link.Trail != "" {
				parts = append(parts, fmt.Sprintf("trail=%q", ia.Link.Trail))
			}
		}
		if ia.Entity != nil {
			switch ia.Entity.Form {
			case EntityNamed:
				parts = append(parts, "named="+ia.Entity.Name)
			case EntityDecimal:
				parts = append(parts, fmt.Sprintf("dec=%d", ia.Entity.Code))
			case EntityHex:
				parts = append(parts, fmt.Sprintf("hex=%x", ia.Entity.Code))
			}
		}
	}

	if n.HTML != nil {
		parts = append(parts, "<"+n.HTML.Name+">")
		if n.HTML.SelfClosing {
			parts = append(parts, "self-closing")
		}
		for _, a := range n.HTML.Attrs {
			parts = append(parts, fmt.Sprintf("%s=%q", a.Name, a.Value))
		}
	}

	return parts
}

// InnerText concatenates the literal text of descendant Text and Nowiki
// nodes. Entities contribute their resolved code point when available.
// Literals held by other kinds (comments, plain-link URLs, <pre> bodies)
// are not included.
func InnerText(root *Node) string {
	var b strings.Builder
	_ = Walk(root, func(n *Node) error {
		switch n.Kind {
		case NodeText, NodeNowiki:
			b.Write(n.Literal)
		case NodeEntity:
			if n.Inline != nil && n.Inline.Entity != nil && n.Inline.Entity.Code != 0 {
				b.WriteRune(n.Inline.Entity.Code)
			}
		}
		return nil
	})
	return b.String()
}
