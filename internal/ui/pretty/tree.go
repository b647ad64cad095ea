package pretty

import (
	"fmt"
	"io"
	"strings"

	"github.com/miki725/smc.mw/pkg/peg"
	"github.com/miki725/smc.mw/pkg/wikiast"
)

// RenderTree writes a styled indented dump of the document tree.
func (s *Styles) RenderTree(w io.Writer, root *wikiast.Node) {
	s.renderNode(w, root, 0)
}

func (s *Styles) renderNode(w io.Writer, n *wikiast.Node, depth int) {
	if n == nil {
		return
	}

	line := s.TreeGuide.Render(strings.Repeat("  ", depth)) +
		s.NodeKind.Render(n.Kind.String())

	if parts := describeNode(n); parts != "" {
		line += " " + s.NodeAttr.Render(parts)
	}
	if len(n.Literal) > 0 {
		line += " " + s.NodeText.Render(fmt.Sprintf("%q", string(n.Literal)))
	}

	fmt.Fprintln(w, line)

	for c := n.FirstChild; c != nil; c = c.Next {
		s.renderNode(w, c, depth+1)
	}
}

func describeNode(n *wikiast.Node) string {
	var parts []string

	if n.Block != nil {
		if n.Kind == wikiast.NodeHeading {
			parts = append(parts, fmt.Sprintf("level=%d", n.Block.HeadingLevel))
		}
		if n.Block.List != nil {
			parts = append(parts, n.Block.List.Kind.String())
		}
		if n.Block.Cell != nil {
			if n.Block.Cell.Header {
				parts = append(parts, "header")
			} else {
				parts = append(parts, "data")
			}
		}
		if n.Kind == wikiast.NodeTOCMarker {
			parts = append(parts, n.Block.TOC.String())
		}
		for _, a := range n.Block.Attrs {
			parts = append(parts, fmt.Sprintf("%s=%q", a.Name, a.Value))
		}
	}

	if n.Inline != nil && n.Inline.Link != nil {
		link := n.Inline.Link
		if link.Target != "" {
			parts = append(parts, fmt.Sprintf("target=%q", link.Target))
		}
		if link.URL != "" && n.Kind != wikiast.NodePlainLink {
			parts = append(parts, fmt.Sprintf("url=%q", link.URL))
		}
		if link.Trail != "" {
			parts = append(parts, fmt.Sprintf("trail=%q", link.Trail))
		}
	}

	if n.HTML != nil {
		tag := "<" + n.HTML.Name + ">"
		if n.HTML.SelfClosing {
			tag = "<" + n.HTML.Name + "/>"
		}
		parts = append(parts, tag)
		for _, a := range n.HTML.Attrs {
			parts = append(parts, fmt.Sprintf("%s=%q", a.Name, a.Value))
		}
	}

	return strings.Join(parts, " ")
}

// RenderDiagnostics writes the parse warnings, one per line.
func (s *Styles) RenderDiagnostics(w io.Writer, path string, diags []peg.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(w, "%s%s %s\n",
			s.Location.Render(fmt.Sprintf("%s:%d:%d: ", path, d.Line, d.Column)),
			s.Warning.Render("warning:"),
			s.Message.Render(d.Message),
		)
	}
}
