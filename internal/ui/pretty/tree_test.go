package pretty

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/miki725/smc.mw/pkg/peg"
	"github.com/miki725/smc.mw/pkg/wikiast"
)

func sampleTree() *wikiast.Node {
	doc := wikiast.NewDocument()

	h := wikiast.NewNode(wikiast.NodeHeading)
	h.Block = &wikiast.BlockAttrs{HeadingLevel: 3}
	wikiast.AppendChild(doc, h)
	wikiast.AppendChild(h, wikiast.NewTextString("Title"))

	link := wikiast.NewNode(wikiast.NodeInternalLink)
	link.Inline = &wikiast.InlineAttrs{Link: &wikiast.LinkAttrs{Target: "Page", Trail: "s"}}
	para := wikiast.NewNode(wikiast.NodeParagraph)
	para.Block = &wikiast.BlockAttrs{}
	wikiast.AppendChild(doc, para)
	wikiast.AppendChild(para, link)

	return doc
}

func TestRenderTree_NoColor(t *testing.T) {
	styles := NewStyles(false)
	var buf bytes.Buffer
	styles.RenderTree(&buf, sampleTree())

	out := buf.String()
	assert.Contains(t, out, "Document")
	assert.Contains(t, out, "Heading level=3")
	assert.Contains(t, out, `"Title"`)
	assert.Contains(t, out, `target="Page"`)
	assert.Contains(t, out, `trail="s"`)

	// Children indent one step deeper than their parents.
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Heading") {
			assert.True(t, strings.HasPrefix(line, "  "), "heading should be indented")
		}
	}
}

func TestRenderDiagnostics(t *testing.T) {
	styles := NewStyles(false)
	var buf bytes.Buffer
	styles.RenderDiagnostics(&buf, "page.wiki", []peg.Diagnostic{
		{Offset: 3, Line: 1, Column: 4, Message: "unclosed comment"},
	})

	out := buf.String()
	assert.Contains(t, out, "page.wiki:1:4")
	assert.Contains(t, out, "unclosed comment")
}

func TestColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, ColorEnabled("always", &buf))
	assert.False(t, ColorEnabled("never", &buf))
	assert.False(t, ColorEnabled("auto", &buf), "non-file writers never colorize")
}
