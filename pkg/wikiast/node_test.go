package wikiast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendChild(t *testing.T) {
	doc := NewDocument()
	a := NewTextString("a")
	b := NewTextString("b")

	AppendChild(doc, a)
	AppendChild(doc, b)

	assert.Equal(t, a, doc.FirstChild)
	assert.Equal(t, b, doc.LastChild)
	assert.Equal(t, b, a.Next)
	assert.Equal(t, a, b.Prev)
	assert.Equal(t, doc, a.Parent)
	assert.Equal(t, 2, doc.ChildCount())
}

func TestAppendChild_ReparentsFromOldParent(t *testing.T) {
	p1 := NewDocument()
	p2 := NewDocument()
	n := NewTextString("x")

	AppendChild(p1, n)
	AppendChild(p2, n)

	assert.Nil(t, p1.FirstChild)
	assert.Equal(t, n, p2.FirstChild)
	assert.Equal(t, p2, n.Parent)
}

func TestRemoveChild(t *testing.T) {
	doc := NewDocument()
	a := NewTextString("a")
	b := NewTextString("b")
	c := NewTextString("c")
	AppendChildren(doc, []*Node{a, b, c})

	RemoveChild(doc, b)

	assert.Equal(t, c, a.Next)
	assert.Equal(t, a, c.Prev)
	assert.Nil(t, b.Parent)
	assert.Equal(t, 2, doc.ChildCount())
}

func TestReparent(t *testing.T) {
	src := NewNode(NodeParagraph)
	AppendChildren(src, []*Node{NewTextString("a"), NewTextString("b")})

	dst := NewNode(NodeTableCell)
	Reparent(dst, src)

	assert.Equal(t, 2, dst.ChildCount())
	assert.Equal(t, 0, src.ChildCount())
	assert.Equal(t, dst, dst.FirstChild.Parent)
}

func TestWalk_PreOrder(t *testing.T) {
	doc := NewDocument()
	para := NewNode(NodeParagraph)
	AppendChild(doc, para)
	AppendChild(para, NewTextString("x"))

	var kinds []NodeKind
	err := Walk(doc, func(n *Node) error {
		kinds = append(kinds, n.Kind)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []NodeKind{NodeDocument, NodeParagraph, NodeText}, kinds)
}

func TestBlockInlineClassification(t *testing.T) {
	assert.True(t, NewNode(NodeHeading).IsBlock())
	assert.True(t, NewNode(NodeTable).IsBlock())
	assert.False(t, NewNode(NodeBold).IsBlock())
	assert.True(t, NewNode(NodeBold).IsInline())
	assert.True(t, NewNode(NodeRef).IsInline())
	assert.False(t, NewNode(NodeParagraph).IsInline())
}

func TestDump(t *testing.T) {
	doc := NewDocument()
	h := NewNode(NodeHeading)
	h.Block = &BlockAttrs{HeadingLevel: 2}
	AppendChild(doc, h)
	AppendChild(h, NewTextString("Hello"))

	out := Dump(doc)
	assert.Contains(t, out, "Heading level=2")
	assert.Contains(t, out, `Text "Hello"`)
}

func TestInnerText(t *testing.T) {
	para := NewNode(NodeParagraph)
	AppendChild(para, NewTextString("a"))
	ent := NewNode(NodeEntity)
	ent.Inline = &InlineAttrs{Entity: &EntityAttrs{Form: EntityNamed, Name: "amp", Code: '&'}}
	AppendChild(para, ent)
	AppendChild(para, NewTextString("b"))

	assert.Equal(t, "a&b", InnerText(para))
}
