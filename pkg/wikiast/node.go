// Package wikiast provides the core wikitext AST representation.
// It defines the typed document tree produced by the main grammar:
// block nodes (headings, lists, tables, preformatted blocks, paragraphs),
// inline nodes (text, bold/italic, links, entities), and the HTML-like
// element nodes that wikitext admits in both positions.
package wikiast

// NodeKind classifies the type of an AST node.
type NodeKind uint16

// Node kinds for block-level and inline-level wikitext elements.
const (
	NodeDocument NodeKind = iota

	// Block-level nodes.
	NodeHeading
	NodeHorizontalRule
	NodeList
	NodeListItem
	NodeDefTerm
	NodeDefDef
	NodeTable
	NodeTableCaption
	NodeTableRow
	NodeTableCell
	NodeIndentPre
	NodeParagraph
	NodeTOCMarker

	// Inline-level nodes.
	NodeText
	NodeBold
	NodeItalic
	NodeBoldItalic
	NodeInternalLink
	NodeExternalLink
	NodePlainLink
	NodeEntity
	NodeNowiki
	NodeComment
	NodeLineBreak

	// HTML-like elements. Whether a given element behaves as a block or
	// an inline is decided by its tag name, not by its node kind; the
	// kind records the position the parser admitted it in.
	NodeHTMLBlock
	NodeHTMLInline

	// Ref appears in inline position but carries block content.
	NodeRef
)

var kindNames = [...]string{
	NodeDocument:       "Document",
	NodeHeading:        "Heading",
	NodeHorizontalRule: "HorizontalRule",
	NodeList:           "List",
	NodeListItem:       "ListItem",
	NodeDefTerm:        "DefTerm",
	NodeDefDef:         "DefDef",
	NodeTable:          "Table",
	NodeTableCaption:   "TableCaption",
	NodeTableRow:       "TableRow",
	NodeTableCell:      "TableCell",
	NodeIndentPre:      "IndentPre",
	NodeParagraph:      "Paragraph",
	NodeTOCMarker:      "TOCMarker",
	NodeText:           "Text",
	NodeBold:           "Bold",
	NodeItalic:         "Italic",
	NodeBoldItalic:     "BoldItalic",
	NodeInternalLink:   "InternalLink",
	NodeExternalLink:   "ExternalLink",
	NodePlainLink:      "PlainLink",
	NodeEntity:         "Entity",
	NodeNowiki:         "Nowiki",
	NodeComment:        "Comment",
	NodeLineBreak:      "LineBreak",
	NodeHTMLBlock:      "HTMLBlock",
	NodeHTMLInline:     "HTMLInline",
	NodeRef:            "Ref",
}

// String returns a human-readable name for the node kind.
func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Node represents a single node in the wikitext AST.
// Nodes form a tree structure with parent/child/sibling relationships.
type Node struct {
	// Kind identifies what type of node this is.
	Kind NodeKind

	// Tree structure pointers.
	Parent     *Node
	FirstChild *Node
	LastChild  *Node
	Prev       *Node
	Next       *Node

	// Literal holds the raw text payload for leaf-ish nodes:
	// NodeText, NodeNowiki, NodeComment, NodePlainLink (the URL),
	// and the verbatim body of a <pre> element.
	Literal []byte

	// Block holds attributes for block-level nodes.
	Block *BlockAttrs

	// Inline holds attributes for inline-level nodes.
	Inline *InlineAttrs

	// HTML holds tag name and attributes for NodeHTMLBlock,
	// NodeHTMLInline, and the table-family element nodes.
	HTML *HTMLAttrs
}

// IsBlock returns true if this is a block-level node.
func (n *Node) IsBlock() bool {
	switch n.Kind {
	case NodeDocument, NodeHeading, NodeHorizontalRule, NodeList, NodeListItem,
		NodeDefTerm, NodeDefDef, NodeTable, NodeTableCaption, NodeTableRow,
		NodeTableCell, NodeIndentPre, NodeParagraph, NodeTOCMarker, NodeHTMLBlock:
		return true
	default:
		return false
	}
}

// IsInline returns true if this is an inline-level node.
func (n *Node) IsInline() bool {
	switch n.Kind {
	case NodeText, NodeBold, NodeItalic, NodeBoldItalic, NodeInternalLink,
		NodeExternalLink, NodePlainLink, NodeEntity, NodeNowiki, NodeComment,
		NodeLineBreak, NodeHTMLInline, NodeRef:
		return true
	default:
		return false
	}
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.Next {
		count++
	}
	return count
}

// Children returns the direct children as a slice.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.Next {
		out = append(out, c)
	}
	return out
}
