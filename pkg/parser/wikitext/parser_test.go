package wikitext

import (
	"context"
	"testing"

	"github.com/miki725/smc.mw/pkg/peg"
	"github.com/miki725/smc.mw/pkg/wikiast"
)

func parseDoc(t *testing.T, src string) *wikiast.Node {
	t.Helper()
	res, err := Default().Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return res.Doc
}

func childKinds(n *wikiast.Node) []wikiast.NodeKind {
	var kinds []wikiast.NodeKind
	for c := n.FirstChild; c != nil; c = c.Next {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

func requireKinds(t *testing.T, n *wikiast.Node, want ...wikiast.NodeKind) []*wikiast.Node {
	t.Helper()
	got := childKinds(n)
	if len(got) != len(want) {
		t.Fatalf("children = %v, want %v\n%s", got, want, wikiast.Dump(n))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("children = %v, want %v\n%s", got, want, wikiast.Dump(n))
		}
	}
	return n.Children()
}

func TestParse_HeadingSimple(t *testing.T) {
	doc := parseDoc(t, "== Hello ==\n")

	blocks := requireKinds(t, doc, wikiast.NodeHeading)
	h := blocks[0]
	if h.Block.HeadingLevel != 2 {
		t.Errorf("level = %d, want 2", h.Block.HeadingLevel)
	}

	inline := requireKinds(t, h, wikiast.NodeText)
	if string(inline[0].Literal) != "Hello" {
		t.Errorf("text = %q, want %q", inline[0].Literal, "Hello")
	}
}

func TestParse_HeadingLevels(t *testing.T) {
	markers := []string{"=", "==", "===", "====", "=====", "======"}
	for level, m := range markers {
		doc := parseDoc(t, m+"t"+m+"\n")
		blocks := requireKinds(t, doc, wikiast.NodeHeading)
		if got := blocks[0].Block.HeadingLevel; got != level+1 {
			t.Errorf("%q: level = %d, want %d", m, got, level+1)
		}
	}
}

func TestParse_HeadingConsumesFollowingEmptyLines(t *testing.T) {
	doc := parseDoc(t, "== H ==\n\n\ntext\n")

	blocks := requireKinds(t, doc, wikiast.NodeHeading, wikiast.NodeParagraph)
	if blocks[1].Block.LeadingBreak {
		t.Error("empty lines after a heading must not become breaks")
	}
}

func TestParse_HeadingMismatchWarns(t *testing.T) {
	res, err := Default().Parse(context.Background(), "=== x ==\n")
	if err != nil {
		t.Fatal(err)
	}

	blocks := requireKinds(t, res.Doc, wikiast.NodeHeading)
	if blocks[0].Block.HeadingLevel != 2 {
		t.Errorf("level = %d, want 2", blocks[0].Block.HeadingLevel)
	}
	if len(res.Diagnostics) == 0 {
		t.Error("expected a heading-mismatch diagnostic")
	}
}

func TestParse_NestedList(t *testing.T) {
	doc := parseDoc(t, "* a\n** b\n* c\n")

	blocks := requireKinds(t, doc, wikiast.NodeList)
	list := blocks[0]
	if list.Block.List.Kind != wikiast.ListBullet {
		t.Fatalf("kind = %v, want ul", list.Block.List.Kind)
	}

	items := requireKinds(t, list, wikiast.NodeListItem, wikiast.NodeListItem)

	first := requireKinds(t, items[0], wikiast.NodeText, wikiast.NodeList)
	if string(first[0].Literal) != "a" {
		t.Errorf("first item text = %q", first[0].Literal)
	}

	subItems := requireKinds(t, first[1], wikiast.NodeListItem)
	sub := requireKinds(t, subItems[0], wikiast.NodeText)
	if string(sub[0].Literal) != "b" {
		t.Errorf("nested item text = %q", sub[0].Literal)
	}

	second := requireKinds(t, items[1], wikiast.NodeText)
	if string(second[0].Literal) != "c" {
		t.Errorf("second item text = %q", second[0].Literal)
	}
}

func TestParse_Table(t *testing.T) {
	doc := parseDoc(t, "{| class=\"x\"\n|-\n! H1 !! H2\n|-\n| a || b\n|}\n")

	blocks := requireKinds(t, doc, wikiast.NodeTable)
	table := blocks[0]
	if len(table.Block.Attrs) != 1 || table.Block.Attrs[0].Name != "class" ||
		table.Block.Attrs[0].Value != "x" {
		t.Errorf("table attrs = %v", table.Block.Attrs)
	}

	rows := requireKinds(t, table, wikiast.NodeTableRow, wikiast.NodeTableRow)

	headers := requireKinds(t, rows[0], wikiast.NodeTableCell, wikiast.NodeTableCell)
	for i, want := range []string{"H1", "H2"} {
		if !headers[i].Block.Cell.Header {
			t.Errorf("cell %d: want header", i)
		}
		if got := wikiast.InnerText(headers[i]); got != want {
			t.Errorf("cell %d text = %q, want %q", i, got, want)
		}
	}

	data := requireKinds(t, rows[1], wikiast.NodeTableCell, wikiast.NodeTableCell)
	for i, want := range []string{"a", "b"} {
		if data[i].Block.Cell.Header {
			t.Errorf("cell %d: want data", i)
		}
		if got := wikiast.InnerText(data[i]); got != want {
			t.Errorf("cell %d text = %q, want %q", i, got, want)
		}
	}
}

func TestParse_BoldItalicInterplay(t *testing.T) {
	doc := parseDoc(t, "'''a''b'''c''")

	blocks := requireKinds(t, doc, wikiast.NodeParagraph)
	inline := requireKinds(t, blocks[0],
		wikiast.NodeBold, wikiast.NodeText, wikiast.NodeItalic)

	boldParts := requireKinds(t, inline[0], wikiast.NodeText, wikiast.NodeItalic)
	if string(boldParts[0].Literal) != "a" {
		t.Errorf("bold text = %q", boldParts[0].Literal)
	}
	nested := requireKinds(t, boldParts[1], wikiast.NodeText)
	if string(nested[0].Literal) != "b" {
		t.Errorf("nested italic text = %q", nested[0].Literal)
	}

	if string(inline[1].Literal) != "c" {
		t.Errorf("middle text = %q", inline[1].Literal)
	}
	if inline[2].FirstChild != nil {
		t.Error("trailing italic must be empty")
	}
}

func TestParse_IndentPre(t *testing.T) {
	doc := parseDoc(t, " hello\n world\n")

	blocks := requireKinds(t, doc, wikiast.NodeIndentPre)
	parts := requireKinds(t, blocks[0],
		wikiast.NodeText, wikiast.NodeLineBreak, wikiast.NodeText)
	if string(parts[0].Literal) != "hello" || string(parts[2].Literal) != "world" {
		t.Errorf("content = %q, %q", parts[0].Literal, parts[2].Literal)
	}
}

func TestParse_InternalLinkWithTrail(t *testing.T) {
	doc := parseDoc(t, "[[foo|bar]]baz")

	blocks := requireKinds(t, doc, wikiast.NodeParagraph)
	inline := requireKinds(t, blocks[0], wikiast.NodeInternalLink)

	link := inline[0].Inline.Link
	if link.Target != "foo" {
		t.Errorf("target = %q", link.Target)
	}
	if link.Trail != "baz" {
		t.Errorf("trail = %q", link.Trail)
	}

	text := requireKinds(t, inline[0], wikiast.NodeText)
	if string(text[0].Literal) != "bar" {
		t.Errorf("link text = %q", text[0].Literal)
	}
}

func TestParse_EmptyTailDropped(t *testing.T) {
	doc := parseDoc(t, "a\n\n\n")
	requireKinds(t, doc, wikiast.NodeParagraph)
}

func TestParse_ParagraphBreaks(t *testing.T) {
	doc := parseDoc(t, "a\n\nb\n")
	blocks := requireKinds(t, doc, wikiast.NodeParagraph, wikiast.NodeParagraph)
	if blocks[0].Block.LeadingBreak {
		t.Error("first paragraph must not carry a break")
	}
	if !blocks[1].Block.LeadingBreak {
		t.Error("single empty line attaches as leading break")
	}

	doc = parseDoc(t, "a\n\n\n\nb\n")
	blocks = requireKinds(t, doc,
		wikiast.NodeParagraph, wikiast.NodeParagraph, wikiast.NodeParagraph)
	if !blocks[1].Block.LeadingBreak || blocks[1].FirstChild != nil {
		t.Error("multiple empty lines form a break-only paragraph")
	}
	if blocks[2].Block.LeadingBreak {
		t.Error("paragraph after a break-only paragraph starts clean")
	}
}

func TestParse_ParagraphSoftBreak(t *testing.T) {
	doc := parseDoc(t, "a\nb\n")
	blocks := requireKinds(t, doc, wikiast.NodeParagraph)
	requireKinds(t, blocks[0],
		wikiast.NodeText, wikiast.NodeLineBreak, wikiast.NodeText)
}

func TestParse_MemoizationEquivalence(t *testing.T) {
	inputs := []string{
		"== H ==\n* a\n** b\n\npara ''i'' and '''b'''\n",
		"{| class=\"x\"\n! h\n|-\n| a || b\n|}\n",
		" pre\n line\n[[link|text]]tail &amp; http://x.org/y.\n",
	}

	for _, src := range inputs {
		on := New(Options{Memoize: true})
		off := New(Options{Memoize: false})

		resOn, err := on.Parse(context.Background(), src)
		if err != nil {
			t.Fatal(err)
		}
		resOff, err := off.Parse(context.Background(), src)
		if err != nil {
			t.Fatal(err)
		}

		if wikiast.Dump(resOn.Doc) != wikiast.Dump(resOff.Doc) {
			t.Errorf("memoized and unmemoized trees differ for %q:\n%s\n---\n%s",
				src, wikiast.Dump(resOn.Doc), wikiast.Dump(resOff.Doc))
		}
	}
}

func TestParse_StateStacksEmptyAfterParse(t *testing.T) {
	inputs := []string{
		"",
		"plain text\n",
		"== H ==\nbody\n",
		"* a\n** b\n*# c\n",
		"{|\n|+ cap\n| a || b\n|}\n",
		"'''bold ''both'' bold'''\n",
		"[[a|b]] [http://x.org t] <b>x</b> <div>y</div>\n",
		" pre\n block\n",
		";t:d\n",
		"<ref>note</ref> done\n",
		"broken '''' markup '' here\n",
	}

	ps := Default()
	for _, src := range inputs {
		processed, _ := ps.pre.Process(src)
		p := peg.NewParser(ps.grammar, processed, peg.Options{Memoize: true})
		ps.parseDocument(p)
		if !p.StacksEmpty() {
			t.Errorf("state stacks not empty after parsing %q", src)
		}
	}
}

func TestParse_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Default().Parse(ctx, "text")
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestParse_CommentAlonePipeline(t *testing.T) {
	res, err := Default().Parse(context.Background(), "x\n<!-- c -->\ny")
	if err != nil {
		t.Fatal(err)
	}
	if res.Preprocessed != "x\ny" {
		t.Errorf("preprocessed = %q, want %q", res.Preprocessed, "x\ny")
	}

	blocks := requireKinds(t, res.Doc, wikiast.NodeParagraph)
	requireKinds(t, blocks[0],
		wikiast.NodeText, wikiast.NodeLineBreak, wikiast.NodeText)
}
