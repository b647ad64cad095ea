package wikitext

import (
	"context"
	"testing"

	"github.com/miki725/smc.mw/pkg/wikiast"
)

func TestLinks_InternalPlain(t *testing.T) {
	inline := parseInline(t, "[[Main Page]]")
	if inline[0].Kind != wikiast.NodeInternalLink {
		t.Fatalf("kind = %v", inline[0].Kind)
	}
	link := inline[0].Inline.Link
	if link.Target != "Main Page" {
		t.Errorf("target = %q", link.Target)
	}
	if link.HasText {
		t.Error("no display text expected")
	}
}

func TestLinks_InternalUnclosedIsText(t *testing.T) {
	inline := parseInline(t, "[[broken")
	if inline[0].Kind != wikiast.NodeText {
		t.Fatalf("got %v", inline[0].Kind)
	}
	if got := string(inline[0].Literal); got != "[[broken" {
		t.Errorf("text = %q", got)
	}
}

func TestLinks_External(t *testing.T) {
	inline := parseInline(t, "[https://example.com Example site]")
	if inline[0].Kind != wikiast.NodeExternalLink {
		t.Fatalf("kind = %v", inline[0].Kind)
	}
	link := inline[0].Inline.Link
	if link.URL != "https://example.com" {
		t.Errorf("url = %q", link.URL)
	}
	if got := wikiast.InnerText(inline[0]); got != "Example site" {
		t.Errorf("text = %q", got)
	}
}

func TestLinks_ExternalWithoutText(t *testing.T) {
	inline := parseInline(t, "[https://example.com]")
	if inline[0].Kind != wikiast.NodeExternalLink {
		t.Fatalf("kind = %v", inline[0].Kind)
	}
	if inline[0].Inline.Link.HasText {
		t.Error("HasText must be false")
	}
}

func TestLinks_ExternalBadSchemeIsText(t *testing.T) {
	inline := parseInline(t, "[gopher://x y]")
	if inline[0].Kind != wikiast.NodeText {
		t.Fatalf("got %v:\n%s", inline[0].Kind, wikiast.Dump(inline[0].Parent))
	}
}

func TestLinks_ProtocolRelativeExternal(t *testing.T) {
	inline := parseInline(t, "[//example.com x]")
	if inline[0].Kind != wikiast.NodeExternalLink {
		t.Fatalf("kind = %v", inline[0].Kind)
	}
	if inline[0].Inline.Link.URL != "//example.com" {
		t.Errorf("url = %q", inline[0].Inline.Link.URL)
	}
}

func TestLinks_PlainMidText(t *testing.T) {
	inline := parseInline(t, "see https://example.com, ok")
	if len(inline) != 3 {
		t.Fatalf("got %d nodes:\n%s", len(inline), wikiast.Dump(inline[0].Parent))
	}
	if string(inline[0].Literal) != "see " {
		t.Errorf("lead text = %q", inline[0].Literal)
	}
	if inline[1].Kind != wikiast.NodePlainLink {
		t.Fatalf("kind = %v", inline[1].Kind)
	}
	if got := string(inline[1].Literal); got != "https://example.com" {
		t.Errorf("url = %q (trailing punctuation must not be absorbed)", got)
	}
	if string(inline[2].Literal) != ", ok" {
		t.Errorf("tail text = %q", inline[2].Literal)
	}
}

func TestLinks_PlainParenAbsorption(t *testing.T) {
	// ')' is kept only when a '(' appears within the URL.
	inline := parseInline(t, "http://x.org/a(b) end")
	if got := string(inline[0].Literal); got != "http://x.org/a(b)" {
		t.Errorf("url = %q", got)
	}

	inline = parseInline(t, "(see http://x.org) end")
	var link *wikiast.Node
	for _, n := range inline {
		if n.Kind == wikiast.NodePlainLink {
			link = n
		}
	}
	if link == nil {
		t.Fatalf("no plain link:\n%s", wikiast.Dump(inline[0].Parent))
	}
	if got := string(link.Literal); got != "http://x.org" {
		t.Errorf("url = %q (unbalanced ')' must be dropped)", got)
	}
}

func TestLinks_PlainRequiresWordBoundary(t *testing.T) {
	inline := parseInline(t, "xhttp://example.com")
	for _, n := range inline {
		if n.Kind == wikiast.NodePlainLink {
			t.Fatalf("no free link after a word character:\n%s", wikiast.Dump(n.Parent))
		}
	}
}

func TestLinks_ConfigurableSchemes(t *testing.T) {
	ps := New(Options{AllowSchemes: []string{"gopher"}, Memoize: true})

	res, err := ps.Parse(context.Background(), "[gopher://x y]")
	if err != nil {
		t.Fatal(err)
	}
	blocks := requireKinds(t, res.Doc, wikiast.NodeParagraph)
	inline := blocks[0].Children()
	if inline[0].Kind != wikiast.NodeExternalLink {
		t.Fatalf("kind = %v, want external link with custom scheme", inline[0].Kind)
	}

	res, err = ps.Parse(context.Background(), "[https://x y]")
	if err != nil {
		t.Fatal(err)
	}
	blocks = requireKinds(t, res.Doc, wikiast.NodeParagraph)
	if blocks[0].FirstChild.Kind == wikiast.NodeExternalLink {
		t.Error("https must not be recognized when not allowed")
	}
}

func TestLinks_PipeDisablesIndentPreInText(t *testing.T) {
	// The link text sits on one line, so this mostly checks the wspre
	// push/pop balance around the pipe.
	inline := parseInline(t, "[[a| text]]")
	if inline[0].Kind != wikiast.NodeInternalLink {
		t.Fatalf("kind = %v", inline[0].Kind)
	}
}
