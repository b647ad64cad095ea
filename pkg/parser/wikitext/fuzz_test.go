package wikitext

import (
	"context"
	"testing"

	"github.com/miki725/smc.mw/pkg/peg"
	"github.com/miki725/smc.mw/pkg/wikiast"
)

// FuzzParse checks that arbitrary input parses without panicking, that
// the side stacks are balanced afterwards, and that memoization does
// not change the tree.
func FuzzParse(f *testing.F) {
	seeds := []string{
		"",
		"plain text",
		"== Heading ==\n",
		"=== unbalanced ==\n",
		"* a\n** b\n* c\n",
		"# one\n# two\n",
		";term : def\n",
		" indent\n pre\n",
		"----\n",
		"__TOC__\n",
		"{| class=\"x\"\n! h1 !! h2\n|-\n| a || b\n|}\n",
		"{| broken\n| cell\n",
		"'''bold''' ''italic'' '''''both'''''",
		"''''peeled''' and ''''''six",
		"[[target|text]]trail",
		"[[broken",
		"[https://example.com text]",
		"bare https://example.com/x(y) link",
		"&amp; &#60; &#x3C; &bogus;",
		"<nowiki>'''raw'''</nowiki>",
		"<!-- comment -->",
		"<!-- unclosed",
		"<b>bold<i>nested</i></b>",
		"<div>\nblock\n</div>\n",
		"<pre>verbatim <nowiki></pre></nowiki></pre>",
		"<ref>note</ref>",
		"{{template|arg|k=v}}",
		"{{{param|default}}}",
		"<noinclude>a</noinclude><includeonly>b</includeonly>",
		"a\n\n\nb\n\n",
		"| stray pipe\n! stray bang\n",
		"'''''''''''''",
		"[[[[]]]]",
		"<><></><div",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	ps := Default()

	f.Fuzz(func(t *testing.T, input string) {
		res, err := ps.Parse(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Doc == nil || res.Doc.Kind != wikiast.NodeDocument {
			t.Fatal("parse must always produce a document")
		}

		// Stack balance over the same preprocessed text.
		p := peg.NewParser(ps.grammar, res.Preprocessed, peg.Options{Memoize: true})
		ps.parseDocument(p)
		if !p.StacksEmpty() {
			t.Errorf("side stacks not empty for %q", input)
		}

		// Memoization must not change the tree.
		off := New(Options{Memoize: false})
		resOff, err := off.Parse(context.Background(), input)
		if err != nil {
			t.Fatal(err)
		}
		if wikiast.Dump(res.Doc) != wikiast.Dump(resOff.Doc) {
			t.Errorf("memoized and unmemoized trees differ for %q", input)
		}
	})
}
