// Package wikitext parses MediaWiki-compatible markup into a typed
// document tree.
//
// Parsing runs in two stages over the shared stateful PEG engine: the
// preprocessor grammar (pkg/preproc) resolves comments and inclusion
// regions, then the main grammar here turns the preprocessed text into
// a wikiast document. The parser never fails on ill-formed input;
// unmatched constructs fall through to literal text, and the optional
// diagnostics report what was left open.
package wikitext

import (
	"context"
	"fmt"

	"github.com/miki725/smc.mw/pkg/entity"
	"github.com/miki725/smc.mw/pkg/peg"
	"github.com/miki725/smc.mw/pkg/preproc"
	"github.com/miki725/smc.mw/pkg/wikiast"
)

// Options configures a Parser.
type Options struct {
	// AllowSchemes is the URL scheme set recognized for external and
	// plain links. Empty means DefaultSchemes.
	AllowSchemes []string

	// StripCommentsOnFirstLine drops the historical quirk that a
	// comment on the very first line is never treated as alone.
	StripCommentsOnFirstLine bool

	// Memoize enables the packrat cache. On by default; the tree is
	// identical either way.
	Memoize bool

	// Entities resolves named character references. Nil means the
	// built-in HTML4 table.
	Entities entity.Resolver

	// Resolver expands templates during preprocessing. Nil leaves
	// template syntax verbatim for a downstream transclusion engine.
	Resolver preproc.Resolver
}

// DefaultOptions returns the default parser configuration.
func DefaultOptions() Options {
	return Options{Memoize: true}
}

// Result is one parse outcome.
type Result struct {
	// Doc is the document tree root.
	Doc *wikiast.Node

	// Preprocessed is the text the main grammar ran over.
	Preprocessed string

	// Diagnostics are non-fatal warnings from both stages, the
	// preprocessor's first, each stage's in the order they were recorded.
	Diagnostics []peg.Diagnostic
}

// Parser converts wikitext into a document tree. A Parser is immutable
// after construction and safe for concurrent use; all per-parse state
// lives in the engine instances a call creates.
type Parser struct {
	opts    Options
	grammar *peg.Grammar
	pre     *preproc.Preprocessor
}

// New creates a Parser with the given options.
func New(opts Options) *Parser {
	var grammar *peg.Grammar
	if len(opts.AllowSchemes) == 0 && opts.Entities == nil {
		grammar = getDefaultGrammar()
	} else {
		grammar = buildGrammar(opts.AllowSchemes, opts.Entities)
	}

	preOpts := []preproc.Option{
		preproc.WithStripCommentsOnFirstLine(opts.StripCommentsOnFirstLine),
		preproc.WithParseOptions(peg.Options{Memoize: opts.Memoize}),
	}
	if opts.Resolver != nil {
		preOpts = append(preOpts, preproc.WithResolver(opts.Resolver))
	}

	return &Parser{
		opts:    opts,
		grammar: grammar,
		pre:     preproc.New(preOpts...),
	}
}

// Default returns a Parser with DefaultOptions.
func Default() *Parser {
	return New(DefaultOptions())
}

// Parse converts source into a document tree.
//
// The method:
//  1. Checks for context cancellation.
//  2. Runs the preprocessor grammar and assembles preprocessed text.
//  3. Runs the main grammar, cutting after every top-level block.
//  4. Post-processes the tree (cell flattening, list merging).
//
// Parsing itself cannot fail; the returned error reports only
// cancellation.
func (ps *Parser) Parse(ctx context.Context, source string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse cancelled: %w", err)
	}

	processed, preDiags := ps.pre.Process(source)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse cancelled: %w", err)
	}

	p := peg.NewParser(ps.grammar, processed, peg.Options{Memoize: ps.opts.Memoize})
	doc := ps.parseDocument(p)
	postprocess(doc)

	diags := append([]peg.Diagnostic(nil), preDiags...)
	diags = append(diags, p.Diagnostics()...)

	return &Result{
		Doc:          doc,
		Preprocessed: processed,
		Diagnostics:  diags,
	}, nil
}

// ParseDocument runs only the main grammar over already-preprocessed
// text.
func (ps *Parser) ParseDocument(text string) (*wikiast.Node, []peg.Diagnostic) {
	p := peg.NewParser(ps.grammar, text, peg.Options{Memoize: ps.opts.Memoize})
	doc := ps.parseDocument(p)
	postprocess(doc)
	return doc, p.Diagnostics()
}

// parseDocument iterates document_block with a cut after every block,
// bounding memo growth to the longest un-cut span. A trailing run of
// empty lines is dropped rather than producing break paragraphs.
func (ps *Parser) parseDocument(p *peg.Parser) *wikiast.Node {
	doc := wikiast.NewDocument()

	for !p.AtEOF() {
		if _, ok := p.ParseRule("empty_tail"); ok {
			break
		}

		v, ok := p.ParseRule("document_block")
		if !ok {
			// Unreachable with the catch-all paragraph in place, but a
			// grammar regression must not hang the loop: emit one
			// character as text and continue.
			start := p.Pos()
			p.SetPos(start + 1)
			para := wikiast.NewNode(wikiast.NodeParagraph)
			para.Block = &wikiast.BlockAttrs{}
			wikiast.AppendChild(para, wikiast.NewTextString(p.Input()[start:start+1]))
			wikiast.AppendChild(doc, para)
			p.Cut()
			continue
		}

		if n, ok := v.(*wikiast.Node); ok {
			wikiast.AppendChild(doc, n)
		}
		p.Cut()
	}

	return doc
}
