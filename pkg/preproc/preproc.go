package preproc

import (
	"github.com/miki725/smc.mw/pkg/peg"
)

// Mode selects which inclusion-control semantics apply when assembling
// preprocessed text.
type Mode uint8

const (
	// ModeView renders the page itself: noinclude and onlyinclude
	// bodies are kept, includeonly bodies are dropped.
	ModeView Mode = iota

	// ModeInclude renders the page as a transclusion: when any
	// onlyinclude region is present only those regions are included;
	// otherwise noinclude bodies are dropped and includeonly bodies
	// kept.
	ModeInclude
)

// Resolver expands templates and template arguments. It is the seam for
// the downstream transclusion engine; the preprocessor itself only
// recognizes the syntax.
type Resolver interface {
	// ExpandTemplate returns the expansion text for a template, or
	// ok=false to leave the source verbatim.
	ExpandTemplate(t *Template) (string, bool)

	// ExpandArgument returns the substitution text for a template
	// argument, or ok=false to leave the source verbatim.
	ExpandArgument(a *Argument) (string, bool)
}

// Preprocessor runs the preprocessor grammar and assembles preprocessed
// text. A Preprocessor is stateless across calls and safe for
// concurrent use.
type Preprocessor struct {
	resolver       Resolver
	stripFirstLine bool
	pegOpts        peg.Options
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithResolver installs a template/argument resolver.
func WithResolver(r Resolver) Option {
	return func(pp *Preprocessor) { pp.resolver = r }
}

// WithStripCommentsOnFirstLine makes first-line alone comments swallow
// whitespace like any other alone comment. The default (false)
// preserves the historical quirk: a comment on the very first line is
// never treated as alone.
func WithStripCommentsOnFirstLine(strip bool) Option {
	return func(pp *Preprocessor) { pp.stripFirstLine = strip }
}

// WithParseOptions overrides the engine options (memoization).
func WithParseOptions(opts peg.Options) Option {
	return func(pp *Preprocessor) { pp.pegOpts = opts }
}

// New creates a Preprocessor.
func New(opts ...Option) *Preprocessor {
	pp := &Preprocessor{pegOpts: peg.DefaultOptions()}
	for _, opt := range opts {
		opt(pp)
	}
	return pp
}

// Segments parses text into the preprocessor segment stream. The parse
// cannot fail: unmatched constructs fall through to single characters.
func (pp *Preprocessor) Segments(text string) ([]Segment, []peg.Diagnostic) {
	p := peg.NewParser(preGrammar, text, pp.pegOpts)

	var segs []Segment
	for !p.AtEOF() {
		v, ok := p.ParseRule("element")
		if !ok {
			// The fallthrough alternative matches any character, so
			// this is unreachable; guard against a grammar bug rather
			// than loop forever.
			break
		}
		segs = append(segs, v.(Segment))
		p.Cut()
	}

	return mergeText(segs), p.Diagnostics()
}

// Process assembles preprocessed text for the page itself (ModeView).
func (pp *Preprocessor) Process(text string) (string, []peg.Diagnostic) {
	return pp.ProcessFor(text, ModeView)
}

// ProcessFor assembles preprocessed text under the given mode.
func (pp *Preprocessor) ProcessFor(text string, mode Mode) (string, []peg.Diagnostic) {
	segs, diags := pp.Segments(text)

	a := &assembler{}
	if mode == ModeInclude {
		if only := collectOnlyinclude(segs); only != nil {
			for _, inc := range only {
				pp.render(a, inc.Body, mode)
			}
			return a.String(), diags
		}
	}
	pp.render(a, segs, mode)
	return a.String(), diags
}

func (pp *Preprocessor) render(a *assembler, segs []Segment, mode Mode) {
	for _, seg := range segs {
		switch s := seg.(type) {
		case Text:
			a.WriteText(s.Raw)

		case Comment:
			if s.Alone && (!s.FirstLine || pp.stripFirstLine) {
				a.SwallowAround()
				continue
			}
			if !s.Closed {
				// Unclosed comment runs to EOF; nothing to keep.
				continue
			}
			a.WriteVerbatim(s.Raw)

		case Template:
			if pp.resolver != nil {
				if out, ok := pp.resolver.ExpandTemplate(&s); ok {
					a.WriteText(out)
					continue
				}
			}
			a.WriteVerbatim(s.Raw)

		case Argument:
			if pp.resolver != nil {
				if out, ok := pp.resolver.ExpandArgument(&s); ok {
					a.WriteText(out)
					continue
				}
			}
			a.WriteVerbatim(s.Raw)

		case Link:
			a.WriteVerbatim(s.Raw)

		case Include:
			switch {
			case s.Kind == KindNoinclude && mode == ModeInclude:
			case s.Kind == KindIncludeonly && mode == ModeView:
			default:
				pp.render(a, s.Body, mode)
			}

		case Ignore:
			// Dangling close tags are discarded.
		}
	}
}

// collectOnlyinclude returns the top-level onlyinclude regions.
func collectOnlyinclude(segs []Segment) []Include {
	var out []Include
	for _, seg := range segs {
		if inc, ok := seg.(Include); ok && inc.Kind == KindOnlyinclude {
			out = append(out, inc)
		}
	}
	return out
}

// assembler builds the preprocessed text. It implements the
// comment-alone whitespace rule: an alone comment absorbs the blanks
// around it and exactly one of its two enclosing newlines (the trailing
// one; the leading newline stays with the previous line).
type assembler struct {
	buf     []byte
	swallow bool
}

// WriteText writes text subject to a pending swallow.
func (a *assembler) WriteText(s string) {
	if a.swallow {
		i := 0
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i == len(s) {
			// All blanks; keep swallowing into the next segment.
			return
		}
		if s[i] == '\n' {
			i++
		}
		a.swallow = false
		s = s[i:]
	}
	a.buf = append(a.buf, s...)
}

// WriteVerbatim writes source text that a swallow must not eat into.
func (a *assembler) WriteVerbatim(s string) {
	a.swallow = false
	a.buf = append(a.buf, s...)
}

// SwallowAround trims the blanks already written before an alone
// comment and arms swallowing of the blanks and single newline after
// it.
func (a *assembler) SwallowAround() {
	for len(a.buf) > 0 {
		c := a.buf[len(a.buf)-1]
		if c != ' ' && c != '\t' {
			break
		}
		a.buf = a.buf[:len(a.buf)-1]
	}
	a.swallow = true
}

func (a *assembler) String() string {
	return string(a.buf)
}
