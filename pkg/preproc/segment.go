// Package preproc implements the transclusion preprocessor grammar.
//
// The preprocessor recognizes the structure that template expansion
// cares about — templates, template arguments, links (as opaque balanced
// regions), comments, and the inclusion-control tags — and leaves
// everything else untouched. Its output feeds the main wikitext grammar.
package preproc

// Segment is one element of the preprocessed stream. The concrete types
// form a closed set.
type Segment interface {
	isSegment()

	// Source returns the raw input span the segment was parsed from.
	Source() string
}

type raw struct {
	// Raw is the verbatim source span.
	Raw string
}

func (r raw) Source() string { return r.Raw }

// Text is a run of ordinary characters.
type Text struct {
	raw
}

// Comment is an HTML comment. Alone marks a closed comment that occupies
// its own line (preceded by a newline or the document start plus blanks,
// followed by blanks plus a newline or the end of input); when
// processed, an alone comment absorbs the surrounding blanks and exactly
// one of the two enclosing newlines. FirstLine marks a comment preceded
// only by blanks since the start of the document, which is never
// treated as alone unless configured otherwise.
type Comment struct {
	raw

	Alone     bool
	FirstLine bool

	// Closed is false when the comment ran to EOF without "-->".
	Closed bool
}

// Template is a transclusion: {{ name | arg | name = value }}.
type Template struct {
	raw

	// Name is the template name, which may itself contain templates,
	// arguments, and comments.
	Name []Segment

	// Args are the template arguments in source order.
	Args []Arg

	// BOL is set when the opening braces sit at the beginning of a
	// line. Downstream expansion needs the flag for the block-level
	// template quirk.
	BOL bool
}

// Arg is a single template argument.
type Arg struct {
	// Name is nil for positional arguments.
	Name []Segment

	// Value is the argument content.
	Value []Segment
}

// Named reports whether the argument carried an explicit name.
func (a Arg) Named() bool { return a.Name != nil }

// Argument is a template parameter use: {{{ name | default }}}.
type Argument struct {
	raw

	Name []Segment

	// Defaults holds one entry per "|" alternative, in order.
	Defaults [][]Segment
}

// Link is a [[...]] region. The preprocessor treats its balanced body as
// opaque; the main grammar parses link internals.
type Link struct {
	raw

	Body []Segment
}

// IncludeKind identifies an inclusion-control region type.
type IncludeKind uint8

const (
	// KindNoinclude is <noinclude>: dropped when transcluded.
	KindNoinclude IncludeKind = iota

	// KindIncludeonly is <includeonly>: dropped on the page itself.
	KindIncludeonly

	// KindOnlyinclude is <onlyinclude>: when present, transclusion
	// includes only these regions. May not nest inside another
	// onlyinclude.
	KindOnlyinclude
)

var includeTagNames = [...]string{"noinclude", "includeonly", "onlyinclude"}

// TagName returns the tag name for the kind.
func (k IncludeKind) TagName() string {
	return includeTagNames[k]
}

// Include is an inclusion-control region. A missing end tag closes the
// region at EOF.
type Include struct {
	raw

	Kind IncludeKind
	Body []Segment

	// Closed is false when the end tag was missing.
	Closed bool
}

// Ignore is a dangling inclusion-control close tag, consumed and
// discarded.
type Ignore struct {
	raw
}

func (Text) isSegment()     {}
func (Comment) isSegment()  {}
func (Template) isSegment() {}
func (Argument) isSegment() {}
func (Link) isSegment()     {}
func (Include) isSegment()  {}
func (Ignore) isSegment()   {}
