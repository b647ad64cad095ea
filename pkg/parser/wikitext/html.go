package wikitext

import (
	"regexp"
	"sort"
	"strings"

	"github.com/miki725/smc.mw/pkg/entity"
	"github.com/miki725/smc.mw/pkg/peg"
	"github.com/miki725/smc.mw/pkg/wikiast"
)

// Tag classes. The tag name gates which element subgrammar applies.
var (
	// inlineTags hold inline content; the close tag is optional.
	inlineTags = []string{
		"abbr", "big", "b", "cite", "code", "data", "del", "dfn", "em",
		"font", "ins", "i", "kbd", "mark", "samp", "small", "span",
		"strong", "sub", "sup", "strike", "s", "time", "tt", "u", "var",
	}

	// voidTags never carry content.
	voidTags = []string{"br"}

	// blockNestTags hold a nested document. The table family nests per
	// HTML semantics: each element opens its own scope.
	blockNestTags = []string{
		"div", "center", "references",
		"table", "tr", "td", "th", "ul", "ol", "dl", "li", "dt", "dd",
	}

	headingTagNames = []string{"h1", "h2", "h3", "h4", "h5", "h6"}
)

// blockOpenPat matches any HTML-like block element open tag. It feeds
// the paragraph/line probes and the lone '<' guard.
const blockOpenPat = `<(?i:div|center|references|blockquote|pre|p|h[1-6]|table|tr|td|th|ul|ol|dl|li|dt|dd)\b`

func allTagNames() []string {
	var names []string
	names = append(names, inlineTags...)
	names = append(names, voidTags...)
	names = append(names, blockNestTags...)
	names = append(names, headingTagNames...)
	names = append(names, "blockquote", "p", "pre", "nowiki", "ref")
	return names
}

// tagAlternation builds a regex alternation over names, longest first
// so leftmost-first matching cannot stop at a prefix.
func tagAlternation(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})
	return strings.Join(sorted, "|")
}

// openTag matches "<name" for any of names, capturing the name.
func openTag(names ...string) peg.Expr {
	return peg.Rx(`<(?i:(` + tagAlternation(names) + `))\b`)
}

// tagBody carries the parsed remainder of an element after its
// attribute list.
type tagBody struct {
	selfClosing bool
	children    []*wikiast.Node
	literal     []byte
	closed      bool
}

// openTagName extracts the tag name from a matched element span.
var openTagNameRe = regexp.MustCompile(`^<([A-Za-z][A-Za-z0-9]*)`)

func openTagName(span string) string {
	m := openTagNameRe.FindStringSubmatch(span)
	if m == nil {
		return ""
	}
	return lowerASCII(m[1])
}

func (b *builder) htmlRules() {
	g := b.g

	// Inline position: void tags, nowiki, ref, then the inline set.
	g.Add("html_inline", peg.Choice(
		peg.Ref("html_void"),
		peg.Ref("nowiki"),
		peg.Ref("html_ref"),
		peg.Ref("html_inline_tag"),
	))

	g.Add("html_void", peg.Act(peg.Seq(
		openTag(voidTags...),
		peg.Ref("attrs_to_gt"),
		peg.Rx(`[ \t]*/?>`),
	), func(p *peg.Parser, start, end int, v any) any {
		seq := v.([]any)
		n := wikiast.NewNode(wikiast.NodeHTMLInline)
		n.HTML = &wikiast.HTMLAttrs{
			Name:        openTagName(p.Input()[start:end]),
			Attrs:       seq[1].([]wikiast.Attribute),
			SelfClosing: true,
		}
		return n
	}))

	// closedFlag makes the optional close-tag consumption observable in
	// the sequence value (traps themselves yield nil).
	closedFlag := peg.Act(consumeIfnotClose, func(*peg.Parser, int, int, any) any {
		return true
	})

	g.Add("html_inline_tag", peg.Act(peg.Seq(
		openTag(inlineTags...),
		pushIfnotHTMLTag,
		peg.Ref("attrs_to_gt"),
		peg.Choice(
			peg.Act(peg.Rx(`[ \t]*/>`), selfClosingBody),
			peg.Act(peg.Seq(
				peg.Rx(`[ \t]*>`),
				peg.Ref("inline0"),
				peg.Opt(closedFlag),
			), func(_ *peg.Parser, _, _ int, v any) any {
				seq := v.([]any)
				return tagBody{
					children: seq[1].([]*wikiast.Node),
					closed:   seq[2] != nil,
				}
			}),
		),
		popIfnot,
	), b.elementAction(wikiast.NodeHTMLInline, false)))

	g.Add("html_ref", peg.Act(peg.Seq(
		openTag("ref"),
		pushIfnotHTMLTag,
		peg.Ref("attrs_to_gt"),
		peg.Choice(
			peg.Act(peg.Rx(`[ \t]*/>`), selfClosingBody),
			peg.Act(peg.Seq(
				peg.Rx(`[ \t]*>`),
				pushWspreOff,
				setWspreOn,
				peg.Ref("nested_document"),
				popWspre,
				popWspre,
				peg.Opt(closedFlag),
			), func(_ *peg.Parser, _, _ int, v any) any {
				seq := v.([]any)
				return tagBody{
					children: seq[3].([]*wikiast.Node),
					closed:   seq[6] != nil,
				}
			}),
		),
		popIfnot,
	), b.elementAction(wikiast.NodeRef, false)))

	// Block position: nested-document elements, blockquote, p, pre,
	// and the hN elements.
	g.Add("html_block", peg.Choice(
		peg.Ref("html_pre"),
		peg.Ref("html_p"),
		peg.Ref("html_blockquote"),
		peg.Ref("html_heading_tag"),
		peg.Ref("html_block_nest"),
	))

	g.Add("html_block_nest", peg.Act(peg.Seq(
		openTag(blockNestTags...),
		pushIfnotHTMLTag,
		peg.Ref("attrs_to_gt"),
		peg.Choice(
			peg.Act(peg.Rx(`[ \t]*/>`), selfClosingBody),
			peg.Act(peg.Seq(
				peg.Rx(`[ \t]*>`),
				peg.Ref("nested_document"),
				peg.Opt(closedFlag),
			), func(_ *peg.Parser, _, _ int, v any) any {
				seq := v.([]any)
				return tagBody{
					children: seq[1].([]*wikiast.Node),
					closed:   seq[2] != nil,
				}
			}),
		),
		popIfnot,
	), b.elementAction(wikiast.NodeHTMLBlock, true)))

	// blockquote disables indent-pre around its content and then
	// re-enables it, mirroring the historical behavior. The net effect
	// is that indent-pre still fires inside; a known limitation.
	g.Add("html_blockquote", peg.Act(peg.Seq(
		openTag("blockquote"),
		pushIfnotHTMLTag,
		peg.Ref("attrs_to_gt"),
		peg.Choice(
			peg.Act(peg.Rx(`[ \t]*/>`), selfClosingBody),
			peg.Act(peg.Seq(
				peg.Rx(`[ \t]*>`),
				pushWspreOff,
				setWspreOn,
				peg.Ref("nested_document"),
				popWspre,
				popWspre,
				peg.Opt(closedFlag),
			), func(_ *peg.Parser, _, _ int, v any) any {
				seq := v.([]any)
				return tagBody{
					children: seq[3].([]*wikiast.Node),
					closed:   seq[6] != nil,
				}
			}),
		),
		popIfnot,
	), b.elementAction(wikiast.NodeHTMLBlock, true)))

	g.Add("html_p", peg.Act(peg.Seq(
		openTag("p"),
		pushIfnotHTMLTag,
		peg.Ref("attrs_to_gt"),
		peg.Choice(
			peg.Act(peg.Rx(`[ \t]*/>`), selfClosingBody),
			peg.Act(peg.Seq(
				peg.Rx(`[ \t]*>`),
				pushWspreOff,
				peg.Ref("inline0"),
				popWspre,
				peg.Opt(closedFlag),
			), func(_ *peg.Parser, _, _ int, v any) any {
				seq := v.([]any)
				return tagBody{
					children: seq[2].([]*wikiast.Node),
					closed:   seq[4] != nil,
				}
			}),
		),
		popIfnot,
	), b.elementAction(wikiast.NodeHTMLBlock, true)))

	g.Add("html_heading_tag", peg.Act(peg.Seq(
		openTag(headingTagNames...),
		pushIfnotHTMLTag,
		peg.Ref("attrs_to_gt"),
		peg.Choice(
			peg.Act(peg.Rx(`[ \t]*/>`), selfClosingBody),
			peg.Act(peg.Seq(
				peg.Rx(`[ \t]*>`),
				peg.Ref("inline0"),
				peg.Opt(closedFlag),
			), func(_ *peg.Parser, _, _ int, v any) any {
				seq := v.([]any)
				return tagBody{
					children: seq[1].([]*wikiast.Node),
					closed:   seq[2] != nil,
				}
			}),
		),
		popIfnot,
	), b.elementAction(wikiast.NodeHTMLBlock, true)))

	// pre is verbatim until </pre>. nowiki is respected inside, and
	// there its close tag is mandatory, unlike everywhere else.
	g.Add("html_pre", peg.Act(peg.Seq(
		openTag("pre"),
		peg.Ref("attrs_to_gt"),
		peg.Choice(
			peg.Act(peg.Rx(`[ \t]*/>`), selfClosingBody),
			peg.Act(peg.Seq(
				peg.Rx(`[ \t]*>`),
				peg.Ref("pre_body"),
				peg.Opt(peg.Act(peg.Rx(`(?i:</pre\s*>)`), func(*peg.Parser, int, int, any) any {
					return true
				})),
			), func(_ *peg.Parser, _, _ int, v any) any {
				seq := v.([]any)
				return tagBody{
					literal: []byte(seq[1].(string)),
					closed:  seq[2] != nil,
				}
			}),
		),
	), b.preAction()))

	g.Add("pre_body", peg.Act(peg.Star(peg.Choice(
		peg.Act(peg.Rx(`(?i:<nowiki\s*>)(?s:(.*?))(?i:</nowiki\s*>)`), func(p *peg.Parser, _, _ int, _ any) any {
			return p.Captures()[1]
		}),
		peg.Act(peg.Seq(peg.Not(peg.Rx(`(?i:</pre\s*>)`)), peg.Any()), func(p *peg.Parser, start, end int, _ any) any {
			return p.Input()[start:end]
		}),
	)), func(_ *peg.Parser, _, _ int, v any) any {
		var sb strings.Builder
		for _, part := range v.([]any) {
			sb.WriteString(part.(string))
		}
		return sb.String()
	}))

	// nowiki: verbatim content with entities still decoded. The close
	// tag is optional; a missing one runs to EOF.
	g.Add("nowiki", peg.Act(peg.Choice(
		peg.Rx(`(?i:<nowiki\s*/>)`),
		peg.Rx(`(?i:<nowiki\s*>)(?s:(.*?))(?i:</nowiki\s*>)`),
		peg.Rx(`(?i:<nowiki\s*>)(?s:(.*))\z`),
	), b.nowikiAction()))
}

func selfClosingBody(*peg.Parser, int, int, any) any {
	return tagBody{selfClosing: true}
}

// elementAction assembles an HTML element node from its open-tag span,
// attribute list, and tagBody. warnUnclosed enables the unclosed-tag
// diagnostic for block-level elements.
func (b *builder) elementAction(kind wikiast.NodeKind, warnUnclosed bool) peg.ActionFunc {
	return func(p *peg.Parser, start, end int, v any) any {
		seq := v.([]any)
		name := openTagName(p.Input()[start:end])
		body := seq[3].(tagBody)

		n := wikiast.NewNode(kind)
		n.HTML = &wikiast.HTMLAttrs{
			Name:        name,
			Attrs:       seq[2].([]wikiast.Attribute),
			SelfClosing: body.selfClosing,
		}
		wikiast.AppendChildren(n, body.children)

		if warnUnclosed && !body.selfClosing && !body.closed {
			p.Warnf(start, "unclosed <%s> tag", name)
		}
		return n
	}
}

func (b *builder) preAction() peg.ActionFunc {
	return func(p *peg.Parser, start, end int, v any) any {
		seq := v.([]any)
		body := seq[2].(tagBody)

		n := wikiast.NewNode(wikiast.NodeHTMLBlock)
		n.HTML = &wikiast.HTMLAttrs{
			Name:        "pre",
			Attrs:       seq[1].([]wikiast.Attribute),
			SelfClosing: body.selfClosing,
		}
		n.Literal = body.literal

		if !body.selfClosing && !body.closed {
			p.Warnf(start, "unclosed <pre> tag")
		}
		return n
	}
}

func (b *builder) nowikiAction() peg.ActionFunc {
	return func(p *peg.Parser, start, end int, _ any) any {
		caps := p.Captures()
		var inner string
		if len(caps) > 1 {
			inner = caps[1]
		}
		span := lowerASCII(p.Input()[start:end])
		closed := strings.Contains(span, "</nowiki") || strings.HasSuffix(span, "/>")
		if !closed {
			p.Warnf(start, "unclosed <nowiki> tag")
		}

		n := wikiast.NewNode(wikiast.NodeNowiki)
		n.Literal = []byte(b.decodeEntities(inner))
		return n
	}
}

// attrRules registers the attribute subgrammars. Attribute lists
// tolerate junk tokens between attributes ('<' excluded); entity
// references in values are decoded.
func (b *builder) attrRules() {
	b.addAttrSet("gt", `[ \t\r\n]*`, `[^<>\s/]+`, `[^\s></]+`)
	b.addAttrSet("eol", `[ \t]*`, `[^<>\s/]+`, `[^\s></]+`)
	b.addAttrSet("cell", `[ \t]*`, `[^<>\s|/\[\]]+`, `[^\s></|\[\]]+`)
}

// addAttrSet registers one attribute-list variant: attrs_to_<suffix>.
// sep separates items, junkPat matches tolerated junk, unqPat matches
// unquoted values.
func (b *builder) addAttrSet(suffix, sep, junkPat, unqPat string) {
	g := b.g

	value := peg.Choice(
		peg.Act(peg.Rx(`"([^"<\n]*)"`), b.attrValueAction()),
		peg.Act(peg.Rx(`'([^'<\n]*)'`), b.attrValueAction()),
		peg.Act(peg.Rx(`(`+unqPat+`)`), b.attrValueAction()),
	)

	attribute := peg.Act(peg.Seq(
		peg.Rx(`[:A-Za-z_0-9][:A-Za-z_0-9\-.]*`),
		peg.Opt(peg.Seq(peg.Rx(`[ \t]*=[ \t]*`), value)),
	), func(_ *peg.Parser, _, _ int, v any) any {
		seq := v.([]any)
		attr := wikiast.Attribute{Name: lowerASCII(seq[0].(string))}
		if seq[1] != nil {
			attr.Value = seq[1].([]any)[1].(string)
		}
		return attr
	})

	junk := peg.Act(peg.Rx(junkPat), func(*peg.Parser, int, int, any) any {
		return nil
	})

	g.AddMemo("attrs_to_"+suffix, peg.Act(
		peg.Star(peg.Seq(peg.Rx(sep), peg.Choice(attribute, junk))),
		func(_ *peg.Parser, _, _ int, v any) any {
			var attrs []wikiast.Attribute
			for _, item := range v.([]any) {
				if a, ok := item.([]any)[1].(wikiast.Attribute); ok {
					attrs = append(attrs, a)
				}
			}
			return attrs
		}))
}

func (b *builder) attrValueAction() peg.ActionFunc {
	return func(p *peg.Parser, _, _ int, _ any) any {
		return b.decodeEntities(p.Captures()[1])
	}
}

var entityRefRe = regexp.MustCompile(`&(?:[A-Za-z][A-Za-z0-9]*|#[0-9]{1,7}|#[xX][0-9A-Fa-f]{1,6});`)

// decodeEntities materializes character references in a string using
// the configured resolver. Unknown names are left verbatim.
func (b *builder) decodeEntities(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}
	return entityRefRe.ReplaceAllStringFunc(s, func(m string) string {
		body := m[1 : len(m)-1]
		var r rune
		var ok bool
		switch {
		case strings.HasPrefix(body, "#x"), strings.HasPrefix(body, "#X"):
			r, ok = entity.Hex(body[2:])
		case strings.HasPrefix(body, "#"):
			r, ok = entity.Decimal(body[1:])
		default:
			r, ok = b.entities.Resolve(body)
		}
		if !ok {
			return m
		}
		return string(r)
	})
}
