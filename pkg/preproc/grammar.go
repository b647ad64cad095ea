package preproc

import (
	"strings"

	"github.com/miki725/smc.mw/pkg/peg"
)

// preGrammar is built once and shared by all parses.
var preGrammar = buildGrammar()

// Grammar returns the preprocessor grammar.
func Grammar() *peg.Grammar {
	return preGrammar
}

func buildGrammar() *peg.Grammar {
	g := peg.NewGrammar()

	g.Add("element", peg.Choice(
		peg.Ref("comment"),
		peg.Ref("noinclude"),
		peg.Ref("includeonly"),
		peg.Ref("onlyinclude"),
		peg.Ref("ignore"),
		peg.Ref("argument"),
		peg.Ref("template"),
		peg.Ref("link"),
		peg.Ref("text"),
		peg.Ref("fallthrough"),
	))

	// text is the only memoized rule: it is a pure terminal with no
	// stack sensitivity.
	g.AddMemo("text", peg.Act(peg.Rx(`[^\n{}|=\[\]<]+`), textSpan))
	g.Add("fallthrough", peg.Act(peg.Any(), textSpan))

	g.Add("comment", peg.Act(peg.Rx(`<!--(?s:.*?)(?:-->|\z)`), commentAction))

	g.Add("template", peg.Act(peg.Seq(
		peg.Lit("{{"), peg.Not(peg.Lit("{")),
		peg.Ref("tpl_name"),
		peg.Star(peg.Seq(peg.Lit("|"), peg.Ref("tpl_arg"))),
		peg.Lit("}}"),
	), templateAction))

	g.Add("tpl_name", peg.Act(peg.Star(peg.Ref("tpl_name_part")), segsValue))
	g.Add("tpl_name_part", peg.Choice(
		peg.Ref("comment"),
		peg.Ref("argument"),
		peg.Ref("template"),
		peg.Act(peg.Rx(`[^{}|<]+`), textSpan),
		peg.Act(peg.Lit("<"), textSpan),
	))

	g.Add("tpl_arg", peg.Choice(peg.Ref("tpl_arg_named"), peg.Ref("tpl_arg_pos")))
	g.Add("tpl_arg_named", peg.Act(peg.Seq(
		peg.Ref("tpl_arg_name"), peg.Lit("="), peg.Ref("tpl_value"),
	), namedArgAction))
	g.Add("tpl_arg_pos", peg.Act(peg.Ref("tpl_value"), posArgAction))

	g.Add("tpl_arg_name", peg.Act(peg.Star(peg.Choice(
		peg.Ref("comment"),
		peg.Ref("argument"),
		peg.Ref("template"),
		peg.Act(peg.Rx(`[^{}|=<\[\]]+`), textSpan),
		peg.Act(peg.Lit("<"), textSpan),
	)), segsValue))

	g.Add("tpl_value", peg.Act(peg.Star(peg.Choice(
		peg.Ref("comment"),
		peg.Ref("argument"),
		peg.Ref("template"),
		peg.Ref("link"),
		peg.Act(peg.Rx(`[^{}|<\[\]]+`), textSpan),
		peg.Act(peg.Seq(peg.Lit("{"), peg.Not(peg.Lit("{"))), textSpan),
		peg.Act(peg.Seq(peg.Lit("}"), peg.Not(peg.Lit("}"))), textSpan),
		peg.Act(peg.Rx(`[<\[\]]`), textSpan),
	)), segsValue))

	g.Add("argument", peg.Act(peg.Seq(
		peg.Lit("{{{"),
		peg.Ref("tpl_name"),
		peg.Star(peg.Seq(peg.Lit("|"), peg.Ref("tpl_value"))),
		peg.Lit("}}}"),
	), argumentAction))

	g.Add("link", peg.Act(peg.Seq(
		peg.Lit("[["),
		peg.Ref("link_body"),
		peg.Lit("]]"),
	), linkAction))
	g.Add("link_body", peg.Act(peg.Star(peg.Choice(
		peg.Ref("link"),
		peg.Ref("comment"),
		peg.Ref("argument"),
		peg.Ref("template"),
		peg.Act(peg.Rx(`[^\[\]{}<]+`), textSpan),
		peg.Act(peg.Seq(peg.Lit("["), peg.Not(peg.Lit("["))), textSpan),
		peg.Act(peg.Seq(peg.Lit("]"), peg.Not(peg.Lit("]"))), textSpan),
		peg.Act(peg.Seq(peg.Lit("{"), peg.Not(peg.Lit("{"))), textSpan),
		peg.Act(peg.Seq(peg.Lit("}"), peg.Not(peg.Lit("}"))), textSpan),
		peg.Act(peg.Lit("<"), textSpan),
	)), segsValue))

	addIncludeRule(g, "noinclude", KindNoinclude)
	addIncludeRule(g, "includeonly", KindIncludeonly)
	addOnlyincludeRule(g)

	g.Add("ignore", peg.Act(
		peg.Rx(`</(?:noinclude|includeonly|onlyinclude)\s*>`),
		func(p *peg.Parser, start, end int, v any) any {
			return Ignore{raw: raw{p.Input()[start:end]}}
		}))

	return g
}

// addIncludeRule registers an inclusion-tag region rule. The end tag is
// optional: a missing one closes the region at EOF.
func addIncludeRule(g *peg.Grammar, name string, kind IncludeKind) {
	tag := kind.TagName()
	closeRx := peg.Rx(`</` + tag + `\s*>`)
	g.Add(name, peg.Act(peg.Seq(
		peg.Rx(`<`+tag+`\s*>`),
		peg.Star(peg.Seq(peg.Not(closeRx), peg.Ref("element"))),
		peg.Opt(closeRx),
	), includeAction(kind, 1, 2)))
}

// addOnlyincludeRule is like addIncludeRule plus the no-self-nesting
// guard: an onlyinclude region may not open inside another one. The
// guard marker rides the `no` stack; the evaluator's savepoint protocol
// rewinds it if the region fails mid-way.
func addOnlyincludeRule(g *peg.Grammar) {
	tag := KindOnlyinclude.TagName()
	closeRx := peg.Rx(`</` + tag + `\s*>`)
	marker := peg.MarkerEntry("onlyinclude")

	g.Add("onlyinclude", peg.Act(peg.Seq(
		peg.Trap("check_not_onlyinclude", func(p *peg.Parser) bool {
			for _, e := range p.Entries(peg.StackNo) {
				if e.Pattern == nil && e.Label == "onlyinclude" {
					return false
				}
			}
			return true
		}),
		peg.Rx(`<`+tag+`\s*>`),
		peg.Trap("push_onlyinclude", func(p *peg.Parser) bool {
			p.Push(peg.StackNo, marker)
			return true
		}),
		peg.Star(peg.Seq(peg.Not(closeRx), peg.Ref("element"))),
		peg.Opt(closeRx),
		peg.Trap("pop_onlyinclude", func(p *peg.Parser) bool {
			return p.Pop(peg.StackNo)
		}),
	), includeAction(KindOnlyinclude, 3, 4)))
}

// includeAction builds the Include segment from the rule's sequence
// value. bodyIdx and closeIdx locate the body star and the optional
// close tag within the sequence.
func includeAction(kind IncludeKind, bodyIdx, closeIdx int) peg.ActionFunc {
	return func(p *peg.Parser, start, end int, v any) any {
		seq := v.([]any)

		var body []Segment
		for _, pair := range seq[bodyIdx].([]any) {
			body = append(body, pair.([]any)[1].(Segment))
		}

		closed := seq[closeIdx] != nil
		if !closed {
			p.Warnf(start, "unclosed <%s> tag", kind.TagName())
		}

		return Include{
			raw:    raw{p.Input()[start:end]},
			Kind:   kind,
			Body:   body,
			Closed: closed,
		}
	}
}

// textSpan is the action shared by all plain-text terminals: the value
// is the matched source span.
func textSpan(p *peg.Parser, start, end int, _ any) any {
	return Text{raw: raw{p.Input()[start:end]}}
}

// segsValue collapses a star value into a []Segment.
func segsValue(_ *peg.Parser, _, _ int, v any) any {
	items, _ := v.([]any)
	segs := make([]Segment, 0, len(items))
	for _, it := range items {
		segs = append(segs, it.(Segment))
	}
	return mergeText(segs)
}

func commentAction(p *peg.Parser, start, end int, _ any) any {
	src := p.Input()
	text := src[start:end]
	closed := len(text) >= 7 && strings.HasSuffix(text, "-->")
	if !closed {
		p.Warnf(start, "unclosed comment")
	}

	alone, firstLine := commentContext(src, start, end)
	return Comment{
		raw:       raw{text},
		Alone:     alone && closed,
		FirstLine: firstLine,
		Closed:    closed,
	}
}

// commentContext decides whether a comment occupies its own line.
// Blanks may separate the comment from the enclosing newlines. A
// comment preceded only by blanks since the start of the document
// reports firstLine; the start of the document counts as a line start
// and the end of input as a line end for the alone pattern.
func commentContext(src string, start, end int) (alone, firstLine bool) {
	i := start
	for i > 0 && (src[i-1] == ' ' || src[i-1] == '\t') {
		i--
	}
	firstLine = i == 0
	precededNL := i > 0 && src[i-1] == '\n'

	j := end
	for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
		j++
	}
	followedNL := j >= len(src) || src[j] == '\n'

	alone = (precededNL || firstLine) && followedNL
	return alone, firstLine
}

func templateAction(p *peg.Parser, start, end int, v any) any {
	seq := v.([]any)
	src := p.Input()

	var args []Arg
	for _, pair := range seq[3].([]any) {
		args = append(args, pair.([]any)[1].(Arg))
	}

	return Template{
		raw:  raw{src[start:end]},
		Name: seq[2].([]Segment),
		Args: args,
		BOL:  start == 0 || src[start-1] == '\n',
	}
}

func namedArgAction(_ *peg.Parser, _, _ int, v any) any {
	seq := v.([]any)
	return Arg{Name: seq[0].([]Segment), Value: seq[2].([]Segment)}
}

func posArgAction(_ *peg.Parser, _, _ int, v any) any {
	return Arg{Value: v.([]Segment)}
}

func argumentAction(p *peg.Parser, start, end int, v any) any {
	seq := v.([]any)

	var defaults [][]Segment
	for _, pair := range seq[2].([]any) {
		defaults = append(defaults, pair.([]any)[1].([]Segment))
	}

	return Argument{
		raw:      raw{p.Input()[start:end]},
		Name:     seq[1].([]Segment),
		Defaults: defaults,
	}
}

func linkAction(p *peg.Parser, start, end int, v any) any {
	seq := v.([]any)
	return Link{
		raw:  raw{p.Input()[start:end]},
		Body: seq[1].([]Segment),
	}
}

// mergeText joins adjacent Text segments so downstream consumers see
// maximal runs.
func mergeText(segs []Segment) []Segment {
	out := segs[:0]
	for _, s := range segs {
		if t, ok := s.(Text); ok && len(out) > 0 {
			if prev, ok := out[len(out)-1].(Text); ok {
				out[len(out)-1] = Text{raw: raw{prev.Raw + t.Raw}}
				continue
			}
		}
		out = append(out, s)
	}
	return out
}
