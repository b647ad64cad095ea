package wikitext

import (
	"strings"

	"github.com/miki725/smc.mw/pkg/peg"
	"github.com/miki725/smc.mw/pkg/wikiast"
)

// DefaultSchemes is the URL scheme set recognized for external and
// plain links when Options leave it unset.
var DefaultSchemes = []string{
	"http", "https", "ftp", "telnet", "irc", "ircs", "nntp",
	"worldwind", "mailto", "news", "svn", "git", "mms",
}

// schemesWithoutSlashes use "scheme:" instead of "scheme://".
var schemesWithoutSlashes = map[string]bool{
	"mailto": true,
	"news":   true,
}

// urlPattern builds the anchored URL pattern for the configured scheme
// set. Protocol-relative "//" is admitted only for bracketed external
// links, never for free links.
func urlPattern(schemes []string, protocolRelative bool) string {
	var withSlashes, bare []string
	for _, s := range schemes {
		if schemesWithoutSlashes[s] {
			bare = append(bare, s)
		} else {
			withSlashes = append(withSlashes, s)
		}
	}

	var alts []string
	if len(withSlashes) > 0 {
		alts = append(alts, `(?:`+tagAlternation(withSlashes)+`)://`)
	}
	if len(bare) > 0 {
		alts = append(alts, `(?:`+tagAlternation(bare)+`):`)
	}
	if protocolRelative {
		alts = append(alts, `//`)
	}

	return `(?i:` + strings.Join(alts, `|`) + `)[^\[\]<>"\s]+`
}

func (b *builder) linkRules() {
	g := b.g
	urlPat := urlPattern(b.schemes, true)
	freeURLPat := urlPattern(b.schemes, false)

	// Internal link: [[ target ( | text )? ]] trail?. The pipe
	// separator disables indent-pre inside the text.
	g.Add("internal_link", peg.Act(peg.Seq(
		peg.Lit("[["),
		peg.Rx(`([^\n\[\]|<>{}]+)`),
		peg.Opt(peg.Act(peg.Seq(
			peg.Lit("|"),
			pushWspreOff,
			pushIfnotLink,
			pushNoNL,
			peg.Ref("inline0"),
			popNo,
			popIfnot,
			popWspre,
		), func(_ *peg.Parser, _, _ int, v any) any {
			return v.([]any)[4]
		})),
		peg.Lit("]]"),
		peg.Opt(peg.Rx(`[a-zA-Z']+`)),
	), internalLinkAction))

	// External link: [ url text? ].
	g.Add("external_link", peg.Act(peg.Seq(
		peg.Lit("["),
		peg.Not(peg.Lit("[")),
		peg.Rx(urlPat),
		peg.Opt(peg.Act(peg.Seq(
			peg.Rx(`[ \t]+`),
			pushIfnotExt,
			pushNoNL,
			peg.Ref("inline0"),
			popNo,
			popIfnot,
		), func(_ *peg.Parser, _, _ int, v any) any {
			return v.([]any)[3]
		})),
		peg.Rx(`[ \t]*`),
		peg.Lit("]"),
	), externalLinkAction))

	// Plain link: a bare URL at a word boundary. Trailing punctuation
	// is not absorbed; a closing ')' is absorbed only when a matching
	// '(' appears within the URL.
	g.Add("plain_link", peg.Act(peg.Seq(
		peg.Trap("check_word_boundary", func(p *peg.Parser) bool {
			pos := p.Pos()
			if pos == 0 {
				return true
			}
			c := p.Input()[pos-1]
			return !(c == '_' ||
				(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
				(c >= '0' && c <= '9'))
		}),
		peg.Rx(freeURLPat),
	), plainLinkAction))
}

func internalLinkAction(p *peg.Parser, _, _ int, v any) any {
	seq := v.([]any)

	n := wikiast.NewNode(wikiast.NodeInternalLink)
	link := &wikiast.LinkAttrs{Target: strings.TrimSpace(seq[1].(string))}
	n.Inline = &wikiast.InlineAttrs{Link: link}

	if seq[2] != nil {
		link.HasText = true
		wikiast.AppendChildren(n, seq[2].([]*wikiast.Node))
	}
	if seq[4] != nil {
		link.Trail = seq[4].(string)
	}
	return n
}

func externalLinkAction(_ *peg.Parser, _, _ int, v any) any {
	seq := v.([]any)

	n := wikiast.NewNode(wikiast.NodeExternalLink)
	link := &wikiast.LinkAttrs{URL: seq[2].(string)}
	n.Inline = &wikiast.InlineAttrs{Link: link}

	if seq[3] != nil {
		link.HasText = true
		wikiast.AppendChildren(n, seq[3].([]*wikiast.Node))
	}
	return n
}

func plainLinkAction(p *peg.Parser, start, _ int, v any) any {
	seq := v.([]any)
	url := seq[1].(string)

	// Back off trailing punctuation. ')' stays only when balanced by a
	// '(' inside the URL.
	for len(url) > 0 {
		last := url[len(url)-1]
		if strings.IndexByte(",;.:!?", last) >= 0 {
			url = url[:len(url)-1]
			continue
		}
		if last == ')' && !strings.Contains(url[:len(url)-1], "(") {
			url = url[:len(url)-1]
			continue
		}
		break
	}
	p.SetPos(start + len(url))

	n := wikiast.NewNode(wikiast.NodePlainLink)
	n.Literal = []byte(url)
	n.Inline = &wikiast.InlineAttrs{Link: &wikiast.LinkAttrs{URL: url}}
	return n
}
