package wikitext

import (
	"regexp"
	"sync"

	"github.com/miki725/smc.mw/pkg/entity"
	"github.com/miki725/smc.mw/pkg/peg"
)

// builder assembles the main grammar for one configuration. The scheme
// set is baked into the link patterns and the entity resolver into the
// value-decoding actions, so a grammar is immutable once built and
// shared by every parse of the Parser that owns it.
type builder struct {
	g        *peg.Grammar
	entities entity.Resolver
	schemes  []string

	// urlRe is the anchored free-link URL pattern; the text-run
	// terminal consults it to back off a scheme name it swallowed.
	urlRe *regexp.Regexp
}

func buildGrammar(schemes []string, entities entity.Resolver) *peg.Grammar {
	if len(schemes) == 0 {
		schemes = DefaultSchemes
	}
	if entities == nil {
		entities = entity.Default()
	}

	b := &builder{
		g:        peg.NewGrammar(),
		entities: entities,
		schemes:  schemes,
	}
	b.urlRe = peg.MustPattern(urlPattern(schemes, false))

	b.blockRules()
	b.tableRules()
	b.inlineRules()
	b.linkRules()
	b.htmlRules()
	b.attrRules()

	return b.g
}

// defaultGrammar is the grammar for DefaultOptions, built once.
var (
	defaultGrammar     *peg.Grammar
	defaultGrammarOnce sync.Once
)

func getDefaultGrammar() *peg.Grammar {
	defaultGrammarOnce.Do(func() {
		defaultGrammar = buildGrammar(nil, nil)
	})
	return defaultGrammar
}
