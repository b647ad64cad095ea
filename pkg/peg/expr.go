// Package peg implements the stateful parsing-expression-grammar engine
// shared by the preprocessor and main wikitext grammars.
//
// On top of the ordinary PEG operators (ordered choice, sequence,
// repetition, lookahead) the engine maintains named auxiliary stacks that
// grammar rules push to and pop from, and whose tops gate the matching of
// other rules. Stack mutations participate in the evaluator's
// savepoint/restore protocol: a trial branch that pushes and later fails
// has its pushes rewound along with the input position.
package peg

import "regexp"

// Expr is a node in a rule's right-hand side. Expressions are built once
// at grammar-definition time and interpreted by the Parser.
type Expr interface {
	isExpr()
}

type (
	// seqExpr matches each sub-expression in order; fails (and rewinds)
	// if any step fails. Its value is the slice of step values.
	seqExpr struct {
		exprs []Expr
	}

	// choiceExpr tries alternatives left to right; the first match wins.
	choiceExpr struct {
		alts []Expr
	}

	// optExpr matches its sub-expression zero or one time.
	optExpr struct {
		expr Expr
	}

	// starExpr matches its sub-expression zero or more times.
	starExpr struct {
		expr Expr
	}

	// plusExpr matches its sub-expression one or more times.
	plusExpr struct {
		expr Expr
	}

	// andExpr is positive lookahead: matches without consuming.
	andExpr struct {
		expr Expr
	}

	// notExpr is negative lookahead: succeeds if the sub-expression
	// fails, never consumes.
	notExpr struct {
		expr Expr
	}

	// litExpr matches a literal string.
	litExpr struct {
		val string
	}

	// rxExpr matches an anchored regular expression. Submatches are
	// recorded on the parser until the next regex match replaces them.
	rxExpr struct {
		re  *regexp.Regexp
		src string
	}

	// refExpr invokes another rule by name.
	refExpr struct {
		name string
	}

	// cutExpr commits prior choices and purges memo entries below the
	// current position. It always succeeds.
	cutExpr struct{}

	// trapExpr is a named empty-RHS rule whose effect is a callback:
	// it may succeed silently, fail, mutate the side stacks, or consume
	// prefix patterns (check_bol_skip). Traps are never memoized.
	trapExpr struct {
		name string
		fn   TrapFunc
	}

	// actExpr wraps a sub-expression with a value-building action.
	actExpr struct {
		expr Expr
		fn   ActionFunc
	}

	// anyExpr matches any single character.
	anyExpr struct{}

	// eofExpr matches only at end of input.
	eofExpr struct{}
)

func (*seqExpr) isExpr()    {}
func (*choiceExpr) isExpr() {}
func (*optExpr) isExpr()    {}
func (*starExpr) isExpr()   {}
func (*plusExpr) isExpr()   {}
func (*andExpr) isExpr()    {}
func (*notExpr) isExpr()    {}
func (*litExpr) isExpr()    {}
func (*rxExpr) isExpr()     {}
func (*refExpr) isExpr()    {}
func (*cutExpr) isExpr()    {}
func (*trapExpr) isExpr()   {}
func (*actExpr) isExpr()    {}
func (*anyExpr) isExpr()    {}
func (*eofExpr) isExpr()    {}

// ActionFunc builds a value from a matched sub-expression. v is the
// sub-expression's value ([]any for sequences, element slices for
// repetitions, nil for lookaheads and traps). start and end delimit the
// matched span in the input.
type ActionFunc func(p *Parser, start, end int, v any) any

// TrapFunc implements a semantic trap. Returning false fails the
// enclosing expression at the current position.
type TrapFunc func(p *Parser) bool

// Seq matches each expression in order.
func Seq(exprs ...Expr) Expr { return &seqExpr{exprs: exprs} }

// Choice tries each alternative in order; the first success wins.
func Choice(alts ...Expr) Expr { return &choiceExpr{alts: alts} }

// Opt matches e zero or one time.
func Opt(e Expr) Expr { return &optExpr{expr: e} }

// Star matches e zero or more times.
func Star(e Expr) Expr { return &starExpr{expr: e} }

// Plus matches e one or more times.
func Plus(e Expr) Expr { return &plusExpr{expr: e} }

// And is positive lookahead; it never consumes input.
func And(e Expr) Expr { return &andExpr{expr: e} }

// Not is negative lookahead; it never consumes input.
func Not(e Expr) Expr { return &notExpr{expr: e} }

// Lit matches the literal string s.
func Lit(s string) Expr { return &litExpr{val: s} }

// Rx matches the regular expression pat anchored at the current position.
// The pattern is compiled once, at grammar-definition time; an invalid
// pattern is a programming error and panics.
func Rx(pat string) Expr {
	return &rxExpr{re: MustPattern(pat), src: pat}
}

// Ref invokes the named rule.
func Ref(name string) Expr { return &refExpr{name: name} }

// Cut commits prior choices and bounds memo growth. Always succeeds.
func Cut() Expr { return &cutExpr{} }

// Trap installs a named semantic trap.
func Trap(name string, fn TrapFunc) Expr { return &trapExpr{name: name, fn: fn} }

// Act wraps e with a value-building action.
func Act(e Expr, fn ActionFunc) Expr { return &actExpr{expr: e, fn: fn} }

// Any matches any single character.
func Any() Expr { return &anyExpr{} }

// EOF matches only at end of input.
func EOF() Expr { return &eofExpr{} }

// MustPattern compiles pat anchored at the match position. Matching
// never skips leading whitespace and never searches forward.
func MustPattern(pat string) *regexp.Regexp {
	return regexp.MustCompile(`\A(?:` + pat + `)`)
}
