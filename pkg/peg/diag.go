package peg

import "fmt"

// Diagnostic is a non-fatal warning produced during a parse. Diagnostics
// never affect the tree already produced.
type Diagnostic struct {
	// Offset is the byte position the warning refers to.
	Offset int

	// Line and Column are 1-based source coordinates.
	Line   int
	Column int

	// Message is the human-readable warning text.
	Message string
}

// String renders the diagnostic as "line:col: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s", d.Line, d.Column, d.Message)
}
