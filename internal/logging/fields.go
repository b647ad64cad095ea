// Package logging provides a structured logging wrapper around
// charmbracelet/log.
package logging

// Field name constants for structured logging.
// Using constants prevents typos and enables IDE autocomplete.
const (
	// Common fields.
	FieldError = "error"
	FieldPath  = "path"
	FieldInput = "input"

	// Parse fields.
	FieldBytes       = "bytes"
	FieldBlocks      = "blocks"
	FieldDiagnostics = "diagnostics"
	FieldSegments    = "segments"
	FieldMemoization = "memoization"
	FieldSchemes     = "schemes"
	FieldDuration    = "duration"

	// Diagnostic fields.
	FieldLine    = "line"
	FieldColumn  = "column"
	FieldMessage = "message"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
