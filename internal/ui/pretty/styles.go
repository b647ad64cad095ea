// Package pretty provides Lipgloss-based styled output for the CLI:
// the document tree dump and diagnostic listings.
package pretty

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Styles contains all styled renderers for CLI output.
type Styles struct {
	// Tree components.
	NodeKind  lipgloss.Style
	NodeAttr  lipgloss.Style
	NodeText  lipgloss.Style
	TreeGuide lipgloss.Style

	// Diagnostics.
	Warning  lipgloss.Style
	Location lipgloss.Style
	Message  lipgloss.Style

	// Misc.
	Dim  lipgloss.Style
	Bold lipgloss.Style
}

// NewStyles creates a new Styles with the given color mode.
func NewStyles(colorEnabled bool) *Styles {
	if !colorEnabled {
		return &Styles{}
	}
	return &Styles{
		NodeKind:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		NodeAttr:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		NodeText:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		TreeGuide: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Location:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Message:   lipgloss.NewStyle(),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Bold:      lipgloss.NewStyle().Bold(true),
	}
}

// ColorEnabled decides whether to colorize output for w given a
// "auto"/"always"/"never" mode.
func ColorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		f, ok := w.(*os.File)
		return ok && isatty.IsTerminal(f.Fd())
	}
}

// TerminalWidth reports the width of the terminal behind w, or a
// reasonable default when w is not a terminal.
func TerminalWidth(w io.Writer) int {
	const defaultWidth = 100
	f, ok := w.(*os.File)
	if !ok {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}
