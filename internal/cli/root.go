// Package cli provides the Cobra command structure for mwtext.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/miki725/smc.mw/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand creates the root mwtext command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	var debug bool
	var configPath string
	var color string

	rootCmd := &cobra.Command{
		Use:   "mwtext",
		Short: "Parse MediaWiki markup into a document tree",
		Long: `mwtext parses MediaWiki-compatible wiki markup into a structured
document tree using a stateful PEG engine: a preprocessor grammar for
templates, comments, and inclusion regions, then the main markup
grammar for headings, lists, tables, links, and inline formatting.

It prints the parsed tree and any non-fatal diagnostics; rendering and
template expansion are left to downstream consumers.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug {
				logging.SetLevel("debug")
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags.
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&color, "color", "auto",
		"colorize output: auto, always, never")

	// Add subcommands.
	rootCmd.AddCommand(newParseCommand(&configPath, &color))
	rootCmd.AddCommand(newPreprocessCommand(&configPath))
	rootCmd.AddCommand(newVersionCommand(info))

	rootCmd.SetOut(os.Stdout)

	return rootCmd
}
