package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/miki725/smc.mw/internal/logging"
	"github.com/miki725/smc.mw/pkg/peg"
	"github.com/miki725/smc.mw/pkg/preproc"
)

func newPreprocessCommand(configPath *string) *cobra.Command {
	var includeMode bool

	cmd := &cobra.Command{
		Use:   "preprocess [file]",
		Short: "Run only the preprocessor grammar and print its output",
		Long: `Preprocess runs the transclusion preprocessor over the input:
standalone comments are swallowed with their surrounding whitespace,
inclusion-control regions are resolved, and template syntax is left
verbatim for a downstream transclusion engine.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, source, err := readInput(args)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			pp := preproc.New(
				preproc.WithStripCommentsOnFirstLine(cfg.StripCommentsOnFirstLine),
				preproc.WithParseOptions(peg.Options{Memoize: cfg.Memoize()}),
			)

			mode := preproc.ModeView
			if includeMode {
				mode = preproc.ModeInclude
			}

			out, diags := pp.ProcessFor(source, mode)
			fmt.Fprint(cmd.OutOrStdout(), out)

			logger := logging.FromContext(cmd.Context())
			for _, d := range diags {
				logger.Warn(d.Message,
					logging.FieldPath, path,
					logging.FieldLine, d.Line,
					logging.FieldColumn, d.Column,
				)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeMode, "include", false,
		"apply transclusion semantics (includeonly kept, noinclude dropped)")

	return cmd
}
