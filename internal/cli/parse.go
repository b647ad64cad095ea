package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/miki725/smc.mw/internal/logging"
	"github.com/miki725/smc.mw/internal/ui/pretty"
	"github.com/miki725/smc.mw/pkg/config"
	"github.com/miki725/smc.mw/pkg/parser/wikitext"
)

func newParseCommand(configPath, color *string) *cobra.Command {
	var showDiags bool
	var showPreprocessed bool

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a wikitext file and print the document tree",
		Long: `Parse reads wikitext from a file (or stdin when no file is given),
runs the preprocessor and main grammars, and prints the resulting
document tree. Warnings for unclosed constructs are listed after the
tree when --diagnostics is set.`,
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

			parser := wikitext.New(wikitext.Options{
				AllowSchemes:             cfg.AllowSchemes,
				StripCommentsOnFirstLine: cfg.StripCommentsOnFirstLine,
				Memoize:                  cfg.Memoize(),
			})

			logger := logging.FromContext(cmd.Context())
			start := time.Now()

			result, err := parser.Parse(cmd.Context(), source)
			if err != nil {
				return err
			}

			logger.Debug("parsed document",
				logging.FieldPath, path,
				logging.FieldBytes, len(source),
				logging.FieldBlocks, result.Doc.ChildCount(),
				logging.FieldDiagnostics, len(result.Diagnostics),
				logging.FieldDuration, time.Since(start),
			)

			out := cmd.OutOrStdout()
			styles := pretty.NewStyles(pretty.ColorEnabled(*color, out))

			if showPreprocessed {
				fmt.Fprintln(out, result.Preprocessed)
				return nil
			}

			styles.RenderTree(out, result.Doc)
			if showDiags && len(result.Diagnostics) > 0 {
				fmt.Fprintln(out)
				styles.RenderDiagnostics(out, path, result.Diagnostics)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showDiags, "diagnostics", false, "list parse warnings after the tree")
	cmd.Flags().BoolVar(&showPreprocessed, "preprocessed", false, "print the preprocessed text instead of the tree")

	return cmd
}

func readInput(args []string) (string, string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return "<stdin>", string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("read input: %w", err)
	}
	return args[0], string(data), nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
