package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/carve/internal/config"
	"github.com/mvp-joe/carve/internal/ctxlog"
	"github.com/mvp-joe/carve/internal/diagnostics"
	"github.com/mvp-joe/carve/internal/generate"
	"github.com/mvp-joe/carve/internal/imports"
)

var (
	stdinFlag         bool
	importsDryRunFlag bool
)

// importsCmd represents the imports command
var importsCmd = &cobra.Command{
	Use:   "imports [root]",
	Short: "Remove unused imports reported by the build tool",
	Long: `Imports runs the configured diagnostics command once (cargo check by
default), collects every unused-import warning with its file location, and
removes the reported items from the use statements.

Examples:
  # Run cargo check in the current directory and fix what it reports
  carve imports

  # Fix from a saved diagnostics log
  cargo check --color never 2> check.log; carve imports --stdin < check.log
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImports,
}

func init() {
	rootCmd.AddCommand(importsCmd)
	importsCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read the diagnostics stream from standard input")
	importsCmd.Flags().BoolVarP(&importsDryRunFlag, "dry-run", "n", false, "Report fixes without writing files")
}

func runImports(cmd *cobra.Command, args []string) error {
	rootDir, err := resolveRoot(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(rootDir, cfgFile)
	if err != nil {
		return err
	}

	var stream io.Reader
	if stdinFlag {
		stream = cmd.InOrStdin()
	} else {
		out, err := imports.Collect(cmd.Context(), rootDir, cfg.Imports.Command)
		if err != nil {
			return fmt.Errorf("failed to collect diagnostics: %w", err)
		}
		stream = bytes.NewReader(out)
	}

	return executeImports(cmd.Context(), rootDir, cfg.Imports, stream, importsDryRunFlag, cmd.OutOrStdout())
}

// executeImports parses stream and fixes every reported file under rootDir.
func executeImports(ctx context.Context, rootDir string, cfg config.ImportsConfig, stream io.Reader, dryRun bool, out io.Writer) error {
	log := ctxlog.FromContext(ctx)

	records, problems, err := diagnostics.Parse(stream, diagnostics.Windows{
		Location: cfg.LocationWindow,
		Context:  cfg.ContextWindow,
	})
	if err != nil {
		return err
	}
	for _, p := range problems {
		log.Warn("dropped diagnostic", "line", p.Line, "warning", p.Warning, "error", p.Err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "✓ No unused import warnings found")
		return nil
	}

	fixer := &imports.Fixer{Root: rootDir, Writer: generate.NewWriter(dryRun)}
	failed := 0
	for _, rep := range fixer.Apply(ctx, records) {
		if rep.Err != nil {
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", rep.File, rep.Err)
			continue
		}
		fmt.Fprintf(out, "✓ %s: %d changed, %d removed", rep.File, rep.Changed, rep.Deleted)
		if rep.Stale > 0 {
			fmt.Fprintf(out, ", %d stale", rep.Stale)
		}
		fmt.Fprintln(out)
	}

	if failed > 0 {
		return fmt.Errorf("failed to fix %d file(s)", failed)
	}
	return nil
}
