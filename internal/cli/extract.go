package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/carve/internal/config"
	"github.com/mvp-joe/carve/internal/ctxlog"
	"github.com/mvp-joe/carve/internal/generate"
	"github.com/mvp-joe/carve/internal/runner"
)

var (
	quietFlag  bool
	dryRunFlag bool
	watchFlag  bool
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [root]",
	Short: "Extract configured blocks into per-unit files",
	Long: `Extract reads every source named by the configured targets, splits the
recognized blocks into one generated file each, writes a module index (and
dispatch table when configured), and rewrites the original when enabled.

Existing non-empty destinations are never overwritten; they are reported as
skipped. A failing source does not stop the others, but makes the command
exit non-zero.

Examples:
  # Extract using ./.carve/config.yml
  carve extract

  # Show what would be written without touching any file
  carve extract --dry-run

  # Extract under another root with an explicit config
  carve extract ./crates/libmwemu --config carve.yaml

  # Keep running and re-extract whenever a configured source changes
  carve extract --watch
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	extractCmd.Flags().BoolVarP(&dryRunFlag, "dry-run", "n", false, "Compute every artifact but write nothing")
	extractCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Re-run extraction when a configured source changes")
}

func runExtract(cmd *cobra.Command, args []string) error {
	if watchFlag && dryRunFlag {
		return errors.New("--watch and --dry-run cannot be combined")
	}

	// Set up context with cancellation for Ctrl+C
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(cmd.ErrOrStderr(), "\nInterrupted! Cancelling extraction...")
			cancel()
		case <-ctx.Done():
		}
	}()

	rootDir, err := resolveRoot(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(rootDir, cfgFile)
	if err != nil {
		return err
	}

	summary, err := executeExtract(ctx, rootDir, cfg, dryRunFlag, NewCLIProgressReporter(quietFlag, cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	if dryRunFlag && !quietFlag {
		printPlan(cmd.OutOrStdout(), summary)
	}
	if watchFlag {
		return watchExtract(ctx, rootDir, cfg, cmd.OutOrStdout())
	}
	if n := failedCount(summary); n > 0 {
		return fmt.Errorf("extraction failed for %d source(s)", n)
	}
	return nil
}

// executeExtract compiles the configured targets and runs them under rootDir.
func executeExtract(ctx context.Context, rootDir string, cfg *config.Config, dryRun bool, progress runner.ProgressReporter) (*runner.Summary, error) {
	if err := config.RequireTargets(cfg); err != nil {
		return nil, err
	}

	targets, err := compileTargets(cfg)
	if err != nil {
		return nil, err
	}

	r, err := runner.New(rootDir, cfg.Ignore, generate.NewWriter(dryRun), progress)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	ctxlog.FromContext(ctx).Debug("starting extraction", "root", rootDir, "targets", len(targets), "dry_run", dryRun)
	summary, err := r.Run(ctx, targets)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return summary, fmt.Errorf("extraction cancelled")
		}
		return summary, fmt.Errorf("extraction failed: %w", err)
	}
	return summary, nil
}

func compileTargets(cfg *config.Config) ([]*runner.Target, error) {
	targets := make([]*runner.Target, 0, len(cfg.Targets))
	for _, tc := range cfg.Targets {
		t, err := runner.NewTarget(tc)
		if err != nil {
			return nil, fmt.Errorf("failed to compile target %s: %w", tc.Name, err)
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func failedCount(s *runner.Summary) int {
	n := 0
	for _, f := range s.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// printPlan lists planned writes for a dry run.
func printPlan(w io.Writer, s *runner.Summary) {
	for _, f := range s.Files {
		for _, p := range f.Planned {
			fmt.Fprintf(w, "would write %s\n", p)
		}
		if f.Rewritten != "" {
			fmt.Fprintf(w, "would rewrite %s\n", f.Rewritten)
		}
	}
}
