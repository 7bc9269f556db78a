package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/carve/internal/config"
	"github.com/mvp-joe/carve/internal/ctxlog"
	"github.com/mvp-joe/carve/internal/generate"
	"github.com/mvp-joe/carve/internal/runner"
	"github.com/mvp-joe/carve/internal/watcher"
)

// watchExtract re-runs extraction whenever a configured source changes,
// until ctx is cancelled. Rewritten sources trigger one more pass, which
// finds nothing left to extract.
func watchExtract(ctx context.Context, rootDir string, cfg *config.Config, out io.Writer) error {
	log := ctxlog.FromContext(ctx)

	targets, err := compileTargets(cfg)
	if err != nil {
		return err
	}
	r, err := runner.New(rootDir, cfg.Ignore, generate.NewWriter(false), &runner.NoOpProgressReporter{})
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	w, err := watcher.New([]string{rootDir}, watcher.Options{
		Extensions: watchExtensions(cfg),
		Skip:       r.Ignored,
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()

	onChange := func(ctx context.Context, files []string) {
		hit, err := r.Affected(targets, files)
		if err != nil {
			log.Error("failed to match changed files", "error", err)
			return
		}
		if !hit {
			return
		}
		summary, err := r.Run(ctx, targets)
		if err != nil {
			log.Warn("extraction interrupted", "error", err)
			return
		}
		keys, written, _, _, _ := summary.Totals()
		if written > 0 || failedCount(summary) > 0 {
			fmt.Fprintf(out, "✓ %s keys, %s files written, %d failed\n", formatNumber(keys), formatNumber(written), failedCount(summary))
		}
	}
	if err := w.Start(ctx, onChange); err != nil {
		return err
	}

	fmt.Fprintf(out, "Watching %s for changes (Ctrl+C to stop)\n", rootDir)
	<-ctx.Done()
	return nil
}

// watchExtensions collects the file extensions of every target source,
// so only edits that could matter wake the runner.
func watchExtensions(cfg *config.Config) []string {
	seen := make(map[string]bool)
	var exts []string
	for _, t := range cfg.Targets {
		ext := filepath.Ext(t.Source)
		if ext == "" || strings.ContainsAny(ext, "*?[{") {
			return nil
		}
		if !seen[ext] {
			seen[ext] = true
			exts = append(exts, ext)
		}
	}
	return exts
}
