package generate

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Artifact is a generated file: its destination and full text.
type Artifact struct {
	Key     string
	Path    string
	Content string
}

// Outcome reports what Write did with an artifact.
type Outcome int

const (
	// Written means the destination was created or replaced.
	Written Outcome = iota
	// Skipped means the destination already held content and was left alone.
	Skipped
	// Planned means a dry run would have written the artifact.
	Planned
)

func (o Outcome) String() string {
	switch o {
	case Written:
		return "written"
	case Skipped:
		return "skipped"
	case Planned:
		return "planned"
	}
	return "unknown"
}

// Writer persists artifacts. Generated artifacts are never clobbered: a
// destination that already holds non-blank content is skipped.
type Writer struct {
	DryRun   bool
	FileMode os.FileMode
	DirMode  os.FileMode
}

// NewWriter returns a writer with default permissions.
func NewWriter(dryRun bool) *Writer {
	return &Writer{DryRun: dryRun, FileMode: 0o644, DirMode: 0o755}
}

// Write persists a unless its destination already holds content.
func (w *Writer) Write(ctx context.Context, a Artifact) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Skipped, err
	}

	existing, err := os.ReadFile(a.Path)
	switch {
	case err == nil && strings.TrimSpace(string(existing)) != "":
		return Skipped, nil
	case err != nil && !os.IsNotExist(err):
		return Skipped, fmt.Errorf("failed to inspect %s: %w", a.Path, err)
	}

	if w.DryRun {
		return Planned, nil
	}
	if err := w.replace(a.Path, a.Content); err != nil {
		return Skipped, err
	}
	return Written, nil
}

// Replace overwrites path with content unconditionally. It is used for the
// rewritten original, which is expected to change on every run.
func (w *Writer) Replace(ctx context.Context, path, content string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Skipped, err
	}
	if w.DryRun {
		return Planned, nil
	}
	if err := w.replace(path, content); err != nil {
		return Skipped, err
	}
	return Written, nil
}

// replace writes content to a temp file beside path and renames it into
// place, so a failed write never leaves a truncated destination.
func (w *Writer) replace(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, w.dirMode()); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".carve-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	bw := bufio.NewWriter(tmp)
	if _, err := bw.WriteString(content); err != nil {
		cleanup()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		cleanup()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Chmod(w.fileMode()); err != nil {
		cleanup()
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func (w *Writer) fileMode() os.FileMode {
	if w.FileMode == 0 {
		return 0o644
	}
	return w.FileMode
}

func (w *Writer) dirMode() os.FileMode {
	if w.DirMode == 0 {
		return 0o755
	}
	return w.DirMode
}
