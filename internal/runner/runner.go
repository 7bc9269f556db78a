// Package runner drives extraction over every source a configuration names.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mvp-joe/carve/internal/ctxlog"
	"github.com/mvp-joe/carve/internal/extract"
	"github.com/mvp-joe/carve/internal/generate"
	"github.com/mvp-joe/carve/internal/index"
	"github.com/mvp-joe/carve/internal/rewrite"
)

// ErrFileAccess marks a source that could not be read or an output that could
// not be written. It fails that source only.
var ErrFileAccess = errors.New("file access failed")

// FileReport is the outcome for one source.
type FileReport struct {
	Target string
	Source string // relative to the root

	Keys      []string
	Anomalies []extract.Anomaly

	Written []string
	Skipped []string
	Planned []string

	// Kept lists extracted keys left in the rewritten source because their
	// unit or index entry already existed with other content.
	Kept []string

	// Removed lists residual dispatch arms deleted by the rewrite.
	Removed []string
	// Rewritten is the path of the rewritten original, if any.
	Rewritten string

	Err error
}

// Summary is the outcome of one run.
type Summary struct {
	RunID    string
	Files    []*FileReport
	Duration time.Duration
}

// Failed reports whether any source failed.
func (s *Summary) Failed() bool {
	for _, f := range s.Files {
		if f.Err != nil {
			return true
		}
	}
	return false
}

// Totals returns aggregate counts across sources.
func (s *Summary) Totals() (keys, written, skipped, planned, anomalies int) {
	for _, f := range s.Files {
		keys += len(f.Keys)
		written += len(f.Written)
		skipped += len(f.Skipped)
		planned += len(f.Planned)
		anomalies += len(f.Anomalies)
	}
	return
}

// Runner processes targets under a root directory.
type Runner struct {
	root      string
	discovery *Discovery
	writer    *generate.Writer
	progress  ProgressReporter
}

// New creates a runner. A nil progress reporter is replaced by a no-op one.
func New(root string, ignore []string, writer *generate.Writer, progress ProgressReporter) (*Runner, error) {
	d, err := NewDiscovery(root, ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to compile ignore patterns: %w", err)
	}
	if writer == nil {
		writer = generate.NewWriter(false)
	}
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}
	return &Runner{root: root, discovery: d, writer: writer, progress: progress}, nil
}

// Ignored reports whether path lies under one of the runner's ignore patterns.
func (r *Runner) Ignored(path string) bool {
	return r.discovery.Ignored(path)
}

// Affected reports whether any of files is currently a source of targets.
func (r *Runner) Affected(targets []*Target, files []string) (bool, error) {
	changed := make(map[string]bool, len(files))
	for _, f := range files {
		changed[filepath.Clean(f)] = true
	}
	for _, t := range targets {
		paths, err := r.discovery.Sources(t.Source)
		if err != nil {
			return false, err
		}
		for _, p := range paths {
			if changed[filepath.Clean(p)] {
				return true, nil
			}
		}
	}
	return false, nil
}

type job struct {
	target *Target
	path   string
}

// Run processes every source of every target. Per-source failures are
// recorded in the summary; Run itself only fails when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, targets []*Target) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.NewString()}
	ctx = ctxlog.With(ctx, "run", summary.RunID)
	log := ctxlog.FromContext(ctx)

	var jobs []job
	for _, t := range targets {
		paths, err := r.discovery.Sources(t.Source)
		if err != nil {
			summary.Files = append(summary.Files, &FileReport{
				Target: t.Name,
				Source: t.Source,
				Err:    fmt.Errorf("%w: discovering %s: %v", ErrFileAccess, t.Source, err),
			})
			continue
		}
		if len(paths) == 0 {
			log.Warn("no sources matched", "target", t.Name, "source", t.Source)
		}
		for _, p := range paths {
			jobs = append(jobs, job{target: t, path: p})
		}
	}

	r.progress.OnRunStart(len(jobs))
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		rep := r.processFile(ctxlog.With(ctx, "target", j.target.Name, "file", r.discovery.Rel(j.path)), j.target, j.path)
		summary.Files = append(summary.Files, rep)
		r.progress.OnFileProcessed(rep)
	}

	summary.Duration = time.Since(start)
	r.progress.OnComplete(summary)
	return summary, nil
}

func (r *Runner) processFile(ctx context.Context, t *Target, path string) *FileReport {
	log := ctxlog.FromContext(ctx)
	rel := r.discovery.Rel(path)
	rep := &FileReport{Target: t.Name, Source: rel}

	data, err := os.ReadFile(path)
	if err != nil {
		rep.Err = fmt.Errorf("%w: %v", ErrFileAccess, err)
		log.Error("failed to read source", "error", err)
		return rep
	}

	res, err := extract.ExtractText(string(data), t.Extract)
	if err != nil {
		rep.Err = err
		log.Error("extraction failed", "error", err)
		return rep
	}
	rep.Keys = res.Keys
	rep.Anomalies = res.Anomalies
	for _, a := range res.Anomalies {
		log.Warn("anomaly", "kind", a.Kind.String(), "keys", a.Keys, "line", a.Line)
	}

	if res.Len() == 0 {
		log.Debug("nothing extracted")
		return rep
	}

	dir := resolve(r.root, expand(t.Dest, rel))
	gen := t.Generator
	gen.Dir = dir
	artifacts, units, err := gen.Artifacts(res)
	if err != nil {
		rep.Err = err
		log.Error("failed to render artifacts", "error", err)
		return rep
	}

	// A key is settled once its unit exists with the generated text and the
	// index reaches it. Only settled keys leave the source.
	settled := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		outcome, err := r.write(ctx, rep, a)
		if err != nil {
			return rep
		}
		settled[a.Key] = current(a, outcome)
	}

	if t.Index != nil {
		a := generate.Artifact{Path: filepath.Join(dir, t.IndexFile), Content: index.Render(units, *t.Index)}
		outcome, err := r.write(ctx, rep, a)
		if err != nil {
			return rep
		}
		if !current(a, outcome) {
			existing, _ := os.ReadFile(a.Path)
			for _, u := range units {
				if !index.Declares(string(existing), u, *t.Index) {
					settled[u.Key] = false
				}
			}
		}
	}

	if t.Rewrite != nil {
		// A shared block stays whole when any of its keys is unsettled.
		kept := make(map[string]bool)
		for _, k := range res.Keys {
			if b, _ := res.Get(k); !settled[k] {
				for _, bk := range b.Keys {
					kept[bk] = true
				}
			}
		}
		var moved []string
		for _, k := range res.Keys {
			if kept[k] {
				rep.Kept = append(rep.Kept, k)
			} else {
				moved = append(moved, k)
			}
		}
		if len(rep.Kept) > 0 {
			log.Warn("generated output differs from the source, blocks kept in place", "keys", rep.Kept)
		}

		composed := rewrite.Compose(res.ResidualKeeping(kept), moved, *t.Rewrite)
		out := path
		if t.RewriteOutput != "" {
			out = resolve(r.root, expand(t.RewriteOutput, rel))
		}
		outcome, err := r.writer.Replace(ctx, out, extract.JoinLines(composed.Lines))
		if err != nil {
			rep.Err = fmt.Errorf("%w: %v", ErrFileAccess, err)
			log.Error("failed to rewrite source", "error", err)
			return rep
		}
		rep.Removed = composed.Removed
		rep.Rewritten = r.discovery.Rel(out)
		log.Debug("rewrote source", "output", rep.Rewritten, "outcome", outcome.String(), "removed_arms", len(composed.Removed))
	}

	log.Info("extracted",
		"keys", len(rep.Keys),
		"written", len(rep.Written),
		"skipped", len(rep.Skipped),
		"planned", len(rep.Planned),
		"anomalies", len(rep.Anomalies))
	return rep
}

func (r *Runner) write(ctx context.Context, rep *FileReport, a generate.Artifact) (generate.Outcome, error) {
	log := ctxlog.FromContext(ctx)
	outcome, err := r.writer.Write(ctx, a)
	rel := r.discovery.Rel(a.Path)
	if err != nil {
		rep.Err = fmt.Errorf("%w: %v", ErrFileAccess, err)
		log.Error("failed to write artifact", "path", rel, "error", err)
		return outcome, err
	}

	switch outcome {
	case generate.Written:
		rep.Written = append(rep.Written, rel)
	case generate.Skipped:
		rep.Skipped = append(rep.Skipped, rel)
		log.Warn("destination not empty, skipped", "path", rel)
	case generate.Planned:
		rep.Planned = append(rep.Planned, rel)
	}
	log.Debug("artifact", "path", rel, "key", a.Key, "outcome", outcome.String())
	return outcome, nil
}

// current reports whether a's destination holds a's content after a write
// with the given outcome.
func current(a generate.Artifact, outcome generate.Outcome) bool {
	if outcome != generate.Skipped {
		return true
	}
	existing, err := os.ReadFile(a.Path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(existing)) == strings.TrimSpace(a.Content)
}
