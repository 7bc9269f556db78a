package imports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mvp-joe/carve/internal/diagnostics"
	"github.com/mvp-joe/carve/internal/generate"
)

// Edit is every symbol reported for one line of one file.
type Edit struct {
	Line    int
	Symbols []string
}

// FileReport summarizes the edits applied to one file.
type FileReport struct {
	File    string
	Changed int
	Deleted int
	// Stale counts edits whose line no longer exists or no longer matched.
	Stale int
	Err   error
}

// Plan merges records by file and line. Files are returned sorted, edits in
// descending line order so applying them keeps earlier line numbers valid.
func Plan(records []diagnostics.Record) ([]string, map[string][]Edit) {
	byFile := make(map[string]map[int][]string)
	for _, r := range records {
		lines, ok := byFile[r.File]
		if !ok {
			lines = make(map[int][]string)
			byFile[r.File] = lines
		}
		lines[r.Line] = appendUnique(lines[r.Line], r.Symbols...)
	}

	files := make([]string, 0, len(byFile))
	plan := make(map[string][]Edit, len(byFile))
	for file, lines := range byFile {
		files = append(files, file)
		edits := make([]Edit, 0, len(lines))
		for ln, syms := range lines {
			edits = append(edits, Edit{Line: ln, Symbols: syms})
		}
		sort.Slice(edits, func(i, j int) bool { return edits[i].Line > edits[j].Line })
		plan[file] = edits
	}
	sort.Strings(files)
	return files, plan
}

// Fixer applies records to files under Root.
type Fixer struct {
	Root   string
	Writer *generate.Writer
}

// Apply fixes every file named by records. A failure on one file is recorded
// in its report and does not stop the others.
func (f *Fixer) Apply(ctx context.Context, records []diagnostics.Record) []FileReport {
	files, plan := Plan(records)
	reports := make([]FileReport, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			reports = append(reports, FileReport{File: file, Err: err})
			continue
		}
		reports = append(reports, f.applyFile(ctx, file, plan[file]))
	}
	return reports
}

func (f *Fixer) applyFile(ctx context.Context, file string, edits []Edit) FileReport {
	rep := FileReport{File: file}
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.Root, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		rep.Err = fmt.Errorf("failed to read %s: %w", path, err)
		return rep
	}
	lines := strings.Split(string(data), "\n")

	for _, e := range edits {
		if e.Line < 1 || e.Line > len(lines) {
			rep.Stale++
			continue
		}
		i := e.Line - 1
		fixed, action := FixLine(lines[i], e.Symbols)
		switch action {
		case Delete:
			lines = append(lines[:i], lines[i+1:]...)
			rep.Deleted++
		case Change:
			lines[i] = fixed
			rep.Changed++
		default:
			rep.Stale++
		}
	}

	if rep.Changed+rep.Deleted == 0 {
		return rep
	}
	w := f.Writer
	if w == nil {
		w = generate.NewWriter(false)
	}
	if _, err := w.Replace(ctx, path, strings.Join(lines, "\n")); err != nil {
		rep.Err = err
	}
	return rep
}

func appendUnique(list []string, items ...string) []string {
	for _, it := range items {
		dup := false
		for _, have := range list {
			if have == it {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, it)
		}
	}
	return list
}
