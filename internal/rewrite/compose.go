// Package rewrite composes the replacement for an original source file from
// its extraction residual.
package rewrite

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/carve/internal/scan"
)

// armRe matches a dispatch arm `"KEY" => path::entry(`. Group 1 is the key,
// group 2 the entry's last path segment.
var armRe = regexp.MustCompile(`^\s*"((?:[^"\\]|\\.)+)"\s*=>\s*(?:[A-Za-z_]\w*::)*([A-Za-z_]\w*)\s*\(`)

// Options controls composition.
type Options struct {
	// Wiring lines reference the generated index. They are inserted once,
	// after any leading inner attributes and module docs.
	Wiring []string
	// RemoveArms deletes residual dispatch arms whose key and entry point
	// were both extracted.
	RemoveArms bool
}

// Result is the composed file.
type Result struct {
	Lines []string
	// Removed lists the keys of deleted arms in file order.
	Removed []string
	// Wired reports whether wiring lines were inserted.
	Wired bool
}

// Compose rewrites residual. keys are the extracted keys; every line not
// touched by wiring or arm removal is kept in order.
func Compose(residual []string, keys []string, opts Options) Result {
	var res Result
	lines := residual

	if opts.RemoveArms && len(keys) > 0 {
		lines, res.Removed = removeArms(lines, keys)
	}

	if len(opts.Wiring) > 0 && !wired(lines, opts.Wiring) {
		lines = insertWiring(lines, opts.Wiring)
		res.Wired = true
	}

	res.Lines = lines
	return res
}

func removeArms(lines, keys []string) ([]string, []string) {
	extracted := make(map[string]bool, len(keys))
	for _, k := range keys {
		extracted[k] = true
	}

	var (
		out     = make([]string, 0, len(lines))
		removed []string
	)
	for i := 0; i < len(lines); i++ {
		m := armRe.FindStringSubmatchIndex(lines[i])
		if m == nil {
			out = append(out, lines[i])
			continue
		}
		key := lines[i][m[2]:m[3]]
		entry := lines[i][m[4]:m[5]]
		if !extracted[key] || !extracted[entry] {
			out = append(out, lines[i])
			continue
		}

		end, ok := argsEnd(lines, i, m[1]-1)
		if !ok {
			out = append(out, lines[i])
			continue
		}
		removed = append(removed, key)
		i = end
	}
	return out, removed
}

// argsEnd returns the index of the line closing the argument list opened at
// lines[start][col].
func argsEnd(lines []string, start, col int) (int, bool) {
	t := scan.NewTracker(scan.Parens)
	t.Feed(lines[start][col:])
	for j := start; ; {
		if t.Closed() {
			return j, true
		}
		j++
		if j >= len(lines) {
			return 0, false
		}
		t.Feed(lines[j])
	}
}

func wired(lines, wiring []string) bool {
	present := make(map[string]bool, len(lines))
	for _, l := range lines {
		present[strings.TrimSpace(l)] = true
	}
	for _, w := range wiring {
		if w = strings.TrimSpace(w); w != "" && !present[w] {
			return false
		}
	}
	return true
}

func insertWiring(lines, wiring []string) []string {
	at := 0
	for at < len(lines) {
		l := strings.TrimSpace(lines[at])
		if !strings.HasPrefix(l, "#![") && !strings.HasPrefix(l, "//!") {
			break
		}
		at++
	}

	out := make([]string, 0, len(lines)+len(wiring))
	out = append(out, lines[:at]...)
	out = append(out, wiring...)
	return append(out, lines[at:]...)
}
