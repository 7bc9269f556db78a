// Package imports removes unused `use` items reported by the build tool.
package imports

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/carve/internal/scan"
)

// Action is what FixLine decided for a line.
type Action int

const (
	// Keep leaves the line as it was.
	Keep Action = iota
	// Change replaces the line with a shorter list.
	Change
	// Delete removes the line.
	Delete
)

var (
	useRe      = regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?use\s`)
	plainUseRe = regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?use\s+([^;{}]+?)\s*;\s*$`)
	listItemRe = regexp.MustCompile(`^\s*((?:::)?[A-Za-z_][\w:]*(?:\s+as\s+\w+)?)\s*,?\s*$`)
)

// FixLine removes symbols from one source line. Braced lists lose their
// matching items and are deleted once empty; a plain use of a symbol is
// deleted; a lone item of a multi-line list is deleted when it matches.
func FixLine(line string, symbols []string) (string, Action) {
	if useRe.MatchString(line) {
		if open := strings.IndexByte(line, '{'); open >= 0 {
			return fixBraced(line, open, symbols)
		}
		if m := plainUseRe.FindStringSubmatch(line); m != nil && matchesAny(m[1], symbols) {
			return "", Delete
		}
		return line, Keep
	}

	if m := listItemRe.FindStringSubmatch(line); m != nil && matchesAny(m[1], symbols) {
		return "", Delete
	}
	return line, Keep
}

func fixBraced(line string, open int, symbols []string) (string, Action) {
	inner, ok := scan.Enclosed(line, open, scan.Braces)
	if !ok {
		// The list continues on later lines; each item is reported on its own.
		return line, Keep
	}

	items := scan.Split(inner.Text(line))
	kept, changed := filter(items, symbols)
	if !changed {
		return line, Keep
	}
	if len(kept) == 0 {
		return "", Delete
	}
	return line[:inner.Start] + strings.Join(kept, ", ") + line[inner.End:], Change
}

// filter drops matching items, descending into nested lists.
func filter(items, symbols []string) ([]string, bool) {
	kept := make([]string, 0, len(items))
	changed := false
	for _, item := range items {
		if open := strings.IndexByte(item, '{'); open >= 0 {
			inner, ok := scan.Enclosed(item, open, scan.Braces)
			if ok {
				sub, subChanged := filter(scan.Split(inner.Text(item)), symbols)
				if subChanged {
					changed = true
					if len(sub) == 0 {
						continue
					}
					item = item[:inner.Start] + strings.Join(sub, ", ") + item[inner.End:]
				}
			}
			kept = append(kept, item)
			continue
		}
		if matchesAny(item, symbols) {
			changed = true
			continue
		}
		kept = append(kept, item)
	}
	return kept, changed
}

func matchesAny(item string, symbols []string) bool {
	for _, s := range symbols {
		if matches(item, s) {
			return true
		}
	}
	return false
}

// matches reports whether a use item refers to symbol. Either may be a path
// suffix of the other, and an alias matches its own name.
func matches(item, symbol string) bool {
	item = strings.TrimSpace(item)
	symbol = strings.TrimSpace(symbol)
	if item == "" || symbol == "" {
		return false
	}
	if item == symbol {
		return true
	}

	path, alias := item, ""
	if i := strings.Index(item, " as "); i >= 0 {
		path, alias = strings.TrimSpace(item[:i]), strings.TrimSpace(item[i+4:])
	}
	path = strings.TrimPrefix(path, "::")
	symbol = strings.TrimPrefix(symbol, "::")

	return path == symbol || alias == symbol ||
		strings.HasSuffix(path, "::"+symbol) ||
		strings.HasSuffix(symbol, "::"+path)
}
