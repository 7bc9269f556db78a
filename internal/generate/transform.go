// Package generate turns extracted blocks into standalone source artifacts.
package generate

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultDefinition matches a function definition for {key}. The first
// group is the text the visibility qualifier is inserted after; the second
// is an existing visibility, which the qualifier replaces.
const DefaultDefinition = `^(\s*)(pub(?:\([^)]*\))?\s+)?(?:(?:async|unsafe|const)\s+|extern\s+"[^"]*"\s+)*fn\s+{key}\b`

// Indent is the indentation unit used for wrapped bodies and injected lines.
const Indent = "    "

// Unit names one generated artifact.
type Unit struct {
	// Key is the extraction key.
	Key string
	// Module is the artifact's module/file stem.
	Module string
	// Entry is the exported entry point defined by the artifact.
	Entry string
}

// Expand substitutes {key}, {module} and {entry} in s.
func (u Unit) Expand(s string) string {
	return strings.NewReplacer("{key}", u.Key, "{module}", u.Module, "{entry}", u.Entry).Replace(s)
}

// Epilogue guarantees a result-producing tail.
type Epilogue struct {
	// Produces reports whether a line already yields the block's result.
	Produces func(line string) bool
	// Text is appended before the closing delimiter when the last statement
	// does not produce a result. Empty disables injection.
	Text string
}

// Transform is the per-block rewrite applied before an artifact is written.
type Transform struct {
	// Publish inserts Qualifier into the first definition of the unit's key.
	Publish   bool
	Qualifier string
	// Definition is a regex template with a {key} placeholder.
	Definition string

	// Wrap, when set, replaces the block's own opening and closing lines with
	// this signature template and a closing brace. Used for match arms.
	Wrap string

	Epilogue Epilogue

	// Header lines are templates prepended to the body.
	Header []string
}

// Apply runs wrap, dedent, visibility, epilogue and header, in that order,
// over lines belonging to u.
func (t *Transform) Apply(u Unit, attrs, body []string) ([]string, error) {
	lines := make([]string, 0, len(attrs)+len(body)+2)
	lines = append(lines, attrs...)
	if t.Wrap != "" {
		lines = append(lines, wrap(body, u.Expand(t.Wrap))...)
	} else {
		lines = append(lines, body...)
	}

	lines = Dedent(lines)

	if t.Publish {
		var err error
		if lines, err = t.publish(u, lines); err != nil {
			return nil, err
		}
	}

	lines = InjectEpilogue(lines, t.Epilogue)

	out := make([]string, 0, len(t.Header)+len(lines))
	for _, h := range t.Header {
		out = append(out, u.Expand(h))
	}
	return append(out, lines...), nil
}

func (t *Transform) publish(u Unit, lines []string) ([]string, error) {
	tmpl := t.Definition
	if tmpl == "" {
		tmpl = DefaultDefinition
	}
	re, err := regexp.Compile(strings.ReplaceAll(tmpl, "{key}", regexp.QuoteMeta(u.Entry)))
	if err != nil {
		return nil, fmt.Errorf("definition pattern for %s: %w", u.Key, err)
	}
	return Publish(lines, re, t.Qualifier), nil
}

// Publish inserts qualifier into the first line matched by def. The
// insertion point is the end of def's first group, or the match start when
// def has no groups. When def's second group matched, that visibility is
// replaced instead. Later matches are left alone, as is a definition that
// already carries the qualifier.
func Publish(lines []string, def *regexp.Regexp, qualifier string) []string {
	q := strings.TrimSpace(qualifier)
	if q == "" {
		return lines
	}
	for i, line := range lines {
		if bare := strings.Replace(line, q+" ", "", 1); bare != line && def.MatchString(bare) {
			return lines
		}
		loc := def.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		if len(loc) >= 6 && loc[4] >= 0 {
			if strings.TrimSpace(line[loc[4]:loc[5]]) == q {
				return lines
			}
			out := append([]string(nil), lines...)
			out[i] = line[:loc[4]] + q + " " + line[loc[5]:]
			return out
		}
		at := loc[0]
		if len(loc) >= 4 && loc[3] >= 0 {
			at = loc[3]
		}
		out := append([]string(nil), lines...)
		out[i] = line[:at] + q + " " + line[at:]
		return out
	}
	return lines
}

// Dedent strips the common leading whitespace of all non-blank lines.
// Blank lines become empty.
func Dedent(lines []string) []string {
	width := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		w := len(l) - len(strings.TrimLeft(l, " \t"))
		if width < 0 || w < width {
			width = w
		}
	}

	out := make([]string, len(lines))
	for i, l := range lines {
		switch {
		case strings.TrimSpace(l) == "":
			out[i] = ""
		case width > 0:
			out[i] = l[width:]
		default:
			out[i] = l
		}
	}
	return out
}

// InjectEpilogue appends e.Text before the closing brace of the last line
// when the last statement does not produce a result. Applying it twice is the
// same as applying it once.
func InjectEpilogue(lines []string, e Epilogue) []string {
	text := strings.TrimSpace(e.Text)
	if text == "" {
		return lines
	}
	produces := func(stmt string) bool {
		s := strings.TrimSpace(stmt)
		if s == "" || strings.HasSuffix(s, "{") {
			return false
		}
		return s == text || (e.Produces != nil && e.Produces(stmt))
	}

	last := lastNonBlank(lines, len(lines))
	if last < 0 {
		return lines
	}
	closeAt := strings.LastIndexByte(lines[last], '}')
	if closeAt < 0 {
		return lines
	}
	closing := lines[last]
	closingIndent := leading(closing)
	before := closing[:closeAt]

	out := append([]string(nil), lines[:last]...)

	if strings.TrimSpace(before) == "" {
		// The closing brace sits on its own line.
		prev := lastNonBlank(lines, last)
		if prev >= 0 && produces(lines[prev]) {
			return lines
		}
		indent := closingIndent + Indent
		if prev >= 0 && !strings.HasSuffix(strings.TrimSpace(lines[prev]), "{") {
			indent = leading(lines[prev])
		}
		out = append(out, indent+text)
		return append(out, lines[last:]...)
	}

	// Statement and closing brace share a line, e.g. "fn f() { g(); }".
	stmt := before
	if open := strings.LastIndexByte(before, '{'); open >= 0 {
		stmt = before[open+1:]
	}
	if produces(stmt) {
		return lines
	}
	out = append(out,
		strings.TrimRight(before, " \t"),
		closingIndent+Indent+text,
		closingIndent+closing[closeAt:],
	)
	return append(out, lines[last+1:]...)
}

// wrap replaces the opening line of body (up to and including its first
// brace) with signature and the closing brace with a bare "}". Interior lines
// are re-indented one level.
func wrap(body []string, signature string) []string {
	if len(body) == 0 {
		return body
	}

	var interior []string
	first := body[0]
	open := strings.IndexByte(first, '{')
	lastIdx := len(body) - 1
	for lastIdx > 0 && strings.TrimSpace(body[lastIdx]) == "" {
		lastIdx--
	}

	if lastIdx == 0 {
		// "key" => { stmt }
		rest := first[open+1:]
		if c := strings.LastIndexByte(rest, '}'); c >= 0 {
			rest = rest[:c]
		}
		if strings.TrimSpace(rest) != "" {
			interior = append(interior, strings.TrimSpace(rest))
		}
	} else {
		if open >= 0 {
			if rest := strings.TrimSpace(first[open+1:]); rest != "" {
				interior = append(interior, rest)
			}
		}
		interior = append(interior, body[1:lastIdx]...)
		closing := body[lastIdx]
		if c := strings.LastIndexByte(closing, '}'); c >= 0 {
			if rest := closing[:c]; strings.TrimSpace(rest) != "" {
				interior = append(interior, rest)
			}
		}
	}

	out := []string{signature}
	for _, l := range Dedent(interior) {
		if l == "" {
			out = append(out, l)
			continue
		}
		out = append(out, Indent+l)
	}
	return append(out, "}")
}

func lastNonBlank(lines []string, before int) int {
	for i := before - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return i
		}
	}
	return -1
}

func leading(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}
