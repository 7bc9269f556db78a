package scan

import "strings"

// Split breaks an argument list into its top-level comma-separated segments.
// Commas nested inside (), {} or [] or inside a string literal are not split
// points. Segments are trimmed of surrounding whitespace. A trailing fragment
// after the last comma is kept as the final segment unless it is blank, so
// "a, b," yields two segments.
//
// Empty or blank input yields an empty (non-nil) slice.
func Split(args string) []string {
	out := []string{}
	if strings.TrimSpace(args) == "" {
		return out
	}

	var (
		depth    [3]int
		inString bool
		escaped  bool
		segStart int
	)

	for i := 0; i < len(args); i++ {
		ch := args[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case '(':
			depth[0]++
		case ')':
			depth[0]--
		case '{':
			depth[1]++
		case '}':
			depth[1]--
		case '[':
			depth[2]++
		case ']':
			depth[2]--
		case ',':
			if depth[0] == 0 && depth[1] == 0 && depth[2] == 0 {
				out = append(out, strings.TrimSpace(args[segStart:i]))
				segStart = i + 1
			}
		}
	}

	if tail := strings.TrimSpace(args[segStart:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

// SplitEnclosed splits the interior of the first balanced construct opened at
// or after start, e.g. the argument list of a call. ok is false when no
// balanced construct exists.
func SplitEnclosed(buf string, start int, p Pair) (args []string, ok bool) {
	span, ok := Enclosed(buf, start, p)
	if !ok {
		return nil, false
	}
	return Split(span.Text(buf)), true
}
