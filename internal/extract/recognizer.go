package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Recognizer decides whether a line starts a block and which keys it declares.
type Recognizer interface {
	Recognize(line string) (keys []string, ok bool)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(line string) ([]string, bool)

func (f RecognizerFunc) Recognize(line string) ([]string, bool) { return f(line) }

// Built-in recognizer kinds.
const (
	KindFunction = "function"
	KindMatchArm = "match_arm"
	KindPattern  = "pattern"
)

var (
	// Top-level function definitions only: the line must start at column 0 so
	// nested helpers and closures stay inside their parent.
	functionRe = regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?(?:(?:async|unsafe|const)\s+|extern\s+"[^"]*"\s+)*fn\s+([A-Za-z_][A-Za-z0-9_]*)`)

	// "A" | "B" => {
	matchArmRe  = regexp.MustCompile(`^\s*((?:"(?:[^"\\]|\\.)*"\s*\|\s*)*"(?:[^"\\]|\\.)*")\s*=>\s*\{`)
	quotedKeyRe = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
)

// Functions recognizes top-level function definitions keyed by name.
func Functions() Recognizer {
	return Pattern(functionRe)
}

// MatchArms recognizes string-keyed match arms that open a braced body. An
// arm with alternatives declares one key per alternative.
func MatchArms() Recognizer {
	return RecognizerFunc(func(line string) ([]string, bool) {
		m := matchArmRe.FindStringSubmatch(line)
		if m == nil {
			return nil, false
		}
		var keys []string
		for _, q := range quotedKeyRe.FindAllStringSubmatch(m[1], -1) {
			keys = append(keys, q[1])
		}
		return keys, len(keys) > 0
	})
}

// Pattern recognizes lines matching re; the keys are its non-empty capture
// groups, or the whole match when re has no groups.
func Pattern(re *regexp.Regexp) Recognizer {
	return RecognizerFunc(func(line string) ([]string, bool) {
		m := re.FindStringSubmatch(line)
		if m == nil {
			return nil, false
		}
		if len(m) == 1 {
			return []string{strings.TrimSpace(m[0])}, m[0] != ""
		}
		var keys []string
		for _, g := range m[1:] {
			if g != "" {
				keys = append(keys, g)
			}
		}
		return keys, len(keys) > 0
	})
}

// ForKind builds a built-in recognizer. pattern is only used by KindPattern.
func ForKind(kind, pattern string) (Recognizer, error) {
	switch kind {
	case "", KindFunction:
		return Functions(), nil
	case KindMatchArm:
		return MatchArms(), nil
	case KindPattern:
		if pattern == "" {
			return nil, fmt.Errorf("kind %q requires a pattern", kind)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid start pattern: %w", err)
		}
		return Pattern(re), nil
	}
	return nil, fmt.Errorf("unknown recognizer kind %q", kind)
}

// LineMatcher returns a predicate matching lines against pattern. An empty
// pattern yields nil, which disables the corresponding option.
func LineMatcher(pattern string) (func(string) bool, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return re.MatchString, nil
}

// AnyAttribute returns a RequireAttribute gate accepting attribute lists that
// contain at least one line matching pattern.
func AnyAttribute(pattern string) (func([]string) bool, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return func(attrs []string) bool {
		for _, a := range attrs {
			if re.MatchString(a) {
				return true
			}
		}
		return false
	}, nil
}

// KindOptions builds Options for a built-in recognizer kind with an optional
// attribute pattern.
func KindOptions(kind, pattern, attribute string) (Options, error) {
	rec, err := ForKind(kind, pattern)
	if err != nil {
		return Options{}, err
	}
	attr, err := LineMatcher(attribute)
	if err != nil {
		return Options{}, fmt.Errorf("invalid attribute pattern: %w", err)
	}
	return Options{Recognizer: rec, Attribute: attr}, nil
}
