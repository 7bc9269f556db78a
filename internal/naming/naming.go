// Package naming maps extraction keys to generated unit names.
package naming

import (
	"fmt"
	"strings"
	"unicode"
)

// Casing selects how a key is turned into a module (file) name.
type Casing string

const (
	// Snake converts CamelCase keys: GetLocaleInfoW -> get_locale_info_w.
	Snake Casing = "snake"
	// Lower lowercases the key without inserting separators.
	Lower Casing = "lower"
	// Keep uses the key unchanged.
	Keep Casing = "keep"
)

// ParseCasing validates a casing name. The empty string selects Snake.
func ParseCasing(s string) (Casing, error) {
	switch Casing(strings.ToLower(strings.TrimSpace(s))) {
	case "", Snake:
		return Snake, nil
	case Lower:
		return Lower, nil
	case Keep:
		return Keep, nil
	}
	return "", fmt.Errorf("unknown casing %q", s)
}

// Apply converts key according to c.
func (c Casing) Apply(key string) string {
	switch c {
	case Lower:
		return strings.ToLower(key)
	case Keep:
		return key
	default:
		return ToSnake(key)
	}
}

// ToSnake converts an identifier to snake_case. Acronym runs stay together
// (GetACP -> get_acp, GetCPInfo -> get_cp_info) and a digit run followed by an
// upper-case letter starts a new word (Toolhelp32Snapshot -> toolhelp32_snapshot).
// Existing underscores are kept and never doubled.
func ToSnake(key string) string {
	runes := []rune(key)
	var b strings.Builder
	b.Grow(len(key) + 4)

	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			boundary := unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && nextLower)
			if boundary && prev != '_' {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
