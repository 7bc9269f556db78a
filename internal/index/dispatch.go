package index

import (
	"strings"

	"github.com/mvp-joe/carve/internal/generate"
)

// FallbackArm is the pattern of the catch-all arm every dispatch ends with.
const FallbackArm = "_"

// Dispatch describes the generated dispatch function.
type Dispatch struct {
	// Signature is the function's opening line, including the brace.
	Signature string
	// Discriminant is the expression matched against the unit keys.
	Discriminant string
	// Args is the argument list passed to each entry point.
	Args string
	// Fallback lines run for any discriminant without a unit.
	Fallback []string
	// Tail lines follow the match inside the function.
	Tail []string
}

// Table maps discriminant values to entry points. Lookups never fail: keys
// without a unit route to the fallback arm.
type Table struct {
	order  []string
	routes map[string]string
}

// NewTable builds a table from units. The first unit claiming a key wins.
func NewTable(units []generate.Unit) *Table {
	t := &Table{routes: make(map[string]string, len(units))}
	for _, u := range units {
		if _, dup := t.routes[u.Key]; dup {
			continue
		}
		t.routes[u.Key] = u.Entry
		t.order = append(t.order, u.Key)
	}
	return t
}

// Route returns the entry point for discriminant, or FallbackArm and false.
func (t *Table) Route(discriminant string) (string, bool) {
	if entry, ok := t.routes[discriminant]; ok {
		return entry, true
	}
	return FallbackArm, false
}

// Keys returns the routed keys in encounter order.
func (t *Table) Keys() []string {
	return append([]string(nil), t.order...)
}

// Render emits the dispatch function as source lines.
func (t *Table) Render(d Dispatch) []string {
	in := generate.Indent
	lines := []string{d.Signature, in + "match " + d.Discriminant + " {"}

	for _, key := range t.order {
		lines = append(lines, in+in+ArmPattern(key)+" => "+t.routes[key]+"("+d.Args+"),")
	}

	if len(d.Fallback) == 0 {
		lines = append(lines, in+in+FallbackArm+" => {}")
	} else {
		lines = append(lines, in+in+FallbackArm+" => {")
		for _, l := range generate.Dedent(d.Fallback) {
			lines = append(lines, indented(in+in+in, l))
		}
		lines = append(lines, in+in+"}")
	}
	lines = append(lines, in+"}")

	if len(d.Tail) > 0 {
		lines = append(lines, "")
		for _, l := range generate.Dedent(d.Tail) {
			lines = append(lines, indented(in, l))
		}
	}
	return append(lines, "}")
}

// ArmPattern is the string literal matching key. Keys are kept as captured
// from source literals, escapes included, so they are not escaped again.
func ArmPattern(key string) string {
	return `"` + key + `"`
}

func indented(prefix, line string) string {
	if strings.TrimSpace(line) == "" {
		return ""
	}
	return prefix + line
}
