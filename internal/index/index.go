// Package index renders the module index that declares generated units and,
// optionally, a dispatch function routing a runtime discriminant to them.
package index

import (
	"strings"

	"github.com/mvp-joe/carve/internal/generate"
)

// Options controls what the index contains besides the module declarations.
type Options struct {
	// Header lines are emitted first, verbatim.
	Header []string
	// Reexport adds a `pub use module::Entry;` line per unit.
	Reexport bool
	// Dispatch, when set, appends a dispatch function over every unit.
	Dispatch *Dispatch
}

// Render returns the index text for units in encounter order.
func Render(units []generate.Unit, opts Options) string {
	var lines []string
	lines = append(lines, opts.Header...)
	if len(opts.Header) > 0 && strings.TrimSpace(opts.Header[len(opts.Header)-1]) != "" {
		lines = append(lines, "")
	}

	for _, u := range units {
		lines = append(lines, "pub mod "+u.Module+";")
	}

	if opts.Reexport && len(units) > 0 {
		lines = append(lines, "")
		for _, u := range units {
			lines = append(lines, "pub use "+u.Module+"::"+u.Entry+";")
		}
	}

	if opts.Dispatch != nil {
		lines = append(lines, "")
		lines = append(lines, NewTable(units).Render(*opts.Dispatch)...)
	}

	return strings.Join(lines, "\n") + "\n"
}

// Declares reports whether an existing index text already declares u, and
// routes its key when opts has a dispatch.
func Declares(existing string, u generate.Unit, opts Options) bool {
	var declared, routed bool
	routed = opts.Dispatch == nil
	for _, line := range strings.Split(existing, "\n") {
		l := strings.TrimSpace(line)
		if l == "pub mod "+u.Module+";" || l == "mod "+u.Module+";" {
			declared = true
		}
		if !routed && strings.HasPrefix(l, ArmPattern(u.Key)) && strings.Contains(l, "=>") {
			routed = true
		}
	}
	return declared && routed
}
