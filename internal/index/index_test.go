package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mvp-joe/carve/internal/generate"
)

// Test Plan for index:
// - Every unit is declared as a sub-module in encounter order
// - Reexport exposes each entry point under its module
// - A dispatch table routes known keys to their entry point and anything else to the fallback
// - The rendered dispatch always ends with a fallback arm
// - Keys captured from string literals are emitted without re-escaping
// - Declares spots units an existing index already reaches

var units = []generate.Unit{
	{Key: "GetACP", Module: "get_acp", Entry: "GetACP"},
	{Key: "VirtualAlloc", Module: "virtual_alloc", Entry: "VirtualAlloc"},
}

func TestRender_ModulesAndReexports(t *testing.T) {
	t.Parallel()

	got := Render(units, Options{Header: []string{"use crate::emu;"}, Reexport: true})
	want := strings.Join([]string{
		"use crate::emu;",
		"",
		"pub mod get_acp;",
		"pub mod virtual_alloc;",
		"",
		"pub use get_acp::GetACP;",
		"pub use virtual_alloc::VirtualAlloc;",
	}, "\n") + "\n"
	assert.Equal(t, want, got)

	// Test: no reexports requested
	assert.Equal(t, "pub mod get_acp;\npub mod virtual_alloc;\n", Render(units, Options{}))
}

func TestTable_Route(t *testing.T) {
	t.Parallel()

	table := NewTable([]generate.Unit{
		{Key: "A", Module: "a", Entry: "run_a"},
		{Key: "B", Module: "b", Entry: "run_b"},
		{Key: "A", Module: "a_2", Entry: "run_a_2"},
	})

	entry, ok := table.Route("A")
	assert.True(t, ok)
	assert.Equal(t, "run_a", entry)

	entry, ok = table.Route("B")
	assert.True(t, ok)
	assert.Equal(t, "run_b", entry)

	for _, other := range []string{"C", "", "a"} {
		entry, ok = table.Route(other)
		assert.False(t, ok)
		assert.Equal(t, FallbackArm, entry)
	}
	assert.Equal(t, []string{"A", "B"}, table.Keys())
}

func TestTable_Render(t *testing.T) {
	t.Parallel()

	d := Dispatch{
		Signature:    "pub fn gateway(addr: u64, emu: &mut emu::Emu) -> String {",
		Discriminant: "api.as_str()",
		Args:         "emu",
		Fallback: []string{
			`log::warn!("calling unimplemented API {}", api);`,
			"return api;",
		},
		Tail: []string{"String::new()"},
	}
	got := NewTable(units).Render(d)
	assert.Equal(t, []string{
		"pub fn gateway(addr: u64, emu: &mut emu::Emu) -> String {",
		"    match api.as_str() {",
		`        "GetACP" => GetACP(emu),`,
		`        "VirtualAlloc" => VirtualAlloc(emu),`,
		"        _ => {",
		`            log::warn!("calling unimplemented API {}", api);`,
		"            return api;",
		"        }",
		"    }",
		"",
		"    String::new()",
		"}",
	}, got)

	// Test: an empty table still renders a total match
	empty := NewTable(nil).Render(Dispatch{Signature: "fn d(x: &str) {", Discriminant: "x"})
	assert.Equal(t, []string{"fn d(x: &str) {", "    match x {", "        _ => {}", "    }", "}"}, empty)
}

func TestTable_RenderKeepsLiteralKeys(t *testing.T) {
	t.Parallel()

	table := NewTable([]generate.Unit{{Key: `a\"b`, Module: "a_b", Entry: "a_b"}, {Key: `tab\t`, Module: "tab_t", Entry: "tab_t"}})
	got := table.Render(Dispatch{Signature: "fn d(x: &str) {", Discriminant: "x", Args: "x"})

	assert.Equal(t, `        "a\"b" => a_b(x),`, got[2])
	assert.Equal(t, `        "tab\t" => tab_t(x),`, got[3])
}

func TestDeclares(t *testing.T) {
	t.Parallel()

	existing := Render(units[:1], Options{Dispatch: &Dispatch{Signature: "fn d(x: &str) {", Discriminant: "x"}})

	// Test: a declared and routed unit is reached
	assert.True(t, Declares(existing, units[0], Options{Dispatch: &Dispatch{}}))
	// Test: a unit the index never declared is not
	assert.False(t, Declares(existing, units[1], Options{}))

	// Test: without dispatch only the module declaration matters
	assert.True(t, Declares("pub mod virtual_alloc;\n", units[1], Options{}))
	assert.False(t, Declares("pub mod virtual_alloc;\n", units[1], Options{Dispatch: &Dispatch{}}))
}
