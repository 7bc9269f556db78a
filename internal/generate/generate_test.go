package generate

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/carve/internal/extract"
	"github.com/mvp-joe/carve/internal/naming"
)

// Test Plan for generate:
// - Dedent strips the common indentation and empties blank lines
// - Publish qualifies only the first definition and is idempotent
// - Publish replaces a restricted visibility such as pub(crate)
// - A block without a result tail gets exactly one epilogue; a well-formed one gets none
// - Match arms are wrapped into standalone functions
// - Header templates are expanded and prepended
// - Module names collide-proof and avoid reserved words
// - Writer never clobbers existing content; second runs skip, dry runs plan

func resultProducer(t *testing.T) Epilogue {
	t.Helper()
	re := regexp.MustCompile(`^\s*(Ok|Err)\(`)
	return Epilogue{Produces: re.MatchString, Text: "Ok(())"}
}

func TestDedent(t *testing.T) {
	t.Parallel()

	got := Dedent([]string{"    a", "      b", "  ", "    c"})
	assert.Equal(t, []string{"a", "  b", "", "c"}, got)

	// Test: unindented input is returned as-is
	assert.Equal(t, []string{"x", " y"}, Dedent([]string{"x", " y"}))
}

func TestPublish(t *testing.T) {
	t.Parallel()

	def := regexp.MustCompile(strings.ReplaceAll(DefaultDefinition, "{key}", "foo"))
	lines := []string{"fn foo() {", "}", "fn foo() {", "}"}

	once := Publish(lines, def, "pub ")
	assert.Equal(t, "pub fn foo() {", once[0])
	assert.Equal(t, "fn foo() {", once[2], "only the first definition is qualified")

	// Test: a second pass changes nothing
	assert.Equal(t, once, Publish(once, def, "pub "))

	// Test: qualifiers land after leading whitespace, before modifiers
	got := Publish([]string{`  extern "C" fn foo() {}`}, def, "pub")
	assert.Equal(t, []string{`  pub extern "C" fn foo() {}`}, got)

	// Test: a restricted visibility is replaced by the qualifier
	got = Publish([]string{"pub(crate) fn foo() {}", "pub(super) unsafe fn foo() {}"}, def, "pub ")
	assert.Equal(t, []string{"pub fn foo() {}", "pub(super) unsafe fn foo() {}"}, got)
	got = Publish([]string{"pub(in crate::a) unsafe fn foo() {}"}, def, "pub ")
	assert.Equal(t, []string{"pub unsafe fn foo() {}"}, got)

	// Test: an unrelated name is left alone
	assert.Equal(t, []string{"fn foobar() {}"}, Publish([]string{"fn foobar() {}"}, def, "pub "))
}

func TestInjectEpilogue(t *testing.T) {
	t.Parallel()
	e := resultProducer(t)

	t.Run("missing result gets exactly one", func(t *testing.T) {
		t.Parallel()
		in := []string{"fn f(emu: &mut Emu) {", "    emu.x();", "}"}
		out := InjectEpilogue(in, e)
		assert.Equal(t, []string{"fn f(emu: &mut Emu) {", "    emu.x();", "    Ok(())", "}"}, out)
		assert.Equal(t, out, InjectEpilogue(out, e))
	})

	t.Run("well-formed block is untouched", func(t *testing.T) {
		t.Parallel()
		in := []string{"fn f() {", "    Err(e)", "}"}
		assert.Equal(t, in, InjectEpilogue(in, e))
	})

	t.Run("statement shares the closing line", func(t *testing.T) {
		t.Parallel()
		out := InjectEpilogue([]string{"fn f() { g(); }"}, e)
		assert.Equal(t, []string{"fn f() { g();", "    Ok(())", "}"}, out)
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		out := InjectEpilogue([]string{"fn f() {}"}, e)
		assert.Equal(t, []string{"fn f() {", "    Ok(())", "}"}, out)
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		in := []string{"fn f() {}"}
		assert.Equal(t, in, InjectEpilogue(in, Epilogue{}))
	})
}

func TestGenerator_Functions(t *testing.T) {
	t.Parallel()

	src := "use crate::emu;\n#[allow(non_snake_case)]\nfn GetACP(emu: &mut emu::Emu) {\n    emu.regs_mut().rax = 1252;\n}"
	attr, err := extract.LineMatcher(`^\s*#\[`)
	require.NoError(t, err)
	res, err := extract.ExtractText(src, extract.Options{Recognizer: extract.Functions(), Attribute: attr})
	require.NoError(t, err)

	g := &Generator{
		Dir:    "out",
		Casing: naming.Snake,
		Transform: Transform{
			Publish:   true,
			Qualifier: "pub ",
			Header:    []string{"// {key} -> {module}", "use crate::emu;", ""},
		},
	}
	artifacts, units, err := g.Artifacts(res)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)

	assert.Equal(t, Unit{Key: "GetACP", Module: "get_acp", Entry: "GetACP"}, units[0])
	assert.Equal(t, filepath.Join("out", "get_acp.rs"), artifacts[0].Path)
	assert.Equal(t, strings.Join([]string{
		"// GetACP -> get_acp",
		"use crate::emu;",
		"",
		"#[allow(non_snake_case)]",
		"pub fn GetACP(emu: &mut emu::Emu) {",
		"    emu.regs_mut().rax = 1252;",
		"}",
	}, "\n")+"\n", artifacts[0].Content)
}

func TestGenerator_WrapsMatchArms(t *testing.T) {
	t.Parallel()

	src := "match name {\n    \"mov\" => {\n        emu.mov(ins);\n    }\n    \"nop\" => {}\n    _ => {}\n}"
	res, err := extract.ExtractText(src, extract.Options{Recognizer: extract.MatchArms()})
	require.NoError(t, err)

	g := &Generator{
		Casing: naming.Snake,
		Transform: Transform{
			Wrap:     "pub fn {entry}(emu: &mut emu::Emu, ins: &Instruction) {",
			Epilogue: Epilogue{Text: "true"},
		},
	}
	artifacts, units, err := g.Artifacts(res)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)

	assert.Equal(t, "mov", units[0].Entry)
	assert.Equal(t, "pub fn mov(emu: &mut emu::Emu, ins: &Instruction) {\n    emu.mov(ins);\n    true\n}\n", artifacts[0].Content)
	assert.Equal(t, "pub fn nop(emu: &mut emu::Emu, ins: &Instruction) {\n    true\n}\n", artifacts[1].Content)
}

func TestGenerator_ModuleNames(t *testing.T) {
	t.Parallel()

	res, err := extract.ExtractText("fn GetACP() {}\nfn getACP() {}\nfn loop() {}", extract.Options{Recognizer: extract.Functions()})
	require.NoError(t, err)

	g := &Generator{Casing: naming.Lower, Extension: ".rs"}
	_, units, err := g.Artifacts(res)
	require.NoError(t, err)
	require.Len(t, units, 3)

	assert.Equal(t, "getacp", units[0].Module)
	assert.Equal(t, "getacp_2", units[1].Module)
	assert.Equal(t, "loop_", units[2].Module)
	assert.Equal(t, "_3d", identifier("3d"))

	// Test: a suffixed name never reuses a module another key already has
	res, err = extract.ExtractText("fn A() {}\nfn a() {}\nfn a_2() {}", extract.Options{Recognizer: extract.Functions()})
	require.NoError(t, err)
	artifacts, units, err := (&Generator{Dir: "out", Casing: naming.Snake}).Artifacts(res)
	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Equal(t, []string{"a", "a_3", "a_2"}, []string{units[0].Module, units[1].Module, units[2].Module})
	assert.Equal(t, filepath.Join("out", "a_3.rs"), artifacts[1].Path)
	assert.Equal(t, filepath.Join("out", "a_2.rs"), artifacts[2].Path)
	assert.Equal(t, "a_b", identifier("a-b"))
}

func TestWriter_NoClobber(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "get_acp.rs")

	w := NewWriter(false)
	got, err := w.Write(ctx, Artifact{Key: "GetACP", Path: path, Content: "first\n"})
	require.NoError(t, err)
	assert.Equal(t, Written, got)

	// Test: second run sees existing content and performs no write
	got, err = w.Write(ctx, Artifact{Key: "GetACP", Path: path, Content: "second\n"})
	require.NoError(t, err)
	assert.Equal(t, Skipped, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(data))

	// Test: a whitespace-only destination counts as empty
	blank := filepath.Join(dir, "blank.rs")
	require.NoError(t, os.WriteFile(blank, []byte(" \n\n"), 0o644))
	got, err = w.Write(ctx, Artifact{Path: blank, Content: "x\n"})
	require.NoError(t, err)
	assert.Equal(t, Written, got)

	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriter_DryRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "x.rs")

	w := NewWriter(true)
	got, err := w.Write(ctx, Artifact{Path: path, Content: "x\n"})
	require.NoError(t, err)
	assert.Equal(t, Planned, got)

	got, err = w.Replace(ctx, path, "y\n")
	require.NoError(t, err)
	assert.Equal(t, Planned, got)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWriter_Replace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mod.rs")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	got, err := NewWriter(false).Replace(ctx, path, "new\n")
	require.NoError(t, err)
	assert.Equal(t, Written, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewWriter(false).Replace(cancelled, path, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "written", Written.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "planned", Planned.String())
}
