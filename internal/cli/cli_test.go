package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/carve/internal/config"
	"github.com/mvp-joe/carve/internal/runner"
)

// Test Plan for the CLI commands:
// - Every subcommand is registered on the root command
// - extract splits a configured source and a dry run writes nothing
// - extract refuses to run without targets
// - imports fixes files named by a diagnostics stream and reports failures
// - list prints keys with line ranges and anomalies
// - The progress reporter prints totals and stays silent when quiet
// - formatNumber inserts thousands separators
// - watch mode derives extensions from sources and re-extracts on change

const gatewaySource = `use crate::emu;

fn GetACP(emu: &mut emu::Emu) {
    emu.regs_mut().rax = 1252;
}

fn Sleep(emu: &mut emu::Emu) {
    emu.sleep();
}
`

const carveConfig = `targets:
  - name: kernel32
    source: src/kernel32.rs
    dest: "{dir}/{stem}_gen"
    header:
      - "use crate::emu;"
      - ""
`

func setupProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, config.Dir), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "kernel32.rs"), []byte(gatewaySource), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, config.Dir, "config.yml"), []byte(carveConfig), 0644))
	return root
}

func TestCommands_AreRegistered(t *testing.T) {
	t.Parallel()

	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"extract", "imports", "list", "mcp", "version"} {
		assert.True(t, names[want], "%s command should be registered", want)
	}
}

func TestExecuteExtract(t *testing.T) {
	t.Parallel()
	root := setupProject(t)

	cfg, err := loadConfig(root, "")
	require.NoError(t, err)

	summary, err := executeExtract(context.Background(), root, cfg, false, &runner.NoOpProgressReporter{})
	require.NoError(t, err)
	assert.Equal(t, 0, failedCount(summary))

	// Test: each function became its own file next to an index
	gen := filepath.Join(root, "src", "kernel32_gen")
	for _, name := range []string{"get_acp.rs", "sleep.rs", "mod.rs"} {
		assert.FileExists(t, filepath.Join(gen, name))
	}
	data, err := os.ReadFile(filepath.Join(gen, "get_acp.rs"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "pub fn GetACP(emu: &mut emu::Emu) {")
}

func TestExecuteExtract_DryRun(t *testing.T) {
	t.Parallel()
	root := setupProject(t)

	cfg, err := loadConfig(root, "")
	require.NoError(t, err)

	summary, err := executeExtract(context.Background(), root, cfg, true, &runner.NoOpProgressReporter{})
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(root, "src", "kernel32_gen"))

	var out bytes.Buffer
	printPlan(&out, summary)
	assert.Contains(t, out.String(), "would write ")
	assert.Contains(t, out.String(), "get_acp.rs")
}

func TestExecuteExtract_NoTargets(t *testing.T) {
	t.Parallel()

	_, err := executeExtract(context.Background(), t.TempDir(), config.Default(), false, &runner.NoOpProgressReporter{})
	assert.ErrorIs(t, err, config.ErrNoTargets)
}

func TestExecuteImports(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	src := "use std::time::{SystemTime, UNIX_EPOCH};\nuse std::sync::Mutex;\n\nfn main() {}\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.rs"), []byte(src), 0644))

	stream := strings.Join([]string{
		"warning: unused import: `SystemTime`",
		" --> main.rs:1:17",
		"  |",
		"1 | use std::time::{SystemTime, UNIX_EPOCH};",
		"",
		"warning: unused import: `std::sync::Mutex`",
		" --> main.rs:2:5",
		"",
	}, "\n")

	var out bytes.Buffer
	err := executeImports(context.Background(), root, config.Default().Imports, strings.NewReader(stream), false, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "main.rs: 1 changed, 1 removed")

	data, err := os.ReadFile(filepath.Join(root, "main.rs"))
	require.NoError(t, err)
	assert.Equal(t, "use std::time::{UNIX_EPOCH};\n\nfn main() {}\n", string(data))

	// Test: a report naming a missing file fails the command
	missing := "warning: unused import: `x`\n --> gone.rs:1:1\n"
	out.Reset()
	err = executeImports(context.Background(), root, config.Default().Imports, strings.NewReader(missing), false, &out)
	assert.Error(t, err)
	assert.Contains(t, out.String(), "✗ gone.rs")

	// Test: a clean stream is reported as such
	out.Reset()
	require.NoError(t, executeImports(context.Background(), root, config.Default().Imports, strings.NewReader("Finished dev\n"), false, &out))
	assert.Contains(t, out.String(), "No unused import warnings")
}

func TestExecuteList(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "kernel32.rs")
	require.NoError(t, os.WriteFile(path, []byte(gatewaySource+"fn Broken() {\n    x();\n"), 0644))

	var out bytes.Buffer
	require.NoError(t, executeList(path, "function", "", `^\s*#\[`, &out))

	got := out.String()
	assert.Contains(t, got, "GetACP")
	assert.Contains(t, got, "3-5")
	assert.Contains(t, got, "Sleep")
	assert.Contains(t, got, "! line 10: unterminated Broken")

	// Test: unknown kinds are rejected
	assert.Error(t, executeList(path, "struct", "", "", &out))
}

func TestCLIProgressReporter(t *testing.T) {
	t.Parallel()

	summary := &runner.Summary{
		Files: []*runner.FileReport{
			{Source: "src/a.rs", Keys: []string{"A", "B"}, Written: []string{"a.rs", "b.rs"}},
			{Source: "src/b.rs", Err: os.ErrNotExist},
			{Source: "src/c.rs", Keys: []string{"C"}, Kept: []string{"C"}},
		},
		Duration: 1500 * time.Millisecond,
	}

	var out bytes.Buffer
	r := NewCLIProgressReporter(false, &out)
	r.OnRunStart(3)
	for _, f := range summary.Files {
		r.OnFileProcessed(f)
	}
	r.OnComplete(summary)

	got := out.String()
	assert.Contains(t, got, "Extraction complete: 3 keys from 3 files")
	assert.Contains(t, got, "✗ src/b.rs")
	assert.Contains(t, got, "! src/c.rs: kept in source, generated output already differs: C")

	// Test: quiet reporters print nothing
	var quiet bytes.Buffer
	q := NewCLIProgressReporter(true, &quiet)
	q.OnRunStart(3)
	q.OnComplete(summary)
	assert.Empty(t, quiet.String())
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
}

func TestWatchExtensions(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Targets: []config.TargetConfig{
		{Source: "src/kernel32.rs"},
		{Source: "src/**/*.rs"},
		{Source: "tests/cases.txt"},
	}}
	assert.Equal(t, []string{".rs", ".txt"}, watchExtensions(cfg))

	// Test: a source without a fixed extension watches every file
	cfg.Targets = append(cfg.Targets, config.TargetConfig{Source: "src/*"})
	assert.Nil(t, watchExtensions(cfg))
}

func TestWatchExtract_ReExtractsOnChange(t *testing.T) {
	t.Parallel()
	root := setupProject(t)
	cfg, err := loadConfig(root, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchExtract(ctx, root, cfg, io.Discard) }()
	time.Sleep(200 * time.Millisecond)

	// Test: a change to the configured source triggers a run
	src := filepath.Join(root, "src", "kernel32.rs")
	require.NoError(t, os.WriteFile(src, []byte(gatewaySource), 0644))

	generated := filepath.Join(root, "src", "kernel32_gen", "sleep.rs")
	assert.Eventually(t, func() bool {
		_, err := os.Stat(generated)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}
