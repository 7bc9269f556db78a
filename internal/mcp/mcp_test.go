package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/carve/internal/config"
)

// Test Plan for the MCP tools:
// - NewServer registers every tool without panicking
// - carve_list reports blocks, ranges, attributes and anomalies
// - carve_calls returns split arguments of macro and function calls
// - carve_extract dry-runs by default and writes only when asked
// - Paths outside the project root and bad arguments are tool errors, not system errors
// - String-encoded arrays and booleans are coerced during binding

const kernel32 = `use crate::emu;

#[allow(non_snake_case)]
fn GetACP(emu: &mut emu::Emu) {
    log_red!(emu, "kernel32!GetACP", f(1, 2));
    emu.regs_mut().rax = 1252;
}

fn Broken(emu: &mut emu::Emu) {
    emu.x();
`

func setupRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "kernel32.rs"), []byte(kernel32), 0644))
	return root
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	})
	require.NoError(t, err, "should not return system error")
	require.NotNil(t, result)
	return result
}

func decode[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, result.IsError, "should not be error result")
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "should be text content")
	var out T
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func errorText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.True(t, result.IsError, "should be error result")
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() {
		s := NewServer(t.TempDir(), config.Default(), "test")
		assert.NotNil(t, s)
	})
}

func TestListHandler(t *testing.T) {
	t.Parallel()
	root := setupRoot(t)
	handler := createListHandler(root)

	resp := decode[ListResponse](t, call(t, handler, map[string]any{"path": "src/kernel32.rs"}))
	require.Len(t, resp.Blocks, 2)
	assert.Equal(t, BlockInfo{
		Key:        "GetACP",
		StartLine:  4,
		EndLine:    7,
		Balanced:   true,
		Attributes: []string{"#[allow(non_snake_case)]"},
	}, resp.Blocks[0])
	assert.False(t, resp.Blocks[1].Balanced)

	require.Len(t, resp.Anomalies, 1)
	assert.Equal(t, "unterminated", resp.Anomalies[0].Kind)
	assert.Equal(t, []string{"Broken"}, resp.Anomalies[0].Keys)

	// Test: user errors come back as tool errors
	assert.Contains(t, errorText(t, call(t, handler, map[string]any{"path": "../etc/passwd"})), "outside project root")
	assert.Contains(t, errorText(t, call(t, handler, map[string]any{})), "path parameter is required")
	assert.Contains(t, errorText(t, call(t, handler, map[string]any{"path": "src/kernel32.rs", "kind": "tree"})), "unknown recognizer kind")
	assert.Contains(t, errorText(t, call(t, handler, map[string]any{"path": "src/none.rs"})), "failed to read")
}

func TestCallsHandler(t *testing.T) {
	t.Parallel()
	root := setupRoot(t)
	handler := createCallsHandler(root)

	resp := decode[CallsResponse](t, call(t, handler, map[string]any{"path": "src/kernel32.rs", "callee": "log_red"}))
	require.Len(t, resp.Calls, 1)
	assert.Equal(t, 5, resp.Calls[0].Line)
	assert.Equal(t, []string{"emu", `"kernel32!GetACP"`, "f(1, 2)"}, resp.Calls[0].Args)
	assert.Equal(t, `log_red!(emu, "kernel32!GetACP", f(1, 2))`, resp.Calls[0].Text)

	assert.Contains(t, errorText(t, call(t, handler, map[string]any{"path": "src/kernel32.rs"})), "callee parameter is required")
}

func TestExtractHandler(t *testing.T) {
	t.Parallel()
	root := setupRoot(t)

	cfg := config.Default()
	target := config.DefaultTarget()
	target.Name = "kernel32"
	target.Source = "src/kernel32.rs"
	target.StrictBalance = true
	cfg.Targets = []config.TargetConfig{target}
	handler := createExtractHandler(root, cfg)

	// Test: the default is a dry run
	resp := decode[ExtractResponse](t, call(t, handler, map[string]any{}))
	assert.True(t, resp.DryRun)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, []string{"GetACP"}, resp.Sources[0].Keys)
	assert.NotEmpty(t, resp.Sources[0].Planned)
	assert.NoDirExists(t, filepath.Join(root, "src", "kernel32"))

	// Test: a string-encoded boolean is coerced
	resp = decode[ExtractResponse](t, call(t, handler, map[string]any{"dry_run": "false", "targets": `["kernel32"]`}))
	assert.False(t, resp.DryRun)
	assert.Equal(t, 0, resp.Failed)
	assert.FileExists(t, filepath.Join(root, "src", "kernel32", "get_acp.rs"))

	assert.Contains(t, errorText(t, call(t, handler, map[string]any{"targets": []any{"user32"}})), "no configured target")
	assert.Contains(t, errorText(t, call(t, createExtractHandler(root, config.Default()), map[string]any{})), config.ErrNoTargets.Error())
}

func TestResolvePath(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	got, err := resolvePath(root, "src/a.rs")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src", "a.rs"), got)

	_, err = resolvePath(root, "src/../../a.rs")
	assert.ErrorIs(t, err, errOutsideRoot)

	_, err = resolvePath(root, "/etc/passwd")
	assert.ErrorIs(t, err, errOutsideRoot)

	// Test: a name starting with dots is not an escape
	_, err = resolvePath(root, "..hidden.rs")
	assert.NoError(t, err)
}
