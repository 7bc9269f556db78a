package mcp

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/carve/internal/extract"
)

// AddCallsTool registers carve_calls, which finds invocations of a function
// or macro and splits their top-level arguments.
func AddCallsTool(s *server.MCPServer, root string) {
	tool := mcp.NewTool(
		"carve_calls",
		mcp.WithDescription("Find every call of a function or macro (name(...), name!(...), name![...], name!{...}) in a file and return its top-level arguments, split with nesting and string literals respected."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Source file, relative to the project root")),
		mcp.WithString("callee",
			mcp.Required(),
			mcp.Description("Function or macro name without the '!' (e.g. log_red)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createCallsHandler(root))
}

func createCallsHandler(root string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req CallsRequest
		if err := bindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}
		if req.Callee == "" {
			return mcp.NewToolResultError("callee parameter is required"), nil
		}

		path, err := resolvePath(root, req.Path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %v", req.Path, err)), nil
		}

		buf := string(data)
		calls, anomalies := extract.Calls(buf, req.Callee)

		resp := CallsResponse{
			Path:      req.Path,
			Callee:    req.Callee,
			Calls:     make([]CallInfo, 0, len(calls)),
			Anomalies: toAnomalies(anomalies),
		}
		for _, c := range calls {
			resp.Calls = append(resp.Calls, CallInfo{Line: c.Line, Text: c.Span.Text(buf), Args: c.Args})
		}
		return marshalToolResponse(resp)
	}
}
