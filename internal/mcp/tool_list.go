package mcp

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/carve/internal/extract"
)

// AddListTool registers carve_list, which reports the blocks a file would
// yield without writing anything.
func AddListTool(s *server.MCPServer, root string) {
	tool := mcp.NewTool(
		"carve_list",
		mcp.WithDescription("List the keyed blocks (functions, match arms, pattern-started blocks) a source file would be split into, with line ranges and anomalies such as unterminated blocks or key collisions."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Source file, relative to the project root")),
		mcp.WithString("kind",
			mcp.Description("Recognizer: function (default), match_arm or pattern")),
		mcp.WithString("pattern",
			mcp.Description("Start-line regex for kind=pattern; capture groups are the keys")),
		mcp.WithString("attribute",
			mcp.Description(`Regex for attribute lines carried with the next block (default: ^\s*#\[)`)),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createListHandler(root))
}

func createListHandler(root string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req ListRequest
		if err := bindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}
		if req.Attribute == "" {
			req.Attribute = `^\s*#\[`
		}

		path, err := resolvePath(root, req.Path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		opts, err := extract.KindOptions(req.Kind, req.Pattern, req.Attribute)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %v", req.Path, err)), nil
		}

		res, err := extract.ExtractText(string(data), opts)
		if err != nil {
			return nil, err
		}

		resp := ListResponse{
			Path:          req.Path,
			Blocks:        make([]BlockInfo, 0, res.Len()),
			Anomalies:     toAnomalies(res.Anomalies),
			ResidualLines: len(res.Residual),
		}
		for _, key := range res.Keys {
			b := res.Blocks[key]
			resp.Blocks = append(resp.Blocks, BlockInfo{
				Key:        key,
				StartLine:  b.StartLine,
				EndLine:    b.EndLine,
				Balanced:   b.Balanced,
				Attributes: b.Attributes,
			})
		}
		return marshalToolResponse(resp)
	}
}
