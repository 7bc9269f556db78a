package mcp

import (
	"context"
	"fmt"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/carve/internal/config"
	"github.com/mvp-joe/carve/internal/generate"
	"github.com/mvp-joe/carve/internal/runner"
)

// AddExtractTool registers carve_extract, which runs the configured targets.
// It defaults to a dry run; existing generated files are never overwritten.
func AddExtractTool(s *server.MCPServer, root string, cfg *config.Config) {
	tool := mcp.NewTool(
		"carve_extract",
		mcp.WithDescription("Run the extraction targets from .carve/config.yml: split each source into one generated file per block, write the module index, and rewrite the original when configured. Defaults to a dry run that only reports planned writes."),
		mcp.WithArray("targets",
			mcp.Description("Target names to run (default: all configured targets)"),
			mcp.WithStringItems()),
		mcp.WithBoolean("dry_run",
			mcp.Description("Report planned writes without touching files (default: true)")),
		mcp.WithDestructiveHintAnnotation(true),
	)
	s.AddTool(tool, createExtractHandler(root, cfg))
}

func createExtractHandler(root string, cfg *config.Config) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req ExtractRequest
		if err := bindArguments(request, &req); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}
		dryRun := req.DryRun == nil || *req.DryRun

		if cfg == nil || config.RequireTargets(cfg) != nil {
			return mcp.NewToolResultError(config.ErrNoTargets.Error()), nil
		}

		var targets []*runner.Target
		for _, tc := range cfg.Targets {
			if len(req.Targets) > 0 && !slices.Contains(req.Targets, tc.Name) {
				continue
			}
			t, err := runner.NewTarget(tc)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("target %s: %v", tc.Name, err)), nil
			}
			targets = append(targets, t)
		}
		if len(targets) == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("no configured target matches %v", req.Targets)), nil
		}

		r, err := runner.New(root, cfg.Ignore, generate.NewWriter(dryRun), nil)
		if err != nil {
			return nil, err
		}
		summary, err := r.Run(ctx, targets)
		if err != nil {
			return nil, err
		}

		resp := ExtractResponse{
			RunID:   summary.RunID,
			DryRun:  dryRun,
			Sources: make([]SourceResult, 0, len(summary.Files)),
			TookMs:  summary.Duration.Milliseconds(),
		}
		for _, f := range summary.Files {
			resp.Sources = append(resp.Sources, toSourceResult(f))
			if f.Err != nil {
				resp.Failed++
			}
		}
		return marshalToolResponse(resp)
	}
}
