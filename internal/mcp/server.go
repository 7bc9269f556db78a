// Package mcp exposes carve's read and extract operations as MCP tools over
// stdio, so an assistant can inspect and split large sources.
package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/carve/internal/config"
	"github.com/mvp-joe/carve/internal/ctxlog"
)

// Server manages the MCP server lifecycle.
type Server struct {
	root string
	mcp  *server.MCPServer
}

// NewServer creates a server whose tools operate under root. cfg supplies
// the targets for carve_extract; it may hold none, in which case that tool
// reports an error when called.
func NewServer(root string, cfg *config.Config, version string) *Server {
	s := server.NewMCPServer(
		"carve",
		version,
		server.WithToolCapabilities(true),
	)

	AddListTool(s, root)
	AddCallsTool(s, root)
	AddExtractTool(s, root, cfg)

	return &Server{root: root, mcp: s}
}

// Serve runs the server on stdio until ctx is cancelled or the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	log := ctxlog.FromContext(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting MCP server on stdio", "root", s.root)
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("stopping MCP server")
		return nil
	}
}
