package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/carve/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [root]",
	Short: "Serve carve tools over the Model Context Protocol",
	Long: `Start an MCP server on stdio exposing:

  carve_list     blocks a file would be split into, with line ranges
  carve_calls    calls of a function or macro with their split arguments
  carve_extract  run the configured targets (dry run unless asked otherwise)

Configuration is read from <root>/.carve/config.yml when present; without it
only carve_extract is unavailable.

Add to an MCP client configuration:
  {"command": "carve", "args": ["mcp", "/path/to/project"]}
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootDir, err := resolveRoot(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(rootDir, cfgFile)
	if err != nil {
		return err
	}

	return mcp.NewServer(rootDir, cfg, Version).Serve(ctx)
}
