package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/carve/internal/extract"
)

var (
	listKind      string
	listPattern   string
	listAttribute string
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "List the blocks a file would yield",
	Long: `List scans one source file with a built-in recognizer and prints every
extraction key with its line range, followed by any anomalies (unterminated
blocks, forward declarations, key collisions). Nothing is written.

Examples:
  carve list src/winapi/winapi64/kernel32/mod.rs
  carve list src/engine/mod.rs --kind match_arm
  carve list tests.rs --kind pattern --pattern '^test_case!\((\w+)'
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeList(args[0], listKind, listPattern, listAttribute, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listKind, "kind", extract.KindFunction, "Block kind: function, match_arm or pattern")
	listCmd.Flags().StringVar(&listPattern, "pattern", "", "Start regex for --kind pattern")
	listCmd.Flags().StringVar(&listAttribute, "attribute", `^\s*#\[`, "Regex for attribute lines carried with a block")
}

func executeList(path, kind, pattern, attribute string, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	opts, err := extract.KindOptions(kind, pattern, attribute)
	if err != nil {
		return err
	}
	res, err := extract.ExtractText(string(data), opts)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, key := range res.Keys {
		b := res.Blocks[key]
		fmt.Fprintf(tw, "%s\t%d-%d\t%s\n", key, b.StartLine, b.EndLine, balance(b))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, a := range res.Anomalies {
		fmt.Fprintf(out, "! line %d: %s %s\n", a.Line, a.Kind, strings.Join(a.Keys, ", "))
	}
	fmt.Fprintf(out, "%d keys, %d residual lines\n", res.Len(), len(res.Residual))
	return nil
}

func balance(b *extract.Block) string {
	if b.Balanced {
		return "balanced"
	}
	return "unterminated"
}
