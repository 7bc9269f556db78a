package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mvp-joe/carve/internal/config"
	"github.com/mvp-joe/carve/internal/ctxlog"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "carve",
	Short: "Carve - split large source files into per-unit modules",
	Long: `Carve extracts sibling code blocks (functions, match arms, tagged blocks)
from large source files into one generated file per block, writes a module
index and dispatch table for them, and rewrites the original to reference
the generated units.

Targets are configured in .carve/config.yml.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger := ctxlog.New(cmd.ErrOrStderr(), viper.GetBool("verbose"))
		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <root>/.carve/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// resolveRoot returns the absolute root from an optional positional argument,
// defaulting to the working directory.
func resolveRoot(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		root, err := filepath.Abs(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to resolve root: %w", err)
		}
		info, err := os.Stat(root)
		if err != nil {
			return "", fmt.Errorf("failed to access root: %w", err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("root %s is not a directory", root)
		}
		return root, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// loadConfig reads the --config file when given, otherwise root/.carve.
func loadConfig(root, file string) (*config.Config, error) {
	loader := config.NewLoader(root)
	if file != "" {
		loader = config.NewFileLoader(root, file)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
