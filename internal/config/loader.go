package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Dir is the per-project configuration directory.
const Dir = ".carve"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
	file    string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// NewFileLoader creates a loader that reads an explicit config file instead of
// searching rootDir/.carve. The file must exist.
func NewFileLoader(rootDir, file string) Loader {
	return &loader{
		rootDir: rootDir,
		file:    file,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CARVE_*)
// 2. Config file (.carve/config.yml or .carve/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.file != "" {
		v.SetConfigFile(l.file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, Dir))
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("CARVE")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., CARVE_IMPORTS_CONTEXT_WINDOW)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = v.BindEnv("ignore")
	_ = v.BindEnv("imports.command")
	_ = v.BindEnv("imports.location_window")
	_ = v.BindEnv("imports.context_window")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		var notFound viper.ConfigFileNotFoundError
		if l.file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("ignore", defaults.Ignore)
	v.SetDefault("imports.command", defaults.Imports.Command)
	v.SetDefault("imports.location_window", defaults.Imports.LocationWindow)
	v.SetDefault("imports.context_window", defaults.Imports.ContextWindow)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
