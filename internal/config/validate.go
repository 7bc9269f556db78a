package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/carve/internal/extract"
	"github.com/mvp-joe/carve/internal/naming"
)

var (
	// ErrNoTargets indicates that extraction was requested without targets
	ErrNoTargets = errors.New("no extraction targets configured")

	// ErrEmptySource indicates a target without a source path or glob
	ErrEmptySource = errors.New("empty target source")

	// ErrInvalidKind indicates an unsupported block kind
	ErrInvalidKind = errors.New("invalid block kind")

	// ErrInvalidCasing indicates an unsupported key casing
	ErrInvalidCasing = errors.New("invalid key casing")

	// ErrInvalidPolicy indicates an unsupported duplicate-key policy
	ErrInvalidPolicy = errors.New("invalid duplicate policy")

	// ErrInvalidPattern indicates a regex or glob that does not compile
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrInvalidWindow indicates a non-positive diagnostics lookahead window
	ErrInvalidWindow = errors.New("invalid lookahead window")

	// ErrEmptyCommand indicates a missing diagnostics command
	ErrEmptyCommand = errors.New("empty diagnostics command")
)

// Validate checks that the configuration is valid and complete. A config
// without targets is valid; commands that need targets call RequireTargets.
func Validate(cfg *Config) error {
	var errs []error

	for i := range cfg.Targets {
		if err := validateTarget(&cfg.Targets[i]); err != nil {
			errs = append(errs, fmt.Errorf("target %d (%s): %w", i, cfg.Targets[i].Name, err))
		}
	}

	for _, p := range cfg.Ignore {
		if _, err := glob.Compile(p, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: ignore %q: %v", ErrInvalidPattern, p, err))
		}
	}

	if err := validateImports(&cfg.Imports); err != nil {
		errs = append(errs, err)
	}

	return joinErrors(errs)
}

// RequireTargets returns ErrNoTargets when cfg has nothing to extract.
func RequireTargets(cfg *Config) error {
	if len(cfg.Targets) == 0 {
		return fmt.Errorf("%w: add targets to %s/config.yml", ErrNoTargets, Dir)
	}
	return nil
}

func validateTarget(t *TargetConfig) error {
	var errs []error

	if strings.TrimSpace(t.Source) == "" {
		errs = append(errs, fmt.Errorf("%w: source is required", ErrEmptySource))
	} else if _, err := glob.Compile(t.Source, '/'); err != nil {
		errs = append(errs, fmt.Errorf("%w: source %q: %v", ErrInvalidPattern, t.Source, err))
	}

	switch t.Kind {
	case extract.KindFunction, extract.KindMatchArm:
	case extract.KindPattern:
		if t.Pattern == "" {
			errs = append(errs, fmt.Errorf("%w: kind %q requires pattern", ErrInvalidPattern, t.Kind))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: must be 'function', 'match_arm' or 'pattern', got '%s'", ErrInvalidKind, t.Kind))
	}

	if _, err := naming.ParseCasing(t.Casing); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidCasing, err))
	}
	if _, err := extract.ParseDuplicatePolicy(t.Duplicates); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidPolicy, err))
	}

	for _, re := range []struct{ field, expr string }{
		{"pattern", t.Pattern},
		{"attribute_pattern", t.AttributePattern},
		{"require_attribute", t.RequireAttribute},
		{"epilogue.result_pattern", t.Epilogue.ResultPattern},
		{"visibility.definition", strings.ReplaceAll(t.Visibility.Definition, "{key}", "key")},
	} {
		if re.expr == "" {
			continue
		}
		if _, err := regexp.Compile(re.expr); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrInvalidPattern, re.field, err))
		}
	}

	for _, p := range append(append([]string(nil), t.Keys.Include...), t.Keys.Exclude...) {
		if _, err := glob.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("%w: key glob %q: %v", ErrInvalidPattern, p, err))
		}
	}

	if t.Index.Dispatch != nil && strings.TrimSpace(t.Index.Dispatch.Signature) == "" {
		errs = append(errs, fmt.Errorf("%w: index.dispatch.signature is required", ErrInvalidPattern))
	}

	return joinErrors(errs)
}

func validateImports(cfg *ImportsConfig) error {
	var errs []error

	if len(cfg.Command) == 0 || strings.TrimSpace(cfg.Command[0]) == "" {
		errs = append(errs, ErrEmptyCommand)
	}
	if cfg.LocationWindow <= 0 {
		errs = append(errs, fmt.Errorf("%w: location_window must be positive, got %d", ErrInvalidWindow, cfg.LocationWindow))
	}
	if cfg.ContextWindow <= 0 {
		errs = append(errs, fmt.Errorf("%w: context_window must be positive, got %d", ErrInvalidWindow, cfg.ContextWindow))
	}

	return joinErrors(errs)
}

// validationErrors keeps every cause reachable through errors.Is while
// printing as one indented list.
type validationErrors []error

func (e validationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

func (e validationErrors) Unwrap() []error { return e }

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return validationErrors(errs)
}
