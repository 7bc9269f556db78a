package config

// Config represents the complete carve configuration.
// It can be loaded from .carve/config.yml with environment variable overrides.
type Config struct {
	Targets []TargetConfig `yaml:"targets" mapstructure:"targets"`
	Ignore  []string       `yaml:"ignore" mapstructure:"ignore"` // glob patterns never treated as sources
	Imports ImportsConfig  `yaml:"imports" mapstructure:"imports"`
}

// TargetConfig describes one extraction: which sources to read, how to
// recognize blocks, and how to render and wire what was extracted.
type TargetConfig struct {
	Name   string `yaml:"name" mapstructure:"name"`
	Source string `yaml:"source" mapstructure:"source"` // path or glob relative to the root
	Dest   string `yaml:"dest" mapstructure:"dest"`     // output directory; {dir} and {stem} expand per source

	Kind             string `yaml:"kind" mapstructure:"kind"`                           // function, match_arm or pattern
	Pattern          string `yaml:"pattern" mapstructure:"pattern"`                     // start regex for the pattern kind
	AttributePattern string `yaml:"attribute_pattern" mapstructure:"attribute_pattern"` // lines that arm the next block
	RequireAttribute string `yaml:"require_attribute" mapstructure:"require_attribute"` // extract only blocks tagged with this

	Keys       KeysConfig       `yaml:"keys" mapstructure:"keys"`
	Casing     string           `yaml:"casing" mapstructure:"casing"` // snake, lower or keep
	Extension  string           `yaml:"extension" mapstructure:"extension"`
	Visibility VisibilityConfig `yaml:"visibility" mapstructure:"visibility"`
	Epilogue   EpilogueConfig   `yaml:"epilogue" mapstructure:"epilogue"`
	Wrap       WrapConfig       `yaml:"wrap" mapstructure:"wrap"`
	Header     []string         `yaml:"header" mapstructure:"header"` // {key}, {module} and {entry} expand per unit

	Duplicates    string `yaml:"duplicates" mapstructure:"duplicates"` // reject or overwrite
	StrictBalance bool   `yaml:"strict_balance" mapstructure:"strict_balance"`

	Index   IndexConfig   `yaml:"index" mapstructure:"index"`
	Rewrite RewriteConfig `yaml:"rewrite" mapstructure:"rewrite"`
}

// KeysConfig restricts which keys are extracted.
type KeysConfig struct {
	Roster  []string `yaml:"roster" mapstructure:"roster"`
	Include []string `yaml:"include" mapstructure:"include"`
	Exclude []string `yaml:"exclude" mapstructure:"exclude"`
}

// VisibilityConfig controls the qualifier added to each unit's definition.
type VisibilityConfig struct {
	Publish    *bool  `yaml:"publish" mapstructure:"publish"` // nil means the default (true)
	Qualifier  string `yaml:"qualifier" mapstructure:"qualifier"`
	Definition string `yaml:"definition" mapstructure:"definition"` // regex template with {key}
}

// Publishes reports whether the qualifier is inserted. An unset Publish
// counts as true.
func (v VisibilityConfig) Publishes() bool {
	return v.Publish == nil || *v.Publish
}

// EpilogueConfig guarantees every unit ends in a result.
type EpilogueConfig struct {
	ResultPattern string `yaml:"result_pattern" mapstructure:"result_pattern"`
	Text          string `yaml:"text" mapstructure:"text"`
}

// WrapConfig turns block bodies (such as match arms) into functions.
type WrapConfig struct {
	Signature string `yaml:"signature" mapstructure:"signature"`
}

// IndexConfig controls the generated module index.
type IndexConfig struct {
	Skip     bool            `yaml:"skip" mapstructure:"skip"`
	File     string          `yaml:"file" mapstructure:"file"` // relative to the target's dest
	Reexport bool            `yaml:"reexport" mapstructure:"reexport"`
	Header   []string        `yaml:"header" mapstructure:"header"`
	Dispatch *DispatchConfig `yaml:"dispatch" mapstructure:"dispatch"`
}

// DispatchConfig describes the generated dispatch function.
type DispatchConfig struct {
	Signature    string   `yaml:"signature" mapstructure:"signature"`
	Discriminant string   `yaml:"discriminant" mapstructure:"discriminant"`
	Args         string   `yaml:"args" mapstructure:"args"`
	Fallback     []string `yaml:"fallback" mapstructure:"fallback"`
	Tail         []string `yaml:"tail" mapstructure:"tail"`
}

// RewriteConfig controls how the original source is rewritten.
type RewriteConfig struct {
	Enabled    bool     `yaml:"enabled" mapstructure:"enabled"`
	Wiring     []string `yaml:"wiring" mapstructure:"wiring"`
	RemoveArms bool     `yaml:"remove_arms" mapstructure:"remove_arms"`
	Output     string   `yaml:"output" mapstructure:"output"` // empty rewrites in place
}

// ImportsConfig configures the unused-import fixer.
type ImportsConfig struct {
	Command        []string `yaml:"command" mapstructure:"command"`
	LocationWindow int      `yaml:"location_window" mapstructure:"location_window"`
	ContextWindow  int      `yaml:"context_window" mapstructure:"context_window"`
}

// Default returns a configuration with sensible defaults. It has no targets.
func Default() *Config {
	return &Config{
		Ignore: []string{
			".git/**",
			".carve/**",
			"target/**",
			"node_modules/**",
			"vendor/**",
		},
		Imports: ImportsConfig{
			Command:        []string{"cargo", "check", "--color", "never"},
			LocationWindow: 10,
			ContextWindow:  15,
		},
	}
}

// DefaultTarget returns the values used for target fields left empty.
func DefaultTarget() TargetConfig {
	return TargetConfig{
		Dest:             "{dir}/{stem}",
		Kind:             "function",
		AttributePattern: `^\s*#\[`,
		Casing:           "snake",
		Extension:        ".rs",
		Visibility: VisibilityConfig{
			Publish:   boolPtr(true),
			Qualifier: "pub ",
		},
		Duplicates: "reject",
		Index: IndexConfig{
			File: "mod.rs",
		},
	}
}

// applyDefaults fills empty fields of every target from DefaultTarget.
// Visibility.Publish is only defaulted when unset, so an explicit false
// survives.
func (c *Config) applyDefaults() {
	d := DefaultTarget()
	for i := range c.Targets {
		t := &c.Targets[i]
		if t.Name == "" {
			t.Name = t.Source
		}
		if t.Dest == "" {
			t.Dest = d.Dest
		}
		if t.Kind == "" {
			t.Kind = d.Kind
		}
		if t.AttributePattern == "" {
			t.AttributePattern = d.AttributePattern
		}
		if t.Casing == "" {
			t.Casing = d.Casing
		}
		if t.Extension == "" {
			t.Extension = d.Extension
		}
		if t.Visibility.Publish == nil {
			t.Visibility.Publish = boolPtr(*d.Visibility.Publish)
		}
		if t.Visibility.Qualifier == "" {
			t.Visibility.Qualifier = d.Visibility.Qualifier
		}
		if t.Duplicates == "" {
			t.Duplicates = d.Duplicates
		}
		if t.Index.File == "" {
			t.Index.File = d.Index.File
		}
	}
}

func boolPtr(b bool) *bool {
	return &b
}
