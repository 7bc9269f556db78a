package generate

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/carve/internal/extract"
	"github.com/mvp-joe/carve/internal/naming"
)

// Generator renders every live block of an extraction result into one
// artifact per key.
type Generator struct {
	Dir       string
	Extension string
	Casing    naming.Casing
	Transform Transform
}

// reserved are words that cannot name a module or function in the generated
// language; they receive a trailing underscore.
var reserved = map[string]bool{
	"as": true, "break": true, "const": true, "continue": true, "crate": true,
	"else": true, "enum": true, "extern": true, "false": true, "fn": true,
	"for": true, "if": true, "impl": true, "in": true, "let": true, "loop": true,
	"match": true, "mod": true, "move": true, "mut": true, "pub": true, "ref": true,
	"return": true, "self": true, "static": true, "struct": true, "super": true,
	"trait": true, "true": true, "type": true, "unsafe": true, "use": true,
	"where": true, "while": true, "async": true, "await": true, "dyn": true,
}

// Unit derives the module and entry names for key.
func (g *Generator) Unit(key string) Unit {
	module := identifier(g.Casing.Apply(key))
	entry := key
	if g.Transform.Wrap != "" {
		entry = module
	}
	return Unit{Key: key, Module: module, Entry: entry}
}

// Artifacts renders res in key encounter order. Keys whose module names
// collide after casing get the lowest numeric suffix that no other key
// uses or would use.
func (g *Generator) Artifacts(res *extract.Result) ([]Artifact, []Unit, error) {
	ext := g.Extension
	if ext == "" {
		ext = ".rs"
	}

	var (
		artifacts []Artifact
		units     []Unit
		taken     = make(map[string]bool)
		bases     = make(map[string]bool, len(res.Keys))
	)
	for _, key := range res.Keys {
		bases[g.Unit(key).Module] = true
	}
	for _, key := range res.Keys {
		b := res.Blocks[key]
		u := g.Unit(key)
		if taken[u.Module] {
			base := u.Module
			for n := 2; taken[u.Module] || bases[u.Module]; n++ {
				u.Module = fmt.Sprintf("%s_%d", base, n)
			}
			if g.Transform.Wrap != "" {
				u.Entry = u.Module
			}
		}
		taken[u.Module] = true

		lines, err := g.Transform.Apply(u, b.Attributes, b.Body)
		if err != nil {
			return nil, nil, err
		}
		artifacts = append(artifacts, Artifact{
			Key:     key,
			Path:    filepath.Join(g.Dir, u.Module+ext),
			Content: strings.Join(lines, "\n") + "\n",
		})
		units = append(units, u)
	}
	return artifacts, units, nil
}

func identifier(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	if reserved[out] {
		return out + "_"
	}
	return out
}
