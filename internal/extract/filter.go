package extract

import (
	"fmt"

	"github.com/gobwas/glob"
)

// KeyFilter decides which keys may be extracted.
type KeyFilter interface {
	Allow(key string) bool
}

// Roster allows exactly the listed keys.
type Roster map[string]struct{}

// NewRoster builds a roster from names.
func NewRoster(names ...string) Roster {
	r := make(Roster, len(names))
	for _, n := range names {
		r[n] = struct{}{}
	}
	return r
}

func (r Roster) Allow(key string) bool {
	_, ok := r[key]
	return ok
}

// GlobFilter allows keys matching any include pattern (or all keys when
// there are none) and no exclude pattern.
type GlobFilter struct {
	include []glob.Glob
	exclude []glob.Glob
}

// NewGlobFilter compiles include and exclude patterns.
func NewGlobFilter(include, exclude []string) (*GlobFilter, error) {
	f := &GlobFilter{}
	for _, p := range include {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("include pattern %q: %w", p, err)
		}
		f.include = append(f.include, g)
	}
	for _, p := range exclude {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		f.exclude = append(f.exclude, g)
	}
	return f, nil
}

func (f *GlobFilter) Allow(key string) bool {
	for _, g := range f.exclude {
		if g.Match(key) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, g := range f.include {
		if g.Match(key) {
			return true
		}
	}
	return false
}

type allFilters []KeyFilter

func (a allFilters) Allow(key string) bool {
	for _, f := range a {
		if !f.Allow(key) {
			return false
		}
	}
	return true
}

// All combines filters; a key must pass every one. Nil filters are skipped.
func All(filters ...KeyFilter) KeyFilter {
	var out allFilters
	for _, f := range filters {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}
