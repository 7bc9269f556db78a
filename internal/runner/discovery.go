package runner

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Discovery resolves target sources under a root, honoring ignore rules.
type Discovery struct {
	rootDir        string
	ignorePatterns []compiledPattern
}

// NewDiscovery compiles ignorePatterns for rootDir.
func NewDiscovery(rootDir string, ignorePatterns []string) (*Discovery, error) {
	d := &Discovery{rootDir: rootDir}
	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		d.ignorePatterns = append(d.ignorePatterns, compiledPattern{pattern: pattern, glob: g})
	}
	return d, nil
}

// Sources returns the files matching source, sorted. A source without glob
// metacharacters names one file, which need not exist yet: reading it is
// where a missing file is reported.
func (d *Discovery) Sources(source string) ([]string, error) {
	source = filepath.ToSlash(source)
	if !hasMeta(source) {
		if filepath.IsAbs(source) {
			return []string{filepath.FromSlash(source)}, nil
		}
		return []string{filepath.Join(d.rootDir, filepath.FromSlash(source))}, nil
	}

	g, err := glob.Compile(source, '/')
	if err != nil {
		return nil, err
	}
	patterns := []compiledPattern{{pattern: source, glob: g}}

	var files []string
	err = filepath.WalkDir(d.rootDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) && path != d.rootDir {
				return nil
			}
			return err
		}

		relPath, err := filepath.Rel(d.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if entry.IsDir() {
			if relPath != "." && d.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.shouldIgnore(relPath) {
			return nil
		}
		if matchesAnyPattern(relPath, patterns) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Rel returns path relative to the root, slash-separated.
func (d *Discovery) Rel(path string) string {
	rel, err := filepath.Rel(d.rootDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Ignored reports whether path, absolute or relative to the root, falls
// under an ignore pattern.
func (d *Discovery) Ignored(path string) bool {
	if filepath.IsAbs(path) {
		path = d.Rel(path)
	}
	return d.shouldIgnore(filepath.ToSlash(path))
}

// shouldIgnore checks if a path matches any ignore pattern.
func (d *Discovery) shouldIgnore(relPath string) bool {
	if matchesAnyPattern(relPath, d.ignorePatterns) {
		return true
	}

	// A directory "target" should match the pattern "target/**"
	return matchesAnyPattern(relPath+"/**", d.ignorePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// A root-level path also matches patterns with the **/ prefix removed, so
	// "**/*.rs" matches "lib.rs" as well as "src/lib.rs".
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if strings.HasPrefix(cp.pattern, "**/") {
				simplified := strings.TrimPrefix(cp.pattern, "**/")
				if g, err := glob.Compile(simplified, '/'); err == nil && g.Match(path) {
					return true
				}
			}
		}
	}

	return false
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
