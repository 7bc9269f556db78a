package runner

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/carve/internal/config"
	"github.com/mvp-joe/carve/internal/extract"
	"github.com/mvp-joe/carve/internal/generate"
	"github.com/mvp-joe/carve/internal/index"
	"github.com/mvp-joe/carve/internal/naming"
	"github.com/mvp-joe/carve/internal/rewrite"
)

// Target is a compiled TargetConfig.
type Target struct {
	Name   string
	Source string
	// Dest is a directory template; {dir} and {stem} expand per source.
	Dest string

	Extract   extract.Options
	Generator generate.Generator

	// Index is nil when no index is written.
	Index     *index.Options
	IndexFile string

	// Rewrite is nil when the original is left alone.
	Rewrite       *rewrite.Options
	RewriteOutput string
}

// NewTarget compiles the recognizers, filters and transforms c describes.
func NewTarget(c config.TargetConfig) (*Target, error) {
	rec, err := extract.ForKind(c.Kind, c.Pattern)
	if err != nil {
		return nil, err
	}
	attr, err := extract.LineMatcher(c.AttributePattern)
	if err != nil {
		return nil, fmt.Errorf("attribute_pattern: %w", err)
	}
	gate, err := extract.AnyAttribute(c.RequireAttribute)
	if err != nil {
		return nil, fmt.Errorf("require_attribute: %w", err)
	}
	if gate != nil && attr == nil {
		return nil, errors.New("require_attribute needs attribute_pattern")
	}
	dup, err := extract.ParseDuplicatePolicy(c.Duplicates)
	if err != nil {
		return nil, err
	}
	casing, err := naming.ParseCasing(c.Casing)
	if err != nil {
		return nil, err
	}
	produces, err := extract.LineMatcher(c.Epilogue.ResultPattern)
	if err != nil {
		return nil, fmt.Errorf("epilogue.result_pattern: %w", err)
	}

	var filters []extract.KeyFilter
	if len(c.Keys.Roster) > 0 {
		filters = append(filters, extract.NewRoster(c.Keys.Roster...))
	}
	if len(c.Keys.Include) > 0 || len(c.Keys.Exclude) > 0 {
		g, err := extract.NewGlobFilter(c.Keys.Include, c.Keys.Exclude)
		if err != nil {
			return nil, err
		}
		filters = append(filters, g)
	}

	t := &Target{
		Name:   c.Name,
		Source: c.Source,
		Dest:   c.Dest,
		Extract: extract.Options{
			Recognizer:       rec,
			Attribute:        attr,
			RequireAttribute: gate,
			Duplicates:       dup,
			Strict:           c.StrictBalance,
		},
		Generator: generate.Generator{
			Extension: c.Extension,
			Casing:    casing,
			Transform: generate.Transform{
				Publish:    c.Visibility.Publishes(),
				Qualifier:  c.Visibility.Qualifier,
				Definition: c.Visibility.Definition,
				Wrap:       c.Wrap.Signature,
				Epilogue:   generate.Epilogue{Produces: produces, Text: c.Epilogue.Text},
				Header:     c.Header,
			},
		},
	}
	if len(filters) > 0 {
		t.Extract.Filter = extract.All(filters...)
	}

	if !c.Index.Skip {
		t.IndexFile = c.Index.File
		t.Index = &index.Options{Header: c.Index.Header, Reexport: c.Index.Reexport}
		if d := c.Index.Dispatch; d != nil {
			t.Index.Dispatch = &index.Dispatch{
				Signature:    d.Signature,
				Discriminant: d.Discriminant,
				Args:         d.Args,
				Fallback:     d.Fallback,
				Tail:         d.Tail,
			}
		}
	}

	if c.Rewrite.Enabled {
		t.Rewrite = &rewrite.Options{Wiring: c.Rewrite.Wiring, RemoveArms: c.Rewrite.RemoveArms}
		t.RewriteOutput = c.Rewrite.Output
	}
	return t, nil
}

// expand substitutes {dir} and {stem} for the source at rel, a slash path
// relative to the root.
func expand(tmpl, rel string) string {
	base := path.Base(rel)
	stem := strings.TrimSuffix(base, path.Ext(base))
	return strings.NewReplacer("{dir}", path.Dir(rel), "{stem}", stem).Replace(tmpl)
}

// resolve makes a slash path from a template absolute under root.
func resolve(root, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
