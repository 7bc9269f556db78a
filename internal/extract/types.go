// Package extract pulls keyed, brace-delimited blocks out of line-oriented
// source text and keeps everything else as a residual.
package extract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStructuralImbalance indicates a block whose depth never returned to zero.
	ErrStructuralImbalance = errors.New("structural imbalance")

	// ErrKeyCollision indicates two blocks claiming the same key.
	ErrKeyCollision = errors.New("key collision")

	// ErrNoBody indicates a recognized start that never opened a body
	// (a forward declaration, a trait method signature).
	ErrNoBody = errors.New("block has no body")
)

// DuplicatePolicy decides which block keeps a key claimed twice.
type DuplicatePolicy string

const (
	// Overwrite gives the key to the later block; the earlier one loses it.
	Overwrite DuplicatePolicy = "overwrite"
	// Reject keeps the first block; the later one loses the key.
	Reject DuplicatePolicy = "reject"
)

// ParseDuplicatePolicy validates a policy name. The empty string selects Reject.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Reject:
		return Reject, nil
	case Overwrite:
		return Overwrite, nil
	}
	return "", fmt.Errorf("unknown duplicate policy %q", s)
}

// Block is one extracted unit. Several keys may share a block when a single
// start line declares them all (e.g. a match arm with alternatives).
type Block struct {
	Keys       []string
	Attributes []string
	Body       []string

	// StartLine and EndLine are 1-based line numbers of the first and last
	// body lines. Attributes precede StartLine.
	StartLine int
	EndLine   int

	// Balanced is false when the block was closed implicitly by end of
	// input or by the next start line.
	Balanced bool
}

// Lines returns the attributes followed by the body.
func (b *Block) Lines() []string {
	out := make([]string, 0, len(b.Attributes)+len(b.Body))
	out = append(out, b.Attributes...)
	return append(out, b.Body...)
}

// Key returns the first key of the block.
func (b *Block) Key() string {
	if len(b.Keys) == 0 {
		return ""
	}
	return b.Keys[0]
}

// AnomalyKind classifies a non-fatal extraction event.
type AnomalyKind int

const (
	Unterminated AnomalyKind = iota
	NoBody
	Collision
)

func (k AnomalyKind) String() string {
	switch k {
	case Unterminated:
		return "unterminated"
	case NoBody:
		return "no-body"
	case Collision:
		return "collision"
	}
	return "unknown"
}

// Anomaly records something the caller should hear about. Extraction
// continues past every anomaly.
type Anomaly struct {
	Kind AnomalyKind
	Keys []string
	Line int
	Err  error
}

func (a Anomaly) Error() string {
	return fmt.Sprintf("line %d: %s: %v", a.Line, strings.Join(a.Keys, ","), a.Err)
}

func (a Anomaly) Unwrap() error { return a.Err }

// segment is either one residual line or a reference to a block.
type segment struct {
	line  string
	block *Block
}

// Result is the outcome of one extraction pass.
type Result struct {
	// Keys lists live keys in encounter order.
	Keys      []string
	Blocks    map[string]*Block
	Residual  []string
	Anomalies []Anomaly

	layout []segment
}

// Get returns the block holding key.
func (r *Result) Get(key string) (*Block, bool) {
	b, ok := r.Blocks[key]
	return b, ok
}

// Ordered returns the distinct live blocks in encounter order.
func (r *Result) Ordered() []*Block {
	var out []*Block
	for _, s := range r.layout {
		if s.block != nil && len(s.block.Keys) > 0 {
			out = append(out, s.block)
		}
	}
	return out
}

// Reassemble interleaves residual lines and live blocks in their original
// order. For any input, Reassemble returns exactly the input lines.
func (r *Result) Reassemble() []string {
	var out []string
	for _, s := range r.layout {
		if s.block == nil {
			out = append(out, s.line)
			continue
		}
		out = append(out, s.block.Lines()...)
	}
	return out
}

// ResidualKeeping returns the residual with the blocks of keep left in
// place. A block shared by several keys stays when any of them is kept.
func (r *Result) ResidualKeeping(keep map[string]bool) []string {
	var out []string
	for _, s := range r.layout {
		switch {
		case s.block == nil:
			out = append(out, s.line)
		case len(s.block.Keys) == 0 || anyKept(s.block.Keys, keep):
			out = append(out, s.block.Lines()...)
		}
	}
	return out
}

func anyKept(keys []string, keep map[string]bool) bool {
	for _, k := range keys {
		if keep[k] {
			return true
		}
	}
	return false
}

// Len returns the number of live keys.
func (r *Result) Len() int { return len(r.Keys) }
