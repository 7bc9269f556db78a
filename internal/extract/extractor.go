package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mvp-joe/carve/internal/scan"
)

// Options configures one extraction pass.
type Options struct {
	// Recognizer identifies start lines and the keys they declare. Required.
	Recognizer Recognizer

	// Attribute reports whether a line is an annotation that belongs to the
	// next block (e.g. #[inline]). Such lines arm the extractor; if the next
	// line is not a start they fall back to the residual.
	Attribute func(line string) bool

	// RequireAttribute, when set, only accepts a start line whose pending
	// attributes satisfy it.
	RequireAttribute func(attrs []string) bool

	// Filter restricts which keys may be extracted. Nil allows all keys.
	Filter KeyFilter

	// Duplicates resolves key collisions. Empty means Reject.
	Duplicates DuplicatePolicy

	// Strict returns implicitly closed (unbalanced) blocks to the residual
	// instead of keeping them.
	Strict bool
}

// ErrNoRecognizer is returned when Options has no Recognizer.
var ErrNoRecognizer = errors.New("extract: recognizer is required")

// Extract runs one pass over lines.
func Extract(lines []string, opts Options) (*Result, error) {
	if opts.Recognizer == nil {
		return nil, ErrNoRecognizer
	}
	if opts.Duplicates == "" {
		opts.Duplicates = Reject
	}

	x := &extractor{
		opts:   opts,
		blocks: make(map[string]*Block),
	}
	for i, line := range lines {
		x.step(i+1, line)
	}
	x.finish()
	return x.result(), nil
}

// ExtractText splits src on newlines and runs Extract.
func ExtractText(src string, opts Options) (*Result, error) {
	return Extract(SplitLines(src), opts)
}

// SplitLines splits text into lines without dropping a trailing empty line,
// so JoinLines(SplitLines(s)) == s.
func SplitLines(src string) []string {
	return strings.Split(src, "\n")
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// extractor holds the state of a single pass.
type extractor struct {
	opts Options

	cur     *Block
	tracker *scan.Tracker

	pending []string

	blocks    map[string]*Block
	order     []string
	layout    []segment
	anomalies []Anomaly
}

func (x *extractor) step(lineNo int, line string) {
	if keys, ok := x.recognize(line); ok && !x.nested(line) {
		if x.cur != nil {
			x.closeImplicitly(lineNo - 1)
		}
		x.open(lineNo, line, keys)
		return
	}

	if x.cur != nil {
		x.cur.Body = append(x.cur.Body, line)
		x.cur.EndLine = lineNo
		x.tracker.Feed(line)
		x.settle(line)
		return
	}

	if x.opts.Attribute != nil && x.opts.Attribute(line) {
		x.pending = append(x.pending, line)
		return
	}

	x.flushPending()
	x.layout = append(x.layout, segment{line: line})
}

// nested reports whether a start line sits inside the open block's body:
// the block has opened and the line is indented deeper than its start.
func (x *extractor) nested(line string) bool {
	if x.cur == nil || !x.tracker.Opened() {
		return false
	}
	return indentWidth(line) > indentWidth(x.cur.Body[0])
}

// recognize applies the recognizer, the key filter and the attribute gate.
func (x *extractor) recognize(line string) ([]string, bool) {
	keys, ok := x.opts.Recognizer.Recognize(line)
	if !ok {
		return nil, false
	}
	allowed := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] || (x.opts.Filter != nil && !x.opts.Filter.Allow(k)) {
			continue
		}
		seen[k] = true
		allowed = append(allowed, k)
	}
	if len(allowed) == 0 {
		return nil, false
	}
	keys = allowed
	if x.opts.RequireAttribute != nil && !x.opts.RequireAttribute(x.pending) {
		return nil, false
	}
	return keys, true
}

func (x *extractor) open(lineNo int, line string, keys []string) {
	x.cur = &Block{
		Keys:       keys,
		Attributes: x.pending,
		Body:       []string{line},
		StartLine:  lineNo,
		EndLine:    lineNo,
	}
	x.pending = nil
	x.tracker = scan.NewTracker(scan.Braces)
	x.tracker.Feed(line)
	x.settle(line)
}

// settle closes the current block when its depth has returned to zero, or
// abandons it when the start turned out to be a bodiless declaration.
func (x *extractor) settle(line string) {
	switch {
	case x.tracker.Closed():
		x.cur.Balanced = true
		x.store(x.cur)
		x.cur, x.tracker = nil, nil
	case !x.tracker.Opened() && endsDeclaration(line):
		x.abandon(NoBody, ErrNoBody)
	}
}

// closeImplicitly ends the current block at a new start line or at end of input.
func (x *extractor) closeImplicitly(lastLine int) {
	if !x.tracker.Opened() {
		x.abandon(NoBody, ErrNoBody)
		return
	}
	err := fmt.Errorf("%w: depth %d at line %d", ErrStructuralImbalance, x.tracker.Depth(), lastLine)
	if x.opts.Strict {
		x.abandon(Unterminated, err)
		return
	}
	x.anomalies = append(x.anomalies, Anomaly{Kind: Unterminated, Keys: x.cur.Keys, Line: x.cur.StartLine, Err: err})
	x.store(x.cur)
	x.cur, x.tracker = nil, nil
}

// abandon reports the current block and returns its lines to the residual.
func (x *extractor) abandon(kind AnomalyKind, err error) {
	x.anomalies = append(x.anomalies, Anomaly{Kind: kind, Keys: x.cur.Keys, Line: x.cur.StartLine, Err: err})
	for _, l := range x.cur.Lines() {
		x.layout = append(x.layout, segment{line: l})
	}
	x.cur, x.tracker = nil, nil
}

// store registers a finished block under its keys according to the duplicate policy.
func (x *extractor) store(b *Block) {
	kept := make([]string, 0, len(b.Keys))
	for _, k := range b.Keys {
		prev, dup := x.blocks[k]
		if !dup {
			x.blocks[k] = b
			x.order = append(x.order, k)
			kept = append(kept, k)
			continue
		}

		x.anomalies = append(x.anomalies, Anomaly{
			Kind: Collision,
			Keys: []string{k},
			Line: b.StartLine,
			Err:  fmt.Errorf("%w: %q first claimed at line %d (%s)", ErrKeyCollision, k, prev.StartLine, x.opts.Duplicates),
		})
		if x.opts.Duplicates == Overwrite {
			prev.Keys = without(prev.Keys, k)
			x.order = append(without(x.order, k), k)
			x.blocks[k] = b
			kept = append(kept, k)
		}
	}
	b.Keys = kept
	x.layout = append(x.layout, segment{block: b})
}

func (x *extractor) flushPending() {
	for _, l := range x.pending {
		x.layout = append(x.layout, segment{line: l})
	}
	x.pending = nil
}

func (x *extractor) finish() {
	if x.cur != nil {
		x.closeImplicitly(x.cur.EndLine)
	}
	x.flushPending()
}

func (x *extractor) result() *Result {
	r := &Result{
		Keys:      x.order,
		Blocks:    x.blocks,
		Anomalies: x.anomalies,
		layout:    x.layout,
	}
	for _, s := range x.layout {
		switch {
		case s.block == nil:
			r.Residual = append(r.Residual, s.line)
		case len(s.block.Keys) == 0:
			// Lost every key to a collision; its text stays in place.
			r.Residual = append(r.Residual, s.block.Lines()...)
		}
	}
	return r
}

func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// endsDeclaration reports whether a line that never opened a body finishes a
// statement, e.g. "fn f();".
func endsDeclaration(line string) bool {
	return strings.HasSuffix(strings.TrimSpace(line), ";")
}

func without(list []string, s string) []string {
	out := list[:0:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
