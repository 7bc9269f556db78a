// Package diagnostics reduces a build tool's unstructured diagnostic stream to
// unused-symbol records.
//
// The stream is consumed by a small state machine. A warning line names the
// symbols, a location line within the next few lines names the file position,
// and an optional source-context line follows. Noise between these lines is
// skipped; each lookahead is bounded.
package diagnostics

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ErrMissingKey reports a warning that could not be resolved to symbols or a
// file location within the lookahead window.
var ErrMissingKey = errors.New("diagnostic missing symbol or location")

var (
	warningRe = regexp.MustCompile(`warning: unused imports?:?\s*(.+)`)
	symbolRe  = regexp.MustCompile("`([^`]+)`")
	arrowRe   = regexp.MustCompile(`^\s*-->\s*(.+):(\d+):(\d+)`)
	bareLocRe = regexp.MustCompile(`^\s*(.+\.rs):(\d+):(\d+)`)
	contextRe = regexp.MustCompile(`^\s*\d+\s*\|\s*(.+)`)
)

// Windows bounds the lookahead. A window of N examines the N-1 lines that
// follow the line that opened it.
type Windows struct {
	Location int
	Context  int
}

// DefaultWindows matches cargo's usual diagnostic layout.
var DefaultWindows = Windows{Location: 10, Context: 15}

// State is the parser's position in the warning/location/context sequence.
type State int

const (
	AwaitingWarning State = iota
	AwaitingLocation
	AwaitingContext
	Done
)

func (s State) String() string {
	switch s {
	case AwaitingWarning:
		return "awaiting-warning"
	case AwaitingLocation:
		return "awaiting-location"
	case AwaitingContext:
		return "awaiting-context"
	case Done:
		return "done"
	}
	return "unknown"
}

// Record is one resolved unused-symbol diagnostic.
type Record struct {
	File    string
	Line    int
	Column  int
	Symbols []string
	// Context is the quoted source line, when the stream included one.
	Context string
}

// Problem is a dropped warning.
type Problem struct {
	// Line is the 1-based stream line of the warning.
	Line    int
	Warning string
	Err     error
}

func (p Problem) Error() string {
	return fmt.Sprintf("line %d: %v: %s", p.Line, p.Err, strings.TrimSpace(p.Warning))
}

func (p Problem) Unwrap() error { return p.Err }

// Parser is the lookahead state machine. Feed it lines in order, then call
// Finish.
type Parser struct {
	windows  Windows
	state    State
	lineNo   int
	steps    int
	pending  Record
	warnLine int
	warning  string
	records  []Record
	problems []Problem
}

// NewParser returns a parser. Non-positive windows fall back to the defaults.
func NewParser(w Windows) *Parser {
	if w.Location <= 0 {
		w.Location = DefaultWindows.Location
	}
	if w.Context <= 0 {
		w.Context = DefaultWindows.Context
	}
	return &Parser{windows: w}
}

// State returns the current state.
func (p *Parser) State() State { return p.state }

// Feed advances the machine by one line.
func (p *Parser) Feed(line string) {
	if p.state == Done {
		return
	}
	p.lineNo++

	if p.beginWarning(line) {
		return
	}

	switch p.state {
	case AwaitingLocation:
		p.steps++
		if p.steps >= p.windows.Location {
			p.drop()
			return
		}
		if file, ln, col, ok := location(line); ok {
			p.pending.File, p.pending.Line, p.pending.Column = file, ln, col
			p.state = AwaitingContext
			p.steps = 0
		}

	case AwaitingContext:
		p.steps++
		if p.steps >= p.windows.Context {
			p.complete()
			return
		}
		if m := contextRe.FindStringSubmatch(line); m != nil {
			p.pending.Context = strings.TrimSpace(m[1])
			p.complete()
		}
	}
}

// Finish resolves any pending warning and returns everything collected.
func (p *Parser) Finish() ([]Record, []Problem) {
	switch p.state {
	case AwaitingLocation:
		p.drop()
	case AwaitingContext:
		p.complete()
	}
	p.state = Done
	return p.records, p.problems
}

// beginWarning starts a new pending record when line is a warning. A record
// still waiting for its location is dropped; one waiting for context is
// completed without it.
func (p *Parser) beginWarning(line string) bool {
	m := warningRe.FindStringSubmatch(line)
	if m == nil {
		return false
	}

	switch p.state {
	case AwaitingLocation:
		p.drop()
	case AwaitingContext:
		p.complete()
	}

	var symbols []string
	for _, s := range symbolRe.FindAllStringSubmatch(m[1], -1) {
		symbols = append(symbols, s[1])
	}
	if len(symbols) == 0 {
		p.problems = append(p.problems, Problem{Line: p.lineNo, Warning: line, Err: ErrMissingKey})
		p.state = AwaitingWarning
		return true
	}

	p.pending = Record{Symbols: symbols}
	p.warnLine = p.lineNo
	p.warning = line
	p.steps = 0
	p.state = AwaitingLocation
	return true
}

func (p *Parser) drop() {
	p.problems = append(p.problems, Problem{Line: p.warnLine, Warning: p.warning, Err: ErrMissingKey})
	p.pending = Record{}
	p.state = AwaitingWarning
}

func (p *Parser) complete() {
	p.records = append(p.records, p.pending)
	p.pending = Record{}
	p.state = AwaitingWarning
}

func location(line string) (string, int, int, bool) {
	m := arrowRe.FindStringSubmatch(line)
	if m == nil {
		m = bareLocRe.FindStringSubmatch(line)
	}
	if m == nil {
		return "", 0, 0, false
	}
	ln, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, 0, false
	}
	col, err := strconv.Atoi(m[3])
	if err != nil {
		return "", 0, 0, false
	}
	return strings.TrimSpace(m[1]), ln, col, true
}

// ParseLines runs a parser over lines.
func ParseLines(lines []string, w Windows) ([]Record, []Problem) {
	p := NewParser(w)
	for _, l := range lines {
		p.Feed(l)
	}
	return p.Finish()
}

// Parse buffers r fully and parses it.
func Parse(r io.Reader, w Windows) ([]Record, []Problem, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read diagnostics: %w", err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	records, problems := ParseLines(strings.Split(text, "\n"), w)
	return records, problems, nil
}
