// Package scan locates balanced delimiter spans in source text.
//
// The scanner is deliberately shallow: it knows one string-literal dialect
// (double quotes with backslash escapes) and nothing about comments. That is
// enough to cut function bodies, match arms and call argument lists out of a
// file without building a syntax tree.
package scan

// Pair is an opening/closing delimiter pair.
type Pair struct {
	Open  byte
	Close byte
}

var (
	Parens   = Pair{Open: '(', Close: ')'}
	Braces   = Pair{Open: '{', Close: '}'}
	Brackets = Pair{Open: '[', Close: ']'}
)

// Pairs lists the three delimiter kinds tracked by Split.
var Pairs = []Pair{Parens, Braces, Brackets}

// PairFor returns the pair whose opener is b.
func PairFor(b byte) (Pair, bool) {
	for _, p := range Pairs {
		if p.Open == b {
			return p, true
		}
	}
	return Pair{}, false
}

// Span is a half-open [Start, End) range of byte offsets.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Text returns the slice of buf covered by the span.
func (s Span) Text(buf string) string { return buf[s.Start:s.End] }

// Scan returns the span from start through the delimiter that balances the
// first opener found at or after start. Text before that opener (a call name,
// a signature) is included in the span but not depth-counted.
//
// ok is false when the construct is unterminated.
func Scan(buf string, start int, p Pair) (span Span, ok bool) {
	_, end, ok := match(buf, start, p)
	if !ok {
		return Span{}, false
	}
	return Span{Start: start, End: end + 1}, true
}

// Enclosed is like Scan but returns only the interior: the bytes strictly
// between the first opener and its balancing closer.
func Enclosed(buf string, start int, p Pair) (Span, bool) {
	open, end, ok := match(buf, start, p)
	if !ok {
		return Span{}, false
	}
	return Span{Start: open + 1, End: end}, true
}

// match walks buf from start and returns the offsets of the first unquoted
// opener and its balancing closer.
func match(buf string, start int, p Pair) (open, end int, ok bool) {
	if start < 0 || start >= len(buf) {
		return -1, -1, false
	}

	var (
		depth    int
		started  bool
		inString bool
		escaped  bool
	)
	open = -1

	for i := start; i < len(buf); i++ {
		ch := buf[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case p.Open:
			if !started {
				started = true
				open = i
			}
			depth++
		case p.Close:
			if !started {
				continue
			}
			depth--
			if depth == 0 {
				return open, i, true
			}
		}
	}
	return open, -1, false
}
