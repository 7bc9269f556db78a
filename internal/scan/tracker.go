package scan

// Tracker counts delimiter depth across successive lines of input. String and
// escape state carry over line boundaries, so a literal spanning two lines
// does not disturb the count.
//
// A Tracker is per-invocation state: create one for each block being
// accumulated and discard it when the block closes.
type Tracker struct {
	pair     Pair
	depth    int
	opened   bool
	inString bool
	escaped  bool
}

// NewTracker returns a tracker for the given pair.
func NewTracker(p Pair) *Tracker {
	return &Tracker{pair: p}
}

// Feed consumes one line and returns the depth after it.
func (t *Tracker) Feed(line string) int {
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if t.escaped {
			t.escaped = false
			continue
		}
		if ch == '\\' {
			t.escaped = true
			continue
		}
		if ch == '"' {
			t.inString = !t.inString
			continue
		}
		if t.inString {
			continue
		}
		switch ch {
		case t.pair.Open:
			t.depth++
			t.opened = true
		case t.pair.Close:
			if t.opened {
				t.depth--
			}
		}
	}
	// A trailing backslash escapes the newline, not the next line's first byte.
	t.escaped = false
	return t.depth
}

// Depth returns the current depth.
func (t *Tracker) Depth() int { return t.depth }

// Opened reports whether an opener has been seen.
func (t *Tracker) Opened() bool { return t.opened }

// Closed reports whether the tracked construct opened and returned to zero.
func (t *Tracker) Closed() bool { return t.opened && t.depth <= 0 }
