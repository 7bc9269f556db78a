package scan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Scan / Enclosed / Tracker:
// - Scan from the first opener covers a balanced span with equal open/close counts
// - Text before the first opener is part of the span but not counted
// - Delimiters inside string literals are ignored
// - Escaped quotes do not toggle string state
// - Unterminated constructs report ok=false
// - Closers before the first opener are ignored
// - Enclosed returns the interior only
// - Tracker carries string state across lines and ignores leading closers

func TestScan_BalancedSpanFromOpener(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"{ a { b } c }",
		"(x, (y, z), [w])",
		"{ if x { y } else { z } } trailing",
		"{\n  match a {\n    1 => {},\n  }\n}",
	}

	for _, in := range inputs {
		in := in
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			p, ok := PairFor(in[0])
			require.True(t, ok)

			span, ok := Scan(in, 0, p)
			require.True(t, ok)

			text := span.Text(in)
			assert.Greater(t, span.Len(), 0)
			assert.Equal(t, strings.Count(text, string(p.Open)), strings.Count(text, string(p.Close)))
			assert.Equal(t, p.Close, text[len(text)-1])
		})
	}
}

func TestScan_IncludesPrefixBeforeOpener(t *testing.T) {
	t.Parallel()

	// Test: the call name is part of the span, counting starts at '('
	buf := `let v = compute(a, b) + 1;`
	start := strings.Index(buf, "compute")

	span, ok := Scan(buf, start, Parens)
	require.True(t, ok)
	assert.Equal(t, "compute(a, b)", span.Text(buf))
}

func TestScan_IgnoresDelimitersInStrings(t *testing.T) {
	t.Parallel()

	buf := `f("a)b") + g()`
	span, ok := Scan(buf, 0, Parens)
	require.True(t, ok)
	assert.Equal(t, `f("a)b")`, span.Text(buf))
}

func TestScan_EscapedQuoteKeepsStringOpen(t *testing.T) {
	t.Parallel()

	// Test: \" inside a literal does not close it, so the ')' after it is ignored
	buf := `log("say \") now") rest`
	span, ok := Scan(buf, 0, Parens)
	require.True(t, ok)
	assert.Equal(t, `log("say \") now")`, span.Text(buf))
}

func TestScan_EscapedDelimiterIsNotCounted(t *testing.T) {
	t.Parallel()

	buf := `m(a \) b)`
	span, ok := Scan(buf, 0, Parens)
	require.True(t, ok)
	assert.Equal(t, buf, span.Text(buf))
}

func TestScan_Unterminated(t *testing.T) {
	t.Parallel()

	cases := []string{
		"fn a() { let x = 1;",
		"{ \"}\" ",
		"no opener at all",
		"",
	}
	for _, in := range cases {
		_, ok := Scan(in, 0, Braces)
		assert.False(t, ok, "input %q", in)
	}
}

func TestScan_StartOutOfRange(t *testing.T) {
	t.Parallel()

	_, ok := Scan("{}", 5, Braces)
	assert.False(t, ok)
	_, ok = Scan("{}", -1, Braces)
	assert.False(t, ok)
}

func TestScan_LeadingClosersIgnored(t *testing.T) {
	t.Parallel()

	// Test: a '}' before the first '{' does not make depth go negative
	buf := "} fn b() { x }"
	span, ok := Scan(buf, 0, Braces)
	require.True(t, ok)
	assert.Equal(t, buf, span.Text(buf))
}

func TestEnclosed_ReturnsInterior(t *testing.T) {
	t.Parallel()

	buf := `call!(a, "(", [b])`
	span, ok := Enclosed(buf, 0, Parens)
	require.True(t, ok)
	assert.Equal(t, `a, "(", [b]`, span.Text(buf))
}

func TestTracker_MultiLine(t *testing.T) {
	t.Parallel()

	tr := NewTracker(Braces)
	assert.Equal(t, 1, tr.Feed("fn a() {"))
	assert.Equal(t, 1, tr.Feed(`    let s = "multi {`))
	assert.Equal(t, 1, tr.Feed(`    line }";`))
	assert.False(t, tr.Closed())
	assert.Equal(t, 0, tr.Feed("}"))
	assert.True(t, tr.Closed())
}

func TestTracker_NotOpenedUntilOpener(t *testing.T) {
	t.Parallel()

	tr := NewTracker(Braces)
	tr.Feed("} stray")
	assert.False(t, tr.Opened())
	assert.Equal(t, 0, tr.Depth())
	assert.False(t, tr.Closed())
}
