package extract

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/carve/internal/scan"
)

// Call is one invocation of a function or macro found in a buffer.
type Call struct {
	Name string
	// Span covers the callee name through the closing delimiter.
	Span scan.Span
	// Line is the 1-based line of the callee name.
	Line int
	Args []string
}

// Calls finds every invocation of callee in buf (callee(...), callee!(...),
// callee![...], callee!{...}) and splits its arguments. Occurrences inside
// string literals or embedded in longer identifiers are skipped. An
// unterminated call is reported and scanning resumes after its name.
func Calls(buf, callee string) ([]Call, []Anomaly) {
	var (
		calls     []Call
		anomalies []Anomaly
	)
	if callee == "" {
		return nil, nil
	}

	for _, at := range occurrences(buf, callee) {
		i := skipSpace(buf, at+len(callee))
		if i < len(buf) && buf[i] == '!' {
			i = skipSpace(buf, i+1)
		}
		if i >= len(buf) {
			continue
		}
		p, ok := scan.PairFor(buf[i])
		if !ok {
			continue
		}

		line := 1 + strings.Count(buf[:at], "\n")
		span, ok := scan.Scan(buf, at, p)
		if !ok {
			anomalies = append(anomalies, Anomaly{
				Kind: Unterminated,
				Keys: []string{callee},
				Line: line,
				Err:  fmt.Errorf("%w: call to %s", ErrStructuralImbalance, callee),
			})
			continue
		}
		args, _ := scan.SplitEnclosed(buf, i, p)
		calls = append(calls, Call{Name: callee, Span: span, Line: line, Args: args})
	}
	return calls, anomalies
}

// occurrences returns the offsets of callee outside string literals and not
// embedded in a longer identifier.
func occurrences(buf, callee string) []int {
	var (
		out      []int
		inString bool
		escaped  bool
	)
	for i := 0; i < len(buf); i++ {
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
		if inString || !strings.HasPrefix(buf[i:], callee) {
			continue
		}
		if i > 0 && isIdent(buf[i-1]) {
			continue
		}
		if end := i + len(callee); end < len(buf) && isIdent(buf[end]) {
			continue
		}
		out = append(out, i)
		i += len(callee) - 1
	}
	return out
}

func skipSpace(buf string, i int) int {
	for i < len(buf) && (buf[i] == ' ' || buf[i] == '\t' || buf[i] == '\n' || buf[i] == '\r') {
		i++
	}
	return i
}

func isIdent(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
