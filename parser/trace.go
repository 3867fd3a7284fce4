package parser

import (
	"errors"
	"fmt"
	"strings"
)

// StepSeparator divides a step index from its action, as in "3: STACK C1 C2".
const StepSeparator = ": "

// ErrMalformedTrace is wrapped when a trace line has no step separator.
var ErrMalformedTrace = errors.New("malformed plan trace")

// ParseTrace converts a plan trace into action tokens, one per non-empty
// line, in line order. Only empty lines are skipped; a line of spaces is a
// step without a separator. Each line is cut at its first StepSeparator and the
// trimmed remainder is the action. A single line without the separator fails
// the whole trace; no partial result is returned.
func ParseTrace(text string) ([]string, error) {
	var actions []string
	for n, line := range strings.Split(text, "\n") {
		if line == "" {
			continue
		}
		_, action, ok := strings.Cut(line, StepSeparator)
		if !ok {
			return nil, fmt.Errorf("%w: line %d %q has no %q separator", ErrMalformedTrace, n+1, line, StepSeparator)
		}
		actions = append(actions, strings.TrimSpace(action))
	}
	return actions, nil
}
