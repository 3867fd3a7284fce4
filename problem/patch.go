package problem

import (
	"strings"

	"github.com/zero-day-ai/ffplan/planerr"
)

// ErrMissingSectionMarker matches, via errors.Is, every error returned when
// a template has no InitMarker line.
var ErrMissingSectionMarker = &planerr.Error{
	Component: "problem",
	Code:      planerr.ErrCodeMissingSectionMarker,
}

// Patch inserts facts right after the template's InitMarker line, in the
// given order, each on its own line indented like generated problems.
// No template line is removed. Only the first marker line is used.
func Patch(template []byte, facts []string) ([]byte, error) {
	lines := strings.SplitAfter(string(template), "\n")

	at := -1
	for i, l := range lines {
		if l == InitMarker {
			at = i
			break
		}
	}
	if at < 0 {
		return nil, planerr.EnrichError(planerr.New("problem", "patch", planerr.ErrCodeMissingSectionMarker,
			"template has no init section marker line").
			WithDetails(map[string]any{"marker": InitMarker}))
	}

	var b strings.Builder
	b.Grow(len(template) + 32*len(facts))
	for _, l := range lines[:at+1] {
		b.WriteString(l)
	}
	for _, f := range facts {
		b.WriteString("    " + f + "\n")
	}
	for _, l := range lines[at+1:] {
		b.WriteString(l)
	}
	return []byte(b.String()), nil
}
