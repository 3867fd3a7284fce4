package solver

import (
	"time"

	"github.com/zero-day-ai/ffplan/parser"
)

// Outcome tags how a solve ended.
type Outcome int

const (
	// OutcomePlan means a plan was found and parsed.
	OutcomePlan Outcome = iota

	// OutcomeUnsolvable means the solver proved no plan exists.
	OutcomeUnsolvable

	// OutcomeMalformedOutput means the output matched neither the success
	// nor the failure shape, or the solver could not be run.
	OutcomeMalformedOutput
)

func (o Outcome) String() string {
	switch o {
	case OutcomePlan:
		return "plan"
	case OutcomeUnsolvable:
		return "unsolvable"
	case OutcomeMalformedOutput:
		return "malformed_output"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name.
func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "plan":
		*o = OutcomePlan
	case "unsolvable":
		*o = OutcomeUnsolvable
	default:
		*o = OutcomeMalformedOutput
	}
	return nil
}

// Result is the classified outcome of one solve.
type Result struct {
	Outcome Outcome

	// Plan is set only for OutcomePlan. It may have zero steps when the
	// goal already holds.
	Plan Plan

	// Raw is the captured solver output.
	Raw string

	// Diagnostic is a human-readable explanation for non-plan outcomes.
	Diagnostic string

	// Err carries a *planerr.Error with class and recovery hints for
	// non-plan outcomes.
	Err error

	// Stats is the solver's timing report, when it printed one.
	Stats parser.Stats

	// Duration is the wall-clock time of the solver process.
	Duration time.Duration
}

// OK reports whether a plan was found.
func (r Result) OK() bool {
	return r.Outcome == OutcomePlan
}
