package solver

import (
	"fmt"
	"strings"

	"github.com/zero-day-ai/ffplan/parser"
	"github.com/zero-day-ai/ffplan/planerr"
)

// Output conventions of Metric-FF. These are an external contract and are
// matched literally.
const (
	UnsolvableMarker      = "unsolvable"
	SimplifiedFalseMarker = "goal can be simplified to FALSE"
	PlanStartDelimiter    = "ff: found legal plan as follows\n"
	PlanEndDelimiter      = "\ntime spent:"
)

// Classify maps raw solver output to an outcome. The checks run in order:
//
//  1. an unsolvability marker anywhere gives OutcomeUnsolvable;
//  2. the text between PlanStartDelimiter and the next PlanEndDelimiter,
//     with empty lines dropped, is parsed as the plan trace;
//  3. anything else, including a trace that fails to parse, gives
//     OutcomeMalformedOutput.
//
// Classify never fails; every input maps to exactly one outcome.
func Classify(raw string) Result {
	if strings.Contains(raw, UnsolvableMarker) || strings.Contains(raw, SimplifiedFalseMarker) {
		return failure(OutcomeUnsolvable, raw, planerr.ErrCodeUnsolvable,
			fmt.Sprintf("The planner failed because the problem is unsolvable: %s", raw), nil)
	}

	start := strings.Index(raw, PlanStartDelimiter)
	if start < 0 {
		return failure(OutcomeMalformedOutput, raw, planerr.ErrCodeMalformedOutput,
			fmt.Sprintf("The planner output has no %q line.\nThe output of the planner was:\n%s",
				strings.TrimSuffix(PlanStartDelimiter, "\n"), raw), nil)
	}
	rest := raw[start+len(PlanStartDelimiter):]

	end := strings.Index(rest, PlanEndDelimiter)
	if end < 0 {
		return failure(OutcomeMalformedOutput, raw, planerr.ErrCodeMalformedOutput,
			fmt.Sprintf("The planner output has no %q after the plan.\nThe output of the planner was:\n%s",
				strings.TrimPrefix(PlanEndDelimiter, "\n"), raw), nil)
	}

	actions, err := parser.ParseTrace(rest[:end])
	if err != nil {
		return failure(OutcomeMalformedOutput, raw, planerr.ErrCodeMalformedOutput,
			fmt.Sprintf("The planner failed because of: %v.\nThe output of the planner was:\n%s", err, raw), err)
	}

	return success(raw, actions)
}

func success(raw string, actions []string) Result {
	st, _ := parser.ParseStats(raw)
	return Result{
		Outcome: OutcomePlan,
		Plan:    NewPlan(actions),
		Raw:     raw,
		Stats:   st,
	}
}

func failure(outcome Outcome, raw, code, diagnostic string, cause error) Result {
	err := planerr.EnrichError(planerr.New("solver", "classify", code, outcome.String()).
		WithDetails(map[string]any{"output_bytes": len(raw)}).
		WithCause(cause))
	return Result{
		Outcome:    outcome,
		Raw:        raw,
		Diagnostic: diagnostic,
		Err:        err,
	}
}
