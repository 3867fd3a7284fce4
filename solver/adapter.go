package solver

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/zero-day-ai/ffplan/planerr"
)

// DefaultDomainFile is the domain file expected inside the PDDL directory.
const DefaultDomainFile = "domain.pddl"

// Adapter runs a Solver against files in a PDDL directory and classifies
// the output.
type Adapter struct {
	Solver Solver

	// Dir holds the domain file and the problem files.
	Dir string

	// DomainFile is the domain file name inside Dir. Default "domain.pddl".
	DomainFile string
}

// Invocation returns the invocation for a problem file in Dir. Absolute
// problem paths are used as given.
func (a *Adapter) Invocation(problemFile string, mode int) Invocation {
	domain := a.DomainFile
	if domain == "" {
		domain = DefaultDomainFile
	}
	return Invocation{
		Domain:  a.path(domain),
		Problem: a.path(problemFile),
		Mode:    mode,
	}
}

func (a *Adapter) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(a.Dir, name)
}

// Run solves problemFile and classifies the result.
//
// Unsolvable and malformed output are results, not errors. A solver that
// cannot be run at all also yields OutcomeMalformedOutput, with Err holding
// the cause. The returned error is non-nil only when ctx ended first; the
// caller imposed that bound and should see it as such.
func (a *Adapter) Run(ctx context.Context, problemFile string, mode int) (Result, error) {
	if a.Solver == nil {
		return Result{}, planerr.New("solver", "run", planerr.ErrCodeInvalidInput, "no solver configured")
	}

	raw, err := a.Solver.Solve(ctx, a.Invocation(problemFile, mode))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{Outcome: OutcomeMalformedOutput, Raw: raw.Text, Err: err}, ctxErr
		}
		return Result{
			Outcome: OutcomeMalformedOutput,
			Raw:     raw.Text,
			Diagnostic: fmt.Sprintf("The planner could not be run: %v.\nThe output of the planner was:\n%s",
				err, raw.Text),
			Err:      err,
			Duration: raw.Duration,
		}, nil
	}

	res := Classify(raw.Text)
	res.Duration = raw.Duration
	return res, nil
}
