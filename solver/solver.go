// Package solver runs an external classical planner and classifies its output.
//
// The planner is a black box behind the Solver interface: it receives a
// domain path, a problem path and a search mode, and returns raw text.
// Classify turns that text into a Result tagged plan, unsolvable or
// malformed output, so the classification logic can be exercised against
// synthetic output without any binary.
package solver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/zero-day-ai/ffplan/exec"
	"github.com/zero-day-ai/ffplan/planerr"
)

// Invocation names the inputs of one solve.
type Invocation struct {
	Domain  string
	Problem string
	Mode    int
}

// RawOutput is the unclassified result of one solve.
type RawOutput struct {
	Text     string
	ExitCode int
	Duration time.Duration
}

// Solver produces raw planner output for an invocation.
type Solver interface {
	Solve(ctx context.Context, inv Invocation) (RawOutput, error)
}

// Func adapts a function to the Solver interface.
type Func func(ctx context.Context, inv Invocation) (RawOutput, error)

// Solve calls f.
func (f Func) Solve(ctx context.Context, inv Invocation) (RawOutput, error) {
	return f(ctx, inv)
}

// Static returns a Solver that always answers with text.
func Static(text string) Solver {
	return Func(func(context.Context, Invocation) (RawOutput, error) {
		return RawOutput{Text: text}, nil
	})
}

// DefaultBinary is the Metric-FF build location used by the lab setup.
const DefaultBinary = "./Metric-FF-v2.1/ff"

// FF runs the Metric-FF binary:
//
//	<Binary> -o <domain> -f <problem> -s <mode>
//
// One process per call, no retries. FF blocks until the process exits; a
// hung planner hangs the caller unless ctx or Timeout bounds it.
type FF struct {
	// Binary is the planner executable. Default DefaultBinary.
	Binary string

	// Dir is the process working directory. Relative Binary paths resolve
	// against it. Empty means the current directory.
	Dir string

	// Timeout bounds each solve when positive. Zero means no limit.
	Timeout time.Duration

	// Env replaces the process environment when non-nil.
	Env []string
}

// Args returns the command-line arguments for inv.
func (f *FF) Args(inv Invocation) []string {
	return []string{"-o", inv.Domain, "-f", inv.Problem, "-s", strconv.Itoa(inv.Mode)}
}

func (f *FF) binary() string {
	if f.Binary == "" {
		return DefaultBinary
	}
	return f.Binary
}

// Solve runs the planner and returns its combined stdout and stderr with a
// single trailing newline removed. A non-zero exit status is not an error:
// the planner exits non-zero on unsolvable problems and the text decides.
func (f *FF) Solve(ctx context.Context, inv Invocation) (RawOutput, error) {
	if inv.Domain == "" || inv.Problem == "" {
		return RawOutput{}, planerr.New("solver", "solve", planerr.ErrCodeInvalidInput,
			"domain and problem paths are required")
	}
	if inv.Mode < 0 {
		return RawOutput{}, planerr.New("solver", "solve", planerr.ErrCodeInvalidInput,
			fmt.Sprintf("search mode must be non-negative, got %d", inv.Mode))
	}

	res, err := exec.Run(ctx, exec.Config{
		Command:  f.binary(),
		Args:     f.Args(inv),
		WorkDir:  f.Dir,
		Env:      f.Env,
		Timeout:  f.Timeout,
		Combined: true,
	})

	var out RawOutput
	if res != nil {
		out = RawOutput{
			Text:     strings.TrimSuffix(string(res.CombinedOutput), "\n"),
			ExitCode: res.ExitCode,
			Duration: res.Duration,
		}
	}
	if err != nil {
		return out, runError(ctx, f.binary(), err)
	}
	return out, nil
}

func runError(ctx context.Context, binary string, err error) *planerr.Error {
	details := map[string]any{"binary": binary}
	switch {
	case ctx.Err() != nil:
		code := planerr.ErrCodeExecutionFailed
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			code = planerr.ErrCodeTimeout
		}
		return planerr.EnrichError(planerr.New("solver", "solve", code, "planner run interrupted").
			WithCause(ctx.Err()).WithDetails(details))
	case errors.Is(err, exec.ErrTimeout):
		return planerr.EnrichError(planerr.New("solver", "solve", planerr.ErrCodeTimeout, "planner timed out").
			WithCause(err).WithDetails(details))
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return planerr.EnrichError(planerr.New("solver", "solve", planerr.ErrCodeBinaryNotFound,
			"planner binary could not be started").WithCause(err).WithDetails(details))
	default:
		return planerr.EnrichError(planerr.New("solver", "solve", planerr.ErrCodeExecutionFailed,
			"planner could not be run").WithCause(err).WithDetails(details))
	}
}
