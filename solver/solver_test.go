package solver

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/ffplan/planerr"
)

// fakeFF writes a shell script standing in for the planner binary.
func fakeFF(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script solver requires a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "ff")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestFF_Args(t *testing.T) {
	f := &FF{}
	assert.Equal(t,
		[]string{"-o", "d.pddl", "-f", "p.pddl", "-s", "4"},
		f.Args(Invocation{Domain: "d.pddl", Problem: "p.pddl", Mode: 4}))
}

func TestFF_Solve(t *testing.T) {
	bin := fakeFF(t, `echo "ff: found legal plan as follows"
echo "step    0: PICKUP C1 $2 $4 $6"
echo "" 1>&2
echo "time spent: 0.01 seconds total time"`)

	out, err := (&FF{Binary: bin}).Solve(context.Background(),
		Invocation{Domain: "d.pddl", Problem: "p.pddl", Mode: 2})
	require.NoError(t, err)

	assert.Equal(t, "ff: found legal plan as follows\nstep    0: PICKUP C1 d.pddl p.pddl 2\n\ntime spent: 0.01 seconds total time", out.Text)
	assert.Equal(t, 0, out.ExitCode)

	res := Classify(out.Text)
	require.Equal(t, OutcomePlan, res.Outcome)
	assert.Equal(t, []string{"PICKUP C1 d.pddl p.pddl 2"}, res.Plan.Strings())
}

func TestFF_NonZeroExitIsNotAnError(t *testing.T) {
	bin := fakeFF(t, `echo "problem proven unsolvable."
exit 1`)

	out, err := (&FF{Binary: bin}).Solve(context.Background(), Invocation{Domain: "d", Problem: "p"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.ExitCode)
	assert.Equal(t, OutcomeUnsolvable, Classify(out.Text).Outcome)
}

func TestFF_MissingBinary(t *testing.T) {
	f := &FF{Binary: filepath.Join(t.TempDir(), "missing", "ff")}

	_, err := f.Solve(context.Background(), Invocation{Domain: "d", Problem: "p"})
	require.Error(t, err)
	assert.True(t, planerr.HasCode(err, planerr.ErrCodeBinaryNotFound), err.Error())
}

func TestFF_Timeout(t *testing.T) {
	bin := fakeFF(t, "exec sleep 5")

	start := time.Now()
	_, err := (&FF{Binary: bin, Timeout: 100 * time.Millisecond}).Solve(context.Background(),
		Invocation{Domain: "d", Problem: "p"})
	require.Error(t, err)
	assert.True(t, planerr.HasCode(err, planerr.ErrCodeTimeout), err.Error())
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestFF_InvalidInvocation(t *testing.T) {
	f := &FF{Binary: "ff"}

	_, err := f.Solve(context.Background(), Invocation{Problem: "p"})
	assert.True(t, planerr.HasCode(err, planerr.ErrCodeInvalidInput))

	_, err = f.Solve(context.Background(), Invocation{Domain: "d", Problem: "p", Mode: -1})
	assert.True(t, planerr.HasCode(err, planerr.ErrCodeInvalidInput))
}
