// Command ffplan synthesizes Hanoi problem files, runs Metric-FF on them
// and prints the resulting plans. It can also serve plan requests from a
// Redis queue.
//
// Usage:
//
//	ffplan plan --observations obs.yaml
//	ffplan plan --observations obs.yaml --manifest objects.yaml --problem p1.pddl --json
//	ffplan synth --observations obs.yaml
//	ffplan check
//	ffplan worker
//
// Exit codes: 0 plan found, 1 error, 2 unsolvable, 3 malformed solver output.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCmd().Execute()
	if err == nil {
		return
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

// exitError ends the process with a specific code. Its message has
// already been printed.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
