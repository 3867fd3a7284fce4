// Package exec runs external commands and captures their output.
// It wraps os/exec with a context-aware API used to drive the planner binary.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the configuration for command execution.
type Config struct {
	// Command is the name or path of the command to execute (required)
	Command string

	// Args are the command-line arguments (optional)
	Args []string

	// WorkDir is the working directory for the command (optional)
	WorkDir string

	// Env specifies the environment in "KEY=value" form (optional)
	// If nil, the command inherits the parent process environment
	Env []string

	// Timeout is the maximum execution duration (optional)
	// If zero, no timeout is enforced beyond the parent context
	Timeout time.Duration

	// Combined sends stdout and stderr to one buffer, interleaved in the
	// order the process wrote them. Result.Stdout and Result.Stderr stay empty.
	Combined bool
}

// Result holds the result of command execution.
type Result struct {
	// Stdout contains the captured stdout
	Stdout []byte

	// Stderr contains the captured stderr
	Stderr []byte

	// CombinedOutput contains both streams when Config.Combined is set
	CombinedOutput []byte

	// ExitCode is the process exit code
	ExitCode int

	// Duration is the actual execution time
	Duration time.Duration
}

// ErrTimeout is wrapped when the configured timeout expires.
var ErrTimeout = errors.New("command timed out")

// ErrCancelled is wrapped when the parent context is cancelled.
var ErrCancelled = errors.New("command cancelled")

// Run executes a command with the given configuration and blocks until the
// process exits.
//
// A non-zero exit code is not treated as an error: the Result is returned
// with ExitCode set so the caller can inspect the output. Only failures to
// run the process at all (binary not found, permission denied, timeout,
// cancellation) return an error, together with whatever output was captured.
//
// Example:
//
//	res, err := exec.Run(ctx, exec.Config{
//		Command:  "./Metric-FF-v2.1/ff",
//		Args:     []string{"-o", "domain.pddl", "-f", "problem.pddl", "-s", "0"},
//		WorkDir:  "/srv/pddl",
//		Combined: true,
//	})
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Command == "" {
		return nil, errors.New("command is required")
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)

	if cfg.WorkDir != "" {
		cmd.Dir = cfg.WorkDir
	}

	if cfg.Env != nil {
		cmd.Env = cfg.Env
	}

	var stdout, stderr, combined bytes.Buffer
	if cfg.Combined {
		cmd.Stdout = &combined
		cmd.Stderr = &combined
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	result := &Result{
		Stdout:         stdout.Bytes(),
		Stderr:         stderr.Bytes(),
		CombinedOutput: combined.Bytes(),
		Duration:       duration,
	}

	if err != nil {
		switch ctx.Err() {
		case context.DeadlineExceeded:
			if cfg.Timeout > 0 {
				return result, fmt.Errorf("%w after %v", ErrTimeout, cfg.Timeout)
			}
			return result, ErrTimeout
		case context.Canceled:
			return result, ErrCancelled
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}

		return result, fmt.Errorf("command execution failed: %w", err)
	}

	return result, nil
}

// Resolve locates a binary the way Run will start it. Names without a path
// separator are looked up in PATH. Paths are taken relative to workDir when
// not absolute, and must point at an executable regular file.
func Resolve(name, workDir string) (string, error) {
	if name == "" {
		return "", errors.New("binary name is required")
	}

	if !strings.ContainsRune(name, filepath.Separator) && !strings.ContainsRune(name, '/') {
		path, err := exec.LookPath(name)
		if err != nil {
			return "", fmt.Errorf("binary %q not found in PATH: %w", name, err)
		}
		return path, nil
	}

	path := name
	if !filepath.IsAbs(path) && workDir != "" {
		path = filepath.Join(workDir, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("binary %q not found: %w", path, err)
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return "", fmt.Errorf("binary %q is not an executable file", path)
	}
	return path, nil
}

// ErrNotFound is wrapped when a bare command name is not found in PATH.
var ErrNotFound = exec.ErrNotFound
