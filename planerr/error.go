package planerr

import (
	"errors"
	"fmt"
	"strings"
)

// Standard error codes used across the pipeline.
const (
	// ErrCodeMissingSectionMarker indicates a template lacks the exact init marker line
	ErrCodeMissingSectionMarker = "MISSING_SECTION_MARKER"

	// ErrCodeUnsolvable indicates the solver determined no plan exists
	ErrCodeUnsolvable = "UNSOLVABLE"

	// ErrCodeMalformedOutput indicates solver output could not be classified or parsed
	ErrCodeMalformedOutput = "MALFORMED_OUTPUT"

	// ErrCodeBinaryNotFound indicates the solver binary is missing or not executable
	ErrCodeBinaryNotFound = "BINARY_NOT_FOUND"

	// ErrCodeExecutionFailed indicates the solver process could not be run
	ErrCodeExecutionFailed = "EXECUTION_FAILED"

	// ErrCodeTimeout indicates the caller's deadline expired during a solve
	ErrCodeTimeout = "TIMEOUT"

	// ErrCodeInvalidInput indicates invalid observations, manifest or options
	ErrCodeInvalidInput = "INVALID_INPUT"

	// ErrCodeWriteFailed indicates the problem file could not be written
	ErrCodeWriteFailed = "WRITE_FAILED"
)

// Error is a structured error for planning operations.
type Error struct {
	// Component is the pipeline component that raised the error (e.g. "problem", "solver")
	Component string

	// Operation is the specific operation that failed
	Operation string

	// Code is a standard error code constant
	Code string

	// Message is a human-readable error message
	Message string

	// Details contains additional context as key-value pairs
	Details map[string]any

	// Cause is the underlying error
	Cause error

	// Class categorizes the error by its nature
	Class ErrorClass `json:"class,omitempty"`

	// Hints provides recovery suggestions for this error
	Hints []RecoveryHint `json:"hints,omitempty"`
}

// New creates a new structured error.
//
// Example:
//
//	err := planerr.New("solver", "run", planerr.ErrCodeBinaryNotFound, "ff binary not found")
func New(component, operation, code, message string) *Error {
	return &Error{
		Component: component,
		Operation: operation,
		Code:      code,
		Message:   message,
	}
}

// WithCause sets the underlying error and returns the same instance.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithDetails sets additional context and returns the same instance.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// WithClass sets the error classification and returns the same instance.
func (e *Error) WithClass(class ErrorClass) *Error {
	e.Class = class
	return e
}

// WithHints appends recovery suggestions and returns the same instance.
func (e *Error) WithHints(hints ...RecoveryHint) *Error {
	e.Hints = append(e.Hints, hints...)
	return e
}

// Error implements the error interface.
// It formats the error as: "component [operation/code]: message: cause"
//
// Examples:
//   - "problem [patch/MISSING_SECTION_MARKER]: template has no init section marker"
//   - "solver [run/EXECUTION_FAILED]: command execution failed: exit status 1"
func (e *Error) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("%s [%s/%s]", e.Component, e.Operation, e.Code))

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports equality for errors.Is.
// Two Error values match when Component, Operation and Code are equal.
// A target with an empty Operation matches any operation of the component.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Component != t.Component || e.Code != t.Code {
		return false
	}
	return t.Operation == "" || e.Operation == t.Operation
}

// HasCode reports whether err, or any error it wraps, is an *Error with the given code.
func HasCode(err error, code string) bool {
	var pe *Error
	for err != nil {
		if errors.As(err, &pe) {
			if pe.Code == code {
				return true
			}
			err = pe.Cause
			continue
		}
		return false
	}
	return false
}

// CodeOf returns the code of the outermost *Error in err's chain, or "".
func CodeOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// Sentinel errors for common scenarios.
var (
	// ErrBinaryNotFound is wrapped when the solver binary cannot be located
	ErrBinaryNotFound = errors.New("binary not found")

	// ErrTimeout is wrapped when a solve exceeds its deadline
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidInput is wrapped when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
