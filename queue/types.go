package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/zero-day-ai/ffplan/predicate"
	"github.com/zero-day-ai/ffplan/problem"
)

// PlanRequest is one planning job submitted to the request queue.
type PlanRequest struct {
	// ID correlates the request with its reply channel
	ID string `json:"id"`

	// Observations are the perceived facts, as an ordered JSON object
	Observations predicate.Observations `json:"observations"`

	// Manifest selects dynamic generation when present; otherwise the
	// worker's template is patched
	Manifest problem.Manifest `json:"manifest,omitempty"`

	// ProblemFile is the problem file name inside the worker's work
	// directory. Empty uses the worker's configured output
	ProblemFile string `json:"problem_file,omitempty"`

	// Mode is the solver search mode. Nil uses the worker's configured mode
	Mode *int `json:"mode,omitempty"`

	// TraceID is the distributed tracing trace ID of the submitter
	TraceID string `json:"trace_id,omitempty"`

	// SubmittedAt is the Unix timestamp in milliseconds when the request was submitted
	SubmittedAt int64 `json:"submitted_at"`
}

// PlanReply is the outcome of a PlanRequest, published on ReplyChannel(ID).
type PlanReply struct {
	// ID correlates this reply with the request
	ID string `json:"id"`

	// Outcome is "plan", "unsolvable" or "malformed_output".
	// Empty if Error is set
	Outcome string `json:"outcome,omitempty"`

	// Actions is the plan in execution order, for outcome "plan"
	Actions []string `json:"actions,omitempty"`

	// Diagnostic explains a non-plan outcome
	Diagnostic string `json:"diagnostic,omitempty"`

	// Error is set when the request failed before the solver ran
	Error string `json:"error,omitempty"`

	// ErrorCode is the structured error code of Error, when known
	ErrorCode string `json:"error_code,omitempty"`

	// WorkerID is the unique identifier of the worker that processed the request
	WorkerID string `json:"worker_id"`

	// StartedAt is the Unix timestamp in milliseconds when processing started
	StartedAt int64 `json:"started_at"`

	// CompletedAt is the Unix timestamp in milliseconds when processing completed
	CompletedAt int64 `json:"completed_at"`
}

// ReplyChannel returns the pub/sub channel replies for id are published on.
func ReplyChannel(id string) string {
	return formatKeyName("replies", id)
}

// IsValid checks if the PlanRequest has all required fields populated correctly.
// Returns an error describing any validation failures.
func (r *PlanRequest) IsValid() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if r.Mode != nil && *r.Mode < 0 {
		return fmt.Errorf("mode must be non-negative, got %d", *r.Mode)
	}
	if r.ProblemFile != "" {
		if strings.ContainsAny(r.ProblemFile, `/\`) || r.ProblemFile == "." || r.ProblemFile == ".." {
			return fmt.Errorf("problem_file must be a plain file name, got %q", r.ProblemFile)
		}
	}
	if r.Manifest != nil {
		if err := r.Manifest.Validate(); err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
	}
	if r.SubmittedAt <= 0 {
		return fmt.Errorf("submitted_at must be positive, got %d", r.SubmittedAt)
	}
	return nil
}

// Age returns the duration since this request was submitted.
// Useful for detecting stale requests and computing queue wait time.
func (r *PlanRequest) Age() time.Duration {
	if r.SubmittedAt <= 0 {
		return 0
	}
	now := time.Now().UnixMilli()
	return time.Duration(now-r.SubmittedAt) * time.Millisecond
}

// HasError returns true if the request failed before the solver ran.
func (r *PlanReply) HasError() bool {
	return r.Error != ""
}

// HasPlan returns true if the reply carries a plan.
func (r *PlanReply) HasPlan() bool {
	return !r.HasError() && r.Outcome == "plan"
}

// Duration returns the wall-clock time the worker spent on the request.
func (r *PlanReply) Duration() time.Duration {
	if r.StartedAt <= 0 || r.CompletedAt <= 0 {
		return 0
	}
	return time.Duration(r.CompletedAt-r.StartedAt) * time.Millisecond
}

// IsValid checks if the PlanReply has all required fields populated correctly.
func (r *PlanReply) IsValid() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if r.WorkerID == "" {
		return fmt.Errorf("worker_id is required")
	}
	if r.StartedAt <= 0 {
		return fmt.Errorf("started_at must be positive, got %d", r.StartedAt)
	}
	if r.CompletedAt <= 0 {
		return fmt.Errorf("completed_at must be positive, got %d", r.CompletedAt)
	}
	if r.CompletedAt < r.StartedAt {
		return fmt.Errorf("completed_at (%d) cannot be before started_at (%d)", r.CompletedAt, r.StartedAt)
	}
	if !r.HasError() {
		switch r.Outcome {
		case "plan", "unsolvable", "malformed_output":
		default:
			return fmt.Errorf("outcome %q is not one of plan, unsolvable, malformed_output", r.Outcome)
		}
	}
	return nil
}
