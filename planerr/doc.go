// Package planerr provides structured error types for the planning pipeline.
//
// # Overview
//
// Every failure the pipeline can report carries the component that raised it,
// the operation that failed, a standard error code and an optional cause.
// The type integrates with the standard errors package for wrapping and
// unwrapping.
//
// # Error Codes
//
//   - ErrCodeMissingSectionMarker: template has no init marker line
//   - ErrCodeUnsolvable: the solver proved no plan exists
//   - ErrCodeMalformedOutput: solver output matched no known shape
//   - ErrCodeBinaryNotFound: solver binary could not be started
//   - ErrCodeExecutionFailed: solver process failed to run
//   - ErrCodeTimeout: caller deadline expired while solving
//   - ErrCodeInvalidInput: observations or manifest are unusable
//   - ErrCodeWriteFailed: problem file could not be written
//
// # Usage
//
//	err := planerr.New("problem", "patch", planerr.ErrCodeMissingSectionMarker,
//	    "template has no init section marker").
//	    WithDetails(map[string]any{"template": path})
//
//	var pe *planerr.Error
//	if errors.As(err, &pe) && pe.Code == planerr.ErrCodeMissingSectionMarker {
//	    // static configuration defect, stop the pipeline
//	}
//
// Unsolvable and malformed outcomes are normally reported as solver results,
// not returned as errors. The codes exist so those results can carry a cause
// with a class and recovery hints attached (see EnrichError).
package planerr
