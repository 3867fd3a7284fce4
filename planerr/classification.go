package planerr

// ErrorClass categorizes errors by their nature so callers can decide
// whether to retry, re-observe, or stop.
type ErrorClass string

const (
	// ErrorClassInfrastructure indicates environment or setup issues
	// Examples: solver binary missing, domain file missing, unwritable output dir
	ErrorClassInfrastructure ErrorClass = "infrastructure"

	// ErrorClassSemantic indicates input or configuration issues
	// Examples: broken template, bad manifest, solver output format drift
	ErrorClassSemantic ErrorClass = "semantic"

	// ErrorClassTransient indicates failures that may resolve on their own
	// Examples: caller deadline expired, process killed
	ErrorClassTransient ErrorClass = "transient"

	// ErrorClassPermanent indicates the same input will always fail
	// Examples: the problem is provably unsolvable
	ErrorClassPermanent ErrorClass = "permanent"
)

// RecoveryStrategy defines the kind of action that may resolve an error.
type RecoveryStrategy string

const (
	// StrategyRetry indicates the operation can be retried as-is
	StrategyRetry RecoveryStrategy = "retry"

	// StrategyRetryWithBackoff indicates retry after a delay
	StrategyRetryWithBackoff RecoveryStrategy = "retry_with_backoff"

	// StrategyModifyParams indicates changing parameters may help
	StrategyModifyParams RecoveryStrategy = "modify_params"

	// StrategyReobserve indicates the world state should be perceived again
	// and the problem re-synthesized before the next attempt
	StrategyReobserve RecoveryStrategy = "reobserve"

	// StrategyFixConfiguration indicates a static configuration defect
	StrategyFixConfiguration RecoveryStrategy = "fix_configuration"

	// StrategySkip indicates the operation can be safely skipped
	StrategySkip RecoveryStrategy = "skip"
)

// RecoveryHint is a concrete suggestion for recovering from an error.
type RecoveryHint struct {
	// Strategy indicates the type of recovery action
	Strategy RecoveryStrategy `json:"strategy"`

	// Params contains suggested parameter changes for StrategyModifyParams
	Params map[string]any `json:"params,omitempty"`

	// Reason explains why this approach might succeed
	Reason string `json:"reason"`

	// Confidence indicates the likelihood of success (0.0 to 1.0)
	Confidence float64 `json:"confidence"`

	// Priority determines the order to try hints (lower = try first)
	Priority int `json:"priority"`
}

// DefaultClassForCode returns the default error class for a code.
func DefaultClassForCode(code string) ErrorClass {
	switch code {
	case ErrCodeBinaryNotFound, ErrCodeWriteFailed:
		return ErrorClassInfrastructure
	case ErrCodeMissingSectionMarker, ErrCodeInvalidInput, ErrCodeMalformedOutput:
		return ErrorClassSemantic
	case ErrCodeUnsolvable:
		return ErrorClassPermanent
	case ErrCodeTimeout, ErrCodeExecutionFailed:
		return ErrorClassTransient
	default:
		return ErrorClassTransient
	}
}
