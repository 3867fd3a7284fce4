package planerr

// Default recovery hints for the pipeline's own failure modes.
// Retrying is always the caller's decision; these only describe options.

func init() {
	registerProblemHints()
	registerSolverHints()
}

func registerProblemHints() {
	Register("problem", ErrCodeMissingSectionMarker,
		RecoveryHint{
			Strategy:   StrategyFixConfiguration,
			Reason:     `the template must contain the line "  (:init " exactly, with LF line endings`,
			Confidence: 0.95,
			Priority:   1,
		},
		RecoveryHint{
			Strategy:   StrategyModifyParams,
			Params:     map[string]any{"manifest": "detected objects"},
			Reason:     "supplying a manifest switches to dynamic generation, which needs no template",
			Confidence: 0.7,
			Priority:   2,
		},
	)

	Register("problem", ErrCodeWriteFailed,
		RecoveryHint{
			Strategy:   StrategyFixConfiguration,
			Reason:     "the output directory must exist and be writable",
			Confidence: 0.8,
			Priority:   1,
		},
	)
}

func registerSolverHints() {
	Register("solver", ErrCodeUnsolvable,
		RecoveryHint{
			Strategy:   StrategyReobserve,
			Reason:     "a misdetected predicate often makes the initial state inconsistent",
			Confidence: 0.6,
			Priority:   1,
		},
	)

	Register("solver", ErrCodeMalformedOutput,
		RecoveryHint{
			Strategy:   StrategyFixConfiguration,
			Reason:     "a different Metric-FF build may print other plan delimiters",
			Confidence: 0.5,
			Priority:   1,
		},
		RecoveryHint{
			Strategy:   StrategyRetry,
			Reason:     "truncated output from a killed process does not recur on a clean run",
			Confidence: 0.3,
			Priority:   2,
		},
	)

	Register("solver", ErrCodeBinaryNotFound,
		RecoveryHint{
			Strategy:   StrategyFixConfiguration,
			Params:     map[string]any{"binary": "./Metric-FF-v2.1/ff"},
			Reason:     "the solver path is resolved relative to the work directory",
			Confidence: 0.8,
			Priority:   1,
		},
	)

	Register("solver", ErrCodeTimeout,
		RecoveryHint{
			Strategy:   StrategyModifyParams,
			Params:     map[string]any{"mode": 0},
			Reason:     "the default search mode is usually fastest on small stacking problems",
			Confidence: 0.4,
			Priority:   1,
		},
		RecoveryHint{
			Strategy:   StrategyRetryWithBackoff,
			Reason:     "the host may have been busy",
			Confidence: 0.3,
			Priority:   2,
		},
	)
}
