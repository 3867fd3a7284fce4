package planerr

import (
	"sync"
)

// RecoveryRegistry stores recovery hints per component and error code.
//
// The registry uses a nested map: component -> errorCode -> []RecoveryHint.
type RecoveryRegistry struct {
	mu       sync.RWMutex
	registry map[string]map[string][]RecoveryHint
}

// globalRegistry backs Register, GetHints and EnrichError.
var globalRegistry = &RecoveryRegistry{
	registry: make(map[string]map[string][]RecoveryHint),
}

// Register sets the recovery hints for a component's error code,
// replacing any hints already registered for the pair.
//
// Example:
//
//	Register("solver", ErrCodeMalformedOutput,
//	    RecoveryHint{
//	        Strategy:   StrategyFixConfiguration,
//	        Reason:     "the solver build may print a different plan banner",
//	        Confidence: 0.6,
//	        Priority:   1,
//	    },
//	)
func Register(component, errorCode string, hints ...RecoveryHint) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if globalRegistry.registry[component] == nil {
		globalRegistry.registry[component] = make(map[string][]RecoveryHint)
	}
	globalRegistry.registry[component][errorCode] = hints
}

// GetHints returns the hints registered for a component's error code, or nil.
func GetHints(component, errorCode string) []RecoveryHint {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	if byCode, ok := globalRegistry.registry[component]; ok {
		if hints, ok := byCode[errorCode]; ok {
			return hints
		}
	}
	return nil
}

// EnrichError sets a default class when none is set and appends the
// registered recovery hints. It returns the same instance, or nil for nil.
func EnrichError(err *Error) *Error {
	if err == nil {
		return nil
	}

	if err.Class == "" {
		err.Class = DefaultClassForCode(err.Code)
	}

	if hints := GetHints(err.Component, err.Code); len(hints) > 0 {
		err.Hints = append(err.Hints, hints...)
	}

	return err
}
