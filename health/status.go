package health

// Health status constants represent the operational state of a dependency.
const (
	// StatusHealthy indicates the dependency is fully operational.
	StatusHealthy = "healthy"

	// StatusDegraded indicates the dependency works but with issues.
	StatusDegraded = "degraded"

	// StatusUnhealthy indicates the dependency is not operational.
	StatusUnhealthy = "unhealthy"
)

// HealthStatus represents the health state of one check or of a combination.
type HealthStatus struct {
	// Status is the current health state (healthy, degraded, or unhealthy).
	Status string `json:"status"`

	// Message provides a human-readable description of the health status.
	Message string `json:"message,omitempty"`

	// Details contains additional diagnostic information.
	Details map[string]any `json:"details,omitempty"`
}

// IsHealthy returns true if the status is StatusHealthy.
func (h HealthStatus) IsHealthy() bool {
	return h.Status == StatusHealthy
}

// IsDegraded returns true if the status is StatusDegraded.
func (h HealthStatus) IsDegraded() bool {
	return h.Status == StatusDegraded
}

// IsUnhealthy returns true if the status is StatusUnhealthy.
func (h HealthStatus) IsUnhealthy() bool {
	return h.Status == StatusUnhealthy
}

// NewHealthyStatus creates a new healthy status with an optional message.
func NewHealthyStatus(message string) HealthStatus {
	return HealthStatus{
		Status:  StatusHealthy,
		Message: message,
	}
}

// NewDegradedStatus creates a new degraded status with a message and optional details.
func NewDegradedStatus(message string, details map[string]any) HealthStatus {
	return HealthStatus{
		Status:  StatusDegraded,
		Message: message,
		Details: details,
	}
}

// NewUnhealthyStatus creates a new unhealthy status with a message and optional details.
func NewUnhealthyStatus(message string, details map[string]any) HealthStatus {
	return HealthStatus{
		Status:  StatusUnhealthy,
		Message: message,
		Details: details,
	}
}
