package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/zero-day-ai/ffplan/exec"
)

// Check produces a status on demand.
type Check func(ctx context.Context) HealthStatus

// Static wraps a fixed status as a Check.
func Static(status HealthStatus) Check {
	return func(context.Context) HealthStatus { return status }
}

// BinaryCheck verifies that the solver binary exists and is executable.
// Bare names are looked up in PATH; paths such as "./Metric-FF-v2.1/ff" are
// resolved against workDir, or the current directory when workDir is empty.
//
// Example:
//
//	status := health.BinaryCheck("./Metric-FF-v2.1/ff", "")
//	if status.IsUnhealthy() {
//	    log.Fatal("Metric-FF is required but not built")
//	}
func BinaryCheck(name, workDir string) HealthStatus {
	if name == "" {
		return NewUnhealthyStatus("binary name cannot be empty", nil)
	}

	path, err := exec.Resolve(name, workDir)
	if err != nil {
		return NewUnhealthyStatus(
			fmt.Sprintf("binary '%s' not usable", name),
			map[string]any{
				"binary": name,
				"error":  err.Error(),
			},
		)
	}

	return NewHealthyStatus(fmt.Sprintf("binary '%s' found at %s", name, path))
}

// FileCheck verifies that a regular file exists at the specified path.
// A directory where a file is expected is unhealthy.
func FileCheck(path string) HealthStatus {
	if path == "" {
		return NewUnhealthyStatus("path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewUnhealthyStatus(
				fmt.Sprintf("path '%s' does not exist", path),
				map[string]any{"path": path},
			)
		}

		return NewUnhealthyStatus(
			fmt.Sprintf("failed to stat path '%s'", path),
			map[string]any{
				"path":  path,
				"error": err.Error(),
			},
		)
	}

	if info.IsDir() {
		return NewUnhealthyStatus(
			fmt.Sprintf("path '%s' is a directory", path),
			map[string]any{"path": path},
		)
	}

	return NewHealthyStatus(fmt.Sprintf("file '%s' exists", path))
}

// DirCheck verifies that a writable directory exists at path. Problem files
// are written there.
func DirCheck(path string) HealthStatus {
	info, err := os.Stat(path)
	if err != nil {
		return NewUnhealthyStatus(
			fmt.Sprintf("directory '%s' not usable", path),
			map[string]any{"path": path, "error": err.Error()},
		)
	}
	if !info.IsDir() {
		return NewUnhealthyStatus(
			fmt.Sprintf("path '%s' is not a directory", path),
			map[string]any{"path": path},
		)
	}

	f, err := os.CreateTemp(path, ".ffplan-health-*")
	if err != nil {
		return NewDegradedStatus(
			fmt.Sprintf("directory '%s' is not writable", path),
			map[string]any{"path": path, "error": err.Error()},
		)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)

	return NewHealthyStatus(fmt.Sprintf("directory '%s' is writable", path))
}

// NetworkCheck verifies TCP connectivity to address ("host:port").
// It uses the provided context for timeout and cancellation control.
func NetworkCheck(ctx context.Context, address string) HealthStatus {
	if _, _, err := net.SplitHostPort(address); err != nil {
		return NewUnhealthyStatus(
			fmt.Sprintf("invalid address: %s", address),
			map[string]any{"address": address, "error": err.Error()},
		)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return NewUnhealthyStatus(
			fmt.Sprintf("failed to connect to %s", address),
			map[string]any{
				"address": address,
				"error":   err.Error(),
			},
		)
	}
	conn.Close()

	return NewHealthyStatus(fmt.Sprintf("successfully connected to %s", address))
}

// Combine aggregates multiple health checks into a single status.
// The result follows this priority:
//   - If any check is unhealthy, the result is unhealthy
//   - If any check is degraded (and none unhealthy), the result is degraded
//   - If all checks are healthy, the result is healthy
func Combine(checks ...HealthStatus) HealthStatus {
	if len(checks) == 0 {
		return NewHealthyStatus("no checks provided")
	}

	var unhealthyChecks []string
	var degradedChecks []string
	var healthyCount int

	for _, check := range checks {
		msg := check.Message
		if msg == "" {
			msg = "unnamed check"
		}
		switch check.Status {
		case StatusUnhealthy:
			unhealthyChecks = append(unhealthyChecks, msg)
		case StatusDegraded:
			degradedChecks = append(degradedChecks, msg)
		case StatusHealthy:
			healthyCount++
		}
	}

	if len(unhealthyChecks) > 0 {
		return NewUnhealthyStatus(
			fmt.Sprintf("%d check(s) failed", len(unhealthyChecks)),
			map[string]any{
				"total":         len(checks),
				"unhealthy":     len(unhealthyChecks),
				"degraded":      len(degradedChecks),
				"healthy":       healthyCount,
				"failed_checks": unhealthyChecks,
			},
		)
	}

	if len(degradedChecks) > 0 {
		return NewDegradedStatus(
			fmt.Sprintf("%d check(s) degraded", len(degradedChecks)),
			map[string]any{
				"total":           len(checks),
				"degraded":        len(degradedChecks),
				"healthy":         healthyCount,
				"degraded_checks": degradedChecks,
			},
		)
	}

	return NewHealthyStatus(fmt.Sprintf("all %d check(s) passed", len(checks)))
}

// Run evaluates checks in order and combines them.
func Run(ctx context.Context, checks ...Check) (HealthStatus, []HealthStatus) {
	results := make([]HealthStatus, len(checks))
	for i, c := range checks {
		results[i] = c(ctx)
	}
	return Combine(results...), results
}
