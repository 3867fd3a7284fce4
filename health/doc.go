// Package health checks the planner's runtime preconditions.
//
// # Health Check Functions
//
//   - BinaryCheck: the solver binary exists and is executable
//   - FileCheck: the domain file or template exists
//   - DirCheck: the PDDL work directory is writable
//   - NetworkCheck: Redis or etcd is reachable
//   - Combine: aggregate statuses into one
//
// # Usage Example
//
//	overall := health.Combine(
//	    health.BinaryCheck(cfg.Solver.Binary, ""),
//	    health.FileCheck(cfg.Solver.DomainPath()),
//	    health.FileCheck(cfg.TemplatePath()),
//	    health.DirCheck(cfg.Solver.WorkDir),
//	)
//	if overall.IsUnhealthy() {
//	    log.Printf("Health check failed: %s", overall.Message)
//	    log.Printf("Details: %+v", overall.Details)
//	}
//
// # Health Status Priority
//
// When combining health checks with Combine(), the result follows this priority:
//
//   - Unhealthy: If any check is unhealthy, the combined result is unhealthy
//   - Degraded: If any check is degraded (and none unhealthy), the result is degraded
//   - Healthy: If all checks are healthy, the result is healthy
//
// # gRPC
//
// NewGRPCServer exposes the combined status through the standard
// grpc.health.v1 service so orchestrators can check a running worker.
// Unhealthy maps to NOT_SERVING; healthy and degraded map to SERVING.
package health
