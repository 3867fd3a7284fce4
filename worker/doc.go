// Package worker runs planning requests from a Redis queue.
//
// A worker pops PlanRequest items from the configured queue, runs them
// through a planner and publishes one PlanReply per request on the
// request's reply channel. It keeps a heartbeat key alive, can serve the
// standard gRPC health service and can announce itself in etcd.
//
// # Basic Usage
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	p, err := planner.New(cfg, planner.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	return worker.Run(ctx, worker.Options{Config: cfg, Planner: p, Logger: logger})
//
// Run returns once ctx is cancelled and in-flight requests have finished or
// the shutdown timeout has passed. Requests still running at the deadline
// are cancelled, which stops their solver process.
//
// # File Sharing
//
// Synthesis writes the problem file the solver reads. Requests that target
// the same problem file are therefore never processed at the same time,
// whatever the concurrency; requests with distinct files run in parallel.
package worker
