package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zero-day-ai/ffplan/config"
	"github.com/zero-day-ai/ffplan/health"
	"github.com/zero-day-ai/ffplan/planerr"
	"github.com/zero-day-ai/ffplan/planner"
	"github.com/zero-day-ai/ffplan/queue"
	"github.com/zero-day-ai/ffplan/registry"
	"github.com/zero-day-ai/ffplan/telemetry"
)

// Planner is the part of *planner.Planner the worker uses.
type Planner interface {
	Plan(ctx context.Context, req planner.Request) (planner.Result, error)
}

// Options configures the worker behavior.
type Options struct {
	// Config supplies defaults for everything below and the default solver
	// mode and problem file of requests. Default: config.Default().
	Config *config.Config

	// Planner runs each request. Required.
	Planner Planner

	// Client is the queue connection. If nil, Run connects to
	// Config.Worker.RedisURL and closes the connection on return.
	Client queue.Client

	// Registry announces the worker. If nil and Config.Registry has
	// endpoints, Run connects to etcd.
	Registry registry.Registry

	// Logger is the structured logger for worker operations.
	// Default: slog.Default().
	Logger *slog.Logger

	// Concurrency is the number of worker goroutines to start.
	// If 0, uses Config.Worker.Concurrency.
	Concurrency int

	// ShutdownTimeout is the time to wait for in-flight requests.
	// If 0, uses Config.Worker.ShutdownTimeout.
	ShutdownTimeout time.Duration

	// HeartbeatInterval is the time between heartbeats.
	// If 0, uses Config.Worker.HeartbeatInterval.
	HeartbeatInterval time.Duration

	// PollTimeout bounds each blocking pop. Default: 1s
	PollTimeout time.Duration

	// HealthChecks back the gRPC health service when Config.Worker.HealthAddr
	// is set. Default: HealthChecks(Config).
	HealthChecks []health.Check

	// WorkerID identifies this process. Default: hostname-pid-uuid.
	WorkerID string
}

func (o Options) withDefaults() Options {
	if o.Config == nil {
		o.Config = config.Default()
	}
	w := o.Config.Worker
	if o.Concurrency <= 0 {
		o.Concurrency = w.GetConcurrency()
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = w.GetShutdownTimeout()
	}
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = w.GetHeartbeatInterval()
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.WorkerID == "" {
		o.WorkerID = NewID()
	}
	return o
}

// Run starts the worker and blocks until ctx is cancelled.
//
// On startup it increments the queue's worker count, starts the heartbeat,
// the optional health server and the optional registration, then starts
// Concurrency loops. On shutdown it waits up to ShutdownTimeout for
// in-flight requests before cancelling them.
//
// Returns an error if the planner is missing or a connection fails.
func Run(ctx context.Context, opts Options) error {
	if opts.Planner == nil {
		return fmt.Errorf("worker: planner is required")
	}
	opts = opts.withDefaults()
	cfg := opts.Config
	queueName := cfg.Worker.GetQueue()

	logger := opts.Logger.With(
		"worker_id", opts.WorkerID,
		"queue", queueName,
	)

	client := opts.Client
	if client == nil {
		rc, err := queue.NewRedisClient(queue.RedisOptions{URL: cfg.Worker.GetRedisURL()})
		if err != nil {
			return err
		}
		defer rc.Close()
		client = rc
	}

	logger.Info("worker starting", "concurrency", opts.Concurrency)

	if err := client.IncrementWorkerCount(ctx, queueName); err != nil {
		logger.Error("failed to increment worker count", "error", err)
	}
	defer func() {
		// ctx is already cancelled here
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cleanupCancel()
		if err := client.DecrementWorkerCount(cleanupCtx, queueName); err != nil {
			logger.Error("failed to decrement worker count", "error", err)
		}
	}()

	var bg sync.WaitGroup
	defer bg.Wait()

	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	bg.Add(1)
	go func() {
		defer bg.Done()
		runHeartbeat(bgCtx, client, opts.WorkerID, opts.HeartbeatInterval, logger)
	}()

	endpoint := ""
	if addr := cfg.Worker.GetHealthAddr(); addr != "" {
		checks := opts.HealthChecks
		if checks == nil {
			checks = HealthChecks(cfg)
		}
		srv, err := health.NewGRPCServer(addr, checks...)
		if err != nil {
			return err
		}
		endpoint = srv.Addr().String()
		bg.Add(1)
		go func() {
			defer bg.Done()
			if err := srv.Serve(bgCtx, opts.HeartbeatInterval, 5*time.Second); err != nil {
				logger.Error("health server stopped", "error", err)
			}
		}()
		logger.Info("health server listening", "addr", endpoint)
	}

	reg := opts.Registry
	if reg == nil && cfg.Registry.Enabled() {
		rc, err := registry.NewClient(registryConfig(cfg.Registry))
		if err != nil {
			return err
		}
		defer rc.Close()
		reg = rc
	}
	if reg != nil {
		info := registry.ServiceInfo{
			Name:       cfg.Registry.GetName(),
			InstanceID: opts.WorkerID,
			Endpoint:   endpoint,
			Queue:      queueName,
			Metadata: map[string]string{
				"binary":      cfg.Solver.Binary,
				"mode":        strconv.Itoa(cfg.Solver.Mode),
				"concurrency": strconv.Itoa(opts.Concurrency),
			},
			StartedAt: time.Now(),
		}
		if err := reg.Register(ctx, info); err != nil {
			return fmt.Errorf("failed to register worker: %w", err)
		}
		logger.Info("worker registered", "name", info.Name)
		defer func() {
			cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cleanupCancel()
			if err := reg.Deregister(cleanupCtx, info); err != nil {
				logger.Error("failed to deregister worker", "error", err)
			}
		}()
	}

	// In-flight requests outlive ctx until the shutdown timeout.
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()

	w := &worker{
		cfg:     cfg,
		planner: opts.Planner,
		client:  client,
		queue:   queueName,
		id:      opts.WorkerID,
		poll:    opts.PollTimeout,
		logger:  logger,
		locks:   newFileLocks(),
		pollCtx: ctx,
		workCtx: workCtx,
	}

	var wg sync.WaitGroup
	for i := 0; i < opts.Concurrency; i++ {
		wg.Add(1)
		go func(workerNum int) {
			defer wg.Done()
			w.loop(workerNum)
		}(i)
	}

	logger.Info("worker started", "workers", opts.Concurrency)

	<-ctx.Done()
	logger.Info("initiating graceful shutdown")

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		logger.Info("worker shutdown complete")
	case <-time.After(opts.ShutdownTimeout):
		logger.Warn("worker shutdown timeout exceeded, cancelling in-flight requests",
			"timeout", opts.ShutdownTimeout)
		cancelWork()
		<-doneChan
	}

	return nil
}

type worker struct {
	cfg     *config.Config
	planner Planner
	client  queue.Client
	queue   string
	id      string
	poll    time.Duration
	logger  *slog.Logger
	locks   *fileLocks

	// pollCtx stops popping; workCtx cancels requests already popped.
	pollCtx context.Context
	workCtx context.Context
}

// loop pops, processes and replies until pollCtx is cancelled.
func (w *worker) loop(workerNum int) {
	logger := w.logger.With("worker_num", workerNum)
	logger.Debug("worker loop started")

	for {
		if w.pollCtx.Err() != nil {
			logger.Debug("worker loop stopped")
			return
		}

		req, err := w.client.PopRequest(w.pollCtx, w.queue, w.poll)
		if err != nil {
			if w.pollCtx.Err() != nil {
				logger.Debug("worker loop stopped")
				return
			}
			var decodeErr *queue.DecodeError
			if errors.As(err, &decodeErr) {
				w.rejectUndecodable(decodeErr, logger)
				continue
			}
			logger.Error("failed to pop request", "error", err)
			// Back off so a lost connection does not spin.
			select {
			case <-w.pollCtx.Done():
			case <-time.After(w.poll):
			}
			continue
		}
		if req == nil {
			continue
		}

		logger.Info("received request",
			"id", req.ID,
			"trace_id", req.TraceID,
			"age", req.Age(),
		)

		reply := w.process(w.workCtx, *req, logger)
		if err := w.client.PublishReply(w.workCtx, reply); err != nil {
			logger.Error("failed to publish reply", "id", reply.ID, "error", err)
		}
	}
}

// process runs one request and always returns a reply.
func (w *worker) process(ctx context.Context, req queue.PlanRequest, logger *slog.Logger) queue.PlanReply {
	reply := queue.PlanReply{
		ID:        req.ID,
		WorkerID:  w.id,
		StartedAt: time.Now().UnixMilli(),
	}
	finish := func() queue.PlanReply {
		reply.CompletedAt = time.Now().UnixMilli()
		return reply
	}

	if err := req.IsValid(); err != nil {
		reply.Error = fmt.Sprintf("invalid request: %v", err)
		reply.ErrorCode = planerr.ErrCodeInvalidInput
		logger.Warn("rejected invalid request", "id", req.ID, "error", err)
		return finish()
	}

	mode := w.cfg.Solver.Mode
	if req.Mode != nil {
		mode = *req.Mode
	}
	file := req.ProblemFile
	if file == "" {
		file = w.cfg.Problem.Output
	}

	unlock := w.locks.lock(file)
	res, err := w.planner.Plan(telemetry.ParentContext(ctx, req.TraceID), planner.Request{
		ID:           req.ID,
		Observations: req.Observations,
		Manifest:     req.Manifest,
		ProblemFile:  file,
		Mode:         mode,
	})
	unlock()

	if err != nil {
		reply.Error = err.Error()
		reply.ErrorCode = planerr.CodeOf(err)
		logger.Error("request failed", "id", req.ID, "error", err)
		return finish()
	}

	reply.Outcome = res.Outcome.String()
	reply.Actions = res.Plan.Strings()
	reply.Diagnostic = res.Diagnostic
	reply = finish()

	logger.Info("request completed",
		"id", req.ID,
		"outcome", reply.Outcome,
		"steps", len(reply.Actions),
		"duration", reply.Duration(),
	)
	return reply
}

// rejectUndecodable answers a payload that failed to decode when its id
// can still be read, so the submitter does not wait forever.
func (w *worker) rejectUndecodable(decodeErr *queue.DecodeError, logger *slog.Logger) {
	var head struct {
		ID string `json:"id"`
	}
	if json.Unmarshal([]byte(decodeErr.Payload), &head) != nil || head.ID == "" {
		logger.Error("dropped undecodable request", "error", decodeErr)
		return
	}

	now := time.Now().UnixMilli()
	reply := queue.PlanReply{
		ID:          head.ID,
		Error:       decodeErr.Error(),
		ErrorCode:   planerr.ErrCodeInvalidInput,
		WorkerID:    w.id,
		StartedAt:   now,
		CompletedAt: now,
	}
	logger.Warn("rejected undecodable request", "id", head.ID, "error", decodeErr)
	if err := w.client.PublishReply(w.workCtx, reply); err != nil {
		logger.Error("failed to publish reply", "id", reply.ID, "error", err)
	}
}

// runHeartbeat refreshes the worker's health key until ctx is cancelled.
func runHeartbeat(ctx context.Context, client queue.Client, workerID string, interval time.Duration, logger *slog.Logger) {
	beat := func() {
		if err := client.Heartbeat(ctx, workerID); err != nil && ctx.Err() == nil {
			// transient; the key outlives a few missed beats
			logger.Debug("heartbeat failed", "error", err)
		}
	}
	beat()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			beat()
		}
	}
}

// fileLocks hands out one mutex per problem file name.
type fileLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newFileLocks() *fileLocks {
	return &fileLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for name and returns its release func.
func (l *fileLocks) lock(name string) func() {
	l.mu.Lock()
	m, ok := l.locks[name]
	if !ok {
		m = &sync.Mutex{}
		l.locks[name] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// HealthChecks returns the checks a worker needs to pass: the solver
// binary, the domain file, the template and a writable work directory.
func HealthChecks(cfg *config.Config) []health.Check {
	return []health.Check{
		func(context.Context) health.HealthStatus { return health.BinaryCheck(cfg.Solver.Binary, "") },
		func(context.Context) health.HealthStatus { return health.FileCheck(cfg.Solver.DomainPath()) },
		func(context.Context) health.HealthStatus { return health.FileCheck(cfg.TemplatePath()) },
		func(context.Context) health.HealthStatus { return health.DirCheck(cfg.Solver.WorkDir) },
	}
}

func registryConfig(rc *config.RegistryConfig) registry.Config {
	out := registry.Config{
		Endpoints: rc.Endpoints,
		Namespace: rc.GetNamespace(),
		TTL:       rc.GetTTL(),
	}
	if rc.TLSEnabled() {
		out.TLS = &registry.TLSConfig{
			CertFile: rc.CertFile,
			KeyFile:  rc.KeyFile,
			CAFile:   rc.CAFile,
		}
	}
	return out
}

// NewID creates a unique identifier for a worker instance.
// Uses hostname + PID + UUID for uniqueness.
func NewID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-%d-%s", hostname, os.Getpid(), uuid.New().String()[:8])
}
