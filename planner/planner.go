// Package planner wires problem synthesis, the solver and output
// classification into one call.
//
// A Plan call writes the problem file, runs the solver once against it and
// returns the classified result:
//
//	p, err := planner.New(config.Default(), planner.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	res, err := p.Plan(ctx, planner.Request{Observations: obs})
//	if err != nil {
//		return err // synthesis failed or ctx ended
//	}
//	if !res.OK() {
//		log.Print(res.Diagnostic)
//	}
//
// Unsolvable problems and unreadable solver output are results, not errors.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zero-day-ai/ffplan/config"
	"github.com/zero-day-ai/ffplan/predicate"
	"github.com/zero-day-ai/ffplan/problem"
	"github.com/zero-day-ai/ffplan/solver"
)

// Request describes one planning call.
type Request struct {
	// ID identifies the call in logs and spans. A uuid is generated if empty.
	ID string

	// Observations are the perceived facts.
	Observations predicate.Observations

	// Manifest selects dynamic generation when non-nil; otherwise the
	// configured template is patched.
	Manifest problem.Manifest

	// ProblemFile is the problem file name inside the work directory.
	// Default: the configured problem output.
	ProblemFile string

	// Mode is the solver search mode.
	Mode int
}

// Result is a classified solve plus the synthesized problem.
type Result struct {
	solver.Result

	ID       string
	Artifact *problem.Artifact
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// WithSolver replaces the Metric-FF process with another Solver.
func WithSolver(s solver.Solver) Option {
	return func(p *Planner) {
		p.solver = s
	}
}

// WithTracer sets an OpenTelemetry tracer. Default: a noop tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Planner) {
		p.tracer = tracer
	}
}

// WithMeter enables plan metrics on the given meter.
func WithMeter(meter metric.Meter) Option {
	return func(p *Planner) {
		p.meter = meter
	}
}

// Planner runs the synthesize, solve, classify pipeline. It holds no
// mutable state between calls; concurrent calls must use distinct problem
// files.
type Planner struct {
	cfg     *config.Config
	synth   *problem.Synthesizer
	adapter *solver.Adapter
	solver  solver.Solver
	logger  *slog.Logger
	tracer  trace.Tracer
	meter   metric.Meter
	metrics *planMetrics
}

// New creates a Planner from configuration.
func New(cfg *config.Config, opts ...Option) (*Planner, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	p := &Planner{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.tracer == nil {
		p.tracer = noop.NewTracerProvider().Tracer("ffplan")
	}
	if p.solver == nil {
		p.solver = &solver.FF{
			Binary:  cfg.Solver.Binary,
			Timeout: cfg.Solver.GetTimeout(),
		}
	}

	synth, err := problem.New(cfg.Problem.Options())
	if err != nil {
		return nil, err
	}
	p.synth = synth

	p.adapter = &solver.Adapter{
		Solver:     p.solver,
		Dir:        cfg.Solver.WorkDir,
		DomainFile: cfg.Solver.Domain,
	}

	if p.meter != nil {
		m, err := newPlanMetrics(p.meter)
		if err != nil {
			return nil, fmt.Errorf("planner metrics: %w", err)
		}
		p.metrics = m
	}

	return p, nil
}

// Config returns the configuration the planner was built with.
func (p *Planner) Config() *config.Config {
	return p.cfg
}

// Synthesize writes the problem file for req without solving it.
func (p *Planner) Synthesize(ctx context.Context, req Request) (*problem.Artifact, error) {
	file := req.ProblemFile
	if file == "" {
		file = p.cfg.Problem.Output
	}
	return p.synth.Synthesize(ctx, problem.Request{
		Observations: req.Observations,
		Manifest:     req.Manifest,
		Template:     p.cfg.TemplatePath(),
		Output:       p.cfg.ProblemPath(file),
	})
}

// Plan synthesizes the problem for req, runs the solver and classifies its
// output. The error is non-nil only when synthesis failed or ctx ended.
func (p *Planner) Plan(ctx context.Context, req Request) (Result, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.ProblemFile == "" {
		req.ProblemFile = p.cfg.Problem.Output
	}

	ctx, span := p.tracer.Start(ctx, "ffplan.plan", trace.WithAttributes(
		attribute.String("plan.id", req.ID),
		attribute.String("plan.problem_file", req.ProblemFile),
		attribute.Int("plan.mode", req.Mode),
	))
	defer span.End()

	logger := p.logger.With("plan_id", req.ID, "problem", req.ProblemFile)
	start := time.Now()

	art, err := p.Synthesize(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "synthesis failed")
		p.metrics.recordFailure(ctx, "synthesis_error")
		logger.Error("problem synthesis failed", "error", err)
		return Result{ID: req.ID}, err
	}
	span.SetAttributes(
		attribute.String("plan.synthesis_mode", string(art.Mode)),
		attribute.Int("plan.facts", art.Facts),
	)
	logger.Debug("problem written", "path", art.Path, "mode", art.Mode, "facts", art.Facts)

	sr, err := p.adapter.Run(ctx, req.ProblemFile, req.Mode)
	res := Result{Result: sr, ID: req.ID, Artifact: art}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		p.metrics.recordFailure(ctx, "cancelled")
		return res, err
	}

	span.SetAttributes(
		attribute.String("plan.outcome", res.Outcome.String()),
		attribute.Int("plan.length", res.Plan.Len()),
	)
	p.metrics.record(ctx, res.Result)

	switch res.Outcome {
	case solver.OutcomePlan:
		span.SetStatus(codes.Ok, "")
		logger.Info("plan found",
			"steps", res.Plan.Len(),
			"solve_duration", res.Duration,
			"elapsed", time.Since(start))
	default:
		span.SetStatus(codes.Error, res.Outcome.String())
		if res.Err != nil {
			span.RecordError(res.Err)
		}
		logger.Warn("no plan",
			"outcome", res.Outcome.String(),
			"diagnostic", res.Diagnostic,
			"raw_output", res.Raw)
	}

	return res, nil
}
