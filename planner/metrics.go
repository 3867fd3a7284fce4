package planner

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zero-day-ai/ffplan/solver"
)

// planMetrics holds the OpenTelemetry instruments for plan calls.
// A nil *planMetrics records nothing.
type planMetrics struct {
	// plans counts plan calls by outcome
	plans metric.Int64Counter

	// solveDuration records solver wall time in milliseconds
	solveDuration metric.Float64Histogram

	// planLength records the number of steps of found plans
	planLength metric.Int64Histogram
}

func newPlanMetrics(meter metric.Meter) (*planMetrics, error) {
	m := &planMetrics{}
	var err error

	m.plans, err = meter.Int64Counter(
		"ffplan.plans",
		metric.WithDescription("Number of plan calls by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create plans counter: %w", err)
	}

	m.solveDuration, err = meter.Float64Histogram(
		"ffplan.solve.duration",
		metric.WithDescription("Solver run time in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create solve duration histogram: %w", err)
	}

	m.planLength, err = meter.Int64Histogram(
		"ffplan.plan.length",
		metric.WithDescription("Number of actions in found plans"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create plan length histogram: %w", err)
	}

	return m, nil
}

func (m *planMetrics) record(ctx context.Context, res solver.Result) {
	if m == nil {
		return
	}
	opts := metric.WithAttributes(attribute.String("outcome", res.Outcome.String()))
	m.plans.Add(ctx, 1, opts)
	m.solveDuration.Record(ctx, float64(res.Duration.Microseconds())/1000, opts)
	if res.Outcome == solver.OutcomePlan {
		m.planLength.Record(ctx, int64(res.Plan.Len()))
	}
}

func (m *planMetrics) recordFailure(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.plans.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
