package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/zero-day-ai/ffplan/planner"
	"github.com/zero-day-ai/ffplan/telemetry"
	"github.com/zero-day-ai/ffplan/worker"
)

func (a *app) workerCmd() *cobra.Command {
	var (
		concurrency int
		workerID    string
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Serve plan requests from the Redis queue until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if workerID == "" {
				workerID = worker.NewID()
			}

			tp := telemetry.NewLogTracerProvider(telemetry.ServiceName, workerID, a.logger)
			reader := sdkmetric.NewManualReader()
			mp := telemetry.NewMeterProvider(telemetry.ServiceName, workerID, reader)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				logMetrics(shutdownCtx, reader, a.logger)
				_ = mp.Shutdown(shutdownCtx)
				_ = tp.Shutdown(shutdownCtx)
			}()

			p, err := a.newPlanner(
				planner.WithTracer(tp.Tracer(telemetry.ServiceName)),
				planner.WithMeter(mp.Meter(telemetry.ServiceName)),
			)
			if err != nil {
				return err
			}

			return worker.Run(ctx, worker.Options{
				Config:      a.cfg,
				Planner:     p,
				Logger:      a.logger,
				Concurrency: concurrency,
				WorkerID:    workerID,
			})
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of worker goroutines (default: worker.concurrency)")
	cmd.Flags().StringVar(&workerID, "id", "", "worker instance id (default: hostname-pid-random)")
	return cmd
}

// logMetrics logs the counters and histogram totals collected during the
// worker's lifetime.
func logMetrics(ctx context.Context, reader sdkmetric.Reader, logger *slog.Logger) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		logger.Warn("failed to collect metrics", "error", err)
		return
	}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					logger.Info("metric", "name", m.Name, "attributes", dp.Attributes.Encoded(attribute.DefaultEncoder()), "value", dp.Value)
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					logger.Info("metric", "name", m.Name, "count", dp.Count, "sum", dp.Sum)
				}
			case metricdata.Histogram[int64]:
				for _, dp := range data.DataPoints {
					logger.Info("metric", "name", m.Name, "count", dp.Count, "sum", dp.Sum)
				}
			}
		}
	}
}
