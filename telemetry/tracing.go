package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// LogExporter is a SpanExporter that writes each finished span as one
// structured log record. Export failures cannot happen, so ExportSpans
// always returns nil.
type LogExporter struct {
	logger *slog.Logger
}

// NewLogExporter creates a LogExporter. A nil logger uses slog.Default.
func NewLogExporter(logger *slog.Logger) *LogExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogExporter{logger: logger}
}

// NewLogTracerProvider creates a TracerProvider that exports every span to
// logger as soon as it ends.
func NewLogTracerProvider(serviceName, instanceID string, logger *slog.Logger) *sdktrace.TracerProvider {
	return NewTracerProvider(serviceName, instanceID, sdktrace.NewSimpleSpanProcessor(NewLogExporter(logger)))
}

// ExportSpans logs the given spans.
func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		sc := span.SpanContext()
		args := []any{
			"span", span.Name(),
			"trace_id", sc.TraceID().String(),
			"span_id", sc.SpanID().String(),
			"duration", span.EndTime().Sub(span.StartTime()),
		}
		if parent := span.Parent(); parent.IsValid() {
			args = append(args, "parent_span_id", parent.SpanID().String(), "remote_parent", parent.IsRemote())
		}
		for _, kv := range span.Attributes() {
			args = append(args, string(kv.Key), kv.Value.Emit())
		}

		level := slog.LevelDebug
		if st := span.Status(); st.Code == codes.Error {
			level = slog.LevelWarn
			args = append(args, "status", st.Description)
		}
		e.logger.Log(ctx, level, "span finished", args...)
	}
	return nil
}

// Shutdown is a no-op; the logger outlives the exporter.
func (e *LogExporter) Shutdown(context.Context) error {
	return nil
}

// ParentContext returns ctx carrying a sampled remote parent in the trace
// named by the hex traceID, so spans started from it join that trace. The
// parent span ID is taken from the trace ID's bytes. Empty or malformed IDs
// return ctx unchanged.
func ParentContext(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	tid, err := trace.TraceIDFromHex(traceID)
	if err != nil {
		return ctx
	}

	var sid trace.SpanID
	copy(sid[:], tid[8:])
	if !sid.IsValid() {
		copy(sid[:], tid[:8])
	}

	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	return trace.ContextWithRemoteSpanContext(ctx, parent)
}
