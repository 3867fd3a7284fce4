// Package telemetry builds the logger, tracer provider and meter provider
// shared by the CLI and the worker.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// ServiceName is the default otel service name.
const ServiceName = "ffplan"

// ParseLevel maps a level name to a slog level. Unknown names are an error.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// NewLogger creates a slog logger writing to w with a text or json handler.
func NewLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return slog.New(h), nil
}

func newResource(serviceName, instanceID string) *resource.Resource {
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(serviceName)}
	if instanceID != "" {
		attrs = append(attrs, semconv.ServiceInstanceIDKey.String(instanceID))
	}
	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		return resource.Default()
	}
	return res
}

// NewTracerProvider creates a TracerProvider tagged with the service name.
// Spans go to the given processors; with none, spans are recorded and
// dropped, which still yields valid span contexts for log correlation.
func NewTracerProvider(serviceName, instanceID string, processors ...sdktrace.SpanProcessor) *sdktrace.TracerProvider {
	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(newResource(serviceName, instanceID))}
	for _, p := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}
	return sdktrace.NewTracerProvider(opts...)
}

// NewMeterProvider creates a MeterProvider tagged with the service name.
// A nil reader yields a provider whose instruments are never collected.
func NewMeterProvider(serviceName, instanceID string, reader sdkmetric.Reader) *sdkmetric.MeterProvider {
	opts := []sdkmetric.Option{sdkmetric.WithResource(newResource(serviceName, instanceID))}
	if reader != nil {
		opts = append(opts, sdkmetric.WithReader(reader))
	}
	return sdkmetric.NewMeterProvider(opts...)
}
