package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const TRACER_NAME = "github.com/ferdian3456/virdanthread"

// StartSpan opens a child span on the global tracer. Without an exporter
// the global provider is a no-op, so callers never need to check.
func StartSpan(ctx context.Context, name string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TRACER_NAME).Start(ctx, name, trace.WithAttributes(attributes...))
}

// ExtractTrace returns the trace and span ids carried by ctx.
func ExtractTrace(ctx context.Context) (string, string, bool) {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return "", "", false
	}

	return sc.TraceID().String(), sc.SpanID().String(), true
}

// WithContext tags the logger with the trace and span of ctx, if any.
func WithContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	traceId, spanId, ok := ExtractTrace(ctx)
	if !ok {
		return logger
	}

	return logger.With(
		zap.String("trace_id", traceId),
		zap.String("span_id", spanId),
	)
}
