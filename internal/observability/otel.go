package observability

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

type Config struct {
	OtelEndpoint string
	ServiceName  string
	Environment  string
	// OtelHeaders is "key1=value1,key2=value2".
	OtelHeaders string
	// SampleRatio applies to root spans only; children follow their parent.
	SampleRatio float64
}

func parseHeaders(value string) map[string]string {
	headers := make(map[string]string)

	for _, part := range strings.Split(value, ",") {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		if key != "" {
			headers[key] = strings.TrimSpace(val)
		}
	}

	return headers
}

func sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}

	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// Init installs the global tracer provider and W3C propagation. The returned
// func flushes pending spans.
func Init(ctx context.Context, cfg Config, log *zap.Logger) (func(context.Context) error, error) {
	headers := parseHeaders(cfg.OtelHeaders)

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OtelEndpoint),
		otlptracehttp.WithInsecure(),
		otlptracehttp.WithHeaders(headers),
		otlptracehttp.WithRetry(otlptracehttp.RetryConfig{
			Enabled:         true,
			InitialInterval: 5 * time.Second,
			MaxInterval:     30 * time.Second,
			MaxElapsedTime:  time.Minute,
		}),
		otlptracehttp.WithTimeout(30*time.Second),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(10*time.Second)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("otel trace exporter initialized",
		zap.String("endpoint", cfg.OtelEndpoint),
		zap.String("service", cfg.ServiceName),
		zap.Float64("sampleRatio", cfg.SampleRatio),
		zap.Bool("auth_enabled", len(headers) > 0),
	)

	return provider.Shutdown, nil
}
