package config

import (
	"github.com/ferdian3456/virdanthread/internal/observability"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const DEFAULT_SERVICE_NAME = "virdanthread"

// LoadObservabilityConfig reads the OTLP settings. Tracing stays off when no
// endpoint is configured.
func LoadObservabilityConfig(config *koanf.Koanf, log *zap.Logger) observability.Config {
	observabilityConfig := observability.Config{
		OtelEndpoint: config.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  config.String("OTEL_SERVICE_NAME"),
		Environment:  config.String("ENVIRONMENT"),
		OtelHeaders:  config.String("OTEL_EXPORTER_OTLP_HEADERS"),
		SampleRatio:  config.Float64("OTEL_SAMPLE_RATIO"),
	}

	if observabilityConfig.ServiceName == "" {
		log.Debug("OTEL_SERVICE_NAME not set, using default", zap.String("service", DEFAULT_SERVICE_NAME))
		observabilityConfig.ServiceName = DEFAULT_SERVICE_NAME
	}

	return observabilityConfig
}
