package instrumentation

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Exporter names.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// ServiceName is the name of the service (default: mcp-kubeops)
	ServiceName string

	ServiceVersion string

	// Enabled turns metrics and tracing on. Disabled instrumentation costs nothing.
	Enabled bool

	// MetricsExporter is one of prometheus, otlp, stdout or none.
	MetricsExporter string

	// TracingExporter is one of otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is the collector endpoint, e.g. localhost:4318.
	OTLPEndpoint string

	// OTLPInsecure disables TLS towards the collector. Local development only.
	OTLPInsecure bool

	// TraceSamplingRate is the ratio of sampled traces, 0.0 to 1.0.
	TraceSamplingRate float64

	// DetailedLabels adds namespace and resource_type to Kubernetes operation
	// metrics. Off by default to bound cardinality.
	DetailedLabels bool
}

// DefaultConfig returns a Config populated from the environment.
func DefaultConfig() Config {
	return Config{
		ServiceName:       getEnvOrDefault("OTEL_SERVICE_NAME", "mcp-kubeops"),
		ServiceVersion:    "unknown",
		Enabled:           getEnvBoolOrDefault("INSTRUMENTATION_ENABLED", false),
		MetricsExporter:   getEnvOrDefault("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:   getEnvOrDefault("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:      getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:      getEnvBoolOrDefault("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate: getEnvFloatOrDefault("OTEL_TRACES_SAMPLER_ARG", 0.1),
		DetailedLabels:    getEnvBoolOrDefault("METRICS_DETAILED_LABELS", false),
	}
}

// Validate checks exporter names and the sampling rate.
func (c *Config) Validate() error {
	switch strings.ToLower(c.MetricsExporter) {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("unknown metrics exporter %q", c.MetricsExporter)
	}
	switch strings.ToLower(c.TracingExporter) {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("unknown tracing exporter %q", c.TracingExporter)
	}
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0 and 1, got %v", c.TraceSamplingRate)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// Label values shared by metrics and spans.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	CacheResultHit  = "hit"
	CacheResultMiss = "miss"
)
