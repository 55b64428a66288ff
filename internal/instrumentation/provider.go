package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const metricExportInterval = 30 * time.Second

// Provider owns the meter and tracer providers. A disabled Provider hands out
// a nil *Metrics, which records nothing.
type Provider struct {
	config Config

	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	metrics        *Metrics

	promHandler http.Handler
}

// NewProvider builds exporters according to config and installs the global
// OpenTelemetry providers.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	p := &Provider{config: config}
	if !config.Enabled {
		return p, nil
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if err := p.initMetrics(ctx, res); err != nil {
		return nil, err
	}
	if err := p.initTracing(ctx, res); err != nil {
		_ = p.meterProvider.Shutdown(ctx)
		return nil, err
	}
	return p, nil
}

func (p *Provider) initMetrics(ctx context.Context, res *resource.Resource) error {
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	switch strings.ToLower(p.config.MetricsExporter) {
	case "", ExporterPrometheus:
		registry := prometheus.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(exporter))
		p.promHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true})

	case ExporterOTLP:
		exporter, err := otlpmetrichttp.New(ctx, p.otlpMetricOptions()...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricExportInterval))))

	case ExporterStdout:
		// stdout carries the stdio protocol, so exports go to stderr.
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
		if err != nil {
			return fmt.Errorf("failed to create stdout metrics exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricExportInterval))))

	case ExporterNone:
	}

	p.meterProvider = sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(p.meterProvider)

	metrics, err := NewMetrics(p.meterProvider.Meter(TracerName), p.config.DetailedLabels)
	if err != nil {
		return err
	}
	p.metrics = metrics
	return nil
}

func (p *Provider) initTracing(ctx context.Context, res *resource.Resource) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch strings.ToLower(p.config.TracingExporter) {
	case ExporterOTLP:
		exporter, err = otlptracehttp.New(ctx, p.otlpTraceOptions()...)
	case ExporterStdout:
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create %s trace exporter: %w", p.config.TracingExporter, err)
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(p.config.TraceSamplingRate))),
	)
	otel.SetTracerProvider(p.tracerProvider)
	return nil
}

func (p *Provider) otlpMetricOptions() []otlpmetrichttp.Option {
	var opts []otlpmetrichttp.Option
	if endpoint := p.config.OTLPEndpoint; endpoint != "" {
		if strings.Contains(endpoint, "://") {
			opts = append(opts, otlpmetrichttp.WithEndpointURL(endpoint))
		} else {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
	}
	if p.config.OTLPInsecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return opts
}

func (p *Provider) otlpTraceOptions() []otlptracehttp.Option {
	var opts []otlptracehttp.Option
	if endpoint := p.config.OTLPEndpoint; endpoint != "" {
		if strings.Contains(endpoint, "://") {
			opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
		} else {
			opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
		}
	}
	if p.config.OTLPInsecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

// Enabled reports whether instrumentation is active.
func (p *Provider) Enabled() bool {
	return p != nil && p.config.Enabled
}

// Metrics returns the recorder, nil when disabled.
func (p *Provider) Metrics() *Metrics {
	if p == nil {
		return nil
	}
	return p.metrics
}

// Config returns the configuration the provider was built with.
func (p *Provider) Config() Config {
	return p.config
}

// PrometheusHandler serves the scrape endpoint. It is nil unless the
// prometheus exporter is active.
func (p *Provider) PrometheusHandler() http.Handler {
	if p == nil {
		return nil
	}
	return p.promHandler
}

// Shutdown flushes and stops the exporters.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}

	var errs []error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
