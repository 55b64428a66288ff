package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod       = "method"
	attrPath         = "path"
	attrStatus       = "status"
	attrOperation    = "operation"
	attrResourceType = "resource_type"
	attrNamespace    = "namespace"
	attrResult       = "result"
	attrTool         = "tool"
	attrContextClass = "context_class"
)

var durationBuckets = []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0}

// Metrics records server and Kubernetes measurements. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	k8sOperationsTotal   metric.Int64Counter
	k8sOperationDuration metric.Float64Histogram
	k8sRetriesTotal      metric.Int64Counter

	clientCacheLookups metric.Int64Counter
	clientCacheSize    metric.Int64Gauge

	toolCallsTotal   metric.Int64Counter
	toolCallDuration metric.Float64Histogram

	// detailedLabels adds namespace and resource_type to Kubernetes metrics.
	detailedLabels bool
}

// NewMetrics creates all instruments on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	var err error
	if m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	if m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	if m.k8sOperationsTotal, err = meter.Int64Counter(
		"kubernetes_operations_total",
		metric.WithDescription("Total number of Kubernetes operations"),
		metric.WithUnit("{operation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create kubernetes_operations_total counter: %w", err)
	}

	if m.k8sOperationDuration, err = meter.Float64Histogram(
		"kubernetes_operation_duration_seconds",
		metric.WithDescription("Kubernetes operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create kubernetes_operation_duration_seconds histogram: %w", err)
	}

	if m.k8sRetriesTotal, err = meter.Int64Counter(
		"kubernetes_operation_retries_total",
		metric.WithDescription("Read operations retried after a connection error"),
		metric.WithUnit("{retry}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create kubernetes_operation_retries_total counter: %w", err)
	}

	if m.clientCacheLookups, err = meter.Int64Counter(
		"client_cache_lookups_total",
		metric.WithDescription("Client cache lookups by result (hit or miss)"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create client_cache_lookups_total counter: %w", err)
	}

	if m.clientCacheSize, err = meter.Int64Gauge(
		"client_cache_entries",
		metric.WithDescription("Number of contexts with a cached client"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create client_cache_entries gauge: %w", err)
	}

	if m.toolCallsTotal, err = meter.Int64Counter(
		"mcp_tool_calls_total",
		metric.WithDescription("Total number of MCP tool calls"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_calls_total counter: %w", err)
	}

	if m.toolCallDuration, err = meter.Float64Histogram(
		"mcp_tool_call_duration_seconds",
		metric.WithDescription("MCP tool call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_call_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordK8sOperation records one Kubernetes operation.
//
// Only operation and status are labelled unless detailed labels are on;
// namespaces are unbounded in large clusters.
func (m *Metrics) RecordK8sOperation(ctx context.Context, operation, resourceType, namespace, status string, duration time.Duration) {
	if m == nil || m.k8sOperationsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels {
		attrs = append(attrs,
			attribute.String(attrResourceType, resourceType),
			attribute.String(attrNamespace, namespace),
		)
	}

	m.k8sOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.k8sOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordK8sRetry counts a retried read.
func (m *Metrics) RecordK8sRetry(ctx context.Context, operation, resourceType string) {
	if m == nil || m.k8sRetriesTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{attribute.String(attrOperation, operation)}
	if m.detailedLabels {
		attrs = append(attrs, attribute.String(attrResourceType, resourceType))
	}
	m.k8sRetriesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordToolCall records one MCP tool invocation. The context name is
// reduced to its class.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, contextName, status string, duration time.Duration) {
	if m == nil || m.toolCallsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, tool),
		attribute.String(attrStatus, status),
		attribute.String(attrContextClass, ClassifyContextName(contextName)),
	)
	m.toolCallsTotal.Add(ctx, 1, attrs)
	m.toolCallDuration.Record(ctx, duration.Seconds(), attrs)
}

// OnCacheHit records a client cache hit.
func (m *Metrics) OnCacheHit() {
	m.recordCacheLookup(CacheResultHit)
}

// OnCacheMiss records a client cache miss.
func (m *Metrics) OnCacheMiss() {
	m.recordCacheLookup(CacheResultMiss)
}

func (m *Metrics) recordCacheLookup(result string) {
	if m == nil || m.clientCacheLookups == nil {
		return
	}
	m.clientCacheLookups.Add(context.Background(), 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// OnCacheSizeChange records the number of cached clients.
func (m *Metrics) OnCacheSizeChange(size int) {
	if m == nil || m.clientCacheSize == nil {
		return
	}
	m.clientCacheSize.Record(context.Background(), int64(size))
}
