// Package instrumentation wires OpenTelemetry metrics and tracing for the
// server.
//
// # Metrics
//
//   - http_requests_total, http_request_duration_seconds: HTTP transports
//   - kubernetes_operations_total, kubernetes_operation_duration_seconds:
//     one sample per read or mutation, labelled by operation and status
//   - kubernetes_operation_retries_total: reads retried after a connection error
//   - client_cache_lookups_total, client_cache_entries: per-context client cache
//   - mcp_tool_calls_total, mcp_tool_call_duration_seconds: tool invocations,
//     labelled by tool, status and context class
//
// Namespace and resource_type labels are only added when DetailedLabels is
// set. Context names are never used as labels; ClassifyContextName reduces
// them to a fixed set of classes.
//
// # Tracing
//
// Each tool call opens a tool.<name> server span and each Kubernetes
// operation a k8s.<operation> client span beneath it. Retries are recorded
// as span events.
//
// # Configuration
//
// DefaultConfig reads INSTRUMENTATION_ENABLED, METRICS_EXPORTER
// (prometheus, otlp, stdout, none), TRACING_EXPORTER (otlp, stdout, none),
// OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE,
// OTEL_TRACES_SAMPLER_ARG, OTEL_SERVICE_NAME and METRICS_DETAILED_LABELS.
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	http.Handle("/metrics", provider.PrometheusHandler())
package instrumentation
