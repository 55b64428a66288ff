package tools

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/giantswarm/mcp-kubeops/internal/instrumentation"
	"github.com/giantswarm/mcp-kubeops/internal/k8s"
	"github.com/giantswarm/mcp-kubeops/internal/logging"
	"github.com/giantswarm/mcp-kubeops/internal/server"
	"github.com/giantswarm/mcp-kubeops/internal/tools/tooltest"
)

func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func request(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func attrValue(span sdktrace.ReadOnlySpan, key string) string {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

func TestWrapTool_Success(t *testing.T) {
	recorder := withSpanRecorder(t)
	sc, err := tooltest.NewServerContext(&tooltest.MockK8sClient{})
	require.NoError(t, err)

	handler := WrapTool("kubernetes_pods_list", func(ctx context.Context, _ mcp.CallToolRequest, _ *server.ServerContext) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	}, sc)

	result, err := handler(context.Background(), request(map[string]interface{}{"context": "prod-eu", "namespace": "apps"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	assert.Equal(t, server.ToolStatsSnapshot{Calls: 1}, sc.ToolStats().Snapshot())

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool.kubernetes_pods_list", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, "prod-eu", attrValue(spans[0], instrumentation.SpanAttrContext))
	assert.Equal(t, "production", attrValue(spans[0], instrumentation.SpanAttrContextClass))
	assert.Equal(t, "apps", attrValue(spans[0], instrumentation.SpanAttrNamespace))
}

func TestWrapTool_ErrorResult(t *testing.T) {
	recorder := withSpanRecorder(t)
	sc, err := tooltest.NewServerContext(&tooltest.MockK8sClient{})
	require.NoError(t, err)

	handler := WrapTool("kubernetes_pod_get", func(ctx context.Context, _ mcp.CallToolRequest, _ *server.ServerContext) (*mcp.CallToolResult, error) {
		return ErrorResult(&k8s.Error{Kind: k8s.KindNotFound, Message: "gone"}), nil
	}, sc)

	result, err := handler(context.Background(), request(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, server.ToolStatsSnapshot{Calls: 1, Failures: 1}, sc.ToolStats().Snapshot())

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "NotFound", attrValue(spans[0], instrumentation.SpanAttrErrorKind))
}

func TestWrapTool_AuditLineCarriesTraceID(t *testing.T) {
	recorder := withSpanRecorder(t)
	var buf bytes.Buffer
	logger := logging.NewSlogAdapter(logging.New(&buf, "json", slog.LevelInfo))
	sc, err := tooltest.NewServerContext(&tooltest.MockK8sClient{}, server.WithLogger(logger))
	require.NoError(t, err)

	handler := WrapTool("kubernetes_nodes_list", func(ctx context.Context, _ mcp.CallToolRequest, _ *server.ServerContext) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	}, sc)

	_, err = handler(context.Background(), request(map[string]interface{}{"context": "staging"}))
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	out := buf.String()
	assert.Contains(t, out, "Tool call completed")
	assert.Contains(t, out, `"tool":"kubernetes_nodes_list"`)
	assert.Contains(t, out, `"trace_id":"`+spans[0].SpanContext().TraceID().String()+`"`)
}

func TestWrapTool_GoError(t *testing.T) {
	withSpanRecorder(t)
	sc, err := tooltest.NewServerContext(&tooltest.MockK8sClient{})
	require.NoError(t, err)

	boom := errors.New("boom")
	handler := WrapTool("kubernetes_logs", func(ctx context.Context, _ mcp.CallToolRequest, _ *server.ServerContext) (*mcp.CallToolResult, error) {
		return nil, boom
	}, sc)

	_, err = handler(context.Background(), request(nil))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), sc.ToolStats().Snapshot().Failures)
}

func TestWrapTool_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		ServiceName:     "tools-test",
		Enabled:         true,
		MetricsExporter: instrumentation.ExporterPrometheus,
		TracingExporter: instrumentation.ExporterNone,
	})
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(ctx) }()

	sc, err := tooltest.NewServerContext(&tooltest.MockK8sClient{}, server.WithInstrumentationProvider(provider))
	require.NoError(t, err)

	handler := WrapTool("kubernetes_nodes_list", func(ctx context.Context, _ mcp.CallToolRequest, _ *server.ServerContext) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	}, sc)
	_, err = handler(ctx, request(nil))
	require.NoError(t, err)

	rec := newScrape(t, provider)
	assert.Contains(t, rec, "mcp_tool_calls_total")
	assert.Contains(t, rec, `tool="kubernetes_nodes_list"`)
}

func newScrape(t *testing.T, provider *instrumentation.Provider) string {
	t.Helper()
	rec := httptest.NewRecorder()
	provider.PrometheusHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}
