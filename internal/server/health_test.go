package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-kubeops/internal/instrumentation"
)

func newTestServerContext(t *testing.T, client *stubClient, opts ...Option) *ServerContext {
	t.Helper()
	opts = append([]Option{WithK8sClient(client)}, opts...)
	sc, err := NewServerContext(context.Background(), opts...)
	require.NoError(t, err)
	return sc
}

func serve(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthChecker_SetReady(t *testing.T) {
	h := NewHealthChecker(nil)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())

	h.SetReady(true)
	assert.True(t, h.IsReady())
}

func TestLivenessHandler(t *testing.T) {
	sc := newTestServerContext(t, &stubClient{})
	h := NewHealthChecker(sc)

	rec, body := serve(t, h.LivenessHandler(), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "dev", body["version"])
}

func TestLivenessHandler_NotReadyIsStillAlive(t *testing.T) {
	h := NewHealthChecker(nil)
	h.SetReady(false)

	rec, _ := serve(t, h.LivenessHandler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name           string
		client         *stubClient
		ready          bool
		shutdown       bool
		wantCode       int
		wantDefaultCtx string
	}{
		{name: "ready with default context", client: &stubClient{defaultContext: "staging"}, ready: true, wantCode: http.StatusOK, wantDefaultCtx: "ok"},
		{name: "unset default context stays ready", client: &stubClient{}, ready: true, wantCode: http.StatusOK, wantDefaultCtx: "unset"},
		{name: "not ready", client: &stubClient{defaultContext: "staging"}, ready: false, wantCode: http.StatusServiceUnavailable, wantDefaultCtx: "ok"},
		{name: "shutting down", client: &stubClient{defaultContext: "staging"}, ready: true, shutdown: true, wantCode: http.StatusServiceUnavailable, wantDefaultCtx: "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestServerContext(t, tt.client)
			h := NewHealthChecker(sc)
			h.SetReady(tt.ready)
			if tt.shutdown {
				require.NoError(t, sc.Shutdown())
			}

			rec, body := serve(t, h.ReadinessHandler(), "/readyz")

			assert.Equal(t, tt.wantCode, rec.Code)
			checks, ok := body["checks"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, tt.wantDefaultCtx, checks["default_context"])
		})
	}
}

func TestDetailedHealthHandler(t *testing.T) {
	client := &stubClient{defaultContext: "staging", cached: []string{"prod", "staging"}}
	sc := newTestServerContext(t, client)
	sc.ToolStats().RecordCall(false)
	sc.ToolStats().RecordCall(true)
	sc.ToolStats().RecordRefusal()
	h := NewHealthChecker(sc)

	rec := httptest.NewRecorder()
	h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var response DetailedHealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "kubeconfig", response.Mode)
	require.NotNil(t, response.Clients)
	assert.Equal(t, "staging", response.Clients.DefaultContext)
	assert.Equal(t, 2, response.Clients.CachedClients)
	assert.Equal(t, []string{"prod", "staging"}, response.Clients.CachedContexts)
	require.NotNil(t, response.Tools)
	assert.Equal(t, ToolStatsSnapshot{Calls: 2, Failures: 1, Refusals: 1}, *response.Tools)
	require.NotNil(t, response.Instrumentation)
	assert.False(t, response.Instrumentation.Enabled)
}

func TestDetailedHealthHandler_InClusterMode(t *testing.T) {
	sc := newTestServerContext(t, &stubClient{defaultContext: "in-cluster"}, WithInClusterMode(true))
	h := NewHealthChecker(sc)

	_, body := serve(t, h.DetailedHealthHandler(), "/healthz/detailed")
	assert.Equal(t, "in-cluster", body["mode"])
}

func TestDetailedHealthHandler_Instrumentation(t *testing.T) {
	ctx := context.Background()
	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		ServiceName:     "health-test",
		Enabled:         true,
		MetricsExporter: instrumentation.ExporterPrometheus,
		TracingExporter: instrumentation.ExporterNone,
	})
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(ctx) }()

	sc := newTestServerContext(t, &stubClient{}, WithInstrumentationProvider(provider))
	h := NewHealthChecker(sc)

	rec := httptest.NewRecorder()
	h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

	var response DetailedHealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.NotNil(t, response.Instrumentation)
	assert.True(t, response.Instrumentation.Enabled)
	assert.Equal(t, instrumentation.ExporterPrometheus, response.Instrumentation.MetricsExporter)
	assert.Equal(t, instrumentation.ExporterNone, response.Instrumentation.TracingExporter)
	assert.Empty(t, response.Clients.DefaultContext)
}

func TestDetailedHealthHandler_NotReadyAndShutdown(t *testing.T) {
	sc := newTestServerContext(t, &stubClient{})
	h := NewHealthChecker(sc)

	h.SetReady(false)
	rec, body := serve(t, h.DetailedHealthHandler(), "/healthz/detailed")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", body["status"])

	h.SetReady(true)
	require.NoError(t, sc.Shutdown())
	rec, body = serve(t, h.DetailedHealthHandler(), "/healthz/detailed")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "shutting down", body["status"])
}

func TestDetailedHealthHandler_NilServerContext(t *testing.T) {
	h := NewHealthChecker(nil)

	rec, body := serve(t, h.DetailedHealthHandler(), "/healthz/detailed")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unknown", body["mode"])
	assert.Nil(t, body["clients"])
}

func TestRegisterHealthEndpoints(t *testing.T) {
	h := NewHealthChecker(newTestServerContext(t, &stubClient{}))
	mux := http.NewServeMux()
	h.RegisterHealthEndpoints(mux)

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}
