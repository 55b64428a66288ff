package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// HealthChecker provides health check endpoints for Kubernetes probes.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker creates a HealthChecker. It starts ready.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Version string            `json:"version,omitempty"`
}

// DetailedHealthResponse adds client and tool state to the basic response.
type DetailedHealthResponse struct {
	Status          string                      `json:"status"`
	Mode            string                      `json:"mode"`
	Version         string                      `json:"version,omitempty"`
	Uptime          string                      `json:"uptime"`
	Clients         *ClientHealthStatus         `json:"clients,omitempty"`
	Tools           *ToolStatsSnapshot          `json:"tools,omitempty"`
	Instrumentation *InstrumentationHealthCheck `json:"instrumentation,omitempty"`
}

// ClientHealthStatus reports the default context and the cached clients.
type ClientHealthStatus struct {
	DefaultContext string   `json:"default_context,omitempty"`
	CachedClients  int      `json:"cached_clients"`
	CachedContexts []string `json:"cached_contexts,omitempty"`
}

// InstrumentationHealthCheck provides health information about instrumentation.
type InstrumentationHealthCheck struct {
	Enabled         bool   `json:"enabled"`
	MetricsExporter string `json:"metrics_exporter,omitempty"`
	TracingExporter string `json:"tracing_exporter,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// LivenessHandler serves /healthz. Responding at all means alive.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{Status: "ok"}
		if h.serverContext != nil && h.serverContext.Config() != nil {
			response.Version = h.serverContext.Config().Version
		}
		writeJSON(w, http.StatusOK, response)
	})
}

// ReadinessHandler serves /readyz.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]string)
		allOk := true

		if h.ready.Load() {
			checks["ready"] = "ok"
		} else {
			checks["ready"] = "not ready"
			allOk = false
		}

		if h.serverContext != nil && h.serverContext.IsShutdown() {
			checks["shutdown"] = "shutting down"
			allOk = false
		} else {
			checks["shutdown"] = "ok"
		}

		if h.serverContext != nil {
			// An unset default context is reported but does not fail readiness:
			// every tool accepts an explicit context.
			if client := h.serverContext.K8sClient(); client != nil {
				if _, err := client.GetDefaultContext(r.Context()); err != nil {
					checks["default_context"] = "unset"
				} else {
					checks["default_context"] = "ok"
				}
			}
			if provider := h.serverContext.InstrumentationProvider(); provider != nil {
				if provider.Enabled() {
					checks["instrumentation"] = "ok"
				} else {
					checks["instrumentation"] = "disabled"
				}
			}
		}

		response := HealthResponse{Checks: checks}
		if allOk {
			response.Status = "ok"
			writeJSON(w, http.StatusOK, response)
			return
		}
		response.Status = "not ready"
		writeJSON(w, http.StatusServiceUnavailable, response)
	})
}

// RegisterHealthEndpoints registers health check endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}

// DetailedHealthHandler serves /healthz/detailed.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := DetailedHealthResponse{
			Status: "ok",
			Mode:   h.determineMode(),
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
		}

		if h.serverContext != nil {
			if cfg := h.serverContext.Config(); cfg != nil {
				response.Version = cfg.Version
			}
			response.Clients = h.getClientStatus(r)
			if stats := h.serverContext.ToolStats(); stats != nil {
				snapshot := stats.Snapshot()
				response.Tools = &snapshot
			}
			response.Instrumentation = h.getInstrumentationStatus()
		}

		status := http.StatusOK
		switch {
		case !h.ready.Load():
			response.Status = "not ready"
			status = http.StatusServiceUnavailable
		case h.serverContext != nil && h.serverContext.IsShutdown():
			response.Status = "shutting down"
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, response)
	})
}

func (h *HealthChecker) determineMode() string {
	if h.serverContext == nil || h.serverContext.Config() == nil {
		return "unknown"
	}
	if h.serverContext.InClusterMode() {
		return "in-cluster"
	}
	return "kubeconfig"
}

func (h *HealthChecker) getClientStatus(r *http.Request) *ClientHealthStatus {
	client := h.serverContext.K8sClient()
	if client == nil {
		return nil
	}

	cached := client.CachedContexts()
	status := &ClientHealthStatus{
		CachedClients:  len(cached),
		CachedContexts: cached,
	}
	if name, err := client.GetDefaultContext(r.Context()); err == nil {
		status.DefaultContext = name
	}
	return status
}

func (h *HealthChecker) getInstrumentationStatus() *InstrumentationHealthCheck {
	provider := h.serverContext.InstrumentationProvider()
	if !provider.Enabled() {
		return &InstrumentationHealthCheck{Enabled: false}
	}

	cfg := provider.Config()
	return &InstrumentationHealthCheck{
		Enabled:         true,
		MetricsExporter: cfg.MetricsExporter,
		TracingExporter: cfg.TracingExporter,
	}
}
