package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/giantswarm/mcp-kubeops/internal/instrumentation"
)

// DefaultMetricsAddr is the listen address of the metrics server.
const DefaultMetricsAddr = ":9090"

// MetricsServerConfig configures the dedicated metrics listener.
type MetricsServerConfig struct {
	Addr                    string
	InstrumentationProvider *instrumentation.Provider
}

// MetricsServer exposes /metrics on its own port so scrapes never share a
// listener with tool traffic.
type MetricsServer struct {
	addr   string
	server *http.Server
}

// NewMetricsServer builds a metrics server. It does not start listening.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.InstrumentationProvider == nil {
		return nil, errors.New("instrumentation provider is required")
	}

	addr := config.Addr
	if addr == "" {
		addr = DefaultMetricsAddr
	}

	mux := http.NewServeMux()
	if handler := config.InstrumentationProvider.PrometheusHandler(); handler != nil {
		mux.Handle("/metrics", handler)
	} else {
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "prometheus exporter is not enabled", http.StatusNotFound)
		})
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	})

	return &MetricsServer{
		addr: addr,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Addr returns the configured listen address.
func (m *MetricsServer) Addr() string {
	return m.addr
}

// Start blocks serving until Shutdown is called. It returns
// http.ErrServerClosed after a graceful shutdown.
func (m *MetricsServer) Start() error {
	return m.server.ListenAndServe()
}

// Shutdown stops the server, waiting for in-flight scrapes.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.server.Shutdown(ctx)
}
