package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-kubeops/internal/instrumentation"
	"github.com/giantswarm/mcp-kubeops/internal/server"
	"github.com/giantswarm/mcp-kubeops/internal/server/middleware"
)

// runStreamableHTTPServer serves MCP over the streamable HTTP transport until
// ctx is cancelled.
func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, config ServeConfig, sc *server.ServerContext) error {
	handler, err := newStreamableHTTPHandler(mcpSrv, config, sc)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              config.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("streamable HTTP server starting",
		"addr", config.HTTPAddr,
		"endpoint", config.HTTPEndpoint,
		"health_endpoints", []string{"/healthz", "/readyz", "/healthz/detailed"})

	return serveHTTP(ctx, httpServer, config, sc, nil)
}

// newStreamableHTTPHandler builds the MCP endpoint and health endpoints behind
// the metrics, security header and CORS middleware.
func newStreamableHTTPHandler(mcpSrv *mcpserver.MCPServer, config ServeConfig, sc *server.ServerContext) (http.Handler, error) {
	origins, err := middleware.ValidateAllowedOrigins(config.AllowedOrigins)
	if err != nil {
		return nil, fmt.Errorf("invalid allowed-origins: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(config.HTTPEndpoint, mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(config.HTTPEndpoint),
	))
	server.NewHealthChecker(sc).RegisterHealthEndpoints(mux)

	return middleware.Chain(mux,
		middleware.HTTPMetrics(sc.InstrumentationProvider()),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{EnableHSTS: config.EnableHSTS}),
		middleware.CORS(origins),
	), nil
}

// serveHTTP runs httpServer, plus the metrics server when the Prometheus
// exporter is active, until ctx is cancelled or the listener fails.
// onShutdown, when set, runs before the listener is closed.
func serveHTTP(ctx context.Context, httpServer *http.Server, config ServeConfig, sc *server.ServerContext, onShutdown func(context.Context) error) error {
	metricsServer, err := startMetricsServer(config.MetricsAddr, sc.InstrumentationProvider())
	if err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error shutting down metrics server", "error", err)
			}
		}
		if onShutdown != nil {
			if err := onShutdown(shutdownCtx); err != nil {
				slog.Error("error shutting down transport", "error", err)
			}
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if metricsServer != nil {
			_ = metricsServer.Shutdown(context.Background())
		}
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		slog.Info("HTTP server stopped normally")
	}

	slog.Info("HTTP server gracefully stopped")
	return nil
}

// startMetricsServer starts the dedicated /metrics listener. It returns nil
// when no Prometheus exporter is active.
func startMetricsServer(addr string, provider *instrumentation.Provider) (*server.MetricsServer, error) {
	if !provider.Enabled() || provider.PrometheusHandler() == nil {
		return nil, nil
	}

	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, err
	}

	go func() {
		if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	}()

	slog.Info("metrics server started", "addr", metricsServer.Addr(), "endpoint", "/metrics")
	return metricsServer, nil
}
