package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-kubeops/internal/server"
	"github.com/giantswarm/mcp-kubeops/internal/server/middleware"
)

// runSSEServer serves MCP over Server-Sent Events until ctx is cancelled.
func runSSEServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, config ServeConfig, sc *server.ServerContext) error {
	sseServer := mcpserver.NewSSEServer(mcpSrv,
		mcpserver.WithSSEEndpoint(config.SSEEndpoint),
		mcpserver.WithMessageEndpoint(config.MessageEndpoint),
	)

	mux := http.NewServeMux()
	mux.Handle(config.SSEEndpoint, sseServer.SSEHandler())
	mux.Handle(config.MessageEndpoint, sseServer.MessageHandler())
	server.NewHealthChecker(sc).RegisterHealthEndpoints(mux)

	handler := middleware.Chain(mux,
		middleware.HTTPMetrics(sc.InstrumentationProvider()),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{EnableHSTS: config.EnableHSTS}),
	)

	httpServer := &http.Server{
		Addr:              config.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("SSE server starting",
		"addr", config.HTTPAddr,
		"sse_endpoint", config.SSEEndpoint,
		"message_endpoint", config.MessageEndpoint,
		"health_endpoints", []string{"/healthz", "/readyz", "/healthz/detailed"})

	return serveHTTP(ctx, httpServer, config, sc, func(shutdownCtx context.Context) error {
		return sseServer.Shutdown(shutdownCtx)
	})
}
