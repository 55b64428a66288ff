package server

import (
	"context"
	"sync"

	"github.com/giantswarm/mcp-kubeops/internal/instrumentation"
	"github.com/giantswarm/mcp-kubeops/internal/k8s"
	"github.com/giantswarm/mcp-kubeops/internal/logging"
)

// Logger is the logging interface used by the server and its tools.
type Logger = logging.Logger

// ServerContext encapsulates all dependencies needed by the MCP server
// and provides a clean abstraction for dependency injection and lifecycle management.
type ServerContext struct {
	// Core dependencies
	k8sClient k8s.Client
	logger    Logger
	config    *Config

	instrumentationProvider *instrumentation.Provider

	// In-process tool call counters, reported by the detailed health check.
	stats *ToolStats

	// Context management
	ctx    context.Context
	cancel context.CancelFunc

	// Lifecycle management
	mu       sync.RWMutex
	shutdown bool
}

// ToolStats counts tool outcomes since startup.
type ToolStats struct {
	mu       sync.RWMutex
	calls    int64
	failures int64
	refusals int64
}

// ToolStatsSnapshot is a point-in-time copy of ToolStats.
type ToolStatsSnapshot struct {
	Calls    int64 `json:"calls"`
	Failures int64 `json:"failures"`
	Refusals int64 `json:"refusals"`
}

func NewToolStats() *ToolStats {
	return &ToolStats{}
}

// RecordCall counts a tool call and, when failed is set, a failure.
func (s *ToolStats) RecordCall(failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if failed {
		s.failures++
	}
}

// RecordRefusal counts a mutation refused by non-destructive mode.
func (s *ToolStats) RecordRefusal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refusals++
}

func (s *ToolStats) Snapshot() ToolStatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ToolStatsSnapshot{Calls: s.calls, Failures: s.failures, Refusals: s.refusals}
}

// NewServerContext creates a new ServerContext with default values.
// Use the provided functional options to customize the context.
func NewServerContext(ctx context.Context, opts ...Option) (*ServerContext, error) {
	serverCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:    serverCtx,
		cancel: cancel,
		config: NewDefaultConfig(),
		logger: logging.DefaultLogger(),
		stats:  NewToolStats(),
	}

	for _, opt := range opts {
		if err := opt(sc); err != nil {
			cancel()
			return nil, err
		}
	}

	if err := sc.validate(); err != nil {
		cancel()
		return nil, err
	}

	return sc, nil
}

// Context returns the server context for cancellation and deadlines.
func (sc *ServerContext) Context() context.Context {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.ctx
}

// K8sClient returns the Kubernetes client interface.
func (sc *ServerContext) K8sClient() k8s.Client {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.k8sClient
}

// Logger returns the logger interface.
func (sc *ServerContext) Logger() Logger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.logger
}

// Config returns the server configuration.
func (sc *ServerContext) Config() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config
}

// InstrumentationProvider returns the provider, or nil when none was set.
func (sc *ServerContext) InstrumentationProvider() *instrumentation.Provider {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.instrumentationProvider
}

// Metrics returns the OpenTelemetry recorder. It is nil when
// instrumentation is disabled, which is safe to call.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.InstrumentationProvider().Metrics()
}

// ToolStats returns the in-process tool counters.
func (sc *ServerContext) ToolStats() *ToolStats {
	return sc.stats
}

// InClusterMode reports whether the server uses the pod service account.
func (sc *ServerContext) InClusterMode() bool {
	return sc.Config().InCluster
}

// Shutdown gracefully shuts down the server context.
// This cancels the context and releases any resources.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.logger.Info("Shutting down server context")

	if sc.cancel != nil {
		sc.cancel()
	}
	sc.shutdown = true

	sc.logger.Info("Server context shutdown complete")
	return nil
}

// IsShutdown returns true if the server context has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// validate ensures all required dependencies are set.
func (sc *ServerContext) validate() error {
	if sc.k8sClient == nil {
		return ErrMissingK8sClient
	}
	if sc.logger == nil {
		return ErrMissingLogger
	}
	if sc.config == nil {
		return ErrMissingConfig
	}
	return nil
}

// Config holds the server configuration.
type Config struct {
	// Server settings
	ServerName string `json:"serverName"`
	Version    string `json:"version"`

	// Kubernetes settings
	DefaultNamespace string `json:"defaultNamespace"`
	KubeConfigPath   string `json:"kubeConfigPath"`
	DefaultContext   string `json:"defaultContext"`
	InCluster        bool   `json:"inCluster"`

	// Non-destructive mode settings
	NonDestructiveMode bool     `json:"nonDestructiveMode"`
	DryRun             bool     `json:"dryRun"`
	AllowedOperations  []string `json:"allowedOperations"`

	// Logging settings
	LogLevel  string `json:"logLevel"`
	LogFormat string `json:"logFormat"`
}

// NewDefaultConfig creates a configuration with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		ServerName:        "mcp-kubeops",
		Version:           "dev",
		DefaultNamespace:  k8s.DefaultNamespace,
		AllowedOperations: []string{"get", "list", "logs"},
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	if c.AllowedOperations != nil {
		clone.AllowedOperations = make([]string, len(c.AllowedOperations))
		copy(clone.AllowedOperations, c.AllowedOperations)
	}
	return &clone
}
