package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/giantswarm/mcp-kubeops/internal/instrumentation"
	"github.com/giantswarm/mcp-kubeops/internal/k8s"
	"github.com/giantswarm/mcp-kubeops/internal/logging"
	"github.com/giantswarm/mcp-kubeops/internal/server"
	contexttools "github.com/giantswarm/mcp-kubeops/internal/tools/context"
	"github.com/giantswarm/mcp-kubeops/internal/tools/deployment"
	"github.com/giantswarm/mcp-kubeops/internal/tools/node"
	"github.com/giantswarm/mcp-kubeops/internal/tools/pod"
)

// shutdownTimeout bounds graceful shutdown of HTTP listeners.
const shutdownTimeout = 30 * time.Second

// newServeCmd creates the Cobra command for starting the MCP server.
func newServeCmd() *cobra.Command {
	return newServeCmdWithConfig(&ServeConfig{})
}

// newServeCmdWithConfig binds the serve flags to config.
func newServeCmdWithConfig(config *ServeConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP Kubernetes server",
		Long: `Start the Model Context Protocol (MCP) server that exposes multi-context
Kubernetes tools.

Every tool takes an optional context argument. When it is omitted the
process-wide default context is used, seeded from --context or the
kubeconfig's current-context and changed at runtime with
kubernetes_context_set_default.

Supported transports:
  - stdio: Standard input/output (default)
  - sse: Server-Sent Events over HTTP
  - streamable-http: Streamable HTTP transport

Every flag can also be set through an MCP_KUBEOPS_<FLAG> environment variable
(for example MCP_KUBEOPS_QPS_LIMIT) or a key in the TOML file given by
--config (for example qps_limit = 50). Flags win over the environment, which
wins over the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveServeConfig(cmd, afero.NewOsFs(), config); err != nil {
				return err
			}
			return runServe(cmd.Context(), *config)
		},
	}

	flags := cmd.Flags()

	// Kubernetes source
	flags.StringVar(&config.Kubeconfig, "kubeconfig", "", "Path to the kubeconfig file (defaults to $KUBECONFIG, then ~/.kube/config)")
	flags.StringVar(&config.Context, "context", "", "Initial default context (defaults to the kubeconfig's current-context)")
	flags.BoolVar(&config.InCluster, "in-cluster", false, "Use the pod's service account instead of a kubeconfig")
	flags.StringVar(&config.Namespace, "namespace", k8s.DefaultNamespace, "Namespace used by single-object reads that omit one")

	// Mutation policy
	flags.BoolVar(&config.NonDestructiveMode, "non-destructive", false, "Refuse scale and rollout restart unless listed in --allowed-operations")
	flags.BoolVar(&config.DryRun, "dry-run", false, "Send mutations with dryRun=All so the API server validates without persisting")
	flags.StringSliceVar(&config.AllowedOperations, "allowed-operations", []string{"get", "list", "logs"}, "Operations permitted in non-destructive mode (scale, rollout)")

	// Kubernetes client settings
	flags.Float32Var(&config.QPSLimit, "qps-limit", k8s.DefaultQPSLimit, "QPS limit for Kubernetes API client")
	flags.IntVar(&config.BurstLimit, "burst-limit", k8s.DefaultBurstLimit, "Burst limit for Kubernetes API client")
	flags.DurationVar(&config.RequestTimeout, "request-timeout", k8s.DefaultTimeout*time.Second, "Timeout for a single Kubernetes API request")
	flags.DurationVar(&config.ReadRetryBackoff, "read-retry-backoff", k8s.DefaultReadRetryBackoff, "Delay before a read is retried after a connection error")
	flags.Int64Var(&config.LogTailCap, "log-tail-cap", k8s.DefaultLogTailCap, "Maximum number of log lines returned by kubernetes_logs")
	flags.BoolVar(&config.VerifyConnectivity, "verify-connectivity", false, "Probe a cluster's /healthz before its client is cached")

	// Logging
	flags.BoolVar(&config.DebugMode, "debug", false, "Enable debug logging")
	flags.StringVar(&config.LogFormat, "log-format", "", "Log format: text or json (defaults to text for stdio, json otherwise)")

	// Transport
	flags.StringVar(&config.Transport, "transport", transportStdio, "Transport type: stdio, sse, or streamable-http")
	flags.StringVar(&config.HTTPAddr, "http-addr", ":8080", "HTTP server address (for sse and streamable-http transports)")
	flags.StringVar(&config.SSEEndpoint, "sse-endpoint", "/sse", "SSE endpoint path (for sse transport)")
	flags.StringVar(&config.MessageEndpoint, "message-endpoint", "/message", "Message endpoint path (for sse transport)")
	flags.StringVar(&config.HTTPEndpoint, "http-endpoint", "/mcp", "HTTP endpoint path (for streamable-http transport)")
	flags.StringVar(&config.MetricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Address of the dedicated /metrics server (for sse and streamable-http transports, prometheus exporter only)")
	flags.StringVar(&config.AllowedOrigins, "allowed-origins", "", "Comma-separated origins allowed by CORS (for streamable-http transport)")
	flags.BoolVar(&config.EnableHSTS, "enable-hsts", false, "Send Strict-Transport-Security behind a TLS-terminating proxy")

	flags.StringVar(&config.ConfigFile, "config", "", "Path to a TOML config file")

	return cmd
}

// newLogger builds the process logger. stdout belongs to the protocol on
// stdio, so logs always go to stderr there.
func newLogger(config ServeConfig) *slog.Logger {
	var w io.Writer = os.Stderr
	if config.Transport != transportStdio {
		w = os.Stdout
	}
	return logging.New(w, config.logFormat(), logging.ParseLevel(config.logLevel()))
}

// newContextSource returns the discovery and builder for the configured mode.
func newContextSource(config ServeConfig, logger k8s.Logger) (k8s.Discovery, k8s.Builder, error) {
	options := k8s.RestOptions{
		QPSLimit:           config.QPSLimit,
		BurstLimit:         config.BurstLimit,
		Timeout:            config.RequestTimeout,
		VerifyConnectivity: config.VerifyConnectivity,
	}

	if config.InCluster {
		loader := k8s.NewInClusterLoader(options)
		if err := loader.ValidateEnvironment(); err != nil {
			return nil, nil, fmt.Errorf("in-cluster mode: %w", err)
		}
		return loader, loader, nil
	}

	loader := k8s.NewKubeconfigLoader(config.Kubeconfig, options, logger)
	return loader, loader, nil
}

func runServe(ctx context.Context, config ServeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}

	slogger := newLogger(config)
	slog.SetDefault(slogger)
	klog.SetSlogLogger(slogger)
	logger := logging.NewSlogAdapter(slogger)

	version := rootCmd.Version
	if version == "" {
		version = "dev"
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	instrumentationConfig := instrumentation.DefaultConfig()
	instrumentationConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(shutdownCtx, instrumentationConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(flushCtx); err != nil {
			logger.Warn("Error shutting down instrumentation", logging.Err(err))
		}
	}()

	discovery, builder, err := newContextSource(config, logger)
	if err != nil {
		return err
	}

	registry, err := k8s.NewContextRegistry(shutdownCtx, discovery, k8s.NewDefaultContextStore(config.Context), logger)
	if err != nil {
		return fmt.Errorf("failed to load contexts: %w", err)
	}

	cache := k8s.NewClientCache(builder, k8s.ClientCacheConfig{
		Metrics: provider.Metrics(),
		Logger:  logger,
	})

	k8sClient, err := k8s.NewClient(&k8s.ClientConfig{
		Registry:         registry,
		Cache:            cache,
		DefaultNamespace: config.Namespace,
		DryRun:           config.DryRun,
		LogTailCap:       config.LogTailCap,
		ReadRetry: k8s.RetryPolicy{
			Backoff: config.ReadRetryBackoff,
		},
		Metrics:   provider.Metrics(),
		Logger:    logger,
		DebugMode: config.DebugMode,
	})
	if err != nil {
		return fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	serverConfig := server.NewDefaultConfig()
	serverConfig.Version = version
	serverConfig.KubeConfigPath = config.Kubeconfig
	serverConfig.DefaultContext = config.Context
	serverConfig.LogLevel = config.logLevel()
	serverConfig.LogFormat = config.logFormat()

	serverContext, err := server.NewServerContext(shutdownCtx,
		server.WithK8sClient(k8sClient),
		server.WithLogger(logger),
		server.WithConfig(serverConfig),
		server.WithDefaultNamespace(config.Namespace),
		server.WithNonDestructiveMode(config.NonDestructiveMode),
		server.WithDryRun(config.DryRun),
		server.WithAllowedOperations(config.AllowedOperations),
		server.WithInClusterMode(config.InCluster),
		server.WithInstrumentationProvider(provider),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("Error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer(serverConfig.ServerName, version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerTools(mcpSrv, serverContext); err != nil {
		return err
	}

	logger.Info("Starting MCP server",
		"transport", config.Transport,
		"in_cluster", config.InCluster,
		"non_destructive", config.NonDestructiveMode,
		"dry_run", config.DryRun)

	switch config.Transport {
	case transportStdio:
		return runStdioServer(mcpSrv)
	case transportSSE:
		return runSSEServer(shutdownCtx, mcpSrv, config, serverContext)
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, config, serverContext)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", config.Transport)
	}
}

// registerTools registers every tool family on s.
func registerTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	registrations := []struct {
		name     string
		register func(*mcpserver.MCPServer, *server.ServerContext) error
	}{
		{"context", contexttools.RegisterContextTools},
		{"pod", pod.RegisterPodTools},
		{"deployment", deployment.RegisterDeploymentTools},
		{"node", node.RegisterNodeTools},
	}

	for _, r := range registrations {
		if err := r.register(s, sc); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", r.name, err)
		}
	}
	return nil
}
