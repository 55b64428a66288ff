package k8s

import (
	"context"
	"fmt"
	"time"

	"github.com/giantswarm/mcp-kubeops/internal/instrumentation"
	"github.com/giantswarm/mcp-kubeops/internal/logging"
)

// Logger interface for client logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// MetricsRecorder receives per-operation measurements.
type MetricsRecorder interface {
	RecordK8sOperation(ctx context.Context, operation, resourceType, namespace, status string, duration time.Duration)
	RecordK8sRetry(ctx context.Context, operation, resourceType string)
}

// ClientConfig holds configuration for the Kubernetes client.
type ClientConfig struct {
	Registry *ContextRegistry
	Cache    *ClientCache

	// DefaultNamespace is used by single-object reads that omit the namespace.
	DefaultNamespace string

	// DryRun sends mutations with dryRun=All.
	DryRun bool

	// Log settings
	LogTailCap    int64
	LogLimitBytes int64

	ReadRetry RetryPolicy

	Metrics MetricsRecorder
	Logger  Logger

	// DebugMode logs every operation at debug level.
	DebugMode bool
}

// kubernetesClient implements the Client interface using client-go.
type kubernetesClient struct {
	registry *ContextRegistry
	cache    *ClientCache

	defaultNamespace string
	dryRun           bool
	logTailCap       int64
	logLimitBytes    int64
	retry            RetryPolicy

	metrics   MetricsRecorder
	logger    Logger
	debugMode bool

	now      func() time.Time
	restarts *restartClock
}

// NewClient creates a new Kubernetes client with the given configuration.
func NewClient(config *ClientConfig) (*kubernetesClient, error) {
	if config == nil {
		return nil, fmt.Errorf("client configuration is required")
	}
	if config.Registry == nil {
		return nil, fmt.Errorf("context registry is required")
	}
	if config.Cache == nil {
		return nil, fmt.Errorf("client cache is required")
	}

	c := &kubernetesClient{
		registry:         config.Registry,
		cache:            config.Cache,
		defaultNamespace: config.DefaultNamespace,
		dryRun:           config.DryRun,
		logTailCap:       config.LogTailCap,
		logLimitBytes:    config.LogLimitBytes,
		retry:            config.ReadRetry.withDefaults(),
		metrics:          config.Metrics,
		logger:           config.Logger,
		debugMode:        config.DebugMode,
		now:              time.Now,
		restarts:         newRestartClock(time.Now),
	}

	if c.defaultNamespace == "" {
		c.defaultNamespace = DefaultNamespace
	}
	if c.logTailCap <= 0 {
		c.logTailCap = DefaultLogTailCap
	}
	if c.logLimitBytes <= 0 {
		c.logLimitBytes = DefaultLogLimitBytes
	}
	if c.logger == nil {
		c.logger = nopLogger{}
	}

	return c, nil
}

// ListContexts returns all available Kubernetes contexts.
func (c *kubernetesClient) ListContexts(ctx context.Context) ([]ContextInfo, error) {
	return c.registry.ListContexts(ctx)
}

// GetDefaultContext returns the context used when none is named.
func (c *kubernetesClient) GetDefaultContext(_ context.Context) (string, error) {
	return c.registry.GetDefaultContext()
}

// SetDefaultContext changes the default context for this process only.
func (c *kubernetesClient) SetDefaultContext(ctx context.Context, name string) error {
	return c.registry.SetDefaultContext(ctx, name)
}

// CachedContexts returns the contexts that currently hold a cached client.
func (c *kubernetesClient) CachedContexts() []string {
	return c.cache.Contexts()
}

// handle resolves name and returns its cached client.
func (c *kubernetesClient) handle(ctx context.Context, name string) (*ClientHandle, error) {
	resolved, err := c.registry.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.cache.Get(ctx, resolved)
}

// logOperation logs an operation when debug mode is enabled.
func (c *kubernetesClient) logOperation(operation, kubeContext, namespace, resource, name string) {
	if c.debugMode {
		c.logger.Debug("Kubernetes operation",
			logging.Operation(operation),
			logging.Context(kubeContext),
			logging.Namespace(namespace),
			logging.ResourceType(resource),
			"name", name)
	}
}

// observe wraps fn in a span and records its duration and outcome.
func observe[T any](ctx context.Context, c *kubernetesClient, operation, resource, namespace string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := instrumentation.StartK8sSpan(ctx, operation, resource, namespace)
	defer span.End()

	start := time.Now()
	result, err := fn(ctx)
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanErrorKind(span, err, string(KindOf(err)))
		c.logger.Debug("Kubernetes operation failed",
			logging.Operation(operation),
			logging.ResourceType(resource),
			logging.Namespace(namespace),
			logging.ErrorKind(string(KindOf(err))),
			logging.SanitizedErr(err))
	} else {
		instrumentation.SetSpanSuccess(span)
	}

	if c.metrics != nil {
		c.metrics.RecordK8sOperation(ctx, operation, resource, namespace, status, duration)
	}
	return result, err
}

// read retries op once on ConnectionError.
func read[T any](ctx context.Context, c *kubernetesClient, operation, resource string, op func(context.Context) (T, error)) (T, error) {
	onRetry := func(err error) {
		c.logger.Warn("Retrying read after connection error",
			logging.Operation(operation),
			logging.ResourceType(resource),
			logging.SanitizedErr(err))
		instrumentation.AddRetryEvent(ctx, err)
		if c.metrics != nil {
			c.metrics.RecordK8sRetry(ctx, operation, resource)
		}
	}
	return retryRead(ctx, c.retry, onRetry, op)
}
