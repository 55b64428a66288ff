package server

import (
	"errors"

	"github.com/giantswarm/mcp-kubeops/internal/instrumentation"
	"github.com/giantswarm/mcp-kubeops/internal/k8s"
)

// Option is a functional option for configuring ServerContext.
type Option func(*ServerContext) error

// WithK8sClient sets the Kubernetes client for the ServerContext.
func WithK8sClient(client k8s.Client) Option {
	return func(sc *ServerContext) error {
		if client == nil {
			return ErrMissingK8sClient
		}
		sc.k8sClient = client
		return nil
	}
}

// WithLogger sets the logger for the ServerContext.
func WithLogger(logger Logger) Option {
	return func(sc *ServerContext) error {
		if logger == nil {
			return ErrMissingLogger
		}
		sc.logger = logger
		return nil
	}
}

// WithConfig sets the configuration for the ServerContext.
func WithConfig(config *Config) Option {
	return func(sc *ServerContext) error {
		if config == nil {
			return ErrMissingConfig
		}
		sc.config = config.Clone()
		return nil
	}
}

// mutateConfig applies fn to the config, creating a default one first.
func mutateConfig(fn func(*Config)) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		fn(sc.config)
		return nil
	}
}

// WithDefaultNamespace sets the namespace used when a single-object read omits it.
func WithDefaultNamespace(namespace string) Option {
	return mutateConfig(func(c *Config) { c.DefaultNamespace = namespace })
}

// WithNonDestructiveMode enables or disables non-destructive mode.
func WithNonDestructiveMode(enabled bool) Option {
	return mutateConfig(func(c *Config) { c.NonDestructiveMode = enabled })
}

// WithDryRun enables or disables dry-run mode.
func WithDryRun(enabled bool) Option {
	return mutateConfig(func(c *Config) { c.DryRun = enabled })
}

// WithInClusterMode marks the server as running with the pod service account.
// Tools then omit the context parameter.
func WithInClusterMode(enabled bool) Option {
	return mutateConfig(func(c *Config) { c.InCluster = enabled })
}

// WithAllowedOperations sets the mutations permitted in non-destructive mode.
func WithAllowedOperations(operations []string) Option {
	return mutateConfig(func(c *Config) {
		c.AllowedOperations = append([]string(nil), operations...)
	})
}

// WithInstrumentationProvider sets the OpenTelemetry instrumentation provider.
func WithInstrumentationProvider(provider *instrumentation.Provider) Option {
	return func(sc *ServerContext) error {
		sc.instrumentationProvider = provider
		return nil
	}
}

// Error definitions for ServerContext validation and operations.
var (
	ErrMissingK8sClient = errors.New("kubernetes client is required")
	ErrMissingLogger    = errors.New("logger is required")
	ErrMissingConfig    = errors.New("configuration is required")
	ErrServerShutdown   = errors.New("server context has been shutdown")
)
