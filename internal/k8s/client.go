package k8s

import (
	"context"
)

// Client defines the interface for Kubernetes operations.
// Every operation accepts an optional context name; an empty name selects the
// default context.
type Client interface {
	// Context Management Operations
	ContextManager

	// Read Operations
	ResourceReader

	// Mutating Operations
	ResourceMutator

	// CachedContexts returns the contexts that currently hold a cached client.
	CachedContexts() []string
}

// ContextManager handles Kubernetes context operations.
type ContextManager interface {
	// ListContexts returns all available Kubernetes contexts.
	ListContexts(ctx context.Context) ([]ContextInfo, error)

	// GetDefaultContext returns the context used when none is named.
	GetDefaultContext(ctx context.Context) (string, error)

	// SetDefaultContext changes the default context for this process only.
	SetDefaultContext(ctx context.Context, name string) error
}

// ResourceReader handles read operations. Reads are retried once on connection errors.
type ResourceReader interface {
	ListPods(ctx context.Context, req ListPodsRequest) (*PodList, error)
	GetPodDetail(ctx context.Context, req PodRequest) (*PodDetail, error)
	ListDeployments(ctx context.Context, req ListDeploymentsRequest) (*DeploymentList, error)
	GetDeployment(ctx context.Context, req DeploymentRequest) (*DeploymentStatus, error)
	ListNodes(ctx context.Context, req ListNodesRequest) (*NodeList, error)
	GetLogs(ctx context.Context, req LogRequest) (*LogPayload, error)
}

// ResourceMutator handles mutating operations. Mutations are never retried.
type ResourceMutator interface {
	ScaleDeployment(ctx context.Context, req ScaleRequest) (*ScaleResult, error)
	RolloutDeployment(ctx context.Context, req RolloutRequest) (*RolloutResult, error)
}
