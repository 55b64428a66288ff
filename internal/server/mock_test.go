package server

import (
	"context"

	"github.com/giantswarm/mcp-kubeops/internal/k8s"
)

// stubClient satisfies k8s.Client for the context and health checks.
// Unused operations panic through the nil embedded interface.
type stubClient struct {
	k8s.Client
	defaultContext string
	cached         []string
}

func (s *stubClient) GetDefaultContext(ctx context.Context) (string, error) {
	if s.defaultContext == "" {
		return "", k8s.ErrNoContextConfigured
	}
	return s.defaultContext, nil
}

func (s *stubClient) CachedContexts() []string {
	return s.cached
}
