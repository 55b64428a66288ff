// Package tooltest provides mock implementations shared by the tool package tests.
package tooltest

import (
	"context"
	"sync"

	"github.com/giantswarm/mcp-kubeops/internal/k8s"
	"github.com/giantswarm/mcp-kubeops/internal/server"
)

var (
	_ k8s.Client    = (*MockK8sClient)(nil)
	_ server.Logger = (*MockLogger)(nil)
)

// MockK8sClient implements k8s.Client. Each operation calls the matching
// function field when set and otherwise returns an empty result. Requests
// are recorded so tests can assert on what the handler passed down.
type MockK8sClient struct {
	mu sync.Mutex

	Contexts       []k8s.ContextInfo
	DefaultContext string
	Cached         []string

	ListPodsFunc          func(ctx context.Context, req k8s.ListPodsRequest) (*k8s.PodList, error)
	GetPodDetailFunc      func(ctx context.Context, req k8s.PodRequest) (*k8s.PodDetail, error)
	ListDeploymentsFunc   func(ctx context.Context, req k8s.ListDeploymentsRequest) (*k8s.DeploymentList, error)
	GetDeploymentFunc     func(ctx context.Context, req k8s.DeploymentRequest) (*k8s.DeploymentStatus, error)
	ListNodesFunc         func(ctx context.Context, req k8s.ListNodesRequest) (*k8s.NodeList, error)
	GetLogsFunc           func(ctx context.Context, req k8s.LogRequest) (*k8s.LogPayload, error)
	ScaleDeploymentFunc   func(ctx context.Context, req k8s.ScaleRequest) (*k8s.ScaleResult, error)
	RolloutDeploymentFunc func(ctx context.Context, req k8s.RolloutRequest) (*k8s.RolloutResult, error)

	// Requests holds every request value passed to an operation, in order.
	Requests []interface{}
}

func (m *MockK8sClient) record(req interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
}

// LastRequest returns the most recent recorded request, or nil.
func (m *MockK8sClient) LastRequest() interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	return m.Requests[len(m.Requests)-1]
}

// ListContexts implements k8s.ContextManager.
func (m *MockK8sClient) ListContexts(_ context.Context) ([]k8s.ContextInfo, error) {
	return m.Contexts, nil
}

// GetDefaultContext implements k8s.ContextManager.
func (m *MockK8sClient) GetDefaultContext(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DefaultContext == "" {
		return "", &k8s.Error{Kind: k8s.KindNoContextConfigured, Message: "no default context is set"}
	}
	return m.DefaultContext, nil
}

// SetDefaultContext implements k8s.ContextManager. Names missing from
// Contexts fail with UnknownContext.
func (m *MockK8sClient) SetDefaultContext(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Contexts {
		if c.Name == name {
			m.DefaultContext = name
			return nil
		}
	}
	return &k8s.Error{Kind: k8s.KindUnknownContext, Ident: k8s.Ident{Context: name}, Message: "context " + name + " is not defined"}
}

// CachedContexts implements k8s.Client.
func (m *MockK8sClient) CachedContexts() []string {
	return m.Cached
}

// ListPods implements k8s.ResourceReader.
func (m *MockK8sClient) ListPods(ctx context.Context, req k8s.ListPodsRequest) (*k8s.PodList, error) {
	m.record(req)
	if m.ListPodsFunc != nil {
		return m.ListPodsFunc(ctx, req)
	}
	return &k8s.PodList{Context: req.Context, Namespace: req.Namespace, Pods: []k8s.PodSummary{}}, nil
}

// GetPodDetail implements k8s.ResourceReader.
func (m *MockK8sClient) GetPodDetail(ctx context.Context, req k8s.PodRequest) (*k8s.PodDetail, error) {
	m.record(req)
	if m.GetPodDetailFunc != nil {
		return m.GetPodDetailFunc(ctx, req)
	}
	return &k8s.PodDetail{Context: req.Context, PodSummary: k8s.PodSummary{Name: req.Name, Namespace: req.Namespace}}, nil
}

// ListDeployments implements k8s.ResourceReader.
func (m *MockK8sClient) ListDeployments(ctx context.Context, req k8s.ListDeploymentsRequest) (*k8s.DeploymentList, error) {
	m.record(req)
	if m.ListDeploymentsFunc != nil {
		return m.ListDeploymentsFunc(ctx, req)
	}
	return &k8s.DeploymentList{Context: req.Context, Namespace: req.Namespace, Deployments: []k8s.DeploymentSummary{}}, nil
}

// GetDeployment implements k8s.ResourceReader.
func (m *MockK8sClient) GetDeployment(ctx context.Context, req k8s.DeploymentRequest) (*k8s.DeploymentStatus, error) {
	m.record(req)
	if m.GetDeploymentFunc != nil {
		return m.GetDeploymentFunc(ctx, req)
	}
	return &k8s.DeploymentStatus{
		Context:           req.Context,
		DeploymentSummary: k8s.DeploymentSummary{Name: req.Name, Namespace: req.Namespace},
		Images:            []string{},
	}, nil
}

// ListNodes implements k8s.ResourceReader.
func (m *MockK8sClient) ListNodes(ctx context.Context, req k8s.ListNodesRequest) (*k8s.NodeList, error) {
	m.record(req)
	if m.ListNodesFunc != nil {
		return m.ListNodesFunc(ctx, req)
	}
	return &k8s.NodeList{Context: req.Context, Nodes: []k8s.NodeSummary{}}, nil
}

// GetLogs implements k8s.ResourceReader.
func (m *MockK8sClient) GetLogs(ctx context.Context, req k8s.LogRequest) (*k8s.LogPayload, error) {
	m.record(req)
	if m.GetLogsFunc != nil {
		return m.GetLogsFunc(ctx, req)
	}
	return &k8s.LogPayload{Context: req.Context, Namespace: req.Namespace, Pod: req.Pod, Lines: []string{}}, nil
}

// ScaleDeployment implements k8s.ResourceMutator.
func (m *MockK8sClient) ScaleDeployment(ctx context.Context, req k8s.ScaleRequest) (*k8s.ScaleResult, error) {
	m.record(req)
	if m.ScaleDeploymentFunc != nil {
		return m.ScaleDeploymentFunc(ctx, req)
	}
	return &k8s.ScaleResult{
		Context:           req.Context,
		Namespace:         req.Namespace,
		Name:              req.Name,
		RequestedReplicas: int32(req.Replicas),
		ObservedReplicas:  int32(req.Replicas),
	}, nil
}

// RolloutDeployment implements k8s.ResourceMutator.
func (m *MockK8sClient) RolloutDeployment(ctx context.Context, req k8s.RolloutRequest) (*k8s.RolloutResult, error) {
	m.record(req)
	if m.RolloutDeploymentFunc != nil {
		return m.RolloutDeploymentFunc(ctx, req)
	}
	return &k8s.RolloutResult{
		Context:     req.Context,
		Namespace:   req.Namespace,
		Name:        req.Name,
		RestartedAt: "2026-01-01T00:00:00Z",
		Accepted:    true,
	}, nil
}

// MockLogger implements server.Logger and discards everything.
type MockLogger struct{}

func (m *MockLogger) Debug(_ string, _ ...interface{}) {}
func (m *MockLogger) Info(_ string, _ ...interface{})  {}
func (m *MockLogger) Warn(_ string, _ ...interface{})  {}
func (m *MockLogger) Error(_ string, _ ...interface{}) {}

// With implements server.Logger.
func (m *MockLogger) With(_ ...interface{}) server.Logger {
	return m
}

// NewServerContext builds a ServerContext around client for handler tests.
func NewServerContext(client k8s.Client, opts ...server.Option) (*server.ServerContext, error) {
	opts = append([]server.Option{
		server.WithK8sClient(client),
		server.WithLogger(&MockLogger{}),
	}, opts...)
	return server.NewServerContext(context.Background(), opts...)
}
