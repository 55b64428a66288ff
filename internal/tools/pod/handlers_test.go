package pod

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-kubeops/internal/k8s"
	"github.com/giantswarm/mcp-kubeops/internal/server"
	"github.com/giantswarm/mcp-kubeops/internal/tools/tooltest"
)

func setup(t *testing.T, client *tooltest.MockK8sClient, opts ...server.Option) (*mcpserver.MCPServer, *server.ServerContext) {
	t.Helper()
	sc, err := tooltest.NewServerContext(client, opts...)
	require.NoError(t, err)
	s := mcpserver.NewMCPServer("test", "0.0.1", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterPodTools(s, sc))
	return s, sc
}

func call(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]interface{}) (*mcp.CallToolResult, string) {
	t.Helper()
	tool, ok := s.ListTools()[name]
	require.True(t, ok, "tool %s not registered", name)

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	result, err := tool.Handler(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return result, tc.Text
}

func TestRegisterPodTools_ContextParam(t *testing.T) {
	tests := []struct {
		name        string
		inCluster   bool
		wantContext bool
	}{
		{name: "kubeconfig mode", inCluster: false, wantContext: true},
		{name: "in-cluster mode", inCluster: true, wantContext: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := setup(t, &tooltest.MockK8sClient{}, server.WithInClusterMode(tt.inCluster))
			registered := s.ListTools()
			for _, name := range []string{ToolListPods, ToolGetPod, ToolLogs} {
				require.Contains(t, registered, name)
				_, has := registered[name].Tool.InputSchema.Properties["context"]
				assert.Equal(t, tt.wantContext, has, "tool %s", name)
			}
		})
	}
}

func TestListPods(t *testing.T) {
	client := &tooltest.MockK8sClient{
		ListPodsFunc: func(_ context.Context, req k8s.ListPodsRequest) (*k8s.PodList, error) {
			return &k8s.PodList{
				Context:   "staging",
				Namespace: req.Namespace,
				Count:     1,
				Pods:      []k8s.PodSummary{{Name: "web-1", Namespace: req.Namespace, Phase: "Running", Ready: true}},
			}, nil
		},
	}
	s, _ := setup(t, client)

	result, body := call(t, s, ToolListPods, map[string]interface{}{
		"context":       "staging",
		"namespace":     "apps",
		"labelSelector": "app=web",
	})
	require.False(t, result.IsError, body)

	assert.Equal(t, k8s.ListPodsRequest{Context: "staging", Namespace: "apps", LabelSelector: "app=web"}, client.LastRequest())

	var got k8s.PodList
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, "web-1", got.Pods[0].Name)
}

func TestListPods_YAML(t *testing.T) {
	s, _ := setup(t, &tooltest.MockK8sClient{})

	result, body := call(t, s, ToolListPods, map[string]interface{}{"output": "yaml"})
	require.False(t, result.IsError, body)
	assert.Contains(t, body, "pods: []")
}

func TestListPods_InvalidOutputMakesNoCall(t *testing.T) {
	client := &tooltest.MockK8sClient{}
	s, _ := setup(t, client)

	result, body := call(t, s, ToolListPods, map[string]interface{}{"output": "table"})
	assert.True(t, result.IsError)
	assert.Contains(t, body, "ValidationError: ")
	assert.Empty(t, client.Requests)
}

func TestListPods_ClientErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "unknown context", err: &k8s.Error{Kind: k8s.KindUnknownContext, Message: "context nope is not defined"}, want: "UnknownContext: context nope is not defined"},
		{name: "forbidden", err: &k8s.Error{Kind: k8s.KindForbidden, Message: "access to pod denied"}, want: "ForbiddenError: access to pod denied"},
		{name: "connection", err: &k8s.Error{Kind: k8s.KindConnection, Message: "cannot reach the API server"}, want: "ConnectionError: cannot reach the API server"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &tooltest.MockK8sClient{
				ListPodsFunc: func(context.Context, k8s.ListPodsRequest) (*k8s.PodList, error) { return nil, tt.err },
			}
			s, sc := setup(t, client)

			result, body := call(t, s, ToolListPods, nil)
			assert.True(t, result.IsError)
			assert.Equal(t, tt.want, body)
			assert.Equal(t, int64(1), sc.ToolStats().Snapshot().Failures)
		})
	}
}

func TestGetPod(t *testing.T) {
	client := &tooltest.MockK8sClient{}
	s, sc := setup(t, client)

	result, body := call(t, s, ToolGetPod, map[string]interface{}{"podName": "web-1"})
	require.False(t, result.IsError, body)
	assert.Equal(t, k8s.PodRequest{Name: "web-1"}, client.LastRequest())
	assert.Equal(t, server.ToolStatsSnapshot{Calls: 1}, sc.ToolStats().Snapshot())
}

func TestGetPod_MissingName(t *testing.T) {
	client := &tooltest.MockK8sClient{}
	s, _ := setup(t, client)

	result, body := call(t, s, ToolGetPod, map[string]interface{}{"namespace": "apps"})
	assert.True(t, result.IsError)
	assert.Equal(t, "ValidationError: podName is required", body)
	assert.Empty(t, client.Requests)
}

func TestGetPod_NotFound(t *testing.T) {
	client := &tooltest.MockK8sClient{
		GetPodDetailFunc: func(_ context.Context, req k8s.PodRequest) (*k8s.PodDetail, error) {
			return nil, &k8s.Error{
				Kind:    k8s.KindNotFound,
				Ident:   k8s.Ident{Context: "staging", Namespace: "default", Resource: "pod", Name: req.Name},
				Message: `pod "ghost" not found`,
			}
		},
	}
	s, _ := setup(t, client)

	result, body := call(t, s, ToolGetPod, map[string]interface{}{"podName": "ghost"})
	assert.True(t, result.IsError)
	assert.Equal(t, `NotFound: pod "ghost" not found [context=staging namespace=default resource=pod name=ghost]`, body)
}

func TestGetLogs(t *testing.T) {
	client := &tooltest.MockK8sClient{
		GetLogsFunc: func(_ context.Context, req k8s.LogRequest) (*k8s.LogPayload, error) {
			return &k8s.LogPayload{Namespace: req.Namespace, Pod: req.Pod, Container: "app", Lines: []string{"a", "b"}, LineCount: 2, TailLines: *req.TailLines}, nil
		},
	}
	s, _ := setup(t, client)

	result, body := call(t, s, ToolLogs, map[string]interface{}{
		"namespace": "apps",
		"podName":   "web-1",
		"container": "app",
		"tailLines": float64(50),
		"previous":  true,
	})
	require.False(t, result.IsError, body)

	req, ok := client.LastRequest().(k8s.LogRequest)
	require.True(t, ok)
	assert.Equal(t, "apps", req.Namespace)
	assert.Equal(t, "web-1", req.Pod)
	assert.Equal(t, "app", req.Container)
	assert.True(t, req.Previous)
	require.NotNil(t, req.TailLines)
	assert.Equal(t, int64(50), *req.TailLines)

	var got k8s.LogPayload
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, []string{"a", "b"}, got.Lines)
}

func TestGetLogs_DefaultTail(t *testing.T) {
	client := &tooltest.MockK8sClient{}
	s, _ := setup(t, client)

	result, body := call(t, s, ToolLogs, map[string]interface{}{"namespace": "apps", "podName": "web-1"})
	require.False(t, result.IsError, body)

	req := client.LastRequest().(k8s.LogRequest)
	assert.Nil(t, req.TailLines)
	assert.False(t, req.Previous)
}

func TestGetLogs_Validation(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{name: "missing namespace", args: map[string]interface{}{"podName": "p"}, want: "ValidationError: namespace is required"},
		{name: "missing pod", args: map[string]interface{}{"namespace": "ns"}, want: "ValidationError: podName is required"},
		{name: "fractional tail", args: map[string]interface{}{"namespace": "ns", "podName": "p", "tailLines": 1.5}, want: "ValidationError: tailLines must be an integer, got 1.5"},
		{name: "non-bool previous", args: map[string]interface{}{"namespace": "ns", "podName": "p", "previous": "yes"}, want: "ValidationError: previous must be a boolean"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &tooltest.MockK8sClient{}
			s, _ := setup(t, client)

			result, body := call(t, s, ToolLogs, tt.args)
			assert.True(t, result.IsError)
			assert.Equal(t, tt.want, body)
			assert.Empty(t, client.Requests)
		})
	}
}

func TestGetLogs_AmbiguousContainer(t *testing.T) {
	client := &tooltest.MockK8sClient{
		GetLogsFunc: func(context.Context, k8s.LogRequest) (*k8s.LogPayload, error) {
			return nil, &k8s.Error{
				Kind:       k8s.KindAmbiguousContainer,
				Message:    "pod has multiple containers, one of them must be named",
				Containers: []string{"app", "sidecar"},
			}
		},
	}
	s, _ := setup(t, client)

	result, body := call(t, s, ToolLogs, map[string]interface{}{"namespace": "apps", "podName": "web-1"})
	assert.True(t, result.IsError)
	assert.Equal(t, "AmbiguousContainer: pod has multiple containers, one of them must be named (containers: app, sidecar)", body)
}
