package contexttools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-kubeops/internal/k8s"
	"github.com/giantswarm/mcp-kubeops/internal/server"
	"github.com/giantswarm/mcp-kubeops/internal/tools"
	"github.com/giantswarm/mcp-kubeops/internal/tools/output"
)

// ContextListResult is the result of kubernetes_context_list.
type ContextListResult struct {
	DefaultContext string            `json:"defaultContext,omitempty"`
	Count          int               `json:"count"`
	Contexts       []k8s.ContextInfo `json:"contexts"`
}

// DefaultContextResult is the result of the get and set default tools.
type DefaultContextResult struct {
	DefaultContext string `json:"defaultContext"`
	Previous       string `json:"previous,omitempty"`
}

func handleListContexts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client := sc.K8sClient()
	contexts, err := client.ListContexts(ctx)
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	if contexts == nil {
		contexts = []k8s.ContextInfo{}
	}

	result := ContextListResult{Count: len(contexts), Contexts: contexts}
	if name, err := client.GetDefaultContext(ctx); err == nil {
		result.DefaultContext = name
	}
	return tools.RenderResult(result, output.FormatJSON), nil
}

func handleGetDefaultContext(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	name, err := sc.K8sClient().GetDefaultContext(ctx)
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	return tools.RenderResult(DefaultContextResult{DefaultContext: name}, output.FormatJSON), nil
}

func handleSetDefaultContext(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	name, err := tools.RequiredString(request.GetArguments(), tools.ParamContext)
	if err != nil {
		return tools.ErrorResult(err), nil
	}

	client := sc.K8sClient()
	previous, _ := client.GetDefaultContext(ctx)
	if err := client.SetDefaultContext(ctx, name); err != nil {
		return tools.ErrorResult(err), nil
	}

	sc.Logger().Info("Default context changed", "context", name, "previous", previous)
	return tools.RenderResult(DefaultContextResult{DefaultContext: name, Previous: previous}, output.FormatJSON), nil
}
