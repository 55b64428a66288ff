package pod

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-kubeops/internal/k8s"
	"github.com/giantswarm/mcp-kubeops/internal/server"
	"github.com/giantswarm/mcp-kubeops/internal/tools"
	"github.com/giantswarm/mcp-kubeops/internal/tools/output"
)

func handleListPods(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	format, err := tools.OutputFormat(args)
	if err != nil {
		return tools.ErrorResult(err), nil
	}

	pods, err := sc.K8sClient().ListPods(ctx, k8s.ListPodsRequest{
		Context:       tools.StringArg(args, tools.ParamContext),
		Namespace:     tools.StringArg(args, tools.ParamNamespace),
		LabelSelector: tools.StringArg(args, tools.ParamLabelSelector),
	})
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	return tools.RenderResult(pods, format), nil
}

func handleGetPod(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	podName, err := tools.RequiredString(args, "podName")
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	format, err := tools.OutputFormat(args)
	if err != nil {
		return tools.ErrorResult(err), nil
	}

	pod, err := sc.K8sClient().GetPodDetail(ctx, k8s.PodRequest{
		Context:   tools.StringArg(args, tools.ParamContext),
		Namespace: tools.StringArg(args, tools.ParamNamespace),
		Name:      podName,
	})
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	return tools.RenderResult(pod, format), nil
}

func handleGetLogs(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	namespace, err := tools.RequiredString(args, tools.ParamNamespace)
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	podName, err := tools.RequiredString(args, "podName")
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	tailLines, err := tools.IntArg(args, "tailLines")
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	previous, err := tools.BoolArg(args, "previous")
	if err != nil {
		return tools.ErrorResult(err), nil
	}

	logs, err := sc.K8sClient().GetLogs(ctx, k8s.LogRequest{
		Context:   tools.StringArg(args, tools.ParamContext),
		Namespace: namespace,
		Pod:       podName,
		Container: tools.StringArg(args, "container"),
		TailLines: tailLines,
		Previous:  previous,
	})
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	return tools.RenderResult(logs, output.FormatJSON), nil
}
