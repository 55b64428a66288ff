package deployment

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-kubeops/internal/k8s"
	"github.com/giantswarm/mcp-kubeops/internal/server"
	"github.com/giantswarm/mcp-kubeops/internal/tools"
	"github.com/giantswarm/mcp-kubeops/internal/tools/output"
)

// Operation names checked against the non-destructive allow list.
const (
	OperationScale   = "scale"
	OperationRollout = "rollout"
)

func handleListDeployments(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	format, err := tools.OutputFormat(args)
	if err != nil {
		return tools.ErrorResult(err), nil
	}

	deployments, err := sc.K8sClient().ListDeployments(ctx, k8s.ListDeploymentsRequest{
		Context:       tools.StringArg(args, tools.ParamContext),
		Namespace:     tools.StringArg(args, tools.ParamNamespace),
		LabelSelector: tools.StringArg(args, tools.ParamLabelSelector),
	})
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	return tools.RenderResult(deployments, format), nil
}

func handleGetDeployment(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, err := tools.RequiredString(args, "deploymentName")
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	format, err := tools.OutputFormat(args)
	if err != nil {
		return tools.ErrorResult(err), nil
	}

	status, err := sc.K8sClient().GetDeployment(ctx, k8s.DeploymentRequest{
		Context:   tools.StringArg(args, tools.ParamContext),
		Namespace: tools.StringArg(args, tools.ParamNamespace),
		Name:      name,
	})
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	return tools.RenderResult(status, format), nil
}

// handleScale validates its arguments before the mutation policy so that a
// malformed request reports ValidationError in every mode.
func handleScale(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	namespace, err := tools.RequiredString(args, tools.ParamNamespace)
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	name, err := tools.RequiredString(args, "deploymentName")
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	replicas, err := tools.RequiredInt(args, "replicas")
	if err != nil {
		return tools.ErrorResult(err), nil
	}

	req := k8s.ScaleRequest{
		Context:   tools.StringArg(args, tools.ParamContext),
		Namespace: namespace,
		Name:      name,
		Replicas:  replicas,
	}
	if err := req.Validate(); err != nil {
		return tools.ErrorResult(err), nil
	}

	if result := tools.CheckMutatingOperation(sc, OperationScale); result != nil {
		return result, nil
	}

	result, err := sc.K8sClient().ScaleDeployment(ctx, req)
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	return tools.RenderResult(result, output.FormatJSON), nil
}

func handleRolloutRestart(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	namespace, err := tools.RequiredString(args, tools.ParamNamespace)
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	name, err := tools.RequiredString(args, "deploymentName")
	if err != nil {
		return tools.ErrorResult(err), nil
	}

	req := k8s.RolloutRequest{
		Context:   tools.StringArg(args, tools.ParamContext),
		Namespace: namespace,
		Name:      name,
	}
	if err := req.Validate(); err != nil {
		return tools.ErrorResult(err), nil
	}

	if result := tools.CheckMutatingOperation(sc, OperationRollout); result != nil {
		return result, nil
	}

	result, err := sc.K8sClient().RolloutDeployment(ctx, req)
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	return tools.RenderResult(result, output.FormatJSON), nil
}
