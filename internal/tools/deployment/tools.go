package deployment

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-kubeops/internal/server"
	"github.com/giantswarm/mcp-kubeops/internal/tools"
)

// Tool names.
const (
	ToolListDeployments = "kubernetes_deployments_list"
	ToolGetDeployment   = "kubernetes_deployment_get"
	ToolScale           = "kubernetes_deployment_scale"
	ToolRolloutRestart  = "kubernetes_deployment_rollout_restart"
)

// RegisterDeploymentTools registers the deployment tools with the MCP server.
func RegisterDeploymentTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listOpts := []mcp.ToolOption{
		mcp.WithDescription("List deployments with desired, ready and available replicas and a health flag"),
		mcp.WithReadOnlyHintAnnotation(true),
	}
	listOpts = append(listOpts, tools.AddContextParams(sc)...)
	listOpts = append(listOpts,
		mcp.WithString(tools.ParamNamespace,
			mcp.Description("Namespace to list deployments in (optional, all namespaces if not specified)"),
		),
		mcp.WithString(tools.ParamLabelSelector,
			mcp.Description("Label selector to filter deployments"),
		),
		tools.OutputParam(),
	)
	s.AddTool(mcp.NewTool(ToolListDeployments, listOpts...), tools.WrapTool(ToolListDeployments, handleListDeployments, sc))

	getOpts := []mcp.ToolOption{
		mcp.WithDescription("Get the rollout status of one deployment: generations, replica counts, conditions and images"),
		mcp.WithReadOnlyHintAnnotation(true),
	}
	getOpts = append(getOpts, tools.AddContextParams(sc)...)
	getOpts = append(getOpts,
		mcp.WithString(tools.ParamNamespace,
			mcp.Description("Namespace of the deployment (defaults to the server's default namespace)"),
		),
		mcp.WithString("deploymentName",
			mcp.Required(),
			mcp.Description("Name of the deployment"),
		),
		tools.OutputParam(),
	)
	s.AddTool(mcp.NewTool(ToolGetDeployment, getOpts...), tools.WrapTool(ToolGetDeployment, handleGetDeployment, sc))

	scaleOpts := []mcp.ToolOption{
		mcp.WithDescription("Set the desired replica count of a deployment"),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	}
	scaleOpts = append(scaleOpts, tools.AddContextParams(sc)...)
	scaleOpts = append(scaleOpts,
		mcp.WithString(tools.ParamNamespace,
			mcp.Required(),
			mcp.Description("Namespace of the deployment"),
		),
		mcp.WithString("deploymentName",
			mcp.Required(),
			mcp.Description("Name of the deployment"),
		),
		mcp.WithNumber("replicas",
			mcp.Required(),
			mcp.Min(0),
			mcp.Description("Desired number of replicas"),
		),
	)
	s.AddTool(mcp.NewTool(ToolScale, scaleOpts...), tools.WrapTool(ToolScale, handleScale, sc))

	rolloutOpts := []mcp.ToolOption{
		mcp.WithDescription("Trigger a rolling restart of a deployment, like 'kubectl rollout restart'"),
		mcp.WithDestructiveHintAnnotation(true),
	}
	rolloutOpts = append(rolloutOpts, tools.AddContextParams(sc)...)
	rolloutOpts = append(rolloutOpts,
		mcp.WithString(tools.ParamNamespace,
			mcp.Required(),
			mcp.Description("Namespace of the deployment"),
		),
		mcp.WithString("deploymentName",
			mcp.Required(),
			mcp.Description("Name of the deployment"),
		),
	)
	s.AddTool(mcp.NewTool(ToolRolloutRestart, rolloutOpts...), tools.WrapTool(ToolRolloutRestart, handleRolloutRestart, sc))

	return nil
}
