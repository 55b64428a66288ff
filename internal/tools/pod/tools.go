package pod

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-kubeops/internal/server"
	"github.com/giantswarm/mcp-kubeops/internal/tools"
)

// Tool names.
const (
	ToolListPods = "kubernetes_pods_list"
	ToolGetPod   = "kubernetes_pod_get"
	ToolLogs     = "kubernetes_logs"
)

// RegisterPodTools registers the pod tools with the MCP server.
func RegisterPodTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listOpts := []mcp.ToolOption{
		mcp.WithDescription("List pods with phase, readiness and restart counts, plus aggregate statistics"),
		mcp.WithReadOnlyHintAnnotation(true),
	}
	listOpts = append(listOpts, tools.AddContextParams(sc)...)
	listOpts = append(listOpts,
		mcp.WithString(tools.ParamNamespace,
			mcp.Description("Namespace to list pods in (optional, all namespaces if not specified)"),
		),
		mcp.WithString(tools.ParamLabelSelector,
			mcp.Description("Label selector to filter pods (e.g., 'app=nginx,tier!=cache')"),
		),
		tools.OutputParam(),
	)
	s.AddTool(mcp.NewTool(ToolListPods, listOpts...), tools.WrapTool(ToolListPods, handleListPods, sc))

	getOpts := []mcp.ToolOption{
		mcp.WithDescription("Get a pod with its containers, volumes, conditions and most recent events"),
		mcp.WithReadOnlyHintAnnotation(true),
	}
	getOpts = append(getOpts, tools.AddContextParams(sc)...)
	getOpts = append(getOpts,
		mcp.WithString(tools.ParamNamespace,
			mcp.Description("Namespace of the pod (optional, defaults to the server default namespace)"),
		),
		mcp.WithString("podName",
			mcp.Required(),
			mcp.Description("Name of the pod"),
		),
		tools.OutputParam(),
	)
	s.AddTool(mcp.NewTool(ToolGetPod, getOpts...), tools.WrapTool(ToolGetPod, handleGetPod, sc))

	logsOpts := []mcp.ToolOption{
		mcp.WithDescription("Get the most recent log lines of a pod container"),
		mcp.WithReadOnlyHintAnnotation(true),
	}
	logsOpts = append(logsOpts, tools.AddContextParams(sc)...)
	logsOpts = append(logsOpts,
		mcp.WithString(tools.ParamNamespace,
			mcp.Required(),
			mcp.Description("Namespace where the pod is located"),
		),
		mcp.WithString("podName",
			mcp.Required(),
			mcp.Description("Name of the pod to get logs from"),
		),
		mcp.WithString("container",
			mcp.Description("Name of the container (required for multi-container pods)"),
		),
		mcp.WithNumber("tailLines",
			mcp.Description("Number of lines from the end of the log (default 100, capped by the server)"),
		),
		mcp.WithBoolean("previous",
			mcp.Description("Get logs from the previous container instance (default: false)"),
		),
	)
	s.AddTool(mcp.NewTool(ToolLogs, logsOpts...), tools.WrapTool(ToolLogs, handleGetLogs, sc))

	return nil
}
