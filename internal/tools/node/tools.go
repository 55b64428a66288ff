package node

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-kubeops/internal/k8s"
	"github.com/giantswarm/mcp-kubeops/internal/server"
	"github.com/giantswarm/mcp-kubeops/internal/tools"
)

// ToolListNodes lists the nodes of a context.
const ToolListNodes = "kubernetes_nodes_list"

// RegisterNodeTools registers the node tools with the MCP server.
func RegisterNodeTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	opts := []mcp.ToolOption{
		mcp.WithDescription("List nodes with roles, status, capacity and a cluster summary. Usage comes from metrics-server when requested."),
		mcp.WithReadOnlyHintAnnotation(true),
	}
	opts = append(opts, tools.AddContextParams(sc)...)
	opts = append(opts,
		mcp.WithBoolean("includeUsage",
			mcp.Description("Include current CPU and memory usage from the metrics API (default: false)"),
		),
		tools.OutputParam(),
	)
	s.AddTool(mcp.NewTool(ToolListNodes, opts...), tools.WrapTool(ToolListNodes, handleListNodes, sc))
	return nil
}

func handleListNodes(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	includeUsage, err := tools.BoolArg(args, "includeUsage")
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	format, err := tools.OutputFormat(args)
	if err != nil {
		return tools.ErrorResult(err), nil
	}

	nodes, err := sc.K8sClient().ListNodes(ctx, k8s.ListNodesRequest{
		Context:      tools.StringArg(args, tools.ParamContext),
		IncludeUsage: includeUsage,
	})
	if err != nil {
		return tools.ErrorResult(err), nil
	}
	if nodes.UsageRequested && !nodes.UsageAvailable {
		sc.Logger().Debug("Node usage unavailable", "context", nodes.Context, "reason", nodes.UsageError)
	}
	return tools.RenderResult(nodes, format), nil
}
