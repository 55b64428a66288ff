package contexttools

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-kubeops/internal/server"
	"github.com/giantswarm/mcp-kubeops/internal/tools"
)

// Tool names.
const (
	ToolListContexts      = "kubernetes_context_list"
	ToolGetDefaultContext = "kubernetes_context_get_default"
	ToolSetDefaultContext = "kubernetes_context_set_default"
)

// RegisterContextTools registers the context tools with the MCP server.
func RegisterContextTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listContextsTool := mcp.NewTool(ToolListContexts,
		mcp.WithDescription("List all available Kubernetes contexts and mark the default one"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(listContextsTool, tools.WrapTool(ToolListContexts, handleListContexts, sc))

	getDefaultTool := mcp.NewTool(ToolGetDefaultContext,
		mcp.WithDescription("Get the context used when a tool call does not name one"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(getDefaultTool, tools.WrapTool(ToolGetDefaultContext, handleGetDefaultContext, sc))

	setDefaultTool := mcp.NewTool(ToolSetDefaultContext,
		mcp.WithDescription("Change the default context for this server process. The kubeconfig file is not modified."),
		mcp.WithString(tools.ParamContext,
			mcp.Required(),
			mcp.Description("Name of a context defined in the kubeconfig"),
		),
		mcp.WithIdempotentHintAnnotation(true),
	)
	s.AddTool(setDefaultTool, tools.WrapTool(ToolSetDefaultContext, handleSetDefaultContext, sc))

	return nil
}
