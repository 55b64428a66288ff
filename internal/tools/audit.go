package tools

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-kubeops/internal/instrumentation"
	"github.com/giantswarm/mcp-kubeops/internal/logging"
	"github.com/giantswarm/mcp-kubeops/internal/server"
)

// ToolHandler is the signature of tool handlers that take the ServerContext.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error)

// WrapTool adapts handler to mcp-go and records every invocation: a
// tool.<name> span, the mcp_tool_calls metrics, the in-process tool counters
// and one audit log line.
func WrapTool(toolName string, handler ToolHandler, sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		contextName := StringArg(args, ParamContext)
		namespace := StringArg(args, ParamNamespace)

		attrs := instrumentation.NewSpanAttributeBuilder().
			WithContext(contextName).
			WithNamespace(namespace).
			WithDryRun(sc.Config().DryRun).
			Build()
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, attrs...)
		defer span.End()

		start := time.Now()
		result, err := handler(ctx, request, sc)
		duration := time.Since(start)

		failed := err != nil || (result != nil && result.IsError)
		status := instrumentation.StatusSuccess

		logger := sc.Logger().With(
			logging.KeyTool, toolName,
			logging.KeyContext, contextName,
			logging.KeyNamespace, namespace,
			logging.KeyDuration, duration,
		)
		if traceID := instrumentation.GetTraceID(ctx); traceID != "" {
			logger = logger.With(logging.KeyTraceID, traceID)
		}

		if failed {
			status = instrumentation.StatusError
			text := resultText(result)
			if err != nil {
				text = err.Error()
			}
			kind := ErrorKind(text)
			instrumentation.SetSpanErrorKind(span, errors.New(text), kind)
			logger.Warn("Tool call failed", logging.KeyErrorKind, kind, logging.KeyError, text)
		} else {
			instrumentation.SetSpanSuccess(span)
			logger.Info("Tool call completed")
		}

		sc.Metrics().RecordToolCall(ctx, toolName, contextName, status, duration)
		sc.ToolStats().RecordCall(failed)

		return result, err
	}
}
