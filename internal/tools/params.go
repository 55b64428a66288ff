// Package tools provides shared utilities for MCP tool handlers.
package tools

import (
	"fmt"
	"math"

	mcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-kubeops/internal/k8s"
	"github.com/giantswarm/mcp-kubeops/internal/server"
	"github.com/giantswarm/mcp-kubeops/internal/tools/output"
)

// Parameter names shared by several tools.
const (
	ParamContext       = "context"
	ParamNamespace     = "namespace"
	ParamLabelSelector = "labelSelector"
	ParamOutput        = "output"
)

// AddContextParams returns the context parameter for tools that accept one.
// In in-cluster mode there is only one context, so the parameter is omitted.
//
//	opts := []mcp.ToolOption{mcp.WithDescription("...")}
//	opts = append(opts, tools.AddContextParams(sc)...)
//	tool := mcp.NewTool("tool_name", opts...)
func AddContextParams(sc *server.ServerContext) []mcp.ToolOption {
	if sc.InClusterMode() {
		return nil
	}
	return []mcp.ToolOption{
		mcp.WithString(ParamContext,
			mcp.Description("Kubernetes context to use (optional, uses the default context if not specified)"),
		),
	}
}

// OutputParam is the optional output format parameter of read tools.
func OutputParam() mcp.ToolOption {
	return mcp.WithString(ParamOutput,
		mcp.Description("Output format: json (default) or yaml"),
		mcp.Enum(string(output.FormatJSON), string(output.FormatYAML)),
	)
}

// StringArg returns the string argument key, or "" when absent or not a string.
func StringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

// RequiredString returns a non-empty string argument or a ValidationError.
func RequiredString(args map[string]interface{}, key string) (string, error) {
	s, ok := args[key].(string)
	if !ok || s == "" {
		return "", k8s.NewValidationError(k8s.Ident{}, "%s is required", key)
	}
	return s, nil
}

// BoolArg returns a boolean argument, false when absent.
func BoolArg(args map[string]interface{}, key string) (bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, k8s.NewValidationError(k8s.Ident{}, "%s must be a boolean", key)
	}
	return b, nil
}

// IntArg returns an integer argument, or nil when absent. JSON numbers
// arrive as float64; fractional values are rejected.
func IntArg(args map[string]interface{}, key string) (*int64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}

	var n int64
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) || math.Abs(x) > math.MaxInt64 {
			return nil, k8s.NewValidationError(k8s.Ident{}, "%s must be an integer, got %v", key, x)
		}
		n = int64(x)
	case int:
		n = int64(x)
	case int64:
		n = x
	default:
		return nil, k8s.NewValidationError(k8s.Ident{}, "%s must be an integer, got %s", key, fmt.Sprintf("%T", v))
	}
	return &n, nil
}

// RequiredInt is IntArg for a mandatory argument.
func RequiredInt(args map[string]interface{}, key string) (int64, error) {
	n, err := IntArg(args, key)
	if err != nil {
		return 0, err
	}
	if n == nil {
		return 0, k8s.NewValidationError(k8s.Ident{}, "%s is required", key)
	}
	return *n, nil
}

// OutputFormat parses the output argument.
func OutputFormat(args map[string]interface{}) (output.Format, error) {
	format, err := output.ParseFormat(StringArg(args, ParamOutput))
	if err != nil {
		return "", k8s.NewValidationError(k8s.Ident{}, "%s", err.Error())
	}
	return format, nil
}
