package tools

import (
	"errors"
	"strings"

	mcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-kubeops/internal/k8s"
	"github.com/giantswarm/mcp-kubeops/internal/tools/output"
)

// ErrorResult turns err into a tool error whose text starts with the error
// kind, so callers can branch on it.
func ErrorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(FormatError(err))
}

// FormatError renders err as "<Kind>: <message>". Errors that do not come
// from the Kubernetes client are classified by k8s.Normalize.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	var kerr *k8s.Error
	if !errors.As(err, &kerr) {
		errors.As(k8s.Normalize(err, k8s.Ident{}), &kerr)
	}

	var b strings.Builder
	b.WriteString(string(kerr.Kind))
	b.WriteString(": ")
	b.WriteString(kerr.Message)
	if len(kerr.Containers) > 0 {
		b.WriteString(" (containers: ")
		b.WriteString(strings.Join(kerr.Containers, ", "))
		b.WriteString(")")
	}
	if id := kerr.Ident.String(); id != "" {
		b.WriteString(" [")
		b.WriteString(id)
		b.WriteString("]")
	}
	if kerr.Err != nil {
		b.WriteString(": ")
		b.WriteString(kerr.Err.Error())
	}
	return b.String()
}

// ErrorKind extracts the kind prefix from a tool error text.
func ErrorKind(text string) string {
	if i := strings.Index(text, ": "); i > 0 {
		return text[:i]
	}
	return ""
}

// RenderResult renders v in the requested format.
func RenderResult(v interface{}, format output.Format) *mcp.CallToolResult {
	text, err := output.Render(v, format)
	if err != nil {
		return mcp.NewToolResultError("failed to render result: " + err.Error())
	}
	return mcp.NewToolResultText(text)
}

// resultText returns the first text content of a result.
func resultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}
