package tools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/giantswarm/mcp-kubeops/internal/k8s"
	"github.com/giantswarm/mcp-kubeops/internal/server"
)

// CheckMutatingOperation returns an error result when non-destructive mode
// refuses operation, and nil when the operation may proceed.
//
// Operations are allowed if:
//   - NonDestructiveMode is disabled, OR
//   - DryRun mode is enabled (the API server validates but does not persist), OR
//   - The operation is explicitly listed in AllowedOperations
func CheckMutatingOperation(sc *server.ServerContext, operation string) *mcp.CallToolResult {
	config := sc.Config()
	if !config.NonDestructiveMode || config.DryRun {
		return nil
	}

	for _, op := range config.AllowedOperations {
		if op == operation {
			return nil
		}
	}

	sc.ToolStats().RecordRefusal()
	sc.Logger().Info("Refused mutating operation in non-destructive mode", "operation", operation)

	return mcp.NewToolResultError(fmt.Sprintf(
		"%s: %s operations are not allowed in non-destructive mode (use --dry-run to validate without applying)",
		k8s.KindForbidden,
		cases.Title(language.English).String(operation),
	))
}
