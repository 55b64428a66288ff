// Package cmd provides the command-line interface for mcp-kubeops.
//
// Subcommands:
//   - serve: starts the MCP server (the default when no subcommand is given)
//   - version: prints the build version
//   - self-update: replaces the binary with the latest GitHub release
//
// Usage:
//
//	mcp-kubeops                                         # stdio, kubeconfig current-context
//	mcp-kubeops serve --context prod-eu --non-destructive
//	mcp-kubeops serve --transport streamable-http --http-addr :9000
//	mcp-kubeops serve --in-cluster --transport sse
//
// Serve settings come from flags, MCP_KUBEOPS_* environment variables and an
// optional TOML file (--config), in that order of precedence.
package cmd
