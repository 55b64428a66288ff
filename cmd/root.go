package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mcp-kubeops",
	Short: "MCP server for multi-context Kubernetes operations",
	Long: `mcp-kubeops is a Model Context Protocol (MCP) server that inspects and
mutates workloads across every Kubernetes context in a kubeconfig. It lists
contexts, pods, deployments and nodes, fetches pod logs, and scales or
restarts deployments.

When run without subcommands, it starts the MCP server (equivalent to 'mcp-kubeops serve').`,
	SilenceUsage: true,
}

// SetVersion sets the version reported by the CLI and the MCP server.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command. It exits the process with status 1 on error.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcp-kubeops version %s\n" .Version}}`)

	// serve is the default subcommand
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newServeCmd())
}
