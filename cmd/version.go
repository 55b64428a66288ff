package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mcp-kubeops",
		Long:  `Print the version of this mcp-kubeops binary, as injected at build time.`,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "mcp-kubeops version %s\n", rootCmd.Version)
		},
	}
}
