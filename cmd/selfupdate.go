package cmd

import (
	"errors"
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const githubRepoSlug = "giantswarm/mcp-kubeops"

var errDevVersion = errors.New("cannot self-update a development version")

func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update mcp-kubeops to the latest version",
		Long: `Check the latest mcp-kubeops release on GitHub and replace the running
binary with it when it is newer than the current version.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelfUpdate(cmd)
		},
	}
}

func runSelfUpdate(cmd *cobra.Command) error {
	current := rootCmd.Version
	if current == "" || current == "dev" {
		return errDevVersion
	}

	ctx := cmd.Context()
	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(githubRepoSlug))
	if err != nil {
		return fmt.Errorf("error occurred while detecting version: %w", err)
	}
	if !found {
		return fmt.Errorf("latest version for %s could not be found", githubRepoSlug)
	}

	out := cmd.OutOrStdout()
	if latest.LessOrEqual(current) {
		_, _ = fmt.Fprintf(out, "Current version (%s) is the latest\n", current)
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}
	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("error occurred while updating binary: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Successfully updated to version %s\n", latest.Version())
	return nil
}
