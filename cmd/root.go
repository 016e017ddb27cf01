// Package cmd holds the forgeup command tree.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/forgeup/forgeup/pkg/logger"
)

// Build information, injected at link time from main.
var (
	BuildVersion = "dev"
	BuildCommit  = "none"
	BuildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "forgeup",
	Short: "Forgeup - self-hosted Gitea deployment",
	Long: `Forgeup deploys a Gitea instance behind an nginx reverse proxy with a
PostgreSQL backend, using container images, and can remove the
deployment again.`,
	SilenceUsage: true,
}

// Execute runs the command tree. Argument and dependency errors surface
// as a non-zero exit status.
func Execute(version, commit, date string) error {
	if version != "" {
		BuildVersion = version
	}
	if commit != "" {
		BuildCommit = commit
	}
	if date != "" {
		BuildDate = date
	}

	logger.GetLogger().ConfigureFromEnv()
	return rootCmd.Execute()
}
