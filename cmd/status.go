package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forgeup/forgeup/internal/compose"
	"github.com/forgeup/forgeup/internal/engine"
	"github.com/forgeup/forgeup/internal/orchestrate"
	"github.com/forgeup/forgeup/internal/report"
	"github.com/forgeup/forgeup/internal/system"
	"github.com/forgeup/forgeup/pkg/logger"
)

var statusInstallDir string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the deployment's containers and access URLs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		runner := system.NewRunner()
		st, err := engine.Probe(ctx, runner)
		if err != nil {
			return err
		}

		installDir, err := filepath.Abs(statusInstallDir)
		if err != nil {
			return err
		}
		driver := orchestrate.NewDriver(runner, st, installDir)
		defer driver.Close()

		states, err := driver.Status(ctx)
		if err != nil {
			return err
		}
		report.PrintStatus(states)

		// The access URLs come from the rendered manifest; the install
		// wrote them into the gitea service environment.
		manifestPath := filepath.Join(installDir, "docker-compose.yml")
		manifest, err := compose.Load(manifestPath)
		if err != nil {
			logger.Debug("Could not read manifest, skipping access URLs", "error", err)
			return nil
		}
		webURL := manifest.EnvValue(compose.ServiceGitea, "GITEA__server__ROOT_URL")
		var sshURL string
		domain := manifest.EnvValue(compose.ServiceGitea, "GITEA__server__SSH_DOMAIN")
		port := manifest.EnvValue(compose.ServiceGitea, "GITEA__server__SSH_PORT")
		if domain != "" && port != "" {
			sshURL = fmt.Sprintf("ssh://git@%s:%s", domain, port)
		}
		report.PrintAccess(webURL, sshURL)
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusInstallDir, "install-dir", "i", "/opt/gitea", "directory holding the generated files")
	rootCmd.AddCommand(statusCmd)
}
