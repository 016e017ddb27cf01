package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/forgeup/forgeup/internal/compose"
	"github.com/forgeup/forgeup/internal/engine"
	"github.com/forgeup/forgeup/internal/firewall"
	"github.com/forgeup/forgeup/internal/orchestrate"
	"github.com/forgeup/forgeup/internal/system"
	"github.com/forgeup/forgeup/pkg/files"
	"github.com/forgeup/forgeup/pkg/logger"
)

var uninstallFlags struct {
	installDir string
	removeData bool
	assumeYes  bool
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the Gitea deployment",
	Long: `Stops the deployment's containers, optionally deletes its data volumes
and install directory, and reverses the firewall rules. Each step is
best-effort: failures are reported and the remaining steps still run.`,
	RunE: runUninstall,
}

func init() {
	f := uninstallCmd.Flags()
	f.StringVarP(&uninstallFlags.installDir, "install-dir", "i", "/opt/gitea", "directory holding the generated files")
	f.BoolVarP(&uninstallFlags.removeData, "remove-data", "r", false, "also delete data volumes and the install directory")
	f.BoolVarP(&uninstallFlags.assumeYes, "yes", "y", false, "answer yes to all prompts")
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	installDir, err := filepath.Abs(uninstallFlags.installDir)
	if err != nil {
		return fmt.Errorf("invalid install directory %q: %w", uninstallFlags.installDir, err)
	}
	manifestPath := filepath.Join(installDir, "docker-compose.yml")
	if !files.Exists(manifestPath) {
		return fmt.Errorf("no deployment found: %s does not exist", manifestPath)
	}

	if err := confirm(fmt.Sprintf("Remove the Gitea deployment at %s?", installDir),
		uninstallFlags.assumeYes); err != nil {
		return err
	}
	// The destructive confirm happens up front, before any teardown:
	// the directory removal at the end must never run on the generic
	// confirm alone.
	if uninstallFlags.removeData {
		if err := confirm("Delete data volumes and the install directory? This cannot be undone.",
			uninstallFlags.assumeYes); err != nil {
			return err
		}
	}

	runner := system.NewRunner()

	// The engine is only probed, never installed, during uninstall.
	st, err := engine.Probe(ctx, runner)
	if err != nil {
		logger.Warn("No usable container engine, skipping container teardown", "reason", err)
	} else {
		driver := orchestrate.NewDriver(runner, st, installDir)
		defer driver.Close()

		if err := driver.Down(ctx); err != nil {
			logger.Warn("Could not stop services", "error", err)
		} else {
			logger.Info("Services stopped")
		}

		if uninstallFlags.removeData {
			if _, err := driver.RemoveManagedVolumes(ctx); err != nil {
				logger.Warn("Could not remove all managed volumes", "error", err)
			}
		}
	}

	// Reverse the firewall rules for the ports the manifest published.
	if manifest, err := compose.Load(manifestPath); err != nil {
		logger.Warn("Could not read manifest, skipping firewall cleanup", "error", err)
	} else {
		fw := firewall.Detect(ctx, runner)
		firewall.ClosePorts(ctx, runner, fw, manifest.PublishedPorts())
	}

	if uninstallFlags.removeData {
		if err := os.RemoveAll(installDir); err != nil {
			logger.Warn("Could not delete install directory", "dir", installDir, "error", err)
		} else {
			logger.Info("Deleted install directory", "dir", installDir)
		}
	}

	logger.Info("Uninstall complete")
	return nil
}

// confirm is a variable so tests can substitute an answer.
var confirm = func(message string, assumeYes bool) error {
	if assumeYes {
		return nil
	}
	var proceed bool
	prompt := &survey.Confirm{Message: message, Default: false}
	if err := survey.AskOne(prompt, &proceed); err != nil {
		return fmt.Errorf("survey failed: %w", err)
	}
	if !proceed {
		return fmt.Errorf("operation cancelled by user")
	}
	return nil
}
