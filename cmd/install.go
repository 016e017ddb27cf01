package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/forgeup/forgeup/internal/compose"
	"github.com/forgeup/forgeup/internal/config"
	"github.com/forgeup/forgeup/internal/engine"
	"github.com/forgeup/forgeup/internal/firewall"
	"github.com/forgeup/forgeup/internal/orchestrate"
	"github.com/forgeup/forgeup/internal/report"
	"github.com/forgeup/forgeup/internal/system"
	"github.com/forgeup/forgeup/internal/webserver"
	"github.com/forgeup/forgeup/pkg/files"
	"github.com/forgeup/forgeup/pkg/logger"
)

var installFlags config.Flags

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Deploy Gitea behind nginx with a PostgreSQL backend",
	Long: `Detects (or installs) a container engine, renders the compose manifest,
nginx site config and a self-signed certificate, starts the services,
opens firewall ports and writes an access README.`,
	RunE: runInstall,
}

func init() {
	f := installCmd.Flags()
	f.StringVarP(&installFlags.DBPassword, "db-password", "p", "", "PostgreSQL password for the gitea database (required)")
	f.StringVarP(&installFlags.InstallDir, "install-dir", "i", "", "directory for generated files (default /opt/gitea)")
	f.IntVarP(&installFlags.SSHPort, "ssh-port", "s", 0, "host port for Gitea SSH (default 2222)")
	f.StringVarP(&installFlags.IPAddress, "ip", "I", "", "host IP address (autodetected when omitted)")
	f.StringVarP(&installFlags.Domain, "domain", "d", "", "domain name for the deployment (optional)")
	f.IntVar(&installFlags.HTTPPort, "http-port", 0, "external HTTPS port (default 443)")
	f.BoolVarP(&installFlags.AssumeYes, "yes", "y", false, "answer yes to all prompts")
	f.BoolVar(&installFlags.DryRun, "dry-run", false, "render files without starting anything")
	f.BoolVar(&installFlags.Force, "force", false, "allow otherwise-refused settings such as SSH port 22")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Resolve(installFlags)
	if err != nil {
		return err
	}
	logger.Info("Resolved installation configuration",
		"install_dir", cfg.InstallDir,
		"server_name", cfg.ServerName(),
		"ssh_port", cfg.SSHPort,
		"http_port", cfg.HTTPPort)

	runner := system.NewRunner()
	st, err := engine.Reconcile(ctx, runner, cfg.AssumeYes)
	if err != nil {
		return err
	}
	cfg = cfg.WithEngine(st.Engine)

	if err := materialize(cfg, st); err != nil {
		return err
	}

	if cfg.DryRun {
		logger.Info("Dry run: files rendered, nothing started", "install_dir", cfg.InstallDir)
		return nil
	}

	driver := orchestrate.NewDriver(runner, st, cfg.InstallDir)
	defer driver.Close()
	if err := driver.Up(ctx); err != nil {
		return err
	}

	fw := firewall.Detect(ctx, runner)
	firewall.OpenPorts(ctx, runner, fw, []int{cfg.HTTPPort, 80, cfg.SSHPort})

	report.PrintSummary(cfg)
	return nil
}

// materialize renders the manifest, the proxy site config, the
// certificate pair and the README into the install directory. Rendering
// is idempotent: unchanged files are left alone, and differing content
// is only replaced after a confirmation.
func materialize(cfg *config.Install, st *engine.Status) error {
	manifestPath := filepath.Join(cfg.InstallDir, "docker-compose.yml")

	manifest, err := compose.Render(cfg)
	if err != nil {
		return err
	}
	if err := confirmOverwrite(manifestPath, manifest, cfg.AssumeYes); err != nil {
		return err
	}
	if changed, err := files.WriteIfChanged(manifestPath, manifest, 0o600); err != nil {
		return err
	} else if changed {
		logger.Info("Wrote compose manifest", "path", manifestPath)
	}

	site, err := webserver.RenderSiteConfig(cfg)
	if err != nil {
		return err
	}
	sitePath := filepath.Join(cfg.InstallDir, "nginx", "gitea.conf")
	if err := confirmOverwrite(sitePath, site, cfg.AssumeYes); err != nil {
		return err
	}
	if changed, err := files.WriteIfChanged(sitePath, site, 0o644); err != nil {
		return err
	} else if changed {
		logger.Info("Wrote nginx site config", "path", sitePath)
	}

	if err := webserver.EnsureCertificate(cfg, filepath.Join(cfg.InstallDir, "certs")); err != nil {
		return err
	}

	readme, err := report.RenderReadme(cfg, st.ComposeArgv)
	if err != nil {
		return err
	}
	readmePath := filepath.Join(cfg.InstallDir, "README.md")
	if _, err := files.WriteIfChanged(readmePath, readme, 0o600); err != nil {
		return err
	}

	return nil
}

// askOverwrite prompts for permission to replace an existing file. A
// variable so tests can substitute an answer.
var askOverwrite = func(path string) (bool, error) {
	var proceed bool
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("%s exists with different content. Overwrite?", path),
		Default: false,
	}
	if err := survey.AskOne(prompt, &proceed); err != nil {
		return false, fmt.Errorf("survey failed: %w", err)
	}
	return proceed, nil
}

// confirmOverwrite prompts before replacing an existing rendered file
// whose content differs from what this run would write.
func confirmOverwrite(path string, data []byte, assumeYes bool) error {
	if assumeYes || !files.Exists(path) {
		return nil
	}
	existing, err := os.ReadFile(path)
	if err != nil || string(existing) == string(data) {
		return nil
	}

	proceed, err := askOverwrite(path)
	if err != nil {
		return err
	}
	if !proceed {
		return fmt.Errorf("keeping existing %s, aborting", path)
	}
	return nil
}
