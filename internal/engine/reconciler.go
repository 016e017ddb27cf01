package engine

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"

	"github.com/forgeup/forgeup/internal/system"
	"github.com/forgeup/forgeup/pkg/logger"
)

// Package names for the docker engine per package manager. Distributions
// disagree on the name; docker.io is Debian/Ubuntu, docker elsewhere.
var dockerPackages = map[system.PackageManager]string{
	system.PkgApt:    "docker.io",
	system.PkgDnf:    "docker",
	system.PkgYum:    "docker",
	system.PkgPacman: "docker",
	system.PkgZypper: "docker",
}

// Reconcile returns a usable engine status, installing docker when no
// engine was found. assumeYes suppresses the confirmation prompt.
func Reconcile(ctx context.Context, r system.Runner, assumeYes bool) (*Status, error) {
	st, err := Probe(ctx, r)
	if err == nil {
		return st, nil
	}
	logger.Warn("No usable container engine found", "reason", err)

	pm := system.DetectPackageManager(r)
	if pm == system.PkgNone {
		return nil, fmt.Errorf("no container engine and no supported package manager to install one")
	}

	if !assumeYes {
		var proceed bool
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Install docker via %s?", pm),
			Default: true,
		}
		if err := survey.AskOne(prompt, &proceed); err != nil {
			return nil, fmt.Errorf("survey failed: %w", err)
		}
		if !proceed {
			return nil, fmt.Errorf("container engine installation declined")
		}
	}

	logger.Info("Installing docker", "package_manager", pm)
	if err := system.InstallPackage(ctx, r, pm, dockerPackages[pm]); err != nil {
		return nil, err
	}

	if system.HasSystemd(r) {
		if err := r.Run(ctx, "systemctl", "enable", "--now", "docker"); err != nil {
			return nil, fmt.Errorf("starting docker daemon: %w", err)
		}
	} else {
		logger.Warn("systemctl not found, expecting the docker daemon to be started by other means")
	}

	st, err = Probe(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("engine still not usable after installation: %w", err)
	}
	return st, nil
}
