package system

import (
	"context"
	"fmt"
)

// PackageManager identifies the host's package manager.
type PackageManager string

const (
	PkgNone   PackageManager = ""
	PkgApt    PackageManager = "apt-get"
	PkgDnf    PackageManager = "dnf"
	PkgYum    PackageManager = "yum"
	PkgPacman PackageManager = "pacman"
	PkgZypper PackageManager = "zypper"
)

var managerProbeOrder = []PackageManager{PkgApt, PkgDnf, PkgYum, PkgPacman, PkgZypper}

// DetectPackageManager returns the first known package manager found on
// PATH, or PkgNone when the host has none of them.
func DetectPackageManager(r Runner) PackageManager {
	for _, pm := range managerProbeOrder {
		if r.LookPath(string(pm)) {
			return pm
		}
	}
	return PkgNone
}

// InstallPackage installs a distribution package non-interactively with
// the given manager.
func InstallPackage(ctx context.Context, r Runner, pm PackageManager, pkg string) error {
	var args []string
	switch pm {
	case PkgApt:
		args = []string{"install", "-y", pkg}
	case PkgDnf, PkgYum:
		args = []string{"install", "-y", pkg}
	case PkgPacman:
		args = []string{"-S", "--noconfirm", pkg}
	case PkgZypper:
		args = []string{"install", "-y", pkg}
	default:
		return fmt.Errorf("no supported package manager found")
	}
	if err := r.Run(ctx, string(pm), args...); err != nil {
		return fmt.Errorf("installing %s via %s: %w", pkg, pm, err)
	}
	return nil
}

// HasSystemd reports whether systemctl is available to manage services.
func HasSystemd(r Runner) bool {
	return r.LookPath("systemctl")
}
