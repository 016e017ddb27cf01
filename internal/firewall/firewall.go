// Package firewall opens and closes the deployment's ports on whichever
// host firewall manager is active. No active manager is a no-op, and
// failures are reported as warnings rather than aborting the install:
// the deployment itself is already up at this point.
package firewall

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/forgeup/forgeup/internal/system"
	"github.com/forgeup/forgeup/pkg/logger"
)

// Manager identifies the active host firewall manager.
type Manager string

const (
	ManagerNone      Manager = ""
	ManagerUFW       Manager = "ufw"
	ManagerFirewalld Manager = "firewalld"
)

// Detect returns the active firewall manager. Installed-but-inactive
// managers count as none; rules added to an inactive firewall would
// silently spring to life on the next enable.
func Detect(ctx context.Context, r system.Runner) Manager {
	if r.LookPath("ufw") {
		out, err := r.Output(ctx, "ufw", "status")
		if err == nil && strings.Contains(out, "Status: active") {
			return ManagerUFW
		}
	}
	if r.LookPath("firewall-cmd") {
		out, err := r.Output(ctx, "firewall-cmd", "--state")
		if err == nil && strings.Contains(strings.TrimSpace(out), "running") {
			return ManagerFirewalld
		}
	}
	return ManagerNone
}

// OpenPorts allows inbound TCP on the given ports. Per-port failures are
// logged and skipped.
func OpenPorts(ctx context.Context, r system.Runner, m Manager, ports []int) {
	if m == ManagerNone {
		logger.Info("No active firewall manager, skipping port rules")
		return
	}

	for _, port := range ports {
		if err := openPort(ctx, r, m, port); err != nil {
			logger.Warn("Could not open port", "port", port, "error", err)
			continue
		}
		logger.Info("Opened port", "port", port, "manager", m)
	}

	if m == ManagerFirewalld {
		if err := r.Run(ctx, "firewall-cmd", "--reload"); err != nil {
			logger.Warn("firewall-cmd reload failed", "error", err)
		}
	}
}

// ClosePorts reverses OpenPorts, best-effort.
func ClosePorts(ctx context.Context, r system.Runner, m Manager, ports []int) {
	if m == ManagerNone {
		return
	}

	for _, port := range ports {
		if err := closePort(ctx, r, m, port); err != nil {
			logger.Warn("Could not close port", "port", port, "error", err)
			continue
		}
		logger.Info("Closed port", "port", port, "manager", m)
	}

	if m == ManagerFirewalld {
		if err := r.Run(ctx, "firewall-cmd", "--reload"); err != nil {
			logger.Warn("firewall-cmd reload failed", "error", err)
		}
	}
}

func openPort(ctx context.Context, r system.Runner, m Manager, port int) error {
	switch m {
	case ManagerUFW:
		return r.Run(ctx, "ufw", "allow", strconv.Itoa(port)+"/tcp")
	case ManagerFirewalld:
		return r.Run(ctx, "firewall-cmd", "--permanent",
			fmt.Sprintf("--add-port=%d/tcp", port))
	}
	return fmt.Errorf("unknown firewall manager %q", m)
}

func closePort(ctx context.Context, r system.Runner, m Manager, port int) error {
	switch m {
	case ManagerUFW:
		return r.Run(ctx, "ufw", "delete", "allow", strconv.Itoa(port)+"/tcp")
	case ManagerFirewalld:
		return r.Run(ctx, "firewall-cmd", "--permanent",
			fmt.Sprintf("--remove-port=%d/tcp", port))
	}
	return fmt.Errorf("unknown firewall manager %q", m)
}
