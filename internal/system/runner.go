// Package system wraps host-level concerns: running external commands and
// probing for installed tooling.
package system

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/forgeup/forgeup/pkg/logger"
)

// Runner executes external commands. The indirection exists so the
// orchestration and firewall code can be tested with a fake.
type Runner interface {
	// Run executes the command and streams its output to the user.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes the command and returns its combined output.
	Output(ctx context.Context, name string, args ...string) (string, error)
	// LookPath reports whether the named binary is on PATH.
	LookPath(name string) bool
}

// ExecRunner is the Runner used in production. It inherits stdout/stderr
// so the user sees the underlying tool's own progress output, the way the
// tool would behave if invoked by hand.
type ExecRunner struct{}

func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	logger.Debug("Running command", "cmd", name, "args", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	logger.Debug("Running command", "cmd", name, "args", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return buf.String(), fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return buf.String(), nil
}

func (r *ExecRunner) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
