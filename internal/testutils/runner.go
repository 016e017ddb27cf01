// Package testutils holds test doubles shared across packages.
package testutils

import (
	"context"
	"strings"
)

// FakeRunner is a system.Runner that records invocations instead of
// executing anything. Canned outputs and errors are keyed by the full
// command line.
type FakeRunner struct {
	// Calls records every Run/Output invocation as "name arg arg...".
	Calls []string
	// Outputs maps a command line to the output Output returns for it.
	Outputs map[string]string
	// Errs maps a command line to the error Run/Output return for it.
	Errs map[string]error
	// Binaries is the set of names LookPath reports as present.
	Binaries map[string]bool
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Outputs:  map[string]string{},
		Errs:     map[string]error{},
		Binaries: map[string]bool{},
	}
}

func (r *FakeRunner) commandLine(name string, args ...string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

func (r *FakeRunner) Run(ctx context.Context, name string, args ...string) error {
	line := r.commandLine(name, args...)
	r.Calls = append(r.Calls, line)
	return r.Errs[line]
}

func (r *FakeRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	line := r.commandLine(name, args...)
	r.Calls = append(r.Calls, line)
	return r.Outputs[line], r.Errs[line]
}

func (r *FakeRunner) LookPath(name string) bool {
	return r.Binaries[name]
}

// CalledWith reports whether any recorded call equals the command line.
func (r *FakeRunner) CalledWith(line string) bool {
	for _, c := range r.Calls {
		if c == line {
			return true
		}
	}
	return false
}
