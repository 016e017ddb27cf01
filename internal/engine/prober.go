package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forgeup/forgeup/internal/config"
	"github.com/forgeup/forgeup/internal/system"
	"github.com/forgeup/forgeup/pkg/logger"
)

// Status is the outcome of probing for a container engine.
type Status struct {
	Engine config.Engine
	// Sock is the API socket the daemon answered on.
	Sock string
	// Version is the daemon's reported server version.
	Version string
	// ComposeArgv is the command prefix for compose invocations,
	// e.g. ["docker", "compose"].
	ComposeArgv []string
}

// candidateSockets returns the well-known API socket paths for an engine,
// most specific first. Rootless sockets live under XDG_RUNTIME_DIR.
func candidateSockets(e config.Engine) []string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	switch e {
	case config.EngineDocker:
		paths := []string{}
		if runtimeDir != "" {
			paths = append(paths, filepath.Join(runtimeDir, "docker.sock"))
		}
		return append(paths, "/var/run/docker.sock")
	case config.EnginePodman:
		paths := []string{}
		if runtimeDir != "" {
			paths = append(paths, filepath.Join(runtimeDir, "podman", "podman.sock"))
		}
		return append(paths, "/run/podman/podman.sock")
	}
	return nil
}

// Probe looks for a usable container engine. Docker is preferred; Podman
// is accepted as the compatibility engine. An engine counts as usable
// only when its daemon answers on an API socket.
func Probe(ctx context.Context, r system.Runner) (*Status, error) {
	for _, e := range []config.Engine{config.EngineDocker, config.EnginePodman} {
		st, err := probeEngine(ctx, r, e)
		if err != nil {
			logger.Debug("Engine not usable", "engine", e, "reason", err)
			continue
		}
		return st, nil
	}
	return nil, fmt.Errorf("no usable container engine found")
}

func probeEngine(ctx context.Context, r system.Runner, e config.Engine) (*Status, error) {
	if !r.LookPath(string(e)) {
		return nil, fmt.Errorf("%s binary not on PATH", e)
	}

	var lastErr error
	for _, sock := range candidateSockets(e) {
		cli, err := NewClient(sock)
		if err != nil {
			lastErr = err
			continue
		}
		if err := cli.Ping(ctx); err != nil {
			lastErr = err
			_ = cli.Close()
			continue
		}

		version, err := cli.ServerVersion(ctx)
		_ = cli.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if err := CheckMinimumVersion(e, version); err != nil {
			return nil, err
		}

		st := &Status{
			Engine:      e,
			Sock:        sock,
			Version:     version,
			ComposeArgv: []string{string(e), "compose"},
		}
		if err := probeCompose(ctx, r, st); err != nil {
			return nil, err
		}
		logger.Info("Container engine detected",
			"engine", e, "version", version, "socket", sock)
		return st, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no API socket found for %s", e)
	}
	return nil, lastErr
}

// probeCompose verifies the compose plugin answers for the engine's CLI.
func probeCompose(ctx context.Context, r system.Runner, st *Status) error {
	args := append(st.ComposeArgv[1:], "version")
	if _, err := r.Output(ctx, st.ComposeArgv[0], args...); err != nil {
		return fmt.Errorf("%s compose is not available: %w", st.Engine, err)
	}
	return nil
}
