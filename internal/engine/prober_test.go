package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeup/forgeup/internal/config"
	"github.com/forgeup/forgeup/internal/testutils"
)

func TestCandidateSockets_RootlessFirst(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")

	docker := candidateSockets(config.EngineDocker)
	require.Len(t, docker, 2)
	assert.Equal(t, filepath.Join("/run/user/1000", "docker.sock"), docker[0])
	assert.Equal(t, "/var/run/docker.sock", docker[1])

	podman := candidateSockets(config.EnginePodman)
	require.Len(t, podman, 2)
	assert.Equal(t, filepath.Join("/run/user/1000", "podman", "podman.sock"), podman[0])
	assert.Equal(t, "/run/podman/podman.sock", podman[1])
}

func TestCandidateSockets_NoRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	assert.Equal(t, []string{"/var/run/docker.sock"}, candidateSockets(config.EngineDocker))
	assert.Equal(t, []string{"/run/podman/podman.sock"}, candidateSockets(config.EnginePodman))
}

func TestProbe_NoBinaries(t *testing.T) {
	r := testutils.NewFakeRunner()

	_, err := Probe(context.Background(), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable container engine")
}

func TestProbeCompose(t *testing.T) {
	r := testutils.NewFakeRunner()
	r.Outputs["docker compose version"] = "Docker Compose version v2.32.1"

	st := &Status{Engine: config.EngineDocker, ComposeArgv: []string{"docker", "compose"}}
	require.NoError(t, probeCompose(context.Background(), r, st))
	assert.True(t, r.CalledWith("docker compose version"))
}
