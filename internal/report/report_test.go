package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeup/forgeup/internal/config"
)

func TestRenderReadme(t *testing.T) {
	cfg := &config.Install{
		DBPassword: "s3cret",
		InstallDir: "/opt/gitea",
		SSHPort:    2222,
		HTTPPort:   8443,
		IPAddress:  "192.0.2.10",
	}

	out, err := RenderReadme(cfg, []string{"docker", "compose"})
	require.NoError(t, err)

	rendered := string(out)
	assert.Contains(t, rendered, "https://192.0.2.10:8443/")
	assert.Contains(t, rendered, "ssh://git@192.0.2.10:2222")
	assert.Contains(t, rendered, "Password: s3cret")
	assert.Contains(t, rendered, "docker compose -f docker-compose.yml ps")
	assert.Contains(t, rendered, "forgeup uninstall -i /opt/gitea")
}

func TestRenderReadme_DefaultPortOmitted(t *testing.T) {
	cfg := &config.Install{
		DBPassword: "s3cret",
		InstallDir: "/opt/gitea",
		SSHPort:    2222,
		HTTPPort:   443,
		Domain:     "git.example.com",
		IPAddress:  "192.0.2.10",
	}

	out, err := RenderReadme(cfg, []string{"podman", "compose"})
	require.NoError(t, err)

	rendered := string(out)
	assert.Contains(t, rendered, "https://git.example.com/")
	assert.NotContains(t, rendered, "git.example.com:443")
	assert.Contains(t, rendered, "podman compose -f docker-compose.yml logs -f")
}
