package compose

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeup/forgeup/internal/config"
)

func testConfig() *config.Install {
	return &config.Install{
		DBPassword: "p@ss: word",
		InstallDir: "/opt/gitea",
		SSHPort:    2222,
		HTTPPort:   8443,
		IPAddress:  "192.0.2.10",
	}
}

func TestRender_ContainsConfigVerbatim(t *testing.T) {
	out, err := Render(testConfig())
	require.NoError(t, err)

	rendered := string(out)
	assert.Contains(t, rendered, "p@ss: word")
	assert.Contains(t, rendered, "2222:22")
	assert.Contains(t, rendered, "8443:443")
	assert.Contains(t, rendered, "192.0.2.10")
}

func TestRender_DomainWinsOverIP(t *testing.T) {
	cfg := testConfig()
	cfg.Domain = "git.example.com"

	out, err := Render(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(out), "GITEA__server__SSH_DOMAIN=git.example.com")
}

func TestBuild_ServicesAndVolumes(t *testing.T) {
	f, err := Build(testConfig())
	require.NoError(t, err)

	assert.Equal(t, ProjectName, f.Name)
	for _, svc := range []string{ServiceGitea, ServiceDB, ServiceProxy} {
		assert.Contains(t, f.Services, svc)
	}
	for name, vol := range f.Volumes {
		assert.Equal(t, "true", vol.Labels[ManagedLabel], "volume %s must be labelled managed", name)
	}

	assert.Contains(t, f.Services[ServiceGitea].DependsOn, ServiceDB)
	assert.Contains(t, f.Services[ServiceProxy].DependsOn, ServiceGitea)
}

func TestRender_RoundTripsThroughLoad(t *testing.T) {
	out, err := Render(testConfig())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "docker-compose.yml")
	require.NoError(t, os.WriteFile(path, out, 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{2222, 8443, 80}, f.PublishedPorts())
}

func TestEnvValue(t *testing.T) {
	out, err := Render(testConfig())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "docker-compose.yml")
	require.NoError(t, os.WriteFile(path, out, 0o600))
	f, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://192.0.2.10:8443/", f.EnvValue(ServiceGitea, "GITEA__server__ROOT_URL"))
	assert.Equal(t, "2222", f.EnvValue(ServiceGitea, "GITEA__server__SSH_PORT"))
	assert.Equal(t, "192.0.2.10", f.EnvValue(ServiceGitea, "GITEA__server__SSH_DOMAIN"))
	assert.Empty(t, f.EnvValue(ServiceGitea, "NO_SUCH_KEY"))
	assert.Empty(t, f.EnvValue("no-such-service", "GITEA__server__ROOT_URL"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestPublishedPorts_SkipsUnparseable(t *testing.T) {
	f := &File{
		Services: map[string]Service{
			"a": {Ports: []string{"443:443", "no-colon", "x:80"}},
		},
	}
	assert.Equal(t, []int{443}, f.PublishedPorts())
}
