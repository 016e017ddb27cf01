package config

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFlags() Flags {
	return Flags{
		DBPassword: "s3cret",
		InstallDir: "/opt/gitea",
		SSHPort:    2222,
		IPAddress:  "192.0.2.10",
	}
}

func TestResolve(t *testing.T) {
	cfg, err := Resolve(validFlags())
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.DBPassword)
	assert.Equal(t, "/opt/gitea", cfg.InstallDir)
	assert.Equal(t, 2222, cfg.SSHPort)
	assert.Equal(t, 443, cfg.HTTPPort)
	assert.Equal(t, "192.0.2.10", cfg.IPAddress)
	assert.Equal(t, EngineNone, cfg.Engine)
}

func TestResolve_MissingPassword(t *testing.T) {
	flags := validFlags()
	flags.DBPassword = ""

	_, err := Resolve(flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database password")
}

func TestResolve_PasswordFromEnv(t *testing.T) {
	t.Setenv("FORGEUP_DB_PASSWORD", "from-env")

	flags := validFlags()
	flags.DBPassword = ""

	cfg, err := Resolve(flags)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.DBPassword)
}

func TestResolve_FlagBeatsEnv(t *testing.T) {
	t.Setenv("FORGEUP_DB_PASSWORD", "from-env")

	cfg, err := Resolve(validFlags())
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.DBPassword)
}

func TestResolve_InvalidPorts(t *testing.T) {
	tests := []struct {
		name string
		ssh  int
		http int
	}{
		{"ssh port too high", 70000, 443},
		{"ssh port negative", -1, 443},
		{"http port too high", 2222, 65536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := validFlags()
			flags.SSHPort = tt.ssh
			flags.HTTPPort = tt.http

			_, err := Resolve(flags)
			assert.Error(t, err)
		})
	}
}

func TestResolve_SSHPortCollidesWithHostSSHD(t *testing.T) {
	flags := validFlags()
	flags.SSHPort = 22

	_, err := Resolve(flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collides with the host sshd")
}

func TestResolve_SSHPort22Forced(t *testing.T) {
	flags := validFlags()
	flags.SSHPort = 22
	flags.Force = true

	cfg, err := Resolve(flags)
	require.NoError(t, err)
	assert.Equal(t, 22, cfg.SSHPort)
}

func TestResolve_InvalidIP(t *testing.T) {
	flags := validFlags()
	flags.IPAddress = "not-an-ip"

	_, err := Resolve(flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ip address")
}

func TestResolve_RelativeInstallDir(t *testing.T) {
	flags := validFlags()
	flags.InstallDir = "gitea-files"

	cfg, err := Resolve(flags)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.InstallDir))
}

func TestWithEngine_DoesNotMutateReceiver(t *testing.T) {
	cfg, err := Resolve(validFlags())
	require.NoError(t, err)

	withEngine := cfg.WithEngine(EnginePodman)
	assert.Equal(t, EnginePodman, withEngine.Engine)
	assert.Equal(t, EngineNone, cfg.Engine)
}

func TestDetectIP(t *testing.T) {
	// The host's interfaces vary; either a parseable address comes back
	// or the detection reports an error.
	ip, err := DetectIP()
	if err != nil {
		assert.Empty(t, ip)
		return
	}
	assert.NotNil(t, net.ParseIP(ip))
}

func TestServerName(t *testing.T) {
	flags := validFlags()

	cfg, err := Resolve(flags)
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.10", cfg.ServerName())
	assert.False(t, cfg.UsesDomain())

	flags.Domain = "git.example.com"
	cfg, err = Resolve(flags)
	require.NoError(t, err)
	assert.Equal(t, "git.example.com", cfg.ServerName())
	assert.True(t, cfg.UsesDomain())
}
