package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeup/forgeup/internal/config"
	"github.com/forgeup/forgeup/internal/engine"
	"github.com/forgeup/forgeup/pkg/files"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Cobra flag values persist on the command objects between Execute
	// calls; clear the help flag so a prior "--help" run does not make
	// this one short-circuit to printing help.
	for _, c := range append(rootCmd.Commands(), rootCmd) {
		if f := c.Flags().Lookup("help"); f != nil {
			_ = f.Value.Set("false")
			f.Changed = false
		}
	}
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestHelp(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "install")
	assert.Contains(t, out, "uninstall")
	assert.Contains(t, out, "status")
}

func TestInstallHelp_ListsFlags(t *testing.T) {
	out, err := execute(t, "install", "--help")
	require.NoError(t, err)

	for _, flag := range []string{"--db-password", "--install-dir", "--ssh-port", "--ip", "--domain", "--dry-run"} {
		assert.Contains(t, out, flag)
	}
}

func TestInstall_MissingPassword(t *testing.T) {
	t.Setenv("FORGEUP_DB_PASSWORD", "")

	_, err := execute(t, "install", "-I", "192.0.2.10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database password")
}

func TestUninstall_NoDeployment(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "uninstall", "-i", dir, "-y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Join(dir, "docker-compose.yml"))
}

func TestUninstall_DataConfirmPrecedesTeardown(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "docker-compose.yml")
	require.NoError(t, os.WriteFile(manifest, []byte("name: gitea\n"), 0o600))

	var asked []string
	orig := confirm
	confirm = func(message string, assumeYes bool) error {
		asked = append(asked, message)
		if strings.Contains(message, "cannot be undone") {
			return fmt.Errorf("operation cancelled by user")
		}
		return nil
	}
	t.Cleanup(func() { confirm = orig })

	_, err := execute(t, "uninstall", "-i", dir, "-r")
	require.Error(t, err)

	// Both prompts ran before any teardown, and declining the second
	// left everything in place.
	require.Len(t, asked, 2)
	assert.Contains(t, asked[1], "cannot be undone")
	assert.True(t, files.Exists(manifest))
}

func TestMaterialize_ConfirmsDifferingSiteConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Install{
		DBPassword: "s3cret",
		InstallDir: dir,
		SSHPort:    2222,
		HTTPPort:   443,
		IPAddress:  "192.0.2.10",
	}
	st := &engine.Status{Engine: config.EngineDocker, ComposeArgv: []string{"docker", "compose"}}

	sitePath := filepath.Join(dir, "nginx", "gitea.conf")
	require.NoError(t, os.MkdirAll(filepath.Dir(sitePath), 0o755))
	require.NoError(t, os.WriteFile(sitePath, []byte("# hand-edited\n"), 0o644))

	var askedFor []string
	orig := askOverwrite
	askOverwrite = func(path string) (bool, error) {
		askedFor = append(askedFor, path)
		return false, nil
	}
	t.Cleanup(func() { askOverwrite = orig })

	err := materialize(cfg, st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keeping existing")
	assert.Contains(t, askedFor, sitePath)

	got, readErr := os.ReadFile(sitePath)
	require.NoError(t, readErr)
	assert.Equal(t, "# hand-edited\n", string(got), "declining must not clobber the edited file")
}
