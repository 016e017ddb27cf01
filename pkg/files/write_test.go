package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteIfChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "file.txt")

	changed, err := WriteIfChanged(path, []byte("hello"), 0o644)
	require.NoError(t, err)
	assert.True(t, changed, "first write must report a change")

	changed, err = WriteIfChanged(path, []byte("hello"), 0o644)
	require.NoError(t, err)
	assert.False(t, changed, "identical content must be a no-op")

	changed, err = WriteIfChanged(path, []byte("world"), 0o644)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "world", string(got))
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, Exists(dir))
	assert.False(t, Exists(filepath.Join(dir, "missing")))
}
