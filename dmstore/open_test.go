package dmstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackend(t *testing.T) {
	for _, name := range []string{"", "config", "file"} {
		b, err := ParseBackend(name)
		require.NoError(t, err)
		assert.Equal(t, Backend(name), b)
	}
	_, err := ParseBackend("keychain")
	assert.ErrorContains(t, err, "keychain")
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(BackendFile, filepath.Join(dir, "secrets.d"))
	require.NoError(t, err)
	assert.IsType(t, &FileDataStore{}, s)
	assert.DirExists(t, filepath.Join(dir, "secrets.d"))

	s, err = Open(BackendConfig, filepath.Join(dir, "secrets"))
	require.NoError(t, err)
	assert.IsType(t, &ConfigDataStore{}, s)

	_, err = Open(Backend("keychain"), dir)
	assert.Error(t, err)
}
