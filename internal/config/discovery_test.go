package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover_Explicit(t *testing.T) {
	path := writeConfig(t, "log_level: info\n")

	got, err := Discover(path, "")
	require.NoError(t, err)
	assert.Equal(t, path, got)

	_, err = Discover(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)
}

func TestDiscover_EnvVar(t *testing.T) {
	path := writeConfig(t, "log_level: info\n")
	t.Setenv("THEMEDEPLOY_CONFIG", path)

	got, err := Discover("", "")
	require.NoError(t, err)
	assert.Equal(t, path, got)

	t.Setenv("THEMEDEPLOY_CONFIG", filepath.Join(t.TempDir(), "gone.yaml"))
	_, err = Discover("", "")
	assert.Error(t, err)
}

func TestDiscover_ProjectRoot(t *testing.T) {
	t.Setenv("THEMEDEPLOY_CONFIG", "")
	root := t.TempDir()
	etc := filepath.Join(root, "app", "etc")
	require.NoError(t, os.MkdirAll(etc, 0o755))
	want := filepath.Join(etc, FileName)
	require.NoError(t, os.WriteFile(want, []byte("log_level: info\n"), 0o644))

	got, err := Discover("", root)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDiscover_NothingFound(t *testing.T) {
	t.Setenv("THEMEDEPLOY_CONFIG", "")
	t.Setenv("THEMEDEPLOY_PROJECT_ROOT", "")
	t.Chdir(t.TempDir())

	got, err := Discover("", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, got)
}
