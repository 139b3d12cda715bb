package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docsift/internal/config"
)

func TestConfigInit_CreatesProjectFile(t *testing.T) {
	root := newDocRoot(t)

	out, err := execute(t, "--root", root, "config", "init")

	require.NoError(t, err)
	assert.Contains(t, out, "Created configuration")
	data, err := os.ReadFile(filepath.Join(root, config.ProjectFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# docsift project configuration")

	// The written file loads cleanly.
	_, err = execute(t, "--root", root, "config", "show")
	require.NoError(t, err)
}

func TestConfigInit_KeepsExistingWithoutForce(t *testing.T) {
	root := newDocRoot(t)
	writeProjectConfig(t, root, "search:\n  default_limit: 7\n")

	out, err := execute(t, "--root", root, "config", "init")

	require.NoError(t, err)
	assert.Contains(t, out, "Configuration already exists")
	data, err := os.ReadFile(filepath.Join(root, config.ProjectFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "default_limit: 7")
}

func TestConfigInit_ForceKeepsBackup(t *testing.T) {
	root := newDocRoot(t)
	path := filepath.Join(root, config.ProjectFileName)
	writeProjectConfig(t, root, "search:\n  default_limit: 7\n")

	out, err := execute(t, "--root", root, "config", "init", "--force")

	require.NoError(t, err)
	assert.Contains(t, out, "Backup:")
	backups, err := config.ListBackups(path)
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestConfigShow_JSON(t *testing.T) {
	root := newDocRoot(t)

	out, err := execute(t, "--root", root, "config", "show", "--json")

	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, filepath.Join(root, config.DataDirName), cfg.DataDir)
}

func TestConfigPath(t *testing.T) {
	root := newDocRoot(t)

	out, err := execute(t, "--root", root, "config", "path")

	require.NoError(t, err)
	assert.Contains(t, out, "user:")
	assert.Contains(t, out, filepath.Join(root, config.ProjectFileName))
}
