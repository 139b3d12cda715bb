package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docsift/internal/config"
)

func TestProjectConfigTemplate_LoadsAsDefaults(t *testing.T) {
	// Given: the template written as a project config
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ProjectFileName), []byte(ProjectConfigTemplate), 0o644))

	// When: loading it
	cfg, err := config.Load(dir)

	// Then: it parses and matches the built-in defaults
	require.NoError(t, err)
	defaults := config.NewConfig()
	assert.Equal(t, defaults.Search, cfg.Search)
	assert.Equal(t, defaults.Paths, cfg.Paths)
	assert.Equal(t, defaults.Index, cfg.Index)
	assert.Equal(t, defaults.Store, cfg.Store)
	assert.Equal(t, defaults.Watch, cfg.Watch)
	assert.Equal(t, defaults.Server, cfg.Server)
}
