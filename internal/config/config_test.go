package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Empty(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxel.yaml")
	data := []byte(`
world:
  seed: -42
  render_distance: 5
server:
  tick_rate: 30
  autosave_every_seconds: -1
admin:
  username: root
debug:
  statsview: true
`)
	require.NoError(t, os.WriteFile(path, data, 0644))
	t.Setenv("VOXEL_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	seed, ok := cfg.World.GetSeed()
	assert.True(t, ok)
	assert.Equal(t, int32(-42), seed)
	assert.Equal(t, 5, cfg.World.GetRenderDistance())
	assert.Equal(t, 30, cfg.Server.GetTickRate())
	assert.Equal(t, time.Duration(0), cfg.Server.GetAutosaveInterval())
	assert.Equal(t, "root", cfg.Admin.GetUsername())
	assert.True(t, cfg.Debug.Statsview)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("world: [1, 2"), 0644))
	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFallbacks(t *testing.T) {
	cfg := Default()

	t.Setenv("VOXEL_ADMIN_PORT", "9000")
	t.Setenv("VOXEL_WORKERS", "не число")
	t.Setenv("VOXEL_SEED", "")
	t.Setenv("VOXEL_DATA_DIR", "")

	assert.Equal(t, 9000, cfg.Server.GetAdminPort())
	assert.Equal(t, 4, cfg.World.GetWorkers())
	assert.Equal(t, "data", cfg.Storage.GetDataDir())
	assert.Equal(t, time.Minute, cfg.Server.GetAutosaveInterval())

	_, ok := cfg.World.GetSeed()
	assert.False(t, ok)

	cfg.Server.AdminPort = 7000
	assert.Equal(t, 7000, cfg.Server.GetAdminPort())
}
