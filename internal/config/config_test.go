package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(viper.New(), root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, StateDirName), cfg.StateDir)
	assert.Equal(t, StoreDriverTOML, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(root, StateDirName, "session.toml"), cfg.Store.Path)
	assert.Equal(t, domain.SceneID(DefaultEntrance), cfg.DefaultEntrance)
	assert.Equal(t, 5*time.Second, cfg.RunGracePeriod)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Log.Development)
}

func TestLoadReadsProjectConfigFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, StateDirName), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, StateDirName, "config.toml"), []byte(`
[store]
driver = "sqlite"
path = "cache/session.db"

[entrance]
default = "Levels/Boot.scene"

[run]
grace_period = "250ms"

[log]
level = "debug"
`), 0o644))

	cfg, err := Load(viper.New(), root)
	require.NoError(t, err)

	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(root, "cache", "session.db"), cfg.Store.Path)
	assert.Equal(t, domain.SceneID("Levels/Boot.scene"), cfg.DefaultEntrance)
	assert.Equal(t, 250*time.Millisecond, cfg.RunGracePeriod)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	root := t.TempDir()
	t.Setenv("SST_STORE_DRIVER", "sqlite")
	t.Setenv("SST_ENTRANCE_DEFAULT", "Env/Start.scene")

	cfg, err := Load(viper.New(), root)
	require.NoError(t, err)

	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(root, StateDirName, "session.db"), cfg.Store.Path)
	assert.Equal(t, domain.SceneID("Env/Start.scene"), cfg.DefaultEntrance)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	root := t.TempDir()
	config := viper.New()
	config.Set(KeyStoreDriver, "redis")

	_, err := Load(config, root)
	require.Error(t, err)
	assert.ErrorContains(t, err, `unsupported store driver "redis"`)
}

func TestLoadRejectsEmptyProjectRoot(t *testing.T) {
	_, err := Load(viper.New(), "  ")
	require.Error(t, err)
	assert.ErrorContains(t, err, "project root is empty")
}
