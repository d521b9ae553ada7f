// Package config resolves project-scoped settings from
// <project>/.sst/config.toml and SST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/logging"
	"github.com/spf13/viper"
)

const (
	StateDirName = ".sst"

	configName = "config"
	configType = "toml"
	envPrefix  = "SST"

	KeyStoreDriver     = "store.driver"
	KeyStorePath       = "store.path"
	KeyEntranceDefault = "entrance.default"
	KeyRunGracePeriod  = "run.grace_period"
	KeyLogLevel        = "log.level"
	KeyLogDevelopment  = "log.development"

	StoreDriverTOML   = "toml"
	StoreDriverSQLite = "sqlite"

	DefaultEntrance      = "Scenes/Main.scene"
	defaultGracePeriod   = 5 * time.Second
	defaultTOMLStoreFile = "session.toml"
	defaultSQLiteStoreDB = "session.db"
	defaultLogLevel      = "warn"
)

type StoreConfig struct {
	Driver string
	Path   string
}

type Config struct {
	ProjectRoot     string
	StateDir        string
	Store           StoreConfig
	DefaultEntrance domain.SceneID
	RunGracePeriod  time.Duration
	Log             logging.Config
}

func Load(cfg *viper.Viper, projectRoot string) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if strings.TrimSpace(projectRoot) == "" {
		return Config{}, errors.New("project root is empty")
	}

	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return Config{}, fmt.Errorf("resolve project root: %w", err)
	}
	root = filepath.Clean(root)
	stateDir := filepath.Join(root, StateDirName)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(stateDir)
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault(KeyStoreDriver, StoreDriverTOML)
	cfg.SetDefault(KeyEntranceDefault, DefaultEntrance)
	cfg.SetDefault(KeyRunGracePeriod, defaultGracePeriod)
	cfg.SetDefault(KeyLogLevel, defaultLogLevel)
	cfg.SetDefault(KeyLogDevelopment, false)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.GetString(KeyStoreDriver)))
	storePath := strings.TrimSpace(cfg.GetString(KeyStorePath))
	switch driver {
	case StoreDriverTOML:
		if storePath == "" {
			storePath = filepath.Join(stateDir, defaultTOMLStoreFile)
		}
	case StoreDriverSQLite:
		if storePath == "" {
			storePath = filepath.Join(stateDir, defaultSQLiteStoreDB)
		}
	default:
		return Config{}, fmt.Errorf("unsupported store driver %q", driver)
	}
	if !filepath.IsAbs(storePath) {
		storePath = filepath.Join(root, storePath)
	}

	grace := cfg.GetDuration(KeyRunGracePeriod)
	if grace < 0 {
		return Config{}, fmt.Errorf("%s must not be negative", KeyRunGracePeriod)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.GetString(KeyLogLevel)
	logCfg.Development = cfg.GetBool(KeyLogDevelopment)

	return Config{
		ProjectRoot:     root,
		StateDir:        stateDir,
		Store:           StoreConfig{Driver: driver, Path: filepath.Clean(storePath)},
		DefaultEntrance: domain.SceneID(cfg.GetString(KeyEntranceDefault)),
		RunGracePeriod:  grace,
		Log:             logCfg,
	}, nil
}
