package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/adapters/lock/pidfile"
	statusadapter "github.com/hangekinobaka/sleepy-scene-tool/internal/adapters/render/status"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/adapters/runhost/process"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/adapters/scenehost/workspace"
	sqlitestore "github.com/hangekinobaka/sleepy-scene-tool/internal/adapters/store/sqlite"
	tomlstore "github.com/hangekinobaka/sleepy-scene-tool/internal/adapters/store/toml"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/application"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/config"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/logging"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/ports"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	workspaceStateFile = "workspace.toml"
	sessionLockFile    = "session.lock"
	snapshotOldAfter   = 24 * time.Hour
)

type app struct {
	cfg            config.Config
	logger         *zap.Logger
	closeStore     func() error
	cache          *application.SessionCache
	workspace      *workspace.Workspace
	lock           *pidfile.Lock
	statusRenderer func(application.SessionStatus, statusadapter.RenderOptions) string
	clock          clockwork.Clock
}

func wireApp(ctx context.Context, projectRoot string) (*app, error) {
	cfg, err := config.Load(viper.New(), projectRoot)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("wire session store: %w", err)
	}

	fs := afero.NewOsFs()
	clock := clockwork.NewRealClock()
	logger.Debug("wired application",
		zap.String("project", cfg.ProjectRoot),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("store_path", cfg.Store.Path),
	)

	return &app{
		cfg:            cfg,
		logger:         logger,
		closeStore:     closeStore,
		cache:          application.NewSessionCache(store, cfg.DefaultEntrance, logger, clock),
		workspace:      workspace.New(fs, cfg.ProjectRoot, filepath.Join(cfg.StateDir, workspaceStateFile)),
		lock:           pidfile.New(fs, filepath.Join(cfg.StateDir, sessionLockFile), os.Getpid(), nil, logger),
		statusRenderer: statusadapter.Render,
		clock:          clock,
	}, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (ports.PersistentStore, func() error, error) {
	switch cfg.Driver {
	case config.StoreDriverSQLite:
		store, err := sqlitestore.Open(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		store, err := tomlstore.NewStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	}
}

// controller builds a run session controller over the shared cache. Commands
// that never enter the running state pass a nil runner.
func (a *app) controller(runner ports.RunHost, prompter ports.SavePrompter, dispatch application.Dispatcher) *application.RunSessionController {
	if runner == nil {
		runner = a.newRunHost(nil, nil, nil, nil)
	}
	return application.NewRunSessionController(a.cache, a.workspace, runner, prompter, a.lock, dispatch, a.logger)
}

func (a *app) newRunHost(command []string, stdin io.Reader, stdout, stderr io.Writer) *process.Host {
	return process.New(process.Config{
		Command:     command,
		ProjectRoot: a.cfg.ProjectRoot,
		Stdin:       stdin,
		Stdout:      stdout,
		Stderr:      stderr,
		GracePeriod: a.cfg.RunGracePeriod,
	}, a.logger)
}

func (a *app) close() error {
	storeErr := a.closeStore()
	// Sync on stderr reports EINVAL on some platforms.
	_ = a.logger.Sync()
	if storeErr != nil {
		return fmt.Errorf("close session store: %w", storeErr)
	}
	return nil
}
