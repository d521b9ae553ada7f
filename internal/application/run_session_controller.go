package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/ports"
	"go.uber.org/zap"
)

// RunSessionController moves the host between editing and running, capturing
// the open scenes before a run and restoring them once the run has ended.
type RunSessionController struct {
	cache    *SessionCache
	scenes   ports.SceneHost
	runner   ports.RunHost
	prompter ports.SavePrompter
	lock     ports.SessionLock
	dispatch Dispatcher
	logger   *zap.Logger

	mu      sync.Mutex
	state   domain.RunState
	pending *Restoration
	release func() error
}

func NewRunSessionController(
	cache *SessionCache,
	scenes ports.SceneHost,
	runner ports.RunHost,
	prompter ports.SavePrompter,
	lock ports.SessionLock,
	dispatch Dispatcher,
	logger *zap.Logger,
) *RunSessionController {
	if dispatch == nil {
		dispatch = Inline{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RunSessionController{
		cache:    cache,
		scenes:   scenes,
		runner:   runner,
		prompter: prompter,
		lock:     lock,
		dispatch: dispatch,
		logger:   logger,
	}
}

func (c *RunSessionController) State() domain.RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start snapshots the open scenes, opens the entrance alone and enters the
// running state. On any failure the controller is back in Editing.
func (c *RunSessionController) Start(ctx context.Context) error {
	if err := c.transition(domain.StateEditing, domain.StateTransitioningToRun); err != nil {
		return err
	}

	started := false
	defer func() {
		if !started {
			c.setState(domain.StateEditing)
		}
	}()

	// The lock spans the whole run, up to the end of the restoration.
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if !started {
			c.releaseLock(release)
		}
	}()

	if c.prompter != nil {
		proceed, err := c.prompter.SaveModifiedIfUserWants(ctx)
		if err != nil {
			return fmt.Errorf("save modified scenes: %w", err)
		}
		if !proceed {
			c.logger.Info("start cancelled before saving")
			return domain.ErrStartCancelled
		}
	}

	if _, err := c.cache.Load(ctx); err != nil {
		return err
	}

	entrance := c.cache.Entrance()
	if entrance.IsZero() {
		return fmt.Errorf("%w: no entrance scene is set", domain.ErrInvalidEntrance)
	}
	if !c.scenes.Exists(ctx, entrance) {
		c.logger.Error("entrance scene does not exist", zap.String("entrance", string(entrance)))
		return fmt.Errorf("%w: %q does not exist", domain.ErrInvalidEntrance, entrance)
	}

	open, err := c.scenes.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("list open scenes: %w", err)
	}

	if previous := c.cache.Record(); previous.HasSnapshot() {
		c.logger.Warn("overwriting snapshot left by an earlier run",
			zap.String("run_id", previous.RunID),
			zap.Int("snapshot_size", len(previous.Snapshot)),
		)
	}

	// The snapshot is durable before the layout changes.
	if err := c.cache.SetSnapshot(ctx, open); err != nil {
		return fmt.Errorf("capture open scenes: %w", err)
	}

	logger := c.logger.With(
		zap.String("run_id", c.cache.Record().RunID),
		zap.String("entrance", string(entrance)),
	)

	if err := c.scenes.Open(ctx, entrance, domain.OpenExclusive); err != nil {
		logger.Error("open entrance scene failed", zap.Error(err))
		return fmt.Errorf("%w: entrance %q: %w", domain.ErrOpenFailed, entrance, err)
	}

	if err := c.runner.EnterRunning(ctx, entrance); err != nil {
		logger.Error("enter running state failed, restoring editing scenes", zap.Error(err))
		report := c.restore(ctx, logger)
		if report.Err != nil {
			return fmt.Errorf("enter running state: %w (restore: %w)", err, report.Err)
		}
		return fmt.Errorf("enter running state: %w", err)
	}

	started = true
	c.mu.Lock()
	c.state = domain.StateRunning
	c.release = release
	c.mu.Unlock()
	logger.Info("run started", zap.Int("snapshot_size", len(open)))
	return nil
}

// Stop asks the host to leave the running state and returns at once. The
// returned Restoration completes after the host confirms the exit and the
// snapshot has been replayed.
func (c *RunSessionController) Stop(ctx context.Context) (*Restoration, error) {
	if err := c.transition(domain.StateRunning, domain.StateTransitioningToEdit); err != nil {
		return nil, err
	}

	restoration := newRestoration()
	c.mu.Lock()
	c.pending = restoration
	c.mu.Unlock()

	restoreCtx := context.WithoutCancel(ctx)
	var once sync.Once
	c.runner.OnRunningExited(func() {
		once.Do(func() {
			c.dispatch.Post(func() {
				c.finishStop(restoreCtx, restoration)
			})
		})
	})

	if err := c.runner.ExitRunning(ctx); err != nil {
		c.mu.Lock()
		if c.pending == restoration {
			c.pending = nil
			c.state = domain.StateRunning
		}
		c.mu.Unlock()
		return nil, fmt.Errorf("exit running state: %w", err)
	}

	return restoration, nil
}

// RestorePending replays a snapshot left behind by a run whose exit was
// never observed, e.g. after the host crashed.
func (c *RunSessionController) RestorePending(ctx context.Context) (RestoreReport, error) {
	if err := c.transition(domain.StateEditing, domain.StateTransitioningToEdit); err != nil {
		return RestoreReport{}, err
	}
	defer c.setState(domain.StateEditing)

	release, err := c.acquire(ctx)
	if err != nil {
		return RestoreReport{}, err
	}
	defer c.releaseLock(release)

	if _, err := c.cache.Load(ctx); err != nil {
		return RestoreReport{}, err
	}

	report := c.restore(ctx, c.logger.With(zap.String("run_id", c.cache.Record().RunID)))
	return report, report.Err
}

// SetEntrance is legal in every state; it takes effect on the next Start.
func (c *RunSessionController) SetEntrance(ctx context.Context, id domain.SceneID) error {
	if err := c.cache.SetEntrance(ctx, id); err != nil {
		return err
	}
	c.logger.Info("entrance scene set", zap.String("entrance", string(id)), zap.Stringer("state", c.State()))
	return nil
}

func (c *RunSessionController) finishStop(ctx context.Context, restoration *Restoration) {
	c.mu.Lock()
	current := c.pending == restoration && c.state == domain.StateTransitioningToEdit
	c.mu.Unlock()
	if !current {
		c.logger.Debug("ignoring exit notification for a superseded stop")
		return
	}

	report := c.restore(ctx, c.logger.With(zap.String("run_id", c.cache.Record().RunID)))

	c.mu.Lock()
	c.pending = nil
	c.state = domain.StateEditing
	release := c.release
	c.release = nil
	c.mu.Unlock()

	c.releaseLock(release)
	restoration.complete(report)
}

// restore opens snapshot entry 0 exclusively and the rest additively, in
// order, skipping entries that no longer resolve, then clears the snapshot.
func (c *RunSessionController) restore(ctx context.Context, logger *zap.Logger) RestoreReport {
	snapshot := c.cache.Snapshot()
	report := RestoreReport{RunID: c.cache.Record().RunID}
	if len(snapshot) == 0 {
		logger.Info("no editing scenes to restore")
		return report
	}

	for index, id := range snapshot {
		mode := domain.OpenAdditive
		if index == 0 {
			mode = domain.OpenExclusive
		}

		if id.IsZero() || !c.scenes.Exists(ctx, id) {
			report.Issues = append(report.Issues, &domain.SnapshotEntryError{Index: index, ID: id, Err: domain.ErrStaleSnapshotEntry})
			logger.Warn("skipping stale snapshot entry", zap.Int("index", index), zap.String("scene", string(id)))
			continue
		}

		if err := c.scenes.Open(ctx, id, mode); err != nil {
			report.Issues = append(report.Issues, &domain.SnapshotEntryError{
				Index: index,
				ID:    id,
				Err:   fmt.Errorf("%w: %w", domain.ErrOpenFailed, err),
			})
			logger.Warn("skipping snapshot entry that failed to open", zap.Int("index", index), zap.String("scene", string(id)), zap.Error(err))
			continue
		}

		report.Opened = append(report.Opened, id)
	}

	if err := c.cache.ClearSnapshot(ctx); err != nil {
		report.Err = err
		logger.Error("clear snapshot failed", zap.Error(err))
	}

	logger.Info("editing scenes restored", zap.Int("opened", len(report.Opened)), zap.Int("skipped", len(report.Issues)))
	return report
}

func (c *RunSessionController) acquire(ctx context.Context) (func() error, error) {
	if c.lock == nil {
		return nil, nil
	}

	release, err := c.lock.Acquire(ctx)
	if err != nil {
		c.logger.Warn("session lock unavailable", zap.Error(err))
		return nil, err
	}
	return release, nil
}

func (c *RunSessionController) releaseLock(release func() error) {
	if release == nil {
		return
	}
	if err := release(); err != nil {
		c.logger.Error("release session lock failed", zap.Error(err))
	}
}

func (c *RunSessionController) transition(from, to domain.RunState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != from {
		return fmt.Errorf("%w: state is %s, want %s", domain.ErrInvalidState, c.state, from)
	}
	c.state = to
	return nil
}

func (c *RunSessionController) setState(state domain.RunState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}
