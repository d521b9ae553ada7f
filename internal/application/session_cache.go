package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/ports"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// SessionCache is the write-through owner of the entrance scene and the
// open-set snapshot. One instance is shared by every component of a process.
type SessionCache struct {
	store           ports.PersistentStore
	defaultEntrance domain.SceneID
	logger          *zap.Logger
	clock           clockwork.Clock
	newRunID        func() string

	mu     sync.RWMutex
	record domain.SessionRecord
	loaded bool
}

func NewSessionCache(store ports.PersistentStore, defaultEntrance domain.SceneID, logger *zap.Logger, clock clockwork.Clock) *SessionCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &SessionCache{
		store:           store,
		defaultEntrance: defaultEntrance,
		logger:          logger,
		clock:           clock,
		newRunID:        uuid.NewString,
	}
}

// Load returns the durable record, creating and persisting a fresh one with
// the default entrance on first use. Later calls return the cached record.
func (c *SessionCache) Load(ctx context.Context) (domain.SessionRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(ctx); err != nil {
		return domain.SessionRecord{}, err
	}
	return c.record.Clone(), nil
}

func (c *SessionCache) loadLocked(ctx context.Context) error {
	if c.loaded {
		return nil
	}

	record, found, err := c.store.ReadRecord(ctx)
	if err != nil {
		return fmt.Errorf("load session cache: %w", err)
	}

	if !found {
		record = domain.SessionRecord{Entrance: c.defaultEntrance, Snapshot: []domain.SceneID{}}
		if err := c.store.WriteRecord(ctx, record); err != nil {
			return fmt.Errorf("create session cache: %w", err)
		}
		c.logger.Info("session cache created", zap.String("entrance", string(record.Entrance)))
	}
	if record.Snapshot == nil {
		record.Snapshot = []domain.SceneID{}
	}

	c.record = record
	c.loaded = true
	return nil
}

// Record returns a copy of the loaded record; the zero record before Load.
func (c *SessionCache) Record() domain.SessionRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.Clone()
}

func (c *SessionCache) Entrance() domain.SceneID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.Entrance
}

func (c *SessionCache) Snapshot() []domain.SceneID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.CloneSceneIDs(c.record.Snapshot)
}

// SetEntrance stores id without checking that it resolves.
func (c *SessionCache) SetEntrance(ctx context.Context, id domain.SceneID) error {
	return c.mutate(ctx, "set entrance", func(record *domain.SessionRecord) {
		record.Entrance = id
	})
}

// SetSnapshot stores ids verbatim and stamps the capture with a new run id.
func (c *SessionCache) SetSnapshot(ctx context.Context, ids []domain.SceneID) error {
	snapshot := domain.CloneSceneIDs(ids)
	if snapshot == nil {
		snapshot = []domain.SceneID{}
	}

	return c.mutate(ctx, "set snapshot", func(record *domain.SessionRecord) {
		record.Snapshot = snapshot
		record.RunID = c.newRunID()
		record.CapturedAt = c.clock.Now().UTC()
	})
}

func (c *SessionCache) ClearSnapshot(ctx context.Context) error {
	return c.mutate(ctx, "clear snapshot", func(record *domain.SessionRecord) {
		record.Snapshot = []domain.SceneID{}
		record.RunID = ""
		record.CapturedAt = time.Time{}
	})
}

// mutate persists the changed record before publishing it in memory, so a
// failed write leaves the cache as it was.
func (c *SessionCache) mutate(ctx context.Context, op string, apply func(*domain.SessionRecord)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.loadLocked(ctx); err != nil {
		return err
	}

	next := c.record.Clone()
	apply(&next)

	if err := c.store.WriteRecord(ctx, next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.record = next
	return nil
}
