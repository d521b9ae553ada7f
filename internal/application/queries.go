package application

import (
	"context"
	"time"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
)

type SnapshotEntryStatus struct {
	ID     domain.SceneID
	Exists bool
}

// SessionStatus is the read model rendered by the presentation layer.
type SessionStatus struct {
	State          domain.RunState
	Entrance       domain.SceneID
	EntranceExists bool
	Snapshot       []SnapshotEntryStatus
	RunID          string
	CapturedAt     time.Time

	// OwnerPID names the live process holding the session, zero when free.
	OwnerPID int
}

func (c *RunSessionController) Status(ctx context.Context) (SessionStatus, error) {
	record, err := c.cache.Load(ctx)
	if err != nil {
		return SessionStatus{}, err
	}

	status := SessionStatus{
		State:          c.State(),
		Entrance:       record.Entrance,
		EntranceExists: !record.Entrance.IsZero() && c.scenes.Exists(ctx, record.Entrance),
		Snapshot:       make([]SnapshotEntryStatus, 0, len(record.Snapshot)),
		RunID:          record.RunID,
		CapturedAt:     record.CapturedAt,
	}
	if c.lock != nil {
		owner, held, err := c.lock.Owner(ctx)
		if err != nil {
			return SessionStatus{}, err
		}
		if held {
			status.OwnerPID = owner.PID
		}
	}

	for _, id := range record.Snapshot {
		status.Snapshot = append(status.Snapshot, SnapshotEntryStatus{
			ID:     id,
			Exists: !id.IsZero() && c.scenes.Exists(ctx, id),
		})
	}

	return status, nil
}
