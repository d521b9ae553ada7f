package domain

import (
	"errors"
	"fmt"
)

var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidEntrance    = errors.New("invalid entrance scene")
	ErrOpenFailed         = errors.New("open scene failed")
	ErrStaleSnapshotEntry = errors.New("stale snapshot entry")
	ErrInvalidState       = errors.New("invalid run state")
	ErrStartCancelled     = errors.New("start cancelled by user")
	ErrSceneNotFound      = errors.New("scene not found")
	ErrInvalidSceneID     = errors.New("invalid scene id")
	ErrUnsupportedSchema  = errors.New("unsupported schema version")
	ErrSessionBusy        = errors.New("session owned by another live run")
)

// SnapshotEntryError reports a single snapshot entry skipped during restoration.
type SnapshotEntryError struct {
	Index int
	ID    SceneID
	Err   error
}

func (e *SnapshotEntryError) Error() string {
	return fmt.Sprintf("snapshot entry %d (%q): %v", e.Index, e.ID, e.Err)
}

func (e *SnapshotEntryError) Unwrap() error {
	return e.Err
}
