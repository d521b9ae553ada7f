package ports

import "context"

// LockOwner identifies the process holding the session.
type LockOwner struct {
	PID int
}

// SessionLock makes a live run visible to every process sharing the
// persisted session.
type SessionLock interface {
	// Acquire fails with domain.ErrSessionBusy while a live owner holds the
	// session. A lock left by a dead owner is taken over.
	Acquire(ctx context.Context) (release func() error, err error)
	// Owner reports the live holder, if any.
	Owner(ctx context.Context) (LockOwner, bool, error)
}
