// Package pidfile holds the session for one live run through a lock file
// naming the owning process.
package pidfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	lockFileMode = 0o600
	lockDirMode  = 0o700
	// A stale lock is taken over at most this many times per Acquire.
	maxTakeovers = 2
)

type lockSchema struct {
	PID        int    `toml:"pid"`
	AcquiredAt string `toml:"acquired_at,omitempty"`
}

type Lock struct {
	fs     afero.Fs
	path   string
	pid    int
	alive  func(pid int) bool
	logger *zap.Logger
}

var _ ports.SessionLock = (*Lock)(nil)

// New returns a lock at path owned by pid. alive reports whether a recorded
// owner is still running; nil uses the operating system.
func New(fs afero.Fs, path string, pid int, alive func(pid int) bool, logger *zap.Logger) *Lock {
	if alive == nil {
		alive = processAlive
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lock{fs: fs, path: filepath.Clean(path), pid: pid, alive: alive, logger: logger}
}

func (l *Lock) Acquire(ctx context.Context) (func() error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := l.fs.MkdirAll(filepath.Dir(l.path), lockDirMode); err != nil {
		return nil, fmt.Errorf("%w: create lock directory: %w", domain.ErrStorageUnavailable, err)
	}

	for attempt := 0; attempt <= maxTakeovers; attempt++ {
		created, err := l.tryCreate()
		if err != nil {
			return nil, err
		}
		if created {
			return l.release, nil
		}

		owner, found, err := l.read()
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		if owner.PID > 0 && l.alive(owner.PID) {
			return nil, busy(owner.PID)
		}

		l.logger.Warn("taking over session lock from a dead run", zap.Int("pid", owner.PID))
		if err := l.fs.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: remove stale lock: %w", domain.ErrStorageUnavailable, err)
		}
	}

	return nil, fmt.Errorf("%w: %w: lock keeps changing hands", domain.ErrInvalidState, domain.ErrSessionBusy)
}

func (l *Lock) Owner(ctx context.Context) (ports.LockOwner, bool, error) {
	if err := ctx.Err(); err != nil {
		return ports.LockOwner{}, false, err
	}

	owner, found, err := l.read()
	if err != nil || !found {
		return ports.LockOwner{}, false, err
	}
	if owner.PID <= 0 || !l.alive(owner.PID) {
		return ports.LockOwner{}, false, nil
	}
	return ports.LockOwner{PID: owner.PID}, true, nil
}

func (l *Lock) tryCreate() (bool, error) {
	file, err := l.fs.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, lockFileMode)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: create lock file: %w", domain.ErrStorageUnavailable, err)
	}

	data, err := toml.Marshal(lockSchema{PID: l.pid, AcquiredAt: time.Now().UTC().Format(time.RFC3339Nano)})
	if err == nil {
		_, err = file.Write(data)
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = l.fs.Remove(l.path)
		return false, fmt.Errorf("%w: write lock file: %w", domain.ErrStorageUnavailable, err)
	}

	return true, nil
}

// read returns the recorded owner. An unreadable lock counts as ownerless.
func (l *Lock) read() (lockSchema, bool, error) {
	data, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lockSchema{}, false, nil
		}
		return lockSchema{}, false, fmt.Errorf("%w: read lock file: %w", domain.ErrStorageUnavailable, err)
	}

	var owner lockSchema
	if err := toml.Unmarshal(data, &owner); err != nil {
		return lockSchema{}, true, nil
	}
	return owner, true, nil
}

// release removes the lock only while it still names this process.
func (l *Lock) release() error {
	owner, found, err := l.read()
	if err != nil {
		return err
	}
	if !found || owner.PID != l.pid {
		return nil
	}
	if err := l.fs.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: remove lock file: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func busy(pid int) error {
	return fmt.Errorf("%w: %w: pid %d", domain.ErrInvalidState, domain.ErrSessionBusy, pid)
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// FindProcess only succeeds for live processes on windows.
	if runtime.GOOS == "windows" {
		return true
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
