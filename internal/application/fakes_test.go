package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hangekinobaka/sleepy-scene-tool/internal/domain"
	"github.com/hangekinobaka/sleepy-scene-tool/internal/ports"
)

type inMemoryStore struct {
	record   domain.SessionRecord
	found    bool
	reads    int
	writes   int
	readErr  error
	writeErr error
}

func (s *inMemoryStore) ReadRecord(_ context.Context) (domain.SessionRecord, bool, error) {
	s.reads++
	if s.readErr != nil {
		return domain.SessionRecord{}, false, s.readErr
	}
	return s.record.Clone(), s.found, nil
}

func (s *inMemoryStore) WriteRecord(_ context.Context, record domain.SessionRecord) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes++
	s.record = record.Clone()
	s.found = true
	return nil
}

type openCall struct {
	ID   domain.SceneID
	Mode domain.OpenMode
}

type fakeSceneHost struct {
	existing map[domain.SceneID]bool
	open     []domain.SceneID
	openErr  map[domain.SceneID]error
	listErr  error
	calls    []openCall
}

func newFakeSceneHost(existing ...domain.SceneID) *fakeSceneHost {
	host := &fakeSceneHost{existing: map[domain.SceneID]bool{}, openErr: map[domain.SceneID]error{}}
	for _, id := range existing {
		host.existing[id] = true
	}
	return host
}

func (h *fakeSceneHost) ListOpen(_ context.Context) ([]domain.SceneID, error) {
	if h.listErr != nil {
		return nil, h.listErr
	}
	return domain.CloneSceneIDs(h.open), nil
}

func (h *fakeSceneHost) Exists(_ context.Context, id domain.SceneID) bool {
	return h.existing[id]
}

func (h *fakeSceneHost) Open(_ context.Context, id domain.SceneID, mode domain.OpenMode) error {
	h.calls = append(h.calls, openCall{ID: id, Mode: mode})
	if err := h.openErr[id]; err != nil {
		return err
	}
	if !h.existing[id] {
		return fmt.Errorf("open %q: %w", id, domain.ErrSceneNotFound)
	}
	if mode == domain.OpenExclusive {
		h.open = []domain.SceneID{id}
		return nil
	}
	h.open = append(h.open, id)
	return nil
}

// fakeRunHost fires the exit callback only when the test calls exited.
type fakeRunHost struct {
	mu       sync.Mutex
	running  bool
	entered  []domain.SceneID
	exits    int
	enterErr error
	exitErr  error
	callback func()
	// exitFiresInline fires the callback from inside ExitRunning.
	exitFiresInline bool
}

func (h *fakeRunHost) EnterRunning(_ context.Context, entrance domain.SceneID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.enterErr != nil {
		return h.enterErr
	}
	h.running = true
	h.entered = append(h.entered, entrance)
	return nil
}

func (h *fakeRunHost) ExitRunning(_ context.Context) error {
	h.mu.Lock()
	if h.exitErr != nil {
		h.mu.Unlock()
		return h.exitErr
	}
	h.exits++
	inline := h.exitFiresInline
	h.mu.Unlock()

	if inline {
		h.exited()
	}
	return nil
}

func (h *fakeRunHost) OnRunningExited(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callback = fn
}

func (h *fakeRunHost) exited() {
	h.mu.Lock()
	h.running = false
	fn := h.callback
	h.callback = nil
	h.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// registered returns the registered callback without consuming it.
func (h *fakeRunHost) registered() func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.callback
}

type fakePrompter struct {
	proceed bool
	err     error
	calls   int
}

func (p *fakePrompter) SaveModifiedIfUserWants(_ context.Context) (bool, error) {
	p.calls++
	return p.proceed, p.err
}

// fakeSessionLock stands in for another process when busyPID is set.
type fakeSessionLock struct {
	mu       sync.Mutex
	held     bool
	busyPID  int
	acquires int
	releases int
}

func (l *fakeSessionLock) Acquire(_ context.Context) (func() error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busyPID != 0 {
		return nil, fmt.Errorf("%w: %w: pid %d", domain.ErrInvalidState, domain.ErrSessionBusy, l.busyPID)
	}
	if l.held {
		return nil, fmt.Errorf("%w: %w: held", domain.ErrInvalidState, domain.ErrSessionBusy)
	}
	l.held = true
	l.acquires++
	return func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held = false
		l.releases++
		return nil
	}, nil
}

func (l *fakeSessionLock) Owner(_ context.Context) (ports.LockOwner, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.busyPID != 0:
		return ports.LockOwner{PID: l.busyPID}, true, nil
	case l.held:
		return ports.LockOwner{PID: 1}, true, nil
	default:
		return ports.LockOwner{}, false, nil
	}
}

func (l *fakeSessionLock) isHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

var errBoom = errors.New("boom")
