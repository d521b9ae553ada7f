package application

import (
	"context"
	"sync"
)

// Dispatcher runs work on the single logical thread that owns the session.
type Dispatcher interface {
	Post(fn func())
}

// Inline runs posted work immediately on the caller's goroutine.
type Inline struct{}

func (Inline) Post(fn func()) {
	fn()
}

// Loop queues posted work until RunUntil executes it, in posting order.
// The queue is unbounded; work posted after RunUntil returns waits for the
// next call.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post never blocks.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// RunUntil executes posted work until done is closed or ctx is done. Work
// already queued when done closes is drained first. A nil done runs until
// ctx is done.
func (l *Loop) RunUntil(ctx context.Context, done <-chan struct{}) error {
	for {
		l.drain()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			l.drain()
			return nil
		case <-l.wake:
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}
