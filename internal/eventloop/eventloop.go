// Package eventloop runs callbacks one at a time on a single goroutine.
//
// Headless hosts use a Loop as the single event queue that owns a slideshow:
// timer expiries, media events and user commands are all posted to it, so the
// slideshow never needs locking.
package eventloop

import (
	"context"
	"errors"
	"sync"
)

// DefaultQueueSize is used when New is given a non-positive size.
const DefaultQueueSize = 64

// ErrStopped is returned by Do once the loop has stopped.
var ErrStopped = errors.New("event loop stopped")

// Loop is a FIFO queue of callbacks drained by Run.
type Loop struct {
	queue chan func()

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
}

// New creates a loop with the given queue capacity.
func New(size int) *Loop {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Loop{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// Post enqueues fn. It reports false if the loop has stopped. Post blocks
// while the queue is full.
func (l *Loop) Post(fn func()) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.stopped {
		return false
	}
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Dispatch is Post without the result, suitable for clock.NewSystem.
func (l *Loop) Dispatch(fn func()) {
	l.Post(fn)
}

// Do runs fn on the loop and waits for it to finish. It must not be called
// from a callback already running on the loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until ctx is cancelled. Callbacks still queued when
// ctx ends are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) stop() {
	close(l.done)
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
}
