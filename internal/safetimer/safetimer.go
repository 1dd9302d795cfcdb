// Package safetimer provides a single-shot delayed callback that can be
// paused, resumed and cancelled, and that ignores stale firings.
//
// Every arm of the underlying timer is stamped with a generation number.
// Pause, Cancel and Run bump the generation, so a firing that was already
// queued when its timer was superseded sees a mismatched generation and does
// nothing. Stopping the underlying timer is best effort; the generation check
// is what guarantees at most one callback per Run.
//
// A Timer is not safe for concurrent use. All methods and all clock callbacks
// must run on the same goroutine (see clock.NewSystem).
package safetimer

import (
	"time"

	"stories/internal/clock"
)

// State is the lifecycle state of a Timer.
type State uint8

const (
	// StateIdle means no callback is stored.
	StateIdle State = iota

	// StateArmed means the callback is scheduled.
	StateArmed

	// StatePaused means the callback is stored but not scheduled.
	StatePaused
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateArmed:
		return "ARMED"
	case StatePaused:
		return "PAUSED"
	default:
		return "UNKNOWN"
	}
}

// Timer is a pausable single-shot timer.
type Timer struct {
	clock clock.Clock

	handle     clock.Timer
	generation uint64
	running    bool

	remaining time.Duration
	startedAt time.Time
	callback  func()
}

// New creates an idle timer on the given clock.
func New(c clock.Clock) *Timer {
	if c == nil {
		c = clock.NewSystem(nil)
	}
	return &Timer{clock: c}
}

// Run cancels any in-flight callback and schedules fn after delay.
func (t *Timer) Run(fn func(), delay time.Duration) {
	t.Cancel()
	if delay < 0 {
		delay = 0
	}
	t.callback = fn
	t.remaining = delay
	t.start()
}

func (t *Timer) start() {
	t.generation++
	current := t.generation
	t.startedAt = t.clock.Now()
	t.running = true

	t.handle = t.clock.AfterFunc(t.remaining, func() {
		if current != t.generation || t.callback == nil {
			return
		}
		cb := t.callback

		// Clear before invoking so cb may call Run again.
		t.handle = nil
		t.callback = nil
		t.remaining = 0
		t.running = false

		cb()
	})
}

// Pause freezes the timer and records the remaining time. The callback is
// kept for Resume. Pause is a no-op unless the timer is armed.
func (t *Timer) Pause() {
	if !t.running {
		return
	}
	t.generation++
	t.stopHandle()
	t.running = false

	elapsed := t.clock.Now().Sub(t.startedAt)
	t.remaining -= elapsed
	if t.remaining < 0 {
		t.remaining = 0
	}
}

// Resume re-arms a paused timer with its frozen remaining time. It reports
// whether the timer was re-armed; it does nothing if the timer is already
// running, has no remaining time or holds no callback.
func (t *Timer) Resume() bool {
	if t.running || t.remaining <= 0 || t.callback == nil {
		return false
	}
	t.start()
	return true
}

// Cancel disarms the timer and drops the stored callback.
func (t *Timer) Cancel() {
	t.generation++
	t.stopHandle()
	t.running = false
	t.remaining = 0
	t.callback = nil
}

func (t *Timer) stopHandle() {
	if t.handle != nil {
		t.handle.Stop()
		t.handle = nil
	}
}

// State returns the current lifecycle state.
func (t *Timer) State() State {
	switch {
	case t.running:
		return StateArmed
	case t.callback != nil:
		return StatePaused
	default:
		return StateIdle
	}
}

// Running reports whether a callback is scheduled.
func (t *Timer) Running() bool {
	return t.running
}

// Pending reports whether a callback is stored, armed or paused.
func (t *Timer) Pending() bool {
	return t.callback != nil
}

// Remaining returns the time left before the callback fires. While armed it
// is computed from the clock; while paused it is the frozen value.
func (t *Timer) Remaining() time.Duration {
	if !t.running {
		return t.remaining
	}
	left := t.remaining - t.clock.Now().Sub(t.startedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Generation returns the current generation stamp.
func (t *Timer) Generation() uint64 {
	return t.generation
}
