// Package clock abstracts the time source and delayed callbacks so that timers
// can be driven by a real scheduler or advanced manually in tests.
package clock

import "time"

// Timer represents a scheduled callback that can be stopped.
// Stop is best effort: a callback that is already queued may still run.
type Timer interface {
	Stop() bool
}

// Clock provides time-related operations.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// DispatchFunc hands a callback to the goroutine that owns the caller's state,
// for example fyne.Do or an event loop's Post.
type DispatchFunc func(func())

// System is a Clock backed by time.AfterFunc. Expired callbacks are passed to
// the dispatcher instead of running on the timer goroutine.
type System struct {
	dispatch DispatchFunc
}

// NewSystem returns a system clock. A nil dispatch runs callbacks directly on
// the runtime's timer goroutine.
func NewSystem(dispatch DispatchFunc) System {
	return System{dispatch: dispatch}
}

// AfterFunc schedules f after d.
func (s System) AfterFunc(d time.Duration, f func()) Timer {
	if s.dispatch == nil {
		return time.AfterFunc(d, f)
	}
	dispatch := s.dispatch
	return time.AfterFunc(d, func() { dispatch(f) })
}

// Now returns the current wall clock time.
func (System) Now() time.Time {
	return time.Now()
}
