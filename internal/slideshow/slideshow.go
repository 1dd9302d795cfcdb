// Package slideshow drives a stories-style slideshow: timed autoplay,
// press-and-hold pause, manual navigation and media-synchronised timing.
//
// A Slideshow is not safe for concurrent use. Construct it with a clock whose
// callbacks are dispatched to the goroutine that also delivers gestures and
// media events.
package slideshow

import (
	"errors"
	"fmt"
	"log"
	"time"

	"stories/internal/clock"
	"stories/internal/safetimer"
)

const (
	// DefaultDuration is how long a timed item stays on screen.
	DefaultDuration = 5 * time.Second

	// DefaultHoldDelay is how long a press must last to count as a hold.
	DefaultHoldDelay = 300 * time.Millisecond

	// MediaMargin is added to a media item's intrinsic duration so that its
	// ended event normally wins over the timer.
	MediaMargin = 500 * time.Millisecond
)

// Construction errors.
var (
	ErrNoItems         = errors.New("items not found")
	ErrEmptyItems      = errors.New("item list is empty")
	ErrNoContainer     = errors.New("container not found")
	ErrNoControls      = errors.New("controls not found")
	ErrNoUsableItems   = errors.New("no usable items")
	ErrMediaCapability = errors.New("media item does not implement playback")
)

// LoggerFunc defines a function signature for logging messages.
type LoggerFunc func(message string)

// Hooks are notifications emitted to the host. Any of them may be nil.
type Hooks struct {
	OnActivate            func(index int, item Item)
	OnAutoplayDurationSet func(index int, d time.Duration)
	OnPause               func()
	OnResume              func()
}

// Then returns hooks that call h first and next second.
func (h Hooks) Then(next Hooks) Hooks {
	return Hooks{
		OnActivate: func(index int, item Item) {
			if h.OnActivate != nil {
				h.OnActivate(index, item)
			}
			if next.OnActivate != nil {
				next.OnActivate(index, item)
			}
		},
		OnAutoplayDurationSet: func(index int, d time.Duration) {
			if h.OnAutoplayDurationSet != nil {
				h.OnAutoplayDurationSet(index, d)
			}
			if next.OnAutoplayDurationSet != nil {
				next.OnAutoplayDurationSet(index, d)
			}
		},
		OnPause:  chain(h.OnPause, next.OnPause),
		OnResume: chain(h.OnResume, next.OnResume),
	}
}

func chain(a, b func()) func() {
	return func() {
		if a != nil {
			a()
		}
		if b != nil {
			b()
		}
	}
}

// Config holds everything New needs.
type Config struct {
	Items     []Item
	Container Container
	Controls  Controls

	Duration  time.Duration
	HoldDelay time.Duration

	Clock  clock.Clock
	Hooks  Hooks
	Logger LoggerFunc
}

// Slideshow is the autoplay state machine. Obtain one with New.
type Slideshow struct {
	items []Item
	media []Media // media[i] is nil for timed items

	index int
	shown bool

	duration  time.Duration
	holdDelay time.Duration

	paused     bool
	holding    bool
	holdPaused bool // the current pause was started by the hold

	autoplay  *safetimer.Timer
	holdTimer *safetimer.Timer

	// showToken changes on every Show so that media callbacks registered
	// for an earlier activation can recognise themselves as stale.
	showToken     uint64
	timingStarted bool

	hooks  Hooks
	logger LoggerFunc
}

// New validates cfg, binds the gesture surfaces and shows the first item.
func New(cfg Config) (*Slideshow, error) {
	if cfg.Items == nil {
		return nil, ErrNoItems
	}
	if len(cfg.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if cfg.Container == nil {
		return nil, ErrNoContainer
	}
	if cfg.Controls == nil {
		return nil, ErrNoControls
	}

	s := &Slideshow{
		duration:  cfg.Duration,
		holdDelay: cfg.HoldDelay,
		hooks:     cfg.Hooks,
		logger:    cfg.Logger,
	}
	if s.duration <= 0 {
		s.duration = DefaultDuration
	}
	if s.holdDelay <= 0 {
		s.holdDelay = DefaultHoldDelay
	}

	for i, item := range cfg.Items {
		if item == nil {
			s.logf("skipping nil item at position %d", i)
			continue
		}
		var m Media
		if item.Kind() == KindMedia {
			var ok bool
			if m, ok = item.(Media); !ok {
				return nil, fmt.Errorf("item %d: %w", i, ErrMediaCapability)
			}
		}
		s.items = append(s.items, item)
		s.media = append(s.media, m)
	}
	if len(s.items) == 0 {
		return nil, ErrNoUsableItems
	}

	c := cfg.Clock
	if c == nil {
		c = clock.NewSystem(nil)
	}
	s.autoplay = safetimer.New(c)
	s.holdTimer = safetimer.New(c)

	cfg.Container.BindHold(s)
	cfg.Controls.BindNavigation(s)

	s.Show(0)
	return s, nil
}

// Normalize wraps k into [0, n) using floor modulo. n must be positive.
func Normalize(k, n int) int {
	return ((k % n) + n) % n
}

// Show activates the item at index, wrapping out-of-range values, and starts
// its autoplay timing unless the slideshow is paused.
func (s *Slideshow) Show(index int) {
	index = Normalize(index, len(s.items))

	s.autoplay.Cancel()
	if s.shown {
		s.deactivate(s.index)
	}

	s.index = index
	s.shown = true
	s.showToken++
	s.timingStarted = false

	s.items[index].Activate()
	if s.hooks.OnActivate != nil {
		s.hooks.OnActivate(index, s.items[index])
	}

	if !s.paused {
		s.startTiming()
	}
}

// Next moves to the following item. It is inert while paused, unless the
// pause comes from a hold.
func (s *Slideshow) Next() {
	if s.paused && !s.holding {
		return
	}
	s.step(1)
}

// Prev moves to the preceding item, under the same rule as Next.
func (s *Slideshow) Prev() {
	if s.paused && !s.holding {
		return
	}
	s.step(-1)
}

func (s *Slideshow) step(delta int) {
	s.autoplay.Cancel()
	s.Show(s.index + delta)
}

// TogglePlayPause pauses or resumes autoplay on explicit user request. It is
// ignored during a hold.
func (s *Slideshow) TogglePlayPause() {
	if s.holding {
		return
	}
	if s.paused {
		s.resume()
		return
	}
	s.pause()
}

// Stop cancels all pending timers and pauses active media. The slideshow
// stays paused afterwards; resuming restarts the timing of the active item.
func (s *Slideshow) Stop() {
	s.holdTimer.Cancel()
	s.holding = false
	s.holdPaused = false
	s.pause()
	s.autoplay.Cancel()
	s.timingStarted = false
}

// Index returns the active position.
func (s *Slideshow) Index() int { return s.index }

// Len returns the number of items.
func (s *Slideshow) Len() int { return len(s.items) }

// Item returns the item at a wrapped position.
func (s *Slideshow) Item(i int) Item { return s.items[Normalize(i, len(s.items))] }

// Paused reports whether autoplay is paused.
func (s *Slideshow) Paused() bool { return s.paused }

// Holding reports whether a hold gesture is in effect.
func (s *Slideshow) Holding() bool { return s.holding }

// Remaining returns the time left on the autoplay timer.
func (s *Slideshow) Remaining() time.Duration { return s.autoplay.Remaining() }

func (s *Slideshow) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger(fmt.Sprintf(format, args...))
		return
	}
	log.Printf(format, args...)
}
