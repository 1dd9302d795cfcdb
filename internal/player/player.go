// Package player provides the slideshow items the stories hosts display:
// still images and clips whose playback runs on the slideshow clock.
package player

import (
	"errors"
	"time"

	"stories/internal/clock"
	"stories/internal/safetimer"
	"stories/internal/slideshow"
)

// ErrUnplayable is reported by Play for a clip that cannot be decoded.
var ErrUnplayable = errors.New("clip is not playable")

// ChangeFunc is told when an item becomes active or inactive.
type ChangeFunc func(path string, active bool)

var (
	_ slideshow.Item  = (*Still)(nil)
	_ slideshow.Media = (*Clip)(nil)
)

// Still is an image shown for the slideshow's fixed duration.
type Still struct {
	path     string
	onChange ChangeFunc
	active   bool
}

// NewStill returns a still image item.
func NewStill(path string, onChange ChangeFunc) *Still {
	return &Still{path: path, onChange: onChange}
}

func (s *Still) Activate()            { s.set(true) }
func (s *Still) Deactivate()          { s.set(false) }
func (s *Still) Kind() slideshow.Kind { return slideshow.KindTimed }

// Path returns the image file path.
func (s *Still) Path() string { return s.path }

// Active reports whether the still is on screen.
func (s *Still) Active() bool { return s.active }

func (s *Still) set(active bool) {
	s.active = active
	if s.onChange != nil {
		s.onChange(s.path, active)
	}
}

// ClipOptions tune a Clip.
type ClipOptions struct {
	// Broken marks a clip whose Play always fails with ErrUnplayable.
	Broken bool

	// LoadDelay is how long metadata takes to load after the first Play.
	LoadDelay time.Duration

	OnChange ChangeFunc
}

// Clip is a media item whose playhead is driven by the clock. A zero
// duration describes a stream of unknown length that never ends.
type Clip struct {
	path     string
	duration time.Duration
	loaded   bool
	loading  bool
	opts     ClipOptions

	clock    clock.Clock
	playhead *safetimer.Timer
	position time.Duration

	active  bool
	playing bool
	muted   bool

	onReady func()
	onEnded func()
}

// NewClip returns a clip of the given duration. When known is false the
// duration is only reported once the metadata has loaded, which starts on
// the first Play.
func NewClip(path string, duration time.Duration, known bool, c clock.Clock, opts ClipOptions) *Clip {
	if c == nil {
		c = clock.NewSystem(nil)
	}
	return &Clip{
		path:     path,
		duration: duration,
		loaded:   known,
		opts:     opts,
		clock:    c,
		playhead: safetimer.New(c),
	}
}

func (c *Clip) Kind() slideshow.Kind { return slideshow.KindMedia }

func (c *Clip) Activate() {
	c.active = true
	if c.opts.OnChange != nil {
		c.opts.OnChange(c.path, true)
	}
}

func (c *Clip) Deactivate() {
	c.active = false
	if c.opts.OnChange != nil {
		c.opts.OnChange(c.path, false)
	}
}

// Duration reports the intrinsic duration once the metadata is loaded.
func (c *Clip) Duration() (time.Duration, bool) {
	if !c.loaded || c.duration <= 0 {
		return 0, false
	}
	return c.duration, true
}

// Play starts playback from the current position, rewinding a clip that
// has ended. The outcome is delivered to done on a later clock turn.
func (c *Clip) Play(done func(error)) {
	if c.opts.Broken {
		c.post(func() { done(ErrUnplayable) })
		return
	}

	c.playing = true
	if !c.loaded {
		c.load()
	} else {
		c.advance()
	}
	c.post(func() { done(nil) })
}

func (c *Clip) load() {
	if c.loading {
		return
	}
	c.loading = true
	c.clock.AfterFunc(c.opts.LoadDelay, func() {
		c.loading = false
		c.loaded = true
		if c.onReady != nil {
			c.onReady()
		}
		if c.playing {
			c.advance()
		}
	})
}

func (c *Clip) advance() {
	if c.playhead.Resume() || c.playhead.Running() {
		return
	}
	if c.duration <= 0 {
		return
	}
	if c.position >= c.duration {
		c.position = 0
	}
	c.playhead.Run(c.end, c.duration-c.position)
}

func (c *Clip) end() {
	c.playing = false
	c.position = c.duration
	if c.onEnded != nil {
		c.onEnded()
	}
}

// Pause freezes the playhead.
func (c *Clip) Pause() {
	c.playing = false
	c.playhead.Pause()
	if c.playhead.Pending() {
		c.position = c.duration - c.playhead.Remaining()
	}
}

// ResetPosition rewinds to the start, continuing playback if it was running.
func (c *Clip) ResetPosition() {
	c.playhead.Cancel()
	c.position = 0
	if c.playing && c.loaded {
		c.advance()
	}
}

func (c *Clip) SetMuted(muted bool) { c.muted = muted }

// OnReady replaces the metadata-loaded handler. nil clears it.
func (c *Clip) OnReady(fn func()) { c.onReady = fn }

// OnEnded replaces the playback-ended handler. nil clears it.
func (c *Clip) OnEnded(fn func()) { c.onEnded = fn }

// Path returns the clip's file path.
func (c *Clip) Path() string { return c.path }

// Position returns the playhead position.
func (c *Clip) Position() time.Duration {
	if c.playhead.Pending() {
		return c.duration - c.playhead.Remaining()
	}
	return c.position
}

func (c *Clip) Playing() bool { return c.playing }
func (c *Clip) Muted() bool   { return c.muted }
func (c *Clip) Active() bool  { return c.active }

func (c *Clip) post(fn func()) {
	c.clock.AfterFunc(0, fn)
}
