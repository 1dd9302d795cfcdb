package slideshow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stories/internal/clock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeItem struct {
	name          string
	kind          Kind
	active        bool
	activations   int
	deactivations int
}

func (f *fakeItem) Activate()   { f.active = true; f.activations++ }
func (f *fakeItem) Deactivate() { f.active = false; f.deactivations++ }
func (f *fakeItem) Kind() Kind  { return f.kind }

type fakeMedia struct {
	fakeItem

	duration time.Duration
	known    bool

	playErr  error
	deferred bool // hold Play completions until completePlay
	pending  []func(error)

	playing bool
	muted   bool
	plays   int
	resets  int

	ready func()
	ended func()
}

func newMedia(name string) *fakeMedia {
	return &fakeMedia{fakeItem: fakeItem{name: name, kind: KindMedia}}
}

func (m *fakeMedia) Duration() (time.Duration, bool) { return m.duration, m.known }
func (m *fakeMedia) Play(done func(error)) {
	m.plays++
	if m.deferred {
		m.pending = append(m.pending, done)
		return
	}
	m.playing = m.playErr == nil
	done(m.playErr)
}
func (m *fakeMedia) Pause()              { m.playing = false }
func (m *fakeMedia) ResetPosition()      { m.resets++ }
func (m *fakeMedia) SetMuted(muted bool) { m.muted = muted }
func (m *fakeMedia) OnReady(fn func())   { m.ready = fn }
func (m *fakeMedia) OnEnded(fn func())   { m.ended = fn }

func (m *fakeMedia) completePlay(err error) {
	for _, done := range m.pending {
		m.playing = err == nil
		done(err)
	}
	m.pending = nil
}

func (m *fakeMedia) fireReady() {
	if m.ready != nil {
		m.ready()
	}
}

type fakeSurface struct{ hold HoldHandler }

func (f *fakeSurface) BindHold(h HoldHandler) { f.hold = h }

type fakeControls struct{ nav Navigator }

func (f *fakeControls) BindNavigation(n Navigator) { f.nav = n }

type recorder struct {
	activated []int
	durations []time.Duration
	pauses    int
	resumes   int
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnActivate:            func(i int, _ Item) { r.activated = append(r.activated, i) },
		OnAutoplayDurationSet: func(_ int, d time.Duration) { r.durations = append(r.durations, d) },
		OnPause:               func() { r.pauses++ },
		OnResume:              func() { r.resumes++ },
	}
}

type harness struct {
	show     *Slideshow
	clock    *clock.Fake
	rec      *recorder
	surface  *fakeSurface
	controls *fakeControls
	logs     []string
}

func newHarness(t *testing.T, items []Item, d time.Duration) *harness {
	t.Helper()
	h := &harness{
		clock:    clock.NewFake(epoch),
		rec:      &recorder{},
		surface:  &fakeSurface{},
		controls: &fakeControls{},
	}
	s, err := New(Config{
		Items:     items,
		Container: h.surface,
		Controls:  h.controls,
		Duration:  d,
		Clock:     h.clock,
		Hooks:     h.rec.hooks(),
		Logger:    func(msg string) { h.logs = append(h.logs, msg) },
	})
	require.NoError(t, err)
	h.show = s
	return h
}

func timedItems(n int) ([]Item, []*fakeItem) {
	items := make([]Item, n)
	fakes := make([]*fakeItem, n)
	for i := range items {
		fakes[i] = &fakeItem{kind: KindTimed}
		items[i] = fakes[i]
	}
	return items, fakes
}

func TestNormalize(t *testing.T) {
	for n := 1; n <= 7; n++ {
		for k := -25; k <= 25; k++ {
			got := Normalize(k, n)
			assert.GreaterOrEqual(t, got, 0, "Normalize(%d, %d)", k, n)
			assert.Less(t, got, n, "Normalize(%d, %d)", k, n)
			assert.Equal(t, got, Normalize(k+n, n), "Normalize(%d, %d) periodicity", k, n)
		}
	}
	assert.Equal(t, 2, Normalize(-1, 3))
	assert.Equal(t, 0, Normalize(3, 3))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "timed", KindTimed.String())
	assert.Equal(t, "media", KindMedia.String())
	assert.Equal(t, "unknown", Kind(9).String())
}

func TestNewValidation(t *testing.T) {
	one, _ := timedItems(1)
	surface := &fakeSurface{}
	controls := &fakeControls{}
	silent := func(string) {}

	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"nil items", Config{Container: surface, Controls: controls}, ErrNoItems},
		{"empty items", Config{Items: []Item{}, Container: surface, Controls: controls}, ErrEmptyItems},
		{"no container", Config{Items: one, Controls: controls}, ErrNoContainer},
		{"no controls", Config{Items: one, Container: surface}, ErrNoControls},
		{"only nil items", Config{Items: []Item{nil, nil}, Container: surface, Controls: controls, Logger: silent}, ErrNoUsableItems},
		{"media without capability", Config{Items: []Item{&fakeItem{kind: KindMedia}}, Container: surface, Controls: controls}, ErrMediaCapability},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg)
			assert.Nil(t, s)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
			assert.NotEmpty(t, err.Error())
		})
	}
}

func TestNewShowsFirstItemAndBinds(t *testing.T) {
	items, fakes := timedItems(3)
	h := newHarness(t, items, time.Second)

	assert.Equal(t, 0, h.show.Index())
	assert.Equal(t, 3, h.show.Len())
	assert.True(t, fakes[0].active)
	assert.False(t, fakes[1].active)
	assert.Same(t, h.show, h.surface.hold)
	assert.Same(t, h.show, h.controls.nav)
	assert.Equal(t, []int{0}, h.rec.activated)
	assert.Equal(t, []time.Duration{time.Second}, h.rec.durations)
}

func TestNewSkipsNilItems(t *testing.T) {
	a := &fakeItem{kind: KindTimed}
	h := newHarness(t, []Item{nil, a}, time.Second)
	assert.Equal(t, 1, h.show.Len())
	assert.Same(t, Item(a), h.show.Item(0))
	assert.Len(t, h.logs, 1)
}

func TestDefaults(t *testing.T) {
	items, _ := timedItems(2)
	h := newHarness(t, items, 0)
	assert.Equal(t, []time.Duration{DefaultDuration}, h.rec.durations)
	assert.Equal(t, DefaultHoldDelay, h.show.holdDelay)
}

func TestAutoplayAdvancesAndPrevResets(t *testing.T) {
	items, fakes := timedItems(3)
	h := newHarness(t, items, time.Second)

	h.clock.Advance(time.Second)
	assert.Equal(t, 1, h.show.Index())
	assert.True(t, fakes[1].active)
	assert.False(t, fakes[0].active)

	h.show.Prev()
	assert.Equal(t, 0, h.show.Index())
	assert.Equal(t, time.Second, h.show.Remaining())

	h.clock.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, h.show.Index())
	h.clock.Advance(time.Millisecond)
	assert.Equal(t, 1, h.show.Index())
}

func TestAutoplayWrapsAround(t *testing.T) {
	items, _ := timedItems(3)
	h := newHarness(t, items, time.Second)

	h.clock.Advance(3 * time.Second)
	assert.Equal(t, 0, h.show.Index())
	assert.Equal(t, []int{0, 1, 2, 0}, h.rec.activated)
}

func TestPrevFromFirstWraps(t *testing.T) {
	items, _ := timedItems(4)
	h := newHarness(t, items, time.Second)
	h.show.Prev()
	assert.Equal(t, 3, h.show.Index())
	h.show.Next()
	assert.Equal(t, 0, h.show.Index())
}

func TestSingleItemWrapsToItself(t *testing.T) {
	items, fakes := timedItems(1)
	h := newHarness(t, items, time.Second)

	h.show.Next()
	assert.Equal(t, 0, h.show.Index())
	h.show.Prev()
	assert.Equal(t, 0, h.show.Index())
	assert.True(t, fakes[0].active)

	h.clock.Advance(time.Second)
	assert.Equal(t, 0, h.show.Index())
	assert.Equal(t, 4, fakes[0].activations)
}

func TestShowNormalizesIndex(t *testing.T) {
	items, fakes := timedItems(3)
	h := newHarness(t, items, time.Second)
	h.show.Show(-4)
	assert.Equal(t, 2, h.show.Index())
	assert.True(t, fakes[2].active)
	assert.Equal(t, 1, h.clock.Pending(), "only one autoplay callback may be live")
}

func TestAtMostOneLiveAutoplay(t *testing.T) {
	items, _ := timedItems(3)
	h := newHarness(t, items, time.Second)
	for i := 0; i < 10; i++ {
		h.show.Next()
	}
	h.clock.Advance(time.Second)
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2, 0, 1, 2, 0, 1, 2}, h.rec.activated)
}

func TestTapNavigatesWithoutPausing(t *testing.T) {
	items, _ := timedItems(3)
	h := newHarness(t, items, time.Second)

	h.show.OnHoldStart()
	h.clock.Advance(200 * time.Millisecond)
	wasHold := h.show.OnHoldEnd(Forward)

	assert.False(t, wasHold)
	assert.Equal(t, 1, h.show.Index())
	assert.False(t, h.show.Paused())
	assert.Zero(t, h.rec.pauses)

	h.clock.Advance(time.Second)
	assert.Equal(t, 2, h.show.Index(), "hold timer must not fire after a tap")
	assert.Zero(t, h.rec.pauses)

	h.show.OnHoldStart()
	assert.False(t, h.show.OnHoldEnd(Backward))
	assert.Equal(t, 1, h.show.Index())

	h.show.OnHoldStart()
	assert.False(t, h.show.OnHoldEnd(None))
	assert.Equal(t, 1, h.show.Index())
}

func TestHoldPausesAndReleaseResumesWithFrozenRemaining(t *testing.T) {
	items, _ := timedItems(3)
	h := newHarness(t, items, time.Second)

	h.clock.Advance(200 * time.Millisecond)
	h.show.OnHoldStart()
	h.clock.Advance(DefaultHoldDelay)

	require.True(t, h.show.Paused())
	require.True(t, h.show.Holding())
	assert.Equal(t, 1, h.rec.pauses)
	assert.Equal(t, 500*time.Millisecond, h.show.Remaining())

	h.clock.Advance(10 * time.Second)
	assert.Equal(t, 0, h.show.Index())

	assert.True(t, h.show.OnHoldEnd(Forward))
	assert.Equal(t, 0, h.show.Index(), "releasing a hold never navigates")
	assert.False(t, h.show.Paused())
	assert.False(t, h.show.Holding())
	assert.Equal(t, 1, h.rec.resumes)

	h.clock.Advance(499 * time.Millisecond)
	assert.Equal(t, 0, h.show.Index())
	h.clock.Advance(time.Millisecond)
	assert.Equal(t, 1, h.show.Index())
}

func TestNavigationDuringHoldStartsTimingOnRelease(t *testing.T) {
	items, _ := timedItems(3)
	h := newHarness(t, items, time.Second)

	h.show.OnHoldStart()
	h.clock.Advance(DefaultHoldDelay)
	h.show.Next()
	assert.Equal(t, 1, h.show.Index())
	assert.Len(t, h.rec.durations, 1, "no timer while paused")

	h.clock.Advance(5 * time.Second)
	assert.Equal(t, 1, h.show.Index())

	h.show.OnHoldEnd(None)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, h.rec.durations)
	h.clock.Advance(time.Second)
	assert.Equal(t, 2, h.show.Index())
}

func TestTogglePauseMakesNavigationInert(t *testing.T) {
	items, _ := timedItems(3)
	h := newHarness(t, items, time.Second)

	h.clock.Advance(400 * time.Millisecond)
	h.show.TogglePlayPause()
	require.True(t, h.show.Paused())

	h.show.Next()
	h.show.Prev()
	h.controls.nav.OnNavigateNext()
	assert.Equal(t, 0, h.show.Index())

	h.clock.Advance(time.Minute)
	assert.Equal(t, 0, h.show.Index())

	h.show.TogglePlayPause()
	assert.False(t, h.show.Paused())
	h.clock.Advance(600 * time.Millisecond)
	assert.Equal(t, 1, h.show.Index())

	h.controls.nav.OnNavigatePrev()
	assert.Equal(t, 0, h.show.Index())
}

func TestHoldWhileUserPausedStaysPaused(t *testing.T) {
	items, _ := timedItems(2)
	h := newHarness(t, items, time.Second)

	h.show.TogglePlayPause()
	h.show.OnHoldStart()
	h.clock.Advance(DefaultHoldDelay)
	assert.True(t, h.show.Holding())

	h.show.TogglePlayPause()
	assert.True(t, h.show.Paused(), "toggle is ignored during a hold")

	assert.True(t, h.show.OnHoldEnd(None))
	assert.True(t, h.show.Paused())
	assert.Equal(t, 0, h.rec.resumes)
}

func TestResumeWhenAlreadyDueAdvances(t *testing.T) {
	items, _ := timedItems(3)
	var s *Slideshow
	c := clock.NewFake(epoch)
	// Scheduled before the autoplay timer, so it runs first at the deadline.
	c.AfterFunc(time.Second, func() { s.TogglePlayPause() })

	s, err := New(Config{Items: items, Container: &fakeSurface{}, Controls: &fakeControls{}, Duration: time.Second, Clock: c})
	require.NoError(t, err)

	c.Advance(time.Second)
	require.True(t, s.Paused())
	assert.Equal(t, 0, s.Index())
	assert.Zero(t, s.Remaining())

	s.TogglePlayPause()
	assert.Equal(t, 1, s.Index(), "a timer frozen at zero advances on resume")
	assert.False(t, s.Paused())
}

func TestMediaWaitsForReady(t *testing.T) {
	m := newMedia("clip")
	after := &fakeItem{kind: KindTimed}
	h := newHarness(t, []Item{m, after}, time.Second)

	assert.Empty(t, h.rec.durations, "timer must not be armed before ready")
	assert.Equal(t, 0, h.clock.Pending())
	assert.Equal(t, 1, m.plays)
	assert.False(t, m.muted)

	h.clock.Advance(2 * time.Second)
	assert.Equal(t, 0, h.show.Index())

	m.duration, m.known = 4000*time.Millisecond, true
	m.fireReady()
	assert.Equal(t, []time.Duration{4500 * time.Millisecond}, h.rec.durations)

	m.fireReady()
	assert.Len(t, h.rec.durations, 1, "repeated ready events do not re-arm")

	h.clock.Advance(4499 * time.Millisecond)
	assert.Equal(t, 0, h.show.Index())
	h.clock.Advance(time.Millisecond)
	assert.Equal(t, 1, h.show.Index())
}

func TestMediaReadyWithUnknownDurationUsesDefault(t *testing.T) {
	m := newMedia("stream")
	h := newHarness(t, []Item{m, &fakeItem{}}, 3*time.Second)

	m.fireReady()
	assert.Equal(t, []time.Duration{3 * time.Second}, h.rec.durations)
}

func TestMediaKnownDurationArmsImmediately(t *testing.T) {
	m := newMedia("clip")
	m.duration, m.known = 2*time.Second, true
	h := newHarness(t, []Item{m, &fakeItem{}}, time.Second)

	assert.Equal(t, []time.Duration{2*time.Second + MediaMargin}, h.rec.durations)
	assert.Nil(t, m.ready)
}

func TestMediaEndedAdvances(t *testing.T) {
	m := newMedia("clip")
	m.duration, m.known = 2*time.Second, true
	h := newHarness(t, []Item{m, &fakeItem{}}, time.Second)

	h.clock.Advance(2 * time.Second)
	require.NotNil(t, m.ended)
	m.ended()
	assert.Equal(t, 1, h.show.Index())

	h.clock.Advance(MediaMargin)
	assert.Equal(t, 1, h.show.Index(), "the media timer was cancelled by the advance")
}

func TestStaleMediaCallbacksIgnored(t *testing.T) {
	m := newMedia("clip")
	h := newHarness(t, []Item{m, &fakeItem{}, &fakeItem{}}, time.Second)

	ended, ready := m.ended, m.ready
	h.show.Next()
	require.Equal(t, 1, h.show.Index())

	ended()
	ready()
	assert.Equal(t, 1, h.show.Index())
	assert.Equal(t, []time.Duration{time.Second}, h.rec.durations)
}

func TestMediaPlaybackFailureFallsBack(t *testing.T) {
	m := newMedia("clip")
	m.deferred = true
	h := newHarness(t, []Item{m, &fakeItem{}}, time.Second)

	m.completePlay(errors.New("autoplay blocked"))
	assert.Equal(t, []time.Duration{time.Second}, h.rec.durations)
	assert.Nil(t, m.ready)
	assert.Nil(t, m.ended)
	assert.Len(t, h.logs, 1)

	h.clock.Advance(time.Second)
	assert.Equal(t, 1, h.show.Index())
}

func TestMediaPlaybackFailureCancelsMediaTimer(t *testing.T) {
	m := newMedia("clip")
	m.duration, m.known = 10*time.Second, true
	m.playErr = errors.New("decode error")
	h := newHarness(t, []Item{m, &fakeItem{}}, time.Second)

	assert.Equal(t, []time.Duration{10*time.Second + MediaMargin, time.Second}, h.rec.durations)
	h.clock.Advance(time.Second)
	assert.Equal(t, 1, h.show.Index())
	assert.Equal(t, 1, h.clock.Pending())
}

func TestDeactivatedMediaIsResetAndMuted(t *testing.T) {
	m := newMedia("clip")
	m.duration, m.known = time.Second, true
	h := newHarness(t, []Item{m, &fakeItem{}}, time.Second)
	require.True(t, m.playing)

	h.show.Next()
	assert.False(t, m.playing)
	assert.True(t, m.muted)
	assert.Equal(t, 1, m.resets)
	assert.Nil(t, m.ready)
	assert.Nil(t, m.ended)
	assert.Equal(t, 1, m.deactivations)
}

func TestHoldPausesAndResumesMedia(t *testing.T) {
	m := newMedia("clip")
	m.duration, m.known = 2*time.Second, true
	h := newHarness(t, []Item{m, &fakeItem{}}, time.Second)

	h.show.OnHoldStart()
	h.clock.Advance(DefaultHoldDelay)
	assert.False(t, m.playing)

	h.show.OnHoldEnd(None)
	assert.True(t, m.playing)
	assert.Equal(t, 2, m.plays)
}

func TestResumePlaybackFailureKeepsTimer(t *testing.T) {
	m := newMedia("clip")
	m.duration, m.known = 2*time.Second, true
	h := newHarness(t, []Item{m, &fakeItem{}}, time.Second)

	h.show.TogglePlayPause()
	m.playErr = errors.New("device busy")
	h.show.TogglePlayPause()

	assert.Len(t, h.rec.durations, 1, "a running media timer is kept")
	assert.Len(t, h.logs, 1)
}

func TestMediaReadyWhilePausedFreezesTimer(t *testing.T) {
	m := newMedia("clip")
	h := newHarness(t, []Item{m, &fakeItem{}}, time.Second)

	h.show.TogglePlayPause()
	m.duration, m.known = time.Second, true
	m.fireReady()
	h.clock.Advance(time.Minute)
	assert.Equal(t, 0, h.show.Index())

	h.show.TogglePlayPause()
	h.clock.Advance(time.Second + MediaMargin)
	assert.Equal(t, 1, h.show.Index())
}

func TestStop(t *testing.T) {
	items, _ := timedItems(2)
	h := newHarness(t, items, time.Second)

	h.show.OnHoldStart()
	h.show.Stop()
	h.clock.Advance(time.Minute)

	assert.True(t, h.show.Paused())
	assert.False(t, h.show.Holding())
	assert.Equal(t, 0, h.show.Index())
	assert.Equal(t, 0, h.clock.Pending())
}

func TestResumeAfterStopRestartsTiming(t *testing.T) {
	items, _ := timedItems(2)
	h := newHarness(t, items, time.Second)

	h.clock.Advance(400 * time.Millisecond)
	h.show.Stop()
	h.show.TogglePlayPause()

	assert.False(t, h.show.Paused())
	assert.Equal(t, 1, h.clock.Pending())
	h.clock.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, h.show.Index())
	h.clock.Advance(time.Millisecond)
	assert.Equal(t, 1, h.show.Index())
}

func TestRepeatedHoldStartStillResumesOnRelease(t *testing.T) {
	items, _ := timedItems(3)
	h := newHarness(t, items, time.Second)

	h.show.OnHoldStart()
	h.clock.Advance(DefaultHoldDelay)
	require.True(t, h.show.Holding())
	h.show.OnHoldStart()
	h.clock.Advance(DefaultHoldDelay)
	require.True(t, h.show.Holding())

	assert.True(t, h.show.OnHoldEnd(None))
	assert.False(t, h.show.Paused())
	assert.False(t, h.show.Holding())
	assert.Equal(t, 1, h.rec.resumes)

	h.clock.Advance(time.Second)
	assert.Equal(t, 1, h.show.Index())
}

func TestRepeatedHoldStartKeepsUserPause(t *testing.T) {
	items, _ := timedItems(2)
	h := newHarness(t, items, time.Second)

	h.show.TogglePlayPause()
	h.show.OnHoldStart()
	h.clock.Advance(DefaultHoldDelay)
	h.show.OnHoldStart()
	h.clock.Advance(DefaultHoldDelay)

	assert.True(t, h.show.OnHoldEnd(None))
	assert.True(t, h.show.Paused())
	assert.Zero(t, h.rec.resumes)
}

func TestHooksThen(t *testing.T) {
	var calls []string
	first := Hooks{
		OnActivate: func(i int, _ Item) { calls = append(calls, "first-activate") },
		OnPause:    func() { calls = append(calls, "first-pause") },
	}
	second := Hooks{
		OnActivate:            func(i int, _ Item) { calls = append(calls, "second-activate") },
		OnAutoplayDurationSet: func(int, time.Duration) { calls = append(calls, "second-duration") },
		OnResume:              func() { calls = append(calls, "second-resume") },
	}

	h := first.Then(second)
	h.OnActivate(0, nil)
	h.OnAutoplayDurationSet(0, time.Second)
	h.OnPause()
	h.OnResume()

	assert.Equal(t, []string{"first-activate", "second-activate", "second-duration", "first-pause", "second-resume"}, calls)
}
