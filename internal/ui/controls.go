package ui

import (
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"stories/internal/slideshow"
)

// controlBar holds the previous, play/pause and next buttons.
type controlBar struct {
	prevBtn *widget.Button
	playBtn *widget.Button
	nextBtn *widget.Button

	nav slideshow.Navigator
}

var _ slideshow.Controls = (*controlBar)(nil)

func newControlBar(onToggle func()) *controlBar {
	c := &controlBar{}
	c.prevBtn = widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), func() {
		if c.nav != nil {
			c.nav.OnNavigatePrev()
		}
	})
	c.nextBtn = widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), func() {
		if c.nav != nil {
			c.nav.OnNavigateNext()
		}
	})
	c.playBtn = widget.NewButtonWithIcon("", theme.MediaPauseIcon(), onToggle)
	return c
}

// BindNavigation implements slideshow.Controls.
func (c *controlBar) BindNavigation(n slideshow.Navigator) {
	c.nav = n
}

// setPaused swaps the play button icon and greys out navigation.
func (c *controlBar) setPaused(paused, holding bool) {
	if paused {
		c.playBtn.SetIcon(theme.MediaPlayIcon())
	} else {
		c.playBtn.SetIcon(theme.MediaPauseIcon())
	}
	if paused && !holding {
		c.prevBtn.Disable()
		c.nextBtn.Disable()
	} else {
		c.prevBtn.Enable()
		c.nextBtn.Enable()
	}
}

func (c *controlBar) object() fyne.CanvasObject {
	return container.NewHBox(layout.NewSpacer(), c.prevBtn, c.playBtn, c.nextBtn, layout.NewSpacer())
}

// progressTracker fills a bar as the autoplay timer of the active item
// runs down.
type progressTracker struct {
	bar   *widget.ProgressBar
	total time.Duration
}

func newProgressTracker() *progressTracker {
	bar := widget.NewProgressBar()
	bar.TextFormatter = func() string { return "" }
	return &progressTracker{bar: bar}
}

// reset starts tracking a new item. A zero total means no timer is armed
// yet, as for a clip waiting for its metadata.
func (p *progressTracker) reset(total time.Duration) {
	p.total = total
	p.bar.SetValue(0)
}

// update sets the bar from the time left on the timer.
func (p *progressTracker) update(remaining time.Duration) {
	p.bar.SetValue(progressValue(p.total, remaining))
}

func progressValue(total, remaining time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	if remaining < 0 {
		remaining = 0
	}
	v := 1 - float64(remaining)/float64(total)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
