package slideshow

import "time"

// startTiming arms autoplay for the active item. Media items are timed by
// their intrinsic duration, possibly only once their metadata is ready.
func (s *Slideshow) startTiming() {
	s.timingStarted = true

	m := s.media[s.index]
	if m == nil {
		s.arm(s.duration)
		return
	}

	s.autoplay.Cancel()
	token := s.showToken

	m.OnEnded(func() {
		if token != s.showToken {
			return
		}
		s.Next()
	})

	if d, ok := m.Duration(); ok {
		m.OnReady(nil)
		s.arm(d + MediaMargin)
	} else {
		armed := false
		m.OnReady(func() {
			if armed || token != s.showToken {
				return
			}
			armed = true
			d, ok := m.Duration()
			if ok {
				d += MediaMargin
			} else {
				d = s.duration
			}
			s.arm(d)
		})
	}

	m.SetMuted(false)
	s.play(m, token, true)
}

// play starts media playback. On failure the media timing is abandoned in
// favour of the fixed duration; when resuming an item whose timer is
// already running, a failure only gets logged.
func (s *Slideshow) play(m Media, token uint64, starting bool) {
	m.Play(func(err error) {
		if err == nil || token != s.showToken {
			return
		}
		if !starting && s.autoplay.Pending() {
			s.logf("resuming playback of item %d failed: %v", s.index, err)
			return
		}
		s.logf("playback of item %d failed, using fixed duration %v: %v", s.index, s.duration, err)
		s.autoplay.Cancel()
		m.OnReady(nil)
		m.OnEnded(nil)
		s.arm(s.duration)
	})
}

// arm schedules the advance to the next item after d. If the slideshow is
// paused the timer is frozen straight away with its full duration.
func (s *Slideshow) arm(d time.Duration) {
	s.autoplay.Run(func() { s.step(1) }, d)
	if s.paused {
		s.autoplay.Pause()
	}
	if s.hooks.OnAutoplayDurationSet != nil {
		s.hooks.OnAutoplayDurationSet(s.index, d)
	}
}

func (s *Slideshow) deactivate(i int) {
	s.items[i].Deactivate()
	if m := s.media[i]; m != nil {
		m.OnReady(nil)
		m.OnEnded(nil)
		m.Pause()
		m.ResetPosition()
		m.SetMuted(true)
	}
}

func (s *Slideshow) pause() {
	if s.paused {
		return
	}
	s.paused = true
	s.autoplay.Pause()
	if m := s.media[s.index]; m != nil {
		m.Pause()
	}
	if s.hooks.OnPause != nil {
		s.hooks.OnPause()
	}
}

func (s *Slideshow) resume() {
	if !s.paused {
		return
	}
	s.paused = false

	due := false
	switch {
	case s.autoplay.Resume():
	case s.autoplay.Pending():
		// Frozen with nothing left: the advance is already due.
		due = true
	case !s.timingStarted:
		// Shown while paused; its timing has not begun yet.
		if s.hooks.OnResume != nil {
			s.hooks.OnResume()
		}
		s.startTiming()
		return
	}

	if s.hooks.OnResume != nil {
		s.hooks.OnResume()
	}
	if due {
		s.step(1)
		return
	}
	if m := s.media[s.index]; m != nil {
		s.play(m, s.showToken, false)
	}
}
