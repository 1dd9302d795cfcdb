package slideshow

// OnHoldStart begins a press. If it is not released within the hold delay
// the slideshow pauses until OnHoldEnd.
func (s *Slideshow) OnHoldStart() {
	s.holdTimer.Run(func() {
		if !s.holding {
			s.holdPaused = !s.paused
		}
		s.holding = true
		s.pause()
	}, s.holdDelay)
}

// OnHoldEnd ends a press. A hold resumes autoplay unless the slideshow was
// already paused when it began; a tap navigates in the tap direction.
func (s *Slideshow) OnHoldEnd(tap Direction) bool {
	s.holdTimer.Cancel()
	if s.holding {
		s.holding = false
		if s.holdPaused {
			s.holdPaused = false
			s.resume()
		}
		return true
	}

	switch tap {
	case Forward:
		s.Next()
	case Backward:
		s.Prev()
	}
	return false
}

// OnNavigatePrev handles the previous control.
func (s *Slideshow) OnNavigatePrev() { s.Prev() }

// OnNavigateNext handles the next control.
func (s *Slideshow) OnNavigateNext() { s.Next() }
