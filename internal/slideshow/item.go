package slideshow

import "time"

// Kind tells the slideshow how an item is timed.
type Kind uint8

const (
	// KindTimed items are shown for the slideshow's fixed duration.
	KindTimed Kind = iota

	// KindMedia items are playable and timed by their intrinsic duration.
	// They must implement Media.
	KindMedia
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindTimed:
		return "timed"
	case KindMedia:
		return "media"
	default:
		return "unknown"
	}
}

// Item is anything the slideshow can make active.
type Item interface {
	Activate()
	Deactivate()
	Kind() Kind
}

// Media is the capability set of a KindMedia item.
//
// OnReady and OnEnded each replace the single registered handler; nil clears
// it. Handlers and the Play completion callback must be delivered on the
// slideshow's event queue.
type Media interface {
	Item

	// Duration returns the intrinsic duration, or false while it is unknown.
	Duration() (time.Duration, bool)

	// Play starts or continues playback and reports the outcome through done,
	// possibly later.
	Play(done func(error))
	Pause()
	ResetPosition()
	SetMuted(muted bool)

	OnReady(fn func())
	OnEnded(fn func())
}

// Direction selects where a tap navigates.
type Direction int8

const (
	// Backward steps to the previous item.
	Backward Direction = -1
	// None leaves the active item in place.
	None Direction = 0
	// Forward steps to the next item.
	Forward Direction = 1
)

// HoldHandler consumes press-and-hold gestures.
type HoldHandler interface {
	OnHoldStart()
	// OnHoldEnd ends a press. A press released before the hold delay is a
	// tap and navigates in the tap direction. It reports whether the press
	// was a hold.
	OnHoldEnd(tap Direction) bool
}

// Navigator consumes explicit previous/next requests.
type Navigator interface {
	OnNavigatePrev()
	OnNavigateNext()
}

// Container is the surface that delivers hold gestures.
type Container interface {
	BindHold(h HoldHandler)
}

// Controls delivers navigation requests.
type Controls interface {
	BindNavigation(n Navigator)
}
