package session

// State is the session lifecycle phase.
type State int32

const (
	// WaitingForOpen: before session open, or on a non-trading day.
	WaitingForOpen State = iota
	// Active: market is open, ingestion feed expected connected.
	Active
	// EODTriggered: the end-of-day threshold was crossed and the shutdown
	// sequence has been invoked.
	EODTriggered
	// Closed: terminal.
	Closed
)

func (s State) String() string {
	switch s {
	case WaitingForOpen:
		return "waiting_for_open"
	case Active:
		return "active"
	case EODTriggered:
		return "eod_triggered"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// WallTime is a local hour:minute threshold within the session timezone.
type WallTime struct {
	Hour   int
	Minute int
}

// beforeOn reports whether t's wall time is strictly before w on t's day.
func (w WallTime) beforeOn(hour, minute int) bool {
	if hour != w.Hour {
		return hour < w.Hour
	}
	return minute < w.Minute
}

// Reached reports whether the wall time h:m is at or past w.
func (w WallTime) Reached(hour, minute int) bool {
	return !w.beforeOn(hour, minute)
}
