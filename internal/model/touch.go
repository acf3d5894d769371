package model

import "time"

// TouchAction is the phase of a raw touch event.
type TouchAction int

const (
	// TouchDown starts a gesture.
	TouchDown TouchAction = iota
	// TouchMove reports pointer movement while down.
	TouchMove
	// TouchUp ends a gesture.
	TouchUp
	// TouchCancel aborts a gesture without a release (pointer grab lost).
	TouchCancel
)

// String returns the action name.
func (a TouchAction) String() string {
	switch a {
	case TouchDown:
		return "down"
	case TouchMove:
		return "move"
	case TouchUp:
		return "up"
	case TouchCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// TouchEvent is a raw touch sample in screen coordinates.
type TouchEvent struct {
	Action TouchAction
	Raw    Point
	At     time.Time // Zero means "use the engine clock"
}

// Cue names an interaction that may trigger user feedback (sound).
type Cue string

const (
	CueCreate Cue = "create"
	CueLock   Cue = "lock"
	CueUnlock Cue = "unlock"
	CueDelete Cue = "delete"
)
