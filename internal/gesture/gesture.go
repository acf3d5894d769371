package gesture

import (
	"time"

	"github.com/jmylchreest/perch/internal/deletezone"
	"github.com/jmylchreest/perch/internal/model"
)

// DefaultDoubleTapWindow is the maximum gap between two releases that
// counts as a double-tap.
const DefaultDoubleTapWindow = 300 * time.Millisecond

// Target returns the widget position for a pointer at raw, given where the
// widget and the pointer were when the drag started.
func Target(dragAnchor, touchAnchor, raw model.Point) model.Point {
	return dragAnchor.Add(raw.Sub(touchAnchor))
}

// State is the classifier state.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Outcome is what a release means.
type Outcome int

const (
	// None is a plain release.
	None Outcome = iota
	// DoubleTap toggles the lock state.
	DoubleTap
	// Delete removes the widget.
	Delete
)

func (o Outcome) String() string {
	switch o {
	case DoubleTap:
		return "double-tap"
	case Delete:
		return "delete"
	default:
		return "none"
	}
}

// TapMemory records the time of the last release.
type TapMemory struct {
	last time.Time
}

// Last returns the last release time, zero if none.
func (m *TapMemory) Last() time.Time {
	return m.last
}

// Record stores a release time.
func (m *TapMemory) Record(t time.Time) {
	m.last = t
}

// Within reports whether now is strictly less than window after the last release.
func (m *TapMemory) Within(now time.Time, window time.Duration) bool {
	return !m.last.IsZero() && now.Sub(m.last) < window
}

// MoveResult is the effect of a move event.
type MoveResult struct {
	Position model.Point // New widget position, valid when Moved
	Moved    bool
	ShowZone bool // Whether the delete indicator should be visible
}

// Classifier is the per-widget gesture state machine.
// Not safe for concurrent use.
type Classifier struct {
	window time.Duration
	band   deletezone.Band
	taps   *TapMemory

	state       State
	dragAnchor  model.Point
	touchAnchor model.Point
}

// NewClassifier creates an idle classifier. A nil taps gets a private memory.
func NewClassifier(window time.Duration, band deletezone.Band, taps *TapMemory) *Classifier {
	if taps == nil {
		taps = &TapMemory{}
	}
	return &Classifier{window: window, band: band, taps: taps}
}

// State returns the current state.
func (c *Classifier) State() State {
	return c.state
}

// Taps returns the tap memory in use.
func (c *Classifier) Taps() *TapMemory {
	return c.taps
}

// Configure changes the double-tap window and delete band.
func (c *Classifier) Configure(window time.Duration, band deletezone.Band) {
	c.window = window
	c.band = band
}

// UseTaps swaps the tap memory, e.g. when the double-tap scope changes.
func (c *Classifier) UseTaps(taps *TapMemory) {
	c.taps = taps
}

// Down starts a drag. A down while already dragging re-anchors.
func (c *Classifier) Down(widgetPos, raw model.Point) {
	c.state = Dragging
	c.dragAnchor = widgetPos
	c.touchAnchor = raw
}

// Move computes the effect of pointer movement. Moves without a preceding
// down are ignored. Locked widgets neither move nor show the delete zone.
func (c *Classifier) Move(raw model.Point, screenHeight float64, locked bool) MoveResult {
	if c.state != Dragging || locked {
		return MoveResult{}
	}
	return MoveResult{
		Position: Target(c.dragAnchor, c.touchAnchor, raw),
		Moved:    true,
		ShowZone: c.band.ShouldShow(raw.Y, screenHeight, locked),
	}
}

// Up ends a drag and classifies the release. A double-tap takes precedence
// over deletion. The release time is always recorded.
func (c *Classifier) Up(raw model.Point, now time.Time, screenHeight float64, locked bool) Outcome {
	if c.state != Dragging {
		return None
	}
	c.state = Idle

	out := None
	switch {
	case c.taps.Within(now, c.window):
		out = DoubleTap
	case c.band.ShouldShow(raw.Y, screenHeight, locked):
		out = Delete
	}
	c.taps.Record(now)
	return out
}

// Cancel aborts a drag without recording a tap. It reports whether a drag
// was in progress.
func (c *Classifier) Cancel() bool {
	was := c.state == Dragging
	c.state = Idle
	return was
}
