package overlay

import (
	"errors"

	"github.com/jmylchreest/perch/internal/model"
)

// Kind identifies what a view represents.
type Kind int

const (
	// KindWidget is a floating widget bubble.
	KindWidget Kind = iota
	// KindScrim is the full-screen translucent blocker shown while locked.
	KindScrim
	// KindDeleteZone is the band shown at the top of the screen during a drag.
	KindDeleteZone
)

// String returns the kind name, also used as a CSS class suffix.
func (k Kind) String() string {
	switch k {
	case KindWidget:
		return "widget"
	case KindScrim:
		return "scrim"
	case KindDeleteZone:
		return "delete-zone"
	default:
		return "unknown"
	}
}

// Touchable reports whether views of this kind receive and consume touches.
// The delete zone is purely visual and lets touches pass through.
func (k Kind) Touchable() bool {
	return k != KindDeleteZone
}

// TouchFunc receives raw touch events for a view.
type TouchFunc func(model.TouchEvent)

// View describes what to paint.
type View struct {
	Kind    Kind
	Glyph   string
	Size    model.Size
	Opacity float64
	OnTouch TouchFunc // nil swallows touches
}

// Host is the windowing primitive that can paint a view at screen
// coordinates above other applications.
type Host interface {
	// Place adds a view on top of all existing views.
	Place(v View, at model.Point) (model.ViewHandle, error)
	// Update moves a live view.
	Update(h model.ViewHandle, at model.Point) error
	SetOpacity(h model.ViewHandle, opacity float64) error
	SetGlyph(h model.ViewHandle, glyph string) error
	Remove(h model.ViewHandle) error
	// Screen returns the current screen size in pixels.
	Screen() model.Size
}

// Permission is the capability to draw over other applications.
type Permission interface {
	CanDrawOverlay() bool
	// RequestOverlayPermission asks the user for the capability. It does
	// not block; the grant, if any, is observed on the next check.
	RequestOverlayPermission()
}

// Host operation names used in HostError.
const (
	OpPlace   = "place"
	OpUpdate  = "update"
	OpOpacity = "opacity"
	OpGlyph   = "glyph"
	OpRemove  = "remove"
)

// ErrUnknownView is returned for operations on a handle the host does not know.
var ErrUnknownView = errors.New("unknown view")

// ErrNoScreen is returned when no screen is available to draw on.
var ErrNoScreen = errors.New("no screen available")

// HostError wraps a failure reported by an overlay host.
type HostError struct {
	Op  string
	Err error
}

func (e *HostError) Error() string {
	if e.Err != nil {
		return "overlay " + e.Op + ": " + e.Err.Error()
	}
	return "overlay " + e.Op + " failed"
}

func (e *HostError) Unwrap() error {
	return e.Err
}

// Wrap returns err as a *HostError for op. Nil stays nil and errors that
// already are HostErrors are returned unchanged.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var he *HostError
	if errors.As(err, &he) {
		return err
	}
	return &HostError{Op: op, Err: err}
}
