// Package model defines the core data structures for perch.
package model

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Opacity levels used by the engine.
const (
	OpacityOpaque = 1.0
	OpacityDimmed = 0.5
)

// WidgetID identifies a floating widget. IDs are ULIDs and sort by creation time.
type WidgetID string

// NewWidgetID generates a fresh widget identity.
func NewWidgetID() (WidgetID, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return WidgetID(id.String()), nil
}

// Short returns the last 6 characters of the ID, which carry the random part.
func (id WidgetID) Short() string {
	s := string(id)
	if len(s) <= 6 {
		return s
	}
	return s[len(s)-6:]
}

// ViewHandle is an opaque reference to a view placed by an overlay host.
// The zero value means the widget has no live view.
type ViewHandle uint64

// Widget is one floating instance.
type Widget struct {
	ID          WidgetID
	Position    Point
	Locked      bool
	Opacity     float64
	View        ViewHandle
	CreatedAt   time.Time
	LastTouchAt time.Time // Zero until the first touch
}

// NewWidget creates an unlocked, fully opaque widget at the given position.
func NewWidget(id WidgetID, at Point, now time.Time) *Widget {
	return &Widget{
		ID:        id,
		Position:  at,
		Opacity:   OpacityOpaque,
		CreatedAt: now,
	}
}

// HasView reports whether the widget currently owns a live view.
func (w *Widget) HasView() bool {
	return w.View != 0
}

// Snapshot returns a read-only copy for status output.
func (w *Widget) Snapshot() Snapshot {
	return Snapshot{
		ID:          w.ID,
		Position:    w.Position,
		Locked:      w.Locked,
		Opacity:     w.Opacity,
		CreatedAt:   w.CreatedAt,
		LastTouchAt: w.LastTouchAt,
	}
}

// Snapshot is a point-in-time copy of a widget's observable state.
type Snapshot struct {
	ID          WidgetID  `json:"id" yaml:"id"`
	Position    Point     `json:"position" yaml:"position"`
	Locked      bool      `json:"locked" yaml:"locked"`
	Opacity     float64   `json:"opacity" yaml:"opacity"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	LastTouchAt time.Time `json:"last_touch_at,omitzero" yaml:"last_touch_at,omitempty"`
}

// Dimmed reports whether the widget is below full opacity.
func (s Snapshot) Dimmed() bool {
	return s.Opacity < OpacityOpaque
}

// State names the widget's presentation: locked, dimmed or idle.
func (s Snapshot) State() string {
	switch {
	case s.Locked:
		return "locked"
	case s.Dimmed():
		return "dimmed"
	default:
		return "idle"
	}
}
