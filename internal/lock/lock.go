// Package lock implements the lock mode of floating widgets.
//
// A locked widget is frozen in place and a full-screen scrim blocks
// touches to whatever lies beneath it. The scrim is shown while at least
// one widget is locked. Every locked widget is kept above the scrim so its
// unlocking double-tap stays reachable.
package lock

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jmylchreest/perch/internal/model"
	"github.com/jmylchreest/perch/internal/overlay"
)

// DefaultScrimOpacity is the scrim alpha, 150 of 255.
const DefaultScrimOpacity = 150.0 / 255.0

// ErrViewLost means a widget's view was removed but could not be placed
// again. The widget should be dropped by its owner.
var ErrViewLost = errors.New("widget view lost")

// ViewFunc builds the view for a widget in its current state.
type ViewFunc func(w *model.Widget) overlay.View

// Controller owns the lock state presentation and the singleton scrim.
// Not safe for concurrent use.
type Controller struct {
	host         overlay.Host
	view         ViewFunc
	glyph        func(locked bool) string
	scrimOpacity float64
	logger       *slog.Logger

	scrim  model.ViewHandle
	locked []*model.Widget // Lock order, oldest first
}

// NewController creates a controller with no locked widgets.
func NewController(host overlay.Host, view ViewFunc, glyph func(locked bool) string, scrimOpacity float64, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		host:         host,
		view:         view,
		glyph:        glyph,
		scrimOpacity: scrimOpacity,
		logger:       logger,
	}
}

// ScrimVisible reports whether the scrim is shown.
func (c *Controller) ScrimVisible() bool {
	return c.scrim != 0
}

// LockedCount returns the number of locked widgets.
func (c *Controller) LockedCount() int {
	return len(c.locked)
}

// Toggle flips the widget's lock state and updates the presentation.
//
// The flag always flips. Host failures are returned wrapped; if the widget
// ended up without a view the error matches ErrViewLost. Other locked
// widgets that lose their view while being raised are left with
// HasView() == false for the caller to reap.
func (c *Controller) Toggle(w *model.Widget) error {
	w.Locked = !w.Locked
	if w.Locked {
		return c.lock(w)
	}
	return c.unlock(w)
}

func (c *Controller) lock(w *model.Widget) error {
	pos := w.Position
	if !slices.Contains(c.locked, w) {
		c.locked = append(c.locked, w)
	}

	var errs []error
	if err := c.showScrim(); err != nil {
		errs = append(errs, err)
	}

	// The new scrim sits above everything placed before it
	for _, other := range c.locked {
		if other == w || !other.HasView() {
			continue
		}
		if err := c.recreate(other, other.Position); err != nil {
			errs = append(errs, fmt.Errorf("raise widget %s: %w", other.ID.Short(), err))
		}
	}

	if err := c.recreate(w, pos); err != nil {
		errs = append(errs, err)
	}

	c.logger.Debug("widget locked", "widget_id", w.ID, "locked_count", len(c.locked))
	return errors.Join(errs...)
}

func (c *Controller) unlock(w *model.Widget) error {
	c.drop(w)

	var errs []error
	if w.HasView() {
		if err := c.host.SetGlyph(w.View, c.glyph(false)); err != nil {
			errs = append(errs, overlay.Wrap(overlay.OpGlyph, err))
		}
	}
	if len(c.locked) == 0 {
		if err := c.hideScrim(); err != nil {
			errs = append(errs, err)
		}
	}

	c.logger.Debug("widget unlocked", "widget_id", w.ID, "locked_count", len(c.locked))
	return errors.Join(errs...)
}

// Forget drops a widget from the lock bookkeeping, typically because it
// was removed. The scrim goes with the last locked widget.
func (c *Controller) Forget(w *model.Widget) error {
	if !slices.Contains(c.locked, w) {
		return nil
	}
	c.drop(w)
	if len(c.locked) == 0 {
		return c.hideScrim()
	}
	return nil
}

// SetScrimOpacity changes the scrim alpha, applying it to a visible scrim.
func (c *Controller) SetScrimOpacity(opacity float64) error {
	c.scrimOpacity = opacity
	if c.scrim == 0 {
		return nil
	}
	return overlay.Wrap(overlay.OpOpacity, c.host.SetOpacity(c.scrim, opacity))
}

func (c *Controller) drop(w *model.Widget) {
	c.locked = slices.DeleteFunc(c.locked, func(x *model.Widget) bool { return x == w })
}

// recreate replaces the widget's view with a fresh one at pos, fully
// opaque and carrying the glyph for its current state.
func (c *Controller) recreate(w *model.Widget, pos model.Point) error {
	if w.HasView() {
		if err := c.host.Remove(w.View); err != nil {
			// Keep the old view; at least show the right glyph on it
			_ = c.host.SetGlyph(w.View, c.glyph(w.Locked))
			return overlay.Wrap(overlay.OpRemove, err)
		}
		w.View = 0
	}

	w.Position = pos
	w.Opacity = model.OpacityOpaque
	h, err := c.host.Place(c.view(w), pos)
	if err != nil {
		c.logger.Warn("failed to re-place widget", "widget_id", w.ID, "error", err)
		return fmt.Errorf("%w: %w", ErrViewLost, overlay.Wrap(overlay.OpPlace, err))
	}
	w.View = h
	return nil
}

// showScrim removes any existing scrim and places a new one on top. If
// the old scrim cannot be removed it stays the only scrim.
func (c *Controller) showScrim() error {
	if err := c.hideScrim(); err != nil {
		c.logger.Warn("failed to remove previous scrim", "error", err)
		return err
	}
	h, err := c.host.Place(overlay.View{
		Kind:    overlay.KindScrim,
		Size:    c.host.Screen(),
		Opacity: c.scrimOpacity,
	}, model.Point{})
	if err != nil {
		return overlay.Wrap(overlay.OpPlace, err)
	}
	c.scrim = h
	return nil
}

// hideScrim removes the scrim. The handle is kept when the host refuses,
// so the next hide or show retries instead of orphaning the view.
func (c *Controller) hideScrim() error {
	if c.scrim == 0 {
		return nil
	}
	if err := c.host.Remove(c.scrim); err != nil && !errors.Is(err, overlay.ErrUnknownView) {
		return overlay.Wrap(overlay.OpRemove, err)
	}
	c.scrim = 0
	return nil
}
