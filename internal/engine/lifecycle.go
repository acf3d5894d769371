package engine

import (
	"errors"
	"fmt"

	"github.com/jmylchreest/perch/internal/config"
	"github.com/jmylchreest/perch/internal/dimmer"
	"github.com/jmylchreest/perch/internal/gesture"
	"github.com/jmylchreest/perch/internal/lock"
	"github.com/jmylchreest/perch/internal/model"
	"github.com/jmylchreest/perch/internal/overlay"
)

// create places a new widget at the centre of the screen and pushes it.
func (e *Engine) create() (model.WidgetID, error) {
	if !e.perm.CanDrawOverlay() {
		e.perm.RequestOverlayPermission()
		e.logger.Info("overlay permission requested")
		return "", ErrPermissionDenied
	}

	id, err := model.NewWidgetID()
	if err != nil {
		return "", err
	}

	pos := model.Centered(e.host.Screen(), float64(e.cfg.Widget.Size))
	w := model.NewWidget(id, pos, e.clock.Now())

	h, err := e.host.Place(e.widgetView(w), pos)
	if err != nil {
		return "", overlay.Wrap(overlay.OpPlace, err)
	}
	w.View = h

	ent := &entry{
		widget:  w,
		gesture: gesture.NewClassifier(e.cfg.Gesture.DoubleTapWindow.Duration(), e.band(), e.tapsFor()),
	}
	ent.dimmer = dimmer.New(e.clock, e.cfg.Dimmer.IdleTimeout.Duration(), e.cfg.Dimmer.DimOpacity,
		&dimTarget{e: e, w: w}, e.post)

	if err := e.stack.Push(w); err != nil {
		_ = e.host.Remove(h)
		return "", fmt.Errorf("failed to register widget: %w", err)
	}
	e.entries[id] = ent
	ent.dimmer.Start()

	e.logger.Debug("widget created", "widget_id", id, "x", pos.X, "y", pos.Y, "count", e.stack.Len())
	e.play(model.CueCreate)
	return id, nil
}

// removeTop pops the newest widget. It returns false on an empty stack.
func (e *Engine) removeTop() bool {
	w, ok := e.stack.Pop()
	if !ok {
		return false
	}
	e.teardown(w)
	return true
}

// remove takes a widget out wherever it sits in the stack.
func (e *Engine) remove(id model.WidgetID) bool {
	w, ok := e.stack.Remove(id)
	if !ok {
		return false
	}
	e.teardown(w)
	return true
}

// teardown releases everything attached to a widget already off the stack.
func (e *Engine) teardown(w *model.Widget) {
	if ent, ok := e.entries[w.ID]; ok {
		ent.dimmer.Stop()
		delete(e.entries, w.ID)
	}
	if e.zoneFor == w.ID {
		e.hideZone(w.ID)
	}
	e.report("release lock", w.ID, e.lock.Forget(w))
	if w.HasView() {
		e.report("remove widget view", w.ID, overlay.Wrap(overlay.OpRemove, e.host.Remove(w.View)))
		w.View = 0
	}

	e.logger.Debug("widget removed", "widget_id", w.ID, "count", e.stack.Len())
	e.play(model.CueDelete)
}

// handleTouch feeds one raw event to the widget's classifier.
func (e *Engine) handleTouch(id model.WidgetID, ev model.TouchEvent) {
	ent, ok := e.entries[id]
	if !ok {
		return
	}
	w := ent.widget
	now := ev.At
	if now.IsZero() {
		now = e.clock.Now()
	}
	screenH := e.host.Screen().Height

	switch ev.Action {
	case model.TouchDown:
		w.LastTouchAt = now
		ent.gesture.Down(w.Position, ev.Raw)
		ent.dimmer.Reset()

	case model.TouchMove:
		if ent.gesture.State() != gesture.Dragging {
			return
		}
		res := ent.gesture.Move(ev.Raw, screenH, w.Locked)
		if res.Moved {
			w.Position = res.Position
			if w.HasView() {
				e.report("move widget", id, overlay.Wrap(overlay.OpUpdate, e.host.Update(w.View, w.Position)))
			}
		}
		if res.ShowZone {
			e.showZone(id)
		} else {
			e.hideZone(id)
		}

	case model.TouchUp:
		out := ent.gesture.Up(ev.Raw, now, screenH, w.Locked)
		e.hideZone(id)
		switch out {
		case gesture.DoubleTap:
			e.toggleLock(ent)
		case gesture.Delete:
			e.deleteByDrag(ent)
		}

	case model.TouchCancel:
		if ent.gesture.Cancel() {
			e.hideZone(id)
		}
	}
}

func (e *Engine) toggleLock(ent *entry) {
	w := ent.widget
	err := e.lock.Toggle(w)
	if w.Locked {
		e.play(model.CueLock)
	} else {
		e.play(model.CueUnlock)
	}
	e.logger.Debug("lock toggled", "widget_id", w.ID, "locked", w.Locked)

	if err != nil {
		e.report("toggle lock", w.ID, err)
		if errors.Is(err, lock.ErrViewLost) {
			e.logger.Warn("widget lost its view, removing", "widget_id", w.ID)
		}
	}
	e.reapLost()
}

// reapLost removes widgets whose view could not be re-placed.
func (e *Engine) reapLost() {
	for _, w := range e.stack.Widgets() {
		if !w.HasView() {
			e.remove(w.ID)
		}
	}
}

func (e *Engine) deleteByDrag(ent *entry) {
	switch config.DeleteTarget(e.cfg.Gesture.DeleteTarget) {
	case config.DeleteTargetTop:
		e.removeTop()
	default:
		e.remove(ent.widget.ID)
	}
}

func (e *Engine) showZone(id model.WidgetID) {
	e.zoneFor = id
	e.report("show delete zone", id, e.zone.Show())
}

// hideZone hides the band if it was shown for this widget's drag.
func (e *Engine) hideZone(id model.WidgetID) {
	if !e.zone.Visible() || e.zoneFor != id {
		return
	}
	e.zoneFor = ""
	e.report("hide delete zone", id, e.zone.Hide())
}

// dimTarget adapts a widget to the dimmer.
type dimTarget struct {
	e *Engine
	w *model.Widget
}

func (t *dimTarget) Alive() bool {
	_, ok := t.e.entries[t.w.ID]
	return ok && t.w.HasView()
}

func (t *dimTarget) SetOpacity(opacity float64) {
	if t.w.Opacity == opacity {
		return
	}
	t.w.Opacity = opacity
	t.e.report("set opacity", t.w.ID, overlay.Wrap(overlay.OpOpacity, t.e.host.SetOpacity(t.w.View, opacity)))
}
