// Package dimmer lowers a widget's opacity after a period without touches.
package dimmer

import (
	"time"

	"github.com/jmylchreest/perch/internal/clock"
	"github.com/jmylchreest/perch/internal/model"
)

// DefaultIdle is the inactivity period before dimming.
const DefaultIdle = 3 * time.Second

// Target is the widget being dimmed.
type Target interface {
	// Alive reports whether the widget is still present.
	Alive() bool
	SetOpacity(opacity float64)
}

// Dimmer is a single-shot restartable idle timer for one widget.
//
// Timer callbacks are handed to dispatch, which must run them on the same
// goroutine that calls Start, Reset and Stop. A fire that was already in
// flight when the timer was cancelled is recognised by its generation and
// discarded, so at most one pending dim exists per widget.
type Dimmer struct {
	clock    clock.Clock
	idle     time.Duration
	dimmed   float64
	target   Target
	dispatch func(func())

	timer   clock.Timer
	gen     uint64
	stopped bool
}

// New creates a stopped dimmer. A nil dispatch runs callbacks directly on
// the timer goroutine.
func New(c clock.Clock, idle time.Duration, dimmed float64, target Target, dispatch func(func())) *Dimmer {
	if dispatch == nil {
		dispatch = func(f func()) { f() }
	}
	return &Dimmer{
		clock:    c,
		idle:     idle,
		dimmed:   dimmed,
		target:   target,
		dispatch: dispatch,
	}
}

// Start schedules the dim, replacing any pending one.
func (d *Dimmer) Start() {
	d.stopped = false
	d.cancel()
	d.schedule()
}

// Reset restores full opacity and restarts the countdown.
func (d *Dimmer) Reset() {
	if d.stopped {
		return
	}
	d.cancel()
	d.target.SetOpacity(model.OpacityOpaque)
	d.schedule()
}

// Stop cancels the countdown for good. Reset is a no-op afterwards.
func (d *Dimmer) Stop() {
	d.stopped = true
	d.cancel()
}

// Pending reports whether a dim is scheduled.
func (d *Dimmer) Pending() bool {
	return d.timer != nil
}

// Configure changes timings; they apply from the next schedule.
func (d *Dimmer) Configure(idle time.Duration, dimmed float64) {
	d.idle = idle
	d.dimmed = dimmed
}

func (d *Dimmer) cancel() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Dimmer) schedule() {
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.idle, func() {
		d.dispatch(func() { d.fire(gen) })
	})
}

func (d *Dimmer) fire(gen uint64) {
	if gen != d.gen || d.stopped {
		return
	}
	d.timer = nil
	if !d.target.Alive() {
		return
	}
	d.target.SetOpacity(d.dimmed)
}
