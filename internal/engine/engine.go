package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/perch/internal/clock"
	"github.com/jmylchreest/perch/internal/config"
	"github.com/jmylchreest/perch/internal/deletezone"
	"github.com/jmylchreest/perch/internal/dimmer"
	"github.com/jmylchreest/perch/internal/gesture"
	"github.com/jmylchreest/perch/internal/lock"
	"github.com/jmylchreest/perch/internal/model"
	"github.com/jmylchreest/perch/internal/overlay"
	"github.com/jmylchreest/perch/internal/stack"
)

var (
	// ErrPermissionDenied means overlays may not be drawn. A permission
	// request has been issued; retry once it is granted.
	ErrPermissionDenied = errors.New("overlay permission not granted")
	// ErrStopped means the engine loop is not running anymore.
	ErrStopped = errors.New("engine stopped")
)

const mailboxSize = 256

// Feedback plays a cue for an interaction.
type Feedback interface {
	Play(cue model.Cue)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source. Defaults to the real clock.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithFeedback sets the cue player.
func WithFeedback(f Feedback) Option {
	return func(e *Engine) { e.feedback = f }
}

// WithErrorHandler receives non-fatal errors, such as host failures while
// moving or locking a widget. It runs on the engine goroutine.
func WithErrorHandler(fn func(error)) Option {
	return func(e *Engine) { e.onError = fn }
}

// entry is the runtime state attached to a live widget.
type entry struct {
	widget  *model.Widget
	gesture *gesture.Classifier
	dimmer  *dimmer.Dimmer
}

// Engine owns the widgets and processes all events on one goroutine.
type Engine struct {
	cfg      *config.Config
	host     overlay.Host
	perm     overlay.Permission
	clock    clock.Clock
	logger   *slog.Logger
	feedback Feedback
	onError  func(error)

	stack   *stack.Stack
	entries map[model.WidgetID]*entry
	lock    *lock.Controller
	zone    *deletezone.Indicator
	zoneFor model.WidgetID
	taps    *gesture.TapMemory // Shared memory for global double-tap scope

	mailbox chan func()
	done    chan struct{}

	// Touches that found the mailbox full, forwarded in order by a
	// single goroutine while forwarding is set.
	overflowMu sync.Mutex
	overflow   []func()
	forwarding bool

	runOnce  sync.Once
	doneOnce sync.Once
}

// New creates an engine. Nothing happens until Run is called.
func New(cfg *config.Config, host overlay.Host, perm overlay.Permission, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	c := *cfg

	e := &Engine{
		cfg:     &c,
		host:    host,
		perm:    perm,
		stack:   stack.New(),
		entries: make(map[model.WidgetID]*entry),
		taps:    &gesture.TapMemory{},
		mailbox: make(chan func(), mailboxSize),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.clock == nil {
		e.clock = clock.Real()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	e.lock = lock.NewController(host, e.widgetView, e.cfg.GlyphFor, e.cfg.Lock.ScrimOpacity, e.logger)
	e.zone = deletezone.NewIndicator(host, e.band(), e.logger)
	return e
}

// Run processes the mailbox until ctx is cancelled. It may be called once.
func (e *Engine) Run(ctx context.Context) error {
	started := false
	e.runOnce.Do(func() { started = true })
	if !started {
		return errors.New("engine already running")
	}

	e.logger.Debug("engine started")
	defer e.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-e.mailbox:
			fn()
		}
	}
}

func (e *Engine) shutdown() {
	for _, ent := range e.entries {
		ent.dimmer.Stop()
	}
	e.doneOnce.Do(func() { close(e.done) })
	e.stack.Close()
	e.logger.Debug("engine stopped", "widgets", e.stack.Len())
}

// post queues fn without waiting for it.
func (e *Engine) post(fn func()) {
	select {
	case e.mailbox <- fn:
	case <-e.done:
	}
}

// call queues fn and waits until it ran.
func (e *Engine) call(ctx context.Context, fn func()) error {
	reply := make(chan struct{})
	select {
	case e.mailbox <- func() { fn(); close(reply) }:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}

	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrStopped
	}
}

// Flush waits until every event queued before it was processed.
func (e *Engine) Flush(ctx context.Context) error {
	return e.call(ctx, func() {})
}

// ShowWidget creates a widget centred on the screen and returns its ID.
func (e *Engine) ShowWidget(ctx context.Context) (model.WidgetID, error) {
	var (
		id  model.WidgetID
		err error
	)
	if cerr := e.call(ctx, func() { id, err = e.create() }); cerr != nil {
		return "", cerr
	}
	return id, err
}

// HideTopWidget removes the most recently created widget. It returns
// false when there was none.
func (e *Engine) HideTopWidget(ctx context.Context) (bool, error) {
	var removed bool
	if err := e.call(ctx, func() { removed = e.removeTop() }); err != nil {
		return false, err
	}
	return removed, nil
}

// HideAllWidgets removes every widget, newest first, and returns how many.
func (e *Engine) HideAllWidgets(ctx context.Context) (int, error) {
	var n int
	err := e.call(ctx, func() {
		for e.removeTop() {
			n++
		}
	})
	return n, err
}

// HideWidget removes a specific widget.
func (e *Engine) HideWidget(ctx context.Context, id model.WidgetID) (bool, error) {
	var removed bool
	if err := e.call(ctx, func() { removed = e.remove(id) }); err != nil {
		return false, err
	}
	return removed, nil
}

// HasActiveWidget reports whether any widget exists.
func (e *Engine) HasActiveWidget() bool {
	return e.stack.HasActive()
}

// Widgets returns snapshots of all widgets, bottom to top.
func (e *Engine) Widgets(ctx context.Context) ([]model.Snapshot, error) {
	var out []model.Snapshot
	err := e.call(ctx, func() {
		for _, w := range e.stack.Widgets() {
			out = append(out, w.Snapshot())
		}
	})
	return out, err
}

// Subscribe returns a channel receiving the "has active widget" state
// after every push and pop. It is closed when the engine stops.
func (e *Engine) Subscribe() <-chan bool {
	return e.stack.Subscribe()
}

// Unsubscribe cancels a subscription.
func (e *Engine) Unsubscribe(ch <-chan bool) {
	e.stack.Unsubscribe(ch)
}

// Touch delivers a raw touch event for a widget. It never blocks the
// caller, which is usually the host's UI thread. Events reach the loop in
// the order Touch was called, even when the mailbox is full.
func (e *Engine) Touch(id model.WidgetID, ev model.TouchEvent) {
	fn := func() { e.handleTouch(id, ev) }

	e.overflowMu.Lock()
	defer e.overflowMu.Unlock()
	if !e.forwarding {
		select {
		case e.mailbox <- fn:
			return
		default:
		}
		e.forwarding = true
		go e.forward()
	}
	e.overflow = append(e.overflow, fn)
}

// forward drains the overflow queue into the mailbox, oldest first.
func (e *Engine) forward() {
	for {
		e.overflowMu.Lock()
		if len(e.overflow) == 0 {
			e.forwarding = false
			e.overflowMu.Unlock()
			return
		}
		fn := e.overflow[0]
		e.overflow[0] = nil
		e.overflow = e.overflow[1:]
		e.overflowMu.Unlock()

		e.post(fn)
	}
}

// UpdateConfig applies a new configuration to the running engine. Widget
// size applies to widgets created afterwards.
func (e *Engine) UpdateConfig(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	c := *cfg
	return e.call(ctx, func() { e.applyConfig(&c) })
}

func (e *Engine) applyConfig(cfg *config.Config) {
	scopeChanged := cfg.Gesture.DoubleTapScope != e.cfg.Gesture.DoubleTapScope
	*e.cfg = *cfg

	for _, ent := range e.entries {
		ent.gesture.Configure(e.cfg.Gesture.DoubleTapWindow.Duration(), e.band())
		if scopeChanged {
			ent.gesture.UseTaps(e.tapsFor())
		}
		ent.dimmer.Configure(e.cfg.Dimmer.IdleTimeout.Duration(), e.cfg.Dimmer.DimOpacity)
		if ent.widget.HasView() {
			e.report("refresh glyph", ent.widget.ID,
				overlay.Wrap(overlay.OpGlyph, e.host.SetGlyph(ent.widget.View, e.cfg.GlyphFor(ent.widget.Locked))))
		}
	}
	e.report("resize delete zone", "", e.zone.SetBand(e.band()))
	e.report("scrim opacity", "", e.lock.SetScrimOpacity(e.cfg.Lock.ScrimOpacity))
	e.logger.Info("configuration applied")
}

func (e *Engine) band() deletezone.Band {
	return deletezone.Band{Fraction: e.cfg.DeleteZone.Fraction}
}

func (e *Engine) tapsFor() *gesture.TapMemory {
	if config.DoubleTapScope(e.cfg.Gesture.DoubleTapScope) == config.DoubleTapScopeGlobal {
		return e.taps
	}
	return &gesture.TapMemory{}
}

func (e *Engine) widgetView(w *model.Widget) overlay.View {
	id := w.ID
	size := float64(e.cfg.Widget.Size)
	return overlay.View{
		Kind:    overlay.KindWidget,
		Glyph:   e.cfg.GlyphFor(w.Locked),
		Size:    model.Size{Width: size, Height: size},
		Opacity: w.Opacity,
		OnTouch: func(ev model.TouchEvent) { e.Touch(id, ev) },
	}
}

func (e *Engine) play(cue model.Cue) {
	if e.feedback != nil {
		e.feedback.Play(cue)
	}
}

// report logs a non-fatal error and forwards it to the error handler.
func (e *Engine) report(op string, id model.WidgetID, err error) {
	if err == nil {
		return
	}
	if id != "" {
		e.logger.Warn(op+" failed", "widget_id", id, "error", err)
	} else {
		e.logger.Warn(op+" failed", "error", err)
	}
	if e.onError != nil {
		e.onError(fmt.Errorf("%s: %w", op, err))
	}
}
