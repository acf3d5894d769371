package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/perch/internal/clock"
	"github.com/jmylchreest/perch/internal/config"
	"github.com/jmylchreest/perch/internal/model"
	"github.com/jmylchreest/perch/internal/overlay"
)

var screen = model.Size{Width: 1080, Height: 1920}

type recorder struct {
	mu   sync.Mutex
	cues []model.Cue
}

func (r *recorder) Play(cue model.Cue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, cue)
}

func (r *recorder) Cues() []model.Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Cue(nil), r.cues...)
}

type harness struct {
	t      *testing.T
	ctx    context.Context
	engine *Engine
	host   *overlay.MemoryHost
	perm   *overlay.SwitchPermission
	clock  *clock.Fake
	cues   *recorder
	errs   []error
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()

	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}

	h := &harness{
		t:     t,
		host:  overlay.NewMemoryHost(screen),
		perm:  overlay.NewSwitchPermission(true),
		clock: clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		cues:  &recorder{},
	}
	h.engine = New(cfg, h.host, h.perm,
		WithClock(h.clock),
		WithFeedback(h.cues),
		WithErrorHandler(func(err error) { h.errs = append(h.errs, err) }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.engine.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	h.ctx = ctx
	return h
}

func (h *harness) flush() {
	h.t.Helper()
	require.NoError(h.t, h.engine.Flush(h.ctx))
}

func (h *harness) show() model.WidgetID {
	h.t.Helper()
	id, err := h.engine.ShowWidget(h.ctx)
	require.NoError(h.t, err)
	return id
}

func (h *harness) widget(id model.WidgetID) model.Snapshot {
	h.t.Helper()
	list, err := h.engine.Widgets(h.ctx)
	require.NoError(h.t, err)
	for _, s := range list {
		if s.ID == id {
			return s
		}
	}
	h.t.Fatalf("widget %s not found", id)
	return model.Snapshot{}
}

func (h *harness) widgetViews() []overlay.MemoryView {
	var out []overlay.MemoryView
	for _, v := range h.host.Views() {
		if v.Kind == overlay.KindWidget {
			out = append(out, v)
		}
	}
	return out
}

func (h *harness) tap(p model.Point) {
	h.host.Tap(p)
	h.flush()
}

func (h *harness) drag(from, to model.Point) {
	h.host.Press(from)
	h.host.Drag(to)
	h.host.Release(to)
	h.flush()
}

func centre(s model.Snapshot) model.Point {
	return s.Position.Add(model.Point{X: 50, Y: 50})
}

func drain(ch <-chan bool) []bool {
	var out []bool
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, v)
		default:
			return out
		}
	}
}

func TestEngine_EndToEnd(t *testing.T) {
	h := newHarness(t, nil)
	events := h.engine.Subscribe()

	// create
	id := h.show()
	w := h.widget(id)
	assert.Equal(t, model.Point{X: 490, Y: 910}, w.Position)
	assert.True(t, h.engine.HasActiveWidget())

	// drag by (+20, +30)
	h.drag(model.Point{X: 540, Y: 960}, model.Point{X: 560, Y: 990})
	w = h.widget(id)
	assert.Equal(t, model.Point{X: 510, Y: 940}, w.Position)
	assert.Equal(t, w.Position, h.widgetViews()[0].Position)

	// double-tap locks
	h.clock.Advance(time.Second)
	h.tap(centre(w))
	h.clock.Advance(100 * time.Millisecond)
	h.tap(centre(w))

	w = h.widget(id)
	require.True(t, w.Locked)
	assert.Equal(t, 1, h.host.Count(overlay.KindScrim))
	assert.Equal(t, "🔒", h.widgetViews()[0].Glyph)
	assert.Equal(t, model.Point{X: 510, Y: 940}, h.widgetViews()[0].Position)

	// a drag into the band is ignored while locked
	h.clock.Advance(time.Second)
	h.host.Press(centre(w))
	h.host.Drag(model.Point{X: 100, Y: 100})
	h.flush()
	assert.Equal(t, 0, h.host.Count(overlay.KindDeleteZone))
	h.host.Release(model.Point{X: 100, Y: 100})
	h.flush()

	w = h.widget(id)
	assert.Equal(t, model.Point{X: 510, Y: 940}, w.Position)
	assert.True(t, w.Locked)

	// double-tap unlocks
	h.clock.Advance(time.Second)
	h.tap(centre(w))
	h.clock.Advance(100 * time.Millisecond)
	h.tap(centre(w))

	w = h.widget(id)
	assert.False(t, w.Locked)
	assert.Equal(t, 0, h.host.Count(overlay.KindScrim))
	assert.Equal(t, "🔓", h.widgetViews()[0].Glyph)

	// removeTop
	removed, err := h.engine.HideTopWidget(h.ctx)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, h.engine.HasActiveWidget())
	assert.Empty(t, h.host.Views())

	assert.Equal(t, []bool{true, false}, drain(events))
	assert.Equal(t, []model.Cue{model.CueCreate, model.CueLock, model.CueUnlock, model.CueDelete}, h.cues.Cues())
	assert.Empty(t, h.errs)
}

func TestEngine_PermissionDenied(t *testing.T) {
	h := newHarness(t, nil)
	h.perm.Set(false)

	_, err := h.engine.ShowWidget(h.ctx)
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 1, h.perm.Requests())
	assert.False(t, h.engine.HasActiveWidget())
	assert.Empty(t, h.host.Views())

	// Grant and retry
	h.perm.Set(true)
	h.show()
	assert.True(t, h.engine.HasActiveWidget())
}

func TestEngine_CreateHostFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.host.FailNext(overlay.OpPlace, errors.New("compositor gone"))

	_, err := h.engine.ShowWidget(h.ctx)
	var he *overlay.HostError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, overlay.OpPlace, he.Op)
	assert.False(t, h.engine.HasActiveWidget())
}

func TestEngine_HideTopEmpty(t *testing.T) {
	h := newHarness(t, nil)
	events := h.engine.Subscribe()

	removed, err := h.engine.HideTopWidget(h.ctx)
	require.NoError(t, err)
	assert.False(t, removed)
	h.flush()
	assert.Empty(t, drain(events))
}

func TestEngine_HideAll(t *testing.T) {
	h := newHarness(t, nil)
	h.show()
	h.show()
	h.show()
	events := h.engine.Subscribe()

	// Lock the top widget so the scrim is up
	list, err := h.engine.Widgets(h.ctx)
	require.NoError(t, err)
	c := centre(list[2])
	h.tap(c)
	h.clock.Advance(50 * time.Millisecond)
	h.tap(c)
	require.Equal(t, 1, h.host.Count(overlay.KindScrim))

	n, err := h.engine.HideAllWidgets(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Empty(t, h.host.Views(), "scrim goes with the last locked widget")
	assert.Equal(t, []bool{true, true, false}, drain(events))
}

func TestEngine_DeleteDraggedWidget(t *testing.T) {
	h := newHarness(t, nil)
	bottom := h.show()
	top := h.show()

	start := model.Point{X: 540, Y: 960}
	h.host.Press(start)
	h.host.Drag(model.Point{X: 540, Y: 100})
	h.flush()
	assert.Equal(t, 1, h.host.Count(overlay.KindDeleteZone), "zone shown while in band")

	h.host.Drag(model.Point{X: 540, Y: 800})
	h.flush()
	assert.Equal(t, 0, h.host.Count(overlay.KindDeleteZone), "zone hidden when leaving band")

	h.host.Drag(model.Point{X: 540, Y: 100})
	h.host.Release(model.Point{X: 540, Y: 100})
	h.flush()

	assert.Equal(t, 0, h.host.Count(overlay.KindDeleteZone))
	list, err := h.engine.Widgets(h.ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, bottom, list[0].ID)
	assert.NotEqual(t, top, list[0].ID)
}

func TestEngine_DeleteTopLegacy(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Gesture.DeleteTarget = "top" })
	bottom := h.show()
	top := h.show()

	// Move the top widget out of the way
	h.drag(model.Point{X: 540, Y: 960}, model.Point{X: 540, Y: 1500})
	h.clock.Advance(time.Second)

	// Drop the bottom widget into the band; the top one is removed
	h.drag(model.Point{X: 540, Y: 960}, model.Point{X: 540, Y: 50})

	list, err := h.engine.Widgets(h.ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, bottom, list[0].ID)
	assert.NotEqual(t, top, list[0].ID)
	assert.Equal(t, model.Point{X: 490, Y: 0}, list[0].Position)
}

func TestEngine_DimRoundTrip(t *testing.T) {
	h := newHarness(t, nil)
	id := h.show()

	h.clock.Advance(2999 * time.Millisecond)
	h.flush()
	assert.Equal(t, 1.0, h.widget(id).Opacity)

	h.clock.Advance(time.Millisecond)
	h.flush()
	assert.Equal(t, 0.5, h.widget(id).Opacity)
	assert.Equal(t, 0.5, h.widgetViews()[0].Opacity)

	h.host.Press(model.Point{X: 540, Y: 960})
	h.flush()
	assert.Equal(t, 1.0, h.widget(id).Opacity)
	assert.Equal(t, 1.0, h.widgetViews()[0].Opacity)
	h.host.Release(model.Point{X: 540, Y: 960})

	h.clock.Advance(3 * time.Second)
	h.flush()
	assert.Equal(t, 0.5, h.widget(id).Opacity)
}

func TestEngine_DimAfterRemovalIsDiscarded(t *testing.T) {
	h := newHarness(t, nil)
	h.show()

	_, err := h.engine.HideTopWidget(h.ctx)
	require.NoError(t, err)
	h.clock.Advance(5 * time.Second)
	h.flush()
	assert.Zero(t, h.clock.Pending())
	assert.Empty(t, h.errs)
}

func TestEngine_PerWidgetDoubleTap(t *testing.T) {
	h := newHarness(t, nil)
	h.show()
	h.show()

	// Separate the widgets
	h.drag(model.Point{X: 540, Y: 960}, model.Point{X: 540, Y: 1500})
	h.clock.Advance(100 * time.Millisecond)

	// Tap the other widget quickly: different widget, no toggle
	h.tap(model.Point{X: 540, Y: 960})

	list, err := h.engine.Widgets(h.ctx)
	require.NoError(t, err)
	for _, w := range list {
		assert.False(t, w.Locked)
	}
}

func TestEngine_GlobalDoubleTap(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Gesture.DoubleTapScope = "global" })
	bottom := h.show()
	h.show()

	h.drag(model.Point{X: 540, Y: 960}, model.Point{X: 540, Y: 1500})
	h.clock.Advance(100 * time.Millisecond)
	h.tap(model.Point{X: 540, Y: 960})

	assert.True(t, h.widget(bottom).Locked)
}

func TestEngine_ViewLostOnLockIsPopped(t *testing.T) {
	h := newHarness(t, nil)
	h.show()
	events := h.engine.Subscribe()

	p := model.Point{X: 540, Y: 960}
	h.tap(p)
	h.clock.Advance(100 * time.Millisecond)

	// Scrim placement passes, re-placing the widget fails
	h.host.FailNext(overlay.OpPlace, nil)
	h.host.FailNext(overlay.OpPlace, errors.New("no surface"))
	h.tap(p)

	assert.False(t, h.engine.HasActiveWidget())
	assert.Empty(t, h.host.Views())
	assert.Equal(t, []bool{false}, drain(events))
	require.NotEmpty(t, h.errs)
}

func TestEngine_MoveFailureIsNonFatal(t *testing.T) {
	h := newHarness(t, nil)
	id := h.show()

	h.host.FailNext(overlay.OpUpdate, errors.New("busy"))
	h.drag(model.Point{X: 540, Y: 960}, model.Point{X: 600, Y: 1000})

	assert.Equal(t, model.Point{X: 550, Y: 950}, h.widget(id).Position)
	require.Len(t, h.errs, 1)
	var he *overlay.HostError
	assert.ErrorAs(t, h.errs[0], &he)
}

func TestEngine_CancelHidesZone(t *testing.T) {
	h := newHarness(t, nil)
	h.show()

	h.host.Press(model.Point{X: 540, Y: 960})
	h.host.Drag(model.Point{X: 540, Y: 10})
	h.flush()
	require.Equal(t, 1, h.host.Count(overlay.KindDeleteZone))

	h.host.Cancel()
	h.flush()
	assert.Equal(t, 0, h.host.Count(overlay.KindDeleteZone))
	assert.True(t, h.engine.HasActiveWidget())
}

func TestEngine_UpdateConfig(t *testing.T) {
	h := newHarness(t, nil)
	h.show()

	cfg := config.DefaultConfig()
	cfg.Widget.UnlockedGlyph = "●"
	cfg.Dimmer.IdleTimeout = config.Duration(time.Second)
	require.NoError(t, h.engine.UpdateConfig(h.ctx, cfg))
	assert.Equal(t, "●", h.widgetViews()[0].Glyph)

	// The new timeout applies from the next restart
	h.host.Press(model.Point{X: 540, Y: 960})
	h.host.Release(model.Point{X: 540, Y: 960})
	h.flush()
	h.clock.Advance(time.Second)
	h.flush()
	assert.Equal(t, 0.5, h.widgetViews()[0].Opacity)

	bad := config.DefaultConfig()
	bad.Widget.Size = 1
	assert.Error(t, h.engine.UpdateConfig(h.ctx, bad))
}

func TestEngine_Stopped(t *testing.T) {
	e := New(nil, overlay.NewMemoryHost(screen), overlay.NewSwitchPermission(true))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.NoError(t, e.Flush(context.Background()))
	events := e.Subscribe()
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	_, err := e.ShowWidget(context.Background())
	assert.ErrorIs(t, err, ErrStopped)

	_, ok := <-events
	assert.False(t, ok, "subscriptions close with the engine")

	assert.Error(t, e.Run(context.Background()), "run only once")
}

func TestEngine_InterleavedDragsStayPerWidget(t *testing.T) {
	h := newHarness(t, nil)
	a := h.show()
	b := h.show()
	start := h.widget(a).Position
	require.Equal(t, start, h.widget(b).Position)

	touch := func(id model.WidgetID, action model.TouchAction, x, y float64) {
		h.engine.Touch(id, model.TouchEvent{Action: action, Raw: model.Point{X: x, Y: y}})
	}
	touch(a, model.TouchDown, 540, 960)
	touch(b, model.TouchDown, 600, 1500)
	touch(a, model.TouchMove, 550, 970)
	touch(b, model.TouchMove, 570, 1505)
	touch(a, model.TouchUp, 550, 970)
	touch(b, model.TouchUp, 570, 1505)
	h.flush()

	wantA := start.Add(model.Point{X: 10, Y: 10})
	wantB := start.Add(model.Point{X: -30, Y: 5})
	assert.Equal(t, wantA, h.widget(a).Position)
	assert.Equal(t, wantB, h.widget(b).Position)

	var positions []model.Point
	for _, v := range h.widgetViews() {
		positions = append(positions, v.Position)
	}
	assert.ElementsMatch(t, []model.Point{wantA, wantB}, positions)
	assert.Empty(t, h.errs)
}

func TestEngine_DeleteZoneBelongsToDraggingWidget(t *testing.T) {
	h := newHarness(t, nil)
	a := h.show()
	b := h.show()

	touch := func(id model.WidgetID, action model.TouchAction, x, y float64) {
		h.engine.Touch(id, model.TouchEvent{Action: action, Raw: model.Point{X: x, Y: y}})
	}
	touch(a, model.TouchDown, 540, 960)
	touch(a, model.TouchMove, 540, 100)
	h.flush()
	require.Equal(t, 1, h.host.Count(overlay.KindDeleteZone))

	// Another widget's drag outside the band leaves a's indicator alone
	touch(b, model.TouchDown, 540, 960)
	touch(b, model.TouchMove, 540, 1200)
	touch(b, model.TouchUp, 540, 1200)
	h.flush()
	assert.Equal(t, 1, h.host.Count(overlay.KindDeleteZone))

	touch(a, model.TouchCancel, 540, 100)
	h.flush()
	assert.Equal(t, 0, h.host.Count(overlay.KindDeleteZone))
	assert.Len(t, h.widgetViews(), 2)
}

func TestEngine_TouchKeepsOrderWhenMailboxFull(t *testing.T) {
	h := newHarness(t, nil)
	id := h.show()
	start := h.widget(id).Position

	// Park the loop so the mailbox fills up
	release := make(chan struct{})
	parked := make(chan struct{})
	h.engine.post(func() {
		close(parked)
		<-release
	})
	<-parked

	const moves = 3 * mailboxSize
	h.engine.Touch(id, model.TouchEvent{Action: model.TouchDown, Raw: model.Point{X: 540, Y: 1500}})
	for i := 1; i <= moves; i++ {
		h.engine.Touch(id, model.TouchEvent{Action: model.TouchMove, Raw: model.Point{X: 540 + float64(i), Y: 1500}})
	}
	h.engine.Touch(id, model.TouchEvent{Action: model.TouchUp, Raw: model.Point{X: 540 + moves, Y: 1500}})
	close(release)

	require.Eventually(t, func() bool {
		h.engine.overflowMu.Lock()
		defer h.engine.overflowMu.Unlock()
		return !h.engine.forwarding
	}, 2*time.Second, 5*time.Millisecond)
	h.flush()

	assert.Equal(t, start.Add(model.Point{X: moves}), h.widget(id).Position)
	assert.Empty(t, h.errs)
}
