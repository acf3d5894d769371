package lock

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/perch/internal/model"
	"github.com/jmylchreest/perch/internal/overlay"
)

var screen = model.Size{Width: 1080, Height: 1920}

func glyph(locked bool) string {
	if locked {
		return "🔒"
	}
	return "🔓"
}

func viewFor(w *model.Widget) overlay.View {
	return overlay.View{
		Kind:    overlay.KindWidget,
		Glyph:   glyph(w.Locked),
		Size:    model.Size{Width: 100, Height: 100},
		Opacity: w.Opacity,
	}
}

func setup(t *testing.T) (*overlay.MemoryHost, *Controller) {
	t.Helper()
	host := overlay.NewMemoryHost(screen)
	return host, NewController(host, viewFor, glyph, DefaultScrimOpacity, nil)
}

func place(t *testing.T, host *overlay.MemoryHost, at model.Point) *model.Widget {
	t.Helper()
	id, err := model.NewWidgetID()
	require.NoError(t, err)
	w := model.NewWidget(id, at, time.Now())
	w.View, err = host.Place(viewFor(w), at)
	require.NoError(t, err)
	return w
}

func topKind(host *overlay.MemoryHost) overlay.Kind {
	views := host.Views()
	return views[len(views)-1].Kind
}

func TestToggle_RoundTrip(t *testing.T) {
	host, c := setup(t)
	w := place(t, host, model.Point{X: 120, Y: 230})
	w.Opacity = model.OpacityDimmed
	require.NoError(t, host.SetOpacity(w.View, w.Opacity))
	oldView := w.View

	require.NoError(t, c.Toggle(w))
	assert.True(t, w.Locked)
	assert.True(t, c.ScrimVisible())
	assert.NotEqual(t, oldView, w.View, "view is recreated")
	assert.Equal(t, model.Point{X: 120, Y: 230}, w.Position)

	v, ok := host.View(w.View)
	require.True(t, ok)
	assert.Equal(t, "🔒", v.Glyph)
	assert.Equal(t, model.OpacityOpaque, v.Opacity)
	assert.Equal(t, model.Point{X: 120, Y: 230}, v.Position)
	assert.Equal(t, overlay.KindWidget, topKind(host), "locked widget sits above the scrim")

	// Scrim covers the screen
	assert.Equal(t, 1, host.Count(overlay.KindScrim))

	require.NoError(t, c.Toggle(w))
	assert.False(t, w.Locked)
	assert.False(t, c.ScrimVisible())
	assert.Equal(t, 0, host.Count(overlay.KindScrim))

	v, ok = host.View(w.View)
	require.True(t, ok)
	assert.Equal(t, "🔓", v.Glyph)
	assert.Equal(t, model.Point{X: 120, Y: 230}, v.Position)
}

func TestToggle_SeveralLocked(t *testing.T) {
	host, c := setup(t)
	a := place(t, host, model.Point{X: 0, Y: 0})
	b := place(t, host, model.Point{X: 500, Y: 500})

	require.NoError(t, c.Toggle(a))
	require.NoError(t, c.Toggle(b))
	assert.Equal(t, 1, host.Count(overlay.KindScrim), "at most one scrim")
	assert.Equal(t, 2, c.LockedCount())

	// Both locked widgets must be reachable above the scrim
	for _, w := range []*model.Widget{a, b} {
		hit, ok := host.HitTest(model.Point{X: w.Position.X + 10, Y: w.Position.Y + 10})
		require.True(t, ok)
		assert.Equal(t, w.View, hit.Handle)
	}

	// Unlocking one keeps the scrim for the other
	require.NoError(t, c.Toggle(a))
	assert.True(t, c.ScrimVisible())

	require.NoError(t, c.Forget(b))
	assert.False(t, c.ScrimVisible())
	assert.Equal(t, 0, c.LockedCount())
}

func TestToggle_PlaceFailureLosesView(t *testing.T) {
	host, c := setup(t)
	w := place(t, host, model.Point{X: 10, Y: 10})

	// First place is the scrim, second the recreated widget
	host.FailNext(overlay.OpPlace, nil)
	host.FailNext(overlay.OpPlace, errors.New("no surface"))

	err := c.Toggle(w)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrViewLost)
	var he *overlay.HostError
	assert.ErrorAs(t, err, &he)
	assert.True(t, w.Locked, "flag flips even on failure")
	assert.False(t, w.HasView())
}

func TestToggle_RemoveFailureKeepsView(t *testing.T) {
	host, c := setup(t)
	w := place(t, host, model.Point{X: 10, Y: 10})
	view := w.View

	host.FailNext(overlay.OpRemove, errors.New("busy"))
	err := c.Toggle(w)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrViewLost)
	assert.Equal(t, view, w.View)

	v, ok := host.View(view)
	require.True(t, ok)
	assert.Equal(t, "🔒", v.Glyph)
}

func TestToggle_ScrimRemoveFailureKeepsSingleScrim(t *testing.T) {
	host, c := setup(t)
	a := place(t, host, model.Point{X: 10, Y: 10})
	b := place(t, host, model.Point{X: 200, Y: 10})
	require.NoError(t, c.Toggle(a))
	require.Equal(t, 1, host.Count(overlay.KindScrim))

	// The first remove is the old scrim when locking a second widget
	host.FailNext(overlay.OpRemove, errors.New("busy"))
	err := c.Toggle(b)
	require.Error(t, err)
	var he *overlay.HostError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, overlay.OpRemove, he.Op)

	assert.Equal(t, 1, host.Count(overlay.KindScrim))
	assert.True(t, c.ScrimVisible())
	assert.True(t, b.Locked)
	assert.True(t, b.HasView())
	assert.Equal(t, overlay.KindWidget, topKind(host))
}

func TestToggle_ScrimHideFailureRetries(t *testing.T) {
	host, c := setup(t)
	w := place(t, host, model.Point{X: 10, Y: 10})
	require.NoError(t, c.Toggle(w))

	host.FailNext(overlay.OpRemove, errors.New("busy"))
	require.Error(t, c.Toggle(w))
	assert.False(t, w.Locked)
	assert.True(t, c.ScrimVisible(), "scrim handle kept after a failed remove")
	assert.Equal(t, 1, host.Count(overlay.KindScrim))

	require.NoError(t, c.Toggle(w))
	assert.Equal(t, 1, host.Count(overlay.KindScrim))

	require.NoError(t, c.Toggle(w))
	assert.False(t, c.ScrimVisible())
	assert.Equal(t, 0, host.Count(overlay.KindScrim))
}

func TestForget_Unlocked(t *testing.T) {
	host, c := setup(t)
	w := place(t, host, model.Point{})
	assert.NoError(t, c.Forget(w))
	assert.False(t, c.ScrimVisible())
}

func TestSetScrimOpacity(t *testing.T) {
	host, c := setup(t)
	w := place(t, host, model.Point{})
	require.NoError(t, c.Toggle(w))

	require.NoError(t, c.SetScrimOpacity(0.8))
	for _, v := range host.Views() {
		if v.Kind == overlay.KindScrim {
			assert.Equal(t, 0.8, v.Opacity)
		}
	}
}
