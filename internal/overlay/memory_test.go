package overlay

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/perch/internal/model"
)

var screen = model.Size{Width: 1080, Height: 1920}

func bubble(onTouch TouchFunc) View {
	return View{Kind: KindWidget, Glyph: "🔓", Size: model.Size{Width: 100, Height: 100}, Opacity: 1, OnTouch: onTouch}
}

func TestMemoryHost_PlaceUpdateRemove(t *testing.T) {
	h := NewMemoryHost(screen)

	handle, err := h.Place(bubble(nil), model.Point{X: 10, Y: 20})
	require.NoError(t, err)
	assert.NotZero(t, handle)

	require.NoError(t, h.Update(handle, model.Point{X: 30, Y: 40}))
	require.NoError(t, h.SetOpacity(handle, 0.5))
	require.NoError(t, h.SetGlyph(handle, "🔒"))

	v, ok := h.View(handle)
	require.True(t, ok)
	assert.Equal(t, model.Point{X: 30, Y: 40}, v.Position)
	assert.Equal(t, 0.5, v.Opacity)
	assert.Equal(t, "🔒", v.Glyph)

	require.NoError(t, h.Remove(handle))
	assert.Empty(t, h.Views())

	err = h.Remove(handle)
	var he *HostError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, OpRemove, he.Op)
	assert.ErrorIs(t, err, ErrUnknownView)
}

func TestMemoryHost_FailNext(t *testing.T) {
	h := NewMemoryHost(screen)
	boom := errors.New("boom")
	h.FailNext(OpPlace, boom)

	_, err := h.Place(bubble(nil), model.Point{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// One-shot
	_, err = h.Place(bubble(nil), model.Point{})
	assert.NoError(t, err)
}

func TestMemoryHost_NoScreen(t *testing.T) {
	h := NewMemoryHost(model.Size{})
	_, err := h.Place(bubble(nil), model.Point{})
	assert.ErrorIs(t, err, ErrNoScreen)
}

func TestMemoryHost_TouchCapture(t *testing.T) {
	h := NewMemoryHost(screen)

	var got []model.TouchEvent
	handle, err := h.Place(bubble(func(ev model.TouchEvent) { got = append(got, ev) }), model.Point{X: 100, Y: 100})
	require.NoError(t, err)

	assert.Equal(t, handle, h.Press(model.Point{X: 150, Y: 150}))
	// Moves outside the bounds still reach the captured view
	h.Drag(model.Point{X: 500, Y: 10})
	h.Release(model.Point{X: 500, Y: 10})

	require.Len(t, got, 3)
	assert.Equal(t, model.TouchDown, got[0].Action)
	assert.Equal(t, model.TouchMove, got[1].Action)
	assert.Equal(t, model.TouchUp, got[2].Action)
	assert.Equal(t, model.Point{X: 500, Y: 10}, got[2].Raw)
	assert.Zero(t, h.Captured())

	// Release with nothing captured is dropped
	h.Release(model.Point{})
	assert.Len(t, got, 3)
}

func TestMemoryHost_HitTestOrder(t *testing.T) {
	h := NewMemoryHost(screen)

	var hits []string
	_, err := h.Place(bubble(func(model.TouchEvent) { hits = append(hits, "bottom") }), model.Point{})
	require.NoError(t, err)
	top, err := h.Place(bubble(func(model.TouchEvent) { hits = append(hits, "top") }), model.Point{X: 50, Y: 50})
	require.NoError(t, err)

	assert.Equal(t, top, h.Tap(model.Point{X: 75, Y: 75}))
	assert.Equal(t, []string{"top", "top"}, hits)

	// Delete zone does not intercept
	_, err = h.Place(View{Kind: KindDeleteZone, Size: model.Size{Width: 1080, Height: 576}}, model.Point{})
	require.NoError(t, err)
	v, ok := h.HitTest(model.Point{X: 10, Y: 10})
	require.True(t, ok)
	assert.Equal(t, KindWidget, v.Kind)

	// A scrim swallows everything below it
	_, err = h.Place(View{Kind: KindScrim, Size: screen}, model.Point{})
	require.NoError(t, err)
	hits = nil
	h.Tap(model.Point{X: 75, Y: 75})
	assert.Empty(t, hits)
	assert.Equal(t, 1, h.Count(KindScrim))
}

func TestMemoryHost_RemoveDropsCapture(t *testing.T) {
	h := NewMemoryHost(screen)

	var n int
	handle, err := h.Place(bubble(func(model.TouchEvent) { n++ }), model.Point{})
	require.NoError(t, err)

	h.Press(model.Point{X: 1, Y: 1})
	require.NoError(t, h.Remove(handle))
	h.Drag(model.Point{X: 5, Y: 5})
	h.Release(model.Point{X: 5, Y: 5})
	assert.Equal(t, 1, n)
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(OpPlace, nil))

	base := errors.New("x")
	err := Wrap(OpPlace, base)
	var he *HostError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, OpPlace, he.Op)
	assert.Equal(t, "overlay place: x", err.Error())

	assert.Same(t, err, Wrap(OpRemove, err))
}

func TestSwitchPermission(t *testing.T) {
	p := NewSwitchPermission(false)
	assert.False(t, p.CanDrawOverlay())

	p.RequestOverlayPermission()
	assert.False(t, p.CanDrawOverlay())
	assert.Equal(t, 1, p.Requests())

	p.GrantOnRequest(true)
	p.RequestOverlayPermission()
	assert.True(t, p.CanDrawOverlay())
	assert.Equal(t, 2, p.Requests())

	p.Set(false)
	assert.False(t, p.CanDrawOverlay())
}

func TestKind(t *testing.T) {
	assert.Equal(t, "delete-zone", KindDeleteZone.String())
	assert.False(t, KindDeleteZone.Touchable())
	assert.True(t, KindScrim.Touchable())
}
