package display

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/perch/internal/model"
	"github.com/jmylchreest/perch/internal/overlay"
)

func TestScreenSize_OverrideWithoutMonitor(t *testing.T) {
	got := screenSize(nil, model.Size{Width: 1080, Height: 1920})
	assert.Equal(t, model.Size{Width: 1080, Height: 1920}, got)
	assert.True(t, screenSize(nil, model.Size{}).IsZero())
}

func TestHost_ClosedFailsWithoutMainLoop(t *testing.T) {
	h := NewHost(nil, Options{}, nil)
	h.Close()
	h.Close()

	_, err := h.Place(overlay.View{Kind: overlay.KindWidget}, model.Point{})
	require.Error(t, err)
	var he *overlay.HostError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, overlay.OpPlace, he.Op)
	assert.ErrorIs(t, err, ErrClosed)

	assert.ErrorIs(t, h.Update(1, model.Point{}), ErrClosed)
	assert.ErrorIs(t, h.Remove(1), ErrClosed)
	assert.False(t, h.CanDrawOverlay())
	assert.True(t, h.Screen().IsZero())
}

func TestHost_PermissionRequestHook(t *testing.T) {
	h := NewHost(nil, Options{}, nil)
	h.RequestOverlayPermission()

	calls := 0
	h.OnPermissionRequest(func() { calls++ })
	h.RequestOverlayPermission()
	assert.Equal(t, 1, calls)
}
