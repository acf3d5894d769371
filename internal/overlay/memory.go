package overlay

import (
	"sync"

	"github.com/jmylchreest/perch/internal/model"
)

// MemoryView is a snapshot of a view held by a MemoryHost.
type MemoryView struct {
	Handle   model.ViewHandle
	Kind     Kind
	Glyph    string
	Size     model.Size
	Opacity  float64
	Position model.Point
}

// Bounds returns the screen rectangle covered by the view.
func (v MemoryView) Bounds() model.Rect {
	return model.Rect{Origin: v.Position, Size: v.Size}
}

type memView struct {
	MemoryView
	onTouch TouchFunc
}

// MemoryHost is an in-memory Host acting as a virtual touchscreen.
// Views are kept in z-order; the last placed view is on top. Touches are
// hit-tested against touchable views and the view under the initial press
// captures the pointer until release.
type MemoryHost struct {
	mu       sync.Mutex
	screen   model.Size
	next     model.ViewHandle
	views    []*memView
	failures map[string][]error
	captured model.ViewHandle
}

// NewMemoryHost creates a virtual screen of the given size.
func NewMemoryHost(screen model.Size) *MemoryHost {
	return &MemoryHost{
		screen:   screen,
		failures: make(map[string][]error),
	}
}

// FailNext makes the next call of op return err. Calls queue up; a nil
// err lets that call through, which allows failing a later one.
func (h *MemoryHost) FailNext(op string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures[op] = append(h.failures[op], err)
}

// failLocked pops an injected failure for op.
func (h *MemoryHost) failLocked(op string) error {
	q := h.failures[op]
	if len(q) == 0 {
		return nil
	}
	err := q[0]
	h.failures[op] = q[1:]
	if err == nil {
		return nil
	}
	return &HostError{Op: op, Err: err}
}

func (h *MemoryHost) findLocked(handle model.ViewHandle) (int, *memView) {
	for i, v := range h.views {
		if v.Handle == handle {
			return i, v
		}
	}
	return -1, nil
}

// Place adds a view on top of all others.
func (h *MemoryHost) Place(v View, at model.Point) (model.ViewHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.failLocked(OpPlace); err != nil {
		return 0, err
	}
	if h.screen.IsZero() {
		return 0, &HostError{Op: OpPlace, Err: ErrNoScreen}
	}

	h.next++
	h.views = append(h.views, &memView{
		MemoryView: MemoryView{
			Handle:   h.next,
			Kind:     v.Kind,
			Glyph:    v.Glyph,
			Size:     v.Size,
			Opacity:  v.Opacity,
			Position: at,
		},
		onTouch: v.OnTouch,
	})
	return h.next, nil
}

// Update moves a view.
func (h *MemoryHost) Update(handle model.ViewHandle, at model.Point) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.failLocked(OpUpdate); err != nil {
		return err
	}
	_, v := h.findLocked(handle)
	if v == nil {
		return &HostError{Op: OpUpdate, Err: ErrUnknownView}
	}
	v.Position = at
	return nil
}

// SetOpacity changes a view's alpha.
func (h *MemoryHost) SetOpacity(handle model.ViewHandle, opacity float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.failLocked(OpOpacity); err != nil {
		return err
	}
	_, v := h.findLocked(handle)
	if v == nil {
		return &HostError{Op: OpOpacity, Err: ErrUnknownView}
	}
	v.Opacity = opacity
	return nil
}

// SetGlyph changes a view's text.
func (h *MemoryHost) SetGlyph(handle model.ViewHandle, glyph string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.failLocked(OpGlyph); err != nil {
		return err
	}
	_, v := h.findLocked(handle)
	if v == nil {
		return &HostError{Op: OpGlyph, Err: ErrUnknownView}
	}
	v.Glyph = glyph
	return nil
}

// Remove deletes a view. A captured pointer on that view is dropped.
func (h *MemoryHost) Remove(handle model.ViewHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.failLocked(OpRemove); err != nil {
		return err
	}
	i, _ := h.findLocked(handle)
	if i < 0 {
		return &HostError{Op: OpRemove, Err: ErrUnknownView}
	}
	h.views = append(h.views[:i], h.views[i+1:]...)
	if h.captured == handle {
		h.captured = 0
	}
	return nil
}

// Screen returns the virtual screen size.
func (h *MemoryHost) Screen() model.Size {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.screen
}

// Views returns all views bottom to top.
func (h *MemoryHost) Views() []MemoryView {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]MemoryView, len(h.views))
	for i, v := range h.views {
		out[i] = v.MemoryView
	}
	return out
}

// View returns the view with the given handle.
func (h *MemoryHost) View(handle model.ViewHandle) (MemoryView, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, v := h.findLocked(handle)
	if v == nil {
		return MemoryView{}, false
	}
	return v.MemoryView, true
}

// Count returns the number of live views of a kind.
func (h *MemoryHost) Count(kind Kind) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, v := range h.views {
		if v.Kind == kind {
			n++
		}
	}
	return n
}

// HitTest returns the topmost touchable view containing p.
func (h *MemoryHost) HitTest(p model.Point) (MemoryView, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if v := h.hitLocked(p); v != nil {
		return v.MemoryView, true
	}
	return MemoryView{}, false
}

func (h *MemoryHost) hitLocked(p model.Point) *memView {
	for i := len(h.views) - 1; i >= 0; i-- {
		v := h.views[i]
		if v.Kind.Touchable() && v.Bounds().Contains(p) {
			return v
		}
	}
	return nil
}

// Press starts a touch at p. The topmost touchable view under p captures
// the pointer and receives a down event. It returns the captured handle,
// or zero when nothing was hit.
func (h *MemoryHost) Press(p model.Point) model.ViewHandle {
	h.mu.Lock()
	v := h.hitLocked(p)
	if v == nil {
		h.captured = 0
		h.mu.Unlock()
		return 0
	}
	h.captured = v.Handle
	fn := v.onTouch
	h.mu.Unlock()

	deliver(fn, model.TouchDown, p)
	return v.Handle
}

// Drag moves the captured pointer to p.
func (h *MemoryHost) Drag(p model.Point) {
	deliver(h.capturedFunc(false), model.TouchMove, p)
}

// Release lifts the captured pointer at p.
func (h *MemoryHost) Release(p model.Point) {
	deliver(h.capturedFunc(true), model.TouchUp, p)
}

// Cancel aborts the current touch without a release.
func (h *MemoryHost) Cancel() {
	deliver(h.capturedFunc(true), model.TouchCancel, model.Point{})
}

// Tap presses and releases at p.
func (h *MemoryHost) Tap(p model.Point) model.ViewHandle {
	handle := h.Press(p)
	h.Release(p)
	return handle
}

// Captured returns the view holding the pointer, or zero.
func (h *MemoryHost) Captured() model.ViewHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.captured
}

func (h *MemoryHost) capturedFunc(release bool) TouchFunc {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.captured == 0 {
		return nil
	}
	_, v := h.findLocked(h.captured)
	if release {
		h.captured = 0
	}
	if v == nil {
		return nil
	}
	return v.onTouch
}

// deliver runs outside the host lock so handlers may call back into the host.
func deliver(fn TouchFunc, action model.TouchAction, p model.Point) {
	if fn == nil {
		return
	}
	fn(model.TouchEvent{Action: action, Raw: p})
}

// SwitchPermission is a Permission whose grant can be flipped at runtime.
type SwitchPermission struct {
	mu             sync.Mutex
	granted        bool
	grantOnRequest bool
	requests       int
}

// NewSwitchPermission returns a permission in the given state.
func NewSwitchPermission(granted bool) *SwitchPermission {
	return &SwitchPermission{granted: granted}
}

// CanDrawOverlay reports the current grant.
func (p *SwitchPermission) CanDrawOverlay() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.granted
}

// RequestOverlayPermission counts the request and grants it if configured to.
func (p *SwitchPermission) RequestOverlayPermission() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests++
	if p.grantOnRequest {
		p.granted = true
	}
}

// GrantOnRequest makes future requests succeed immediately.
func (p *SwitchPermission) GrantOnRequest(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.grantOnRequest = v
}

// Set changes the grant.
func (p *SwitchPermission) Set(granted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.granted = granted
}

// Requests returns how many times permission was requested.
func (p *SwitchPermission) Requests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests
}
