package display

import (
	"errors"
	"log/slog"
	"sync"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/perch/internal/model"
	"github.com/jmylchreest/perch/internal/overlay"
	"github.com/jmylchreest/perch/internal/theme"
)

// ErrClosed is returned by operations on a closed host.
var ErrClosed = errors.New("display host closed")

// ErrNoLayerShell is returned when the compositor lacks wlr-layer-shell.
var ErrNoLayerShell = errors.New("compositor does not support wlr-layer-shell")

// Options tune the host. They can be changed at runtime with SetOptions.
type Options struct {
	Screen      model.Size // Non-zero axes override the monitor geometry
	Monitor     int        // 0 = first, 1+ = specific monitor
	LockedGlyph string     // Widgets showing this glyph get the locked class
}

// surface is one layer-shell window. Only touched on the main loop.
type surface struct {
	window *gtk.Window
	label  *gtk.Label
	view   overlay.View
	pos    model.Point
	start  model.Point // Press point in surface coordinates
	active bool        // Between drag-begin and drag-end or cancel
}

// Host paints overlay views as layer-shell surfaces. It implements both
// overlay.Host and overlay.Permission.
type Host struct {
	app    *gtk.Application
	logger *slog.Logger

	mu        sync.Mutex
	opts      Options
	closed    bool
	quit      chan struct{}
	onRequest func()

	next     model.ViewHandle
	surfaces map[model.ViewHandle]*surface
}

// NewHost creates a host drawing surfaces for app.
func NewHost(app *gtk.Application, opts Options, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		app:      app,
		logger:   logger,
		opts:     opts,
		quit:     make(chan struct{}),
		surfaces: make(map[model.ViewHandle]*surface),
	}
}

// SetOptions replaces the host options. Live surfaces keep their
// position; the locked class follows on the next glyph change.
func (h *Host) SetOptions(opts Options) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opts = opts
}

// OnPermissionRequest sets what RequestOverlayPermission does. Layer
// shell support cannot be granted at runtime, so the daemon uses it to
// tell the user.
func (h *Host) OnPermissionRequest(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRequest = fn
}

func (h *Host) options() (Options, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.opts, h.closed
}

// invoke runs fn on the main loop and waits for it.
func (h *Host) invoke(fn func() error) error {
	if _, closed := h.options(); closed {
		return ErrClosed
	}
	done := make(chan error, 1)
	glib.IdleAdd(func() {
		if _, closed := h.options(); closed {
			done <- ErrClosed
			return
		}
		done <- fn()
	})
	select {
	case err := <-done:
		return err
	case <-h.quit:
		return ErrClosed
	}
}

// CanDrawOverlay reports whether the compositor supports layer-shell.
func (h *Host) CanDrawOverlay() bool {
	var ok bool
	_ = h.invoke(func() error {
		ok = layershell.IsSupported()
		return nil
	})
	return ok
}

// RequestOverlayPermission runs the configured request hook.
func (h *Host) RequestOverlayPermission() {
	h.mu.Lock()
	fn := h.onRequest
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Screen returns the size of the configured monitor.
func (h *Host) Screen() model.Size {
	var size model.Size
	_ = h.invoke(func() error {
		opts, _ := h.options()
		size = screenSize(selectMonitor(gdk.DisplayGetDefault(), opts.Monitor, h.logger), opts.Screen)
		return nil
	})
	return size
}

// Place maps a new surface above all existing ones.
func (h *Host) Place(v overlay.View, at model.Point) (model.ViewHandle, error) {
	var handle model.ViewHandle
	err := h.invoke(func() error {
		if !layershell.IsSupported() {
			return ErrNoLayerShell
		}
		opts, _ := h.options()
		monitor := selectMonitor(gdk.DisplayGetDefault(), opts.Monitor, h.logger)
		if monitor == nil {
			return overlay.ErrNoScreen
		}

		s := h.newSurface(v, at, monitor, opts)
		h.next++
		handle = h.next
		h.surfaces[handle] = s
		s.window.Present()

		h.logger.Debug("placed surface", "handle", handle, "kind", v.Kind, "x", at.X, "y", at.Y)
		return nil
	})
	return handle, overlay.Wrap(overlay.OpPlace, err)
}

// Update moves a surface by changing its margins.
func (h *Host) Update(handle model.ViewHandle, at model.Point) error {
	return overlay.Wrap(overlay.OpUpdate, h.invoke(func() error {
		s, ok := h.surfaces[handle]
		if !ok {
			return overlay.ErrUnknownView
		}
		s.pos = at
		s.applyPosition()
		return nil
	}))
}

// SetOpacity changes the opacity of a surface.
func (h *Host) SetOpacity(handle model.ViewHandle, opacity float64) error {
	return overlay.Wrap(overlay.OpOpacity, h.invoke(func() error {
		s, ok := h.surfaces[handle]
		if !ok {
			return overlay.ErrUnknownView
		}
		s.view.Opacity = opacity
		s.window.SetOpacity(opacity)
		return nil
	}))
}

// SetGlyph changes the text of a surface.
func (h *Host) SetGlyph(handle model.ViewHandle, glyph string) error {
	return overlay.Wrap(overlay.OpGlyph, h.invoke(func() error {
		s, ok := h.surfaces[handle]
		if !ok {
			return overlay.ErrUnknownView
		}
		opts, _ := h.options()
		s.view.Glyph = glyph
		s.label.SetText(glyph)
		s.applyLockedClass(opts.LockedGlyph)
		return nil
	}))
}

// Remove destroys a surface.
func (h *Host) Remove(handle model.ViewHandle) error {
	return overlay.Wrap(overlay.OpRemove, h.invoke(func() error {
		s, ok := h.surfaces[handle]
		if !ok {
			return overlay.ErrUnknownView
		}
		delete(h.surfaces, handle)
		s.window.Destroy()
		h.logger.Debug("removed surface", "handle", handle, "kind", s.view.Kind)
		return nil
	}))
}

// Close destroys every surface and fails all later operations. It must
// be called on the main loop.
func (h *Host) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.quit)
	h.mu.Unlock()

	for handle, s := range h.surfaces {
		s.window.Destroy()
		delete(h.surfaces, handle)
	}
}

func (h *Host) newSurface(v overlay.View, at model.Point, monitor *gdk.Monitor, opts Options) *surface {
	s := &surface{view: v, pos: at}

	s.window = gtk.NewWindow()
	s.window.SetApplication(h.app)
	s.window.SetDecorated(false)
	s.window.SetResizable(false)
	s.window.SetDefaultSize(int(v.Size.Width), int(v.Size.Height))
	s.window.SetSizeRequest(int(v.Size.Width), int(v.Size.Height))
	s.window.AddCSSClass(theme.ClassSurface)
	if !theme.IsDark() {
		s.window.AddCSSClass(theme.ClassLight)
	}

	layershell.InitForWindow(s.window)
	layershell.SetLayer(s.window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(s.window, -1) // Screen coordinates, ignore panels
	layershell.SetKeyboardMode(s.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(s.window, "perch-"+v.Kind.String())
	layershell.SetMonitor(s.window, monitor)
	layershell.SetAnchor(s.window, layershell.LayerShellEdgeTop, true)
	layershell.SetAnchor(s.window, layershell.LayerShellEdgeLeft, true)
	s.applyPosition()

	s.label = gtk.NewLabel(v.Glyph)
	s.label.AddCSSClass(theme.ClassFor(v.Kind))
	s.label.SetHExpand(true)
	s.label.SetVExpand(true)
	s.window.SetChild(s.label)
	s.window.SetOpacity(v.Opacity)
	s.applyLockedClass(opts.LockedGlyph)

	switch {
	case !v.Kind.Touchable():
		s.window.SetCanTarget(false)
	case v.OnTouch != nil:
		s.connectTouch()
	}
	return s
}

func (s *surface) applyPosition() {
	layershell.SetMargin(s.window, layershell.LayerShellEdgeTop, int(s.pos.Y))
	layershell.SetMargin(s.window, layershell.LayerShellEdgeLeft, int(s.pos.X))
}

func (s *surface) applyLockedClass(lockedGlyph string) {
	if s.view.Kind != overlay.KindWidget {
		return
	}
	if lockedGlyph != "" && s.view.Glyph == lockedGlyph {
		s.label.AddCSSClass(theme.ClassLocked)
	} else {
		s.label.RemoveCSSClass(theme.ClassLocked)
	}
}

// connectTouch turns drag gestures into raw screen events. Offsets are
// relative to the surface, which moves during a drag, so the raw point is
// the current surface position plus the press point plus the offset.
func (s *surface) connectTouch() {
	drag := gtk.NewGestureDrag()
	drag.SetButton(0)

	raw := func(dx, dy float64) model.Point {
		return s.pos.Add(s.start).Add(model.Point{X: dx, Y: dy})
	}

	drag.ConnectDragBegin(func(x, y float64) {
		s.start = model.Point{X: x, Y: y}
		s.active = true
		s.view.OnTouch(model.TouchEvent{Action: model.TouchDown, Raw: raw(0, 0)})
	})
	drag.ConnectDragUpdate(func(dx, dy float64) {
		if s.active {
			s.view.OnTouch(model.TouchEvent{Action: model.TouchMove, Raw: raw(dx, dy)})
		}
	})
	drag.ConnectDragEnd(func(dx, dy float64) {
		if s.active {
			s.active = false
			s.view.OnTouch(model.TouchEvent{Action: model.TouchUp, Raw: raw(dx, dy)})
		}
	})
	drag.ConnectCancel(func(*gdk.EventSequence) {
		if s.active {
			s.active = false
			s.view.OnTouch(model.TouchEvent{Action: model.TouchCancel, Raw: raw(0, 0)})
		}
	})

	s.window.AddController(drag)
}

var (
	_ overlay.Host       = (*Host)(nil)
	_ overlay.Permission = (*Host)(nil)
)
