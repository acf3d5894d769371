package display

import (
	"log/slog"
	"unsafe"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"

	"github.com/jmylchreest/perch/internal/model"
)

// selectMonitor returns the monitor to draw on.
// Config values:
// - 0: first monitor
// - 1+: specific monitor (1-indexed)
//
// An unavailable monitor falls back to the first one.
func selectMonitor(display *gdk.Display, index int, logger *slog.Logger) *gdk.Monitor {
	if display == nil {
		return nil
	}
	monitors := display.Monitors()
	if monitors == nil || monitors.NItems() == 0 {
		return nil
	}

	i := uint(0)
	if index > 0 {
		i = uint(index - 1)
	}
	if i >= monitors.NItems() {
		logger.Warn("configured monitor not available, using first",
			"configured", index,
			"available", monitors.NItems(),
		)
		i = 0
	}
	return wrapMonitor(monitors.Item(i))
}

// wrapMonitor wraps a list item as a gdk.Monitor. gotk4 does not export
// its own wrapper; gdk.Monitor embeds *glib.Object so the layout matches.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}

// screenSize resolves the drawable size. Non-zero overrides win per axis.
func screenSize(monitor *gdk.Monitor, override model.Size) model.Size {
	size := override
	if monitor != nil && (size.Width == 0 || size.Height == 0) {
		geom := monitor.Geometry()
		if size.Width == 0 {
			size.Width = float64(geom.Width())
		}
		if size.Height == 0 {
			size.Height = float64(geom.Height())
		}
	}
	return size
}
