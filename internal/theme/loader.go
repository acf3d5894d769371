package theme

import (
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Loader owns the GTK CSS provider for perch surfaces. All methods must be
// called on the GTK main thread.
type Loader struct {
	mu       sync.Mutex
	logger   *slog.Logger
	provider *gtk.CSSProvider
	userDir  string
	theme    *Theme
	applied  bool
}

// NewLoader creates a loader reading user themes from ThemesDir.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	dir, err := ThemesDir()
	if err != nil {
		logger.Warn("failed to get themes directory", "error", err)
	}
	return &Loader{
		logger:   logger,
		provider: gtk.NewCSSProvider(),
		userDir:  dir,
	}
}

// Load resolves a theme and loads it into the provider.
func (l *Loader) Load(name string) *Theme {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, err := Resolve(name, l.userDir)
	if err != nil {
		l.logger.Warn("theme not found, using default", "theme", name)
	}
	l.provider.LoadFromString(t.CSS)
	l.theme = t
	l.logger.Info("loaded theme", "name", t.Name, "bundled", t.Bundled)
	return t
}

// Current returns the loaded theme.
func (l *Loader) Current() *Theme {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.theme
}

// Apply attaches the provider to the display once.
func (l *Loader) Apply(display *gdk.Display) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.applied {
		return
	}
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply theme")
		return
	}
	gtk.StyleContextAddProviderForDisplay(display, l.provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
	l.applied = true
}

// ApplyColorScheme forces light or dark, or follows the system.
func ApplyColorScheme(scheme string) {
	sm := adw.StyleManagerGetDefault()
	switch scheme {
	case "light":
		sm.SetColorScheme(adw.ColorSchemeForceLight)
	case "dark":
		sm.SetColorScheme(adw.ColorSchemeForceDark)
	default:
		sm.SetColorScheme(adw.ColorSchemeDefault)
	}
}

// IsDark reports whether the effective color scheme is dark.
func IsDark() bool {
	return adw.StyleManagerGetDefault().Dark()
}
