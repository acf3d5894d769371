// Package deletezone implements the band at the top of the screen that
// deletes a widget dropped into it.
package deletezone

import (
	"log/slog"

	"github.com/jmylchreest/perch/internal/model"
	"github.com/jmylchreest/perch/internal/overlay"
)

// DefaultFraction is the share of screen height covered by the band.
const DefaultFraction = 0.3

// Band is the geometric predicate for the delete zone.
type Band struct {
	Fraction float64
}

// ShouldShow reports whether a raw touch Y lies inside the band.
// Locked widgets never interact with the band.
func (b Band) ShouldShow(rawY, screenHeight float64, locked bool) bool {
	return !locked && rawY < b.Fraction*screenHeight
}

// Rect returns the band's screen rectangle.
func (b Band) Rect(screen model.Size) model.Rect {
	return model.Rect{
		Size: model.Size{Width: screen.Width, Height: b.Fraction * screen.Height},
	}
}

// Indicator shows and hides the visual band. Show and Hide are idempotent.
// Not safe for concurrent use; the engine calls it from its loop.
type Indicator struct {
	host   overlay.Host
	band   Band
	logger *slog.Logger
	view   model.ViewHandle
}

// NewIndicator creates a hidden indicator.
func NewIndicator(host overlay.Host, band Band, logger *slog.Logger) *Indicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indicator{host: host, band: band, logger: logger}
}

// Visible reports whether the band is currently shown.
func (i *Indicator) Visible() bool {
	return i.view != 0
}

// Band returns the band geometry.
func (i *Indicator) Band() Band {
	return i.band
}

// SetBand changes the geometry. A visible band is redrawn.
func (i *Indicator) SetBand(b Band) error {
	i.band = b
	if !i.Visible() {
		return nil
	}
	if err := i.Hide(); err != nil {
		return err
	}
	return i.Show()
}

// Show places the band if it is not already visible.
func (i *Indicator) Show() error {
	if i.view != 0 {
		return nil
	}
	r := i.band.Rect(i.host.Screen())
	h, err := i.host.Place(overlay.View{
		Kind:    overlay.KindDeleteZone,
		Size:    r.Size,
		Opacity: model.OpacityOpaque,
	}, r.Origin)
	if err != nil {
		return overlay.Wrap(overlay.OpPlace, err)
	}
	i.view = h
	i.logger.Debug("delete zone shown")
	return nil
}

// Hide removes the band if it is visible. The indicator is considered
// hidden afterwards even if the host failed to remove the view.
func (i *Indicator) Hide() error {
	if i.view == 0 {
		return nil
	}
	h := i.view
	i.view = 0
	if err := i.host.Remove(h); err != nil {
		return overlay.Wrap(overlay.OpRemove, err)
	}
	i.logger.Debug("delete zone hidden")
	return nil
}
