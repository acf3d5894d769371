// Package core provides filtering, sorting, and lookup logic for widget
// listings.
package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmylchreest/perch/internal/model"
)

// ErrNotFound is returned when a reference matches no widget.
var ErrNotFound = errors.New("no matching widget")

// ErrAmbiguous is returned when a reference matches more than one widget.
var ErrAmbiguous = errors.New("reference matches more than one widget")

// LookupByID finds a widget by its full ID. Returns nil if not found.
func LookupByID(widgets []model.Snapshot, id model.WidgetID) *model.Snapshot {
	for i := range widgets {
		if widgets[i].ID == id {
			return &widgets[i]
		}
	}
	return nil
}

// LookupByIndex finds a widget by its index (1-based, bottom of the stack
// first, as listings print it). Returns nil if index is out of bounds.
func LookupByIndex(widgets []model.Snapshot, index int) *model.Snapshot {
	idx := index - 1
	if idx < 0 || idx >= len(widgets) {
		return nil
	}
	return &widgets[idx]
}

// Resolve turns a user reference into a widget. A reference is a listing
// index, a full ID, or the short form printed by listings. IDs compare
// case-insensitively since ULIDs are upper case.
func Resolve(widgets []model.Snapshot, ref string) (*model.Snapshot, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty widget reference")
	}

	// Short IDs can be all digits, so an out-of-range index falls through.
	if n, err := strconv.Atoi(ref); err == nil {
		if s := LookupByIndex(widgets, n); s != nil {
			return s, nil
		}
	}

	upper := strings.ToUpper(ref)
	if s := LookupByID(widgets, model.WidgetID(upper)); s != nil {
		return s, nil
	}

	var found *model.Snapshot
	for i := range widgets {
		id := string(widgets[i].ID)
		if !strings.HasSuffix(id, upper) && !strings.HasPrefix(id, upper) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguous, ref)
		}
		found = &widgets[i]
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return found, nil
}

// Top returns the most recently pushed widget, or nil for an empty list.
func Top(widgets []model.Snapshot) *model.Snapshot {
	if len(widgets) == 0 {
		return nil
	}
	return &widgets[len(widgets)-1]
}
