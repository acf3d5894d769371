package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jmylchreest/perch/internal/model"
)

// SortField represents a field to sort by.
type SortField string

const (
	SortByStack   SortField = "stack"   // Push order, as the daemon reports it
	SortByTouched SortField = "touched" // Last touch, never-touched first
	SortByOpacity SortField = "opacity"
	SortByY       SortField = "y" // Vertical position, top of the screen first
)

// SortOrder represents ascending or descending order.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOptions specifies sorting criteria.
type SortOptions struct {
	Field SortField
	Order SortOrder
}

// DefaultSortOptions keeps stack order, bottom first.
func DefaultSortOptions() SortOptions {
	return SortOptions{
		Field: SortByStack,
		Order: SortAsc,
	}
}

// Sort sorts widgets in place. Stack order is the order of the input, so
// ascending stack sort is a no-op and descending reverses it.
func Sort(widgets []model.Snapshot, opts SortOptions) {
	if len(widgets) < 2 {
		return
	}

	if opts.Field == SortByStack || opts.Field == "" {
		if opts.Order == SortDesc {
			for i, j := 0, len(widgets)-1; i < j; i, j = i+1, j-1 {
				widgets[i], widgets[j] = widgets[j], widgets[i]
			}
		}
		return
	}

	sort.SliceStable(widgets, func(i, j int) bool {
		a, b := widgets[i], widgets[j]
		if opts.Order == SortDesc {
			a, b = b, a
		}
		switch opts.Field {
		case SortByTouched:
			return a.LastTouchAt.Before(b.LastTouchAt)
		case SortByOpacity:
			return a.Opacity < b.Opacity
		case SortByY:
			return a.Position.Y < b.Position.Y
		default:
			return false
		}
	})
}

// ParseSortField parses a sort field string.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stack", "s":
		return SortByStack, nil
	case "touched", "touch", "t":
		return SortByTouched, nil
	case "opacity", "o":
		return SortByOpacity, nil
	case "y", "position", "pos":
		return SortByY, nil
	default:
		return "", fmt.Errorf("invalid sort field: %s (use stack, touched, opacity, or y)", s)
	}
}

// ParseSortOrder parses a sort order string.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending", "a":
		return SortAsc, nil
	case "desc", "descending", "d":
		return SortDesc, nil
	default:
		return "", fmt.Errorf("invalid sort order: %s (use asc or desc)", s)
	}
}
