package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/perch/internal/model"
)

// FilterOp represents a comparison operator.
type FilterOp string

const (
	FilterOpEqual     FilterOp = "="  // Exact match
	FilterOpNotEqual  FilterOp = "!=" // Not equal
	FilterOpGreater   FilterOp = ">"  // Greater than
	FilterOpLess      FilterOp = "<"  // Less than
	FilterOpGreaterEq FilterOp = ">=" // Greater than or equal
	FilterOpLessEq    FilterOp = "<=" // Less than or equal
)

// FilterCondition represents a single filter condition.
type FilterCondition struct {
	Field    string   // Field name: state, locked, opacity, x, y, touched, age
	Operator FilterOp // Comparison operator
	Value    string   // Value to compare against

	// Parsed values
	number  float64
	boolVal bool
	cutoff  time.Time
}

// FilterExpr represents a compound filter expression.
// Multiple conditions are ANDed together.
type FilterExpr struct {
	Conditions []FilterCondition
}

// ParseDuration parses a duration string with extended formats.
// Supports: 90s, 5m, 2h, 1d, 0 (no limit)
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "0" || s == "" {
		return 0, nil
	}
	if daysStr, found := strings.CutSuffix(s, "d"); found {
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// ParseFilter parses a filter expression relative to the current time.
// Format: "field=value,field2>value2". Conditions are comma-separated
// and ANDed together.
//
// Supported fields: state, locked, opacity, x, y, touched, age
//
// Examples:
//   - "state=locked" - locked widgets
//   - "opacity<1" - dimmed widgets
//   - "y<300" - widgets inside a 300px top band
//   - "touched>5m" - widgets not touched in the last five minutes
//   - "age>1h" - widgets created more than an hour ago
func ParseFilter(expr string) (*FilterExpr, error) {
	return ParseFilterAt(expr, time.Now())
}

// ParseFilterAt parses a filter expression with durations measured back
// from now.
func ParseFilterAt(expr string, now time.Time) (*FilterExpr, error) {
	filter := &FilterExpr{}
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cond, err := parseCondition(part, now)
		if err != nil {
			return nil, err
		}
		filter.Conditions = append(filter.Conditions, cond)
	}
	return filter, nil
}

func parseCondition(s string, now time.Time) (FilterCondition, error) {
	// Longest operators first so "!=" is not read as "=".
	operators := []FilterOp{
		FilterOpNotEqual,
		FilterOpGreaterEq,
		FilterOpLessEq,
		FilterOpEqual,
		FilterOpGreater,
		FilterOpLess,
	}

	for _, op := range operators {
		idx := strings.Index(s, string(op))
		if idx <= 0 {
			continue
		}
		cond := FilterCondition{
			Field:    strings.ToLower(strings.TrimSpace(s[:idx])),
			Operator: op,
			Value:    strings.TrimSpace(s[idx+len(op):]),
		}
		if err := cond.init(now); err != nil {
			return FilterCondition{}, err
		}
		return cond, nil
	}

	return FilterCondition{}, fmt.Errorf("invalid filter condition: %s (missing operator)", s)
}

func (c *FilterCondition) init(now time.Time) error {
	switch c.Field {
	case "state":
		switch strings.ToLower(c.Value) {
		case "locked", "dimmed", "idle":
			c.Value = strings.ToLower(c.Value)
		default:
			return fmt.Errorf("invalid state: %s (use locked, dimmed, or idle)", c.Value)
		}
		if c.Operator != FilterOpEqual && c.Operator != FilterOpNotEqual {
			return fmt.Errorf("state only supports = and !=")
		}
	case "locked", "lock":
		c.Field = "locked"
		b, err := strconv.ParseBool(c.Value)
		if err != nil {
			return fmt.Errorf("invalid locked value: %s", c.Value)
		}
		c.boolVal = b
		if c.Operator != FilterOpEqual && c.Operator != FilterOpNotEqual {
			return fmt.Errorf("locked only supports = and !=")
		}
	case "opacity", "alpha", "x", "y":
		if c.Field == "alpha" {
			c.Field = "opacity"
		}
		v, err := strconv.ParseFloat(c.Value, 64)
		if err != nil {
			return fmt.Errorf("invalid %s value: %s", c.Field, c.Value)
		}
		c.number = v
	case "touched", "age":
		dur, err := ParseDuration(c.Value)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", c.Field, err)
		}
		c.cutoff = now.Add(-dur)
	default:
		return fmt.Errorf("unknown filter field: %s", c.Field)
	}
	return nil
}

// Match tests if a widget matches the filter expression.
func (f *FilterExpr) Match(s model.Snapshot) bool {
	for _, cond := range f.Conditions {
		if !cond.Match(s) {
			return false
		}
	}
	return true
}

// Match tests if a widget matches this single condition.
func (c *FilterCondition) Match(s model.Snapshot) bool {
	switch c.Field {
	case "state":
		return (s.State() == c.Value) == (c.Operator == FilterOpEqual)
	case "locked":
		return (s.Locked == c.boolVal) == (c.Operator == FilterOpEqual)
	case "opacity":
		return c.matchNumber(s.Opacity)
	case "x":
		return c.matchNumber(s.Position.X)
	case "y":
		return c.matchNumber(s.Position.Y)
	case "touched":
		// A widget that was never touched is idle since creation.
		at := s.LastTouchAt
		if at.IsZero() {
			at = s.CreatedAt
		}
		return c.matchElapsed(at)
	case "age":
		return c.matchElapsed(s.CreatedAt)
	default:
		return false
	}
}

func (c *FilterCondition) matchNumber(v float64) bool {
	switch c.Operator {
	case FilterOpEqual:
		return v == c.number
	case FilterOpNotEqual:
		return v != c.number
	case FilterOpGreater:
		return v > c.number
	case FilterOpLess:
		return v < c.number
	case FilterOpGreaterEq:
		return v >= c.number
	case FilterOpLessEq:
		return v <= c.number
	default:
		return false
	}
}

// matchElapsed compares the time since at with the condition's duration:
// "age>1h" means more than an hour has passed, "touched<5m" means the
// widget was touched within the last five minutes.
func (c *FilterCondition) matchElapsed(at time.Time) bool {
	switch c.Operator {
	case FilterOpGreater:
		return at.Before(c.cutoff)
	case FilterOpGreaterEq:
		return !at.After(c.cutoff)
	case FilterOpLess:
		return at.After(c.cutoff)
	case FilterOpLessEq:
		return !at.Before(c.cutoff)
	default:
		return false
	}
}

// FilterWithExpr returns the widgets matching expr, preserving order.
func FilterWithExpr(widgets []model.Snapshot, expr *FilterExpr) []model.Snapshot {
	if expr == nil || len(expr.Conditions) == 0 {
		return widgets
	}
	result := make([]model.Snapshot, 0, len(widgets))
	for _, s := range widgets {
		if expr.Match(s) {
			result = append(result, s)
		}
	}
	return result
}

// Limit keeps at most the first n widgets. n <= 0 keeps all.
func Limit(widgets []model.Snapshot, n int) []model.Snapshot {
	if n <= 0 || len(widgets) <= n {
		return widgets
	}
	return widgets[:n]
}
