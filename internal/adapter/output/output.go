// Package output provides output formatters for widget listings.
package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/perch/internal/model"
)

// Formatter formats widget snapshots for output.
type Formatter interface {
	// Format writes the widgets, bottom to top, to the writer.
	Format(w io.Writer, widgets []model.Snapshot) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatDmenu FormatType = "dmenu"
	FormatIDs   FormatType = "ids"
)

// FormatTypes lists the accepted format names.
func FormatTypes() []FormatType {
	return []FormatType{FormatPlain, FormatJSON, FormatYAML, FormatDmenu, FormatIDs}
}

// ParseFormat validates a format name.
func ParseFormat(name string) (FormatType, error) {
	for _, f := range FormatTypes() {
		if string(f) == strings.ToLower(name) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of %v)", name, FormatTypes())
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatIDs:
		return IDsFormatter{}
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template  string           // Custom template for dmenu/plain format
	ShowIndex bool             // Show 1-based index prefix
	ShowTime  bool             // Show widget age
	Separator string           // Field separator for dmenu format
	Now       func() time.Time // Reference time for ages, time.Now if nil
}

// DefaultFormatterOptions returns the defaults used by the CLI.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex: true,
		ShowTime:  true,
		Separator: " | ",
	}
}

func (o FormatterOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// relativeTime renders t relative to now, e.g. "3 minutes ago".
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// templateData provides data for custom templates.
type templateData struct {
	Index   int
	Widget  model.Snapshot
	Age     string
	Touched string
}

func newTemplateData(index int, s model.Snapshot, now time.Time) templateData {
	return templateData{
		Index:   index,
		Widget:  s,
		Age:     relativeTime(s.CreatedAt, now),
		Touched: relativeTime(s.LastTouchAt, now),
	}
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"state":   stateName,
		"percent": func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
		"coords":  func(p model.Point) string { return fmt.Sprintf("%.0f,%.0f", p.X, p.Y) },
	}
}

func parseTemplate(name, text string) *template.Template {
	if text == "" {
		return nil
	}
	tmpl, err := template.New(name).Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return nil
	}
	return tmpl
}

func stateName(s model.Snapshot) string {
	return s.State()
}

// FormatField outputs a specific field of a widget.
func FormatField(s model.Snapshot, field string) string {
	switch strings.ToLower(field) {
	case "id":
		return string(s.ID)
	case "short", "short_id":
		return s.ID.Short()
	case "x":
		return fmt.Sprintf("%.0f", s.Position.X)
	case "y":
		return fmt.Sprintf("%.0f", s.Position.Y)
	case "position", "pos":
		return fmt.Sprintf("%.0f,%.0f", s.Position.X, s.Position.Y)
	case "locked":
		return fmt.Sprintf("%t", s.Locked)
	case "opacity":
		return fmt.Sprintf("%.2f", s.Opacity)
	case "state":
		return stateName(s)
	default:
		return string(s.ID)
	}
}
