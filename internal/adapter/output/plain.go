package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/jmylchreest/perch/internal/model"
)

// PlainFormatter formats widgets as human readable text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	return &PlainFormatter{opts: opts, template: parseTemplate("plain", opts.Template)}
}

// Format writes one block per widget.
func (f *PlainFormatter) Format(w io.Writer, widgets []model.Snapshot) error {
	if len(widgets) == 0 {
		_, err := fmt.Fprintln(w, "no widgets")
		return err
	}

	now := f.opts.now()
	for i, s := range widgets {
		if f.template != nil {
			if err := f.template.Execute(w, newTemplateData(i+1, s, now)); err != nil {
				return err
			}
			continue
		}

		var sb strings.Builder
		if f.opts.ShowIndex {
			sb.WriteString(fmt.Sprintf("[%d] ", i+1))
		}
		sb.WriteString(fmt.Sprintf("%s  %s  at %.0f,%.0f  opacity %.0f%%",
			s.ID.Short(), stateName(s), s.Position.X, s.Position.Y, s.Opacity*100))
		if i == len(widgets)-1 {
			sb.WriteString("  (top)")
		}
		sb.WriteString("\n")
		if f.opts.ShowTime {
			sb.WriteString(fmt.Sprintf("    created %s, last touched %s\n",
				relativeTime(s.CreatedAt, now), relativeTime(s.LastTouchAt, now)))
		}
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}
