package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/jmylchreest/perch/internal/model"
)

// DmenuFormatter formats widgets one per line for dmenu/rofi/fuzzel.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	return &DmenuFormatter{opts: opts, template: parseTemplate("dmenu", opts.Template)}
}

// Format writes widgets in dmenu format, newest first so the top widget
// is the default selection.
func (f *DmenuFormatter) Format(w io.Writer, widgets []model.Snapshot) error {
	now := f.opts.now()
	for i := len(widgets) - 1; i >= 0; i-- {
		line := f.formatLine(i+1, widgets[i], now)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (f *DmenuFormatter) formatLine(index int, s model.Snapshot, now time.Time) string {
	if f.template != nil {
		var buf strings.Builder
		if err := f.template.Execute(&buf, newTemplateData(index, s, now)); err == nil {
			return buf.String()
		}
	}

	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	var parts []string
	if f.opts.ShowIndex {
		parts = append(parts, fmt.Sprintf("%d", index))
	}
	parts = append(parts, s.ID.Short(), stateName(s))
	if f.opts.ShowTime {
		parts = append(parts, relativeTime(s.CreatedAt, now))
	}
	return strings.Join(parts, sep)
}
