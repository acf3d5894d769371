package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/perch/internal/model"
)

// JSONFormatter formats widgets as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes widgets as a JSON array. An empty list is written as [].
func (f *JSONFormatter) Format(w io.Writer, widgets []model.Snapshot) error {
	if widgets == nil {
		widgets = []model.Snapshot{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(widgets)
}
