package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/perch/internal/model"
)

// YAMLFormatter formats widgets as a YAML sequence.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes widgets as YAML.
func (f *YAMLFormatter) Format(w io.Writer, widgets []model.Snapshot) error {
	if widgets == nil {
		widgets = []model.Snapshot{}
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(widgets); err != nil {
		return err
	}
	return encoder.Close()
}
