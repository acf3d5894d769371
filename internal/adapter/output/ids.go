package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/perch/internal/model"
)

// IDsFormatter writes one full widget ID per line, bottom to top.
type IDsFormatter struct{}

// Format writes the IDs.
func (IDsFormatter) Format(w io.Writer, widgets []model.Snapshot) error {
	for _, s := range widgets {
		if _, err := fmt.Fprintln(w, s.ID); err != nil {
			return err
		}
	}
	return nil
}
