package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/billaudit/internal/model"
)

// WriteJSON writes the batch report as indented JSON
func WriteJSON(w io.Writer, batch *model.BatchReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(batch); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
