package report

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes the table as RFC 4180 CSV with a header row
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}

	return nil
}
