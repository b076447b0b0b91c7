// Package report renders a batch report as tables, spreadsheets and
// terminal summaries.
package report

import (
	"github.com/ppiankov/billaudit/internal/catalog"
	"github.com/ppiankov/billaudit/internal/model"
)

// Cell values used in the concept and alert columns
const (
	ValueYes   = "yes"
	ValueNo    = "no"
	ValueAlert = "alert"
	ValueOK    = "ok"
)

// TableOptions controls optional columns
type TableOptions struct {
	IncludeNotes bool // Append a "Note" column with unreadable-document diagnostics
}

// Table is the flat, one-row-per-document view of a batch
type Table struct {
	Header []string
	Rows   [][]string

	alertCols []int // Column indexes holding rule alerts
}

// NewTable builds the audit table.
// Columns: Source, Patient, Total Charges, "Had <trigger>" for every distinct
// rule trigger, then "<rule> Alert" for every rule, in catalogue order.
func NewTable(batch *model.BatchReport, cat *catalog.Catalog, opts TableOptions) *Table {
	triggers := cat.Triggers()

	header := []string{"Source", "Patient", "Total Charges"}
	for _, trig := range triggers {
		header = append(header, "Had "+cat.Concepts.LabelOf(trig))
	}

	t := &Table{}
	for _, rule := range cat.Rules {
		t.alertCols = append(t.alertCols, len(header))
		header = append(header, rule.Label+" Alert")
	}
	if opts.IncludeNotes {
		header = append(header, "Note")
	}
	t.Header = header

	t.Rows = make([][]string, 0, len(batch.Records))
	for _, rec := range batch.Records {
		row := make([]string, 0, len(header))
		row = append(row, rec.Source, rec.Fields.PatientName, rec.Fields.TotalCharge)

		for _, trig := range triggers {
			row = append(row, yesNo(rec.Concepts[trig]))
		}
		for _, rule := range cat.Rules {
			if rec.HasAlert(rule.Label) {
				row = append(row, ValueAlert)
			} else {
				row = append(row, ValueOK)
			}
		}
		if opts.IncludeNotes {
			row = append(row, rec.Note)
		}

		t.Rows = append(t.Rows, row)
	}

	return t
}

// IsAlertColumn reports whether column col holds a rule alert
func (t *Table) IsAlertColumn(col int) bool {
	for _, c := range t.alertCols {
		if c == col {
			return true
		}
	}
	return false
}

func yesNo(b bool) string {
	if b {
		return ValueYes
	}
	return ValueNo
}
