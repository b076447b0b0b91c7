package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the audit table
const SheetName = "Audit"

// WriteXLSX writes the table as a single-sheet workbook.
// The header is bold and fired alerts are highlighted.
func WriteXLSX(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	alertStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "9C0006"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("alert style: %w", err)
	}

	for i, h := range t.Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if len(t.Header) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Header), 1)
		if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}

	for r, row := range t.Rows {
		for c, val := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(SheetName, cell, val); err != nil {
				return fmt.Errorf("write row %d: %w", r+1, err)
			}
			if val == ValueAlert && t.IsAlertColumn(c) {
				if err := f.SetCellStyle(SheetName, cell, cell, alertStyle); err != nil {
					return fmt.Errorf("style row %d: %w", r+1, err)
				}
			}
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(SheetName, "A", "A", 40) // source
	_ = f.SetColWidth(SheetName, "B", "B", 32) // patient
	_ = f.SetColWidth(SheetName, "C", "C", 16) // total
	if len(t.Header) > 3 {
		first, _ := excelize.ColumnNumberToName(4)
		last, _ := excelize.ColumnNumberToName(len(t.Header))
		_ = f.SetColWidth(SheetName, first, last, 24)
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
