package storage

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// sheetName is the default sheet of a new workbook.
const sheetName = "Sheet1"

// WriteXLSX saves t as a single-sheet workbook: a bold header row with the
// column names followed by one row per record, no index column.
func WriteXLSX(path string, t *Table) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if len(t.Columns) > 0 {
		header := make([]any, len(t.Columns))
		for i, c := range t.Columns {
			header[i] = c
		}
		if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}

		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("create header style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(t.Columns), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
