package xlsx

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/air-quality-etl/internal/frame"
)

// defaultSheet is the sheet every new excelize workbook starts with.
const defaultSheet = "Sheet1"

// WriteFlat saves a flattened table as a single-sheet workbook.
func WriteFlat(path, sheet string, flat frame.Flat) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	if _, err := writeFlat(f, sheet, flat); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// WriteFrame flattens f with the given index columns and saves it.
func WriteFrame[L any](path, sheet string, f frame.Frame[L], indexNames []string, index func(L) []float64) error {
	return WriteFlat(path, sheet, frame.Flatten(f, indexNames, index))
}

// writeFlat writes header rows then data rows starting at A1 and returns
// the number of header rows. Missing values are left as empty cells.
func writeFlat(f *excelize.File, sheet string, flat frame.Flat) (int, error) {
	for r, header := range flat.Header {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return 0, err
		}
		row := make([]any, len(header))
		for c, h := range header {
			row[c] = h
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return 0, fmt.Errorf("write header: %w", err)
		}
	}

	offset := len(flat.Header)
	for r, values := range flat.Rows {
		cell, err := excelize.CoordinatesToCellName(1, offset+r+1)
		if err != nil {
			return 0, err
		}
		row := make([]any, len(values))
		for c, v := range values {
			if math.IsNaN(v) {
				row[c] = nil
				continue
			}
			row[c] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return 0, fmt.Errorf("write row %d: %w", r, err)
		}
	}
	return offset, nil
}
