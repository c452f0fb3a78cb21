// Package xlsx reads GIOŚ workbooks and writes tables and reports as Excel
// workbooks.
package xlsx

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// ErrNoSheet means a workbook has no worksheet to read.
var ErrNoSheet = errors.New("workbook has no sheets")

// ReadRows returns the first worksheet as raw cell strings. Numbers keep
// their stored value instead of the display format.
func ReadRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// ReadMeasurements reads a yearly PM2.5 sheet. First-column cells stored
// as Excel date serials are rendered as timestamps so the cleaner sees the
// same text the archive displays.
func ReadMeasurements(r io.Reader, year int) (domain.RawTable, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return domain.RawTable{}, err
	}
	for _, row := range rows {
		if len(row) > 0 {
			row[0] = excelTimestamp(row[0])
		}
	}
	return domain.RawTable{Year: year, Rows: rows}, nil
}

// excelTimestamp converts a date serial such as "43466.041666667" to
// "2019-01-01 01:00:00". Anything else is returned unchanged.
func excelTimestamp(cell string) string {
	s := strings.TrimSpace(cell)
	if !strings.Contains(s, ".") && len(s) < 5 {
		// Short integers are row numbers, not dates.
		return cell
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial <= 0 {
		return cell
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return cell
	}
	return t.Round(time.Second).Format(domain.TimestampLayout)
}
