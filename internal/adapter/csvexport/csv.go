package csvexport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/air-quality-etl/internal/frame"
)

// ErrShortFile means a CSV has fewer rows than its declared header rows.
var ErrShortFile = errors.New("csv shorter than its header")

// WriteFile saves flat as CSV: header rows first, then data rows with
// missing values as empty cells.
func WriteFile(path string, flat frame.Flat) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, header := range flat.Header {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	record := make([]string, 0, flat.Width())
	for _, row := range flat.Rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, FormatValue(v))
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// ReadFile loads a CSV written by WriteFile. Empty or unparseable data
// cells read back as NaN.
func ReadFile(path string, headerRows int) (frame.Flat, error) {
	f, err := os.Open(path)
	if err != nil {
		return frame.Flat{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return frame.Flat{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) < headerRows {
		return frame.Flat{}, fmt.Errorf("%s: %w", path, ErrShortFile)
	}

	flat := frame.Flat{Header: records[:headerRows]}
	for _, rec := range records[headerRows:] {
		row := make([]float64, len(rec))
		for i, cell := range rec {
			row[i] = ParseValue(cell)
		}
		flat.Rows = append(flat.Rows, row)
	}
	return flat, nil
}

// FormatValue renders v in its shortest form; NaN becomes "".
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseValue is the inverse of FormatValue.
func ParseValue(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
