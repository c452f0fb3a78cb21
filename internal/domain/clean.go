package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/frame"
)

// HeaderMarker is the first cell of the row that carries station codes.
const HeaderMarker = "Kod stacji"

// TimestampLayout is the layout of data-row timestamps in the archives.
const TimestampLayout = "2006-01-02 15:04:05"

// timestampRe marks data rows, e.g. "2019-01-01 01:00:00". The whole cell must
// still parse as a timestamp.
var timestampRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`)

// CleanTable keeps the data rows and the marker row of a raw sheet, promotes
// the marker row to column names, parses timestamps and converts values to
// float64 with NaN for anything unparseable.
func CleanTable(raw RawTable) (YearFrame, error) {
	header := -1
	var data []int
	for i, row := range raw.Rows {
		first := firstCell(row)
		switch {
		case first == HeaderMarker && header < 0:
			header = i
		case first == HeaderMarker:
			return YearFrame{}, &FormatError{Year: raw.Year, Row: i, Value: first, Err: fmt.Errorf("second %w", errDuplicateHeader)}
		case timestampRe.MatchString(first):
			data = append(data, i)
		}
	}
	if header < 0 {
		return YearFrame{}, fmt.Errorf("clean year %d: %w", raw.Year, ErrMissingHeader)
	}

	// Unnamed columns carry no station and are dropped.
	var (
		keys   []frame.Key
		source []int
	)
	for c, name := range raw.Rows[header] {
		name = strings.TrimSpace(name)
		if c == 0 || name == "" {
			continue
		}
		keys = append(keys, frame.Key{Station: name})
		source = append(source, c)
	}

	index := make([]time.Time, len(data))
	for r, i := range data {
		cell := strings.TrimSpace(raw.Rows[i][0])
		ts, err := time.Parse(TimestampLayout, cell)
		if err != nil {
			return YearFrame{}, &FormatError{Year: raw.Year, Row: i, Value: cell, Err: err}
		}
		index[r] = ts
	}

	f := frame.New(index, keys)
	for c, src := range source {
		for r, i := range data {
			row := raw.Rows[i]
			if src < len(row) {
				f.Data[c][r] = ParseDecimal(row[src])
			}
		}
	}
	return YearFrame{Year: raw.Year, Frame: f}, nil
}

// CleanAll cleans every yearly table, stopping at the first structural error.
func CleanAll(raws []RawTable) ([]YearFrame, error) {
	out := make([]YearFrame, 0, len(raws))
	for _, raw := range raws {
		yf, err := CleanTable(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, yf)
	}
	return out, nil
}

// ParseDecimal parses a measurement written with either decimal separator.
// Empty or unparseable cells yield NaN.
func ParseDecimal(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func firstCell(row []string) string {
	if len(row) == 0 {
		return ""
	}
	return strings.TrimSpace(row[0])
}
