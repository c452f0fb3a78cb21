package frame

import "time"

// Flat is a table whose row index has been materialized into leading
// columns. Header holds one row per key level (or a single row for
// collapsed keys); missing values stay NaN.
type Flat struct {
	Header [][]string
	Rows   [][]float64
}

// Width returns the number of columns including materialized index columns.
func (f Flat) Width() int {
	if len(f.Header) == 0 {
		return 0
	}
	return len(f.Header[0])
}

// Flatten materializes the index of f into the leading columns named by
// indexNames, writing one header row per requested key level.
func Flatten[L any](f Frame[L], indexNames []string, index func(L) []float64, levels ...Level) Flat {
	if len(levels) == 0 {
		levels = []Level{LevelProvince, LevelCity, LevelStation}
	}
	header := make([][]string, len(levels))
	for i, l := range levels {
		row := make([]string, 0, len(indexNames)+len(f.Columns))
		for _, n := range indexNames {
			if i == 0 {
				row = append(row, n)
			} else {
				row = append(row, "")
			}
		}
		for _, k := range f.Columns {
			row = append(row, k.Part(l))
		}
		header[i] = row
	}

	rows := make([][]float64, len(f.Index))
	for r, label := range f.Index {
		row := append(make([]float64, 0, len(indexNames)+len(f.Columns)), index(label)...)
		for c := range f.Data {
			row = append(row, f.Data[c][r])
		}
		rows[r] = row
	}
	return Flat{Header: header, Rows: rows}
}

// MonthIndex materializes a Month label as (year, month).
func MonthIndex(m Month) []float64 { return []float64{float64(m.Year), float64(m.Month)} }

// YearIndex materializes a year label.
func YearIndex(y int) []float64 { return []float64{float64(y)} }

// DayIndex materializes a daily label as (year, month, day).
func DayIndex(t time.Time) []float64 {
	return []float64{float64(t.Year()), float64(t.Month()), float64(t.Day())}
}
