package domain

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/couchcryptid/air-quality-etl/internal/frame"
)

// ExtremeStations picks the n stations with the fewest and the n with the
// most exceedance days in year and returns their full history, smallest
// first. Ties keep column order (stable), not alphabetical order. With fewer
// than 2n stations a column may appear in both halves.
func ExtremeStations(counts YearFrameCounts, year, n int) (YearFrameCounts, error) {
	row := slices.Index(counts.Index, year)
	if row < 0 {
		return YearFrameCounts{}, fmt.Errorf("extreme stations %d: %w", year, ErrYearNotFound)
	}

	var cols []int
	for c := range counts.Columns {
		if !math.IsNaN(counts.Data[c][row]) {
			cols = append(cols, c)
		}
	}
	value := func(c int) float64 { return counts.Data[c][row] }

	asc := slices.Clone(cols)
	slices.SortStableFunc(asc, func(a, b int) int { return cmp.Compare(value(a), value(b)) })
	desc := slices.Clone(cols)
	slices.SortStableFunc(desc, func(a, b int) int { return cmp.Compare(value(b), value(a)) })

	keys := make([]frame.Key, 0, 2*n)
	for _, c := range asc[:min(n, len(asc))] {
		keys = append(keys, counts.Columns[c])
	}
	for _, c := range desc[:min(n, len(desc))] {
		keys = append(keys, counts.Columns[c])
	}
	return counts.Select(keys...)
}

// CitiesYears restricts a year-indexed, city-keyed table to the requested
// cities and years, in the requested order, and materializes the year as the
// leading "year" column.
func CitiesYears(f YearFrameCounts, cities []string, years []int) (frame.Flat, error) {
	cols := make([]int, len(cities))
	for i, city := range cities {
		k, ok := f.Find(frame.LevelCity, city)
		if !ok {
			return frame.Flat{}, fmt.Errorf("cities years: %q: %w", city, frame.ErrColumnNotFound)
		}
		cols[i] = f.ColumnIndex(k)
	}

	header := append([]string{"year"}, cities...)
	rows := make([][]float64, len(years))
	for i, y := range years {
		r := slices.Index(f.Index, y)
		if r < 0 {
			return frame.Flat{}, fmt.Errorf("cities years %d: %w", y, ErrYearNotFound)
		}
		row := make([]float64, 0, len(header))
		row = append(row, float64(y))
		for _, c := range cols {
			row = append(row, f.Data[c][r])
		}
		rows[i] = row
	}
	return frame.Flat{Header: [][]string{header}, Rows: rows}, nil
}
