package main

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvexport"
	"github.com/couchcryptid/air-quality-etl/internal/frame"
)

var stations = []frame.Key{
	{Province: "MAŁOPOLSKIE", City: "Kraków", Station: "MpKrakAlKras"},
	{Province: "MAZOWIECKIE", City: "Warszawa", Station: "MzWarAlNiepo"},
}

func writeYear(t *testing.T, dir string, year int, monthly [][]float64, exceed []float64) {
	t.Helper()
	base := filepath.Join(dir, strconv.Itoa(year))
	require.NoError(t, os.MkdirAll(base, 0o755))

	months := make([]frame.Month, len(monthly))
	m := frame.New(months, stations)
	for r, row := range monthly {
		m.Index[r] = frame.Month{Year: year, Month: time.Month(r + 1)}
		for c, v := range row {
			m.Data[c][r] = v
		}
	}
	e := frame.New([]int{year}, stations)
	for c, v := range exceed {
		e.Data[c][0] = v
	}

	require.NoError(t, csvexport.WriteFile(filepath.Join(base, "monthly_means.csv"),
		frame.Flatten(m, []string{"year", "month"}, frame.MonthIndex)))
	require.NoError(t, csvexport.WriteFile(filepath.Join(base, "exceed_days.csv"),
		frame.Flatten(e, []string{"year"}, frame.YearIndex)))
}

func TestValidate_Passes(t *testing.T) {
	dir := t.TempDir()
	writeYear(t, dir, 2015, [][]float64{{40, 30}, {35, math.NaN()}}, []float64{200, 150})
	writeYear(t, dir, 2024, [][]float64{{20, 18}}, []float64{366, 0})

	files, load := loadYears(dir, []int{2015, 2024})
	require.True(t, load.passed(), load.errors)
	require.Len(t, files, 2)

	for _, p := range []*phase{
		validateLayout(files),
		validateCoverage(files),
		validateCounts(files),
		validateStations(files),
		validateReport(filepath.Join(dir, csvexport.ReportDir)),
	} {
		assert.True(t, p.passed(), "%s: %v", p.name, p.errors)
	}
	assert.Equal(t, 0, run(dir, []int{2015, 2024}))
}

func TestValidate_CountOutOfRange(t *testing.T) {
	dir := t.TempDir()
	writeYear(t, dir, 2015, [][]float64{{40, 30}}, []float64{366, 2.5})

	files, _ := loadYears(dir, []int{2015})
	p := validateCounts(files)
	require.Len(t, p.errors, 2)
	assert.Contains(t, p.errors[0], "outside [0, 365]")
	assert.Contains(t, p.errors[1], "whole number")
}

func TestValidate_MissingYear(t *testing.T) {
	dir := t.TempDir()
	writeYear(t, dir, 2015, [][]float64{{40, 30}}, []float64{1, 2})

	files, load := loadYears(dir, []int{2015, 2018})
	assert.Len(t, files, 1)
	require.Len(t, load.errors, 1)
	assert.Contains(t, load.errors[0], "2018")
	assert.Equal(t, 1, run(dir, []int{2015, 2018}))
}

func TestValidate_MonthsOutOfOrder(t *testing.T) {
	f := yearFiles{
		year: 2015,
		monthly: frame.Flat{Rows: [][]float64{
			{2015, 2, 1, 1},
			{2015, 1, 1, 1},
			{2016, 13, 1, 1},
		}},
		exceed: frame.Flat{Rows: [][]float64{{2015, 1, 1}}},
	}
	p := validateCoverage([]yearFiles{f})
	require.Len(t, p.errors, 3)
	assert.Contains(t, p.errors[0], "not after")
	assert.Contains(t, p.errors[1], "year 2016")
	assert.Contains(t, p.errors[2], "out of range")
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 365, daysIn(2015))
	assert.Equal(t, 366, daysIn(2024))
}
