// Package mockdata generates synthetic archive workbooks laid out like the
// GIOŚ yearly PM2.5 sheets, for local runs and tests.
package mockdata

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

const sheet = "Sheet1"

// Station describes one synthetic measurement site.
type Station struct {
	Code     string
	OldCode  string // reported instead of Code before RenamedIn
	City     string
	Province string
	Base     float64 // annual mean concentration
	Since    int     // first year with data, 0 for always

	RenamedIn int
}

// DefaultStations mirrors a handful of real stations, including one renamed
// code and one station that only starts reporting in 2024.
var DefaultStations = []Station{
	{Code: "MpKrakAlKras", OldCode: "MpKrakowWIOSAKra6117", City: "Kraków", Province: "MAŁOPOLSKIE", Base: 38, RenamedIn: 2018},
	{Code: "MpKrakBujaka", City: "Kraków", Province: "MAŁOPOLSKIE", Base: 31},
	{Code: "MzWarAlNiepo", OldCode: "MzWarszNiepodKom", City: "Warszawa", Province: "MAZOWIECKIE", Base: 24, RenamedIn: 2018},
	{Code: "MzWarWokalna", City: "Warszawa", Province: "MAZOWIECKIE", Base: 19},
	{Code: "SlKatoKossut", City: "Katowice", Province: "ŚLĄSKIE", Base: 34},
	{Code: "DsWrocAlWisn", City: "Wrocław", Province: "DOLNOŚLĄSKIE", Base: 25},
	{Code: "PmGdaLeczkow", City: "Gdańsk", Province: "POMORSKIE", Base: 14},
	{Code: "LuZarySzyman", City: "Żary", Province: "LUBUSKIE", Base: 20, Since: 2024},
}

// Options controls the generated archive.
type Options struct {
	Years    []int
	Stations []Station
	Seed     uint64
	Days     int     // hours generated = Days*24; 0 means the whole year
	Missing  float64 // probability of an empty cell
}

// Generate writes <dir>/<year>.xlsx for every year and <dir>/metadata.xlsx.
func Generate(dir string, opts Options) error {
	if len(opts.Stations) == 0 {
		opts.Stations = DefaultStations
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := WriteMetadata(filepath.Join(dir, xlsx.MetadataFile), opts.Stations); err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	for _, year := range opts.Years {
		if err := WriteYear(xlsx.YearPath(dir, year), year, opts, rng); err != nil {
			return err
		}
	}
	return nil
}

// WriteMetadata writes the station metadata workbook.
func WriteMetadata(path string, stations []Station) error {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{{
		"Nr", domain.HeaderMarker, "Nazwa stacji",
		"Stary Kod stacji \n(o ile inny od aktualnego)", "Województwo", "Miejscowość",
	}}
	for i, s := range stations {
		rows = append(rows, []any{i + 1, s.Code, s.City + " - " + s.Code, s.OldCode, s.Province, s.City})
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write metadata row: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// WriteYear writes one yearly sheet: four header rows followed by hourly
// rows from 01:00 on January 1st to 00:00 of the day after the last one,
// the archive's convention for end-of-day averages.
func WriteYear(path string, year int, opts Options, rng *rand.Rand) error {
	var stations []Station
	for _, s := range opts.Stations {
		if s.Since == 0 || year >= s.Since {
			stations = append(stations, s)
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream %s: %w", path, err)
	}

	header := [][]any{{"Nr"}, {domain.HeaderMarker}, {"Wskaźnik"}, {"Czas uśredniania"}}
	for i, s := range stations {
		code := s.Code
		if s.OldCode != "" && year < s.RenamedIn {
			code = s.OldCode
		}
		header[0] = append(header[0], i+1)
		header[1] = append(header[1], code)
		header[2] = append(header[2], "PM2.5")
		header[3] = append(header[3], "1g")
	}
	for i, row := range header {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	start := time.Date(year, time.January, 1, 1, 0, 0, 0, time.UTC)
	hours := opts.Days * 24
	if hours == 0 {
		hours = int(time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC).Sub(start).Hours()) + 1
	}
	for h := range hours {
		ts := start.Add(time.Duration(h) * time.Hour)
		row := make([]any, 0, len(stations)+1)
		row = append(row, ts.Format(domain.TimestampLayout))
		for _, s := range stations {
			if rng.Float64() < opts.Missing {
				row = append(row, nil)
				continue
			}
			row = append(row, formatDecimal(concentration(s, ts, rng)))
		}
		cell, _ := excelize.CoordinatesToCellName(1, len(header)+h+1)
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write %s row %d: %w", path, h, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// concentration is the base level scaled by a winter peak and a daily
// cycle, plus noise. Never negative.
func concentration(s Station, ts time.Time, rng *rand.Rand) float64 {
	season := 1 + 0.6*math.Cos(2*math.Pi*float64(ts.YearDay())/365)
	daily := 1 + 0.2*math.Sin(2*math.Pi*float64(ts.Hour()-6)/24)
	v := s.Base*season*daily + rng.NormFloat64()*s.Base*0.25
	return math.Round(max(v, 0)*10) / 10
}

// formatDecimal renders v with a comma decimal separator as the archives do.
func formatDecimal(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', -1, 64), ".", ",", 1)
}
