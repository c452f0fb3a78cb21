// Command validate checks the CSV files exported by the ETL: header layout,
// year coverage, monthly index consistency and exceedance counts within
// [0, days in year]. It also checks that every year shares the same station
// columns, which the merge guarantees.
//
// Usage:
//
//	go run ./cmd/validate -dir results/pm25 -years 2015,2018,2021,2024
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvexport"
	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/frame"
)

// keyLevels is the number of header rows of station-keyed tables.
const keyLevels = 3

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// yearFiles holds the two tables exported for one year.
type yearFiles struct {
	year    int
	monthly frame.Flat
	exceed  frame.Flat
}

func main() {
	dir := flag.String("dir", "results/pm25", "directory the ETL exported to")
	yearsFlag := flag.String("years", "", "comma-separated years expected in the export")
	flag.Parse()

	if *yearsFlag == "" {
		flag.Usage()
		os.Exit(1)
	}
	years, err := config.ParseYears(*yearsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse -years: %v\n", err)
		os.Exit(1)
	}
	os.Exit(run(*dir, years))
}

func run(dir string, years []int) int {
	fmt.Println("=== PM2.5 Export Validation ===")
	fmt.Println()

	files, loadPhase := loadYears(dir, years)
	phases := []*phase{
		loadPhase,
		validateLayout(files),
		validateCoverage(files),
		validateCounts(files),
		validateStations(files),
		validateReport(filepath.Join(dir, csvexport.ReportDir)),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Files ──

func loadYears(dir string, years []int) ([]yearFiles, *phase) {
	p := &phase{name: "Phase 1: Files present and readable"}
	var out []yearFiles
	for _, y := range years {
		base := filepath.Join(dir, strconv.Itoa(y))
		monthly, err := csvexport.ReadFile(filepath.Join(base, csvexport.MonthlyMeansFile+".csv"), keyLevels)
		if err != nil {
			p.errorf("%d: %v", y, err)
			continue
		}
		exceed, err := csvexport.ReadFile(filepath.Join(base, csvexport.ExceedDaysFile+".csv"), keyLevels)
		if err != nil {
			p.errorf("%d: %v", y, err)
			continue
		}
		out = append(out, yearFiles{year: y, monthly: monthly, exceed: exceed})
	}
	return out, p
}

// ── Phase 2: Header layout ──

func validateLayout(files []yearFiles) *phase {
	p := &phase{name: "Phase 2: Header layout"}
	for _, f := range files {
		checkHeader(p, f.year, csvexport.MonthlyMeansFile, f.monthly, []string{"year", "month"})
		checkHeader(p, f.year, csvexport.ExceedDaysFile, f.exceed, []string{"year"})
	}
	return p
}

func checkHeader(p *phase, year int, name string, flat frame.Flat, index []string) {
	width := flat.Width()
	for level, row := range flat.Header {
		if len(row) != width {
			p.errorf("%d %s: header row %d has %d cells, want %d", year, name, level+1, len(row), width)
			continue
		}
		for i, want := range index {
			if level > 0 {
				want = ""
			}
			if row[i] != want {
				p.errorf("%d %s: header row %d column %d is %q, want %q", year, name, level+1, i+1, row[i], want)
			}
		}
		for c := len(index); c < width; c++ {
			if row[c] == "" {
				p.errorf("%d %s: header row %d column %d is empty", year, name, level+1, c+1)
			}
		}
	}
	for r, row := range flat.Rows {
		if len(row) != width {
			p.errorf("%d %s: data row %d has %d cells, want %d", year, name, r+1, len(row), width)
		}
	}
}

// ── Phase 3: Year coverage ──

func validateCoverage(files []yearFiles) *phase {
	p := &phase{name: "Phase 3: Year and month coverage"}
	for _, f := range files {
		if len(f.monthly.Rows) == 0 {
			p.errorf("%d: no monthly rows", f.year)
		}
		prev := 0
		for r, row := range f.monthly.Rows {
			if len(row) < 2 {
				continue
			}
			if int(row[0]) != f.year {
				p.errorf("%d monthly row %d: year %g", f.year, r+1, row[0])
			}
			month := int(row[1])
			if month < 1 || month > 12 || float64(month) != row[1] {
				p.errorf("%d monthly row %d: month %g out of range", f.year, r+1, row[1])
			} else if month <= prev {
				p.errorf("%d monthly row %d: month %d not after %d", f.year, r+1, month, prev)
			}
			prev = month
		}
		if len(f.exceed.Rows) != 1 {
			p.errorf("%d: %d exceedance rows, want 1", f.year, len(f.exceed.Rows))
		} else if int(f.exceed.Rows[0][0]) != f.year {
			p.errorf("%d: exceedance row labelled %g", f.year, f.exceed.Rows[0][0])
		}
	}
	return p
}

// ── Phase 4: Exceedance counts ──

func validateCounts(files []yearFiles) *phase {
	p := &phase{name: "Phase 4: Exceedance counts in range"}
	for _, f := range files {
		limit := float64(daysIn(f.year))
		for _, row := range f.exceed.Rows {
			for c, v := range row[1:] {
				station := f.exceed.Header[keyLevels-1][c+1]
				switch {
				case math.IsNaN(v):
					p.errorf("%d %s: missing count", f.year, station)
				case v < 0 || v > limit:
					p.errorf("%d %s: %g days outside [0, %g]", f.year, station, v, limit)
				case v != math.Trunc(v):
					p.errorf("%d %s: %g is not a whole number of days", f.year, station, v)
				}
			}
		}
	}
	return p
}

// ── Phase 5: Station columns ──

func validateStations(files []yearFiles) *phase {
	p := &phase{name: "Phase 5: Same stations in every year"}
	if len(files) == 0 {
		return p
	}
	want := stationColumns(files[0].monthly, 2)
	for _, f := range files {
		if got := stationColumns(f.monthly, 2); !slices.Equal(got, want) {
			p.errorf("%d monthly_means: %d stations differ from %d", f.year, len(got), files[0].year)
		}
		if got := stationColumns(f.exceed, 1); !slices.Equal(got, want) {
			p.errorf("%d exceed_days: stations differ from monthly_means", f.year)
		}
	}
	return p
}

func stationColumns(flat frame.Flat, indexColumns int) []string {
	if len(flat.Header) < keyLevels || len(flat.Header[keyLevels-1]) < indexColumns {
		return nil
	}
	return flat.Header[keyLevels-1][indexColumns:]
}

// ── Phase 6: Report ──

func validateReport(dir string) *phase {
	p := &phase{name: "Phase 6: Report tables"}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return p
	}

	extremes, err := csvexport.ReadFile(filepath.Join(dir, csvexport.ExtremesFile+".csv"), keyLevels)
	if err != nil {
		p.errorf("%v", err)
	} else {
		if n := extremes.Width() - 1; n <= 0 || n%2 != 0 {
			p.errorf("extremes: %d station columns, want an even positive number", n)
		}
		checkNonNegative(p, "extremes", extremes)
	}

	cities, err := csvexport.ReadFile(filepath.Join(dir, csvexport.CityExceedanceFile+".csv"), 1)
	if err != nil {
		p.errorf("%v", err)
	} else {
		if cities.Width() < 2 || cities.Header[0][0] != "year" {
			p.errorf("city_exceedance: header %v, want year followed by cities", cities.Header)
		}
		checkNonNegative(p, "city_exceedance", cities)
	}

	if _, err := os.Stat(filepath.Join(dir, csvexport.ReportWorkbook)); err != nil {
		p.errorf("report workbook: %v", err)
	}
	return p
}

func checkNonNegative(p *phase, name string, flat frame.Flat) {
	for r, row := range flat.Rows {
		for c, v := range row[1:] {
			if v < 0 {
				p.errorf("%s row %d column %d: negative value %g", name, r+1, c+2, v)
			}
		}
	}
}

func daysIn(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}
