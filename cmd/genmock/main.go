// Command genmock writes synthetic yearly PM2.5 workbooks and a station
// metadata workbook laid out like the GIOŚ archive, so the ETL can run with
// SOURCE=local and no network access.
//
// Usage:
//
//	go run ./cmd/genmock -dir data -years 2015,2018,2021,2024 -seed 1
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/mockdata"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dir := flag.String("dir", "data", "output directory for the generated workbooks")
	yearsFlag := flag.String("years", "2015,2018,2021,2024", "comma-separated years to generate")
	seed := flag.Uint64("seed", 1, "random seed")
	days := flag.Int("days", 0, "days per year to generate, 0 for the whole year")
	missing := flag.Float64("missing", 0.01, "probability of an empty measurement cell")
	flag.Parse()

	years, err := config.ParseYears(*yearsFlag)
	if err != nil {
		return fmt.Errorf("parse -years: %w", err)
	}
	if *missing < 0 || *missing > 1 {
		return fmt.Errorf("-missing must be within [0, 1], got %g", *missing)
	}

	opts := mockdata.Options{Years: years, Seed: *seed, Days: *days, Missing: *missing}
	if err := mockdata.Generate(*dir, opts); err != nil {
		return err
	}

	log.Printf("wrote %s (%d stations)", filepath.Join(*dir, xlsx.MetadataFile), len(mockdata.DefaultStations))
	for _, y := range years {
		path := xlsx.YearPath(*dir, y)
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		log.Printf("wrote %s (%d KiB)", path, info.Size()/1024)
	}
	return nil
}
