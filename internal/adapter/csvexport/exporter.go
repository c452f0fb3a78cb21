// Package csvexport writes run results as pandas-compatible CSV files and,
// when configured, as Excel workbooks.
package csvexport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/frame"
	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
)

// File names, without extension, written per year and for the report.
const (
	MonthlyMeansFile   = "monthly_means"
	ExceedDaysFile     = "exceed_days"
	ExtremesFile       = "extremes"
	CityExceedanceFile = "city_exceedance"
	ReportDir          = "report"
	ReportWorkbook     = "report.xlsx"
)

// Exporter writes result tables under a base directory.
// It implements pipeline.Loader.
type Exporter struct {
	dir       string
	writeCSV  bool
	writeXLSX bool
	logger    *slog.Logger
}

// NewExporter creates an exporter for the configured output directory and
// format.
func NewExporter(cfg *config.Config, logger *slog.Logger) *Exporter {
	return &Exporter{
		dir:       cfg.OutputDir,
		writeCSV:  cfg.WriteCSV(),
		writeXLSX: cfg.WriteXLSX(),
		logger:    logger,
	}
}

func (e *Exporter) Name() string { return "csv" }

// Load writes every processed year and, when present, the report.
func (e *Exporter) Load(ctx context.Context, res *pipeline.Result) error {
	for _, year := range res.Years {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.WriteYear(year, res); err != nil {
			return err
		}
	}
	if res.Report == nil {
		return nil
	}
	return e.WriteReport(res)
}

// WriteYear writes <dir>/<year>/monthly_means and exceed_days.
func (e *Exporter) WriteYear(year int, res *pipeline.Result) error {
	if !res.Processed(year) {
		return fmt.Errorf("write year %d: not processed", year)
	}
	dir := filepath.Join(e.dir, strconv.Itoa(year))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	monthly := frame.Flatten(res.MonthlyFor(year), []string{"year", "month"}, frame.MonthIndex)
	if err := e.writeTable(dir, MonthlyMeansFile, monthly); err != nil {
		return err
	}
	exceed := frame.Flatten(res.ExceedanceFor(year), []string{"year"}, frame.YearIndex)
	if err := e.writeTable(dir, ExceedDaysFile, exceed); err != nil {
		return err
	}

	e.logger.Info("year exported", "year", year, "dir", dir, "stations", len(res.Merged.Columns))
	return nil
}

// WriteReport writes the extremes and city exceedance tables plus the
// report workbook under <dir>/report.
func (e *Exporter) WriteReport(res *pipeline.Result) error {
	rep := res.Report
	if rep == nil {
		return nil
	}
	dir := filepath.Join(e.dir, ReportDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	extremes := frame.Flatten(rep.Extremes, []string{"year"}, frame.YearIndex)
	if err := e.writeTable(dir, ExtremesFile, extremes); err != nil {
		return err
	}
	if err := e.writeTable(dir, CityExceedanceFile, rep.CityExceedance); err != nil {
		return err
	}
	path := filepath.Join(dir, ReportWorkbook)
	if err := xlsx.WriteReport(path, rep, res.Threshold); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	e.logger.Info("report exported", "dir", dir, "cities", rep.Cities, "years", rep.Years)
	return nil
}

func (e *Exporter) writeTable(dir, name string, flat frame.Flat) error {
	if e.writeCSV {
		if err := WriteFile(filepath.Join(dir, name+".csv"), flat); err != nil {
			return err
		}
	}
	if e.writeXLSX {
		if err := xlsx.WriteFlat(filepath.Join(dir, name+".xlsx"), name, flat); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
