package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/frame"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
)

const defaultExtremeCount = 3

// errNoReportYears means none of the report years survived the run.
var errNoReportYears = errors.New("no report year was processed")

// Options tunes the aggregation and report stages.
type Options struct {
	Threshold    float64
	ReportCities []string
	ReportYears  []int
	ExtremeCount int
}

// Transformer runs the domain stages over cleaned yearly tables and logs
// what each stage repaired. The domain functions themselves never log.
type Transformer struct {
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a Transformer. A zero threshold or extreme count
// selects the defaults.
func NewTransformer(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Transformer {
	if opts.Threshold <= 0 {
		opts.Threshold = domain.DefaultThreshold
	}
	if opts.ExtremeCount <= 0 {
		opts.ExtremeCount = defaultExtremeCount
	}
	return &Transformer{opts: opts, logger: logger, metrics: metrics}
}

// Transform normalizes codes, corrects midnight readings, merges the years
// and computes every aggregate.
func (t *Transformer) Transform(years []domain.YearFrame, stations domain.StationIndex) (*Result, error) {
	start := time.Now()
	normalized, rewrites := domain.NormalizeAll(years, stations.OldCodes)
	for _, s := range rewrites {
		t.logRewrite(s)
	}
	t.observe("normalize", start)

	start = time.Now()
	corrected, corrections := domain.CorrectAll(normalized)
	for _, s := range corrections {
		t.logCorrection(s)
	}
	t.observe("correct", start)

	start = time.Now()
	merged, summary, err := domain.Merge(corrected, stations)
	if err != nil {
		return nil, err
	}
	t.logMerge(summary)
	t.observe("merge", start)

	start = time.Now()
	res := &Result{
		Years:       make([]int, len(years)),
		Threshold:   t.opts.Threshold,
		Merged:      merged,
		Rewrites:    rewrites,
		Corrections: corrections,
		Merge:       summary,
	}
	for i, yf := range years {
		res.Years[i] = yf.Year
	}
	res.MonthlyMeans = domain.MonthlyMeans(merged)
	res.CityMonthlyMeans = domain.CityMeans(res.MonthlyMeans)
	res.DailyMeans = domain.DailyMeans(merged)
	res.Exceedance = domain.ExceedanceDays(merged, t.opts.Threshold)
	res.ProvinceExceedance = domain.ExceedanceDaysByProvince(merged, t.opts.Threshold)
	t.observe("aggregate", start)

	report, err := t.report(res)
	if err != nil {
		t.logger.Warn("report skipped", "error", err)
	}
	res.Report = report
	res.GeneratedAt = domain.Now()
	return res, nil
}

// report builds the comparative views. Report years that were not
// processed are left out.
func (t *Transformer) report(res *Result) (*Report, error) {
	var years []int
	for _, y := range t.opts.ReportYears {
		if res.Processed(y) {
			years = append(years, y)
		} else {
			t.logger.Warn("report year not processed", "year", y)
		}
	}
	if len(years) == 0 {
		return nil, errNoReportYears
	}
	cities := t.opts.ReportCities

	monthly, err := res.CityMonthlyMeans.SelectLevel(frame.LevelCity, cities...)
	if err != nil {
		return nil, fmt.Errorf("city monthly means: %w", err)
	}
	monthly = monthly.Filter(func(m frame.Month) bool { return slices.Contains(years, m.Year) })

	exceedance, err := domain.CitiesYears(domain.CityMeans(res.Exceedance), cities, years)
	if err != nil {
		return nil, err
	}

	extremeYear := slices.Max(years)
	extremes, err := domain.ExtremeStations(res.Exceedance, extremeYear, t.opts.ExtremeCount)
	if err != nil {
		return nil, err
	}

	return &Report{
		Cities:         cities,
		Years:          years,
		ExtremeYear:    extremeYear,
		CityMonthly:    monthly,
		CityExceedance: exceedance,
		Extremes:       extremes,
	}, nil
}

func (t *Transformer) logRewrite(s domain.RewriteSummary) {
	if s.Changes == 0 {
		return
	}
	samples := make([]string, len(s.Samples))
	for i, r := range s.Samples {
		samples[i] = r.Old + "->" + r.New
	}
	t.logger.Info("station codes rewritten",
		"year", s.Year,
		"changes", s.Changes,
		"samples", samples,
	)
	t.metrics.CodesRewritten.Add(float64(s.Changes))
	if len(s.Collisions) > 0 {
		t.logger.Warn("rewrite produced duplicate station columns", "year", s.Year, "stations", s.Collisions)
	}
}

func (t *Transformer) logCorrection(s domain.CorrectionSummary) {
	if s.Corrected == 0 {
		return
	}
	t.logger.Info("midnight timestamps corrected",
		"year", s.Year,
		"corrected", s.Corrected,
		"before", s.Before.Format(domain.TimestampLayout),
		"after", s.After.Format(domain.TimestampLayout),
	)
	t.metrics.TimestampsCorrected.Add(float64(s.Corrected))
}

func (t *Transformer) logMerge(s domain.MergeSummary) {
	for _, r := range s.Reconciliations {
		t.logger.Warn("duplicate station columns reconciled",
			"year", r.Year,
			"station", r.Station,
			"columns", r.Columns,
		)
		t.metrics.ColumnsReconciled.Add(float64(r.Columns - 1))
	}
	if len(s.Dropped) > 0 {
		t.logger.Info("stations missing from some year dropped", "count", len(s.Dropped), "stations", s.Dropped)
	}
	t.metrics.StationsDropped.Set(float64(len(s.Dropped)))
	t.logger.Info("years merged", "rows", s.Rows, "stations", s.Stations)
}

func (t *Transformer) observe(stage string, start time.Time) {
	t.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
