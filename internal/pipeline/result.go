package pipeline

import (
	"slices"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/frame"
)

// Result carries every aggregate of one run together with the stage
// summaries that describe how the input was repaired.
type Result struct {
	Years     []int // years merged, in processing order
	Skipped   []int // years dropped after a retrieval or format failure
	Threshold float64

	Merged             domain.TimeFrame
	MonthlyMeans       domain.MonthFrame
	CityMonthlyMeans   domain.MonthFrame
	DailyMeans         domain.TimeFrame
	Exceedance         domain.YearFrameCounts
	ProvinceExceedance domain.YearFrameCounts

	// Report is nil when the configured cities or years are not in the data.
	Report *Report

	Rewrites    []domain.RewriteSummary
	Corrections []domain.CorrectionSummary
	Merge       domain.MergeSummary

	GeneratedAt time.Time
}

// Report holds the comparative views across the configured cities and years.
type Report struct {
	Cities      []string
	Years       []int
	ExtremeYear int

	CityMonthly    domain.MonthFrame      // monthly means of the report cities in the report years
	CityExceedance frame.Flat             // mean exceedance days per city and report year
	Extremes       domain.YearFrameCounts // fewest then most exceedance days in ExtremeYear
}

// MonthlyFor returns the station monthly means of one year.
func (r *Result) MonthlyFor(year int) domain.MonthFrame {
	return r.MonthlyMeans.Filter(func(m frame.Month) bool { return m.Year == year })
}

// ExceedanceFor returns the station exceedance counts of one year.
func (r *Result) ExceedanceFor(year int) domain.YearFrameCounts {
	return r.Exceedance.Filter(func(y int) bool { return y == year })
}

// DailyFor returns the station daily means of one year.
func (r *Result) DailyFor(year int) domain.TimeFrame {
	return r.DailyMeans.Filter(func(t time.Time) bool { return t.Year() == year })
}

// Processed reports whether year made it into the merge.
func (r *Result) Processed(year int) bool {
	return slices.Contains(r.Years, year)
}
