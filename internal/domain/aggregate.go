package domain

import (
	"math"

	"github.com/couchcryptid/air-quality-etl/internal/frame"
)

// MonthlyMeans averages every station per calendar month.
func MonthlyMeans(f TimeFrame) MonthFrame {
	return frame.GroupRows(f, monthOf, frame.Month.Before, frame.Mean)
}

// DailyMeans averages every station per calendar day. Rows are labelled with
// the day's midnight.
func DailyMeans(f TimeFrame) TimeFrame {
	return frame.GroupRows(f, dayOf, timeBefore, frame.Mean)
}

// CityMeans collapses station columns into one column per city, averaging
// the stations of each city row by row.
func CityMeans[L any](f frame.Frame[L]) frame.Frame[L] {
	return frame.GroupColumns(f, frame.LevelCity, frame.Mean)
}

// ExceedanceDays counts, per year and station, the days whose mean strictly
// exceeds limit.
func ExceedanceDays(f TimeFrame, limit float64) YearFrameCounts {
	flags := exceedanceFlags(f, limit)
	return frame.GroupRows(flags, yearOf, intBefore, frame.Sum)
}

// ExceedanceDaysByProvince counts, per year and province, the days on which
// at least one station of the province exceeded limit.
func ExceedanceDaysByProvince(f TimeFrame, limit float64) YearFrameCounts {
	flags := exceedanceFlags(f, limit)
	byProvince := frame.GroupColumns(flags, frame.LevelProvince, frame.Any)
	return frame.GroupRows(byProvince, yearOf, intBefore, frame.Sum)
}

// exceedanceFlags marks each daily mean with 1 when above limit, else 0.
// Missing days are never flagged.
func exceedanceFlags(f TimeFrame, limit float64) TimeFrame {
	return frame.Map(DailyMeans(f), func(v float64) float64 {
		if math.IsNaN(v) || v <= limit {
			return 0
		}
		return 1
	})
}
