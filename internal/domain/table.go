package domain

import (
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/frame"
)

// DefaultThreshold is the daily PM2.5 limit in µg/m³.
const DefaultThreshold = 15.0

// RawTable is one yearly sheet exactly as read: header junk included, every
// cell a string.
type RawTable struct {
	Year int
	Rows [][]string
}

// TimeFrame is a frame indexed by timestamps (hourly or daily).
type TimeFrame = frame.Frame[time.Time]

// MonthFrame is a frame indexed by calendar month.
type MonthFrame = frame.Frame[frame.Month]

// YearFrameCounts is a frame indexed by year, holding per-year counts.
type YearFrameCounts = frame.Frame[int]

// YearFrame is one cleaned yearly table. Before merging, column keys carry
// only the station code.
type YearFrame struct {
	Year  int
	Frame TimeFrame
}

// Stations returns the station codes of the table in column order.
func (y YearFrame) Stations() []string {
	out := make([]string, len(y.Frame.Columns))
	for i, k := range y.Frame.Columns {
		out[i] = k.Station
	}
	return out
}

func monthOf(t time.Time) frame.Month { return frame.Month{Year: t.Year(), Month: t.Month()} }

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func yearOf(t time.Time) int { return t.Year() }

func timeBefore(a, b time.Time) bool { return a.Before(b) }

func intBefore(a, b int) bool { return a < b }
