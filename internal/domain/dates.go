package domain

import "time"

// midnightCutoff is the latest time of day treated as the previous day's
// last reading.
const midnightCutoff = 59 * time.Second

// CorrectionSummary describes what CorrectMidnight changed in one year.
type CorrectionSummary struct {
	Year      int
	Corrected int
	// Before and After show the first corrected timestamp; zero when nothing changed.
	Before time.Time
	After  time.Time
}

// CorrectMidnight moves timestamps within the first 59 seconds of a day to
// 23:59:59 of the previous day, so the archive's "hour 24" reading is
// grouped with the day it was measured on.
func CorrectMidnight(yf YearFrame) (YearFrame, CorrectionSummary) {
	out := YearFrame{Year: yf.Year, Frame: yf.Frame.Clone()}
	summary := CorrectionSummary{Year: yf.Year}

	for i, ts := range out.Frame.Index {
		start := dayOf(ts)
		if ts.Sub(start) > midnightCutoff {
			continue
		}
		fixed := start.Add(-time.Second)
		if summary.Corrected == 0 {
			summary.Before, summary.After = ts, fixed
		}
		out.Frame.Index[i] = fixed
		summary.Corrected++
	}
	return out, summary
}

// CorrectAll applies CorrectMidnight to every year, in order.
func CorrectAll(years []YearFrame) ([]YearFrame, []CorrectionSummary) {
	out := make([]YearFrame, len(years))
	summaries := make([]CorrectionSummary, len(years))
	for i, yf := range years {
		out[i], summaries[i] = CorrectMidnight(yf)
	}
	return out, summaries
}
