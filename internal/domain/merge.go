package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/frame"
)

// Reconciliation records duplicate station columns merged into one.
type Reconciliation struct {
	Year    int
	Station string
	Columns int
}

// MergeSummary describes what Merge did besides concatenating.
type MergeSummary struct {
	Rows            int
	Stations        int
	Dropped         []string // stations missing from at least one year
	Reconciliations []Reconciliation
}

// Merge concatenates the yearly tables in the given order, keeps only the
// stations present in every year and labels each column with its province
// and city. Duplicate station columns within a year are first reconciled
// into their row-wise mean.
func Merge(years []YearFrame, stations StationIndex) (TimeFrame, MergeSummary, error) {
	var summary MergeSummary
	if len(years) == 0 {
		return TimeFrame{}, summary, fmt.Errorf("merge: %w", ErrNoData)
	}

	unique := make([]YearFrame, len(years))
	for i, yf := range years {
		var recs []Reconciliation
		unique[i], recs = reconcileDuplicates(yf)
		summary.Reconciliations = append(summary.Reconciliations, recs...)
	}

	common, dropped := commonStations(unique)
	summary.Dropped = dropped
	summary.Stations = len(common)

	keys := make([]frame.Key, len(common))
	for i, code := range common {
		province, city := stations.Locate(code)
		keys[i] = frame.Key{Province: province, City: city, Station: code}
	}

	total := 0
	for _, yf := range unique {
		total += yf.Frame.Len()
	}
	index := make([]time.Time, 0, total)
	for _, yf := range unique {
		index = append(index, yf.Frame.Index...)
	}

	merged := frame.New(index, keys)
	offset := 0
	for _, yf := range unique {
		for c, code := range common {
			src, _ := yf.Frame.Column(frame.Key{Station: code})
			for r, v := range src {
				if math.IsInf(v, 0) {
					v = math.NaN()
				}
				merged.Data[c][offset+r] = v
			}
		}
		offset += yf.Frame.Len()
	}
	summary.Rows = merged.Len()
	return merged, summary, nil
}

// reconcileDuplicates collapses columns sharing a station code into one
// column at the position of the first occurrence.
func reconcileDuplicates(yf YearFrame) (YearFrame, []Reconciliation) {
	positions := make(map[string][]int)
	var order []string
	for c, k := range yf.Frame.Columns {
		if _, ok := positions[k.Station]; !ok {
			order = append(order, k.Station)
		}
		positions[k.Station] = append(positions[k.Station], c)
	}
	if len(order) == len(yf.Frame.Columns) {
		return yf, nil
	}

	keys := make([]frame.Key, len(order))
	for i, code := range order {
		keys[i] = frame.Key{Station: code}
	}
	out := frame.New(append([]time.Time(nil), yf.Frame.Index...), keys)

	var recs []Reconciliation
	buf := make([]float64, 0, 2)
	for i, code := range order {
		cols := positions[code]
		if len(cols) > 1 {
			recs = append(recs, Reconciliation{Year: yf.Year, Station: code, Columns: len(cols)})
		}
		for r := range out.Index {
			buf = buf[:0]
			for _, c := range cols {
				buf = append(buf, yf.Frame.Data[c][r])
			}
			out.Data[i][r] = frame.Mean(buf)
		}
	}
	return YearFrame{Year: yf.Year, Frame: out}, recs
}

// commonStations returns the codes of the first year that every other year
// also has, in the first year's order, plus every code that was dropped.
func commonStations(years []YearFrame) (common, dropped []string) {
	counts := make(map[string]int)
	var all []string
	for _, yf := range years {
		for _, code := range yf.Stations() {
			if counts[code] == 0 {
				all = append(all, code)
			}
			counts[code]++
		}
	}
	inFirst := make(map[string]bool)
	for _, code := range years[0].Stations() {
		inFirst[code] = true
		if counts[code] == len(years) {
			common = append(common, code)
		}
	}
	for _, code := range all {
		if counts[code] != len(years) || !inFirst[code] {
			dropped = append(dropped, code)
		}
	}
	return common, dropped
}
