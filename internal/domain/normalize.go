package domain

import (
	"slices"

	"github.com/couchcryptid/air-quality-etl/internal/frame"
)

// maxRewriteSamples bounds the samples kept in a RewriteSummary.
const maxRewriteSamples = 5

// CodeRewrite is one retired code replaced by its current code.
type CodeRewrite struct {
	Old string
	New string
}

// RewriteSummary describes what NormalizeCodes changed in one year.
type RewriteSummary struct {
	Year       int
	Changes    int
	Samples    []CodeRewrite
	Collisions []string // codes that now label more than one column
}

// NormalizeCodes renames station columns found in oldCodes to their current
// code. Positions are preserved; duplicate codes produced by the rewrite are
// reported in the summary and left for Merge to reconcile.
func NormalizeCodes(yf YearFrame, oldCodes map[string]string) (YearFrame, RewriteSummary) {
	out := YearFrame{Year: yf.Year, Frame: yf.Frame.Clone()}
	summary := RewriteSummary{Year: yf.Year}

	for i, k := range out.Frame.Columns {
		current, ok := oldCodes[k.Station]
		if !ok {
			continue
		}
		out.Frame.Columns[i] = frame.Key{Province: k.Province, City: k.City, Station: current}
		summary.Changes++
		if len(summary.Samples) < maxRewriteSamples {
			summary.Samples = append(summary.Samples, CodeRewrite{Old: k.Station, New: current})
		}
	}

	seen := make(map[string]int, len(out.Frame.Columns))
	for _, k := range out.Frame.Columns {
		seen[k.Station]++
	}
	for code, n := range seen {
		if n > 1 {
			summary.Collisions = append(summary.Collisions, code)
		}
	}
	slices.Sort(summary.Collisions)

	return out, summary
}

// NormalizeAll applies NormalizeCodes to every year, in order.
func NormalizeAll(years []YearFrame, oldCodes map[string]string) ([]YearFrame, []RewriteSummary) {
	out := make([]YearFrame, len(years))
	summaries := make([]RewriteSummary, len(years))
	for i, yf := range years {
		out[i], summaries[i] = NormalizeCodes(yf, oldCodes)
	}
	return out, summaries
}
