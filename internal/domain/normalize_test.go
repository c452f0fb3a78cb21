package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/air-quality-etl/internal/frame"
)

func yearOfStations(year int, codes ...string) YearFrame {
	keys := make([]frame.Key, len(codes))
	for i, c := range codes {
		keys[i] = frame.Key{Station: c}
	}
	index := []time.Time{time.Date(year, 1, 1, 1, 0, 0, 0, time.UTC)}
	f := frame.New(index, keys)
	for c := range f.Data {
		f.Data[c][0] = float64(c + 1)
	}
	return YearFrame{Year: year, Frame: f}
}

func TestNormalizeCodes(t *testing.T) {
	yf := yearOfStations(2015, "Y", "A", "Z")
	old := map[string]string{"Y": "B", "Z": "C"}

	got, summary := NormalizeCodes(yf, old)

	assert.Equal(t, []string{"B", "A", "C"}, got.Stations())
	assert.Equal(t, 2, summary.Changes)
	assert.Equal(t, []CodeRewrite{{Old: "Y", New: "B"}, {Old: "Z", New: "C"}}, summary.Samples)
	assert.Empty(t, summary.Collisions)

	t.Run("values stay in place", func(t *testing.T) {
		assert.Equal(t, yf.Frame.Data, got.Frame.Data)
	})

	t.Run("input untouched", func(t *testing.T) {
		assert.Equal(t, []string{"Y", "A", "Z"}, yf.Stations())
	})
}

func TestNormalizeCodes_Idempotent(t *testing.T) {
	old := map[string]string{"Y": "B", "Z": "B"}
	once, _ := NormalizeCodes(yearOfStations(2016, "Y", "C"), old)
	twice, summary := NormalizeCodes(once, old)

	assert.Equal(t, once.Stations(), twice.Stations())
	assert.Zero(t, summary.Changes)
}

func TestNormalizeCodes_ReportsCollisions(t *testing.T) {
	old := map[string]string{"Y": "B", "Z": "B"}
	got, summary := NormalizeCodes(yearOfStations(2016, "Y", "Z", "A"), old)

	assert.Equal(t, []string{"B", "B", "A"}, got.Stations())
	assert.Equal(t, []string{"B"}, summary.Collisions)
}

func TestNormalizeCodes_SamplesBounded(t *testing.T) {
	codes := make([]string, 8)
	old := make(map[string]string)
	for i := range codes {
		codes[i] = fmt.Sprintf("OLD%d", i)
		old[codes[i]] = fmt.Sprintf("NEW%d", i)
	}

	_, summary := NormalizeCodes(yearOfStations(2017, codes...), old)
	assert.Equal(t, 8, summary.Changes)
	assert.Len(t, summary.Samples, maxRewriteSamples)
}

func TestNormalizeAll(t *testing.T) {
	old := map[string]string{"Y": "B"}
	out, summaries := NormalizeAll([]YearFrame{yearOfStations(2015, "Y"), yearOfStations(2018, "B")}, old)

	assert.Equal(t, []string{"B"}, out[0].Stations())
	assert.Equal(t, []string{"B"}, out[1].Stations())
	assert.Equal(t, 1, summaries[0].Changes)
	assert.Equal(t, 2018, summaries[1].Year)
	assert.Zero(t, summaries[1].Changes)
}
