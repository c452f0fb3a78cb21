package domain

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/air-quality-etl/internal/frame"
)

func hourly(year int, codes []string, rows ...[]float64) YearFrame {
	keys := make([]frame.Key, len(codes))
	for i, c := range codes {
		keys[i] = frame.Key{Station: c}
	}
	index := make([]time.Time, len(rows))
	for r := range rows {
		index[r] = time.Date(year, 1, 1, r+1, 0, 0, 0, time.UTC)
	}
	f := frame.New(index, keys)
	for r, row := range rows {
		for c, v := range row {
			f.Data[c][r] = v
		}
	}
	return YearFrame{Year: year, Frame: f}
}

func testIndex() StationIndex {
	return ResolveStations([]StationRecord{
		{Code: "A", City: "Kraków", Province: "MAŁOPOLSKIE"},
		{Code: "B", OldCodes: "Y, Z", City: "Kraków", Province: "MAŁOPOLSKIE"},
	})
}

func TestMerge(t *testing.T) {
	y1 := hourly(2015, []string{"A", "B", "X3"}, []float64{1, 2, 3}, []float64{4, 5, 6})
	y2 := hourly(2016, []string{"C", "B", "A"}, []float64{7, 8, 9})
	y1c := hourly(2015, []string{"A", "B", "X3", "C"}, []float64{1, 2, 3, 10}, []float64{4, 5, 6, 11})

	t.Run("common stations with unknown defaults", func(t *testing.T) {
		merged, summary, err := Merge([]YearFrame{y1c, y2}, testIndex())
		require.NoError(t, err)

		want := []frame.Key{
			{Province: "MAŁOPOLSKIE", City: "Kraków", Station: "A"},
			{Province: "MAŁOPOLSKIE", City: "Kraków", Station: "B"},
			{Province: UnknownProvince, City: UnknownCity, Station: "C"},
		}
		if diff := cmp.Diff(want, merged.Columns); diff != "" {
			t.Errorf("columns mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, []string{"X3"}, summary.Dropped)
		assert.Equal(t, 3, summary.Stations)
		assert.Equal(t, 3, summary.Rows)
	})

	t.Run("rows concatenated in year order", func(t *testing.T) {
		merged, _, err := Merge([]YearFrame{y1c, y2}, testIndex())
		require.NoError(t, err)

		assert.Equal(t, 2015, merged.Index[0].Year())
		assert.Equal(t, 2016, merged.Index[2].Year())
		a, _ := merged.Column(frame.Key{Province: "MAŁOPOLSKIE", City: "Kraków", Station: "A"})
		assert.Equal(t, []float64{1, 4, 9}, a)
		c, _ := merged.Column(frame.Key{Province: UnknownProvince, City: UnknownCity, Station: "C"})
		assert.Equal(t, []float64{10, 11, 7}, c)
	})

	t.Run("stations missing from first year dropped", func(t *testing.T) {
		_, summary, err := Merge([]YearFrame{y1, y2}, testIndex())
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"X3", "C"}, summary.Dropped)
	})
}

func TestMerge_ReconcilesDuplicates(t *testing.T) {
	yf := hourly(2015, []string{"B", "A", "B"},
		[]float64{10, 1, 20},
		[]float64{math.NaN(), 2, 30},
	)

	merged, summary, err := Merge([]YearFrame{yf}, testIndex())
	require.NoError(t, err)

	require.Equal(t, 2, merged.Width())
	assert.Equal(t, "B", merged.Columns[0].Station)
	assert.Equal(t, []float64{15, 30}, merged.Data[0])
	assert.Equal(t, []Reconciliation{{Year: 2015, Station: "B", Columns: 2}}, summary.Reconciliations)
}

func TestMerge_InfinityBecomesMissing(t *testing.T) {
	yf := hourly(2015, []string{"A"}, []float64{math.Inf(1)}, []float64{3})

	merged, _, err := Merge([]YearFrame{yf}, testIndex())
	require.NoError(t, err)
	assert.True(t, math.IsNaN(merged.Data[0][0]))
	assert.Equal(t, 3.0, merged.Data[0][1])
}

func TestMerge_NoData(t *testing.T) {
	_, _, err := Merge(nil, testIndex())
	require.ErrorIs(t, err, ErrNoData)
}

func TestMerge_AfterNormalize(t *testing.T) {
	old := hourly(2015, []string{"A", "Y"}, []float64{1, 2})
	current := hourly(2018, []string{"A", "B"}, []float64{3, 4})
	idx := testIndex()

	years, _ := NormalizeAll([]YearFrame{old, current}, idx.OldCodes)
	merged, summary, err := Merge(years, idx)
	require.NoError(t, err)

	assert.Empty(t, summary.Dropped)
	b, ok := merged.Column(frame.Key{Province: "MAŁOPOLSKIE", City: "Kraków", Station: "B"})
	require.True(t, ok)
	assert.Equal(t, []float64{2, 4}, b)
}
