package csvexport

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/frame"
	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
)

var (
	stationA = frame.Key{Province: "MAŁOPOLSKIE", City: "Kraków", Station: "MpKrakAlKras"}
	stationB = frame.Key{Province: "MAZOWIECKIE", City: "Warszawa", Station: "MzWarAlNiepo"}
)

func testResult() *pipeline.Result {
	months := []frame.Month{
		{Year: 2015, Month: 1}, {Year: 2015, Month: 2},
		{Year: 2018, Month: 1},
	}
	monthly := frame.New(months, []frame.Key{stationA, stationB})
	monthly.Data[0] = []float64{40.5, 30, 25}
	monthly.Data[1] = []float64{math.NaN(), 20, 18.25}

	exceed := frame.New([]int{2015, 2018}, []frame.Key{stationA, stationB})
	exceed.Data[0] = []float64{120, 80}
	exceed.Data[1] = []float64{90, 60}

	return &pipeline.Result{
		Years:        []int{2015, 2018},
		Threshold:    15,
		Merged:       frame.New([]time.Time{}, []frame.Key{stationA, stationB}),
		MonthlyMeans: monthly,
		Exceedance:   exceed,
	}
}

func testExporter(t *testing.T, format string) (*Exporter, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{OutputDir: dir, OutputFormat: format}
	return NewExporter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))), dir
}

func TestExporter_WriteYear(t *testing.T) {
	e, dir := testExporter(t, config.FormatCSV)
	require.NoError(t, e.WriteYear(2015, testResult()))

	monthly, err := ReadFile(filepath.Join(dir, "2015", "monthly_means.csv"), 3)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"year", "month", "MAŁOPOLSKIE", "MAZOWIECKIE"},
		{"", "", "Kraków", "Warszawa"},
		{"", "", "MpKrakAlKras", "MzWarAlNiepo"},
	}, monthly.Header)
	require.Len(t, monthly.Rows, 2, "only the requested year")
	assert.Equal(t, []float64{2015, 1, 40.5}, monthly.Rows[0][:3])
	assert.True(t, math.IsNaN(monthly.Rows[0][3]), "NaN round-trips as empty cell")

	exceed, err := ReadFile(filepath.Join(dir, "2015", "exceed_days.csv"), 3)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2015, 120, 90}}, exceed.Rows)

	_, err = os.Stat(filepath.Join(dir, "2015", "monthly_means.xlsx"))
	require.ErrorIs(t, err, os.ErrNotExist, "csv format writes no workbooks")
}

func TestExporter_WriteYear_RawText(t *testing.T) {
	e, dir := testExporter(t, config.FormatCSV)
	require.NoError(t, e.WriteYear(2015, testResult()))

	data, err := os.ReadFile(filepath.Join(dir, "2015", "monthly_means.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "2015,1,40.5,\n")
}

func TestExporter_WriteYear_Unprocessed(t *testing.T) {
	e, _ := testExporter(t, config.FormatCSV)
	err := e.WriteYear(2021, testResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2021")
}

func TestExporter_Both(t *testing.T) {
	e, dir := testExporter(t, config.FormatBoth)
	require.NoError(t, e.WriteYear(2018, testResult()))

	for _, name := range []string{"monthly_means.csv", "monthly_means.xlsx", "exceed_days.csv", "exceed_days.xlsx"} {
		assert.FileExists(t, filepath.Join(dir, "2018", name))
	}
}

func TestExporter_XLSXOnly(t *testing.T) {
	e, dir := testExporter(t, config.FormatXLSX)
	require.NoError(t, e.WriteYear(2018, testResult()))

	assert.FileExists(t, filepath.Join(dir, "2018", "exceed_days.xlsx"))
	assert.NoFileExists(t, filepath.Join(dir, "2018", "exceed_days.csv"))
}

func TestExporter_Load(t *testing.T) {
	res := testResult()
	res.Report = &pipeline.Report{
		Cities:      []string{"Kraków", "Warszawa"},
		Years:       []int{2015, 2018},
		ExtremeYear: 2018,
		CityMonthly: frame.New(res.MonthlyMeans.Index, []frame.Key{{City: "Kraków"}, {City: "Warszawa"}}),
		CityExceedance: frame.Flat{
			Header: [][]string{{"year", "Kraków", "Warszawa"}},
			Rows:   [][]float64{{2015, 120, 90}, {2018, 80, 60}},
		},
		Extremes: res.Exceedance,
	}

	e, dir := testExporter(t, config.FormatCSV)
	assert.Equal(t, "csv", e.Name())
	require.NoError(t, e.Load(context.Background(), res))

	assert.FileExists(t, filepath.Join(dir, "2015", "monthly_means.csv"))
	assert.FileExists(t, filepath.Join(dir, "2018", "exceed_days.csv"))
	assert.FileExists(t, filepath.Join(dir, "report", "report.xlsx"))

	cities, err := ReadFile(filepath.Join(dir, "report", "city_exceedance.csv"), 1)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"year", "Kraków", "Warszawa"}}, cities.Header)
	assert.Equal(t, [][]float64{{2015, 120, 90}, {2018, 80, 60}}, cities.Rows)

	extremes, err := ReadFile(filepath.Join(dir, "report", "extremes.csv"), 3)
	require.NoError(t, err)
	assert.Len(t, extremes.Rows, 2)
}

func TestExporter_Load_NoReport(t *testing.T) {
	e, dir := testExporter(t, config.FormatCSV)
	require.NoError(t, e.Load(context.Background(), testResult()))
	assert.NoDirExists(t, filepath.Join(dir, "report"))
}

func TestExporter_Load_Cancelled(t *testing.T) {
	e, _ := testExporter(t, config.FormatCSV)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, e.Load(ctx, testResult()), context.Canceled)
}

func TestReadFile_Errors(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"), 1)
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "short.csv")
	require.NoError(t, os.WriteFile(path, []byte("year\n"), 0o600))
	_, err = ReadFile(path, 3)
	require.ErrorIs(t, err, ErrShortFile)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2015, "2015"},
		{12.5, "12.5"},
		{0, "0"},
		{math.NaN(), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
	assert.True(t, math.IsNaN(ParseValue("")))
	assert.Equal(t, 12.5, ParseValue(" 12.5 "))
}
