package xlsx

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/air-quality-etl/internal/frame"
	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
)

// Report sheet names.
const (
	SheetCityMonthly    = "city_monthly"
	SheetHeatmap        = "heatmap"
	SheetCityExceedance = "city_exceedance"
	SheetExtremes       = "extremes"
)

const (
	axisMonth      = "Miesiąc"
	axisPM25       = "PM2.5 [µg/m³]"
	axisExceedance = "Liczba dni z przekroczeniem"
)

var chartSize = excelize.ChartDimension{Width: 960, Height: 480}

// WriteReport saves the comparative report as a workbook: the city monthly
// means with a line chart per city and year, a monthly heatmap, and column
// charts of exceedance days per city and for the extreme stations.
func WriteReport(path string, rep *pipeline.Report, threshold float64) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, SheetCityMonthly); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	for _, name := range []string{SheetHeatmap, SheetCityExceedance, SheetExtremes} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %s: %w", name, err)
		}
	}

	steps := []func() error{
		func() error { return writeCityMonthly(f, rep) },
		func() error { return writeHeatmap(f, rep) },
		func() error { return writeCityExceedance(f, rep, threshold) },
		func() error { return writeExtremes(f, rep, threshold) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeCityMonthly(f *excelize.File, rep *pipeline.Report) error {
	flat := frame.Flatten(rep.CityMonthly, []string{"year", "month"}, frame.MonthIndex, frame.LevelCity)
	headerRows, err := writeFlat(f, SheetCityMonthly, flat)
	if err != nil {
		return err
	}
	if len(flat.Rows) == 0 {
		return nil
	}

	// Series labels live beside the table so the chart can reference them.
	labelCol := flat.Width() + 2
	var series []excelize.ChartSeries
	for c, key := range rep.CityMonthly.Columns {
		valueCol := c + 3
		for _, year := range rep.Years {
			first, last := yearSpan(rep.CityMonthly.Index, year)
			if first < 0 {
				continue
			}
			labelRow := len(series) + 1
			label, err := excelize.CoordinatesToCellName(labelCol, labelRow)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetCityMonthly, label, key.City+" "+strconv.Itoa(year)); err != nil {
				return err
			}
			series = append(series, excelize.ChartSeries{
				Name:       cellRef(SheetCityMonthly, labelCol, labelRow),
				Categories: rangeRef(SheetCityMonthly, 2, headerRows+first+1, 2, headerRows+last+1),
				Values:     rangeRef(SheetCityMonthly, valueCol, headerRows+first+1, valueCol, headerRows+last+1),
			})
		}
	}
	if len(series) == 0 {
		return nil
	}

	anchor, err := excelize.CoordinatesToCellName(labelCol+2, 2)
	if err != nil {
		return err
	}
	return f.AddChart(SheetCityMonthly, anchor, &excelize.Chart{
		Type:      excelize.Line,
		Series:    series,
		Title:     []excelize.RichTextRun{{Text: "Średnie miesięczne PM2.5"}},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		XAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: axisMonth}}},
		YAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: axisPM25}}},
		Dimension: chartSize,
	})
}

// writeHeatmap lays out one row per city and year with a column per month,
// colored by a two-color scale.
func writeHeatmap(f *excelize.File, rep *pipeline.Report) error {
	header := []any{"city", "year"}
	for m := time.January; m <= time.December; m++ {
		header = append(header, int(m))
	}
	if err := f.SetSheetRow(SheetHeatmap, "A1", &header); err != nil {
		return fmt.Errorf("write heatmap header: %w", err)
	}

	cells := make(map[frame.Month]int, len(rep.CityMonthly.Index))
	for r, m := range rep.CityMonthly.Index {
		cells[m] = r
	}
	row := 2
	for c, key := range rep.CityMonthly.Columns {
		for _, year := range rep.Years {
			values := []any{key.City, year}
			for m := time.January; m <= time.December; m++ {
				r, ok := cells[frame.Month{Year: year, Month: m}]
				if !ok || math.IsNaN(rep.CityMonthly.Data[c][r]) {
					values = append(values, nil)
					continue
				}
				values = append(values, rep.CityMonthly.Data[c][r])
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(SheetHeatmap, cell, &values); err != nil {
				return fmt.Errorf("write heatmap row: %w", err)
			}
			row++
		}
	}
	if row == 2 {
		return nil
	}

	last, err := excelize.CoordinatesToCellName(14, row-1)
	if err != nil {
		return err
	}
	return f.SetConditionalFormat(SheetHeatmap, "C2:"+last, []excelize.ConditionalFormatOptions{{
		Type:     "2_color_scale",
		Criteria: "=",
		MinType:  "min",
		MaxType:  "max",
		MinColor: "#FFF2CC",
		MaxColor: "#C00000",
	}})
}

func writeCityExceedance(f *excelize.File, rep *pipeline.Report, threshold float64) error {
	flat := rep.CityExceedance
	headerRows, err := writeFlat(f, SheetCityExceedance, flat)
	if err != nil {
		return err
	}
	return addYearColumns(f, SheetCityExceedance, flat, headerRows,
		fmt.Sprintf("Dni z przekroczeniem %g µg/m³ w miastach", threshold))
}

func writeExtremes(f *excelize.File, rep *pipeline.Report, threshold float64) error {
	flat := frame.Flatten(rep.Extremes, []string{"year"}, frame.YearIndex)
	headerRows, err := writeFlat(f, SheetExtremes, flat)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("Stacje o najmniejszej i największej liczbie dni > %g µg/m³ w %d", threshold, rep.ExtremeYear)
	return addYearColumns(f, SheetExtremes, flat, headerRows, title)
}

// addYearColumns draws a clustered column chart with one series per data
// row (a year); categories come from the last header row.
func addYearColumns(f *excelize.File, sheet string, flat frame.Flat, headerRows int, title string) error {
	width := flat.Width()
	if len(flat.Rows) == 0 || width < 2 {
		return nil
	}
	series := make([]excelize.ChartSeries, len(flat.Rows))
	for i := range flat.Rows {
		row := headerRows + i + 1
		series[i] = excelize.ChartSeries{
			Name:       cellRef(sheet, 1, row),
			Categories: rangeRef(sheet, 2, headerRows, width, headerRows),
			Values:     rangeRef(sheet, 2, row, width, row),
		}
	}
	anchor, err := excelize.CoordinatesToCellName(width+2, 2)
	if err != nil {
		return err
	}
	return f.AddChart(sheet, anchor, &excelize.Chart{
		Type:      excelize.Col,
		Series:    series,
		Title:     []excelize.RichTextRun{{Text: title}},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		YAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: axisExceedance}}},
		Dimension: chartSize,
	})
}

// yearSpan returns the first and last positions of year in a sorted month
// index, or -1, -1.
func yearSpan(index []frame.Month, year int) (first, last int) {
	first, last = -1, -1
	for i, m := range index {
		if m.Year != year {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	return first, last
}

func cellRef(sheet string, col, row int) string {
	name, _ := excelize.ColumnNumberToName(col)
	return fmt.Sprintf("'%s'!$%s$%d", sheet, name, row)
}

func rangeRef(sheet string, c1, r1, c2, r2 int) string {
	n1, _ := excelize.ColumnNumberToName(c1)
	n2, _ := excelize.ColumnNumberToName(c2)
	return fmt.Sprintf("'%s'!$%s$%d:$%s$%d", sheet, n1, r1, n2, r2)
}
