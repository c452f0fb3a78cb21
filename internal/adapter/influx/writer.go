// Package influx writes daily station means to InfluxDB v2.
package influx

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
)

// Measurement is the InfluxDB measurement holding daily means.
const Measurement = "pm25_daily"

// batchSize caps the points sent in one write request.
const batchSize = 5000

// Writer stores daily means as points tagged with the station's location.
// It implements pipeline.Loader.
type Writer struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	logger   *slog.Logger
}

// NewWriter creates an InfluxDB client for the configured bucket.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	client := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
	return &Writer{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		logger:   logger,
	}
}

func (w *Writer) Name() string { return "influx" }

// Load writes every non-missing daily mean of the result.
func (w *Writer) Load(ctx context.Context, res *pipeline.Result) error {
	points := Points(res)
	for start := 0; start < len(points); start += batchSize {
		end := min(start+batchSize, len(points))
		if err := w.writeAPI.WritePoint(ctx, points[start:end]...); err != nil {
			return fmt.Errorf("write daily means: %w", err)
		}
	}
	w.logger.Info("daily means written", "points", len(points), "measurement", Measurement)
	return nil
}

// Close releases the client's connections.
func (w *Writer) Close() {
	w.client.Close()
}

// Points converts the daily means into one point per station and day.
func Points(res *pipeline.Result) []*write.Point {
	d := res.DailyMeans
	var points []*write.Point
	for c, k := range d.Columns {
		tags := map[string]string{
			"province": k.Province,
			"city":     k.City,
			"station":  k.Station,
		}
		for r, day := range d.Index {
			v := d.Data[c][r]
			if math.IsNaN(v) {
				continue
			}
			points = append(points, write.NewPoint(Measurement, tags, map[string]any{"mean": v}, day))
		}
	}
	return points
}
