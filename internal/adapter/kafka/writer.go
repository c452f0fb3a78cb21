// Package kafka publishes run aggregates to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/frame"
	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
)

// Message kinds, also sent as the "kind" header.
const (
	KindMonthlyMean    = "monthly_mean"
	KindExceedanceDays = "exceedance_days"
)

// batchSize caps the messages handed to one WriteMessages call.
const batchSize = 1000

// Aggregate is the JSON payload of one published message.
type Aggregate struct {
	Kind        string    `json:"kind"`
	Province    string    `json:"province"`
	City        string    `json:"city"`
	Station     string    `json:"station"`
	Year        int       `json:"year"`
	Month       int       `json:"month,omitempty"`
	Value       float64   `json:"value"`
	Threshold   float64   `json:"threshold,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces aggregate messages to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Load publishes every monthly mean and exceedance count of the result.
// Messages are keyed by station so one station's history stays on one
// partition.
func (w *Writer) Load(ctx context.Context, res *pipeline.Result) error {
	aggs := Aggregates(res)
	msgs := make([]kafkago.Message, len(aggs))
	for i := range aggs {
		msg, err := serializeToMessage(aggs[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	for start := 0; start < len(msgs); start += batchSize {
		end := min(start+batchSize, len(msgs))
		if err := w.writer.WriteMessages(ctx, msgs[start:end]...); err != nil {
			return fmt.Errorf("publish aggregates: %w", err)
		}
	}
	w.logger.Info("aggregates published", "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// Aggregates lists one entry per non-missing (station, month) mean followed
// by one per (station, year) exceedance count.
func Aggregates(res *pipeline.Result) []Aggregate {
	var out []Aggregate
	m := res.MonthlyMeans
	for c, k := range m.Columns {
		for r, month := range m.Index {
			v := m.Data[c][r]
			if math.IsNaN(v) {
				continue
			}
			out = append(out, newAggregate(KindMonthlyMean, k, month.Year, int(month.Month), v, 0, res.GeneratedAt))
		}
	}
	e := res.Exceedance
	for c, k := range e.Columns {
		for r, year := range e.Index {
			v := e.Data[c][r]
			if math.IsNaN(v) {
				continue
			}
			out = append(out, newAggregate(KindExceedanceDays, k, year, 0, v, res.Threshold, res.GeneratedAt))
		}
	}
	return out
}

func newAggregate(kind string, k frame.Key, year, month int, v, threshold float64, at time.Time) Aggregate {
	return Aggregate{
		Kind:        kind,
		Province:    k.Province,
		City:        k.City,
		Station:     k.Station,
		Year:        year,
		Month:       month,
		Value:       v,
		Threshold:   threshold,
		ProcessedAt: at,
	}
}

// serializeToMessage marshals an Aggregate into a Kafka message.
func serializeToMessage(agg Aggregate) (kafkago.Message, error) {
	data, err := json.Marshal(agg)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize aggregate: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(agg.Station),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(agg.Kind)},
			{Key: "processed_at", Value: []byte(agg.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
