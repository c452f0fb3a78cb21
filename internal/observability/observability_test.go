package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "json", "warn"))

	logger.Info("dropped")
	logger.Warn("year skipped", "year", 2019)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "year skipped", entry["msg"])
	assert.InDelta(t, 2019, entry["year"], 0)
}

func TestNewHandler_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "text", "debug"))

	logger.Debug("station codes rewritten", "changes", 3)

	assert.Contains(t, buf.String(), "station codes rewritten")
	assert.Contains(t, buf.String(), "changes")
}

func TestNewMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()

	m.YearsLoaded.Inc()
	m.SinkWrites.WithLabelValues("csv", "success").Inc()
	m.StageDuration.WithLabelValues("clean").Observe(0.2)

	assert.InDelta(t, 1, testutil.ToFloat64(m.YearsLoaded), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SinkWrites.WithLabelValues("csv", "success")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration))
}
