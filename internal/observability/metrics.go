package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pm25_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	YearsLoaded         prometheus.Counter
	YearsFailed         prometheus.Counter
	RowsCleaned         prometheus.Counter
	CodesRewritten      prometheus.Counter
	TimestampsCorrected prometheus.Counter
	ColumnsReconciled   prometheus.Counter
	StationsDropped     prometheus.Gauge
	PipelineRunning     prometheus.Gauge

	StageDuration *prometheus.HistogramVec // labels: stage
	SinkWrites    *prometheus.CounterVec   // labels: sink, outcome={success,error}

	// Archive retrieval metrics.
	ArchiveRequests *prometheus.CounterVec // labels: kind={page,archive,metadata}, outcome={success,error}
	ArchiveCache    *prometheus.CounterVec // labels: result={hit,miss}
	ArchiveDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.YearsLoaded,
		m.YearsFailed,
		m.RowsCleaned,
		m.CodesRewritten,
		m.TimestampsCorrected,
		m.ColumnsReconciled,
		m.StationsDropped,
		m.PipelineRunning,
		m.StageDuration,
		m.SinkWrites,
		m.ArchiveRequests,
		m.ArchiveCache,
		m.ArchiveDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		YearsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "years_loaded_total",
			Help:      "Yearly archives fetched and cleaned.",
		}),
		YearsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "years_failed_total",
			Help:      "Yearly archives that could not be fetched or cleaned.",
		}),
		RowsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_cleaned_total",
			Help:      "Hourly data rows kept by the cleaner.",
		}),
		CodesRewritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "station_codes_rewritten_total",
			Help:      "Retired station codes replaced by their current code.",
		}),
		TimestampsCorrected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timestamps_corrected_total",
			Help:      "Midnight timestamps moved to the previous day.",
		}),
		ColumnsReconciled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "columns_reconciled_total",
			Help:      "Duplicate station columns merged into one.",
		}),
		StationsDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations_dropped",
			Help:      "Stations excluded from the last merge for missing from some year.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		SinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_writes_total",
			Help:      "Result deliveries by sink and outcome.",
		}, []string{"sink", "outcome"}),
		ArchiveRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_requests_total",
			Help:      "GIOŚ archive requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		ArchiveCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_cache_total",
			Help:      "Archive payload cache lookups by result.",
		}, []string{"result"}),
		ArchiveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_download_duration_seconds",
			Help:      "GIOŚ download duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}
