package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climate_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ingestion pipeline.
type Metrics struct {
	PipelineRunning prometheus.Gauge
	RunDuration     prometheus.Histogram
	LastRunSuccess  prometheus.Gauge

	// Fetch metrics.
	FetchAttempts *prometheus.CounterVec // labels: outcome={ok,not_found,transport_error,empty,unexpected_status}
	FetchDuration prometheus.Histogram

	// Parse metrics.
	RowsParsed  prometheus.Counter
	RowsSkipped prometheus.Counter

	// Merge metrics.
	PointsWritten *prometheus.CounterVec // labels: result={created,updated}
	Combinations  *prometheus.CounterVec // labels: status={fetched,skipped,error}

	ReportPublishErrors prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.PipelineRunning,
		m.RunDuration,
		m.LastRunSuccess,
		m.FetchAttempts,
		m.FetchDuration,
		m.RowsParsed,
		m.RowsSkipped,
		m.PointsWritten,
		m.Combinations,
		m.ReportPublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while an ingestion run is in progress, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete ingestion run across all combinations.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run finished without a systemic error, 0 otherwise.",
		}),
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "Candidate URL fetch attempts by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a single candidate URL fetch.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		RowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_parsed_total",
			Help:      "Year rows parsed from fetched datasets.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Dataset lines dropped as headers or malformed rows.",
		}),
		PointsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_written_total",
			Help:      "Monthly points upserted by result.",
		}, []string{"result"}),
		Combinations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "combinations_total",
			Help:      "Region/parameter combinations processed by status.",
		}, []string{"status"}),
		ReportPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_publish_errors_total",
			Help:      "Combination reports that could not be published.",
		}),
	}
}
