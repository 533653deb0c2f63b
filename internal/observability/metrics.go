package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "county_risk"

// Metrics holds the Prometheus counters, histograms, and gauges for the risk pipeline.
type Metrics struct {
	SourceRowsLoaded  *prometheus.CounterVec // labels: source
	SourceRowsDropped *prometheus.CounterVec // labels: source
	PipelineRunning   prometheus.Gauge

	// Run metrics.
	Runs               *prometheus.CounterVec // labels: outcome={success,no_results,load_error,write_error,canceled}
	RunDuration        prometheus.Histogram
	LastSuccessfulRun  prometheus.Gauge
	MergedRows         prometheus.Gauge
	CountiesForecasted prometheus.Counter

	// Forecast service metrics.
	CountiesSkipped     *prometheus.CounterVec   // labels: reason
	ForecastAPIDuration *prometheus.HistogramVec // labels: outcome={success,error}
	ForecastCache       *prometheus.CounterVec   // labels: result={hit,miss}
	TokenRefreshes      prometheus.Counter
	RecordsPublished    prometheus.Counter
	PublishErrors       prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		SourceRowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rows_loaded_total",
			Help:      "Rows read from each source file.",
		}, []string{"source"}),
		SourceRowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rows_dropped_total",
			Help:      "Rows dropped by each source transformer for lacking a usable key or date.",
		}, []string{"source"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete load-forecast-write run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600},
		}),
		LastSuccessfulRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_run_timestamp_seconds",
			Help:      "Unix time of the last run that wrote an output file.",
		}),
		MergedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "merged_rows",
			Help:      "County-month rows produced by the last merge.",
		}),
		CountiesForecasted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counties_forecasted_total",
			Help:      "Counties that produced a risk score.",
		}),
		CountiesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counties_skipped_total",
			Help:      "Counties left out of a run, by reason.",
		}, []string{"reason"}),
		ForecastAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forecast_api_duration_seconds",
			Help:      "Forecast service request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}),
		ForecastCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_cache_lookups_total",
			Help:      "Forecast cache lookups by result.",
		}, []string{"result"}),
		TokenRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iam_token_refreshes_total",
			Help:      "IAM bearer tokens fetched.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Risk-score records written to the Kafka topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed Kafka publications of a run's records.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SourceRowsLoaded,
		m.SourceRowsDropped,
		m.PipelineRunning,
		m.Runs,
		m.RunDuration,
		m.LastSuccessfulRun,
		m.MergedRows,
		m.CountiesForecasted,
		m.CountiesSkipped,
		m.ForecastAPIDuration,
		m.ForecastCache,
		m.TokenRefreshes,
		m.RecordsPublished,
		m.PublishErrors,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
