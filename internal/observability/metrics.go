package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// compute pipeline.
type Metrics struct {
	JobsConsumed    prometheus.Counter
	ResultsProduced prometheus.Counter
	ComputeErrors   prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
	ComputeDuration         *prometheus.HistogramVec // label: index

	// Engine diagnostics surfaced per job.
	BootstrapPasses prometheus.Counter
	MaskedPeriods   prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		JobsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climdex",
			Name:      "jobs_consumed_total",
			Help:      "Total compute jobs read from the source topic.",
		}),
		ResultsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climdex",
			Name:      "results_produced_total",
			Help:      "Total results written to the sink topic, including error results.",
		}),
		ComputeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climdex",
			Name:      "compute_errors_total",
			Help:      "Total jobs that failed validation or computation.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climdex",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climdex",
			Name:      "batch_size",
			Help:      "Number of jobs per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climdex",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-compute-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ComputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "climdex",
			Name:      "compute_duration_seconds",
			Help:      "Single-job computation duration by index.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"index"}),
		BootstrapPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climdex",
			Name:      "bootstrap_passes_total",
			Help:      "Total leave-one-out percentile passes across all jobs.",
		}),
		MaskedPeriods: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climdex",
			Name:      "masked_periods_total",
			Help:      "Total resampling periods masked out for insufficient data.",
		}),
	}

	prometheus.MustRegister(
		m.JobsConsumed,
		m.ResultsProduced,
		m.ComputeErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ComputeDuration,
		m.BootstrapPasses,
		m.MaskedPeriods,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		JobsConsumed:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climdex", Name: "jobs_consumed_total"}),
		ResultsProduced:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climdex", Name: "results_produced_total"}),
		ComputeErrors:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climdex", Name: "compute_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "climdex", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "climdex", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "climdex", Name: "batch_processing_duration_seconds"}),
		ComputeDuration:         prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "climdex", Name: "compute_duration_seconds"}, []string{"index"}),
		BootstrapPasses:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climdex", Name: "bootstrap_passes_total"}),
		MaskedPeriods:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climdex", Name: "masked_periods_total"}),
	}
}
