// Package metrics provides the centralized Prometheus metrics registry for the pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	SignalsProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backtest_pipeline",
		Name:      "signals_processed_total",
		Help:      "Total number of completion signals processed",
	}, []string{"result"})
	PersistenceFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backtest_pipeline",
		Name:      "persistence_failures_total",
		Help:      "Total number of persistence failures",
	}, []string{"phase"})
	CompensationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "backtest_pipeline",
		Name:      "compensations_total",
		Help:      "Total number of phase-1 compensations attempted",
	})
	CompensationFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "backtest_pipeline",
		Name:      "compensation_failures_total",
		Help:      "Total number of failed compensations, indicating possible orphaned snapshots",
	})
	ReportGenerationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backtest_pipeline",
		Name:      "report_generation_total",
		Help:      "Total number of report generation attempts",
	}, []string{"status"})
	StaleRunsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "backtest_pipeline",
		Name:      "stale_runs_failed_total",
		Help:      "Total number of stuck RUNNING backtests failed by the watchdog",
	})
)

// Gauge metrics
var (
	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "backtest_pipeline",
		Name:      "queue_depth",
		Help:      "Number of completion signals waiting in the queue",
	})
)

// Histogram metrics
var (
	SignalHandlingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "backtest_pipeline",
		Name:      "signal_handling_duration_seconds",
		Help:      "Duration of one completion signal pass in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(SignalsProcessedTotal)
		registry.MustRegister(PersistenceFailuresTotal)
		registry.MustRegister(CompensationsTotal)
		registry.MustRegister(CompensationFailuresTotal)
		registry.MustRegister(ReportGenerationTotal)
		registry.MustRegister(StaleRunsFailedTotal)

		// Register gauge metrics
		registry.MustRegister(QueueDepth)

		// Register histogram metrics
		registry.MustRegister(SignalHandlingDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordSignalProcessed records a handled completion signal by outcome
// (completed, failed, dropped).
func RecordSignalProcessed(result string) {
	SignalsProcessedTotal.WithLabelValues(result).Inc()
}

// RecordPersistenceFailure records a persistence failure by phase
// (aggregate, children).
func RecordPersistenceFailure(phase string) {
	PersistenceFailuresTotal.WithLabelValues(phase).Inc()
}

// RecordCompensation records a phase-1 compensation attempt.
func RecordCompensation(ok bool) {
	CompensationsTotal.Inc()
	if !ok {
		CompensationFailuresTotal.Inc()
	}
}

// RecordReportGeneration records a report generation attempt by status
// (ok, failed).
func RecordReportGeneration(status string) {
	ReportGenerationTotal.WithLabelValues(status).Inc()
}

// RecordSignalHandling records the duration of a full signal pass.
func RecordSignalHandling(durationSeconds float64) {
	SignalHandlingDuration.Observe(durationSeconds)
}

// UpdateQueueDepth updates the queue depth gauge.
func UpdateQueueDepth(depth int) {
	QueueDepth.Set(float64(depth))
}

// RecordStaleRunsFailed records backtests failed by the watchdog.
func RecordStaleRunsFailed(count int64) {
	StaleRunsFailedTotal.Add(float64(count))
}
