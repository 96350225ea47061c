// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Calendar ingestion metrics
	CalendarEventsLoaded prometheus.Counter
	CalendarRowsRejected *prometheus.CounterVec

	// Simulation metrics
	EventsSimulated    *prometheus.CounterVec
	EventsSkipped      *prometheus.CounterVec
	EventsRejected     prometheus.Counter
	SimulationDuration *prometheus.HistogramVec
	RunDuration        prometheus.Histogram

	// Cross-validation metrics
	CrossvalComparisons prometheus.Counter
	CrossvalDivergences prometheus.Counter
	CrossvalMaxAbsDiff  prometheus.Gauge
	CrossvalRunsTotal   *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "index_rebalancing"
	}

	return &Metrics{
		CalendarEventsLoaded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calendar",
			Name:      "events_loaded_total",
			Help:      "Total number of calendar events accepted",
		}),
		CalendarRowsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calendar",
			Name:      "rows_rejected_total",
			Help:      "Total number of calendar rows rejected by reason",
		}, []string{"reason"}),

		EventsSimulated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "events_simulated_total",
			Help:      "Total number of event simulations completed by strategy",
		}, []string{"strategy"}),
		EventsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "events_skipped_total",
			Help:      "Total number of skipped simulations by strategy and reason",
		}, []string{"strategy", "reason"}),
		EventsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "events_rejected_total",
			Help:      "Total number of malformed events rejected",
		}),
		SimulationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "simulation_duration_seconds",
			Help:      "Per-event simulation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"strategy"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "run_duration_seconds",
			Help:      "Full backtest run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		CrossvalComparisons: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crossval",
			Name:      "comparisons_total",
			Help:      "Total number of element-wise cross-validation comparisons",
		}),
		CrossvalDivergences: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crossval",
			Name:      "divergences_total",
			Help:      "Total number of divergences beyond tolerance",
		}),
		CrossvalMaxAbsDiff: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "crossval",
			Name:      "max_abs_diff",
			Help:      "Largest absolute difference observed in the last comparison",
		}),
		CrossvalRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crossval",
			Name:      "runs_total",
			Help:      "Total number of cross-validation runs by outcome",
		}, []string{"outcome"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful backtest run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCalendarLoad records a calendar load outcome.
func RecordCalendarLoad(accepted int, rejectedReasons []string) {
	DefaultMetrics.CalendarEventsLoaded.Add(float64(accepted))
	for _, reason := range rejectedReasons {
		DefaultMetrics.CalendarRowsRejected.WithLabelValues(reason).Inc()
	}
}

// RecordSimulation records one completed simulation. reason is empty
// for closed trades.
func RecordSimulation(strategy, reason string, seconds float64) {
	DefaultMetrics.EventsSimulated.WithLabelValues(strategy).Inc()
	DefaultMetrics.SimulationDuration.WithLabelValues(strategy).Observe(seconds)
	if reason != "" {
		DefaultMetrics.EventsSkipped.WithLabelValues(strategy, reason).Inc()
	}
}

// RecordRejectedEvent increments the malformed-event counter.
func RecordRejectedEvent() {
	DefaultMetrics.EventsRejected.Inc()
}

// RecordRunDuration records a full backtest run.
func RecordRunDuration(seconds float64) {
	DefaultMetrics.RunDuration.Observe(seconds)
	DefaultMetrics.LastSuccessfulRun.SetToCurrentTime()
}

// RecordCrossval records the outcome of one cross-validation run.
func RecordCrossval(comparisons, divergences int, maxAbsDiff float64, agreed bool) {
	DefaultMetrics.CrossvalComparisons.Add(float64(comparisons))
	DefaultMetrics.CrossvalDivergences.Add(float64(divergences))
	DefaultMetrics.CrossvalMaxAbsDiff.Set(maxAbsDiff)
	outcome := "diverged"
	if agreed {
		outcome = "agreed"
	}
	DefaultMetrics.CrossvalRunsTotal.WithLabelValues(outcome).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
