// Package metrics provides Prometheus metrics for the gradeflow pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for a pipeline run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Row-level outcomes
	rowsProcessed *prometheus.CounterVec
	rowsSkipped   *prometheus.CounterVec

	// Score corrections
	scoreClamps        prometheus.Counter
	scoreDecimalShifts prometheus.Counter

	// Output
	duplicateMerges prometheus.Counter
	recordsWritten  *prometheus.CounterVec

	// Batch timings
	batchDuration *prometheus.HistogramVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem for all metrics.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithHistogramBuckets sets custom histogram buckets for timing metrics.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithPrometheusRegistry sets the registry metrics are registered on.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gradeflow",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.rowsProcessed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "rows_processed_total",
			Help:      "Total source rows that produced a provisional score",
		},
		[]string{"assessment_type"},
	)

	m.rowsSkipped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "rows_skipped_total",
			Help:      "Total source rows skipped, by reason",
		},
		[]string{"assessment_type", "reason"},
	)

	m.scoreClamps = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_clamps_total",
		Help:      "Out-of-range raw scores clamped to a scale bound",
	})

	m.scoreDecimalShifts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_decimal_shifts_total",
		Help:      "Out-of-range raw scores corrected by the divide-by-10 heuristic",
	})

	m.duplicateMerges = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_merges_total",
		Help:      "Provisional rows folded into an existing record by averaging",
	})

	m.recordsWritten = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "records_written_total",
			Help:      "Canonical records written to the datastore",
		},
		[]string{"assessment_type"},
	)

	m.batchDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "batch_duration_seconds",
			Help:      "Wall time of one assessment type's batch, end to end",
			Buckets:   m.histogramBuckets,
		},
		[]string{"assessment_type"},
	)
}

// RecordRowProcessed increments the processed-row counter for a type.
func RecordRowProcessed(assessmentType string) {
	globalManager.rowsProcessed.WithLabelValues(assessmentType).Inc()
}

// RecordRowSkipped increments the skipped-row counter for a type and reason.
func RecordRowSkipped(assessmentType, reason string) {
	globalManager.rowsSkipped.WithLabelValues(assessmentType, reason).Inc()
}

// RecordScoreClamp increments the clamp counter.
func RecordScoreClamp() {
	globalManager.scoreClamps.Inc()
}

// RecordScoreDecimalShift increments the decimal-shift counter.
func RecordScoreDecimalShift() {
	globalManager.scoreDecimalShifts.Inc()
}

// RecordDuplicateMerge increments the duplicate-merge counter.
func RecordDuplicateMerge() {
	globalManager.duplicateMerges.Inc()
}

// RecordRecordsWritten adds to the written-record counter for a type.
func RecordRecordsWritten(assessmentType string, n int) {
	globalManager.recordsWritten.WithLabelValues(assessmentType).Add(float64(n))
}

// RecordBatchDuration observes one batch's wall time in seconds.
func RecordBatchDuration(assessmentType string, seconds float64) {
	globalManager.batchDuration.WithLabelValues(assessmentType).Observe(seconds)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
