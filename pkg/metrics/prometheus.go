// Package metrics provides Prometheus metrics for the kitegrade service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Pipeline
	loads             *prometheus.CounterVec
	loadFailures      *prometheus.CounterVec
	mappingGaps       *prometheus.CounterVec
	heuristicMatches  prometheus.Counter
	aggregateFailures prometheus.Counter
	rowsReconciled    prometheus.Counter
	reconcileLatency  prometheus.Histogram

	// Sessions
	activeSessions       prometheus.Gauge
	evaluationsSubmitted prometheus.Counter
	exports              *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "kitegrade",
		subsystem:        "pipeline",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.loads = auto.NewCounterVec(m.counterOpts("table_loads_total",
		"Tables served, by origin (upload, local, demo)"), []string{"origin"})
	m.loadFailures = auto.NewCounterVec(m.counterOpts("table_load_failures_total",
		"Sources that could not be parsed, by reason"), []string{"reason"})
	m.mappingGaps = auto.NewCounterVec(m.counterOpts("mapping_gaps_total",
		"Rubric fields with no matching source column"), []string{"field"})
	m.heuristicMatches = auto.NewCounter(m.counterOpts("heuristic_matches_total",
		"Rubric fields matched by the heuristic pass"))
	m.aggregateFailures = auto.NewCounter(m.counterOpts("aggregate_failures_total",
		"Rows whose average fell back to 0"))
	m.rowsReconciled = auto.NewCounter(m.counterOpts("rows_reconciled_total",
		"Rows produced by the reconciler"))
	m.reconcileLatency = auto.NewHistogram(m.histogramOpts("reconcile_latency_milliseconds",
		"Time from source read to reconciled table"))

	m.activeSessions = auto.NewGauge(m.gaugeOpts("active_sessions", "Live grading sessions"))
	m.evaluationsSubmitted = auto.NewCounter(m.counterOpts("evaluations_submitted_total",
		"Evaluations accepted across sessions"))
	m.exports = auto.NewCounterVec(m.counterOpts("exports_total",
		"CSV documents written, by kind"), []string{"kind"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total",
		"Errors by type and severity"), []string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total",
		"Errors by endpoint, method and type"), []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordLoad counts a table served from origin.
func RecordLoad(origin string) {
	globalManager.loads.WithLabelValues(origin).Inc()
}

// RecordLoadFailure counts a source that failed to load.
func RecordLoadFailure(reason string) {
	globalManager.loadFailures.WithLabelValues(reason).Inc()
}

// RecordMappingGap counts a rubric field left without a source column.
func RecordMappingGap(field string) {
	globalManager.mappingGaps.WithLabelValues(field).Inc()
}

// RecordHeuristicMatch counts a field matched by the heuristic pass.
func RecordHeuristicMatch() {
	globalManager.heuristicMatches.Inc()
}

// RecordAggregateFailures adds n rows whose average defaulted to 0.
func RecordAggregateFailures(n int) {
	if n > 0 {
		globalManager.aggregateFailures.Add(float64(n))
	}
}

// RecordRowsReconciled adds n reconciled rows.
func RecordRowsReconciled(n int) {
	if n > 0 {
		globalManager.rowsReconciled.Add(float64(n))
	}
}

// RecordReconcileLatency records pipeline latency in milliseconds.
func RecordReconcileLatency(latencyMs float64) {
	globalManager.reconcileLatency.Observe(latencyMs)
}

// UpdateActiveSessions sets the number of live sessions.
func UpdateActiveSessions(n int) {
	globalManager.activeSessions.Set(float64(n))
}

// RecordEvaluationSubmitted counts an accepted evaluation.
func RecordEvaluationSubmitted() {
	globalManager.evaluationsSubmitted.Inc()
}

// RecordExport counts a CSV document of the given kind.
func RecordExport(kind string) {
	globalManager.exports.WithLabelValues(kind).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
