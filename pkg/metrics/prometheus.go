// Package metrics provides Prometheus metrics for the rushgate admission service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Admission Metrics - The hot path
	admissionAttempts *prometheus.CounterVec
	admissionWinners  prometheus.Counter
	admissionLatency  prometheus.Histogram
	eventSellouts     prometheus.Counter

	// Lifecycle Metrics - Materialization and reconciliation
	eventsMaterialized prometheus.Counter
	eventsReconciled   prometheus.Counter
	winnersPersisted   prometheus.Counter
	reconcileFailures  prometheus.Counter

	// Coordination Store Metrics
	storeLatency prometheus.Histogram
	storeErrors  prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
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
		namespace:        "rushgate",
		subsystem:        "fcfs",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.admissionAttempts = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "admission_attempts_total",
			Help:      "Total number of admission attempts by outcome",
		},
		[]string{"outcome"},
	)

	m.admissionWinners = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "admission_winners_total",
		Help:      "Total number of admitted winners across all events",
	})

	m.admissionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "admission_latency_milliseconds",
		Help:      "Histogram of admission decision latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.eventSellouts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_sellouts_total",
		Help:      "Total number of events that reached capacity",
	})

	m.eventsMaterialized = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_materialized_total",
		Help:      "Total number of admission records written to the coordination store",
	})

	m.eventsReconciled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_reconciled_total",
		Help:      "Total number of events whose winners were migrated to durable storage",
	})

	m.winnersPersisted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "winners_persisted_total",
		Help:      "Total number of winning records persisted during reconciliation",
	})

	m.reconcileFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_failures_total",
		Help:      "Total number of per-event reconciliation failures (record kept for retry)",
	})

	m.storeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_latency_milliseconds",
		Help:      "Coordination store round-trip latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Total number of coordination store failures",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)
}

// RecordAdmissionAttempt increments the attempt counter for an outcome
// (won, lost, conflict, not_found, too_early, error).
func RecordAdmissionAttempt(outcome string) {
	globalManager.admissionAttempts.WithLabelValues(outcome).Inc()
}

// RecordAdmissionWinner increments the winners counter.
func RecordAdmissionWinner() {
	globalManager.admissionWinners.Inc()
}

// RecordAdmissionLatency records admission decision latency in milliseconds.
func RecordAdmissionLatency(latencyMs float64) {
	globalManager.admissionLatency.Observe(latencyMs)
}

// RecordEventSellout increments the sellout counter.
func RecordEventSellout() {
	globalManager.eventSellouts.Inc()
}

// RecordEventMaterialized increments the materialized events counter.
func RecordEventMaterialized() {
	globalManager.eventsMaterialized.Inc()
}

// RecordEventReconciled increments the reconciled events counter.
func RecordEventReconciled() {
	globalManager.eventsReconciled.Inc()
}

// RecordWinnersPersisted adds to the persisted winning records counter.
func RecordWinnersPersisted(n int) {
	globalManager.winnersPersisted.Add(float64(n))
}

// RecordReconcileFailure increments the per-event reconciliation failure counter.
func RecordReconcileFailure() {
	globalManager.reconcileFailures.Inc()
}

// RecordStoreLatency records a coordination store round trip in milliseconds.
func RecordStoreLatency(latencyMs float64) {
	globalManager.storeLatency.Observe(latencyMs)
}

// RecordStoreError increments the coordination store failure counter.
func RecordStoreError() {
	globalManager.storeErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
