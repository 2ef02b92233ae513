// Package metrics provides Prometheus metrics for the roomward release service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the roomward service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	registry       prometheus.Registerer

	// Core Business Metrics - What really matters for booking release
	bookingEvents      *prometheus.CounterVec
	monitorsStarted    prometheus.Counter
	monitorsStopped    *prometheus.CounterVec
	monitorsActive     prometheus.Gauge
	evaluations        *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	signalReads        *prometheus.CounterVec
	countdownsStarted  prometheus.Counter
	countdownsCanceled *prometheus.CounterVec
	alertsDisplayed    prometheus.Counter
	releases           *prometheus.CounterVec
	auditReports       *prometheus.CounterVec

	// Operational Health Metrics
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueEnqueueFails prometheus.Counter
	dispatchErrors    *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:      "roomward",
		subsystem:      "release",
		latencyBuckets: prometheus.DefBuckets,
		registry:       prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Core Business Metrics - Focus on booking release decisions
	m.bookingEvents = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "booking_events_total",
			Help:      "Total number of booking lifecycle notifications by kind",
		},
		[]string{"kind"},
	)

	m.monitorsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "monitors_started_total",
		Help:      "Total number of booking monitors created",
	})

	m.monitorsStopped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "monitors_stopped_total",
			Help:      "Total number of booking monitors stopped by reason",
		},
		[]string{"reason"},
	)

	m.monitorsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "monitors_active",
		Help:      "Current number of active booking monitors",
	})

	m.evaluations = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "presence_evaluations_total",
			Help:      "Total number of presence evaluations by verdict",
		},
		[]string{"verdict"},
	)

	m.evaluationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "presence_evaluation_duration_milliseconds",
		Help:      "Histogram of presence evaluation duration in milliseconds",
		Buckets:   m.latencyBuckets,
	})

	m.signalReads = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "signal_reads_total",
			Help:      "Total number of presence signal reads by signal and outcome",
		},
		[]string{"signal", "outcome"},
	)

	m.countdownsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "countdowns_started_total",
		Help:      "Total number of unoccupied countdowns armed",
	})

	m.countdownsCanceled = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "countdowns_canceled_total",
			Help:      "Total number of unoccupied countdowns canceled by cause",
		},
		[]string{"cause"},
	)

	m.alertsDisplayed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "alerts_displayed_total",
		Help:      "Total number of pre-release alerts displayed to occupants",
	})

	m.releases = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "releases_total",
			Help:      "Total number of booking releases by outcome",
		},
		[]string{"outcome"},
	)

	m.auditReports = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "audit_reports_total",
			Help:      "Total number of audit report deliveries by outcome",
		},
		[]string{"outcome"},
	)

	// Operational Health Metrics - System stability indicators
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the booking event queue (backlog indicator)",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of the booking event queue",
	})

	m.queueEnqueueFails = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total number of failed enqueue attempts (backpressure or closed queue)",
	})

	m.dispatchErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "dispatch_errors_total",
			Help:      "Total number of dispatcher errors by kind",
		},
		[]string{"kind"},
	)

	// HTTP Performance Metrics - Operator experience indicators
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
			Buckets:   m.latencyBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordBookingEvent increments the booking event counter for a lifecycle kind.
func RecordBookingEvent(kind string) {
	globalManager.bookingEvents.WithLabelValues(kind).Inc()
}

// RecordMonitorStarted increments the monitors started counter.
func RecordMonitorStarted() {
	globalManager.monitorsStarted.Inc()
}

// RecordMonitorStopped increments the monitors stopped counter for a reason.
func RecordMonitorStopped(reason string) {
	globalManager.monitorsStopped.WithLabelValues(reason).Inc()
}

// UpdateActiveMonitors updates the active monitors gauge.
func UpdateActiveMonitors(count int) {
	globalManager.monitorsActive.Set(float64(count))
}

// RecordEvaluation increments the presence evaluation counter for a verdict.
func RecordEvaluation(occupied bool) {
	verdict := "unoccupied"
	if occupied {
		verdict = "occupied"
	}
	globalManager.evaluations.WithLabelValues(verdict).Inc()
}

// RecordEvaluationDuration records presence evaluation duration in milliseconds.
func RecordEvaluationDuration(durationMs float64) {
	globalManager.evaluationDuration.Observe(durationMs)
}

// RecordSignalRead increments the signal read counter for a signal and outcome.
func RecordSignalRead(signal, outcome string) {
	globalManager.signalReads.WithLabelValues(signal, outcome).Inc()
}

// RecordCountdownStarted increments the countdowns started counter.
func RecordCountdownStarted() {
	globalManager.countdownsStarted.Inc()
}

// RecordCountdownCanceled increments the countdowns canceled counter for a cause.
func RecordCountdownCanceled(cause string) {
	globalManager.countdownsCanceled.WithLabelValues(cause).Inc()
}

// RecordAlertDisplayed increments the alerts displayed counter.
func RecordAlertDisplayed() {
	globalManager.alertsDisplayed.Inc()
}

// RecordRelease increments the release counter for an outcome
// (released, simulated, failed).
func RecordRelease(outcome string) {
	globalManager.releases.WithLabelValues(outcome).Inc()
}

// RecordAuditReport increments the audit report counter for an outcome.
func RecordAuditReport(outcome string) {
	globalManager.auditReports.WithLabelValues(outcome).Inc()
}

// UpdateQueueSize updates the queue size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity updates the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueFails.Inc()
}

// RecordDispatchError increments the dispatcher error counter for a kind.
func RecordDispatchError(kind string) {
	globalManager.dispatchErrors.WithLabelValues(kind).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage updates the system memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records a GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom metrics registry for serving /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
