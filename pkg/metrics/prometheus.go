// Package metrics provides Prometheus metrics for the EcoQuest scoring
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Manager holds all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Ingestion
	observationsIngested  prometheus.Counter
	observationsDuplicate prometheus.Counter
	observationsRejected  prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerActive            prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Store
	storeObservations prometheus.Gauge
	storeErrors       prometheus.Counter

	// Scoreboard
	scoreboardRebuilds        prometheus.Counter
	scoreboardRebuildDuration prometheus.Histogram
	scoreboardParticipants    prometheus.Gauge
	scoreboardAgeSeconds      prometheus.Gauge

	// Trophies
	trophyEvalDuration prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "ecoquest",
		subsystem:        "bioblitz",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      name,
			Help:      help,
		}
	}
	gaugeOpts := func(name, help string) prometheus.GaugeOpts {
		return prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      name,
			Help:      help,
		}
	}
	histOpts := func(name, help string) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      name,
			Help:      help,
			Buckets:   m.histogramBuckets,
		}
	}

	m.observationsIngested = prometheus.NewCounter(factory("observations_ingested_total", "Observations accepted into the store."))
	m.observationsDuplicate = prometheus.NewCounter(factory("observations_duplicate_total", "Observations rejected as duplicates."))
	m.observationsRejected = prometheus.NewCounter(factory("observations_rejected_total", "Observations rejected as invalid."))

	m.queueSize = prometheus.NewGauge(gaugeOpts("queue_size", "Current number of queued events."))
	m.queueCapacity = prometheus.NewGauge(gaugeOpts("queue_capacity", "Configured queue capacity."))
	m.queueUtilization = prometheus.NewGauge(gaugeOpts("queue_utilization", "Queue fill ratio, 0-1."))
	m.queueEnqueueErrors = prometheus.NewCounter(factory("queue_enqueue_errors_total", "Enqueue attempts that failed."))

	m.workerActive = prometheus.NewGauge(gaugeOpts("worker_active", "Number of running ingest workers."))
	m.workerProcessingLatency = prometheus.NewHistogram(histOpts("worker_processing_latency_ms", "Per-event worker processing latency in milliseconds."))
	m.workerErrors = prometheus.NewCounter(factory("worker_errors_total", "Events the workers failed to process."))

	m.storeObservations = prometheus.NewGauge(gaugeOpts("store_observations", "Observations currently stored."))
	m.storeErrors = prometheus.NewCounter(factory("store_errors_total", "Observation store failures."))

	m.scoreboardRebuilds = prometheus.NewCounter(factory("scoreboard_rebuilds_total", "Scoreboard recomputations."))
	m.scoreboardRebuildDuration = prometheus.NewHistogram(histOpts("scoreboard_rebuild_duration_ms", "Scoreboard recomputation duration in milliseconds."))
	m.scoreboardParticipants = prometheus.NewGauge(gaugeOpts("scoreboard_participants", "Users on the current scoreboard."))
	m.scoreboardAgeSeconds = prometheus.NewGauge(gaugeOpts("scoreboard_age_seconds", "Age of the cached scoreboard snapshot."))

	m.trophyEvalDuration = prometheus.NewHistogram(histOpts("trophy_eval_duration_ms", "Trophy evaluation duration in milliseconds."))

	m.httpRequests = prometheus.NewCounterVec(factory("http_requests_total", "HTTP requests by endpoint, method, and status."), []string{"endpoint", "method", "status"})
	m.httpRequestDuration = prometheus.NewHistogramVec(histOpts("http_request_duration_ms", "HTTP request duration in milliseconds."), []string{"endpoint", "method"})

	if !m.enabled {
		return
	}
	m.registry.MustRegister(
		m.observationsIngested, m.observationsDuplicate, m.observationsRejected,
		m.queueSize, m.queueCapacity, m.queueUtilization, m.queueEnqueueErrors,
		m.workerActive, m.workerProcessingLatency, m.workerErrors,
		m.storeObservations, m.storeErrors,
		m.scoreboardRebuilds, m.scoreboardRebuildDuration,
		m.scoreboardParticipants, m.scoreboardAgeSeconds,
		m.trophyEvalDuration,
		m.httpRequests, m.httpRequestDuration,
	)
}

// GetRegistry returns the gatherer backing the global manager, for serving
// /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers against the global manager.

func RecordObservationIngested()  { globalManager.observationsIngested.Inc() }
func RecordObservationDuplicate() { globalManager.observationsDuplicate.Inc() }
func RecordObservationRejected()  { globalManager.observationsRejected.Inc() }

func UpdateQueueSize(n int)             { globalManager.queueSize.Set(float64(n)) }
func UpdateQueueCapacity(n int)         { globalManager.queueCapacity.Set(float64(n)) }
func UpdateQueueUtilization(r float64)  { globalManager.queueUtilization.Set(r) }
func RecordQueueEnqueueError()          { globalManager.queueEnqueueErrors.Inc() }

func UpdateWorkerActive(n int)                  { globalManager.workerActive.Set(float64(n)) }
func RecordWorkerProcessingLatency(ms float64)  { globalManager.workerProcessingLatency.Observe(ms) }
func RecordWorkerError()                        { globalManager.workerErrors.Inc() }

func UpdateStoreObservations(n int) { globalManager.storeObservations.Set(float64(n)) }
func RecordStoreError()             { globalManager.storeErrors.Inc() }

func RecordScoreboardRebuild(durationMs float64) {
	globalManager.scoreboardRebuilds.Inc()
	globalManager.scoreboardRebuildDuration.Observe(durationMs)
}
func UpdateScoreboardParticipants(n int)    { globalManager.scoreboardParticipants.Set(float64(n)) }
func UpdateScoreboardAge(seconds float64)   { globalManager.scoreboardAgeSeconds.Set(seconds) }
func RecordTrophyEvalDuration(ms float64)   { globalManager.trophyEvalDuration.Observe(ms) }

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(ms)
}
