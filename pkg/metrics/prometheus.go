// Package metrics provides Prometheus metrics for the family balance service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Rating pipeline
	comparisonsApplied   *prometheus.CounterVec
	comparisonsRejected  *prometheus.CounterVec
	comparisonsDuplicate prometheus.Counter
	uncoveredResponses   prometheus.Counter
	ratingUpdateLatency  prometheus.Histogram
	storeErrors          *prometheus.CounterVec
	storeConflicts       prometheus.Counter

	// Balance score
	scoreCalculations *prometheus.CounterVec
	scoreCache        *prometheus.CounterVec
	subScoreFallbacks *prometheus.CounterVec
	scoreLatency      prometheus.Histogram
	baselinesSaved    prometheus.Counter

	// Ingest queue and workers
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	queueRejections *prometheus.CounterVec
	workerCount     prometheus.Gauge
	workerErrors    prometheus.Counter
	workerLatency   prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Process
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	familiesActive prometheus.Gauge
}

var registry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry served by /healthz

var global = NewManager(WithPrometheusRegistry(registry)) //nolint:gochecknoglobals // package-level recorders

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "balance",
		subsystem:        "engine",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.init()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets}
}

func (m *Manager) init() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.comparisonsApplied = auto.NewCounterVec(m.counterOpts("comparisons_applied_total",
		"Comparison events applied to family rating state, by outcome"), []string{"outcome"})
	m.comparisonsRejected = auto.NewCounterVec(m.counterOpts("comparisons_rejected_total",
		"Comparison events rejected before rating, by reason"), []string{"reason"})
	m.comparisonsDuplicate = auto.NewCounter(m.counterOpts("comparisons_duplicate_total",
		"Comparison events skipped because their event id was already seen"))
	m.uncoveredResponses = auto.NewCounter(m.counterOpts("uncovered_responses_total",
		"Neither-party responses routed to the uncovered task counters"))
	m.ratingUpdateLatency = auto.NewHistogram(m.histogramOpts("rating_update_latency_milliseconds",
		"Latency of one read-modify-write of a family rating document"))
	m.storeErrors = auto.NewCounterVec(m.counterOpts("store_errors_total",
		"Persistence failures by operation"), []string{"op"})
	m.storeConflicts = auto.NewCounter(m.counterOpts("store_conflicts_total",
		"Optimistic concurrency conflicts retried by the store"))

	m.scoreCalculations = auto.NewCounterVec(m.counterOpts("balance_score_calculations_total",
		"Balance score computations by interpretation level"), []string{"level"})
	m.scoreCache = auto.NewCounterVec(m.counterOpts("balance_score_cache_total",
		"Balance score cache lookups by result"), []string{"result"})
	m.subScoreFallbacks = auto.NewCounterVec(m.counterOpts("subscore_fallbacks_total",
		"Sub-scores that fell back to their neutral default, by component and cause"), []string{"component", "cause"})
	m.scoreLatency = auto.NewHistogram(m.histogramOpts("balance_score_latency_milliseconds",
		"Latency of a full balance score computation"))
	m.baselinesSaved = auto.NewCounter(m.counterOpts("baselines_saved_total",
		"Baseline scores written"))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of queued comparison events"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Capacity of the comparison event queue"))
	m.queueRejections = auto.NewCounterVec(m.counterOpts("queue_rejections_total",
		"Enqueue attempts that were refused, by reason"), []string{"reason"})
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Number of ingest workers"))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Events a worker failed to apply"))
	m.workerLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds",
		"Time a worker spent applying one event"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration"), []string{"endpoint", "method", "status_code"})

	m.memoryUsage = auto.NewGauge(m.gaugeOpts("memory_usage_bytes", "Heap bytes allocated"))
	m.goroutineCount = auto.NewGauge(m.gaugeOpts("goroutines", "Number of goroutines"))
	m.familiesActive = auto.NewGauge(m.gaugeOpts("families_active", "Families with rating state in the store"))
}

// RecordComparisonApplied counts an event that changed rating or uncovered state.
func (m *Manager) RecordComparisonApplied(outcome string) {
	m.comparisonsApplied.WithLabelValues(outcome).Inc()
}

// RecordComparisonRejected counts an event refused before any state change.
func (m *Manager) RecordComparisonRejected(reason string) {
	m.comparisonsRejected.WithLabelValues(reason).Inc()
}

// RecordComparisonDuplicate counts a replayed event id.
func (m *Manager) RecordComparisonDuplicate() { m.comparisonsDuplicate.Inc() }

// RecordUncoveredResponse counts a neither-party response.
func (m *Manager) RecordUncoveredResponse() { m.uncoveredResponses.Inc() }

// RecordRatingUpdateLatency observes a rating read-modify-write in milliseconds.
func (m *Manager) RecordRatingUpdateLatency(ms float64) { m.ratingUpdateLatency.Observe(ms) }

// RecordStoreError counts a persistence failure.
func (m *Manager) RecordStoreError(op string) { m.storeErrors.WithLabelValues(op).Inc() }

// RecordStoreConflict counts an optimistic concurrency retry.
func (m *Manager) RecordStoreConflict() { m.storeConflicts.Inc() }

// RecordScoreCalculation counts a fresh balance score computation.
func (m *Manager) RecordScoreCalculation(level string, ms float64) {
	m.scoreCalculations.WithLabelValues(level).Inc()
	m.scoreLatency.Observe(ms)
}

// RecordScoreCache counts a cache lookup; result is "hit" or "miss".
func (m *Manager) RecordScoreCache(result string) { m.scoreCache.WithLabelValues(result).Inc() }

// RecordSubScoreFallback counts a sub-score that used its neutral default.
func (m *Manager) RecordSubScoreFallback(component, cause string) {
	m.subScoreFallbacks.WithLabelValues(component, cause).Inc()
}

// RecordBaselineSaved counts a written baseline.
func (m *Manager) RecordBaselineSaved() { m.baselinesSaved.Inc() }

// UpdateQueue sets queue depth and capacity.
func (m *Manager) UpdateQueue(size, capacity int) {
	m.queueSize.Set(float64(size))
	m.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejection counts a refused enqueue.
func (m *Manager) RecordQueueRejection(reason string) { m.queueRejections.WithLabelValues(reason).Inc() }

// UpdateWorkerCount sets the number of ingest workers.
func (m *Manager) UpdateWorkerCount(n int) { m.workerCount.Set(float64(n)) }

// RecordWorkerEvent observes one worker event and counts failures.
func (m *Manager) RecordWorkerEvent(ms float64, failed bool) {
	m.workerLatency.Observe(ms)
	if failed {
		m.workerErrors.Inc()
	}
}

// RecordHTTPRequest counts and times one HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, status string, ms float64) {
	m.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

// UpdateProcess sets process-level gauges.
func (m *Manager) UpdateProcess(heapBytes uint64, goroutines int) {
	m.memoryUsage.Set(float64(heapBytes))
	m.goroutineCount.Set(float64(goroutines))
}

// UpdateFamiliesActive sets the number of families with state.
func (m *Manager) UpdateFamiliesActive(n int) { m.familiesActive.Set(float64(n)) }

// Package-level recorders backed by the process-wide manager.

// RecordComparisonApplied records on the global manager.
func RecordComparisonApplied(outcome string) { global.RecordComparisonApplied(outcome) }

// RecordComparisonRejected records on the global manager.
func RecordComparisonRejected(reason string) { global.RecordComparisonRejected(reason) }

// RecordComparisonDuplicate records on the global manager.
func RecordComparisonDuplicate() { global.RecordComparisonDuplicate() }

// RecordUncoveredResponse records on the global manager.
func RecordUncoveredResponse() { global.RecordUncoveredResponse() }

// RecordRatingUpdateLatency records on the global manager.
func RecordRatingUpdateLatency(ms float64) { global.RecordRatingUpdateLatency(ms) }

// RecordStoreError records on the global manager.
func RecordStoreError(op string) { global.RecordStoreError(op) }

// RecordStoreConflict records on the global manager.
func RecordStoreConflict() { global.RecordStoreConflict() }

// RecordScoreCalculation records on the global manager.
func RecordScoreCalculation(level string, ms float64) { global.RecordScoreCalculation(level, ms) }

// RecordScoreCache records on the global manager.
func RecordScoreCache(result string) { global.RecordScoreCache(result) }

// RecordSubScoreFallback records on the global manager.
func RecordSubScoreFallback(component, cause string) {
	global.RecordSubScoreFallback(component, cause)
}

// RecordBaselineSaved records on the global manager.
func RecordBaselineSaved() { global.RecordBaselineSaved() }

// UpdateQueue records on the global manager.
func UpdateQueue(size, capacity int) { global.UpdateQueue(size, capacity) }

// RecordQueueRejection records on the global manager.
func RecordQueueRejection(reason string) { global.RecordQueueRejection(reason) }

// UpdateWorkerCount records on the global manager.
func UpdateWorkerCount(n int) { global.UpdateWorkerCount(n) }

// RecordWorkerEvent records on the global manager.
func RecordWorkerEvent(ms float64, failed bool) { global.RecordWorkerEvent(ms, failed) }

// RecordHTTPRequest records on the global manager.
func RecordHTTPRequest(endpoint, method, status string, ms float64) {
	global.RecordHTTPRequest(endpoint, method, status, ms)
}

// UpdateProcess records on the global manager.
func UpdateProcess(heapBytes uint64, goroutines int) { global.UpdateProcess(heapBytes, goroutines) }

// UpdateFamiliesActive records on the global manager.
func UpdateFamiliesActive(n int) { global.UpdateFamiliesActive(n) }

// GetRegistry returns the registry the package-level recorders write to.
func GetRegistry() *prometheus.Registry {
	return registry
}
