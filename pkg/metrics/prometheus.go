// Package metrics provides Prometheus metrics for the tipset service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// latencyBuckets are in milliseconds.
var latencyBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000} //nolint:gochecknoglobals // shared bucket layout

// Manager manages all Prometheus metrics for the tipset service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Report computation
	reportsComputed    *prometheus.CounterVec
	computeLatency     prometheus.Histogram
	participants       prometheus.Gauge
	items              prometheus.Gauge
	scoringUnavailable prometheus.Counter
	predictionIssues   *prometheus.CounterVec

	// Standings feed
	standingsFetches      *prometheus.CounterVec
	standingsFetchLatency prometheus.Histogram
	standingsTeams        prometheus.Gauge

	// Refresh queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueRejected    prometheus.Counter
	queueWait        prometheus.Histogram

	// Refresh worker
	jobsProcessed prometheus.Counter
	jobErrors     prometheus.Counter
	jobLatency    prometheus.Histogram

	// Snapshot store
	snapshotVersion  prometheus.Gauge
	snapshotLastUnix prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry the
// metrics land on the default registerer.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tipset",
		subsystem:        "report",
		histogramBuckets: latencyBuckets,
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
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: name, Help: help, ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.reportsComputed = auto.NewCounterVec(
		m.counterOpts("reports_computed_total", "Reports computed, by scoring mode"),
		[]string{"mode"})
	m.computeLatency = auto.NewHistogram(
		m.histogramOpts("compute_latency_milliseconds", "Time to compute one report"))
	m.participants = auto.NewGauge(
		m.gaugeOpts("participants", "Participants in the latest report"))
	m.items = auto.NewGauge(
		m.gaugeOpts("items", "Distinct predicted teams in the latest report"))
	m.scoringUnavailable = auto.NewCounter(
		m.counterOpts("scoring_unavailable_total", "Reports computed without a leaderboard"))
	m.predictionIssues = auto.NewCounterVec(
		m.counterOpts("prediction_issues_total", "Malformed prediction issues, by kind"),
		[]string{"kind"})

	m.standingsFetches = auto.NewCounterVec(
		m.counterOpts("standings_fetches_total", "Standings lookups, by result (ok, cached, error)"),
		[]string{"result"})
	m.standingsFetchLatency = auto.NewHistogram(
		m.histogramOpts("standings_fetch_latency_milliseconds", "Upstream standings request latency"))
	m.standingsTeams = auto.NewGauge(
		m.gaugeOpts("standings_teams", "Teams in the latest standings table"))

	m.queueSize = auto.NewGauge(
		m.gaugeOpts("queue_size", "Refresh jobs waiting"))
	m.queueCapacity = auto.NewGauge(
		m.gaugeOpts("queue_capacity", "Refresh queue capacity"))
	m.queueUtilization = auto.NewGauge(
		m.gaugeOpts("queue_utilization_ratio", "Refresh queue size over capacity"))
	m.queueEnqueued = auto.NewCounter(
		m.counterOpts("queue_enqueued_total", "Refresh jobs accepted"))
	m.queueDequeued = auto.NewCounter(
		m.counterOpts("queue_dequeued_total", "Refresh jobs taken by the worker"))
	m.queueRejected = auto.NewCounter(
		m.counterOpts("queue_rejected_total", "Refresh jobs rejected because the queue was full or closed"))
	m.queueWait = auto.NewHistogram(
		m.histogramOpts("queue_wait_milliseconds", "Time a refresh job waited before processing"))

	m.jobsProcessed = auto.NewCounter(
		m.counterOpts("jobs_processed_total", "Refresh jobs completed"))
	m.jobErrors = auto.NewCounter(
		m.counterOpts("job_errors_total", "Refresh jobs that failed"))
	m.jobLatency = auto.NewHistogram(
		m.histogramOpts("job_latency_milliseconds", "End to end refresh job latency"))

	m.snapshotVersion = auto.NewGauge(
		m.gaugeOpts("snapshot_version", "Version of the published report snapshot"))
	m.snapshotLastUnix = auto.NewGauge(
		m.gaugeOpts("snapshot_last_unix", "Unix time of the last published snapshot"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration"),
		[]string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"})
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"})
}

// RecordReportComputed counts one computation and its latency.
func RecordReportComputed(mode string, latencyMs float64) {
	globalManager.reportsComputed.WithLabelValues(mode).Inc()
	globalManager.computeLatency.Observe(latencyMs)
}

// UpdateReportSize sets the participant and item gauges.
func UpdateReportSize(participants, items int) {
	globalManager.participants.Set(float64(participants))
	globalManager.items.Set(float64(items))
}

// RecordScoringUnavailable counts a report computed without a leaderboard.
func RecordScoringUnavailable() {
	globalManager.scoringUnavailable.Inc()
}

// RecordPredictionIssue counts one malformed prediction issue.
func RecordPredictionIssue(kind string) {
	globalManager.predictionIssues.WithLabelValues(kind).Inc()
}

// RecordStandingsFetch counts a standings lookup by result.
func RecordStandingsFetch(result string) {
	globalManager.standingsFetches.WithLabelValues(result).Inc()
}

// RecordStandingsFetchLatency records upstream latency in milliseconds.
func RecordStandingsFetchLatency(latencyMs float64) {
	globalManager.standingsFetchLatency.Observe(latencyMs)
}

// UpdateStandingsTeams sets the team count of the latest table.
func UpdateStandingsTeams(count int) {
	globalManager.standingsTeams.Set(float64(count))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the rejected counter.
func RecordQueueEnqueueError() {
	globalManager.queueRejected.Inc()
}

// RecordQueueWait records how long a job waited, in milliseconds.
func RecordQueueWait(latencyMs float64) {
	globalManager.queueWait.Observe(latencyMs)
}

// RecordJobProcessed counts a completed refresh job.
func RecordJobProcessed(latencyMs float64) {
	globalManager.jobsProcessed.Inc()
	globalManager.jobLatency.Observe(latencyMs)
}

// RecordJobError counts a failed refresh job.
func RecordJobError() {
	globalManager.jobErrors.Inc()
}

// UpdateSnapshot records a newly published snapshot.
func UpdateSnapshot(version uint64, unix int64) {
	globalManager.snapshotVersion.Set(float64(version))
	globalManager.snapshotLastUnix.Set(float64(unix))
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
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
