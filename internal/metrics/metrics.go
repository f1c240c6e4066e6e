// Package metrics holds the Prometheus collectors for the lifecycle worker,
// the build invoker and the analysis service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "javaseeker"

// Metrics is a set of collectors bound to one registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	statusTransitions *prometheus.CounterVec
	projectsByStatus  *prometheus.GaugeVec
	buildDuration     *prometheus.HistogramVec
	syncTotal         *prometheus.CounterVec
	queueRejections   *prometheus.CounterVec
	configReloads     *prometheus.CounterVec
	analysisDuration  *prometheus.HistogramVec
	analysisRefs      *prometheus.HistogramVec
	httpRequests      *prometheus.CounterVec
}

// New creates collectors on a fresh registry, including the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// statusTransitions counts project status changes
		statusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Project status transitions by source and target status",
		}, []string{"from", "to"}),

		projectsByStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "projects",
			Help:      "Known projects by current status",
		}, []string{"status"}),

		// buildDuration tracks build subprocess wall time
		buildDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Build duration in seconds by tool and resulting status",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"tool", "status"}),

		syncTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_total",
			Help:      "Source acquisitions by source type and resulting status",
		}, []string{"source", "status"}),

		queueRejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_rejections_total",
			Help:      "Lifecycle submissions rejected by reason",
		}, []string{"reason"}),

		configReloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_reloads_total",
			Help:      "Descriptor file reloads by result",
		}, []string{"result"}),

		analysisDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Analysis request duration in seconds by outcome",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}, []string{"outcome"}),

		analysisRefs: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_references",
			Help:      "References returned per analysis by direction",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000},
		}, []string{"direction"}),

		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// StatusTransition records a project moving from one status to another.
func (m *Metrics) StatusTransition(from, to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

// ProjectCounts replaces the per-status project gauge.
func (m *Metrics) ProjectCounts(counts map[string]int) {
	if m == nil {
		return
	}
	m.projectsByStatus.Reset()
	for status, n := range counts {
		m.projectsByStatus.WithLabelValues(status).Set(float64(n))
	}
}

// BuildFinished records one build run.
func (m *Metrics) BuildFinished(tool, status string, d time.Duration) {
	if m == nil {
		return
	}
	if tool == "" {
		tool = "none"
	}
	m.buildDuration.WithLabelValues(tool, status).Observe(d.Seconds())
}

// SyncFinished records one source acquisition.
func (m *Metrics) SyncFinished(source, status string) {
	if m == nil {
		return
	}
	m.syncTotal.WithLabelValues(source, status).Inc()
}

// QueueRejected records a submission the worker did not accept.
func (m *Metrics) QueueRejected(reason string) {
	if m == nil {
		return
	}
	m.queueRejections.WithLabelValues(reason).Inc()
}

// ConfigReload records a descriptor reload attempt.
func (m *Metrics) ConfigReload(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.configReloads.WithLabelValues(result).Inc()
}

// AnalysisFinished records one analysis request.
func (m *Metrics) AnalysisFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.analysisDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// AnalysisReferences records the number of references found in one direction.
func (m *Metrics) AnalysisReferences(direction string, n int) {
	if m == nil {
		return
	}
	m.analysisRefs.WithLabelValues(direction).Observe(float64(n))
}

// HTTPRequest records one served HTTP request.
func (m *Metrics) HTTPRequest(route, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
}
