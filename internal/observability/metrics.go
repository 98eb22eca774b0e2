// Package observability exposes the Prometheus metrics of the invoicer.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultBusy    = "busy"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	exportsTotal    *prometheus.CounterVec
	exportDuration  prometheus.Histogram
	autosavesTotal  *prometheus.CounterVec
	storageErrors   *prometheus.CounterVec
	workspaces      prometheus.Gauge
	jobsTotal       *prometheus.CounterVec
}

// NewMetrics initialises the registry and every collector.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicer_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoicer_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicer_exports_total",
		Help: "PDF exports by result.",
	}, []string{"result"})
	exportDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "invoicer_export_duration_seconds",
		Help:    "Time spent rasterizing and building export documents.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
	})
	autosaves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicer_autosaves_total",
		Help: "Debounced draft saves by trigger.",
	}, []string{"trigger"})
	storageErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicer_storage_errors_total",
		Help: "Contained storage failures by operation.",
	}, []string{"op"})
	workspaces := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "invoicer_active_workspaces",
		Help: "Workspaces currently held in memory.",
	})
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicer_jobs_total",
		Help: "Background jobs by type and result.",
	}, []string{"type", "result"})
	registry.MustRegister(requests, duration, exports, exportDuration, autosaves, storageErrors, workspaces, jobs)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		exportsTotal:    exports,
		exportDuration:  exportDuration,
		autosavesTotal:  autosaves,
		storageErrors:   storageErrors,
		workspaces:      workspaces,
		jobsTotal:       jobs,
	}
}

// Handler returns the http.Handler serving /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveExport records an export attempt.
func (m *Metrics) ObserveExport(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(result).Inc()
	if result != ResultBusy {
		m.exportDuration.Observe(took.Seconds())
	}
}

// Autosave counts a draft save. trigger is "debounce" or "flush".
func (m *Metrics) Autosave(trigger string) {
	if m == nil {
		return
	}
	m.autosavesTotal.WithLabelValues(trigger).Inc()
}

// StorageError counts a contained storage failure.
func (m *Metrics) StorageError(op string) {
	if m == nil {
		return
	}
	m.storageErrors.WithLabelValues(op).Inc()
}

// SetWorkspaces reports the number of live workspaces.
func (m *Metrics) SetWorkspaces(n int) {
	if m == nil {
		return
	}
	m.workspaces.Set(float64(n))
}

// JobProcessed counts a background job.
func (m *Metrics) JobProcessed(taskType, result string) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(taskType, result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
