package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	operationsTotal  *prometheus.CounterVec
	persistenceWarns *prometheus.CounterVec
	storageRetries   *prometheus.CounterVec
	cacheFallbacks   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "andicblue_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "andicblue_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "andicblue_ledger_operations_total",
		Help: "Ledger mutations by operation and outcome.",
	}, []string{"operation", "outcome"})
	warnings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "andicblue_persistence_warnings_total",
		Help: "Storage failures that left the in-memory ledger ahead of storage.",
	}, []string{"op", "table"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "andicblue_storage_retries_total",
		Help: "Storage calls retried after a rate-limit response.",
	}, []string{"op", "table"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "andicblue_cache_fallbacks_total",
		Help: "Table loads served from the snapshot cache.",
	}, []string{"table"})
	registry.MustRegister(
		requests, duration, operations, warnings, retries, fallbacks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		operationsTotal:  operations,
		persistenceWarns: warnings,
		storageRetries:   retries,
		cacheFallbacks:   fallbacks,
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records count and latency per chi route pattern.
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

// Operation counts one ledger mutation; outcome is "ok", "warning" or "error".
func (m *Metrics) Operation(name, outcome string) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) PersistenceWarning(op, table string) {
	if m == nil {
		return
	}
	m.persistenceWarns.WithLabelValues(op, table).Inc()
}

func (m *Metrics) StorageRetry(op, table string) {
	if m == nil {
		return
	}
	m.storageRetries.WithLabelValues(op, table).Inc()
}

func (m *Metrics) CacheFallback(table string) {
	if m == nil {
		return
	}
	m.cacheFallbacks.WithLabelValues(table).Inc()
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
