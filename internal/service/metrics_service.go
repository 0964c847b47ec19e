package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot is a lightweight summary of gateway traffic.
type MetricsSnapshot struct {
	RequestsTotal             uint64    `json:"requests_total"`
	AverageRequestDurationMs  float64   `json:"average_request_duration_ms"`
	UpstreamRequestsTotal     uint64    `json:"upstream_requests_total"`
	UpstreamErrorsTotal       uint64    `json:"upstream_errors_total"`
	AverageUpstreamDurationMs float64   `json:"average_upstream_duration_ms"`
	FilterQueriesTotal        uint64    `json:"filter_queries_total"`
	BrowserSessions           int64     `json:"browser_sessions"`
	Goroutines                int       `json:"goroutines"`
	GeneratedAt               time.Time `json:"generated_at"`
}

// MetricsService encapsulates Prometheus instrumentation for the gateway.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	filterQueries    *prometheus.CounterVec
	browserSessions  prometheus.Gauge

	requestCount          uint64
	requestDurationTotal  uint64
	upstreamCount         uint64
	upstreamErrors        uint64
	upstreamDurationTotal uint64
	filterCount           uint64
	sessionCount          int64
}

// NewMetricsService registers the gateway collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of calls to the remote store",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "resource", "status"})

	filterQueries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "filter_queries_total",
		Help: "Filtered record queries by outcome",
	}, []string{"outcome"})

	browserSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "browser_sessions_active",
		Help: "Open record browser sessions",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, upstreamDuration, filterQueries, browserSessions, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		upstreamDuration: upstreamDuration,
		filterQueries:    filterQueries,
		browserSessions:  browserSessions,
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveUpstream records one call to the remote store. A zero status means the
// request never got a response.
func (m *MetricsService) ObserveUpstream(method, resource string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(method, resource, fmt.Sprintf("%d", status)).Observe(elapsed.Seconds())
	atomic.AddUint64(&m.upstreamCount, 1)
	atomic.AddUint64(&m.upstreamDurationTotal, uint64(elapsed.Nanoseconds()))
	if status == 0 || status >= http.StatusBadRequest {
		atomic.AddUint64(&m.upstreamErrors, 1)
	}
}

// RecordFilterQuery counts a filtered record query.
func (m *MetricsService) RecordFilterQuery(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.filterQueries.WithLabelValues(outcome).Inc()
	atomic.AddUint64(&m.filterCount, 1)
}

// SessionOpened increments the active browser session gauge.
func (m *MetricsService) SessionOpened() {
	if m == nil {
		return
	}
	m.browserSessions.Inc()
	atomic.AddInt64(&m.sessionCount, 1)
}

// SessionClosed decrements the active browser session gauge.
func (m *MetricsService) SessionClosed() {
	if m == nil {
		return
	}
	m.browserSessions.Dec()
	atomic.AddInt64(&m.sessionCount, -1)
}

// Snapshot returns aggregated counters for the health endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	upstream := atomic.LoadUint64(&m.upstreamCount)
	upDuration := atomic.LoadUint64(&m.upstreamDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgUpstreamMs float64
	if upstream > 0 {
		avgUpstreamMs = float64(upDuration) / float64(upstream) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:             requests,
		AverageRequestDurationMs:  avgRequestMs,
		UpstreamRequestsTotal:     upstream,
		UpstreamErrorsTotal:       atomic.LoadUint64(&m.upstreamErrors),
		AverageUpstreamDurationMs: avgUpstreamMs,
		FilterQueriesTotal:        atomic.LoadUint64(&m.filterCount),
		BrowserSessions:           atomic.LoadInt64(&m.sessionCount),
		Goroutines:                runtime.NumGoroutine(),
		GeneratedAt:               time.Now().UTC(),
	}
}
