package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry          *prometheus.Registry
	requestTotal      *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	rateLimitRejected *prometheus.CounterVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	fetchBytes        prometheus.Counter
	transformDuration *prometheus.HistogramVec
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &metrics{
		registry: registry,
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelproxy_requests_total",
			Help: "Total HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pixelproxy_request_duration_seconds",
			Help:    "Request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		rateLimitRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelproxy_rate_limit_rejections_total",
			Help: "Total requests rejected by rate limiting.",
		}, []string{"route"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelproxy_cache_hits_total",
			Help: "Total cache lookups served without upstream work.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelproxy_cache_misses_total",
			Help: "Total cache lookups that required fetch and transform.",
		}),
		fetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelproxy_fetch_bytes_total",
			Help: "Total bytes downloaded from source servers.",
		}),
		transformDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pixelproxy_transform_duration_seconds",
			Help:    "Transform stage duration by output format.",
			Buckets: prometheus.DefBuckets,
		}, []string{"format"}),
	}
	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.rateLimitRejected,
		m.cacheHits,
		m.cacheMisses,
		m.fetchBytes,
		m.transformDuration,
	)
	return m
}

// Pipeline observer hooks.

func (m *metrics) CacheHit()          { m.cacheHits.Inc() }
func (m *metrics) CacheMiss()         { m.cacheMisses.Inc() }
func (m *metrics) FetchedBytes(n int) { m.fetchBytes.Add(float64(n)) }

func (m *metrics) Transformed(format string, elapsed time.Duration) {
	m.transformDuration.WithLabelValues(format).Observe(elapsed.Seconds())
}

func (m *metrics) metricsHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := routeLabel(r.URL.Path)
		status := strconv.Itoa(recorder.status)

		m.requestTotal.WithLabelValues(r.Method, route, status).Inc()
		m.requestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

func routeLabel(path string) string {
	switch {
	case strings.HasPrefix(path, optimizeRoute+"/"):
		return optimizeRoute + "/{image_id}"
	case strings.HasPrefix(path, optimizeRoute):
		return optimizeRoute
	case strings.HasPrefix(path, "/health"):
		return "/health"
	case strings.HasPrefix(path, "/errors"):
		return "/errors"
	case strings.HasPrefix(path, "/metrics"):
		return "/metrics"
	default:
		return path
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
