// Package metrics exposes Prometheus collectors for the HTTP surface,
// exports and geocoding.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so tests can create isolated instances.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	exports         *prometheus.CounterVec
	geocodes        *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tztw_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tztw_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tztw_exports_total",
			Help: "Produced export artifacts by kind and permission level.",
		}, []string{"kind", "permission"}),
		geocodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tztw_geocode_requests_total",
			Help: "Geocode lookups by source and result.",
		}, []string{"source", "result"}),
	}
	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.exports,
		m.geocodes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware records one sample per request. Unmatched routes are grouped
// under "unmatched" to keep label cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordExport(kind, permission string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(kind, permission).Inc()
}

func (m *Metrics) RecordGeocode(source, result string) {
	if m == nil {
		return
	}
	m.geocodes.WithLabelValues(source, result).Inc()
}
