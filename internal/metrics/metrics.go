// Package metrics exposes Prometheus collectors for the listing service.
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

// Listing outcomes reported through ObserveList.
const (
	OutcomeOK               = "ok"
	OutcomeInvalidInput     = "invalid_input"
	OutcomeStoreUnavailable = "store_unavailable"
	OutcomeError            = "error"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ListRequests        *prometheus.CounterVec
	RecordsServed       prometheus.Counter
	RateLimited         prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers every collector on reg. Pass a fresh registry per instance;
// registering twice on the same registry panics.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{gatherer: reg}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	m.ListRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cve_list_requests_total",
			Help: "Listing requests by outcome",
		},
		[]string{"outcome"},
	)
	m.RecordsServed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cve_records_served_total",
		Help: "Records returned across all listing responses",
	})
	m.RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "http_rate_limited_total",
		Help: "Requests rejected by the per-client rate limiter",
	})

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ListRequests,
		m.RecordsServed,
		m.RateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware records request count and latency per matched route template,
// so /api/cves?page=1 and ?page=2 share a series.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveList counts one listing request and the records it returned.
func (m *Metrics) ObserveList(outcome string, served int) {
	m.ListRequests.WithLabelValues(outcome).Inc()
	if served > 0 {
		m.RecordsServed.Add(float64(served))
	}
}

func (m *Metrics) ObserveRateLimited() { m.RateLimited.Inc() }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
