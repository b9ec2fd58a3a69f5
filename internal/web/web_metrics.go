package web

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one server instance
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	campgroundOps   *prometheus.CounterVec
	flashPending    prometheus.GaugeFunc
}

// NewMetrics registers the web collectors on a private registry
func NewMetrics(flashes *FlashStore) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yelpcamp_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yelpcamp_http_request_duration_seconds",
				Help:    "Histogram of response latency (seconds) for HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		campgroundOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yelpcamp_campground_operations_total",
				Help: "Campground and review mutations by operation",
			},
			[]string{"op"},
		),
		flashPending: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "yelpcamp_flash_sessions_pending",
				Help: "Sessions holding undelivered flash messages",
			},
			func() float64 { return float64(flashes.Len()) },
		),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.campgroundOps,
		m.flashPending,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware counts requests by matched route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// CountOp records a successful mutation
func (m *Metrics) CountOp(op string) {
	m.campgroundOps.WithLabelValues(op).Inc()
}

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with an id, reusing a sane inbound one
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(ctxRequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
