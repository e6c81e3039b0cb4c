package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// View outcome labels for ViewsRecordedTotal.
const (
	ViewKindVisitor = "visitor"
	ViewKindOwner   = "owner"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ViewsRecordedTotal     *prometheus.CounterVec
	ViewsDeduplicatedTotal prometheus.Counter
	EngagementQueries      *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jcoder_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jcoder_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ViewsRecordedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jcoder_portfolio_views_recorded_total",
				Help: "Portfolio views written to the visit log",
			},
			[]string{"kind"},
		),
		ViewsDeduplicatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jcoder_portfolio_views_deduplicated_total",
				Help: "Anonymous portfolio views dropped inside the cooldown window",
			},
		),
		EngagementQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jcoder_engagement_queries_total",
				Help: "Engagement statistics requests by range type",
			},
			[]string{"range"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ViewsRecordedTotal,
		m.ViewsDeduplicatedTotal,
		m.EngagementQueries,
	)

	return m
}

func (m *Metrics) ViewRecorded(kind string) {
	if m == nil {
		return
	}
	m.ViewsRecordedTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) ViewDeduplicated() {
	if m == nil {
		return
	}
	m.ViewsDeduplicatedTotal.Inc()
}

func (m *Metrics) EngagementQueried(rangeType string) {
	if m == nil {
		return
	}
	m.EngagementQueries.WithLabelValues(rangeType).Inc()
}

// Middleware records request count and latency, labelled by route
// template so that usernames do not explode cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
