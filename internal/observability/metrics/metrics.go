package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics exposes request-level prometheus instruments.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "milkbook_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "milkbook_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Metrics exposes domain-level instruments.
type Metrics struct {
	deliveriesRecorded prometheus.Counter
	billsGenerated     prometheus.Counter
	notificationsSent  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		deliveriesRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "milkbook_deliveries_recorded_total",
			Help: "Delivery records written to the ledger, including same-day overwrites.",
		}),
		billsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "milkbook_monthly_bills_generated_total",
			Help: "Monthly bills created or regenerated by reconciliation runs.",
		}),
		notificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "milkbook_notifications_queued_total",
			Help: "Customer notifications queued by the outbox.",
		}),
	}
}

func (m *Metrics) RecordDelivery() {
	if m == nil {
		return
	}
	m.deliveriesRecorded.Inc()
}

func (m *Metrics) RecordBillsGenerated(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.billsGenerated.Add(float64(count))
}

func (m *Metrics) RecordNotificationQueued() {
	if m == nil {
		return
	}
	m.notificationsSent.Inc()
}

// GinMiddleware records request counts and latency per route.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if m == nil {
			return
		}
		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requests.WithLabelValues(c.Request.Method, route, status).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
