package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/unirag/pkg/observability/metrics"
)

// HTTPMetrics holds the request metric families.
type HTTPMetrics struct {
	requests *metrics.CounterVec
	duration *metrics.HistogramVec
	inFlight *metrics.GaugeVec
}

var (
	defaultHTTPMetrics *HTTPMetrics
	httpMetricsOnce    sync.Once
)

// NewHTTPMetrics creates the request metric families and registers them in reg.
func NewHTTPMetrics(reg *metrics.Registry, namespace string) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: metrics.NewCounterVec(namespace+"_http_requests_total", "Total HTTP requests by method, route and status."),
		duration: metrics.NewHistogramVec(namespace+"_http_request_duration_seconds", "HTTP request latency by method and route.", nil),
		inFlight: metrics.NewGaugeVec(namespace+"_http_requests_in_flight", "HTTP requests currently being served."),
	}
	reg.Register(m.requests)
	reg.Register(m.duration)
	reg.Register(m.inFlight)
	return m
}

// DefaultHTTPMetrics returns the families registered in the default registry.
func DefaultHTTPMetrics() *HTTPMetrics {
	httpMetricsOnce.Do(func() {
		defaultHTTPMetrics = NewHTTPMetrics(metrics.DefaultRegistry, "unirag")
	})
	return defaultHTTPMetrics
}

// Metrics returns a middleware recording request count, latency and
// in-flight requests. Routes are labelled by their pattern; unmatched
// requests share the "unmatched" label.
func Metrics(m *HTTPMetrics) gin.HandlerFunc {
	inFlight := m.inFlight.With(nil)

	return func(c *gin.Context) {
		start := time.Now()
		inFlight.Inc()
		defer inFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		m.requests.With(metrics.Labels{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(c.Writer.Status()),
		}).Inc()
		m.duration.With(metrics.Labels{"method": method, "route": route}).Observe(time.Since(start).Seconds())
	}
}
