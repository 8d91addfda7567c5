package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics holds all Prometheus metrics
type PrometheusMetrics struct {
	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Query lifecycle metrics
	QueryTotal        *prometheus.CounterVec
	QueryDuration     *prometheus.HistogramVec
	QueryRowsReturned *prometheus.CounterVec
	QueryBytesScanned *prometheus.CounterVec
}

var metrics *PrometheusMetrics

// InitMetrics initializes all Prometheus metrics
func InitMetrics() {
	metrics = &PrometheusMetrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "athena_gateway_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "athena_gateway_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		QueryTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "athena_gateway_query_total",
				Help: "Total number of query executions by outcome",
			},
			[]string{"query_type", "status"},
		),
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "athena_gateway_query_duration_seconds",
				Help:    "End-to-end query execution time including polling",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 900},
			},
			[]string{"query_type"},
		),
		QueryRowsReturned: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "athena_gateway_query_rows_returned_total",
				Help: "Total number of result rows returned to callers",
			},
			[]string{"query_type"},
		),
		QueryBytesScanned: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "athena_gateway_query_bytes_scanned_total",
				Help: "Total bytes scanned by the engine",
			},
			[]string{"query_type"},
		),
	}
}

// PrometheusMiddleware is a Gin middleware that records HTTP metrics
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}

		metrics.HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
	}
}

// RecordQueryMetrics records one query execution outcome
func RecordQueryMetrics(queryType, status string, duration time.Duration, rowsReturned, bytesScanned int64) {
	if metrics == nil {
		return
	}

	metrics.QueryTotal.WithLabelValues(queryType, status).Inc()
	metrics.QueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())

	if rowsReturned > 0 {
		metrics.QueryRowsReturned.WithLabelValues(queryType).Add(float64(rowsReturned))
	}
	if bytesScanned > 0 {
		metrics.QueryBytesScanned.WithLabelValues(queryType).Add(float64(bytesScanned))
	}
}
