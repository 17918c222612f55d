package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rxforms/backend/internal/infrastructure/telemetry"
)

// httpDurationBuckets are the latency boundaries in seconds. Renders push
// the upper end well past typical API latencies.
var httpDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// httpSizeBuckets are the body size boundaries in bytes
var httpSizeBuckets = []float64{100, 1000, 10000, 100000, 500000, 1000000, 5000000, 20000000}

// httpMetrics holds all HTTP-related metrics instruments.
type httpMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
	requestSize     *telemetry.Histogram
	responseSize    *telemetry.Histogram
	activeRequests  metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requestTotal, err := telemetry.NewCounter(meter,
		"http_server_request_total", "Total number of HTTP requests", "{request}")
	if err != nil {
		return nil, err
	}
	requestDuration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency distribution in seconds",
		Unit:        "s",
		Buckets:     httpDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	requestSize, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_size_bytes",
		Description: "HTTP request body size distribution in bytes",
		Unit:        "By",
		Buckets:     httpSizeBuckets,
	})
	if err != nil {
		return nil, err
	}
	responseSize, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size distribution in bytes",
		Unit:        "By",
		Buckets:     httpSizeBuckets,
	})
	if err != nil {
		return nil, err
	}
	activeRequests, err := meter.Int64UpDownCounter(
		"http_server_active_requests",
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &httpMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestSize:     requestSize,
		responseSize:    responseSize,
		activeRequests:  activeRequests,
	}, nil
}

// HTTPMetrics returns a middleware recording request count, latency and
// body sizes on mp. It is a pass-through when mp is nil or disabled.
func HTTPMetrics(mp *telemetry.MeterProvider) gin.HandlerFunc {
	if mp == nil || !mp.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(mp.Meter("http.server"))
}

// HTTPMetricsWithMeter returns HTTP metrics middleware using an existing meter.
func HTTPMetricsWithMeter(meter metric.Meter) gin.HandlerFunc {
	metrics, err := newHTTPMetrics(meter)
	if err != nil {
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		metrics.activeRequests.Add(ctx, 1)
		c.Next()
		metrics.activeRequests.Add(ctx, -1)

		metrics.record(ctx, c.Request.Method, routePattern(c), c.Writer.Status(),
			time.Since(start), c.Request.ContentLength, c.Writer.Size())
	}
}

func (m *httpMetrics) record(ctx context.Context, method, route string, status int, elapsed time.Duration, reqSize int64, respSize int) {
	base := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", route),
	}
	m.requestTotal.Inc(ctx, append(base, attribute.Int("http.status_code", status))...)
	m.requestDuration.RecordDuration(ctx, elapsed, base...)
	if reqSize > 0 {
		m.requestSize.Record(ctx, float64(reqSize), base...)
	}
	if respSize > 0 {
		m.responseSize.Record(ctx, float64(respSize), base...)
	}
}

// routePattern returns the matched route instead of the path, so document
// names do not become metric labels.
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

func passThrough(c *gin.Context) {
	c.Next()
}
