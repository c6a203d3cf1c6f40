package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics provides observability for the HTTP adapter.
//
// This interface is optional - if not provided to the adapter, a no-op
// implementation is used with zero overhead.
type HTTPMetrics interface {
	// RecordRequest records a completed HTTP request.
	//
	// Parameters:
	//   - method: Request method ("GET", "HEAD", ...)
	//   - status: Response status code
	//   - duration: Time taken to serve the request
	RecordRequest(method string, status int, duration time.Duration)

	// RecordRequestStart increments the in-flight request gauge.
	RecordRequestStart()

	// RecordRequestEnd decrements the in-flight request gauge.
	RecordRequestEnd()

	// RecordBytesServed records response body bytes written to clients.
	RecordBytesServed(bytes int64)
}

// httpMetrics is the Prometheus implementation of HTTPMetrics.
type httpMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	bytesServed      prometheus.Counter
}

// NewHTTPMetrics creates a new Prometheus-backed HTTPMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry
// not called).
func NewHTTPMetrics() HTTPMetrics {
	if !IsEnabled() {
		return &noopHTTPMetrics{}
	}

	reg := GetRegistry()

	return &httpMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fancydir_http_requests_total",
				Help: "Total number of HTTP requests by method and status",
			},
			[]string{"method", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "fancydir_http_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.005, // 5ms
					0.01,  // 10ms
					0.025, // 25ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.25,  // 250ms
					0.5,   // 500ms
					1.0,   // 1s
					2.5,   // 2.5s
					5.0,   // 5s
					10.0,  // 10s
				},
			},
			[]string{"method"}, // GET or HEAD
		),
		requestsInFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "fancydir_http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),
		bytesServed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "fancydir_http_response_bytes_total",
				Help: "Total response body bytes written to clients",
			},
		),
	}
}

func (m *httpMetrics) RecordRequest(method string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (m *httpMetrics) RecordRequestStart() {
	m.requestsInFlight.Inc()
}

func (m *httpMetrics) RecordRequestEnd() {
	m.requestsInFlight.Dec()
}

func (m *httpMetrics) RecordBytesServed(bytes int64) {
	m.bytesServed.Add(float64(bytes))
}

// noopHTTPMetrics is a no-op implementation of HTTPMetrics with zero
// overhead.
type noopHTTPMetrics struct{}

func (noopHTTPMetrics) RecordRequest(method string, status int, duration time.Duration) {}
func (noopHTTPMetrics) RecordRequestStart()                                             {}
func (noopHTTPMetrics) RecordRequestEnd()                                               {}
func (noopHTTPMetrics) RecordBytesServed(bytes int64)                                   {}
