package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request-level metadata for the API server.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
	errors   *prometheus.CounterVec
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Number of HTTP requests currently being served.",
	})
	errors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_request_errors",
		Help: "HTTP responses by error code.",
	}, []string{"code"})
	reg.MustRegister(duration, inFlight, errors)
	return &HTTPMetrics{
		duration: duration,
		inFlight: inFlight,
		errors:   errors,
	}
}

// ObserveRequest records a completed request.
func (h *HTTPMetrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if h == nil || h.duration == nil {
		return
	}
	h.duration.WithLabelValues(normalizeLabel(route), method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// IncInFlight adjusts the in-flight gauge by delta.
func (h *HTTPMetrics) IncInFlight(delta float64) {
	if h == nil || h.inFlight == nil {
		return
	}
	h.inFlight.Add(delta)
}

// IncError counts an error response by its application code.
func (h *HTTPMetrics) IncError(code string) {
	if h == nil || h.errors == nil {
		return
	}
	h.errors.WithLabelValues(normalizeLabel(code)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
