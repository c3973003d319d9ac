package knorry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the request lifecycle,
// content negotiation and response decoding. It is safe for concurrent use.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	errorsTotal *prometheus.CounterVec

	negotiatedBodies *prometheus.CounterVec
	decodeFallbacks  *prometheus.CounterVec

	registry prometheus.Registerer
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using supplied registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	mc := &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "knorry_requests_total",
				Help: "Total number of completed HTTP exchanges",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "knorry_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "knorry_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
			[]string{"method", "endpoint"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "knorry_errors_total",
				Help: "Total number of failed calls by error type",
			},
			[]string{"type", "method", "endpoint"},
		),
		negotiatedBodies: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "knorry_negotiated_bodies_total",
				Help: "Total number of request bodies by negotiated content type",
			},
			[]string{"content_type"},
		),
		decodeFallbacks: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "knorry_decode_fallbacks_total",
				Help: "Total number of JSON responses kept as raw text because they failed to parse",
			},
			[]string{"endpoint"},
		),
		registry: registry,
	}

	return mc
}

// RecordRequest records request count and duration.
func (mc *MetricsCollector) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if mc == nil {
		return
	}

	statusCodeStr := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(method, statusCodeStr, endpoint).Inc()
	mc.requestDuration.WithLabelValues(method, statusCodeStr, endpoint).Observe(duration.Seconds())
}

// RecordRequestStart increments in-flight gauge.
func (mc *MetricsCollector) RecordRequestStart(method, endpoint string) {
	if mc == nil {
		return
	}

	mc.requestsInFlight.WithLabelValues(method, endpoint).Inc()
}

// RecordRequestEnd decrements in-flight gauge.
func (mc *MetricsCollector) RecordRequestEnd(method, endpoint string) {
	if mc == nil {
		return
	}

	mc.requestsInFlight.WithLabelValues(method, endpoint).Dec()
}

// RecordError increments error counter by type.
func (mc *MetricsCollector) RecordError(errorType, method, endpoint string) {
	if mc == nil {
		return
	}

	mc.errorsTotal.WithLabelValues(errorType, method, endpoint).Inc()
}

// RecordNegotiation counts a request body by the media type it was sent
// with, parameters dropped; multipart bodies are counted under multipart/form-data.
func (mc *MetricsCollector) RecordNegotiation(contentType string) {
	if mc == nil {
		return
	}

	contentType = mediaType(contentType)
	if contentType == "" {
		contentType = "none"
	}
	mc.negotiatedBodies.WithLabelValues(contentType).Inc()
}

// RecordDecodeFallback counts a JSON response that was kept as raw text.
func (mc *MetricsCollector) RecordDecodeFallback(endpoint string) {
	if mc == nil {
		return
	}

	mc.decodeFallbacks.WithLabelValues(endpoint).Inc()
}

// GetRegistry exposes the registerer the collector was created on.
func (mc *MetricsCollector) GetRegistry() prometheus.Registerer {
	return mc.registry
}
