package requestfactory

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the request pipeline.
// All record methods are nil-safe so an unconfigured collector costs a
// single branch. Safe for concurrent use.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	errorsTotal *prometheus.CounterVec

	interceptorShortCircuits *prometheus.CounterVec
	defaultsApplied          *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	mc := &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "requestfactory_requests_total",
				Help: "Total number of requests executed",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "requestfactory_request_duration_seconds",
				Help:    "Duration of executed requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "requestfactory_requests_in_flight",
				Help: "Number of requests currently executing",
			},
			[]string{"method", "endpoint"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "requestfactory_errors_total",
				Help: "Total number of errors by class (Http, Network, Aborted, Reuse)",
			},
			[]string{"type", "method", "endpoint"},
		),
		interceptorShortCircuits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "requestfactory_interceptor_short_circuits_total",
				Help: "Requests resolved by an interceptor instead of the transport",
			},
			[]string{"kind", "endpoint"},
		),
		defaultsApplied: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "requestfactory_defaults_applied_total",
				Help: "Default-configuration step batches applied to requests",
			},
			[]string{"endpoint"},
		),
	}
	if reg, ok := registry.(*prometheus.Registry); ok {
		mc.registry = reg
	}
	return mc
}

// RecordRequest records request count and duration for a final status.
// Status 0 means a transport failure; AbortedCode a client-side abort.
func (mc *MetricsCollector) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if mc == nil {
		return
	}

	statusCodeStr := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(method, statusCodeStr, endpoint).Inc()
	mc.requestDuration.WithLabelValues(method, statusCodeStr, endpoint).Observe(duration.Seconds())
}

// RecordRequestStart increments the in-flight gauge.
func (mc *MetricsCollector) RecordRequestStart(method, endpoint string) {
	if mc == nil {
		return
	}

	mc.requestsInFlight.WithLabelValues(method, endpoint).Inc()
}

// RecordRequestEnd decrements the in-flight gauge.
func (mc *MetricsCollector) RecordRequestEnd(method, endpoint string) {
	if mc == nil {
		return
	}

	mc.requestsInFlight.WithLabelValues(method, endpoint).Dec()
}

// RecordError increments the error counter by class.
func (mc *MetricsCollector) RecordError(errorType, method, endpoint string) {
	if mc == nil {
		return
	}

	mc.errorsTotal.WithLabelValues(errorType, method, endpoint).Inc()
}

// RecordInterceptorShortCircuit counts requests resolved by a request or
// response interceptor.
func (mc *MetricsCollector) RecordInterceptorShortCircuit(kind, endpoint string) {
	if mc == nil {
		return
	}

	mc.interceptorShortCircuits.WithLabelValues(kind, endpoint).Inc()
}

// RecordDefaultsApplied counts default-step batches run against requests.
func (mc *MetricsCollector) RecordDefaultsApplied(endpoint string) {
	if mc == nil {
		return
	}

	mc.defaultsApplied.WithLabelValues(endpoint).Inc()
}

// GetRegistry exposes the underlying prometheus registry when the collector
// was built on one.
func (mc *MetricsCollector) GetRegistry() *prometheus.Registry {
	return mc.registry
}
