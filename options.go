package requestfactory

// Option configures the capabilities injected into a Factory.
type Option func(*Factory)

// WithTransport sets the network transport used by every created request.
func WithTransport(transport Transport) Option {
	return func(f *Factory) {
		f.transport = transport
	}
}

// WithMetrics enables Prometheus metrics collection on the default
// registerer.
func WithMetrics() Option {
	return func(f *Factory) {
		f.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(f *Factory) {
		f.metrics = collector
	}
}

// WithFactoryLogger sets the factory logger at construction time without
// enqueueing a per-request default; use Factory.WithLogger to propagate the
// logger to created requests as well.
func WithFactoryLogger(logger Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}
