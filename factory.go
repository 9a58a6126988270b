package requestfactory

import (
	"fmt"
)

// Factory accumulates reusable default-configuration steps and manufactures
// single-use Request objects, either from a raw URL and method or from a
// registered API + endpoint pair.
//
// Defaults registered through the factory are applied to each request at
// execution time, in registration order. The step list is snapshotted into
// every request at creation time, so steps added afterwards never apply
// retroactively. Configure the factory before high-concurrency use;
// concurrent registration while requests execute is not guaranteed
// race-free.
type Factory struct {
	registry     *Registry
	steps        []configStep
	interceptors *interceptorSet
	transport    Transport
	metrics      *MetricsCollector
	logger       Logger
	level        LogLevel
}

// New constructs a Factory using the provided functional options. Without
// options it logs warnings and above to the console and transports over
// net/http.
func New(options ...Option) *Factory {
	f := &Factory{
		registry:     NewRegistry(),
		interceptors: newInterceptorSet(),
		transport:    NewHTTPTransport(nil),
		logger:       NewSimpleLogger(),
		level:        LevelWarn,
	}
	for _, option := range options {
		option(f)
	}
	return f
}

// log returns the factory's leveled logger view.
func (f *Factory) log() Logger {
	return WithLevel(f.logger, f.level)
}

// addStep enqueues one default-configuration step.
func (f *Factory) addStep(when Predicate, apply func(*Request)) {
	f.steps = append(f.steps, configStep{when: when, apply: apply})
}

// WithAPIConfig registers one or more API definitions. The last registration
// for a given name wins. Definitions without a name are rejected and logged.
func (f *Factory) WithAPIConfig(apis ...APIConfig) *Factory {
	for _, api := range apis {
		if err := f.registry.Register(api); err != nil {
			f.log().Error("API registration rejected", "error", err)
		}
	}
	return f
}

// Registry exposes the factory's API registry.
func (f *Factory) Registry() *Registry {
	return f.registry
}

// WithLogger sets the factory logger and enqueues a default applying it to
// every created request.
func (f *Factory) WithLogger(logger Logger) *Factory {
	f.logger = logger
	f.addStep(nil, func(r *Request) { r.WithLogger(logger) })
	return f
}

// WithLogLevel sets the factory's minimum severity and enqueues a default
// applying it to every created request.
func (f *Factory) WithLogLevel(level LogLevel) *Factory {
	f.level = level
	f.addStep(nil, func(r *Request) { r.WithLogLevel(level) })
	return f
}

// WithHeader enqueues a default setting one header on every request.
func (f *Factory) WithHeader(name string, value HeaderValue) *Factory {
	f.addStep(nil, func(r *Request) { r.WithHeader(name, value) })
	return f
}

// WithHeaders enqueues a default setting several headers on every request.
func (f *Factory) WithHeaders(headers map[string]HeaderValue) *Factory {
	f.addStep(nil, func(r *Request) { r.WithHeaders(headers) })
	return f
}

// WithAccept enqueues a default accepting the given MIME types.
func (f *Factory) WithAccept(mimeTypes ...string) *Factory {
	f.addStep(nil, func(r *Request) { r.WithAccept(mimeTypes...) })
	return f
}

// WithCredentialsPolicy enqueues a default credentials policy.
func (f *Factory) WithCredentialsPolicy(policy CredentialsPolicy) *Factory {
	f.addStep(nil, func(r *Request) { r.WithCredentialsPolicy(policy) })
	return f
}

// WithResponseBodyTransformer enqueues a default response body transformer.
func (f *Factory) WithResponseBodyTransformer(transformer BodyTransformer) *Factory {
	f.addStep(nil, func(r *Request) { r.WithResponseBodyTransformers(transformer) })
	return f
}

// WithErrorInterceptors enqueues default error interceptors.
func (f *Factory) WithErrorInterceptors(interceptors ...ErrorInterceptor) *Factory {
	f.addStep(nil, func(r *Request) { r.WithErrorInterceptors(interceptors...) })
	return f
}

// WithRequestInterceptors registers request interceptors owned by the
// factory. DeleteInterceptor inside one removes it for all future requests.
func (f *Factory) WithRequestInterceptors(interceptors ...RequestInterceptor) *Factory {
	entries := f.interceptors.add(interceptors...)
	f.addStep(nil, func(r *Request) { r.attachSharedInterceptors(entries) })
	return f
}

// When opens a conditional scope: defaults registered through the returned
// builder only apply to requests for which predicate is true, evaluated per
// request at execution time. Close the scope with Always.
func (f *Factory) When(predicate Predicate) *ConditionalFactory {
	return &ConditionalFactory{base: f, when: predicate}
}

// Always is a no-op at the top level; it exists so chains ending a When
// scope read uniformly.
func (f *Factory) Always() *Factory {
	return f
}

// newRequest binds a fresh request to the factory's current defaults.
func (f *Factory) newRequest(url, method string) *Request {
	return newRequest(url, method, f.steps, f.transport, f.metrics, f.logger, f.level)
}

// CreateRequest instantiates a request for a raw URL and method. An empty
// method defaults to GET.
func (f *Factory) CreateRequest(url, method string) *Request {
	return f.newRequest(url, method)
}

// CreateGETRequest instantiates a GET request for a raw URL.
func (f *Factory) CreateGETRequest(url string) *Request {
	return f.newRequest(url, "GET")
}

// CreatePOSTRequest instantiates a POST request for a raw URL.
func (f *Factory) CreatePOSTRequest(url string) *Request {
	return f.newRequest(url, "POST")
}

// CreatePUTRequest instantiates a PUT request for a raw URL.
func (f *Factory) CreatePUTRequest(url string) *Request {
	return f.newRequest(url, "PUT")
}

// CreatePATCHRequest instantiates a PATCH request for a raw URL.
func (f *Factory) CreatePATCHRequest(url string) *Request {
	return f.newRequest(url, "PATCH")
}

// CreateDELETERequest instantiates a DELETE request for a raw URL.
func (f *Factory) CreateDELETERequest(url string) *Request {
	return f.newRequest(url, "DELETE")
}

// CreateAPIRequest instantiates a request for a registered API endpoint.
// The request metadata merges, later wins: {api: {name, baseURL}}, then the
// API meta, then the endpoint meta. API headers, query params, body
// transformers, error interceptors and request interceptors are attached.
func (f *Factory) CreateAPIRequest(apiName, endpointName string) (*Request, error) {
	f.log().Trace("creating API request", "api", apiName, "endpoint", endpointName)

	api, ok := f.registry.lookup(apiName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAPINotFound, apiName)
	}
	endpoint, ok := api.config.Endpoints[endpointName]
	if !ok || endpoint == nil {
		return nil, fmt.Errorf("%w: %q in API %q", ErrEndpointNotFound, endpointName, apiName)
	}

	url := resolveEndpointURL(endpoint, api)
	req := f.newRequest(url, endpoint.Method)

	meta := map[string]interface{}{
		"api": map[string]interface{}{
			"name":    api.config.Name,
			"baseURL": api.baseURL(endpoint),
		},
	}
	for k, v := range api.config.Meta {
		meta[k] = v
	}
	for k, v := range endpoint.Meta {
		meta[k] = v
	}

	req.WithMeta(meta).
		WithHeaders(api.config.Headers).
		WithQueryParams(api.config.QueryParams)

	if len(api.config.ResponseBodyTransformers) > 0 {
		req.WithResponseBodyTransformers(api.config.ResponseBodyTransformers...)
	}
	if len(api.config.ErrorInterceptors) > 0 {
		req.WithErrorInterceptors(api.config.ErrorInterceptors...)
	}
	req.attachSharedInterceptors(api.interceptors.snapshot())

	return req, nil
}

// ConditionalFactory is the scoped builder returned by When. It shares the
// base factory's step list; every default registered through it carries the
// scope's predicate. When replaces the predicate, Always ends the scope.
type ConditionalFactory struct {
	base *Factory
	when Predicate
}

// When replaces the predicate of this conditional scope.
func (c *ConditionalFactory) When(predicate Predicate) *ConditionalFactory {
	return &ConditionalFactory{base: c.base, when: predicate}
}

// Always ends the conditional scope, returning the base factory.
func (c *ConditionalFactory) Always() *Factory {
	return c.base
}

// WithHeader enqueues a predicate-guarded header default.
func (c *ConditionalFactory) WithHeader(name string, value HeaderValue) *ConditionalFactory {
	c.base.addStep(c.when, func(r *Request) { r.WithHeader(name, value) })
	return c
}

// WithHeaders enqueues a predicate-guarded headers default.
func (c *ConditionalFactory) WithHeaders(headers map[string]HeaderValue) *ConditionalFactory {
	c.base.addStep(c.when, func(r *Request) { r.WithHeaders(headers) })
	return c
}

// WithAccept enqueues a predicate-guarded accept default.
func (c *ConditionalFactory) WithAccept(mimeTypes ...string) *ConditionalFactory {
	c.base.addStep(c.when, func(r *Request) { r.WithAccept(mimeTypes...) })
	return c
}

// WithCredentialsPolicy enqueues a predicate-guarded credentials default.
func (c *ConditionalFactory) WithCredentialsPolicy(policy CredentialsPolicy) *ConditionalFactory {
	c.base.addStep(c.when, func(r *Request) { r.WithCredentialsPolicy(policy) })
	return c
}

// WithResponseBodyTransformer enqueues a predicate-guarded transformer.
func (c *ConditionalFactory) WithResponseBodyTransformer(transformer BodyTransformer) *ConditionalFactory {
	c.base.addStep(c.when, func(r *Request) { r.WithResponseBodyTransformers(transformer) })
	return c
}

// WithErrorInterceptors enqueues predicate-guarded error interceptors.
func (c *ConditionalFactory) WithErrorInterceptors(interceptors ...ErrorInterceptor) *ConditionalFactory {
	c.base.addStep(c.when, func(r *Request) { r.WithErrorInterceptors(interceptors...) })
	return c
}

// WithRequestInterceptors registers factory-owned request interceptors that
// only attach to requests matching the scope's predicate.
func (c *ConditionalFactory) WithRequestInterceptors(interceptors ...RequestInterceptor) *ConditionalFactory {
	entries := c.base.interceptors.add(interceptors...)
	c.base.addStep(c.when, func(r *Request) { r.attachSharedInterceptors(entries) })
	return c
}

// WithLogger enqueues a predicate-guarded logger default.
func (c *ConditionalFactory) WithLogger(logger Logger) *ConditionalFactory {
	c.base.addStep(c.when, func(r *Request) { r.WithLogger(logger) })
	return c
}

// WithLogLevel enqueues a predicate-guarded log level default.
func (c *ConditionalFactory) WithLogLevel(level LogLevel) *ConditionalFactory {
	c.base.addStep(c.when, func(r *Request) { r.WithLogLevel(level) })
	return c
}

// WithAPIConfig passes through to the base factory; API registration is
// never conditional.
func (c *ConditionalFactory) WithAPIConfig(apis ...APIConfig) *ConditionalFactory {
	c.base.WithAPIConfig(apis...)
	return c
}

// CreateRequest passes through to the base factory.
func (c *ConditionalFactory) CreateRequest(url, method string) *Request {
	return c.base.CreateRequest(url, method)
}

// CreateAPIRequest passes through to the base factory.
func (c *ConditionalFactory) CreateAPIRequest(apiName, endpointName string) (*Request, error) {
	return c.base.CreateAPIRequest(apiName, endpointName)
}
