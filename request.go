package requestfactory

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/url"
	"sync"
	"time"
)

// RequestConfig is the accumulating set of options describing one request.
// It is owned exclusively by one Request and never shared.
type RequestConfig struct {
	URL                      string
	Method                   string
	Headers                  map[string]HeaderValue
	Body                     BodyFunc
	Timeout                  time.Duration
	Credentials              CredentialsPolicy
	Mode                     CORSMode
	Meta                     map[string]interface{}
	QueryParams              map[string]string
	URLParams                map[string]ParamValue
	AcceptedMIMETypes        []string
	IgnoreResponseBody       bool
	ResponseBodyTransformers []BodyTransformer
	ResponseInterceptors     []ResponseInterceptor
	ErrorInterceptors        []ErrorInterceptor
}

type requestState int

const (
	stateFresh requestState = iota
	stateExecuting
	stateSpent
)

// Request is a single-use request under construction. All WithX methods
// mutate the request and return it for chaining. Once Execute has been
// called the instance is permanently spent.
type Request struct {
	config RequestConfig

	// requestInterceptors mixes entries shared with the owning factory/API
	// (so DeleteInterceptor persists across requests) and request-local ones.
	requestInterceptors []*interceptorEntry
	local               *interceptorSet

	steps     []configStep
	transport Transport
	metrics   *MetricsCollector
	logger    Logger
	level     LogLevel

	mu    sync.Mutex
	state requestState
}

func newRequest(url, method string, steps []configStep, transport Transport, metrics *MetricsCollector, logger Logger, level LogLevel) *Request {
	if method == "" {
		method = "GET"
	}
	// The step list is snapshotted so later factory mutations never
	// retroactively apply to this request.
	captured := make([]configStep, len(steps))
	copy(captured, steps)

	return &Request{
		config: RequestConfig{
			URL:         url,
			Method:      method,
			Headers:     make(map[string]HeaderValue),
			Credentials: CredentialsSameOrigin,
			Mode:        ModeCORS,
			Meta:        make(map[string]interface{}),
			QueryParams: make(map[string]string),
			URLParams:   make(map[string]ParamValue),
		},
		local:     newInterceptorSet(),
		steps:     captured,
		transport: transport,
		metrics:   metrics,
		logger:    logger,
		level:     level,
	}
}

// log returns the request's leveled logger view.
func (r *Request) log() Logger {
	return WithLevel(r.logger, r.level)
}

// Meta exposes the request metadata map for conditions and interceptors.
func (r *Request) Meta() map[string]interface{} {
	return r.config.Meta
}

// URL returns the currently configured URL (before query and template
// resolution).
func (r *Request) URL() string {
	return r.config.URL
}

// Method returns the configured HTTP method.
func (r *Request) Method() string {
	return r.config.Method
}

// WithMeta merges entries into the request metadata; later writes win.
func (r *Request) WithMeta(meta map[string]interface{}) *Request {
	for k, v := range meta {
		r.config.Meta[k] = v
	}
	return r
}

// WithHeader sets one header.
func (r *Request) WithHeader(name string, value HeaderValue) *Request {
	r.config.Headers[name] = value
	return r
}

// WithHeaders sets several headers; later writes win per name.
func (r *Request) WithHeaders(headers map[string]HeaderValue) *Request {
	for name, value := range headers {
		r.config.Headers[name] = value
	}
	return r
}

// WithQueryParam sets one query parameter. Last write per key wins.
func (r *Request) WithQueryParam(name, value string) *Request {
	r.config.QueryParams[name] = value
	return r
}

// WithQueryParams sets several query parameters.
func (r *Request) WithQueryParams(params map[string]string) *Request {
	for name, value := range params {
		r.config.QueryParams[name] = value
	}
	return r
}

// WithURLParam binds one {{name}} template parameter.
func (r *Request) WithURLParam(name string, value ParamValue) *Request {
	r.config.URLParams[name] = value
	return r
}

// WithURLParams binds several template parameters.
func (r *Request) WithURLParams(params map[string]ParamValue) *Request {
	for name, value := range params {
		r.config.URLParams[name] = value
	}
	return r
}

// WithTimeout arms a timeout for the transport call. Zero means no timer.
func (r *Request) WithTimeout(d time.Duration) *Request {
	r.config.Timeout = d
	return r
}

// WithCredentialsPolicy sets the credentials policy on the descriptor.
func (r *Request) WithCredentialsPolicy(policy CredentialsPolicy) *Request {
	r.config.Credentials = policy
	return r
}

// WithNoCors sets the no-cors request mode.
func (r *Request) WithNoCors() *Request {
	r.config.Mode = ModeNoCORS
	return r
}

// WithAccept appends MIME types to the accepted set; they are sent in the
// Accept header and treated as text-parseable response types.
func (r *Request) WithAccept(mimeTypes ...string) *Request {
	r.config.AcceptedMIMETypes = append(r.config.AcceptedMIMETypes, mimeTypes...)
	return r
}

// WithAcceptAny accepts any content type.
func (r *Request) WithAcceptAny() *Request {
	return r.WithAccept("*/*")
}

// AcceptJSON accepts application/json responses.
func (r *Request) AcceptJSON() *Request {
	return r.WithAccept("application/json")
}

// IgnoreResponseBody resolves the request with no value instead of parsing
// the response body.
func (r *Request) IgnoreResponseBody() *Request {
	r.config.IgnoreResponseBody = true
	return r
}

// WithLogger replaces the request's logger.
func (r *Request) WithLogger(logger Logger) *Request {
	r.logger = logger
	return r
}

// WithLogLevel sets the minimum severity for this request's logging.
func (r *Request) WithLogLevel(level LogLevel) *Request {
	r.level = level
	return r
}

// WithJSONBody stores a JSON body thunk. A string (or []byte) argument must
// already be valid JSON and is stored as-is; any other value is serialized
// at send time. Invalid JSON input is logged and leaves the body unset.
func (r *Request) WithJSONBody(body interface{}) *Request {
	switch v := body.(type) {
	case string:
		if !json.Valid([]byte(v)) {
			r.log().Error("invalid JSON string passed to WithJSONBody, body left unset", "url", r.config.URL)
			return r
		}
		raw := []byte(v)
		r.config.Body = func() (*BodyPayload, error) {
			return &BodyPayload{Content: raw, ContentType: "application/json"}, nil
		}
	case []byte:
		if !json.Valid(v) {
			r.log().Error("invalid JSON bytes passed to WithJSONBody, body left unset", "url", r.config.URL)
			return r
		}
		r.config.Body = func() (*BodyPayload, error) {
			return &BodyPayload{Content: v, ContentType: "application/json"}, nil
		}
	default:
		r.config.Body = func() (*BodyPayload, error) {
			data, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			return &BodyPayload{Content: data, ContentType: "application/json"}, nil
		}
	}
	return r
}

// WithURIEncodedBody stores an application/x-www-form-urlencoded body built
// from the given pairs, encoded at send time.
func (r *Request) WithURIEncodedBody(values map[string]string) *Request {
	r.config.Body = func() (*BodyPayload, error) {
		form := url.Values{}
		for k, v := range values {
			form.Set(k, v)
		}
		return &BodyPayload{
			Content:     []byte(form.Encode()),
			ContentType: "application/x-www-form-urlencoded",
		}, nil
	}
	return r
}

// WithFormEncodedBody stores an application/x-www-form-urlencoded body from
// pre-built url.Values, encoded at send time.
func (r *Request) WithFormEncodedBody(values url.Values) *Request {
	r.config.Body = func() (*BodyPayload, error) {
		return &BodyPayload{
			Content:     []byte(values.Encode()),
			ContentType: "application/x-www-form-urlencoded",
		}, nil
	}
	return r
}

// WithFormDataBody stores a multipart body. The composer is invoked lazily
// at send time to populate the payload, exactly once.
func (r *Request) WithFormDataBody(composer func(*multipart.Writer) error) *Request {
	r.config.Body = func() (*BodyPayload, error) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		if err := composer(w); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return &BodyPayload{
			Content:     buf.Bytes(),
			ContentType: w.FormDataContentType(),
		}, nil
	}
	return r
}

// WithResponseBodyTransformers appends transformers run against the parsed
// response body in registration order.
func (r *Request) WithResponseBodyTransformers(transformers ...BodyTransformer) *Request {
	r.config.ResponseBodyTransformers = append(r.config.ResponseBodyTransformers, transformers...)
	return r
}

// WithRequestInterceptors appends request-local interceptors.
func (r *Request) WithRequestInterceptors(interceptors ...RequestInterceptor) *Request {
	entries := r.local.add(interceptors...)
	r.requestInterceptors = append(r.requestInterceptors, entries...)
	return r
}

// attachSharedInterceptors captures entries owned by a factory or API so
// DeleteInterceptor removals outlive this request.
func (r *Request) attachSharedInterceptors(entries []*interceptorEntry) *Request {
	r.requestInterceptors = append(r.requestInterceptors, entries...)
	return r
}

// WithResponseInterceptors appends response interceptors.
func (r *Request) WithResponseInterceptors(interceptors ...ResponseInterceptor) *Request {
	r.config.ResponseInterceptors = append(r.config.ResponseInterceptors, interceptors...)
	return r
}

// WithErrorInterceptors appends error interceptors.
func (r *Request) WithErrorInterceptors(interceptors ...ErrorInterceptor) *Request {
	r.config.ErrorInterceptors = append(r.config.ErrorInterceptors, interceptors...)
	return r
}

// Blank discards the default-configuration steps captured from the factory,
// for this request only. Used to bypass inherited defaults for one call.
func (r *Request) Blank() *Request {
	r.steps = nil
	return r
}

// Config returns a read-only snapshot of the current configuration for
// introspection. Maps and slices are copied; mutating the snapshot does not
// affect the request.
func (r *Request) Config() RequestConfig {
	snap := r.config

	snap.Headers = make(map[string]HeaderValue, len(r.config.Headers))
	for k, v := range r.config.Headers {
		snap.Headers[k] = v
	}
	snap.Meta = make(map[string]interface{}, len(r.config.Meta))
	for k, v := range r.config.Meta {
		snap.Meta[k] = v
	}
	snap.QueryParams = make(map[string]string, len(r.config.QueryParams))
	for k, v := range r.config.QueryParams {
		snap.QueryParams[k] = v
	}
	snap.URLParams = make(map[string]ParamValue, len(r.config.URLParams))
	for k, v := range r.config.URLParams {
		snap.URLParams[k] = v
	}
	snap.AcceptedMIMETypes = append([]string(nil), r.config.AcceptedMIMETypes...)
	snap.ResponseBodyTransformers = append([]BodyTransformer(nil), r.config.ResponseBodyTransformers...)
	snap.ResponseInterceptors = append([]ResponseInterceptor(nil), r.config.ResponseInterceptors...)
	snap.ErrorInterceptors = append([]ErrorInterceptor(nil), r.config.ErrorInterceptors...)

	return snap
}
