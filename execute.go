package requestfactory

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
)

var urlParamPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Execute runs the request pipeline: captured factory defaults, header /
// timeout / query / body / URL resolution, interceptor chains, the transport
// call, and response or error normalization.
//
// A Request is strictly single use. The second Execute call on an instance
// fails with ErrRequestSpent before doing any work, regardless of the
// outcome of the first.
func (r *Request) Execute(ctx context.Context) (interface{}, error) {
	r.mu.Lock()
	if r.state != stateFresh {
		r.mu.Unlock()
		r.metrics.RecordError("Reuse", r.config.Method, endpointLabel(r.config.URL))
		return nil, ErrRequestSpent
	}
	r.state = stateExecuting
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.state = stateSpent
		r.mu.Unlock()
	}()

	if ctx == nil {
		ctx = context.Background()
	}

	// Factory defaults run first, in registration order. Guarded steps are
	// no-ops when their predicate rejects this request.
	for _, step := range r.steps {
		if step.when != nil && !step.when(r) {
			continue
		}
		step.apply(r)
	}
	r.metrics.RecordDefaultsApplied(endpointLabel(r.config.URL))

	start := time.Now()
	method := r.config.Method
	endpoint := endpointLabel(r.config.URL)

	r.metrics.RecordRequestStart(method, endpoint)
	defer r.metrics.RecordRequestEnd(method, endpoint)

	descriptor := &RequestDescriptor{
		Method:      method,
		Headers:     r.resolveHeaders(),
		Credentials: r.config.Credentials,
		Mode:        r.config.Mode,
	}

	// Timeout arms a cancellation signal for the in-flight transport call.
	// The timer is released on every exit path.
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	r.config.URL = appendQueryParams(r.config.URL, r.config.QueryParams)

	// Body thunks are evaluated exactly once, at send time.
	if r.config.Body != nil {
		payload, err := r.config.Body()
		if err != nil {
			r.log().Error("body construction failed", "url", r.config.URL, "error", err)
			return nil, err
		}
		if payload != nil {
			descriptor.Body = bodyReader(payload)
			if payload.ContentType != "" && descriptor.Headers.Get("Content-Type") == "" {
				descriptor.Headers.Set("Content-Type", payload.ContentType)
			}
		}
	}

	r.config.URL = r.substituteURLParams(r.config.URL)

	// Request interceptors run in registration order; the first to claim
	// the request wins and the transport call is skipped entirely.
	for _, entry := range r.requestInterceptors {
		if entry.isRemoved() {
			continue
		}
		controls := &InterceptorControls{request: r, entry: entry}
		if result, ok := entry.fn(r, controls); ok {
			r.metrics.RecordInterceptorShortCircuit("request", endpoint)
			return r.applyBodyTransformers(result), nil
		}
	}

	if r.transport == nil {
		return nil, ErrNoTransport
	}

	r.log().Debug("dispatching request", "method", method, "url", r.config.URL)

	resp, err := r.transport.Do(ctx, r.config.URL, descriptor)
	if err != nil {
		duration := time.Since(start)
		if isAbort(ctx, err) {
			r.log().Warn("request aborted", "method", method, "url", r.config.URL, "elapsed", duration)
			r.metrics.RecordError("Aborted", method, endpoint)
			r.metrics.RecordRequest(method, endpoint, AbortedCode, duration)
			return nil, newAbortedError()
		}
		r.log().Error("transport failure", "method", method, "url", r.config.URL, "error", err)
		r.metrics.RecordError("Network", method, endpoint)
		r.metrics.RecordRequest(method, endpoint, 0, duration)
		return nil, err
	}

	r.metrics.RecordRequest(method, endpoint, resp.StatusCode(), time.Since(start))

	// Response interceptors see the raw transport response; the first
	// non-sentinel result becomes the request's result.
	for _, interceptor := range r.config.ResponseInterceptors {
		if result, ok := interceptor(r, resp); ok {
			r.metrics.RecordInterceptorShortCircuit("response", endpoint)
			return r.applyBodyTransformers(result), nil
		}
	}

	if resp.OK() {
		if r.config.IgnoreResponseBody || resp.StatusCode() == http.StatusNoContent {
			return nil, nil
		}
		body, err := r.parseBody(resp)
		if err != nil {
			r.log().Error("response body parse failed", "url", r.config.URL, "error", err)
			return nil, err
		}
		return r.applyBodyTransformers(body), nil
	}

	// Non-2xx: build the structured error; interceptors observe it but can
	// never suppress the failure.
	body, parseErr := r.parseBody(resp)
	if parseErr != nil {
		body = nil
	}
	httpErr := NewHTTPError(resp.StatusCode(), resp.StatusText(), body)

	r.log().Warn("request failed", "method", method, "url", r.config.URL, "status", resp.StatusCode())
	r.metrics.RecordError("Http", method, endpoint)

	for _, interceptor := range r.config.ErrorInterceptors {
		if interceptor(r, httpErr) {
			break
		}
	}

	return nil, httpErr
}

// resolveHeaders materializes the header map: literal values pass through,
// resolver functions are called once with the request, and resolvers
// returning "" omit the header. The Accept header falls back to the
// accepted MIME list.
func (r *Request) resolveHeaders() http.Header {
	headers := make(http.Header, len(r.config.Headers))
	for name, value := range r.config.Headers {
		if resolved, ok := value.resolve(r); ok {
			headers.Set(name, resolved)
		}
	}
	if headers.Get("Accept") == "" && len(r.config.AcceptedMIMETypes) > 0 {
		headers.Set("Accept", strings.Join(r.config.AcceptedMIMETypes, ", "))
	}
	return headers
}

// substituteURLParams replaces {{name}} tokens with literal or computed
// values. Unmatched tokens are left as-is.
func (r *Request) substituteURLParams(rawURL string) string {
	if len(r.config.URLParams) == 0 {
		return rawURL
	}
	return urlParamPattern.ReplaceAllStringFunc(rawURL, func(token string) string {
		name := token[2 : len(token)-2]
		if value, ok := r.config.URLParams[name]; ok {
			return value.resolve(r)
		}
		return token
	})
}

// appendQueryParams serializes the query map onto the URL in sorted key
// order. Last write per key wins since the store is a map.
func appendQueryParams(rawURL string, params map[string]string) string {
	if len(params) == 0 {
		return rawURL
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(rawURL)
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	for _, k := range keys {
		b.WriteString(sep)
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
		sep = "&"
	}
	return b.String()
}

// parseBody dispatches on the response content type: JSON is structurally
// parsed, text-like types become strings, anything else a binary blob.
func (r *Request) parseBody(resp Response) (interface{}, error) {
	contentType := resp.Header("Content-Type")
	switch {
	case isJSONContentType(contentType):
		return resp.JSON()
	case isTextContentType(contentType, r.config.AcceptedMIMETypes):
		return resp.Text()
	default:
		return resp.Blob()
	}
}

// applyBodyTransformers chains transformers in registration order, each
// receiving the previous output.
func (r *Request) applyBodyTransformers(body interface{}) interface{} {
	for _, transform := range r.config.ResponseBodyTransformers {
		body = transform(body, r)
	}
	return body
}

// isAbort reports whether a transport failure was caused by the abort
// signal. Timeout expiry and caller cancellation are indistinguishable once
// the signal fires.
func isAbort(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	return ctx.Err() != nil
}

// endpointLabel reduces a URL to host+path for metric labels.
func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		if rawURL == "" {
			return "unknown"
		}
		return rawURL
	}
	endpoint := u.Host
	if u.Path != "" && u.Path != "/" {
		endpoint += u.Path
	} else {
		endpoint += "/"
	}
	return endpoint
}
