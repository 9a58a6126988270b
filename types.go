package requestfactory

import (
	"strings"
	"sync"
)

// CredentialsPolicy mirrors the fetch credentials modes.
type CredentialsPolicy string

const (
	CredentialsOmit       CredentialsPolicy = "omit"
	CredentialsSameOrigin CredentialsPolicy = "same-origin"
	CredentialsInclude    CredentialsPolicy = "include"
)

// CORSMode mirrors the fetch request modes.
type CORSMode string

const (
	ModeCORS   CORSMode = "cors"
	ModeNoCORS CORSMode = "no-cors"
)

// HeaderValue is a header that is either a literal string or a function
// resolved lazily, once, at execution time. A computed value resolving to
// the empty string removes the header.
type HeaderValue struct {
	literal string
	fn      func(*Request) string
}

// Header wraps a literal header value.
func Header(value string) HeaderValue {
	return HeaderValue{literal: value}
}

// HeaderFunc wraps a header resolver evaluated against the request at send
// time.
func HeaderFunc(fn func(*Request) string) HeaderValue {
	return HeaderValue{fn: fn}
}

// resolve returns the final header value and whether the header should be
// set at all.
func (h HeaderValue) resolve(r *Request) (string, bool) {
	if h.fn != nil {
		v := h.fn(r)
		return v, v != ""
	}
	return h.literal, true
}

// ParamValue is a URL template parameter, literal or computed.
type ParamValue struct {
	literal string
	fn      func(*Request) string
}

// Param wraps a literal URL parameter value.
func Param(value string) ParamValue {
	return ParamValue{literal: value}
}

// ParamFunc wraps a URL parameter resolver evaluated at send time.
func ParamFunc(fn func(*Request) string) ParamValue {
	return ParamValue{fn: fn}
}

func (p ParamValue) resolve(r *Request) string {
	if p.fn != nil {
		return p.fn(r)
	}
	return p.literal
}

// BodyPayload is the fully materialized request body.
type BodyPayload struct {
	Content     []byte
	ContentType string
}

// BodyFunc produces the request body. It is stored unevaluated and invoked
// exactly once, at send time, so body-construction side effects happen when
// the request goes out, not when it is configured.
type BodyFunc func() (*BodyPayload, error)

// BodyTransformer rewrites a parsed response body. Transformers run in
// registration order, each receiving the previous transformer's output.
type BodyTransformer func(body interface{}, req *Request) interface{}

// Predicate gates a conditional factory default against the in-progress
// request.
type Predicate func(*Request) bool

// InterceptorControls is the capability handed to request interceptors.
type InterceptorControls struct {
	request *Request
	entry   *interceptorEntry
}

// ReplaceURL swaps the request URL before the transport is invoked.
func (c *InterceptorControls) ReplaceURL(newURL string) {
	c.request.config.URL = newURL
}

// DeleteInterceptor permanently removes the running interceptor from the
// list that owns it. Requests created afterwards from the same factory or
// API skip it.
func (c *InterceptorControls) DeleteInterceptor() {
	if c.entry != nil {
		c.entry.remove()
	}
}

// RequestInterceptor runs before the transport call. Returning ok=true
// claims the request: the returned value becomes the result (after body
// transformers) and the transport call is skipped. ok=false means
// "no opinion" and falls through to the next interceptor.
type RequestInterceptor func(req *Request, controls *InterceptorControls) (result interface{}, ok bool)

// ResponseInterceptor runs against the raw transport response. The first
// interceptor returning ok=true short-circuits with its value as the result.
type ResponseInterceptor func(req *Request, resp Response) (result interface{}, ok bool)

// ErrorInterceptor observes an HTTP-level error. Returning true marks the
// error handled and stops the remaining interceptors; the error is still
// surfaced to the caller either way.
type ErrorInterceptor func(req *Request, err *HTTPError) bool

// interceptorEntry is one request interceptor in an owning list. Removal is
// a tombstone so entries already captured by in-flight requests stay valid.
type interceptorEntry struct {
	fn      RequestInterceptor
	mu      sync.Mutex
	removed bool
}

func (e *interceptorEntry) remove() {
	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
}

func (e *interceptorEntry) isRemoved() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removed
}

// interceptorSet is an ordered, shared list of request interceptors owned
// by a factory or a registered API.
type interceptorSet struct {
	mu      sync.Mutex
	entries []*interceptorEntry
}

func newInterceptorSet(fns ...RequestInterceptor) *interceptorSet {
	s := &interceptorSet{}
	s.add(fns...)
	return s
}

func (s *interceptorSet) add(fns ...RequestInterceptor) []*interceptorEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := make([]*interceptorEntry, 0, len(fns))
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		entry := &interceptorEntry{fn: fn}
		s.entries = append(s.entries, entry)
		added = append(added, entry)
	}
	return added
}

func (s *interceptorSet) snapshot() []*interceptorEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*interceptorEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.isRemoved() {
			out = append(out, e)
		}
	}
	return out
}

// configStep is one factory default applied to a request at execution time.
// A nil when predicate means unconditional.
type configStep struct {
	when  Predicate
	apply func(*Request)
}

// defaultTextMIMETypes are the content types parsed as text when a response
// is neither JSON nor explicitly accepted as text by the request.
var defaultTextMIMETypes = []string{
	"text/",
	"application/xml",
	"application/xhtml+xml",
	"application/javascript",
	"application/x-www-form-urlencoded",
	"image/svg+xml",
}

// isJSONContentType reports whether a Content-Type header denotes JSON,
// including suffixed variants such as application/problem+json.
func isJSONContentType(contentType string) bool {
	ct := mediaType(contentType)
	if strings.HasPrefix(ct, "application/json") {
		return true
	}
	return strings.HasPrefix(ct, "application/") && strings.HasSuffix(ct, "+json")
}

// isTextContentType reports whether a Content-Type header matches the text
// MIME list, extended with any request-level accepted types.
func isTextContentType(contentType string, accepted []string) bool {
	ct := mediaType(contentType)
	for _, t := range defaultTextMIMETypes {
		if strings.HasPrefix(ct, t) {
			return true
		}
	}
	for _, t := range accepted {
		if t != "" && strings.HasPrefix(ct, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// mediaType strips parameters such as charset and lowercases the type.
func mediaType(contentType string) string {
	if idx := strings.IndexByte(contentType, ';'); idx != -1 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
