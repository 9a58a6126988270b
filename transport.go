package requestfactory

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
)

// RequestDescriptor is the resolved, outbound form of a request handed to
// the transport. Headers are fully resolved; Body is nil for body-less
// requests.
type RequestDescriptor struct {
	Method      string
	Headers     http.Header
	Body        io.Reader
	Credentials CredentialsPolicy
	Mode        CORSMode
}

// Response is the fetch-like response surface the execution engine consumes.
// Body-reading operations buffer on first use so any of them can be called
// after the headers have been inspected.
type Response interface {
	StatusCode() int
	OK() bool
	StatusText() string
	Header(name string) string
	JSON() (interface{}, error)
	Text() (string, error)
	Blob() ([]byte, error)
}

// Transport is the injected network capability: given a URL and a request
// descriptor it returns a response descriptor or a network-level error. It
// must honor cancellation of ctx (the abort signal).
type Transport interface {
	Do(ctx context.Context, url string, d *RequestDescriptor) (Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, url string, d *RequestDescriptor) (Response, error)

func (f TransportFunc) Do(ctx context.Context, url string, d *RequestDescriptor) (Response, error) {
	return f(ctx, url, d)
}

// HTTPTransport is the default Transport over net/http. CORS mode and
// credentials policy are browser concepts with no net/http equivalent; they
// are carried on the descriptor for custom transports and ignored here.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport backed by the given client, or a
// plain client with no transport-level timeout when nil (cancellation is
// context driven).
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 0}
	}
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) Do(ctx context.Context, url string, d *RequestDescriptor) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, d.Method, url, d.Body)
	if err != nil {
		return nil, err
	}
	for name, values := range d.Headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	return newHTTPResponse(resp), nil
}

// httpResponse adapts *http.Response to the Response interface, buffering
// the body on first read.
type httpResponse struct {
	resp *http.Response

	once    sync.Once
	body    []byte
	readErr error
}

func newHTTPResponse(resp *http.Response) *httpResponse {
	return &httpResponse{resp: resp}
}

func (r *httpResponse) StatusCode() int { return r.resp.StatusCode }

func (r *httpResponse) OK() bool {
	return r.resp.StatusCode >= 200 && r.resp.StatusCode < 300
}

func (r *httpResponse) StatusText() string {
	text := http.StatusText(r.resp.StatusCode)
	if text == "" {
		text = r.resp.Status
	}
	return text
}

func (r *httpResponse) Header(name string) string {
	return r.resp.Header.Get(name)
}

func (r *httpResponse) read() ([]byte, error) {
	r.once.Do(func() {
		defer r.resp.Body.Close()
		r.body, r.readErr = io.ReadAll(r.resp.Body)
	})
	return r.body, r.readErr
}

func (r *httpResponse) JSON() (interface{}, error) {
	data, err := r.read()
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *httpResponse) Text() (string, error) {
	data, err := r.read()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *httpResponse) Blob() ([]byte, error) {
	data, err := r.read()
	if err != nil {
		return nil, err
	}
	return data, nil
}

// staticResponse is a canned Response, handy for tests and for transports
// that synthesize replies.
type staticResponse struct {
	status      int
	statusText  string
	headers     map[string]string
	body        []byte
	contentType string
}

// NewStaticResponse builds an in-memory Response with the given status,
// content type and body.
func NewStaticResponse(status int, contentType string, body []byte) Response {
	return &staticResponse{
		status:      status,
		statusText:  http.StatusText(status),
		body:        body,
		contentType: contentType,
	}
}

func (r *staticResponse) StatusCode() int    { return r.status }
func (r *staticResponse) OK() bool           { return r.status >= 200 && r.status < 300 }
func (r *staticResponse) StatusText() string { return r.statusText }

func (r *staticResponse) Header(name string) string {
	if http.CanonicalHeaderKey(name) == "Content-Type" {
		return r.contentType
	}
	if r.headers == nil {
		return ""
	}
	return r.headers[http.CanonicalHeaderKey(name)]
}

func (r *staticResponse) JSON() (interface{}, error) {
	var out interface{}
	if err := json.Unmarshal(r.body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *staticResponse) Text() (string, error) { return string(r.body), nil }
func (r *staticResponse) Blob() ([]byte, error) { return r.body, nil }

// bodyReader turns a materialized payload into the descriptor's reader.
func bodyReader(p *BodyPayload) io.Reader {
	if p == nil {
		return nil
	}
	return bytes.NewReader(p.Content)
}
