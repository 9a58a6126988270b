package requestfactory

import (
	"mime/multipart"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newBareRequest(rawURL, method string) *Request {
	return newRequest(rawURL, method, nil, nil, nil, nil, LevelNone)
}

func TestNewRequestDefaults(t *testing.T) {
	r := newBareRequest("http://example.com", "")

	if r.Method() != "GET" {
		t.Errorf("Expected default method GET, got %s", r.Method())
	}
	if r.config.Credentials != CredentialsSameOrigin {
		t.Errorf("Expected same-origin credentials, got %s", r.config.Credentials)
	}
	if r.config.Mode != ModeCORS {
		t.Errorf("Expected cors mode, got %s", r.config.Mode)
	}
	if r.config.Timeout != 0 {
		t.Errorf("Expected no timeout by default, got %v", r.config.Timeout)
	}
}

func TestChainableConfiguration(t *testing.T) {
	r := newBareRequest("http://example.com", "GET").
		WithHeader("X-One", Header("1")).
		WithHeaders(map[string]HeaderValue{"X-Two": Header("2")}).
		WithQueryParam("a", "1").
		WithQueryParams(map[string]string{"b": "2"}).
		WithURLParam("id", Param("7")).
		WithTimeout(time.Second).
		WithCredentialsPolicy(CredentialsInclude).
		WithNoCors().
		WithMeta(map[string]interface{}{"k": "v"}).
		AcceptJSON().
		IgnoreResponseBody()

	cfg := r.Config()
	if len(cfg.Headers) != 2 {
		t.Errorf("Expected 2 headers, got %d", len(cfg.Headers))
	}
	if cfg.QueryParams["a"] != "1" || cfg.QueryParams["b"] != "2" {
		t.Errorf("Unexpected query params: %v", cfg.QueryParams)
	}
	if cfg.Timeout != time.Second {
		t.Errorf("Expected 1s timeout, got %v", cfg.Timeout)
	}
	if cfg.Credentials != CredentialsInclude {
		t.Errorf("Expected include credentials, got %s", cfg.Credentials)
	}
	if cfg.Mode != ModeNoCORS {
		t.Errorf("Expected no-cors mode, got %s", cfg.Mode)
	}
	if cfg.Meta["k"] != "v" {
		t.Errorf("Expected meta k=v, got %v", cfg.Meta)
	}
	if len(cfg.AcceptedMIMETypes) != 1 || cfg.AcceptedMIMETypes[0] != "application/json" {
		t.Errorf("Expected accepted JSON, got %v", cfg.AcceptedMIMETypes)
	}
	if !cfg.IgnoreResponseBody {
		t.Error("Expected IgnoreResponseBody to be set")
	}
}

func TestConfigSnapshotIsolation(t *testing.T) {
	r := newBareRequest("http://example.com", "GET").WithQueryParam("a", "1")

	snap := r.Config()
	snap.QueryParams["a"] = "tampered"
	snap.Headers["X-Injected"] = Header("x")

	if r.config.QueryParams["a"] != "1" {
		t.Error("Snapshot mutation leaked into the request")
	}
	if _, ok := r.config.Headers["X-Injected"]; ok {
		t.Error("Snapshot header mutation leaked into the request")
	}
}

func TestWithJSONBodyFromValue(t *testing.T) {
	r := newBareRequest("http://example.com", "POST").
		WithJSONBody(map[string]interface{}{"name": "x"})

	if r.config.Body == nil {
		t.Fatal("Expected body to be set")
	}
	payload, err := r.config.Body()
	if err != nil {
		t.Fatalf("Body thunk failed: %v", err)
	}
	if payload.ContentType != "application/json" {
		t.Errorf("Expected JSON content type, got %s", payload.ContentType)
	}
	if string(payload.Content) != `{"name":"x"}` {
		t.Errorf("Unexpected payload: %s", payload.Content)
	}
}

func TestWithJSONBodyValidString(t *testing.T) {
	r := newBareRequest("http://example.com", "POST").WithJSONBody(`{"a": 1}`)

	payload, err := r.config.Body()
	if err != nil {
		t.Fatalf("Body thunk failed: %v", err)
	}
	// Valid JSON strings are stored verbatim, not re-serialized.
	if string(payload.Content) != `{"a": 1}` {
		t.Errorf("Expected verbatim JSON string, got %s", payload.Content)
	}
}

func TestWithJSONBodyInvalidStringLeavesBodyUnset(t *testing.T) {
	r := newBareRequest("http://example.com", "POST").WithJSONBody(`{not json`)

	if r.config.Body != nil {
		t.Error("Expected invalid JSON string to leave the body unset")
	}
}

func TestWithURIEncodedBody(t *testing.T) {
	r := newBareRequest("http://example.com", "POST").
		WithURIEncodedBody(map[string]string{"q": "a b", "page": "2"})

	payload, err := r.config.Body()
	if err != nil {
		t.Fatalf("Body thunk failed: %v", err)
	}
	if payload.ContentType != "application/x-www-form-urlencoded" {
		t.Errorf("Unexpected content type %s", payload.ContentType)
	}
	values, err := url.ParseQuery(string(payload.Content))
	if err != nil {
		t.Fatalf("Payload is not urlencoded: %v", err)
	}
	if values.Get("q") != "a b" || values.Get("page") != "2" {
		t.Errorf("Unexpected form values: %v", values)
	}
}

func TestWithFormDataBodyIsLazy(t *testing.T) {
	composed := 0
	r := newBareRequest("http://example.com", "POST").
		WithFormDataBody(func(w *multipart.Writer) error {
			composed++
			return w.WriteField("field", "value")
		})

	if composed != 0 {
		t.Fatal("Composer must not run at configuration time")
	}

	payload, err := r.config.Body()
	if err != nil {
		t.Fatalf("Body thunk failed: %v", err)
	}
	if composed != 1 {
		t.Errorf("Expected composer to run exactly once, ran %d times", composed)
	}
	if !strings.HasPrefix(payload.ContentType, "multipart/form-data; boundary=") {
		t.Errorf("Unexpected content type %s", payload.ContentType)
	}
	if !strings.Contains(string(payload.Content), "value") {
		t.Error("Expected multipart payload to contain the field value")
	}
}

func TestBlankDropsCapturedSteps(t *testing.T) {
	steps := []configStep{{apply: func(r *Request) { r.WithHeader("X-Default", Header("1")) }}}
	r := newRequest("http://example.com", "GET", steps, nil, nil, nil, LevelNone)

	if len(r.steps) != 1 {
		t.Fatalf("Expected 1 captured step, got %d", len(r.steps))
	}

	r.Blank()
	if len(r.steps) != 0 {
		t.Error("Expected Blank to drop captured steps")
	}
}

func TestStepListIsSnapshotted(t *testing.T) {
	steps := make([]configStep, 0, 4)
	steps = append(steps, configStep{apply: func(*Request) {}})

	r := newRequest("http://example.com", "GET", steps, nil, nil, nil, LevelNone)

	// Appending to the source list after creation must not affect the
	// request's captured copy.
	steps = append(steps, configStep{apply: func(*Request) {}})

	if len(r.steps) != 1 {
		t.Errorf("Expected captured snapshot of 1 step, got %d", len(r.steps))
	}
}
