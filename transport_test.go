package requestfactory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPTransportRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Probe") != "1" {
			t.Error("Expected descriptor headers to be sent")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	transport := NewHTTPTransport(nil)
	headers := http.Header{}
	headers.Set("X-Probe", "1")

	resp, err := transport.Do(context.Background(), server.URL, &RequestDescriptor{
		Method:  "GET",
		Headers: headers,
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	if !resp.OK() || resp.StatusCode() != 200 {
		t.Errorf("Expected 200 OK, got %d", resp.StatusCode())
	}
	if resp.Header("Content-Type") != "application/json" {
		t.Errorf("Unexpected content type: %s", resp.Header("Content-Type"))
	}
}

func TestHTTPResponseBodyBuffered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"n":1}`))
	}))
	defer server.Close()

	resp, err := NewHTTPTransport(nil).Do(context.Background(), server.URL, &RequestDescriptor{Method: "GET"})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	// The body is buffered on first read, so every reader works.
	if _, err := resp.JSON(); err != nil {
		t.Fatalf("JSON read failed: %v", err)
	}
	text, err := resp.Text()
	if err != nil || text != `{"n":1}` {
		t.Errorf("Text read after JSON failed: %q %v", text, err)
	}
	blob, err := resp.Blob()
	if err != nil || len(blob) == 0 {
		t.Errorf("Blob read after Text failed: %v", err)
	}
}

func TestStaticResponse(t *testing.T) {
	resp := NewStaticResponse(404, "application/json", []byte(`{"missing":true}`))

	if resp.OK() {
		t.Error("Expected 404 to not be OK")
	}
	if resp.StatusText() != "Not Found" {
		t.Errorf("Unexpected status text: %s", resp.StatusText())
	}
	if resp.Header("content-type") != "application/json" {
		t.Errorf("Expected case-insensitive content type lookup, got %q", resp.Header("content-type"))
	}

	body, err := resp.JSON()
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}
	if body.(map[string]interface{})["missing"] != true {
		t.Errorf("Unexpected body: %v", body)
	}
}

func TestTransportFuncAdapter(t *testing.T) {
	called := false
	fn := TransportFunc(func(ctx context.Context, url string, d *RequestDescriptor) (Response, error) {
		called = true
		return NewStaticResponse(200, "text/plain", []byte("ok")), nil
	})

	resp, err := fn.Do(context.Background(), "http://h", &RequestDescriptor{Method: "GET"})
	if err != nil || !called {
		t.Fatalf("Adapter call failed: %v", err)
	}
	if text, _ := resp.Text(); text != "ok" {
		t.Errorf("Unexpected body: %s", text)
	}
}
