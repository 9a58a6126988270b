package requestfactory

import "testing"

func TestHeaderValueLiteral(t *testing.T) {
	v, ok := Header("application/json").resolve(nil)
	if !ok || v != "application/json" {
		t.Errorf("Expected literal pass-through, got %q ok=%v", v, ok)
	}

	// Empty literals still set the header; only computed values can omit.
	v, ok = Header("").resolve(nil)
	if !ok || v != "" {
		t.Errorf("Expected empty literal to resolve, got %q ok=%v", v, ok)
	}
}

func TestHeaderValueComputed(t *testing.T) {
	r := &Request{config: RequestConfig{Meta: map[string]interface{}{"token": "abc"}}}

	v, ok := HeaderFunc(func(req *Request) string {
		return "Bearer " + req.Meta()["token"].(string)
	}).resolve(r)
	if !ok || v != "Bearer abc" {
		t.Errorf("Expected computed header, got %q ok=%v", v, ok)
	}
}

func TestHeaderValueComputedEmptyOmits(t *testing.T) {
	_, ok := HeaderFunc(func(*Request) string { return "" }).resolve(nil)
	if ok {
		t.Error("Expected empty computed value to omit the header")
	}
}

func TestParamValueResolution(t *testing.T) {
	if Param("123").resolve(nil) != "123" {
		t.Error("Expected literal param pass-through")
	}
	computed := ParamFunc(func(*Request) string { return "456" })
	if computed.resolve(nil) != "456" {
		t.Error("Expected computed param resolution")
	}
}

func TestIsJSONContentType(t *testing.T) {
	tests := []struct {
		ct   string
		want bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"Application/JSON", true},
		{"application/problem+json", true},
		{"application/vnd.api+json", true},
		{"text/json", false},
		{"text/plain", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isJSONContentType(tt.ct); got != tt.want {
			t.Errorf("isJSONContentType(%q) = %v, want %v", tt.ct, got, tt.want)
		}
	}
}

func TestIsTextContentType(t *testing.T) {
	tests := []struct {
		ct       string
		accepted []string
		want     bool
	}{
		{"text/plain", nil, true},
		{"text/html; charset=utf-8", nil, true},
		{"application/xml", nil, true},
		{"image/svg+xml", nil, true},
		{"application/octet-stream", nil, false},
		{"application/vnd.custom", []string{"application/vnd.custom"}, true},
		{"application/vnd.custom", nil, false},
	}

	for _, tt := range tests {
		if got := isTextContentType(tt.ct, tt.accepted); got != tt.want {
			t.Errorf("isTextContentType(%q, %v) = %v, want %v", tt.ct, tt.accepted, got, tt.want)
		}
	}
}

func TestInterceptorSetRemoval(t *testing.T) {
	set := newInterceptorSet()
	entries := set.add(
		func(*Request, *InterceptorControls) (interface{}, bool) { return nil, false },
		func(*Request, *InterceptorControls) (interface{}, bool) { return nil, false },
	)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	entries[0].remove()

	snapshot := set.snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("Expected 1 live entry after removal, got %d", len(snapshot))
	}
	if snapshot[0] != entries[1] {
		t.Error("Expected the surviving entry to be the second one")
	}
}

func TestInterceptorSetSkipsNil(t *testing.T) {
	set := newInterceptorSet(nil)
	if len(set.snapshot()) != 0 {
		t.Error("Expected nil interceptors to be skipped")
	}
}
