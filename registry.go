package requestfactory

import (
	"fmt"
	"strings"
	"sync"
)

// Endpoint is one named operation of an API. Target is a path, an absolute
// URL, or a template containing {{param}} placeholders. Method defaults to
// GET.
type Endpoint struct {
	Target string
	Method string
	Meta   map[string]interface{}
}

// APIConfig declares a group of related endpoints sharing a base URL,
// headers, query params and metadata. It is immutable once registered.
//
// BaseURLFunc, when set, takes precedence over BaseURL and is invoked with
// the endpoint being resolved, supporting config-driven URL construction.
type APIConfig struct {
	Name                     string
	BaseURL                  string
	BaseURLFunc              func(*Endpoint) string
	Meta                     map[string]interface{}
	Headers                  map[string]HeaderValue
	QueryParams              map[string]string
	ResponseBodyTransformers []BodyTransformer
	RequestInterceptors      []RequestInterceptor
	ErrorInterceptors        []ErrorInterceptor
	Endpoints                map[string]*Endpoint
}

// registeredAPI is the live, registered form of an APIConfig. The request
// interceptor set is shared by every request created for this API so
// DeleteInterceptor removals persist.
type registeredAPI struct {
	config       APIConfig
	interceptors *interceptorSet
}

// baseURL resolves the API base for an endpoint.
func (a *registeredAPI) baseURL(ep *Endpoint) string {
	if a.config.BaseURLFunc != nil {
		return a.config.BaseURLFunc(ep)
	}
	return a.config.BaseURL
}

// Registry is the in-memory mapping of API name to definition. The last
// registration for a given name wins; definitions are never merged.
type Registry struct {
	mu   sync.RWMutex
	apis map[string]*registeredAPI
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{apis: make(map[string]*registeredAPI)}
}

// Register stores an API definition by name, overwriting any previous
// registration. A name is required; endpoints are not validated up front —
// a missing endpoints map surfaces as a lookup failure later.
func (r *Registry) Register(api APIConfig) error {
	if api.Name == "" {
		return fmt.Errorf("requestfactory: API config requires a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.apis[api.Name] = &registeredAPI{
		config:       api,
		interceptors: newInterceptorSet(api.RequestInterceptors...),
	}
	return nil
}

// lookup fetches a registered API by name.
func (r *Registry) lookup(name string) (*registeredAPI, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	api, ok := r.apis[name]
	return api, ok
}

// Lookup returns the registered definition for name.
func (r *Registry) Lookup(name string) (APIConfig, bool) {
	api, ok := r.lookup(name)
	if !ok {
		return APIConfig{}, false
	}
	return api.config, true
}

// resolveEndpointURL computes the URL for an endpoint of an API. Absolute
// http(s):// and protocol-relative // targets are returned unchanged and
// the base URL is ignored. Otherwise the base and target are concatenated
// verbatim; duplicate slashes are the caller's responsibility.
func resolveEndpointURL(ep *Endpoint, api *registeredAPI) string {
	target := ep.Target
	if isAbsoluteURL(target) {
		return target
	}
	return api.baseURL(ep) + target
}

func isAbsoluteURL(target string) bool {
	return strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, "//")
}
