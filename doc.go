// Package requestfactory provides a declarative HTTP request-building and
// execution layer over an injected fetch-like transport:
//
//   - Named API definitions (base URL, shared headers / query params / meta,
//     named endpoints with {{param}} path templates)
//   - A factory that accumulates reusable request defaults, including
//     conditional defaults evaluated per request (When / Always)
//   - One-shot Request objects with chainable configuration
//     (headers, query / URL params, bodies, timeout, credentials policy)
//   - Request / response / error interceptor chains with short-circuiting
//     and self-removal
//   - Content-type driven response parsing and chained body transformers
//   - Structured HTTP errors with classification predicates and a -1
//     sentinel code for client-side aborts
//   - Prometheus metrics and lightweight structured leveled logging
//
// Design goals:
//   - Small surface area – a factory plus chainable request builders
//   - Every Request is single use and independent; safe concurrent execution
//     of many requests from one factory
//   - Extensibility via injected Transport, Logger and MetricsCollector
//
// Typical usage:
//
//	factory := requestfactory.New().
//	    WithAPIConfig(requestfactory.APIConfig{
//	        Name:    "catalog",
//	        BaseURL: "https://api.example.com/v1",
//	        Endpoints: map[string]*requestfactory.Endpoint{
//	            "product": {Target: "/product/{{id}}"},
//	        },
//	    })
//
//	req, err := factory.CreateAPIRequest("catalog", "product")
//	if err != nil {
//	    // unknown API or endpoint
//	}
//	body, err := req.WithURLParam("id", requestfactory.Param("123")).Execute(ctx)
//
// Retry policies, caching and deduplication are deliberately out of scope;
// layer them on top via interceptors or a custom Transport if needed.
package requestfactory
