package requestfactory

import (
	"errors"
	"fmt"
)

// Sentinel errors for configuration-level failures. These fail fast and are
// never retried.
var (
	// ErrRequestSpent is returned when Execute is called on a Request that
	// has already been executed.
	ErrRequestSpent = errors.New("requestfactory: request already executed")

	// ErrAPINotFound is returned when CreateAPIRequest references an
	// unregistered API name.
	ErrAPINotFound = errors.New("requestfactory: API not found")

	// ErrEndpointNotFound is returned when CreateAPIRequest references an
	// endpoint name the API does not declare.
	ErrEndpointNotFound = errors.New("requestfactory: endpoint not found")

	// ErrNoTransport is returned when a request is executed without a
	// transport configured.
	ErrNoTransport = errors.New("requestfactory: no transport configured")
)

// AbortedCode is the sentinel status code used when a request is cancelled
// client side (timeout or context cancellation). No real HTTP status exists
// for that case.
const AbortedCode = -1

// HTTPError is the structured error surfaced for non-2xx responses and for
// client-side aborts. Body carries the parsed response body when one was
// readable.
type HTTPError struct {
	Code    int
	Message string
	Body    interface{}
}

// NewHTTPError builds an HTTPError from a status code, status text and
// parsed body.
func NewHTTPError(code int, message string, body interface{}) *HTTPError {
	return &HTTPError{Code: code, Message: message, Body: body}
}

// newAbortedError builds the sentinel error used for timeout or
// cancellation of the in-flight transport call.
func newAbortedError() *HTTPError {
	return &HTTPError{Code: AbortedCode, Message: "Request aborted"}
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Code == AbortedCode {
		return fmt.Sprintf("requestfactory: %s", e.Message)
	}
	return fmt.Sprintf("requestfactory: HTTP %d %s", e.Code, e.Message)
}

// Is compares status codes so errors.Is works across instances.
func (e *HTTPError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*HTTPError); ok {
		return e.Code == targetErr.Code
	}
	return false
}

// IsUnauthorized reports whether the response status was 401.
func (e *HTTPError) IsUnauthorized() bool { return e != nil && e.Code == 401 }

// IsForbidden reports whether the response status was 403.
func (e *HTTPError) IsForbidden() bool { return e != nil && e.Code == 403 }

// IsNotFound reports whether the response status was 404.
func (e *HTTPError) IsNotFound() bool { return e != nil && e.Code == 404 }

// IsMethodNotAllowed reports whether the response status was 405.
func (e *HTTPError) IsMethodNotAllowed() bool { return e != nil && e.Code == 405 }

// IsConflict reports whether the response status was 409.
func (e *HTTPError) IsConflict() bool { return e != nil && e.Code == 409 }

// IsTooManyRequests reports whether the response status was 429.
func (e *HTTPError) IsTooManyRequests() bool { return e != nil && e.Code == 429 }

// IsInternalServerError reports whether the response status was 500.
func (e *HTTPError) IsInternalServerError() bool { return e != nil && e.Code == 500 }

// IsNotImplemented reports whether the response status was 501.
func (e *HTTPError) IsNotImplemented() bool { return e != nil && e.Code == 501 }

// IsTimedOut reports whether the response status was 504 (upstream gateway
// timeout). Client-side timeouts surface as IsAborted instead.
func (e *HTTPError) IsTimedOut() bool { return e != nil && e.Code == 504 }

// IsAborted reports whether the request was cancelled client side before a
// response arrived (timeout expiry or context cancellation).
func (e *HTTPError) IsAborted() bool { return e != nil && e.Code == AbortedCode }
