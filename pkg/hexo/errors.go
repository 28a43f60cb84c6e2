package hexo

import (
	"errors"
	"fmt"
	"net/http"
)

// Lookup and sequence errors.
var (
	ErrUnknownResource   = errors.New("unknown resource")
	ErrAttributeNotFound = errors.New("attribute not found")
	ErrEndOfSequence     = errors.New("list is already at the end")
	ErrStartOfSequence   = errors.New("list is already at the beginning")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrMissingURI        = errors.New("instance has no resource_uri")
	ErrUnexpectedBody    = errors.New("response body is not a JSON object")
	ErrTrailingData      = errors.New("trailing data after JSON value")
)

// ErrMethodNotAllowed is the client-side pre-flight rejection. It is never
// produced by a server response; see ErrServerMethodNotAllowed for that.
var ErrMethodNotAllowed = errors.New("method not allowed")

// HTTP error family. Every *HTTPError matches ErrHTTP plus its own kind.
var (
	ErrHTTP                   = errors.New("http error")
	ErrBadRequest             = errors.New("bad request")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrNotFound               = errors.New("not found")
	ErrServerMethodNotAllowed = errors.New("method not allowed by server")
	ErrInternalServerError    = errors.New("internal server error")
	ErrNotImplemented         = errors.New("not implemented")
)

// MethodNotAllowedError reports an operation the resource descriptor does
// not permit. No request was sent.
type MethodNotAllowedError struct {
	Method   string
	Resource string
	Access   AccessType
}

// Error implements the error interface.
func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("%s method is not allowed on a %s %s", e.Method, e.Resource, e.Access)
}

// Unwrap lets errors.Is match ErrMethodNotAllowed.
func (e *MethodNotAllowedError) Unwrap() error {
	return ErrMethodNotAllowed
}

// HTTPError is returned for every response with a status of 400 or above.
type HTTPError struct {
	Kind     error
	Response *Response
}

// NewHTTPError classifies resp by status code.
func NewHTTPError(resp *Response) *HTTPError {
	return &HTTPError{Kind: kindForStatus(resp.StatusCode), Response: resp}
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusMethodNotAllowed:
		return ErrServerMethodNotAllowed
	case http.StatusInternalServerError:
		return ErrInternalServerError
	case http.StatusNotImplemented:
		return ErrNotImplemented
	default:
		return ErrHTTP
	}
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Response == nil {
		return e.Kind.Error()
	}

	return fmt.Sprintf("%s: %d %s %s", e.Kind, e.Response.StatusCode, e.Response.Method, e.Response.URL)
}

// Unwrap exposes the kind and the family sentinel to errors.Is.
func (e *HTTPError) Unwrap() []error {
	if errors.Is(e.Kind, ErrHTTP) {
		return []error{e.Kind}
	}

	return []error{e.Kind, ErrHTTP}
}

// StatusCode returns the response status, or 0 when no response is attached.
func (e *HTTPError) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// IsNotFound checks if the error is a 404 from the server.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized checks if the error is a 401 from the server.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsForbidden checks if the error is a 403 from the server.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsClientMethodNotAllowed reports whether err is a pre-flight rejection
// rather than a server response.
func IsClientMethodNotAllowed(err error) bool {
	return errors.Is(err, ErrMethodNotAllowed)
}

// ResponseFromError returns the envelope attached to an HTTP error.
func ResponseFromError(err error) (*Response, bool) {
	httpErr := &HTTPError{}
	if errors.As(err, &httpErr) && httpErr.Response != nil {
		return httpErr.Response, true
	}

	return nil, false
}
