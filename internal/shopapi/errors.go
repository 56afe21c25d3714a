package shopapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrRequestFailed matches every error returned by Client requests.
var ErrRequestFailed = errors.New("request failed")

type ErrorKind string

const (
	// KindConnectivity means no response was received.
	KindConnectivity ErrorKind = "connectivity"
	// KindStatus means the backend answered with a non-2xx status.
	KindStatus ErrorKind = "status"
	// KindInvalidResponse means a 2xx body could not be decoded.
	KindInvalidResponse ErrorKind = "invalid_response"
	// KindCanceled means the caller's context ended before a response.
	KindCanceled ErrorKind = "canceled"
	// KindInvalidRequest means the request could not be built.
	KindInvalidRequest ErrorKind = "invalid_request"
)

// RequestError carries the human-readable message shown to the operator.
type RequestError struct {
	Method     string
	Path       string
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

// IsOutage reports whether err means the backend itself is unhealthy:
// unreachable or answering 5xx. Client mistakes (4xx) are not outages.
func IsOutage(err error) bool {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return err != nil && !IsCanceled(err)
	}
	switch reqErr.Kind {
	case KindConnectivity:
		return true
	case KindStatus:
		return reqErr.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}

// IsCanceled reports whether err came from the caller giving up rather
// than from the backend.
func IsCanceled(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Kind == KindCanceled
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

func statusFallback(code int) string {
	return fmt.Sprintf("HTTP error! status: %d", code)
}
