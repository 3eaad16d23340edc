package fetch

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failed Get.
type Kind string

const (
	KindNone      Kind = ""
	KindTimeout   Kind = "timeout"
	KindHTTP      Kind = "http"
	KindTransport Kind = "transport"
)

// TimeoutError reports that the response did not arrive before the deadline.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout after %s: %s", e.Timeout, e.URL)
}

// HTTPError reports a non-success status code.
type HTTPError struct {
	URL    string
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.URL)
}

// TransportError reports a request that could not be completed.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or KindNone for nil and foreign errors.
func KindOf(err error) Kind {
	var (
		timeoutErr   *TimeoutError
		httpErr      *HTTPError
		transportErr *TransportError
	)
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &timeoutErr):
		return KindTimeout
	case errors.As(err, &httpErr):
		return KindHTTP
	case errors.As(err, &transportErr):
		return KindTransport
	default:
		return KindNone
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}
