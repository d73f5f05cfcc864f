package espn

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for upstream failures. Callers classify with errors.Is.
var (
	ErrTimeout     = errors.New("espn: request timed out")
	ErrNotFound    = errors.New("espn: resource not found")
	ErrRateLimited = errors.New("espn: rate limited")
	ErrMalformed   = errors.New("espn: malformed response")
)

// StatusError reports a non-200 response from the ESPN API.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("espn: unexpected status %d from %s", e.StatusCode, e.URL)
}

// Unwrap maps 404 and 429 onto their sentinel errors.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

// Retryable reports whether another attempt could succeed. Only server
// errors qualify; 4xx responses fail immediately.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500
}
