package api

import (
	"errors"
	"fmt"
	nethttp "net/http"
)

// ErrTokenNotFound is returned when a page carries no csrf-token meta tag,
// usually because the session cookie is missing or expired.
var ErrTokenNotFound = errors.New("csrf token not found on page")

// ErrRecordNotFound is returned when a record response lacks the platform's
// record key.
var ErrRecordNotFound = errors.New("record missing from response")

// StatusError is returned for any non-200 response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// IsAuthError reports whether err is a 401/403 response, i.e. the session or
// security token was rejected.
func IsAuthError(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == nethttp.StatusUnauthorized || se.StatusCode == nethttp.StatusForbidden
}
