// Package source defines the error taxonomy shared by remote API clients.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// maxErrorBody is the number of response body bytes kept on an APIError.
const maxErrorBody = 512

// AuthError indicates that authentication has failed or the credentials
// lack permission. It is returned for 401 and 403 responses.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%d): %s", e.StatusCode, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// APIError is a non-2xx response other than an authentication failure.
type APIError struct {
	StatusCode int
	Method     string
	Path       string

	// Body holds at most the first 512 bytes of the response body.
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf(
		"unexpected status %d on %s %s: %s",
		e.StatusCode, e.Method, e.Path, e.Body,
	)
}

// NewAPIError builds an APIError, truncating body.
func NewAPIError(statusCode int, method, path string, body []byte) *APIError {
	b := strings.TrimSpace(string(body))
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody] + "..."
	}
	return &APIError{
		StatusCode: statusCode,
		Method:     method,
		Path:       path,
		Body:       b,
	}
}

// ErrorClass decides how the orchestrator reacts to a failed sync attempt.
type ErrorClass int

const (
	// ClassFatal aborts the entity's sync with no fallback.
	ClassFatal ErrorClass = iota

	// ClassRetryable allows one full-mode retry after an incremental attempt.
	ClassRetryable
)

func (c ErrorClass) String() string {
	switch c {
	case ClassRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}

// tooLargeMarkers are body fragments of responses rejecting the size of an
// incremental query.
var tooLargeMarkers = []string{
	"too large",
	"too long",
	"too many",
	"context limit",
}

// Classify maps an error onto the fallback policy. Rate limiting and
// request-size rejections are retryable; authentication, network, context
// and all other failures are fatal.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassFatal
	}

	if IsAuthError(err) {
		return ClassFatal
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassFatal
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusRequestEntityTooLarge,
			http.StatusRequestURITooLong:
			return ClassRetryable
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			body := strings.ToLower(apiErr.Body)
			for _, marker := range tooLargeMarkers {
				if strings.Contains(body, marker) {
					return ClassRetryable
				}
			}
		}
		return ClassFatal
	}

	// Network and decode errors are never attributable to the query shape.
	return ClassFatal
}

// IsRetryable reports whether err permits a full-mode fallback.
func IsRetryable(err error) bool {
	return Classify(err) == ClassRetryable
}
