// Package httperr maps HTTP failures from vendor SDKs onto the cellmate
// error categories.
package httperr

import (
	"net/http"
	"strconv"
	"time"

	ai "github.com/spetersoncode/cellmate"
)

// Categorize wraps cause in an *ai.Error whose category follows code.
// A positive retryAfter always yields a transient error.
func Categorize(msg string, code int, retryAfter time.Duration, cause error) error {
	if retryAfter > 0 {
		return ai.NewTransientErrorWithRetry(msg, code, retryAfter, cause)
	}
	switch Category(code) {
	case ai.ErrorTransient:
		return ai.NewTransientError(msg, code, cause)
	case ai.ErrorUserInput:
		return ai.NewUserInputError(msg, code, cause)
	default:
		return ai.NewPermanentError(msg, code, cause)
	}
}

// Category determines the error category from an HTTP status code.
func Category(code int) ai.ErrorCategory {
	switch {
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return ai.ErrorTransient
	case code >= 500 && code < 600:
		return ai.ErrorTransient
	case code == http.StatusBadRequest, code == http.StatusNotFound, code == http.StatusUnprocessableEntity, code == http.StatusRequestEntityTooLarge:
		return ai.ErrorUserInput
	default:
		return ai.ErrorPermanent
	}
}

// RetryAfter reads the Retry-After header of resp. It returns 0 if the
// header is missing or unparseable.
func RetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}
	return 0
}
