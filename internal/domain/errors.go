package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrUnsupportedURL indicates no registered handler recognizes the URL
	ErrUnsupportedURL = errors.New("no handler found for URL")

	// ErrExtractionFailed indicates a handler recognized the URL but could
	// not produce a citation
	ErrExtractionFailed = errors.New("failed to extract BibTeX")

	// ErrNoResult is the internal no-result sentinel returned by handlers;
	// the converter facade maps it to ErrExtractionFailed
	ErrNoResult = errors.New("no result")

	// ErrRateLimited indicates rate limiting was encountered
	ErrRateLimited = errors.New("rate limited")

	// ErrForbidden indicates the request was rejected, likely by anti-bot
	// protection
	ErrForbidden = errors.New("request forbidden")

	// ErrTimeout indicates a timeout occurred
	ErrTimeout = errors.New("timeout")

	// ErrInvalidURL indicates an invalid URL was provided
	ErrInvalidURL = errors.New("invalid URL")
)

// FetchError represents an error during fetching
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError
func NewFetchError(url string, statusCode int, err error) *FetchError {
	return &FetchError{
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// RetryableError indicates an error that can be retried
type RetryableError struct {
	Err        error
	RetryAfter int // Seconds to wait before retry, 0 if unknown
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("retryable error (retry after %ds): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("retryable error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		switch fetchErr.StatusCode {
		case 403, 429, 502, 503, 504:
			return true
		}
		// Cloudflare errors
		if fetchErr.StatusCode >= 520 && fetchErr.StatusCode <= 530 {
			return true
		}
		if fetchErr.StatusCode == 0 {
			// Transport-level failure
			return true
		}
	}

	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrTimeout)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not a
// fetch error or carries no status.
func StatusCode(err error) int {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode
	}
	return 0
}

// HandlerError represents a failure inside a specific handler
type HandlerError struct {
	Handler string
	URL     string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s failed for %s: %v", e.Handler, e.URL, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// NewHandlerError creates a new HandlerError
func NewHandlerError(handler, url string, err error) *HandlerError {
	return &HandlerError{
		Handler: handler,
		URL:     url,
		Err:     err,
	}
}
