// Package resilience provides the retry policy shared by both pipelines
// and the error classification it keys off: rate limiting is the only
// retryable condition, transport and protocol failures abort the item.
package resilience

import "errors"

// RateLimitError wraps an error caused by upstream rate limiting (HTTP 429
// or equivalent). It is the only error class the default retry policy
// retries.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string {
	return "rate limited: " + e.Err.Error()
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// RateLimited wraps err as a RateLimitError.
func RateLimited(err error) *RateLimitError {
	return &RateLimitError{Err: err}
}

// IsRateLimited reports whether any error in the chain is a RateLimitError.
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}
