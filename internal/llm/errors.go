package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrRateLimit indicates the backend returned 429.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrUnavailable indicates the backend is overloaded or unreachable.
type ErrUnavailable struct {
	Err error
}

func (e *ErrUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service unavailable: %v", e.Err)
	}
	return "service unavailable"
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }

// ErrStatus is any other non-2xx answer. It is not retried.
type ErrStatus struct {
	Code int
	Body string
}

func (e *ErrStatus) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// IsTransient reports whether err is worth retrying: rate limits, overload
// and network failures are. Anything else, including cancellations, bad
// requests and undecodable answers, is permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rateLimit *ErrRateLimit
	var unavailable *ErrUnavailable
	var netErr net.Error
	return errors.As(err, &rateLimit) || errors.As(err, &unavailable) || errors.As(err, &netErr)
}

// ErrDecode indicates a response body that could not be decoded.
type ErrDecode struct {
	Err error
}

func (e *ErrDecode) Error() string { return fmt.Sprintf("decoding response: %v", e.Err) }

func (e *ErrDecode) Unwrap() error { return e.Err }
