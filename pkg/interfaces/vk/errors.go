package vk

import (
	"errors"
	"fmt"
	"net"
)

// VK error codes that matter to the pipeline.
const (
	errCodeTooManyRequests = 6
	errCodeRateLimit       = 29
)

// ErrRateLimited is returned when the API explicitly reports a
// rate-limit condition. It is never retried inside the client; the
// caller's shared limiter is the place to slow down.
var ErrRateLimited = errors.New("vk api rate limit reached")

// APIError is a non-2xx or error-envelope response from the VK API.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vk api error: code=%d message=%s", e.Code, e.Message)
}

// apiErrorPayload mirrors the VK error envelope wire shape.
type apiErrorPayload struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (p *apiErrorPayload) toError() error {
	if p.Code == errCodeTooManyRequests || p.Code == errCodeRateLimit {
		return fmt.Errorf("%w: %s", ErrRateLimited, p.Message)
	}
	return &APIError{Code: p.Code, Message: p.Message}
}

// isRetryable reports whether an error is worth a bounded in-client
// retry: transport-level flakiness only. Rate-limit signals and API
// errors must propagate to the caller untouched.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
