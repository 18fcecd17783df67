package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrOwnership is returned when a mutation targets a record that does not
// belong to the requesting user. It is always surfaced, never swallowed.
var ErrOwnership = errors.New("record not owned by requesting user")

// GatewayError reports a completion call that failed after exhausting retries.
// Callers are expected to have a fallback path; the raw failure keeps its
// context name and attempt count for logging.
type GatewayError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("completion call %q failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsRetryable classifies a completion-service failure. Rate limits, 5xx-class
// server errors, and transient network errors are retryable; bad input and
// auth failures are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 408 || apiErr.Code == 429 || (apiErr.Code >= 500 && apiErr.Code <= 599)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	// Transport errors from the client library often arrive as plain strings.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "resource exhausted"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "unavailable"),
		strings.Contains(msg, "internal error"):
		return true
	}
	return false
}
