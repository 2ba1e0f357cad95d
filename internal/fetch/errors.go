package fetch

import (
	"context"
	"errors"
	"fmt"
)

// ErrAborted marks a request that was cancelled by its caller. Aborted
// requests are internal bookkeeping, never a failure: callers treat them as
// "no result" and must not surface them as error state.
var ErrAborted = errors.New("request aborted")

// HTTPError is a non-2xx response after retries were exhausted. Message
// carries the server's error envelope text when one was present, otherwise
// the standard status text.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// IsAborted reports whether err represents a cancelled request rather than a
// real failure.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
