package ingest

import (
	"errors"
	"math/rand/v2"
	"time"
)

const MaxRetries = 3

// transient is implemented by the error types whose failures are worth
// retrying (provider throttling, index outages, 5xx fetches).
type transient interface {
	Transient() bool
}

// IsRetryable checks if an error is worth retrying. Auth and not-found
// errors never are.
func IsRetryable(err error) bool {
	var t transient
	if errors.As(err, &t) {
		return t.Transient()
	}
	return false
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}
