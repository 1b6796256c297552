package ingest

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrThrottled rejects a single-guide ingestion that exceeds the
// embedding-provider budget.
type ErrThrottled struct {
	Scope string
}

func (e *ErrThrottled) Error() string {
	return fmt.Sprintf("ingestion throttled (%s limit)", e.Scope)
}

// Throttle protects the embedding provider on the direct single-guide
// path: a global budget of 2 ingestions per minute, and at most one
// ingestion per 4 hours for any distinct source id.
type Throttle struct {
	global *rate.Limiter

	mu        sync.Mutex
	perSource map[string]*rate.Limiter
	sourceLim rate.Limit
}

func NewThrottle() *Throttle {
	return &Throttle{
		global:    rate.NewLimiter(rate.Every(time.Minute/2), 2),
		perSource: make(map[string]*rate.Limiter),
		sourceLim: rate.Every(4 * time.Hour),
	}
}

// Allow reports whether an ingestion for sourceID may proceed now. The
// per-source token is only consumed once the global budget admits the
// request.
func (t *Throttle) Allow(sourceID string) error {
	limiter := t.sourceLimiter(sourceID)

	t.mu.Lock()
	defer t.mu.Unlock()
	if limiter.Tokens() < 1 {
		return &ErrThrottled{Scope: "per-source"}
	}
	if !t.global.Allow() {
		return &ErrThrottled{Scope: "global"}
	}
	limiter.Allow()
	return nil
}

func (t *Throttle) sourceLimiter(sourceID string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	limiter, ok := t.perSource[sourceID]
	if !ok {
		limiter = rate.NewLimiter(t.sourceLim, 1)
		t.perSource[sourceID] = limiter
	}
	return limiter
}
