// Package retry holds the bounded exponential backoff shared by the message
// pipelines and the dispatch path.
package retry

import (
	"context"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
)

const (
	// DefaultInitial is the first backoff delay.
	DefaultInitial = 200 * time.Millisecond
	// DefaultMax caps the backoff delay.
	DefaultMax = 5 * time.Second
)

// Policy is a bounded exponential backoff. Attempts counts the first call.
type Policy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// NewPolicy returns a policy starting at 200ms, doubling, capped at 5s.
func NewPolicy(attempts int) Policy {
	if attempts < 1 {
		attempts = 1
	}
	return Policy{Attempts: attempts, Initial: DefaultInitial, Max: DefaultMax}
}

// Do calls fn until it succeeds, the attempts are spent or ctx is done. It
// returns the last error from fn, or the context error if ctx ended first.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	backoff := p.Initial
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= p.Attempts {
			return err
		}
		if !sharedretry.SleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = sharedretry.NextBackoff(backoff, p.Max)
	}
}
