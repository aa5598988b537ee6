package worker

import (
	"math/rand"
	"time"
)

// BackoffPolicy is the named job-level retry policy: how long to wait
// before redelivering a failed collection job. It is deliberately
// distinct from the VK client's narrower network-flakiness retry.
type BackoffPolicy struct {
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
	MaxAttempts int
	// JitterFraction adds up to ±fraction of the delay so redeliveries
	// of concurrently failed jobs spread out
	JitterFraction float64
}

// DefaultBackoffPolicy returns the policy used for collection jobs.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		BaseDelay:      30 * time.Second,
		Multiplier:     2.0,
		MaxDelay:       5 * time.Minute,
		MaxAttempts:    3,
		JitterFraction: 0.2,
	}
}

// Delay computes the redelivery delay for the given attempt (1-based).
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		delay *= p.Multiplier
	}
	if max := float64(p.MaxDelay); delay > max {
		delay = max
	}

	if p.JitterFraction > 0 {
		jitter := delay * p.JitterFraction
		delay += (rand.Float64()*2 - 1) * jitter
	}
	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// Exhausted reports whether a job that has already been attempted the
// given number of times is out of retries.
func (p BackoffPolicy) Exhausted(attempts int) bool {
	return attempts >= p.MaxAttempts
}
