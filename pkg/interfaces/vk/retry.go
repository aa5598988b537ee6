package vk

import (
	"math/rand"
	"time"
)

// retryDelay computes the exponential backoff delay for the given
// attempt (1-based), with up to 25% random jitter added so concurrent
// retries do not land on the API in lockstep.
func retryDelay(base time.Duration, attempt int) time.Duration {
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	return delay + jitter
}
