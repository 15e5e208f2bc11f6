package services

import (
	"math/rand"
	"time"
)

const (
	backoffBase      = 30 * time.Second
	backoffCap       = 6 * time.Hour
	backoffJitterMax = 5 * time.Second
)

// backoffDelay returns the wait before the next retry after the given
// attempt number: exponential from a 30s base, clamped at 6h, plus up to 5s
// of jitter so a batch of simultaneously-due records does not retry in
// lockstep. Deterministic modulo the jitter.
func backoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := backoffBase
	for i := 1; i < attempt && delay < backoffCap; i++ {
		delay *= 2
	}
	if delay > backoffCap {
		delay = backoffCap
	}

	return delay + time.Duration(rand.Int63n(int64(backoffJitterMax)))
}
