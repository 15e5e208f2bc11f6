package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelayGrowth(t *testing.T) {
	cases := []struct {
		attempt int
		base    time.Duration
	}{
		{1, 30 * time.Second},
		{2, 1 * time.Minute},
		{3, 2 * time.Minute},
		{4, 4 * time.Minute},
		{5, 8 * time.Minute},
		{10, 4 * time.Hour},
	}

	for _, tc := range cases {
		delay := backoffDelay(tc.attempt)
		assert.GreaterOrEqual(t, delay, tc.base, "attempt %d", tc.attempt)
		assert.Less(t, delay, tc.base+backoffJitterMax, "attempt %d", tc.attempt)
	}
}

func TestBackoffDelayCap(t *testing.T) {
	for _, attempt := range []int{11, 20, 100} {
		delay := backoffDelay(attempt)
		assert.GreaterOrEqual(t, delay, backoffCap, "attempt %d", attempt)
		assert.Less(t, delay, backoffCap+backoffJitterMax, "attempt %d", attempt)
	}
}

func TestBackoffDelayClampsBadAttempt(t *testing.T) {
	delay := backoffDelay(0)
	assert.GreaterOrEqual(t, delay, backoffBase)
	assert.Less(t, delay, backoffBase+backoffJitterMax)

	delay = backoffDelay(-3)
	assert.GreaterOrEqual(t, delay, backoffBase)
	assert.Less(t, delay, backoffBase+backoffJitterMax)
}
