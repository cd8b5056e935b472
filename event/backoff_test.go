package event_test

import (
	"testing"
	"time"

	"github.com/pulseboard/eventpipe/event"
	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	t.Run("doubles per attempt up to the cap", func(t *testing.T) {
		cases := []struct {
			attempt int
			base    time.Duration
		}{
			{1, 1 * time.Second},
			{2, 2 * time.Second},
			{3, 4 * time.Second},
			{4, 8 * time.Second},
			{5, 16 * time.Second},
			{6, 16 * time.Second},
			{10, 16 * time.Second},
		}

		for _, tc := range cases {
			d := event.Backoff(tc.attempt)
			assert.GreaterOrEqual(t, d, tc.base, "attempt %d", tc.attempt)
			// Jitter adds at most 20% on top of the base interval
			assert.LessOrEqual(t, d, tc.base+tc.base/5, "attempt %d", tc.attempt)
		}
	})

	t.Run("base intervals are non-decreasing", func(t *testing.T) {
		// Strip the jitter bound: the minimum possible delay for attempt
		// n+1 is always >= the minimum for attempt n
		prev := time.Duration(0)
		for attempt := 1; attempt <= 8; attempt++ {
			// Sample a few times; the floor never dips below the base
			min := event.Backoff(attempt)
			for i := 0; i < 20; i++ {
				if d := event.Backoff(attempt); d < min {
					min = d
				}
			}
			assert.GreaterOrEqual(t, min, prev)
			prev = min
		}
	})

	t.Run("attempt below one is clamped", func(t *testing.T) {
		d := event.Backoff(0)
		assert.GreaterOrEqual(t, d, 1*time.Second)
		assert.LessOrEqual(t, d, 1200*time.Millisecond)
	})
}
