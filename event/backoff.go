package event

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	// backoffBase is the delay before the first retry
	backoffBase = 1 * time.Second

	// backoffCap bounds the exponential growth (1s, 2s, 4s, 8s, 16s, 16s...)
	backoffCap = 16 * time.Second

	// backoffJitter is the maximum jitter fraction added on top of the
	// interval. Spreads out retry storms when many events fail together.
	backoffJitter = 0.20
)

// Backoff returns the retry delay after the given failed attempt (1-based).
// The delay doubles per attempt up to the cap, plus up to 20% random jitter,
// so successive delays are non-decreasing in their base interval.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := float64(backoffBase) * math.Pow(2, float64(attempt-1))
	if base > float64(backoffCap) {
		base = float64(backoffCap)
	}
	jitter := base * backoffJitter * rand.Float64()
	return time.Duration(base + jitter)
}
