package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

/* Sliding-window rate limiter shared by all ingress handlers.
 *
 * Two fixed-window counters per source (current and previous window) are
 * combined with the classic weighted approximation: the previous window's
 * count is scaled by how much of it still overlaps the sliding window.
 * The only mutation is an atomic INCR, so concurrent handlers never
 * serialize on anything wider than the counter itself. Rejected requests
 * are counted too: retries of a rejected burst must not look free.
 */

// Allow records one request for the source and checks it against the limit
func (r *Repository) Allow(ctx context.Context, sourceID string, limit int, window time.Duration) (bool, time.Duration, error) {
	if limit <= 0 || window <= 0 {
		return true, 0, nil
	}

	now := time.Now()
	windowStart := now.Truncate(window)
	curKey := rateLimitKey(sourceID, windowStart)
	prevKey := rateLimitKey(sourceID, windowStart.Add(-window))

	var incr *redis.IntCmd
	var prev *redis.StringCmd
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, curKey)
		// Counters only matter for the current and next window
		pipe.Expire(ctx, curKey, 2*window)
		prev = pipe.Get(ctx, prevKey)
		return nil
	})
	if err != nil && err != redis.Nil {
		return false, 0, fmt.Errorf("checking rate limit: %w", err)
	}

	current := incr.Val()
	previous := int64(0)
	if prev.Err() == nil {
		previous = parseInt64(prev.Val())
	}

	elapsed := now.Sub(windowStart)
	overlap := 1.0 - float64(elapsed)/float64(window)
	weighted := float64(previous)*overlap + float64(current)

	if weighted > float64(limit) {
		retryAfter := window - elapsed
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return false, retryAfter, nil
	}
	return true, 0, nil
}

func rateLimitKey(sourceID string, windowStart time.Time) string {
	return fmt.Sprintf("%s:%s:%d", rateLimitPrefix, sourceID, windowStart.Unix())
}
