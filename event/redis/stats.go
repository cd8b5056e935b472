package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pulseboard/eventpipe/event"
	"github.com/redis/go-redis/v9"
)

/* Read-side counters for the metrics collector. These are approximations
 * by design: the active set includes leased events, and throughput comes
 * from per-minute delivery buckets with a short TTL.
 */

// QueueDepth returns the number of events in the active set (queued or leased)
func (r *Repository) QueueDepth(ctx context.Context) (int64, error) {
	n, err := r.client.ZCard(ctx, readyKey).Result()
	if err != nil {
		return 0, fmt.Errorf("counting queue depth: %w", err)
	}
	return n, nil
}

// DueNow returns the number of events leasable at this moment
func (r *Repository) DueNow(ctx context.Context) (int64, error) {
	n, err := r.client.ZCount(ctx, readyKey, "-inf", fmt.Sprintf("%d", time.Now().UnixMilli())).Result()
	if err != nil {
		return 0, fmt.Errorf("counting due events: %w", err)
	}
	return n, nil
}

// DeadLetterCount returns the number of dead-lettered events
func (r *Repository) DeadLetterCount(ctx context.Context) (int64, error) {
	n, err := r.client.ZCard(ctx, deadLetterKey).Result()
	if err != nil {
		return 0, fmt.Errorf("counting dead letters: %w", err)
	}
	return n, nil
}

// eventMeta is the per-event slice of fields the breakdown counters read
type eventMeta struct {
	sourceID string
	status   string
}

// scanEventMeta walks every event hash and reads its source and status.
// A full scan, acceptable at the cadence metrics are pulled.
func (r *Repository) scanEventMeta(ctx context.Context) ([]eventMeta, error) {
	var metas []eventMeta
	var cursor uint64

	for {
		keys, next, err := r.client.Scan(ctx, cursor, eventPrefix+":*", 1000).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning event keys: %w", err)
		}

		pipe := r.client.Pipeline()
		cmds := make([]*redis.SliceCmd, 0, len(keys))
		for _, key := range keys {
			// The queue sets and counters share the events: prefix
			if strings.HasPrefix(key, "events:") {
				continue
			}
			cmds = append(cmds, pipe.HMGet(ctx, key, "source_id", "status"))
		}
		if len(cmds) > 0 {
			if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
				return nil, fmt.Errorf("reading event fields: %w", err)
			}
		}

		for _, cmd := range cmds {
			fields, err := cmd.Result()
			if err != nil || len(fields) < 2 {
				continue
			}
			sourceID, _ := fields[0].(string)
			status, _ := fields[1].(string)
			if status == "" {
				continue
			}
			metas = append(metas, eventMeta{sourceID: sourceID, status: status})
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return metas, nil
}

// QueueDepths returns active (queued or leased) event counts per source
func (r *Repository) QueueDepths(ctx context.Context) (map[string]int64, error) {
	metas, err := r.scanEventMeta(ctx)
	if err != nil {
		return nil, err
	}

	depths := make(map[string]int64)
	for _, m := range metas {
		if m.status != event.Queued.String() && m.status != event.Leased.String() {
			continue
		}
		depths[m.sourceID]++
	}
	return depths, nil
}

// StatusCounts returns how many events sit in each lifecycle status
func (r *Repository) StatusCounts(ctx context.Context) (map[string]int64, error) {
	metas, err := r.scanEventMeta(ctx)
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{
		event.Queued.String():       0,
		event.Leased.String():       0,
		event.Acked.String():        0,
		event.DeadLettered.String(): 0,
	}
	for _, m := range metas {
		if _, known := counts[m.status]; known {
			counts[m.status]++
		}
	}
	return counts, nil
}

// AckedTotal returns the number of events acknowledged since startup
func (r *Repository) AckedTotal(ctx context.Context) (int64, error) {
	n, err := r.client.Get(ctx, ackedTotalKey).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("getting acked total: %w", err)
	}
	return parseInt64(n), nil
}

// DeliveredSince sums the per-minute delivery buckets covering the last
// given number of minutes
func (r *Repository) DeliveredSince(ctx context.Context, minutes int) (int64, error) {
	now := time.Now()
	keys := make([]string, 0, minutes)
	for i := 0; i < minutes; i++ {
		keys = append(keys, ackedBucketKey(now.Add(-time.Duration(i)*time.Minute)))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("getting delivery buckets: %w", err)
	}

	var total int64
	for _, v := range values {
		if s, ok := v.(string); ok {
			total += parseInt64(s)
		}
	}
	return total, nil
}
