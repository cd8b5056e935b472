package metrics

import (
	"context"
	"fmt"
	"time"

	eventredis "github.com/pulseboard/eventpipe/event/redis"
)

// RedisCollector implements the Collector interface over the Redis-backed
// queue repository's read-side counters
type RedisCollector struct {
	repo *eventredis.Repository
}

// NewRedisCollector creates a new Redis metrics collector
func NewRedisCollector(repo *eventredis.Repository) *RedisCollector {
	return &RedisCollector{repo: repo}
}

// Collect gathers all metrics from Redis
func (c *RedisCollector) Collect(ctx context.Context) (Metrics, error) {
	queueDepth, err := c.GetQueueDepth(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting queue depth: %w", err)
	}

	queueDepths, err := c.GetQueueDepths(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting per-source queue depths: %w", err)
	}

	statusCounts, err := c.GetStatusCounts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting status counts: %w", err)
	}

	dueNow, err := c.repo.DueNow(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting due count: %w", err)
	}

	deadLetters, err := c.GetDeadLetterCount(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting dead letter count: %w", err)
	}

	ackedTotal, err := c.repo.AckedTotal(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting acked total: %w", err)
	}

	throughput, err := c.GetThroughput(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting throughput: %w", err)
	}

	workers, err := c.GetActiveWorkers(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting active workers: %w", err)
	}

	return Metrics{
		QueueDepth:   queueDepth,
		QueueDepths:  queueDepths,
		StatusCounts: statusCounts,
		DueNow:       dueNow,
		DeadLetters:  deadLetters,
		AckedTotal:   ackedTotal,
		Throughput:   throughput,
		Workers:      workers,
		Timestamp:    time.Now(),
	}, nil
}

// GetQueueDepth returns the size of the active event set
func (c *RedisCollector) GetQueueDepth(ctx context.Context) (int64, error) {
	return c.repo.QueueDepth(ctx)
}

// GetQueueDepths returns the number of active events for each source
func (c *RedisCollector) GetQueueDepths(ctx context.Context) (map[string]int64, error) {
	return c.repo.QueueDepths(ctx)
}

// GetStatusCounts returns event counts grouped by lifecycle status
func (c *RedisCollector) GetStatusCounts(ctx context.Context) (map[string]int64, error) {
	return c.repo.StatusCounts(ctx)
}

// GetDeadLetterCount returns the number of dead-lettered events
func (c *RedisCollector) GetDeadLetterCount(ctx context.Context) (int64, error) {
	return c.repo.DeadLetterCount(ctx)
}

// GetThroughput returns events applied over the standard time windows
func (c *RedisCollector) GetThroughput(ctx context.Context) (ThroughputMetrics, error) {
	var t ThroughputMetrics
	var err error

	if t.LastMinute, err = c.repo.DeliveredSince(ctx, 1); err != nil {
		return ThroughputMetrics{}, err
	}
	if t.LastFiveMinutes, err = c.repo.DeliveredSince(ctx, 5); err != nil {
		return ThroughputMetrics{}, err
	}
	if t.LastFifteenMinutes, err = c.repo.DeliveredSince(ctx, 15); err != nil {
		return ThroughputMetrics{}, err
	}
	return t, nil
}

// GetActiveWorkers returns dispatcher workers with a live heartbeat
func (c *RedisCollector) GetActiveWorkers(ctx context.Context) ([]WorkerInfo, error) {
	heartbeats, err := c.repo.GetActiveWorkers(ctx)
	if err != nil {
		return nil, err
	}

	workers := make([]WorkerInfo, 0, len(heartbeats))
	for _, hb := range heartbeats {
		workers = append(workers, WorkerInfo{
			WorkerID:      hb.WorkerID,
			Status:        hb.Status,
			LastHeartbeat: hb.LastHeartbeat,
		})
	}
	return workers, nil
}

var _ Collector = (*RedisCollector)(nil)
