//go:build integration

package metrics_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pulseboard/eventpipe/event"
	eventredis "github.com/pulseboard/eventpipe/event/redis"
	"github.com/pulseboard/eventpipe/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupCollector(t *testing.T, ctx context.Context) (*metrics.RedisCollector, *eventredis.Repository, func()) {
	t.Helper()

	redisContainer, err := testcontainersredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "failed to start Redis container")

	addr, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)
	if len(addr) > 8 && addr[:8] == "redis://" {
		addr = addr[8:]
	}
	time.Sleep(1 * time.Second)

	repo, err := eventredis.NewRepository(addr, "", 0, 3, time.Hour)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close(ctx)
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	}
	return metrics.NewRedisCollector(repo), repo, cleanup
}

func sourceEvent(sourceID string, n int) event.CanonicalEvent {
	now := time.Now().UTC()
	return event.CanonicalEvent{
		ID:          fmt.Sprintf("%s-event-%d", sourceID, n),
		ExternalID:  fmt.Sprintf("%s-ext-%d", sourceID, n),
		SourceID:    sourceID,
		ProjectID:   "proj-1",
		Kind:        event.TaskStarted,
		OccurredAt:  now,
		ReceivedAt:  now,
		Payload:     []byte(`{"event_type": "task_started", "task_id": "task-9"}`),
		Status:      event.Queued,
		AvailableAt: now,
	}
}

func TestRedisCollector_Integration(t *testing.T) {
	ctx := context.Background()
	collector, repo, cleanup := setupCollector(t, ctx)
	defer cleanup()

	// Two sources with active events, one ack, one dead letter
	require.NoError(t, repo.Enqueue(ctx, sourceEvent("agent-1", 1)))
	require.NoError(t, repo.Enqueue(ctx, sourceEvent("agent-1", 2)))
	require.NoError(t, repo.Enqueue(ctx, sourceEvent("github-main", 1)))

	acked := sourceEvent("agent-1", 3)
	require.NoError(t, repo.Enqueue(ctx, acked))
	require.NoError(t, repo.Ack(ctx, acked.ID))

	dead := sourceEvent("github-main", 2)
	require.NoError(t, repo.Enqueue(ctx, dead))
	require.NoError(t, repo.Fail(ctx, dead.ID, &event.PermanentError{Reason: "broken"}))

	t.Run("per-source queue depths count only active events", func(t *testing.T) {
		depths, err := collector.GetQueueDepths(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(2), depths["agent-1"])
		assert.Equal(t, int64(1), depths["github-main"])
	})

	t.Run("status counts cover the whole lifecycle", func(t *testing.T) {
		counts, err := collector.GetStatusCounts(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(3), counts["queued"])
		assert.Equal(t, int64(0), counts["leased"])
		assert.Equal(t, int64(1), counts["acked"])
		assert.Equal(t, int64(1), counts["dead_lettered"])
	})

	t.Run("leasing moves events between statuses, not sources", func(t *testing.T) {
		leased, err := repo.Lease(ctx, "worker-a", 1, 30*time.Second)
		require.NoError(t, err)
		require.Len(t, leased, 1)

		counts, err := collector.GetStatusCounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts["queued"])
		assert.Equal(t, int64(1), counts["leased"])

		depths, err := collector.GetQueueDepths(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), depths["agent-1"])
		assert.Equal(t, int64(1), depths["github-main"])

		require.NoError(t, repo.Fail(ctx, leased[0].ID, &event.TransientError{Err: errors.New("retry me")}))
	})

	t.Run("collect fills the breakdown fields", func(t *testing.T) {
		m, err := collector.Collect(ctx)
		require.NoError(t, err)

		assert.NotEmpty(t, m.QueueDepths)
		assert.NotEmpty(t, m.StatusCounts)
		assert.Equal(t, m.QueueDepth, m.QueueDepths["agent-1"]+m.QueueDepths["github-main"])
	})
}
