//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pulseboard/eventpipe/event"
	eventredis "github.com/pulseboard/eventpipe/event/redis"
	"github.com/pulseboard/eventpipe/project"
	projectredis "github.com/pulseboard/eventpipe/project/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testcontainersredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupStore(t *testing.T, ctx context.Context) (*projectredis.Store, *eventredis.Repository, func()) {
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

	store := projectredis.NewStore(repo.GetClient())

	cleanup := func() {
		repo.Close(ctx)
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
	}
	return store, repo, cleanup
}

func record(externalID string) event.IdempotencyRecord {
	return event.IdempotencyRecord{
		SourceID:       "agent-1",
		ExternalID:     externalID,
		AppliedEventID: "event-" + externalID,
		AppliedAt:      time.Now().UTC(),
	}
}

func taskMutation(taskID string, status project.TaskStatus, occurredAt time.Time) project.Mutation {
	return project.Mutation{
		Op:        project.OpTaskUpsert,
		ProjectID: "proj-1",
		Task: &project.TaskChange{
			TaskID:     taskID,
			Status:     status,
			OccurredAt: occurredAt,
		},
	}
}

func TestStore_Apply_Integration(t *testing.T) {
	ctx := context.Background()

	t.Run("mutation and ledger record commit together", func(t *testing.T) {
		store, repo, cleanup := setupStore(t, ctx)
		defer cleanup()

		now := time.Now().UTC()
		require.NoError(t, store.Apply(ctx, record("ext-1"), taskMutation("task-9", project.TaskInProgress, now)))

		task, err := store.Task(ctx, "proj-1", "task-9")
		require.NoError(t, err)
		assert.Equal(t, project.TaskInProgress, task.Status)

		applied, err := repo.Applied(ctx, "agent-1", "ext-1")
		require.NoError(t, err)
		assert.True(t, applied)

		rec, err := repo.GetLedgerRecord(ctx, "agent-1", "ext-1")
		require.NoError(t, err)
		assert.Equal(t, "event-ext-1", rec.AppliedEventID)
	})

	t.Run("second apply of the same dedup key is rejected", func(t *testing.T) {
		store, _, cleanup := setupStore(t, ctx)
		defer cleanup()

		mut := project.Mutation{
			Op:        project.OpCommitStats,
			ProjectID: "proj-1",
			Commit:    &project.CommitChange{SHA: "abc", Additions: 10, Deletions: 2, Files: 1},
		}

		require.NoError(t, store.Apply(ctx, record("ext-1"), mut))
		require.ErrorIs(t, store.Apply(ctx, record("ext-1"), mut), event.ErrAlreadyApplied)

		stats, err := store.Stats(ctx, "proj-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats["commits"])
		assert.Equal(t, int64(10), stats["additions"])
		assert.Equal(t, int64(1), stats["events_applied"])
	})

	t.Run("concurrent duplicates apply the effect exactly once", func(t *testing.T) {
		store, _, cleanup := setupStore(t, ctx)
		defer cleanup()

		mut := project.Mutation{
			Op:        project.OpTestStats,
			ProjectID: "proj-1",
			Tests:     &project.TestChange{Suite: "unit", Total: 50, Passed: 48, Failed: 2},
		}

		var succeeded, rejected int64
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				rec := record("ext-dup")
				rec.AppliedEventID = fmt.Sprintf("event-%d", i)
				err := store.Apply(ctx, rec, mut)
				switch {
				case err == nil:
					atomic.AddInt64(&succeeded, 1)
				case err == event.ErrAlreadyApplied:
					atomic.AddInt64(&rejected, 1)
				default:
					// WATCH conflicts surface as transient; the queue
					// would redeliver, which the ledger then rejects
					var transient *event.TransientError
					if assert.ErrorAs(t, err, &transient) {
						atomic.AddInt64(&rejected, 1)
					}
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int64(1), succeeded)
		assert.Equal(t, int64(9), rejected)

		stats, err := store.Stats(ctx, "proj-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats["test_runs"])
		assert.Equal(t, int64(50), stats["tests_total"])
	})

	t.Run("out-of-order start does not demote a completed task", func(t *testing.T) {
		store, _, cleanup := setupStore(t, ctx)
		defer cleanup()

		base := time.Now().UTC()
		require.NoError(t, store.Apply(ctx, record("ext-complete"), taskMutation("task-9", project.TaskCompleted, base.Add(time.Minute))))
		require.NoError(t, store.Apply(ctx, record("ext-start"), taskMutation("task-9", project.TaskInProgress, base)))

		task, err := store.Task(ctx, "proj-1", "task-9")
		require.NoError(t, err)
		assert.Equal(t, project.TaskCompleted, task.Status)
		// The late start still fills in its timestamp for the audit view
		assert.False(t, task.StartedAt.IsZero())
	})

	t.Run("completion arriving before the start creates the task", func(t *testing.T) {
		store, _, cleanup := setupStore(t, ctx)
		defer cleanup()

		now := time.Now().UTC()
		require.NoError(t, store.Apply(ctx, record("ext-only-complete"), taskMutation("task-42", project.TaskCompleted, now)))

		task, err := store.Task(ctx, "proj-1", "task-42")
		require.NoError(t, err)
		assert.Equal(t, "task-42", task.TaskID)
		assert.Equal(t, project.TaskCompleted, task.Status)
	})

	t.Run("stale update loses to a newer one", func(t *testing.T) {
		store, _, cleanup := setupStore(t, ctx)
		defer cleanup()

		base := time.Now().UTC()
		require.NoError(t, store.Apply(ctx, record("ext-block"), taskMutation("task-9", project.TaskBlocked, base.Add(time.Minute))))
		require.NoError(t, store.Apply(ctx, record("ext-stale-start"), taskMutation("task-9", project.TaskInProgress, base)))

		task, err := store.Task(ctx, "proj-1", "task-9")
		require.NoError(t, err)
		assert.Equal(t, project.TaskBlocked, task.Status)
	})

	t.Run("invalid mutation is permanent", func(t *testing.T) {
		store, _, cleanup := setupStore(t, ctx)
		defer cleanup()

		err := store.Apply(ctx, record("ext-bad"), project.Mutation{Op: project.OpTaskUpsert, ProjectID: "proj-1"})

		require.Error(t, err)
		assert.True(t, event.IsPermanent(err))
	})

	t.Run("pull request and receipt counters", func(t *testing.T) {
		store, _, cleanup := setupStore(t, ctx)
		defer cleanup()

		require.NoError(t, store.Apply(ctx, record("ext-pr"), project.Mutation{
			Op:          project.OpPullRequest,
			ProjectID:   "proj-1",
			PullRequest: &project.PullRequestChange{Kind: event.PullRequestMerged, Ref: "feature/x", OccurredAt: time.Now()},
		}))
		require.NoError(t, store.Apply(ctx, record("ext-unknown"), project.Mutation{
			Op:        project.OpReceipt,
			ProjectID: "proj-1",
		}))

		stats, err := store.Stats(ctx, "proj-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats["pr_pull_request_merged"])
		assert.Equal(t, int64(1), stats["unclassified_received"])
		assert.Equal(t, int64(2), stats["events_applied"])
	})
}
