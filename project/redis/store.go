package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pulseboard/eventpipe/event"
	eventredis "github.com/pulseboard/eventpipe/event/redis"
	"github.com/pulseboard/eventpipe/project"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of project.Store.
 *
 * Apply runs under WATCH on the ledger key (and the task key for task
 * mutations) and commits the state mutation together with the idempotency
 * record in a single MULTI. A concurrent worker applying the same dedup
 * key aborts the transaction instead of double-applying; the loser sees
 * ErrAlreadyApplied and simply acks.
 *
 * Keys:
 *   project:{pid}:task:{task_id}  task lifecycle hash
 *   project:{pid}:stats           counter hash (commits, tests, PRs, receipts)
 */

type Store struct {
	client *redis.Client
}

// NewStore creates a project store over an existing Redis client
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Apply commits a mutation and its idempotency record atomically
func (s *Store) Apply(ctx context.Context, rec event.IdempotencyRecord, mut project.Mutation) error {
	if err := mut.Validate(); err != nil {
		return &event.PermanentError{Reason: "invalid mutation", Err: err}
	}

	ledgerKey := eventredis.LedgerKey(rec.SourceID, rec.ExternalID)
	watchKeys := []string{ledgerKey}
	if mut.Op == project.OpTaskUpsert {
		watchKeys = append(watchKeys, taskKey(mut.ProjectID, mut.Task.TaskID))
	}

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, ledgerKey).Result()
		if err != nil {
			return fmt.Errorf("checking ledger: %w", err)
		}
		if exists > 0 {
			return event.ErrAlreadyApplied
		}

		var task project.TaskRecord
		if mut.Op == project.OpTaskUpsert {
			task, err = s.taskWith(ctx, tx, mut.ProjectID, mut.Task.TaskID)
			if err != nil {
				return err
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			s.applyMutation(ctx, pipe, mut, task)
			pipe.HSet(ctx, ledgerKey, eventredis.LedgerFields(rec))
			return nil
		})
		return err
	}, watchKeys...)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, event.ErrAlreadyApplied):
		return event.ErrAlreadyApplied
	case errors.Is(err, redis.TxFailedErr):
		// Another worker touched a watched key; retry via the queue
		return &event.TransientError{Err: err}
	default:
		return fmt.Errorf("applying mutation: %w", err)
	}
}

/* applyMutation queues the commands for one mutation. Task upserts use
 * latest-wins on OccurredAt, and completion is sticky: a task_started
 * arriving after its task_completed must not demote the task.
 */
func (s *Store) applyMutation(ctx context.Context, pipe redis.Pipeliner, mut project.Mutation, task project.TaskRecord) {
	statsKey := statsKey(mut.ProjectID)

	switch mut.Op {
	case project.OpTaskUpsert:
		key := taskKey(mut.ProjectID, mut.Task.TaskID)
		change := mut.Task

		fields := map[string]interface{}{
			"task_id":    change.TaskID,
			"project_id": mut.ProjectID,
		}
		switch change.Status {
		case project.TaskInProgress:
			fields["started_at"] = change.OccurredAt.UnixMilli()
		case project.TaskCompleted:
			fields["completed_at"] = change.OccurredAt.UnixMilli()
		case project.TaskBlocked:
			fields["blocked_note"] = change.Note
		}

		stale := !task.UpdatedAt.IsZero() && change.OccurredAt.Before(task.UpdatedAt)
		completedStays := task.Status == project.TaskCompleted && change.Status != project.TaskCompleted
		if !stale && !completedStays {
			fields["status"] = string(change.Status)
			fields["updated_at"] = change.OccurredAt.UnixMilli()
		}
		pipe.HSet(ctx, key, fields)

	case project.OpCommitStats:
		pipe.HIncrBy(ctx, statsKey, "commits", 1)
		pipe.HIncrBy(ctx, statsKey, "additions", int64(mut.Commit.Additions))
		pipe.HIncrBy(ctx, statsKey, "deletions", int64(mut.Commit.Deletions))
		pipe.HIncrBy(ctx, statsKey, "files_changed", int64(mut.Commit.Files))

	case project.OpTestStats:
		pipe.HIncrBy(ctx, statsKey, "test_runs", 1)
		pipe.HIncrBy(ctx, statsKey, "tests_total", int64(mut.Tests.Total))
		pipe.HIncrBy(ctx, statsKey, "tests_passed", int64(mut.Tests.Passed))
		pipe.HIncrBy(ctx, statsKey, "tests_failed", int64(mut.Tests.Failed))

	case project.OpPullRequest:
		pipe.HIncrBy(ctx, statsKey, "pr_"+mut.PullRequest.Kind.String(), 1)

	case project.OpReceipt:
		pipe.HIncrBy(ctx, statsKey, "unclassified_received", 1)
	}

	pipe.HIncrBy(ctx, statsKey, "events_applied", 1)
}

// Task retrieves the stored state of a task
func (s *Store) Task(ctx context.Context, projectID, taskID string) (project.TaskRecord, error) {
	return s.taskWith(ctx, s.client, projectID, taskID)
}

// Stats returns the raw counter hash for a project
func (s *Store) Stats(ctx context.Context, projectID string) (map[string]int64, error) {
	data, err := s.client.HGetAll(ctx, statsKey(projectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting project stats: %w", err)
	}
	stats := make(map[string]int64, len(data))
	for k, v := range data {
		n, _ := strconv.ParseInt(v, 10, 64)
		stats[k] = n
	}
	return stats, nil
}

func (s *Store) taskWith(ctx context.Context, c redis.Cmdable, projectID, taskID string) (project.TaskRecord, error) {
	data, err := c.HGetAll(ctx, taskKey(projectID, taskID)).Result()
	if err != nil {
		return project.TaskRecord{}, fmt.Errorf("getting task: %w", err)
	}
	if len(data) == 0 {
		return project.TaskRecord{}, nil
	}

	record := project.TaskRecord{
		TaskID:      data["task_id"],
		ProjectID:   data["project_id"],
		Status:      project.TaskStatus(data["status"]),
		BlockedNote: data["blocked_note"],
	}
	if ms, err := strconv.ParseInt(data["started_at"], 10, 64); err == nil {
		record.StartedAt = time.UnixMilli(ms)
	}
	if ms, err := strconv.ParseInt(data["completed_at"], 10, 64); err == nil {
		record.CompletedAt = time.UnixMilli(ms)
	}
	if ms, err := strconv.ParseInt(data["updated_at"], 10, 64); err == nil {
		record.UpdatedAt = time.UnixMilli(ms)
	}
	return record, nil
}

func taskKey(projectID, taskID string) string {
	return fmt.Sprintf("project:%s:task:%s", projectID, taskID)
}

func statsKey(projectID string) string {
	return fmt.Sprintf("project:%s:stats", projectID)
}

var _ project.Store = (*Store)(nil)
