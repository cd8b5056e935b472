package project

import (
	"context"
	"fmt"
	"time"

	"github.com/pulseboard/eventpipe/event"
)

/* Project state touched by event handlers. This is the narrow surface the
 * pipeline owns; the full project CRUD lives in the dashboard service and
 * only consumes the state written here.
 */

// TaskStatus is the lifecycle state of an agent task
type TaskStatus string

const (
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskBlocked    TaskStatus = "blocked"
)

// TaskRecord is the stored state of a single agent task
type TaskRecord struct {
	TaskID      string
	ProjectID   string
	Status      TaskStatus
	StartedAt   time.Time
	CompletedAt time.Time
	BlockedNote string
	UpdatedAt   time.Time
}

/* Mutation is the tagged variant a handler produces from a canonical
 * event: exactly one of the change fields is set, selected by Op. The
 * event's flexible payload never travels past the handler as an untyped
 * map.
 */
type Mutation struct {
	Op        Op
	ProjectID string

	Task        *TaskChange
	Commit      *CommitChange
	Tests       *TestChange
	PullRequest *PullRequestChange
}

// Op selects which change a mutation carries
type Op int

const (
	OpTaskUpsert Op = iota + 1
	OpCommitStats
	OpTestStats
	OpPullRequest
	OpReceipt // records receipt only; used for unclassified events
)

// String returns the string representation of the op
func (o Op) String() string {
	switch o {
	case OpTaskUpsert:
		return "task_upsert"
	case OpCommitStats:
		return "commit_stats"
	case OpTestStats:
		return "test_stats"
	case OpPullRequest:
		return "pull_request"
	case OpReceipt:
		return "receipt"
	default:
		return "unknown"
	}
}

// TaskChange upserts a task's lifecycle state. OccurredAt drives
// latest-wins resolution for out-of-order deliveries.
type TaskChange struct {
	TaskID     string
	Status     TaskStatus
	Note       string
	OccurredAt time.Time
}

// CommitChange accumulates commit metrics for the project
type CommitChange struct {
	SHA       string
	Additions int
	Deletions int
	Files     int
}

// TestChange accumulates test execution metrics for the project
type TestChange struct {
	Suite  string
	Total  int
	Passed int
	Failed int
}

// PullRequestChange records a pull request lifecycle transition
type PullRequestChange struct {
	Kind       event.Kind // one of the pull_request_* kinds
	Ref        string
	OccurredAt time.Time
}

// Validate checks that the mutation carries the change its op names
func (m Mutation) Validate() error {
	if m.ProjectID == "" {
		return fmt.Errorf("project_id cannot be empty")
	}
	switch m.Op {
	case OpTaskUpsert:
		if m.Task == nil || m.Task.TaskID == "" {
			return fmt.Errorf("task change with task_id is required for %s", m.Op)
		}
	case OpCommitStats:
		if m.Commit == nil {
			return fmt.Errorf("commit change is required for %s", m.Op)
		}
	case OpTestStats:
		if m.Tests == nil {
			return fmt.Errorf("test change is required for %s", m.Op)
		}
	case OpPullRequest:
		if m.PullRequest == nil {
			return fmt.Errorf("pull request change is required for %s", m.Op)
		}
	case OpReceipt:
		// receipt carries nothing beyond the project
	default:
		return fmt.Errorf("invalid op: %d", m.Op)
	}
	return nil
}

/* Store applies handler mutations. Apply must commit the mutation and the
 * idempotency record in one atomic unit: either both land or neither.
 * Returns event.ErrAlreadyApplied when the ledger already holds the
 * record's dedup key.
 */
type Store interface {
	Apply(ctx context.Context, rec event.IdempotencyRecord, mut Mutation) error
	Task(ctx context.Context, projectID, taskID string) (TaskRecord, error)
}

// Invalidator signals downstream read caches after a successful commit.
// Calls are fire-and-forget relative to the event lifecycle.
type Invalidator interface {
	Invalidate(ctx context.Context, projectID string) error
}
