package event

import "fmt"

/* Kind classifies a canonical event for handler routing.
 * Agent sources report lifecycle kinds directly; source-control kinds are
 * derived from the external action plus object type. Anything the system
 * does not recognize becomes Unclassified rather than being rejected:
 * losing an unknown-but-valid event is worse than storing one we do not
 * act on yet.
 */
type Kind int

const (
	TaskStarted Kind = iota + 1
	CodeCommit
	TestExecution
	TaskCompleted
	BlockerIdentified
	PullRequestOpened
	PullRequestMerged
	PullRequestClosed
	PullRequestReview
	Unclassified
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case TaskStarted:
		return "task_started"
	case CodeCommit:
		return "code_commit"
	case TestExecution:
		return "test_execution"
	case TaskCompleted:
		return "task_completed"
	case BlockerIdentified:
		return "blocker_identified"
	case PullRequestOpened:
		return "pull_request_opened"
	case PullRequestMerged:
		return "pull_request_merged"
	case PullRequestClosed:
		return "pull_request_closed"
	case PullRequestReview:
		return "pull_request_review"
	case Unclassified:
		return "unclassified"
	default:
		return "unknown"
	}
}

// NewKind creates a Kind from a string, mapping unknown values to Unclassified
func NewKind(s string) Kind {
	switch s {
	case "task_started":
		return TaskStarted
	case "code_commit":
		return CodeCommit
	case "test_execution":
		return TestExecution
	case "task_completed":
		return TaskCompleted
	case "blocker_identified":
		return BlockerIdentified
	case "pull_request_opened":
		return PullRequestOpened
	case "pull_request_merged":
		return PullRequestMerged
	case "pull_request_closed":
		return PullRequestClosed
	case "pull_request_review":
		return PullRequestReview
	default:
		return Unclassified
	}
}

// Validate checks if the kind is valid
func (k Kind) Validate() error {
	if k < TaskStarted || k > Unclassified {
		return fmt.Errorf("invalid kind: %d", k)
	}
	return nil
}
