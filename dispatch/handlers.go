package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pulseboard/eventpipe/event"
	"github.com/pulseboard/eventpipe/project"
	"github.com/pulseboard/eventpipe/upstream"
)

// MetricsPusher is the slice of the upstream client the metric handlers
// need. A nil pusher disables upstream pushes.
type MetricsPusher interface {
	Push(ctx context.Context, sample upstream.MetricSample) error
}

// agentEventBody is the payload shape shared by agent lifecycle events
type agentEventBody struct {
	TaskID    string `json:"task_id"`
	CommitSHA string `json:"commit_sha"`
	Data      struct {
		Note         string `json:"note"`
		Additions    int    `json:"additions"`
		Deletions    int    `json:"deletions"`
		FilesChanged int    `json:"files_changed"`
		Suite        string `json:"suite"`
		Total        int    `json:"total"`
		Passed       int    `json:"passed"`
		Failed       int    `json:"failed"`
	} `json:"data"`
}

func parseAgentBody(ev event.CanonicalEvent) (agentEventBody, error) {
	var body agentEventBody
	if err := json.Unmarshal(ev.Payload, &body); err != nil {
		// The payload passed structural validation at ingress; if it no
		// longer parses it never will
		return body, &event.PermanentError{Reason: "unparseable payload", Err: err}
	}
	return body, nil
}

/* TaskLifecycleHandler covers task_started, task_completed and
 * blocker_identified. The mutation is an upsert: a completion arriving
 * before its start creates the task record on demand, so out-of-order
 * delivery converges instead of erroring.
 */
func TaskLifecycleHandler() Handler {
	return HandlerFunc(func(ctx context.Context, ev event.CanonicalEvent) (project.Mutation, error) {
		body, err := parseAgentBody(ev)
		if err != nil {
			return project.Mutation{}, err
		}
		if body.TaskID == "" {
			return project.Mutation{}, &event.PermanentError{Reason: "task event without task_id"}
		}

		var status project.TaskStatus
		switch ev.Kind {
		case event.TaskStarted:
			status = project.TaskInProgress
		case event.TaskCompleted:
			status = project.TaskCompleted
		case event.BlockerIdentified:
			status = project.TaskBlocked
		default:
			return project.Mutation{}, &event.PermanentError{Reason: fmt.Sprintf("task handler cannot process kind %s", ev.Kind)}
		}

		return project.Mutation{
			Op:        project.OpTaskUpsert,
			ProjectID: ev.ProjectID,
			Task: &project.TaskChange{
				TaskID:     body.TaskID,
				Status:     status,
				Note:       body.Data.Note,
				OccurredAt: ev.OccurredAt,
			},
		}, nil
	})
}

// CommitMetricsHandler accumulates commit stats and pushes an aggregated
// sample to the upstream metrics API through the circuit breaker
func CommitMetricsHandler(metrics MetricsPusher) Handler {
	return HandlerFunc(func(ctx context.Context, ev event.CanonicalEvent) (project.Mutation, error) {
		body, err := parseAgentBody(ev)
		if err != nil {
			return project.Mutation{}, err
		}

		if metrics != nil {
			sample := upstream.MetricSample{
				ProjectID: ev.ProjectID,
				Metric:    "commit.lines_changed",
				Value:     int64(body.Data.Additions + body.Data.Deletions),
				At:        ev.OccurredAt,
			}
			if err := metrics.Push(ctx, sample); err != nil {
				return project.Mutation{}, err
			}
		}

		return project.Mutation{
			Op:        project.OpCommitStats,
			ProjectID: ev.ProjectID,
			Commit: &project.CommitChange{
				SHA:       body.CommitSHA,
				Additions: body.Data.Additions,
				Deletions: body.Data.Deletions,
				Files:     body.Data.FilesChanged,
			},
		}, nil
	})
}

// TestMetricsHandler accumulates test execution stats, pushing the failure
// count upstream
func TestMetricsHandler(metrics MetricsPusher) Handler {
	return HandlerFunc(func(ctx context.Context, ev event.CanonicalEvent) (project.Mutation, error) {
		body, err := parseAgentBody(ev)
		if err != nil {
			return project.Mutation{}, err
		}

		if metrics != nil {
			sample := upstream.MetricSample{
				ProjectID: ev.ProjectID,
				Metric:    "tests.failed",
				Value:     int64(body.Data.Failed),
				At:        ev.OccurredAt,
			}
			if err := metrics.Push(ctx, sample); err != nil {
				return project.Mutation{}, err
			}
		}

		return project.Mutation{
			Op:        project.OpTestStats,
			ProjectID: ev.ProjectID,
			Tests: &project.TestChange{
				Suite:  body.Data.Suite,
				Total:  body.Data.Total,
				Passed: body.Data.Passed,
				Failed: body.Data.Failed,
			},
		}, nil
	})
}

// PullRequestHandler records pull request lifecycle transitions
func PullRequestHandler() Handler {
	return HandlerFunc(func(ctx context.Context, ev event.CanonicalEvent) (project.Mutation, error) {
		var body struct {
			PullRequest *struct {
				Head struct {
					Ref string `json:"ref"`
				} `json:"head"`
			} `json:"pull_request"`
		}
		if err := json.Unmarshal(ev.Payload, &body); err != nil {
			return project.Mutation{}, &event.PermanentError{Reason: "unparseable payload", Err: err}
		}

		change := &project.PullRequestChange{
			Kind:       ev.Kind,
			OccurredAt: ev.OccurredAt,
		}
		if body.PullRequest != nil {
			change.Ref = body.PullRequest.Head.Ref
		}

		return project.Mutation{
			Op:          project.OpPullRequest,
			ProjectID:   ev.ProjectID,
			PullRequest: change,
		}, nil
	})
}

// UnclassifiedHandler records receipt and nothing else. The event stays
// visible in the audit trail for later interpretation.
func UnclassifiedHandler() Handler {
	return HandlerFunc(func(ctx context.Context, ev event.CanonicalEvent) (project.Mutation, error) {
		return project.Mutation{
			Op:        project.OpReceipt,
			ProjectID: ev.ProjectID,
		}, nil
	})
}
