package normalize_test

import (
	"testing"
	"time"

	"github.com/pulseboard/eventpipe/event"
	"github.com/pulseboard/eventpipe/event/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNormalizer() *normalize.Normalizer {
	return &normalize.Normalizer{
		Now:   func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
		NewID: func() string { return "fixed-id" },
	}
}

func agentSource() event.SourceInfo {
	return event.SourceInfo{SourceID: "agent-1", ProjectID: "proj-1", Type: event.SourceAgent}
}

func githubSource() event.SourceInfo {
	return event.SourceInfo{SourceID: "github-main", ProjectID: "proj-1", Type: event.SourceGitHub}
}

func TestNormalize_Agent(t *testing.T) {
	t.Run("task started", func(t *testing.T) {
		n := fixedNormalizer()
		body := []byte(`{"event_type": "task_started", "event_id": "evt-42", "task_id": "task-9", "timestamp": "2025-06-01T11:58:00Z"}`)

		ev, err := n.Normalize(agentSource(), nil, body)

		require.NoError(t, err)
		assert.Equal(t, "fixed-id", ev.ID)
		assert.Equal(t, event.TaskStarted, ev.Kind)
		assert.Equal(t, "evt-42", ev.ExternalID)
		assert.Equal(t, "agent-1", ev.SourceID)
		assert.Equal(t, "proj-1", ev.ProjectID)
		assert.Equal(t, event.Queued, ev.Status)
		assert.Equal(t, time.Date(2025, 6, 1, 11, 58, 0, 0, time.UTC), ev.OccurredAt)
		assert.Equal(t, n.Now(), ev.ReceivedAt)
		assert.Equal(t, string(body), string(ev.Payload))
	})

	t.Run("commit uses sha as external id when event_id is missing", func(t *testing.T) {
		n := fixedNormalizer()
		body := []byte(`{"event_type": "code_commit", "commit_sha": "abc123"}`)

		ev, err := n.Normalize(agentSource(), nil, body)

		require.NoError(t, err)
		assert.Equal(t, event.CodeCommit, ev.Kind)
		assert.Equal(t, "abc123", ev.ExternalID)
	})

	t.Run("missing timestamp falls back to receive time", func(t *testing.T) {
		n := fixedNormalizer()
		body := []byte(`{"event_type": "test_execution", "event_id": "evt-7"}`)

		ev, err := n.Normalize(agentSource(), nil, body)

		require.NoError(t, err)
		assert.Equal(t, n.Now().UTC(), ev.OccurredAt)
	})

	t.Run("source retry ceiling is stamped onto the event", func(t *testing.T) {
		n := fixedNormalizer()
		src := agentSource()
		src.MaxAttempts = 5
		body := []byte(`{"event_type": "task_started", "event_id": "evt-42"}`)

		ev, err := n.Normalize(src, nil, body)

		require.NoError(t, err)
		assert.Equal(t, 5, ev.MaxAttempts)
	})

	t.Run("unknown event type becomes unclassified, not an error", func(t *testing.T) {
		n := fixedNormalizer()
		body := []byte(`{"event_type": "deployment_started", "event_id": "evt-8"}`)

		ev, err := n.Normalize(agentSource(), nil, body)

		require.NoError(t, err)
		assert.Equal(t, event.Unclassified, ev.Kind)
	})

	t.Run("missing event_type is a validation error", func(t *testing.T) {
		n := fixedNormalizer()
		body := []byte(`{"task_id": "task-9"}`)

		_, err := n.Normalize(agentSource(), nil, body)

		var validation *event.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Contains(t, validation.Reason, "event_type")
	})

	t.Run("content hash fallback is stable inside the dedup bucket", func(t *testing.T) {
		n := fixedNormalizer()
		body := []byte(`{"event_type": "task_started", "task_id": "task-9"}`)

		first, err := n.Normalize(agentSource(), nil, body)
		require.NoError(t, err)
		second, err := n.Normalize(agentSource(), nil, body)
		require.NoError(t, err)

		assert.NotEmpty(t, first.ExternalID)
		assert.Contains(t, first.ExternalID, "sha-")
		// A sender retry with the identical body hashes to the same key
		assert.Equal(t, first.ExternalID, second.ExternalID)

		// A different body never collides
		other, err := n.Normalize(agentSource(), nil, []byte(`{"event_type": "task_started", "task_id": "task-10"}`))
		require.NoError(t, err)
		assert.NotEqual(t, first.ExternalID, other.ExternalID)
	})
}

func TestNormalize_GitHub(t *testing.T) {
	t.Run("pull request opened", func(t *testing.T) {
		n := fixedNormalizer()
		body := []byte(`{"action": "opened", "pull_request": {"merged": false, "head": {"sha": "def456"}}}`)
		headers := map[string]string{"X-Github-Delivery": "delivery-uuid-1"}

		ev, err := n.Normalize(githubSource(), headers, body)

		require.NoError(t, err)
		assert.Equal(t, event.PullRequestOpened, ev.Kind)
		assert.Equal(t, "delivery-uuid-1", ev.ExternalID)
	})

	t.Run("closed and merged becomes merged", func(t *testing.T) {
		n := fixedNormalizer()
		body := []byte(`{"action": "closed", "pull_request": {"merged": true, "head": {"sha": "def456"}}}`)

		ev, err := n.Normalize(githubSource(), nil, body)

		require.NoError(t, err)
		assert.Equal(t, event.PullRequestMerged, ev.Kind)
	})

	t.Run("closed without merge stays closed", func(t *testing.T) {
		n := fixedNormalizer()
		body := []byte(`{"action": "closed", "pull_request": {"merged": false, "head": {"sha": "def456"}}}`)

		ev, err := n.Normalize(githubSource(), nil, body)

		require.NoError(t, err)
		assert.Equal(t, event.PullRequestClosed, ev.Kind)
	})

	t.Run("review submitted", func(t *testing.T) {
		n := fixedNormalizer()
		body := []byte(`{"action": "submitted", "pull_request": {"head": {"sha": "def456"}}, "review": {"submitted_at": "2025-06-01T11:30:00Z"}}`)

		ev, err := n.Normalize(githubSource(), nil, body)

		require.NoError(t, err)
		assert.Equal(t, event.PullRequestReview, ev.Kind)
		assert.Equal(t, time.Date(2025, 6, 1, 11, 30, 0, 0, time.UTC), ev.OccurredAt)
	})

	t.Run("delivery header is case-insensitive", func(t *testing.T) {
		n := fixedNormalizer()
		body := []byte(`{"action": "opened", "pull_request": {"head": {"sha": "def456"}}}`)
		headers := map[string]string{"x-github-delivery": "delivery-uuid-2"}

		ev, err := n.Normalize(githubSource(), headers, body)

		require.NoError(t, err)
		assert.Equal(t, "delivery-uuid-2", ev.ExternalID)
	})

	t.Run("without delivery header falls back to action plus head sha", func(t *testing.T) {
		n := fixedNormalizer()
		body := []byte(`{"action": "opened", "pull_request": {"head": {"sha": "def456"}}}`)

		ev, err := n.Normalize(githubSource(), nil, body)

		require.NoError(t, err)
		assert.Equal(t, "opened:def456", ev.ExternalID)
	})

	t.Run("unrecognized action becomes unclassified", func(t *testing.T) {
		n := fixedNormalizer()
		body := []byte(`{"action": "labeled", "pull_request": {"head": {"sha": "def456"}}}`)

		ev, err := n.Normalize(githubSource(), nil, body)

		require.NoError(t, err)
		assert.Equal(t, event.Unclassified, ev.Kind)
	})

	t.Run("missing action is a validation error", func(t *testing.T) {
		n := fixedNormalizer()

		_, err := n.Normalize(githubSource(), nil, []byte(`{"zen": "Keep it logically awesome."}`))

		var validation *event.ValidationError
		require.ErrorAs(t, err, &validation)
	})
}

func TestNormalize_UnsupportedSourceType(t *testing.T) {
	n := fixedNormalizer()
	src := event.SourceInfo{SourceID: "s", ProjectID: "p", Type: event.SourceType("gitlab")}

	_, err := n.Normalize(src, nil, []byte(`{}`))

	var validation *event.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Reason, "unsupported source type")
}
