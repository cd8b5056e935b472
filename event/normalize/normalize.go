package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pulseboard/eventpipe/event"
)

/* Pure, side-effect-free mapping from the heterogeneous payload shapes the
 * sources send into the single CanonicalEvent envelope. Agent sources name
 * their lifecycle kind directly; GitHub kinds are derived from the action
 * plus object type. Unrecognized kinds become Unclassified and are still
 * queued: losing unknown-but-valid external events is worse than storing
 * one the system does not yet act on.
 */

// dedupBucket is the coarse time bucket used by the content-hash fallback
// when a source provides no stable external identifier. Duplicates retried
// across bucket boundaries are only probabilistically suppressed.
const dedupBucket = 5 * time.Minute

// Normalizer implements event.Normalizer. The clock and ID generator are
// injectable for tests.
type Normalizer struct {
	Now   func() time.Time
	NewID func() string
}

// New creates a Normalizer with the production clock and UUID generator
func New() *Normalizer {
	return &Normalizer{
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

// agentPayload is the envelope AI agents send for lifecycle events
type agentPayload struct {
	EventType string          `json:"event_type"`
	EventID   string          `json:"event_id"`
	TaskID    string          `json:"task_id"`
	CommitSHA string          `json:"commit_sha"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// githubPayload is the subset of the GitHub webhook envelope we read
type githubPayload struct {
	Action      string `json:"action"`
	PullRequest *struct {
		Merged    bool   `json:"merged"`
		UpdatedAt string `json:"updated_at"`
		Head      struct {
			SHA string `json:"sha"`
		} `json:"head"`
	} `json:"pull_request"`
	Review *struct {
		SubmittedAt string `json:"submitted_at"`
	} `json:"review"`
}

// Normalize maps a validated source payload into a CanonicalEvent
func (n *Normalizer) Normalize(src event.SourceInfo, headers map[string]string, body []byte) (event.CanonicalEvent, error) {
	now := n.Now().UTC()

	ev := event.CanonicalEvent{
		ID:          n.NewID(),
		SourceID:    src.SourceID,
		ProjectID:   src.ProjectID,
		Payload:     body,
		Status:      event.Queued,
		ReceivedAt:  now,
		AvailableAt: now,
		MaxAttempts: src.MaxAttempts,
	}

	var err error
	switch src.Type {
	case event.SourceAgent:
		err = n.fromAgent(&ev, body)
	case event.SourceGitHub:
		err = n.fromGitHub(&ev, headers, body)
	default:
		return event.CanonicalEvent{}, &event.ValidationError{Reason: fmt.Sprintf("unsupported source type: %s", src.Type)}
	}
	if err != nil {
		return event.CanonicalEvent{}, err
	}

	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = now
	}
	if ev.ExternalID == "" {
		ev.ExternalID = fallbackExternalID(src.SourceID, ev.Kind, body, ev.OccurredAt)
	}

	return ev, nil
}

func (n *Normalizer) fromAgent(ev *event.CanonicalEvent, body []byte) error {
	var p agentPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return &event.ValidationError{Reason: fmt.Sprintf("parsing agent payload: %v", err)}
	}
	if p.EventType == "" {
		return &event.ValidationError{Reason: "event_type is required"}
	}

	ev.Kind = event.NewKind(p.EventType)
	ev.OccurredAt = parseTimestamp(p.Timestamp)

	switch {
	case p.EventID != "":
		ev.ExternalID = p.EventID
	case ev.Kind == event.CodeCommit && p.CommitSHA != "":
		ev.ExternalID = p.CommitSHA
	}
	return nil
}

func (n *Normalizer) fromGitHub(ev *event.CanonicalEvent, headers map[string]string, body []byte) error {
	var p githubPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return &event.ValidationError{Reason: fmt.Sprintf("parsing github payload: %v", err)}
	}
	if p.Action == "" {
		return &event.ValidationError{Reason: "action is required"}
	}

	switch {
	case p.PullRequest != nil && p.Review != nil && p.Action == "submitted":
		ev.Kind = event.PullRequestReview
		ev.OccurredAt = parseTimestamp(p.Review.SubmittedAt)
	case p.PullRequest != nil && p.Action == "opened":
		ev.Kind = event.PullRequestOpened
	case p.PullRequest != nil && p.Action == "closed" && p.PullRequest.Merged:
		ev.Kind = event.PullRequestMerged
	case p.PullRequest != nil && p.Action == "closed":
		ev.Kind = event.PullRequestClosed
	default:
		ev.Kind = event.Unclassified
	}

	if ev.OccurredAt.IsZero() && p.PullRequest != nil {
		ev.OccurredAt = parseTimestamp(p.PullRequest.UpdatedAt)
	}

	// The delivery ID is GitHub's stable per-notification identifier
	if id := headerValue(headers, "X-Github-Delivery"); id != "" {
		ev.ExternalID = id
	} else if p.PullRequest != nil && p.PullRequest.Head.SHA != "" {
		ev.ExternalID = fmt.Sprintf("%s:%s", p.Action, p.PullRequest.Head.SHA)
	}
	return nil
}

/* fallbackExternalID derives a deduplication key from the content when the
 * source provides no stable identifier: a hash of (source, kind, payload,
 * occurredAt) with the timestamp rounded down to a coarse bucket, so a
 * sender retry inside the bucket hashes to the same key.
 */
func fallbackExternalID(sourceID string, kind event.Kind, body []byte, occurredAt time.Time) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|", sourceID, kind, occurredAt.UTC().Truncate(dedupBucket).Unix())
	h.Write(body)
	return "sha-" + hex.EncodeToString(h.Sum(nil))[:32]
}

// parseTimestamp accepts RFC3339 with or without sub-second precision;
// a zero time signals the caller to fall back to the receive time
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

// headerValue does a case-insensitive header lookup on the flattened map
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
