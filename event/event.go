package event

import (
	"encoding/json"
	"time"
)

/* CanonicalEvent is the durable unit of work for the pipeline.
 * Every accepted webhook notification is normalized into one of these
 * before the ingress response is sent; from that point on the queue
 * owns it until a worker acks it or it is dead-lettered.
 * Uses value semantics as it represents data, not behavior.
 */
type CanonicalEvent struct {
	// ID is the system-generated UUID, globally unique
	ID string

	// ExternalID is the source-provided stable identifier (delivery ID,
	// commit SHA, agent event UUID). May be a content-hash fallback when
	// the source provides none. (SourceID, ExternalID) is the dedup key.
	ExternalID string

	SourceID  string
	ProjectID string
	Kind      Kind

	// OccurredAt is when the source says the event happened;
	// ReceivedAt is when ingress accepted it
	OccurredAt time.Time
	ReceivedAt time.Time

	// Payload is the normalized event data, opaque to the queue
	Payload json.RawMessage

	Status       Status
	AttemptCount int

	// MaxAttempts is the per-source retry ceiling stamped at normalize
	// time; zero means the queue's configured default applies
	MaxAttempts int

	// AvailableAt is the earliest time a worker may lease this event.
	// Advanced on lease (visibility timeout) and on retry backoff.
	AvailableAt time.Time

	// LastError holds the most recent failure cause, empty on success
	LastError string
}

/* DeadLetterEntry records an event that exhausted its retry budget
 * (or failed permanently). Kept for audit; never auto-deleted.
 */
type DeadLetterEntry struct {
	EventID       string
	SourceID      string
	Kind          Kind
	LastError     string
	AttemptCount  int
	FirstFailedAt time.Time
	LastFailedAt  time.Time
	Status        DeadLetterStatus
}

// IdempotencyRecord marks a (source, external event) pair as durably applied.
// It is only ever written in the same transaction as the effect it records.
type IdempotencyRecord struct {
	SourceID       string
	ExternalID     string
	AppliedEventID string
	AppliedAt      time.Time
}

// Key returns the deduplication key for the record.
func (r IdempotencyRecord) Key() string {
	return r.SourceID + ":" + r.ExternalID
}
