package event

import (
	"context"
	"time"
)

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 * Written for users of the API, not just for testing
 */

// Enqueuer persists events into the durable queue
type Enqueuer interface {
	/* Enqueue makes the event durable with AvailableAt = now and
	 * AttemptCount = 0. This write is the delivery-guarantee boundary:
	 * it must complete before the ingress HTTP response is sent.
	 */
	Enqueue(ctx context.Context, ev CanonicalEvent) error
}

// Leaser hands out time-bounded exclusive claims on queued events
type Leaser interface {
	/* Lease atomically claims up to batchSize events whose AvailableAt
	 * has passed, advancing AvailableAt by leaseFor so no other worker
	 * can claim them inside the lease window. A crashed worker's lease
	 * simply expires; recovery is purely timeout-driven.
	 */
	Lease(ctx context.Context, workerID string, batchSize int, leaseFor time.Duration) ([]CanonicalEvent, error)
}

// Completer reports the outcome of processing a leased event
type Completer interface {
	/* Ack marks the event permanently applied. It leaves the active set
	 * but is retained as an audit record.
	 */
	Ack(ctx context.Context, eventID string) error

	/* Fail increments the attempt count and either reschedules the event
	 * with exponential backoff or, when the retry ceiling is reached or
	 * the cause is permanent, moves it to the dead-letter state.
	 */
	Fail(ctx context.Context, eventID string, cause error) error
}

// Reader provides read access to stored events
type Reader interface {
	Get(ctx context.Context, eventID string) (CanonicalEvent, error)
}

// DeadLetters exposes the administrative surface over dead-lettered events.
// Replay and discard are the only externally triggered mutations.
type DeadLetters interface {
	ListDeadLetters(ctx context.Context, limit int) ([]DeadLetterEntry, error)
	ReplayDeadLetter(ctx context.Context, eventID string) error
	DiscardDeadLetter(ctx context.Context, eventID string) error
}

/* Interface composition - combining small interfaces into larger ones
 * This is preferred over large monolithic interfaces
 */
type Queue interface {
	Enqueuer
	Leaser
	Completer
	Reader
	DeadLetters
	Close(ctx context.Context) error
}

// Ledger answers whether a dedup key has already been durably applied.
// Records are only ever written transactionally with their effect, so the
// write side lives with the project store, not here.
type Ledger interface {
	Applied(ctx context.Context, sourceID, externalID string) (bool, error)
}

// RateLimiter is the shared sliding-window counter checked before
// authentication. Must be safe for concurrent ingress handlers.
type RateLimiter interface {
	/* Allow records one request for the source and reports whether it is
	 * within limit requests per window. When rejected, retryAfter hints
	 * when the next window opens.
	 */
	Allow(ctx context.Context, sourceID string, limit int, window time.Duration) (ok bool, retryAfter time.Duration, err error)
}

// Authenticator resolves a presented bearer token to the project the
// source's credential belongs to. Returns ErrUnauthorized for unknown
// sources and bad tokens alike.
type Authenticator interface {
	Authenticate(ctx context.Context, sourceID, token string) (projectID string, err error)
}

// Normalizer maps a raw source payload into a CanonicalEvent
type Normalizer interface {
	Normalize(src SourceInfo, headers map[string]string, body []byte) (CanonicalEvent, error)
}
