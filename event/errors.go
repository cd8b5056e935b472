package event

import (
	"errors"
	"fmt"
	"time"
)

/* Error taxonomy for the pipeline.
 * Ingress failures surface synchronously as HTTP statuses; processing
 * failures only ever surface through retry/backoff and dead-lettering.
 */

var (
	// ErrUnauthorized covers both unknown sources and bad tokens.
	// Callers must not be able to tell the two apart.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the referenced event does not exist
	ErrNotFound = errors.New("event not found")

	// ErrDeliveryExhausted indicates the retry ceiling was reached
	ErrDeliveryExhausted = errors.New("delivery attempts exhausted")

	// ErrAlreadyApplied indicates the idempotency ledger already holds a
	// record for the event's dedup key; the effect must not be re-applied
	ErrAlreadyApplied = errors.New("event already applied")
)

// ValidationError is a structural rejection at ingress: malformed JSON,
// missing required fields, wrong content type.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// RateLimitedError carries the retry-after hint for a 429 response.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// TransientError marks a processing failure worth retrying: a storage
// hiccup, an unavailable upstream. Retried identically to handler failures.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks an event that can never succeed (e.g. it references
// a deleted project). Skips remaining retries and dead-letters immediately.
type PermanentError struct {
	Reason string
	Err    error
}

func (e *PermanentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("permanent failure: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("permanent failure: %s", e.Reason)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// IsPermanent reports whether err should bypass the retry budget.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
