package event

import "fmt"

/* Status represents the queue lifecycle of a canonical event.
 * Follows the lifecycle: Queued -> Leased -> Acked/Queued-with-backoff/DeadLettered
 */
type Status int

const (
	Queued Status = iota + 1
	Leased
	Acked
	DeadLettered
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case Queued:
		return "queued"
	case Leased:
		return "leased"
	case Acked:
		return "acked"
	case DeadLettered:
		return "dead_lettered"
	default:
		return "unknown"
	}
}

// NewStatus creates a Status from a string
func NewStatus(str string) Status {
	switch str {
	case "queued":
		return Queued
	case "leased":
		return Leased
	case "acked":
		return Acked
	case "dead_lettered":
		return DeadLettered
	default:
		return Queued
	}
}

// Validate checks if the status is valid
func (s Status) Validate() error {
	if s < Queued || s > DeadLettered {
		return fmt.Errorf("invalid status: %d", s)
	}
	return nil
}

// IsFinal returns true if the status is a terminal state
func (s Status) IsFinal() bool {
	return s == Acked || s == DeadLettered
}

/* DeadLetterStatus tracks what an operator decided about a dead-lettered
 * event. Replay and discard are the only external mutations allowed.
 */
type DeadLetterStatus int

const (
	PendingReview DeadLetterStatus = iota + 1
	Replayed
	Discarded
)

// String returns the string representation of the dead-letter status
func (s DeadLetterStatus) String() string {
	switch s {
	case PendingReview:
		return "pending_review"
	case Replayed:
		return "replayed"
	case Discarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// NewDeadLetterStatus creates a DeadLetterStatus from a string
func NewDeadLetterStatus(str string) DeadLetterStatus {
	switch str {
	case "replayed":
		return Replayed
	case "discarded":
		return Discarded
	default:
		return PendingReview
	}
}
