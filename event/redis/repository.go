package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pulseboard/eventpipe/event"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of the durable event queue.
 *
 * Data model:
 *   event:{id}        hash with the full canonical event (audit record)
 *   events:ready      zset of queued/leased event IDs scored by available_at
 *                     (unix milliseconds); leasing bumps the score past the
 *                     lease window, so an expired lease makes the event
 *                     leasable again with no explicit release step
 *   events:deadletter zset of dead-lettered event IDs scored by last failure
 *   ledger:{src}:{ext} idempotency records (written by the project store,
 *                     inside the same MULTI as the state mutation)
 *
 * The lease claim runs as a Lua script: select-and-rescore is atomic, so no
 * two workers can claim the same event inside its lease window.
 */

const (
	eventPrefix      = "event"             // Hash naming: event:{event_id}
	readyKey         = "events:ready"      // ZSET of leasable events
	deadLetterKey    = "events:deadletter" // ZSET of dead-lettered events
	ledgerPrefix     = "ledger"            // String naming: ledger:{source_id}:{external_id}
	rateLimitPrefix  = "ratelimit"         // Counter naming: ratelimit:{source_id}:{window_start}
	credentialPrefix = "credential"        // Hash naming: credential:{source_id}
)

// leaseScript claims up to ARGV[3] events whose score (available_at) is at
// or before ARGV[1], rescoring them to ARGV[2] in the same atomic step.
var leaseScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[3]))
for _, id in ipairs(ids) do
	redis.call('ZADD', KEYS[1], ARGV[2], id)
	redis.call('HSET', 'event:' .. id, 'status', 'leased', 'available_at', ARGV[2], 'leased_by', ARGV[4])
end
return ids
`)

type Repository struct {
	client      *redis.Client
	maxAttempts int
	ackedTTL    time.Duration
}

// NewRepository creates a new Redis repository
func NewRepository(addr, password string, db int, maxAttempts int, ackedTTL time.Duration) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return NewRepositoryWithClient(client, maxAttempts, ackedTTL), nil
}

// NewRepositoryWithClient wraps an existing client; used when the API and
// collectors share a connection pool
func NewRepositoryWithClient(client *redis.Client, maxAttempts int, ackedTTL time.Duration) *Repository {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &Repository{
		client:      client,
		maxAttempts: maxAttempts,
		ackedTTL:    ackedTTL,
	}
}

// Enqueue persists the event and makes it leasable. Both writes go through
// one MULTI so the event is never visible in only one of the two places.
func (r *Repository) Enqueue(ctx context.Context, ev event.CanonicalEvent) error {
	hashKey := eventKey(ev.ID)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hashKey, eventToHash(ev))
		pipe.ZAdd(ctx, readyKey, redis.Z{
			Score:  float64(ev.AvailableAt.UnixMilli()),
			Member: ev.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("enqueueing event: %w", err)
	}
	return nil
}

// Lease atomically claims a batch of due events for one worker
func (r *Repository) Lease(ctx context.Context, workerID string, batchSize int, leaseFor time.Duration) ([]event.CanonicalEvent, error) {
	if batchSize < 1 {
		batchSize = 1
	}
	now := time.Now()
	leaseUntil := now.Add(leaseFor)

	ids, err := leaseScript.Run(ctx, r.client,
		[]string{readyKey},
		now.UnixMilli(),
		leaseUntil.UnixMilli(),
		batchSize,
		workerID,
	).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("leasing events: %w", err)
	}

	events := make([]event.CanonicalEvent, 0, len(ids))
	for _, id := range ids {
		ev, err := r.Get(ctx, id)
		if err != nil {
			// Hash missing for a claimed ID: drop the orphan zset entry
			r.client.ZRem(ctx, readyKey, id)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// Ack marks the event as permanently applied. The event hash is retained
// as an audit record, expiring after the configured TTL.
func (r *Repository) Ack(ctx context.Context, eventID string) error {
	hashKey := eventKey(eventID)

	now := time.Now()
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, readyKey, eventID)
		pipe.HSet(ctx, hashKey, "status", event.Acked.String(), "last_error", "")
		if r.ackedTTL > 0 {
			pipe.Expire(ctx, hashKey, r.ackedTTL)
		}
		// Per-minute delivery counters feed the metrics collector
		bucket := ackedBucketKey(now)
		pipe.Incr(ctx, bucket)
		pipe.Expire(ctx, bucket, 16*time.Minute)
		pipe.Incr(ctx, ackedTotalKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("acking event: %w", err)
	}
	return nil
}

/* Fail records a processing failure. Below the retry ceiling the event is
 * rescheduled with exponential backoff; at the ceiling, or when the cause
 * is permanent, it moves to the dead-letter state. The attempt counter is
 * bumped with HINCRBY first: if the process dies before the reschedule
 * lands, the still-running lease expires and the event is retried anyway.
 */
func (r *Repository) Fail(ctx context.Context, eventID string, cause error) error {
	hashKey := eventKey(eventID)

	attempts, err := r.client.HIncrBy(ctx, hashKey, "attempt_count", 1).Result()
	if err != nil {
		return fmt.Errorf("incrementing attempt count: %w", err)
	}

	ceiling, err := r.retryCeiling(ctx, hashKey)
	if err != nil {
		return err
	}

	if event.IsPermanent(cause) || int(attempts) >= ceiling {
		return r.deadLetter(ctx, eventID, cause, int(attempts))
	}

	nextAt := time.Now().Add(event.Backoff(int(attempts)))
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hashKey,
			"status", event.Queued.String(),
			"last_error", cause.Error(),
			"available_at", nextAt.UnixMilli(),
		)
		pipe.ZAdd(ctx, readyKey, redis.Z{
			Score:  float64(nextAt.UnixMilli()),
			Member: eventID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("rescheduling event: %w", err)
	}
	return nil
}

// retryCeiling returns the event's own max_attempts when the source
// declared one, falling back to the repository default
func (r *Repository) retryCeiling(ctx context.Context, hashKey string) (int, error) {
	v, err := r.client.HGet(ctx, hashKey, "max_attempts").Result()
	if err != nil && err != redis.Nil {
		return 0, fmt.Errorf("getting retry ceiling: %w", err)
	}
	if ceiling := int(parseInt64(v)); ceiling > 0 {
		return ceiling, nil
	}
	return r.maxAttempts, nil
}

func (r *Repository) deadLetter(ctx context.Context, eventID string, cause error, attempts int) error {
	hashKey := eventKey(eventID)
	now := time.Now()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, readyKey, eventID)
		pipe.ZAdd(ctx, deadLetterKey, redis.Z{
			Score:  float64(now.UnixMilli()),
			Member: eventID,
		})
		pipe.HSet(ctx, hashKey,
			"status", event.DeadLettered.String(),
			"last_error", cause.Error(),
			"attempt_count", attempts,
			"last_failed_at", now.UnixMilli(),
			"dl_status", event.PendingReview.String(),
		)
		pipe.HSetNX(ctx, hashKey, "first_failed_at", now.UnixMilli())
		return nil
	})
	if err != nil {
		return fmt.Errorf("dead-lettering event: %w", err)
	}
	return nil
}

// Get retrieves an event by ID from its Redis hash
func (r *Repository) Get(ctx context.Context, eventID string) (event.CanonicalEvent, error) {
	data, err := r.client.HGetAll(ctx, eventKey(eventID)).Result()
	if err != nil {
		return event.CanonicalEvent{}, fmt.Errorf("getting event: %w", err)
	}
	if len(data) == 0 {
		return event.CanonicalEvent{}, event.ErrNotFound
	}
	return hashToEvent(data), nil
}

// ListDeadLetters returns dead-letter entries, most recent failures first
func (r *Repository) ListDeadLetters(ctx context.Context, limit int) ([]event.DeadLetterEntry, error) {
	if limit < 1 {
		limit = 50
	}
	ids, err := r.client.ZRevRange(ctx, deadLetterKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("listing dead letters: %w", err)
	}

	entries := make([]event.DeadLetterEntry, 0, len(ids))
	for _, id := range ids {
		data, err := r.client.HGetAll(ctx, eventKey(id)).Result()
		if err != nil || len(data) == 0 {
			continue
		}
		entries = append(entries, event.DeadLetterEntry{
			EventID:       data["id"],
			SourceID:      data["source_id"],
			Kind:          event.NewKind(data["kind"]),
			LastError:     data["last_error"],
			AttemptCount:  int(parseInt64(data["attempt_count"])),
			FirstFailedAt: time.UnixMilli(parseInt64(data["first_failed_at"])),
			LastFailedAt:  time.UnixMilli(parseInt64(data["last_failed_at"])),
			Status:        event.NewDeadLetterStatus(data["dl_status"]),
		})
	}
	return entries, nil
}

/* ReplayDeadLetter re-enqueues a dead-lettered event with a fresh retry
 * budget. The dead-letter entry itself is kept for audit with its status
 * flipped to replayed; only pending-review entries can be replayed.
 */
func (r *Repository) ReplayDeadLetter(ctx context.Context, eventID string) error {
	hashKey := eventKey(eventID)

	data, err := r.client.HGetAll(ctx, hashKey).Result()
	if err != nil {
		return fmt.Errorf("getting dead letter: %w", err)
	}
	if len(data) == 0 {
		return event.ErrNotFound
	}
	if event.NewStatus(data["status"]) != event.DeadLettered {
		return fmt.Errorf("event %s is not dead-lettered", eventID)
	}
	if event.NewDeadLetterStatus(data["dl_status"]) != event.PendingReview {
		return fmt.Errorf("dead letter %s already resolved: %s", eventID, data["dl_status"])
	}

	now := time.Now()
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hashKey,
			"status", event.Queued.String(),
			"attempt_count", 0,
			"available_at", now.UnixMilli(),
			"dl_status", event.Replayed.String(),
		)
		pipe.ZAdd(ctx, readyKey, redis.Z{
			Score:  float64(now.UnixMilli()),
			Member: eventID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("replaying dead letter: %w", err)
	}
	return nil
}

// DiscardDeadLetter marks a dead-lettered event as permanently discarded.
// The record stays for audit; no further lease attempts will ever occur.
func (r *Repository) DiscardDeadLetter(ctx context.Context, eventID string) error {
	hashKey := eventKey(eventID)

	data, err := r.client.HGetAll(ctx, hashKey).Result()
	if err != nil {
		return fmt.Errorf("getting dead letter: %w", err)
	}
	if len(data) == 0 {
		return event.ErrNotFound
	}
	if event.NewStatus(data["status"]) != event.DeadLettered {
		return fmt.Errorf("event %s is not dead-lettered", eventID)
	}

	if err := r.client.HSet(ctx, hashKey, "dl_status", event.Discarded.String()).Err(); err != nil {
		return fmt.Errorf("discarding dead letter: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

// GetClient returns the underlying Redis client for advanced operations
func (r *Repository) GetClient() *redis.Client {
	return r.client
}

// Helper functions

func eventKey(id string) string {
	return fmt.Sprintf("%s:%s", eventPrefix, id)
}

// ackedTotalKey counts every acknowledged event since startup
const ackedTotalKey = "events:acked:total"

// ackedBucketKey names the per-minute delivery counter for throughput
func ackedBucketKey(t time.Time) string {
	return fmt.Sprintf("events:acked:%d", t.Unix()/60)
}

// LedgerKey names the idempotency record for a dedup key. Exported because
// the project store writes ledger records inside its apply transaction.
func LedgerKey(sourceID, externalID string) string {
	return fmt.Sprintf("%s:%s:%s", ledgerPrefix, sourceID, externalID)
}

func eventToHash(ev event.CanonicalEvent) map[string]interface{} {
	return map[string]interface{}{
		"id":            ev.ID,
		"external_id":   ev.ExternalID,
		"source_id":     ev.SourceID,
		"project_id":    ev.ProjectID,
		"kind":          ev.Kind.String(),
		"occurred_at":   ev.OccurredAt.UTC().Format(time.RFC3339Nano),
		"received_at":   ev.ReceivedAt.UTC().Format(time.RFC3339Nano),
		"payload":       []byte(ev.Payload),
		"status":        ev.Status.String(),
		"attempt_count": ev.AttemptCount,
		"max_attempts":  ev.MaxAttempts,
		"available_at":  ev.AvailableAt.UnixMilli(),
		"last_error":    ev.LastError,
	}
}

func hashToEvent(data map[string]string) event.CanonicalEvent {
	occurredAt, _ := time.Parse(time.RFC3339Nano, data["occurred_at"])
	receivedAt, _ := time.Parse(time.RFC3339Nano, data["received_at"])

	return event.CanonicalEvent{
		ID:           data["id"],
		ExternalID:   data["external_id"],
		SourceID:     data["source_id"],
		ProjectID:    data["project_id"],
		Kind:         event.NewKind(data["kind"]),
		OccurredAt:   occurredAt,
		ReceivedAt:   receivedAt,
		Payload:      []byte(data["payload"]),
		Status:       event.NewStatus(data["status"]),
		AttemptCount: int(parseInt64(data["attempt_count"])),
		MaxAttempts:  int(parseInt64(data["max_attempts"])),
		AvailableAt:  time.UnixMilli(parseInt64(data["available_at"])),
		LastError:    data["last_error"],
	}
}

func parseInt64(s string) int64 {
	result, _ := strconv.ParseInt(s, 10, 64)
	return result
}
