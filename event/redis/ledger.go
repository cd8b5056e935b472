package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/pulseboard/eventpipe/event"
)

/* Idempotency ledger reads. The ledger key for a dedup key exists iff the
 * corresponding effect has been durably applied; the write always happens
 * inside the project store's apply transaction, never here. A crash can
 * therefore never land between "effect applied" and "dedup recorded".
 */

// Applied reports whether a ledger record exists for the dedup key
func (r *Repository) Applied(ctx context.Context, sourceID, externalID string) (bool, error) {
	n, err := r.client.Exists(ctx, LedgerKey(sourceID, externalID)).Result()
	if err != nil {
		return false, fmt.Errorf("checking ledger: %w", err)
	}
	return n > 0, nil
}

// GetLedgerRecord retrieves the idempotency record for a dedup key
func (r *Repository) GetLedgerRecord(ctx context.Context, sourceID, externalID string) (event.IdempotencyRecord, error) {
	data, err := r.client.HGetAll(ctx, LedgerKey(sourceID, externalID)).Result()
	if err != nil {
		return event.IdempotencyRecord{}, fmt.Errorf("getting ledger record: %w", err)
	}
	if len(data) == 0 {
		return event.IdempotencyRecord{}, event.ErrNotFound
	}
	return event.IdempotencyRecord{
		SourceID:       sourceID,
		ExternalID:     externalID,
		AppliedEventID: data["applied_event_id"],
		AppliedAt:      time.UnixMilli(parseInt64(data["applied_at"])),
	}, nil
}

// LedgerFields returns the hash fields for a record, for use inside the
// project store's transaction pipeline
func LedgerFields(rec event.IdempotencyRecord) map[string]interface{} {
	return map[string]interface{}{
		"applied_event_id": rec.AppliedEventID,
		"applied_at":       rec.AppliedAt.UnixMilli(),
	}
}

var _ event.Ledger = (*Repository)(nil)
