package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pulseboard/eventpipe/event/credential"
	"github.com/redis/go-redis/v9"
)

/* Credential store. The active credential for a source lives in a single
 * hash; revoked credentials are appended to a history list for audit.
 * Rotation replaces the hash and archives the prior credential in one
 * MULTI, which keeps the "at most one active credential per source"
 * invariant even under concurrent rotations.
 */

// Active returns the current non-revoked credential for the source
func (r *Repository) Active(ctx context.Context, sourceID string) (credential.Credential, error) {
	data, err := r.client.HGetAll(ctx, credentialKey(sourceID)).Result()
	if err != nil {
		return credential.Credential{}, fmt.Errorf("getting credential: %w", err)
	}
	if len(data) == 0 {
		return credential.Credential{}, fmt.Errorf("no active credential for source %s", sourceID)
	}
	return credential.Credential{
		SourceID:  sourceID,
		ProjectID: data["project_id"],
		TokenHash: data["token_hash"],
		CreatedAt: time.UnixMilli(parseInt64(data["created_at"])),
	}, nil
}

// Rotate installs a new credential and revokes the prior one atomically
func (r *Repository) Rotate(ctx context.Context, sourceID, projectID, tokenHash string) error {
	key := credentialKey(sourceID)

	next := credential.Credential{
		SourceID:  sourceID,
		ProjectID: projectID,
		TokenHash: tokenHash,
		CreatedAt: time.Now(),
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("validating credential: %w", err)
	}

	prior, err := r.Active(ctx, sourceID)
	hadPrior := err == nil

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if hadPrior {
			prior.RevokedAt = time.Now()
			archived, err := json.Marshal(map[string]interface{}{
				"project_id": prior.ProjectID,
				"token_hash": prior.TokenHash,
				"created_at": prior.CreatedAt.UnixMilli(),
				"revoked_at": prior.RevokedAt.UnixMilli(),
			})
			if err != nil {
				return fmt.Errorf("marshaling revoked credential: %w", err)
			}
			pipe.RPush(ctx, credentialHistoryKey(sourceID), archived)
		}
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"project_id", next.ProjectID,
			"token_hash", next.TokenHash,
			"created_at", next.CreatedAt.UnixMilli(),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("rotating credential: %w", err)
	}
	return nil
}

// Revoke removes the active credential for the source, archiving it.
// In-flight events already queued under this credential keep processing;
// only new ingress requests are affected.
func (r *Repository) Revoke(ctx context.Context, sourceID string) error {
	prior, err := r.Active(ctx, sourceID)
	if err != nil {
		return err
	}
	prior.RevokedAt = time.Now()

	archived, err := json.Marshal(map[string]interface{}{
		"project_id": prior.ProjectID,
		"token_hash": prior.TokenHash,
		"created_at": prior.CreatedAt.UnixMilli(),
		"revoked_at": prior.RevokedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshaling revoked credential: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, credentialHistoryKey(sourceID), archived)
		pipe.Del(ctx, credentialKey(sourceID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("revoking credential: %w", err)
	}
	return nil
}

func credentialKey(sourceID string) string {
	return fmt.Sprintf("%s:%s", credentialPrefix, sourceID)
}

func credentialHistoryKey(sourceID string) string {
	return fmt.Sprintf("%s:%s:history", credentialPrefix, sourceID)
}

var _ credential.Store = (*Repository)(nil)
