package redis

import (
	"context"
	"fmt"

	"github.com/pulseboard/eventpipe/project"
	"github.com/redis/go-redis/v9"
)

// invalidateChannel is the pub/sub channel the dashboard's read caches
// and live-update subscribers listen on
const invalidateChannel = "cache.invalidate"

/* Invalidator publishes cache invalidation signals after successful
 * commits. Fire-and-forget from the dispatcher's point of view: a missed
 * publish leaves a stale cache that heals on its own, which is acceptable;
 * losing the event would not be.
 */
type Invalidator struct {
	client *redis.Client
}

// NewInvalidator creates an invalidation publisher over an existing client
func NewInvalidator(client *redis.Client) *Invalidator {
	return &Invalidator{client: client}
}

// Invalidate signals that cached views of the project are stale
func (i *Invalidator) Invalidate(ctx context.Context, projectID string) error {
	if err := i.client.Publish(ctx, invalidateChannel, projectID).Err(); err != nil {
		return fmt.Errorf("publishing invalidation: %w", err)
	}
	return nil
}

var _ project.Invalidator = (*Invalidator)(nil)
