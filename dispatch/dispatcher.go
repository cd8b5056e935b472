package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pulseboard/eventpipe/event"
	"github.com/pulseboard/eventpipe/project"
	"github.com/rs/zerolog"
)

/* Dispatcher runs the worker pool. Each worker independently leases
 * batches from the durable queue, routes events to handlers by kind, and
 * commits each handler's mutation atomically with its idempotency record.
 * There is no coordination between workers beyond the queue's lease
 * exclusivity; a crashed worker's events simply reappear when the lease
 * expires.
 */

// Heartbeater records worker liveness; satisfied by the Redis repository
type Heartbeater interface {
	SetWorkerHeartbeat(ctx context.Context, workerID, status string) error
}

// Source is what the dispatcher needs from the queue
type Source interface {
	event.Leaser
	event.Completer
}

type Dispatcher struct {
	Queue       Source
	Ledger      event.Ledger
	Store       project.Store
	Invalidator project.Invalidator
	Registry    *Registry
	Heartbeats  Heartbeater
	Logger      zerolog.Logger

	Workers      int
	BatchSize    int
	LeaseFor     time.Duration
	PollInterval time.Duration
}

// Run starts the worker pool and blocks until the context is cancelled.
// Workers finish their current batch before exiting.
func (d *Dispatcher) Run(ctx context.Context) {
	workers := d.Workers
	if workers < 1 {
		workers = 1
	}
	poll := d.PollInterval
	if poll <= 0 {
		poll = time.Second
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.workerLoop(ctx, "worker-"+uuid.NewString()[:8], poll)
		}()
	}
	wg.Wait()
}

func (d *Dispatcher) workerLoop(ctx context.Context, workerID string, poll time.Duration) {
	logger := d.Logger.With().Str("worker_id", workerID).Logger()

	for {
		if ctx.Err() != nil {
			return
		}
		d.heartbeat(ctx, workerID, "idle")

		events, err := d.Queue.Lease(ctx, workerID, d.BatchSize, d.LeaseFor)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error().Err(err).Msg("leasing events")
			sleep(ctx, poll)
			continue
		}
		if len(events) == 0 {
			sleep(ctx, poll)
			continue
		}

		d.heartbeat(ctx, workerID, "processing")
		for _, ev := range events {
			d.process(ctx, logger, ev)
		}
	}
}

/* process applies one leased event:
 *   1. a ledger hit means the effect already landed - ack without running
 *      the handler (at-least-once delivery, effectively-once application)
 *   2. otherwise run the handler and commit mutation + ledger record in
 *      one transaction; storage failures retry exactly like handler ones
 *   3. cache invalidation after the commit is fire-and-forget
 */
func (d *Dispatcher) process(ctx context.Context, logger zerolog.Logger, ev event.CanonicalEvent) {
	applied, err := d.Ledger.Applied(ctx, ev.SourceID, ev.ExternalID)
	if err != nil {
		d.fail(ctx, logger, ev, &event.TransientError{Err: err})
		return
	}
	if applied {
		logger.Info().
			Str("event_id", ev.ID).
			Str("external_id", ev.ExternalID).
			Msg("duplicate delivery suppressed")
		d.ack(ctx, logger, ev)
		return
	}

	handler := d.Registry.For(ev.Kind)
	mut, err := handler.Handle(ctx, ev)
	if err != nil {
		d.fail(ctx, logger, ev, err)
		return
	}

	rec := event.IdempotencyRecord{
		SourceID:       ev.SourceID,
		ExternalID:     ev.ExternalID,
		AppliedEventID: ev.ID,
		AppliedAt:      time.Now().UTC(),
	}
	if err := d.Store.Apply(ctx, rec, mut); err != nil {
		// A concurrent apply of the same dedup key is a success, not a failure
		if errors.Is(err, event.ErrAlreadyApplied) {
			d.ack(ctx, logger, ev)
			return
		}
		d.fail(ctx, logger, ev, err)
		return
	}

	d.ack(ctx, logger, ev)

	if d.Invalidator != nil && mut.ProjectID != "" {
		if err := d.Invalidator.Invalidate(ctx, mut.ProjectID); err != nil {
			// Stale caches self-heal; the event already committed
			logger.Warn().Err(err).Str("project_id", mut.ProjectID).Msg("cache invalidation failed")
		}
	}
}

func (d *Dispatcher) ack(ctx context.Context, logger zerolog.Logger, ev event.CanonicalEvent) {
	if err := d.Queue.Ack(ctx, ev.ID); err != nil {
		// The lease will expire and the ledger will suppress re-application
		logger.Error().Err(err).Str("event_id", ev.ID).Msg("acking event")
	}
}

func (d *Dispatcher) fail(ctx context.Context, logger zerolog.Logger, ev event.CanonicalEvent, cause error) {
	logger.Warn().
		Err(cause).
		Str("event_id", ev.ID).
		Str("kind", ev.Kind.String()).
		Int("attempt", ev.AttemptCount+1).
		Bool("permanent", event.IsPermanent(cause)).
		Msg("event processing failed")

	if err := d.Queue.Fail(ctx, ev.ID, cause); err != nil {
		logger.Error().Err(err).Str("event_id", ev.ID).Msg("recording failure")
	}
}

func (d *Dispatcher) heartbeat(ctx context.Context, workerID, status string) {
	if d.Heartbeats == nil {
		return
	}
	if err := d.Heartbeats.SetWorkerHeartbeat(ctx, workerID, status); err != nil && ctx.Err() == nil {
		d.Logger.Warn().Err(err).Str("worker_id", workerID).Msg("setting heartbeat")
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
