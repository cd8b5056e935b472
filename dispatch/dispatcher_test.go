package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pulseboard/eventpipe/dispatch"
	"github.com/pulseboard/eventpipe/event"
	eventmocks "github.com/pulseboard/eventpipe/event/mocks"
	"github.com/pulseboard/eventpipe/project"
	projectmocks "github.com/pulseboard/eventpipe/project/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

// queueMock composes the leaser and completer mocks into the queue surface
// the dispatcher consumes
type queueMock struct {
	*eventmocks.Leaser
	*eventmocks.Completer
}

func newQueueMock(t *testing.T) queueMock {
	return queueMock{
		Leaser:    eventmocks.NewLeaser(t),
		Completer: eventmocks.NewCompleter(t),
	}
}

/* runOnce drives the dispatcher through exactly one leased batch: the
 * first lease returns the given events, every later lease cancels the
 * run and comes back empty.
 */
func runOnce(t *testing.T, d *dispatch.Dispatcher, queue queueMock, events []event.CanonicalEvent) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue.Leaser.On("Lease", mock.Anything, mock.AnythingOfType("string"), d.BatchSize, d.LeaseFor).
		Return(events, nil).Once()
	queue.Leaser.On("Lease", mock.Anything, mock.AnythingOfType("string"), d.BatchSize, d.LeaseFor).
		Run(func(args mock.Arguments) { cancel() }).
		Return(nil, nil).Maybe()

	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("dispatcher did not stop")
	}
}

func leasedEvent() event.CanonicalEvent {
	return event.CanonicalEvent{
		ID:         "event-1",
		ExternalID: "ext-1",
		SourceID:   "agent-1",
		ProjectID:  "proj-1",
		Kind:       event.TaskStarted,
		Payload:    []byte(`{"task_id": "task-9"}`),
		Status:     event.Leased,
	}
}

func newDispatcher(queue queueMock, ledger *eventmocks.Ledger, store *projectmocks.Store, inv *projectmocks.Invalidator) *dispatch.Dispatcher {
	return &dispatch.Dispatcher{
		Queue:        queue,
		Ledger:       ledger,
		Store:        store,
		Invalidator:  inv,
		Registry:     dispatch.DefaultRegistry(nil),
		Logger:       zerolog.Nop(),
		Workers:      1,
		BatchSize:    10,
		LeaseFor:     30 * time.Second,
		PollInterval: 10 * time.Millisecond,
	}
}

func TestDispatcher_AppliesAndAcks(t *testing.T) {
	queue := newQueueMock(t)
	ledger := eventmocks.NewLedger(t)
	store := projectmocks.NewStore(t)
	inv := projectmocks.NewInvalidator(t)

	ev := leasedEvent()

	ledger.On("Applied", mock.Anything, "agent-1", "ext-1").Return(false, nil)
	store.On("Apply", mock.Anything,
		mock.MatchedBy(func(rec event.IdempotencyRecord) bool {
			return rec.SourceID == "agent-1" && rec.ExternalID == "ext-1" && rec.AppliedEventID == "event-1"
		}),
		mock.MatchedBy(func(mut project.Mutation) bool {
			return mut.Op == project.OpTaskUpsert && mut.ProjectID == "proj-1"
		}),
	).Return(nil)
	queue.Completer.On("Ack", mock.Anything, "event-1").Return(nil)
	inv.On("Invalidate", mock.Anything, "proj-1").Return(nil)

	d := newDispatcher(queue, ledger, store, inv)
	runOnce(t, d, queue, []event.CanonicalEvent{ev})

	queue.Completer.AssertNotCalled(t, "Fail", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_DuplicateIsAckedWithoutHandler(t *testing.T) {
	queue := newQueueMock(t)
	ledger := eventmocks.NewLedger(t)
	store := projectmocks.NewStore(t)

	ev := leasedEvent()

	ledger.On("Applied", mock.Anything, "agent-1", "ext-1").Return(true, nil)
	queue.Completer.On("Ack", mock.Anything, "event-1").Return(nil)

	d := newDispatcher(queue, ledger, store, nil)
	runOnce(t, d, queue, []event.CanonicalEvent{ev})

	// The effect must not be applied a second time
	store.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_HandlerFailureIsRecorded(t *testing.T) {
	queue := newQueueMock(t)
	ledger := eventmocks.NewLedger(t)
	store := projectmocks.NewStore(t)

	// task event without a task_id: the handler fails permanently
	ev := leasedEvent()
	ev.Payload = []byte(`{"data": {"note": "no task id"}}`)

	ledger.On("Applied", mock.Anything, "agent-1", "ext-1").Return(false, nil)
	queue.Completer.On("Fail", mock.Anything, "event-1", mock.MatchedBy(func(err error) bool {
		return event.IsPermanent(err)
	})).Return(nil)

	d := newDispatcher(queue, ledger, store, nil)
	runOnce(t, d, queue, []event.CanonicalEvent{ev})

	store.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
	queue.Completer.AssertNotCalled(t, "Ack", mock.Anything, mock.Anything)
}

func TestDispatcher_ConcurrentApplyCountsAsSuccess(t *testing.T) {
	queue := newQueueMock(t)
	ledger := eventmocks.NewLedger(t)
	store := projectmocks.NewStore(t)

	ev := leasedEvent()

	ledger.On("Applied", mock.Anything, "agent-1", "ext-1").Return(false, nil)
	store.On("Apply", mock.Anything, mock.Anything, mock.Anything).Return(event.ErrAlreadyApplied)
	queue.Completer.On("Ack", mock.Anything, "event-1").Return(nil)

	d := newDispatcher(queue, ledger, store, nil)
	runOnce(t, d, queue, []event.CanonicalEvent{ev})

	queue.Completer.AssertNotCalled(t, "Fail", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_StoreFailureIsRetriable(t *testing.T) {
	queue := newQueueMock(t)
	ledger := eventmocks.NewLedger(t)
	store := projectmocks.NewStore(t)

	ev := leasedEvent()

	ledger.On("Applied", mock.Anything, "agent-1", "ext-1").Return(false, nil)
	store.On("Apply", mock.Anything, mock.Anything, mock.Anything).
		Return(&event.TransientError{Err: errors.New("redis connection reset")})
	queue.Completer.On("Fail", mock.Anything, "event-1", mock.MatchedBy(func(err error) bool {
		return !event.IsPermanent(err)
	})).Return(nil)

	d := newDispatcher(queue, ledger, store, nil)
	runOnce(t, d, queue, []event.CanonicalEvent{ev})
}

func TestDispatcher_InvalidationFailureDoesNotFailTheEvent(t *testing.T) {
	queue := newQueueMock(t)
	ledger := eventmocks.NewLedger(t)
	store := projectmocks.NewStore(t)
	inv := projectmocks.NewInvalidator(t)

	ev := leasedEvent()

	ledger.On("Applied", mock.Anything, "agent-1", "ext-1").Return(false, nil)
	store.On("Apply", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	queue.Completer.On("Ack", mock.Anything, "event-1").Return(nil)
	inv.On("Invalidate", mock.Anything, "proj-1").Return(errors.New("pubsub unavailable"))

	d := newDispatcher(queue, ledger, store, inv)
	runOnce(t, d, queue, []event.CanonicalEvent{ev})

	queue.Completer.AssertNotCalled(t, "Fail", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_LedgerErrorFailsTransiently(t *testing.T) {
	queue := newQueueMock(t)
	ledger := eventmocks.NewLedger(t)
	store := projectmocks.NewStore(t)

	ev := leasedEvent()

	ledger.On("Applied", mock.Anything, "agent-1", "ext-1").
		Return(false, errors.New("redis timeout"))
	queue.Completer.On("Fail", mock.Anything, "event-1", mock.MatchedBy(func(err error) bool {
		var transient *event.TransientError
		return errors.As(err, &transient)
	})).Return(nil)

	d := newDispatcher(queue, ledger, store, nil)
	runOnce(t, d, queue, []event.CanonicalEvent{ev})
}
