package dispatch

import (
	"context"

	"github.com/pulseboard/eventpipe/event"
	"github.com/pulseboard/eventpipe/project"
)

/* Handlers are polymorphic over a single capability: given a canonical
 * event, produce a deterministic project mutation. The dispatcher owns
 * everything around that - idempotency, the atomic commit, retries.
 */

// Handler turns a canonical event into a project mutation
type Handler interface {
	Handle(ctx context.Context, ev event.CanonicalEvent) (project.Mutation, error)
}

// HandlerFunc adapts a function to the Handler interface
type HandlerFunc func(ctx context.Context, ev event.CanonicalEvent) (project.Mutation, error)

// Handle calls the wrapped function
func (f HandlerFunc) Handle(ctx context.Context, ev event.CanonicalEvent) (project.Mutation, error) {
	return f(ctx, ev)
}

// Registry routes events to handlers by kind. Kinds without an explicit
// handler fall back to the receipt-only handler, so nothing is dropped.
type Registry struct {
	handlers map[event.Kind]Handler
	fallback Handler
}

// NewRegistry creates a registry with the given fallback handler
func NewRegistry(fallback Handler) *Registry {
	return &Registry{
		handlers: make(map[event.Kind]Handler),
		fallback: fallback,
	}
}

// Register binds a handler to one or more kinds
func (r *Registry) Register(h Handler, kinds ...event.Kind) {
	for _, kind := range kinds {
		r.handlers[kind] = h
	}
}

// For returns the handler for a kind, or the fallback
func (r *Registry) For(kind event.Kind) Handler {
	if h, ok := r.handlers[kind]; ok {
		return h
	}
	return r.fallback
}

// DefaultRegistry wires the known handler variants for the pipeline
func DefaultRegistry(metrics MetricsPusher) *Registry {
	r := NewRegistry(UnclassifiedHandler())
	r.Register(TaskLifecycleHandler(), event.TaskStarted, event.TaskCompleted, event.BlockerIdentified)
	r.Register(CommitMetricsHandler(metrics), event.CodeCommit)
	r.Register(TestMetricsHandler(metrics), event.TestExecution)
	r.Register(PullRequestHandler(),
		event.PullRequestOpened, event.PullRequestMerged,
		event.PullRequestClosed, event.PullRequestReview)
	return r
}
