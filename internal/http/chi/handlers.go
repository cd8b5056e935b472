package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/pulseboard/eventpipe/event"
)

// webhookTimeout is the ingress response budget: the only work inside it
// is the rate-limit check, the credential lookup and the durable enqueue.
// A timeout surfaces as a server error and the sender retries.
const webhookTimeout = 2 * time.Second

// Handlers sets up the API routes: webhook ingress, dead-letter admin,
// health and metrics
func Handlers(ctx context.Context, ingress event.UseCase, deadLetters event.DeadLetters, maxBodyBytes int64, metricsHandler http.Handler) *chi.Mux {
	logger := httplog.NewLogger("eventpipe-api", httplog.Options{
		JSON: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	if metricsHandler != nil {
		r.Get("/metrics", metricsHandler.ServeHTTP)
	}

	// Webhook ingress
	r.Route("/webhooks", func(r chi.Router) {
		r.Use(middleware.Timeout(webhookTimeout))
		r.Post("/{source_id}", postWebhook(logger, ingress, maxBodyBytes).ServeHTTP)
	})

	// Dead-letter admin API
	r.Route("/v1/deadletters", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/", listDeadLetters(deadLetters).ServeHTTP)
		r.Post("/{event_id}/replay", replayDeadLetter(deadLetters).ServeHTTP)
		r.Post("/{event_id}/discard", discardDeadLetter(deadLetters).ServeHTTP)
	})

	return r
}
