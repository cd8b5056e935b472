package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pulseboard/eventpipe/event"
	"github.com/rs/zerolog"
)

/* HTTP layer DTOs for the ingress API
 * Separate from domain entities to avoid leaking internal structure
 */

// webhookResponse represents the API response when a webhook is accepted
type webhookResponse struct {
	EventID string `json:"event_id"`
	Kind    string `json:"kind"`
}

/* postWebhook handles POST /webhooks/{source_id}.
 *
 * The body ceiling is enforced with MaxBytesReader so oversized payloads
 * are rejected before being read in full. Everything else - rate limit,
 * authentication, validation (content type included, so malformed floods
 * still consume rate budget), normalization, durable enqueue - is the
 * ingress service's admit pipeline; this handler only translates its
 * error taxonomy to status codes and records the admit decision. The
 * presented credential is never logged.
 */
func postWebhook(logger zerolog.Logger, ingress event.UseCase, maxBodyBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sourceID := chi.URLParam(r, "source_id")
		if sourceID == "" {
			http.Error(w, "source_id is required", http.StatusBadRequest)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				reject(logger, w, sourceID, "body too large", http.StatusRequestEntityTooLarge)
				return
			}
			reject(logger, w, sourceID, "failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		token := bearerToken(r)
		headers := flattenHeaders(r.Header)

		receipt, err := ingress.Admit(r.Context(), sourceID, token, headers, body)
		if err != nil {
			writeAdmitError(logger, w, sourceID, err)
			return
		}

		logger.Info().
			Str("source_id", sourceID).
			Str("event_id", receipt.EventID).
			Str("kind", receipt.Kind.String()).
			Msg("webhook accepted")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(webhookResponse{
			EventID: receipt.EventID,
			Kind:    receipt.Kind.String(),
		})
	})
}

// writeAdmitError maps the admit error taxonomy to HTTP statuses. Unknown
// sources and bad tokens share one message by design.
func writeAdmitError(logger zerolog.Logger, w http.ResponseWriter, sourceID string, err error) {
	var validation *event.ValidationError
	var rateLimited *event.RateLimitedError

	switch {
	case errors.As(err, &rateLimited):
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rateLimited.RetryAfter.Seconds())))
		reject(logger, w, sourceID, "rate limit exceeded", http.StatusTooManyRequests)
	case errors.Is(err, event.ErrUnauthorized):
		reject(logger, w, sourceID, "unauthorized", http.StatusUnauthorized)
	case errors.As(err, &validation):
		reject(logger, w, sourceID, validation.Reason, http.StatusBadRequest)
	default:
		// Enqueue failed: the sender owns the retry from here
		logger.Error().Err(err).Str("source_id", sourceID).Msg("webhook enqueue failed")
		http.Error(w, "failed to accept event, retry later", http.StatusInternalServerError)
	}
}

// reject records the admit decision and writes the error response
func reject(logger zerolog.Logger, w http.ResponseWriter, sourceID, reason string, status int) {
	logger.Warn().
		Str("source_id", sourceID).
		Str("reason", reason).
		Int("status", status).
		Msg("webhook rejected")
	http.Error(w, reason, status)
}

// bearerToken extracts the credential from the Authorization header
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return auth[7:]
	}
	return ""
}

// flattenHeaders keeps the first value of each header for the normalizer
func flattenHeaders(h http.Header) map[string]string {
	headers := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}
	return headers
}
