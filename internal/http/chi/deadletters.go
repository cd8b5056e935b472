package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pulseboard/eventpipe/event"
)

// deadLetterResponse represents a dead-letter entry in the admin API
type deadLetterResponse struct {
	EventID       string    `json:"event_id"`
	SourceID      string    `json:"source_id"`
	Kind          string    `json:"kind"`
	LastError     string    `json:"last_error"`
	AttemptCount  int       `json:"attempt_count"`
	FirstFailedAt time.Time `json:"first_failed_at"`
	LastFailedAt  time.Time `json:"last_failed_at"`
	Status        string    `json:"status"`
}

// listDeadLetters handles GET /v1/deadletters
func listDeadLetters(deadLetters event.DeadLetters) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		entries, err := deadLetters.ListDeadLetters(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		responses := make([]deadLetterResponse, 0, len(entries))
		for _, entry := range entries {
			responses = append(responses, deadLetterResponse{
				EventID:       entry.EventID,
				SourceID:      entry.SourceID,
				Kind:          entry.Kind.String(),
				LastError:     entry.LastError,
				AttemptCount:  entry.AttemptCount,
				FirstFailedAt: entry.FirstFailedAt,
				LastFailedAt:  entry.LastFailedAt,
				Status:        entry.Status.String(),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(responses)
	})
}

// replayDeadLetter handles POST /v1/deadletters/{event_id}/replay
func replayDeadLetter(deadLetters event.DeadLetters) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "event_id")
		if eventID == "" {
			http.Error(w, "event_id is required", http.StatusBadRequest)
			return
		}

		if err := deadLetters.ReplayDeadLetter(r.Context(), eventID); err != nil {
			writeDeadLetterError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
}

// discardDeadLetter handles POST /v1/deadletters/{event_id}/discard
func discardDeadLetter(deadLetters event.DeadLetters) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "event_id")
		if eventID == "" {
			http.Error(w, "event_id is required", http.StatusBadRequest)
			return
		}

		if err := deadLetters.DiscardDeadLetter(r.Context(), eventID); err != nil {
			writeDeadLetterError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func writeDeadLetterError(w http.ResponseWriter, err error) {
	if errors.Is(err, event.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	// State conflicts (not dead-lettered, already resolved) are client errors
	http.Error(w, err.Error(), http.StatusConflict)
}
