package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

/* Service represents the ingress business logic layer
 * Uses pointer semantics as it's an API, not data
 */

// Receipt is what the caller gets back for an accepted webhook.
type Receipt struct {
	EventID string
	Kind    Kind
}

// UseCase defines the ingress operations for webhook admission
type UseCase interface {
	Admit(ctx context.Context, sourceID, token string, headers map[string]string, body []byte) (Receipt, error)
}

type Service struct {
	Sources    SourceResolver
	Limiter    RateLimiter
	Auth       Authenticator
	Normalizer Normalizer
	Queue      Enqueuer

	// Fallbacks for sources the registry does not know yet; unknown
	// sources are still rate-limited to block credential guessing.
	DefaultRateLimit int
	DefaultWindow    time.Duration
}

// NewService creates a new ingress service with dependency injection
func NewService(sources SourceResolver, limiter RateLimiter, auth Authenticator, normalizer Normalizer, queue Enqueuer, defaultLimit int, defaultWindow time.Duration) *Service {
	return &Service{
		Sources:          sources,
		Limiter:          limiter,
		Auth:             auth,
		Normalizer:       normalizer,
		Queue:            queue,
		DefaultRateLimit: defaultLimit,
		DefaultWindow:    defaultWindow,
	}
}

/* Admit runs the ingress pipeline in its fixed order:
 * rate limit first (cheapest, and it must cover unauthenticated callers),
 * then authentication, then structural validation, then the durable
 * enqueue. Only the enqueue write blocks the 200 response; downstream
 * processing never does.
 */
func (s *Service) Admit(ctx context.Context, sourceID, token string, headers map[string]string, body []byte) (Receipt, error) {
	src, known := s.Sources.Resolve(sourceID)

	limit := s.DefaultRateLimit
	window := s.DefaultWindow
	if known && src.RateLimit > 0 {
		limit = src.RateLimit
		window = src.RateWindow
	}

	ok, retryAfter, err := s.Limiter.Allow(ctx, sourceID, limit, window)
	if err != nil {
		return Receipt{}, fmt.Errorf("checking rate limit: %w", err)
	}
	if !ok {
		return Receipt{}, &RateLimitedError{RetryAfter: retryAfter}
	}

	// Unknown source and bad token are indistinguishable to the caller
	if !known {
		return Receipt{}, ErrUnauthorized
	}
	projectID, err := s.Auth.Authenticate(ctx, sourceID, token)
	if err != nil {
		return Receipt{}, err
	}
	if projectID != src.ProjectID {
		return Receipt{}, ErrUnauthorized
	}

	if ct := headerValue(headers, "Content-Type"); !strings.HasPrefix(ct, "application/json") {
		return Receipt{}, &ValidationError{Reason: "unsupported content type"}
	}
	if len(body) == 0 {
		return Receipt{}, &ValidationError{Reason: "empty body"}
	}
	if !json.Valid(body) {
		return Receipt{}, &ValidationError{Reason: "body is not valid JSON"}
	}

	ev, err := s.Normalizer.Normalize(src, headers, body)
	if err != nil {
		return Receipt{}, err
	}

	if err := s.Queue.Enqueue(ctx, ev); err != nil {
		return Receipt{}, fmt.Errorf("enqueueing event: %w", err)
	}

	return Receipt{EventID: ev.ID, Kind: ev.Kind}, nil
}

// headerValue does a case-insensitive lookup on the flattened header map
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
