package sources

import (
	"fmt"
	"time"

	"github.com/pulseboard/eventpipe/event"
)

/* Source represents a registered webhook sender configuration
 * Maps source_id to its project, payload dialect and ingress limits
 */
type Source struct {
	SourceID    string
	ProjectID   string
	Type        event.SourceType
	RateLimit   int           // Accepted requests per window; 0 uses the global default
	RateWindow  time.Duration // Sliding window for the rate limit
	MaxAttempts int           // Retry ceiling override; 0 uses the global default
}

// Validate checks if the source configuration is valid
func (s *Source) Validate() error {
	if s.SourceID == "" {
		return fmt.Errorf("source_id cannot be empty")
	}
	if s.ProjectID == "" {
		return fmt.Errorf("project_id cannot be empty for source %s", s.SourceID)
	}
	if s.Type != event.SourceAgent && s.Type != event.SourceGitHub {
		return fmt.Errorf("invalid type for source %s: %s (must be agent or github)", s.SourceID, s.Type)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative for source %s", s.SourceID)
	}
	if s.RateLimit > 0 && s.RateWindow <= 0 {
		return fmt.Errorf("rate_window_secs must be positive when rate_limit is set for source %s", s.SourceID)
	}
	if s.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts cannot be negative for source %s", s.SourceID)
	}
	return nil
}

// Info converts the source into the registry view the ingress pipeline uses
func (s *Source) Info() event.SourceInfo {
	return event.SourceInfo{
		SourceID:    s.SourceID,
		ProjectID:   s.ProjectID,
		Type:        s.Type,
		RateLimit:   s.RateLimit,
		RateWindow:  s.RateWindow,
		MaxAttempts: s.MaxAttempts,
	}
}
