package event

import "time"

// SourceType distinguishes the payload dialects the normalizer understands.
type SourceType string

const (
	SourceAgent  SourceType = "agent"
	SourceGitHub SourceType = "github"
)

/* SourceInfo is the registry view of a webhook source the ingress
 * pipeline needs: who it is, which project it feeds, and how hard it
 * may push. Loaded from sources.yaml by the sources package.
 */
type SourceInfo struct {
	SourceID    string
	ProjectID   string
	Type        SourceType
	RateLimit   int
	RateWindow  time.Duration
	MaxAttempts int
}

// SourceResolver looks up a source by its public identifier.
type SourceResolver interface {
	Resolve(sourceID string) (SourceInfo, bool)
}
