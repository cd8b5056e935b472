package sources

import (
	"fmt"
	"os"
	"time"

	"github.com/pulseboard/eventpipe/event"
	"gopkg.in/yaml.v3"
)

/* Loader manages source configuration from sources.yaml
 * Provides in-memory lookup for fast access on the ingress hot path
 */

// Config represents the structure of sources.yaml
type Config struct {
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig represents a single source in the YAML file
type SourceConfig struct {
	SourceID       string `yaml:"source_id"`
	ProjectID      string `yaml:"project_id"`
	Type           string `yaml:"type"`             // "agent" or "github"
	RateLimit      int    `yaml:"rate_limit"`       // Optional: override global default
	RateWindowSecs int    `yaml:"rate_window_secs"` // Optional: defaults to 60 when rate_limit is set
	MaxAttempts    int    `yaml:"max_attempts"`     // Optional: override global retry ceiling
}

// Loader holds the loaded sources
type Loader struct {
	sources map[string]*Source
}

// NewLoader creates a new source loader
func NewLoader() *Loader {
	return &Loader{
		sources: make(map[string]*Source),
	}
}

// Load reads and parses the sources.yaml file
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading sources file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing sources YAML: %w", err)
	}

	for _, sc := range config.Sources {
		windowSecs := sc.RateWindowSecs
		if sc.RateLimit > 0 && windowSecs == 0 {
			windowSecs = 60
		}

		source := &Source{
			SourceID:    sc.SourceID,
			ProjectID:   sc.ProjectID,
			Type:        event.SourceType(sc.Type),
			RateLimit:   sc.RateLimit,
			RateWindow:  time.Duration(windowSecs) * time.Second,
			MaxAttempts: sc.MaxAttempts,
		}

		if err := source.Validate(); err != nil {
			return fmt.Errorf("validating source: %w", err)
		}

		l.sources[source.SourceID] = source
	}

	return nil
}

// Get retrieves a source by its ID
func (l *Loader) Get(sourceID string) (*Source, error) {
	source, exists := l.sources[sourceID]
	if !exists {
		return nil, fmt.Errorf("source not found: %s", sourceID)
	}
	return source, nil
}

// Resolve implements event.SourceResolver
func (l *Loader) Resolve(sourceID string) (event.SourceInfo, bool) {
	source, exists := l.sources[sourceID]
	if !exists {
		return event.SourceInfo{}, false
	}
	return source.Info(), true
}

// List returns all loaded sources
func (l *Loader) List() []*Source {
	sources := make([]*Source, 0, len(l.sources))
	for _, source := range l.sources {
		sources = append(sources, source)
	}
	return sources
}

// Exists checks if a source ID exists
func (l *Loader) Exists(sourceID string) bool {
	_, exists := l.sources[sourceID]
	return exists
}

var _ event.SourceResolver = (*Loader)(nil)
