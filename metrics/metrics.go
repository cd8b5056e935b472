package metrics

import (
	"context"
	"time"
)

// Metrics represents the current state of the event pipeline.
type Metrics struct {
	// QueueDepth is the number of events in the active set (queued + leased)
	QueueDepth int64 `json:"queue_depth"`

	// QueueDepths breaks the active set down per webhook source
	QueueDepths map[string]int64 `json:"queue_depths"`

	// StatusCounts is the number of events in each lifecycle status
	StatusCounts map[string]int64 `json:"status_counts"`

	// DueNow is the number of events leasable at collection time
	DueNow int64 `json:"due_now"`

	// DeadLetters is the number of dead-lettered events held for review
	DeadLetters int64 `json:"dead_letters"`

	// AckedTotal is the number of events acknowledged since startup
	AckedTotal int64 `json:"acked_total"`

	// Throughput represents events applied per time window
	Throughput ThroughputMetrics `json:"throughput"`

	// Workers lists dispatcher workers with a live heartbeat
	Workers []WorkerInfo `json:"workers"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// ThroughputMetrics represents events applied over different time windows.
type ThroughputMetrics struct {
	// LastMinute is events applied in the last 1 minute
	LastMinute int64 `json:"last_minute"`

	// LastFiveMinutes is events applied in the last 5 minutes
	LastFiveMinutes int64 `json:"last_five_minutes"`

	// LastFifteenMinutes is events applied in the last 15 minutes
	LastFifteenMinutes int64 `json:"last_fifteen_minutes"`
}

// WorkerInfo represents information about an active dispatcher worker.
type WorkerInfo struct {
	// WorkerID is a unique identifier for the worker
	WorkerID string `json:"worker_id"`

	// Status is the current status of the worker (e.g., "idle", "processing")
	Status string `json:"status"`

	// LastHeartbeat is the timestamp of the last heartbeat
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// Collector defines the interface for collecting metrics from the pipeline.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// GetQueueDepth returns the size of the active event set
	GetQueueDepth(ctx context.Context) (int64, error)

	// GetQueueDepths returns the active event count for each source
	GetQueueDepths(ctx context.Context) (map[string]int64, error)

	// GetStatusCounts returns event counts grouped by lifecycle status
	GetStatusCounts(ctx context.Context) (map[string]int64, error)

	// GetDeadLetterCount returns the number of dead-lettered events
	GetDeadLetterCount(ctx context.Context) (int64, error)

	// GetThroughput returns events applied over time windows
	GetThroughput(ctx context.Context) (ThroughputMetrics, error)

	// GetActiveWorkers returns information about live dispatcher workers
	GetActiveWorkers(ctx context.Context) ([]WorkerInfo, error)
}
