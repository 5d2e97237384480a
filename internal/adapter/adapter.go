package adapter

import (
	"context"
	"time"

	"tincgraph/internal/domain"
)

// AdapterType defines how an adapter interacts with its data source
type AdapterType string

const (
	// AdapterTypePolling - adapter pulls data on a schedule
	AdapterTypePolling AdapterType = "polling"
	// AdapterTypeOneShot - manual trigger only
	AdapterTypeOneShot AdapterType = "oneshot"
)

// AdapterConfig holds configuration for an adapter instance
type AdapterConfig struct {
	// Enabled determines if the adapter should run
	Enabled bool `json:"enabled"`
	// PollInterval for polling adapters
	PollInterval time.Duration `json:"poll_interval,omitempty"`
}

// Adapter defines the interface for topology sources
type Adapter interface {
	// Name returns the unique identifier for this adapter
	Name() string

	// Type returns how this adapter interacts with its source
	Type() AdapterType

	// Start initializes the adapter (called once on startup)
	Start(ctx context.Context) error

	// Stop gracefully shuts down the adapter
	Stop() error

	// Sync pulls a complete graph from the source
	Sync(ctx context.Context) (*domain.Graph, error)
}

// SkipReporter is implemented by adapters that drop malformed input during Sync
type SkipReporter interface {
	// LastSkipped returns the number of records dropped by the most recent Sync
	LastSkipped() int
}

// Result is the outcome of one sync, passed to the PublishFunc whether or not it succeeded
type Result struct {
	Source    string
	StartedAt time.Time
	Duration  time.Duration
	Graph     *domain.Graph
	Skipped   int
	Err       error
}
