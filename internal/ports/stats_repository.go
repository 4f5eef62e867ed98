package ports

import (
	"context"

	"github.com/mikey/llm-threat-scanner/internal/core"
)

// StatsRepository defines the interface for the scan statistics store
type StatsRepository interface {
	// Record counts one completed classification
	Record(ctx context.Context, verdict *core.ThreatVerdict) error

	// Snapshot returns the current counters
	Snapshot(ctx context.Context) (core.Stats, error)

	// Close releases the underlying store
	Close() error
}
