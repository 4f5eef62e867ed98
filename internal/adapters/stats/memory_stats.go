package stats

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/llm-threat-scanner/internal/core"
	"go.uber.org/zap"
)

// MemoryStats keeps the counters in process memory
type MemoryStats struct {
	stats  core.Stats
	mu     sync.Mutex
	now    func() time.Time
	logger *zap.Logger
}

// NewMemoryStats creates a new in-memory statistics repository
func NewMemoryStats(logger *zap.Logger) *MemoryStats {
	return &MemoryStats{
		now:    time.Now,
		logger: logger,
	}
}

// Record counts one completed classification
func (s *MemoryStats) Record(_ context.Context, verdict *core.ThreatVerdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Apply(verdict, s.now())
	return nil
}

// Snapshot returns the current counters
func (s *MemoryStats) Snapshot(_ context.Context) (core.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stats, nil
}

// Close is a no-op for the memory repository
func (s *MemoryStats) Close() error {
	return nil
}
