package cache

import (
	"context"
	"strconv"
	"sync"

	"github.com/mikey/llm-threat-scanner/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MemoryCache is the session verdict cache. Concurrent misses for one
// fingerprint share a single computation, and failed computations are not
// stored. A computation that started before Clear is not stored either.
type MemoryCache struct {
	entries map[string]*core.ThreatVerdict
	epoch   uint64
	mu      sync.RWMutex
	group   singleflight.Group
	logger  *zap.Logger
}

// NewMemoryCache creates a new in-memory verdict cache
func NewMemoryCache(logger *zap.Logger) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*core.ThreatVerdict),
		logger:  logger,
	}
}

// Get retrieves the cached verdict for a fingerprint
func (c *MemoryCache) Get(fingerprint string) (*core.ThreatVerdict, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	verdict, ok := c.entries[fingerprint]
	return verdict, ok
}

// Put stores a verdict
func (c *MemoryCache) Put(fingerprint string, verdict *core.ThreatVerdict) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[fingerprint] = verdict
}

// GetOrCompute returns the cached verdict for fingerprint, or runs compute
// and stores its result. The boolean is false only for the caller whose
// compute produced the verdict.
func (c *MemoryCache) GetOrCompute(
	ctx context.Context,
	fingerprint string,
	compute func(context.Context) (*core.ThreatVerdict, error),
) (*core.ThreatVerdict, bool, error) {
	if verdict, ok := c.Get(fingerprint); ok {
		return verdict, true, nil
	}

	c.mu.RLock()
	epoch := c.epoch
	c.mu.RUnlock()

	computed := false
	key := strconv.FormatUint(epoch, 10) + "\x00" + fingerprint
	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		// A computation that finished between Get and Do already stored its verdict
		if verdict, ok := c.Get(fingerprint); ok {
			return verdict, nil
		}

		verdict, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		computed = true
		c.putIfEpoch(epoch, fingerprint, verdict)
		return verdict, nil
	})
	if err != nil {
		return nil, false, err
	}

	if shared && !computed {
		c.logger.Debug("Joined in-flight classification", zap.String("fingerprint", fingerprint))
	}

	return v.(*core.ThreatVerdict), !computed, nil
}

func (c *MemoryCache) putIfEpoch(epoch uint64, fingerprint string, verdict *core.ThreatVerdict) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		c.logger.Debug("Dropping verdict computed before clear", zap.String("fingerprint", fingerprint))
		return
	}
	c.entries[fingerprint] = verdict
}

// Clear drops every entry
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := len(c.entries)
	c.entries = make(map[string]*core.ThreatVerdict)
	c.epoch++

	c.logger.Debug("Cleared verdict cache", zap.Int("entries", count))
}

// Len returns the number of cached verdicts
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
