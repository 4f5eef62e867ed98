// Package settings holds the user settings on the host side.
package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/mikey/llm-threat-scanner/internal/core"
	"go.uber.org/zap"
)

// Store is an in-memory settings store seeded from configuration
type Store struct {
	mu      sync.RWMutex
	current core.Settings
	logger  *zap.Logger
}

// NewStore creates a new settings store holding initial
func NewStore(initial core.Settings, logger *zap.Logger) *Store {
	return &Store{
		current: initial,
		logger:  logger,
	}
}

// Get returns the current settings
func (s *Store) Get(_ context.Context) (core.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current, nil
}

// Set replaces the settings. The threat threshold must be low, medium or high.
func (s *Store) Set(_ context.Context, settings core.Settings) error {
	if !settings.ThreatThreshold.ValidThreshold() {
		return fmt.Errorf("invalid threat threshold %q", settings.ThreatThreshold)
	}

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()

	s.logger.Info("Settings updated",
		zap.Bool("enabled", settings.Enabled),
		zap.String("scan_mode", settings.ScanMode),
		zap.String("threat_threshold", string(settings.ThreatThreshold)),
		zap.Bool("privacy_mode", settings.PrivacyMode))

	return nil
}
