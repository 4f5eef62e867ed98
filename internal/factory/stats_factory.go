package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/llm-threat-scanner/internal/adapters/stats"
	"github.com/mikey/llm-threat-scanner/internal/config"
	"github.com/mikey/llm-threat-scanner/internal/ports"
	"go.uber.org/zap"
)

// StatsFactory creates statistics repositories based on configuration
type StatsFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStatsFactory creates a new stats factory
func NewStatsFactory(cfg *config.Config, logger *zap.Logger) *StatsFactory {
	return &StatsFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStatsRepository creates a statistics repository based on the configuration
func (f *StatsFactory) CreateStatsRepository() (ports.StatsRepository, error) {
	statsConfig := f.cfg.GetStats()

	switch statsConfig.Type {
	case "", "memory":
		return stats.NewMemoryStats(f.logger), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(statsConfig.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return stats.NewSQLiteStats(statsConfig.SQLitePath, f.logger)
	case "mysql":
		return stats.NewMySQLStats(statsConfig.MySQLDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported stats type: %s", statsConfig.Type)
	}
}
