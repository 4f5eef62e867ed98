package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/llm-threat-scanner/internal/core"
	"go.uber.org/zap"
)

// sqlStats stores the counters as a single row. The dialect specific
// statements are supplied by the SQLite and MySQL constructors.
type sqlStats struct {
	db         *sql.DB
	selectStmt string
	upsertStmt string
	now        func() time.Time
	logger     *zap.Logger
}

// Record counts one completed classification
func (s *sqlStats) Record(ctx context.Context, verdict *core.ThreatVerdict) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin stats transaction: %w", err)
	}
	defer tx.Rollback()

	stats, err := s.load(ctx, tx)
	if err != nil {
		return err
	}

	stats.Apply(verdict, s.now())

	_, err = tx.ExecContext(ctx, s.upsertStmt,
		stats.EmailsScanned, stats.ThreatsBlocked, stats.SpamCount,
		stats.PhishingCount, stats.ScamCount, stats.LastScanDate)
	if err != nil {
		return fmt.Errorf("failed to store stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stats: %w", err)
	}

	s.logger.Debug("Recorded scan statistics",
		zap.Int64("emails_scanned", stats.EmailsScanned),
		zap.Int64("threats_blocked", stats.ThreatsBlocked))

	return nil
}

// Snapshot returns the current counters
func (s *sqlStats) Snapshot(ctx context.Context) (core.Stats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Stats{}, fmt.Errorf("failed to begin stats transaction: %w", err)
	}
	defer tx.Rollback()

	stats, err := s.load(ctx, tx)
	if err != nil {
		return core.Stats{}, err
	}
	return *stats, nil
}

func (s *sqlStats) load(ctx context.Context, tx *sql.Tx) (*core.Stats, error) {
	var stats core.Stats
	err := tx.QueryRowContext(ctx, s.selectStmt).Scan(
		&stats.EmailsScanned, &stats.ThreatsBlocked, &stats.SpamCount,
		&stats.PhishingCount, &stats.ScamCount, &stats.LastScanDate)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	return &stats, nil
}

// Close closes the database connection
func (s *sqlStats) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close stats database: %w", err)
	}
	return nil
}
