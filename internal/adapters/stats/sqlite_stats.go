package stats

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStats is a SQLite implementation of the StatsRepository interface
type SQLiteStats struct {
	*sqlStats
}

// NewSQLiteStats opens or creates the statistics database at dbPath
func NewSQLiteStats(dbPath string, logger *zap.Logger) (*SQLiteStats, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Every connection to ":memory:" would see its own database
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS threat_stats (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			emails_scanned INTEGER NOT NULL DEFAULT 0,
			threats_blocked INTEGER NOT NULL DEFAULT 0,
			spam_count INTEGER NOT NULL DEFAULT 0,
			phishing_count INTEGER NOT NULL DEFAULT 0,
			scam_count INTEGER NOT NULL DEFAULT 0,
			last_scan_date TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteStats{&sqlStats{
		db: db,
		selectStmt: `
			SELECT emails_scanned, threats_blocked, spam_count, phishing_count, scam_count, last_scan_date
			FROM threat_stats
			WHERE id = 1
		`,
		upsertStmt: `
			INSERT OR REPLACE INTO threat_stats
				(id, emails_scanned, threats_blocked, spam_count, phishing_count, scam_count, last_scan_date)
			VALUES (1, ?, ?, ?, ?, ?, ?)
		`,
		now:    time.Now,
		logger: logger,
	}}, nil
}
