package stats

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLStats is a MySQL implementation of the StatsRepository interface
type MySQLStats struct {
	*sqlStats
}

// NewMySQLStats connects to the statistics database
func NewMySQLStats(dsn string, logger *zap.Logger) (*MySQLStats, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS threat_stats (
			id TINYINT PRIMARY KEY,
			emails_scanned BIGINT NOT NULL DEFAULT 0,
			threats_blocked BIGINT NOT NULL DEFAULT 0,
			spam_count BIGINT NOT NULL DEFAULT 0,
			phishing_count BIGINT NOT NULL DEFAULT 0,
			scam_count BIGINT NOT NULL DEFAULT 0,
			last_scan_date VARCHAR(10) NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStats{&sqlStats{
		db: db,
		selectStmt: `
			SELECT emails_scanned, threats_blocked, spam_count, phishing_count, scam_count, last_scan_date
			FROM threat_stats
			WHERE id = 1
			FOR UPDATE
		`,
		upsertStmt: `
			INSERT INTO threat_stats
				(id, emails_scanned, threats_blocked, spam_count, phishing_count, scam_count, last_scan_date)
			VALUES (1, ?, ?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				emails_scanned = VALUES(emails_scanned),
				threats_blocked = VALUES(threats_blocked),
				spam_count = VALUES(spam_count),
				phishing_count = VALUES(phishing_count),
				scam_count = VALUES(scam_count),
				last_scan_date = VALUES(last_scan_date)
		`,
		now:    time.Now,
		logger: logger,
	}}, nil
}
