package db

import (
	"database/sql"
	"fmt"

	"albion-trader/internal/logger"
	_ "modernc.org/sqlite"
)

// MemoryDSN keeps the journal for the lifetime of the process only.
const MemoryDSN = ":memory:"

// DB wraps a SQLite database connection.
type DB struct {
	sql *sql.DB
}

// Open opens the SQLite database at dsn and runs migrations.
// An in-memory database exists per connection, so the pool is pinned to one.
func Open(dsn string) (*DB, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	sqlDB, err := sql.Open("sqlite", dsn+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", dsn))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	// Try to read current version
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS scan_history (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp  TEXT NOT NULL,
				category   TEXT NOT NULL,
				title      TEXT NOT NULL,
				fetched_at TEXT NOT NULL,
				item_count INTEGER NOT NULL,
				warning    TEXT NOT NULL DEFAULT ''
			);
			CREATE INDEX IF NOT EXISTS idx_scan_history_category ON scan_history(category);

			CREATE TABLE IF NOT EXISTS recommendations (
				id        INTEGER PRIMARY KEY AUTOINCREMENT,
				scan_id   INTEGER NOT NULL REFERENCES scan_history(id) ON DELETE CASCADE,
				item_id   TEXT NOT NULL,
				name      TEXT NOT NULL,
				location  TEXT NOT NULL,
				price     INTEGER NOT NULL,
				action    TEXT NOT NULL,
				date      TEXT NOT NULL,
				no_market INTEGER NOT NULL DEFAULT 0,
				error     TEXT NOT NULL DEFAULT ''
			);
			CREATE INDEX IF NOT EXISTS idx_recommendations_scan ON recommendations(scan_id);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1")
	}

	return nil
}
