package db

import (
	"fmt"
	"time"

	"albion-trader/internal/engine"
)

// ScanRecord represents one journaled refresh cycle.
type ScanRecord struct {
	ID        int64  `json:"id"`
	Timestamp string `json:"timestamp"`
	Category  string `json:"category"`
	Title     string `json:"title"`
	FetchedAt string `json:"fetched_at"`
	ItemCount int    `json:"item_count"`
	Warning   string `json:"warning,omitempty"`
}

// RecordScan journals a market view and its recommendations, returning the scan ID.
func (d *DB) RecordScan(view *engine.MarketView) (int64, error) {
	tx, err := d.sql.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		"INSERT INTO scan_history (timestamp, category, title, fetched_at, item_count, warning) VALUES (?, ?, ?, ?, ?, ?)",
		time.Now().UTC().Format(time.RFC3339), view.Category, view.Title,
		view.FetchedAt.UTC().Format(time.RFC3339), len(view.Items), view.Warning,
	)
	if err != nil {
		return 0, fmt.Errorf("insert scan: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := insertRecommendations(tx, id, view.Items); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// GetHistory returns the last N scan records (newest first).
func (d *DB) GetHistory(limit int) []ScanRecord {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.Query(
		`SELECT id, timestamp, category, title, fetched_at, item_count, warning
		 FROM scan_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return []ScanRecord{}
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		var r ScanRecord
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Category, &r.Title, &r.FetchedAt, &r.ItemCount, &r.Warning); err != nil {
			continue
		}
		records = append(records, r)
	}
	if records == nil {
		return []ScanRecord{}
	}
	return records
}

// GetHistoryByID returns a single scan record, or nil if it does not exist.
func (d *DB) GetHistoryByID(id int64) *ScanRecord {
	row := d.sql.QueryRow(
		`SELECT id, timestamp, category, title, fetched_at, item_count, warning
		 FROM scan_history WHERE id = ?`,
		id,
	)
	var r ScanRecord
	if err := row.Scan(&r.ID, &r.Timestamp, &r.Category, &r.Title, &r.FetchedAt, &r.ItemCount, &r.Warning); err != nil {
		return nil
	}
	return &r
}

// ClearHistory deletes all scan records and their recommendations.
func (d *DB) ClearHistory() (int64, error) {
	result, err := d.sql.Exec("DELETE FROM scan_history")
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
