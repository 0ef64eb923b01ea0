package db

import (
	"database/sql"
	"fmt"

	"albion-trader/internal/engine"
)

// RecommendationRecord is one journaled per-item decision.
type RecommendationRecord struct {
	ScanID   int64  `json:"scan_id"`
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Price    int64  `json:"price"`
	Action   string `json:"action"`
	Date     string `json:"date"`
	NoMarket bool   `json:"no_market"`
	Error    string `json:"error,omitempty"`
}

func insertRecommendations(tx *sql.Tx, scanID int64, items []engine.ItemView) error {
	if len(items) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`INSERT INTO recommendations (
		scan_id, item_id, name, location, price, action, date, no_market, error
	) VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare recommendations: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		r := it.Recommendation
		if _, err := stmt.Exec(
			scanID, it.ItemID, it.Name, string(r.Location), r.Price,
			string(r.Action), r.Date, r.NoMarket, it.Error,
		); err != nil {
			return fmt.Errorf("insert recommendation %s: %w", it.ItemID, err)
		}
	}
	return nil
}

// GetRecommendations retrieves the decisions journaled for a scan, in catalog order.
func (d *DB) GetRecommendations(scanID int64) []RecommendationRecord {
	rows, err := d.sql.Query(`
		SELECT scan_id, item_id, name, location, price, action, date, no_market, error
		FROM recommendations WHERE scan_id = ? ORDER BY id
	`, scanID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var results []RecommendationRecord
	for rows.Next() {
		var r RecommendationRecord
		if err := rows.Scan(
			&r.ScanID, &r.ItemID, &r.Name, &r.Location, &r.Price,
			&r.Action, &r.Date, &r.NoMarket, &r.Error,
		); err != nil {
			continue
		}
		results = append(results, r)
	}
	return results
}
