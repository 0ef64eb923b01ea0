package engine

import (
	"time"

	"albion-trader/internal/catalog"
)

// ItemView is one item of a MarketView: display data, raw quotes and the decision.
type ItemView struct {
	ItemID  string `json:"item_id"`
	Name    string `json:"name"`
	IconURL string `json:"icon_url"`
	// Prices is the raw instant (sell_price_min) price per location.
	Prices         map[catalog.Location]int64 `json:"prices"`
	Quotes         map[catalog.Location]Quote `json:"quotes"`
	Recommendation Recommendation             `json:"recommendation"`
	// Error is set when the item could not be formatted or evaluated.
	Error string `json:"error,omitempty"`
}

// MarketView is the outcome of one scan of a category.
type MarketView struct {
	Category  string             `json:"category"`
	Title     string             `json:"title"`
	Locations []catalog.Location `json:"locations"`
	Rule      catalog.Rule       `json:"rule"`
	FetchedAt time.Time          `json:"fetched_at"`
	// Refreshed is true when this scan pulled new quotes from upstream.
	Refreshed bool `json:"refreshed"`
	// Warning carries a non-fatal fetch failure; Items then reflect the previous payload.
	Warning string     `json:"warning,omitempty"`
	Items   []ItemView `json:"items"`
	// Errors lists per-item failures (malformed identifiers or dates).
	Errors []string `json:"errors,omitempty"`
	ScanID int64    `json:"scan_id,omitempty"`
}

// GoldView is the OHLC summary of the gold series.
type GoldView struct {
	FetchedAt time.Time `json:"fetched_at"`
	Warning   string    `json:"warning,omitempty"`
	Points    int       `json:"points"`
	Buckets   []Bucket  `json:"buckets"`
}
