package engine

import (
	"albion-trader/internal/albion"
	"albion-trader/internal/catalog"
)

// Quote is the per-location slice of a RawQuote the rules work with.
type Quote struct {
	SellPriceMin     int64  `json:"sell_price_min"`
	SellPriceMinDate string `json:"sell_price_min_date"`
	BuyPriceMax      int64  `json:"buy_price_max"`
	BuyPriceMaxDate  string `json:"buy_price_max_date"`
}

// missingQuote stands in for a location the price service returned nothing for.
var missingQuote = Quote{
	SellPriceMinDate: albion.SentinelDate,
	BuyPriceMaxDate:  albion.SentinelDate,
}

// Row is one item with a quote for every queried location.
type Row struct {
	ItemID string                      `json:"item_id"`
	Quotes map[catalog.Location]Quote `json:"quotes"`
}

// Quote returns the quote at loc; locations outside the query read as a missing market.
func (r Row) Quote(loc catalog.Location) Quote {
	if q, ok := r.Quotes[loc]; ok {
		return q
	}
	return missingQuote
}

// Table is the normalized snapshot of one category.
type Table struct {
	Locations []catalog.Location
	Rows      []Row
	index     map[string]int
}

// Get returns the row for itemID.
func (t *Table) Get(itemID string) (Row, bool) {
	i, ok := t.index[itemID]
	if !ok {
		return Row{}, false
	}
	return t.Rows[i], true
}

// Normalize pivots flat quotes into one row per item keyed by location.
// Every item seen in quotes gets exactly len(locations) entries, missing ones
// defaulted to price 0 and the sentinel date. An item quoted only in cities
// outside locations still gets its defaulted row; those cities' quotes are
// dropped. A repeated (item, city) pair keeps the last record.
// Rows follow order first; items not in order are appended as first seen.
func Normalize(quotes []albion.RawQuote, locations []catalog.Location, order []string) *Table {
	wanted := make(map[catalog.Location]bool, len(locations))
	for _, l := range locations {
		wanted[l] = true
	}

	byItem := make(map[string]map[catalog.Location]Quote)
	var seen []string
	for _, q := range quotes {
		m, ok := byItem[q.ItemID]
		if !ok {
			m = make(map[catalog.Location]Quote, len(locations))
			for _, l := range locations {
				m[l] = missingQuote
			}
			byItem[q.ItemID] = m
			seen = append(seen, q.ItemID)
		}
		loc := catalog.Location(q.City)
		if !wanted[loc] {
			continue
		}
		m[loc] = Quote{
			SellPriceMin:     q.SellPriceMin,
			SellPriceMinDate: orSentinel(q.SellPriceMinDate),
			BuyPriceMax:      q.BuyPriceMax,
			BuyPriceMaxDate:  orSentinel(q.BuyPriceMaxDate),
		}
	}

	t := &Table{Locations: locations, index: make(map[string]int, len(byItem))}
	add := func(id string) {
		if _, done := t.index[id]; done {
			return
		}
		m, ok := byItem[id]
		if !ok {
			return
		}
		t.index[id] = len(t.Rows)
		t.Rows = append(t.Rows, Row{ItemID: id, Quotes: m})
	}
	for _, id := range order {
		add(id)
	}
	for _, id := range seen {
		add(id)
	}
	return t
}

func orSentinel(date string) string {
	if date == "" {
		return albion.SentinelDate
	}
	return date
}
