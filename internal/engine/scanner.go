package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"albion-trader/internal/albion"
	"albion-trader/internal/catalog"
	"albion-trader/internal/config"
	"albion-trader/internal/logger"
)

// ErrUnknownCategory is returned for a category key the catalog does not define.
var ErrUnknownCategory = errors.New("unknown category")

// Source is the upstream price service.
type Source interface {
	FetchPrices(ctx context.Context, itemIDs, locations []string) ([]albion.RawQuote, error)
	FetchGold(ctx context.Context, count int) ([]albion.GoldPoint, error)
	albion.HistorySource
}

// Journal records refresh cycles that brought new data.
type Journal interface {
	RecordScan(view *MarketView) (int64, error)
}

// Scanner composes the caches, the normalizer and the rules into one refresh cycle.
type Scanner struct {
	Catalog *catalog.Catalog
	Quotes  *albion.QuoteStore
	Gold    *albion.GoldStore
	History *albion.HistoryStore
	Journal Journal

	src       Source
	goldCount int
	ohlc      OHLCOptions
	now       func() time.Time
}

// NewScanner wires a scanner from cfg. Journal is optional and set by the caller.
func NewScanner(cfg *config.Config, cat *catalog.Catalog, src Source) *Scanner {
	return &Scanner{
		Catalog:   cat,
		Quotes:    albion.NewQuoteStore(cfg.QuoteRefreshInterval),
		Gold:      albion.NewGoldStore(cfg.QuoteRefreshInterval),
		History:   albion.NewHistoryStore(src, cfg.HistoryTTL, cfg.HistoryBuckets, cfg.HistoryWindow),
		src:       src,
		goldCount: cfg.GoldCount,
		ohlc: OHLCOptions{
			Buckets:  cfg.OHLCBuckets,
			MinPrice: cfg.GoldMinPrice,
			MaxPrice: cfg.GoldMaxPrice,
		},
		now: time.Now,
	}
}

// Scan returns the market view of a category, refreshing its quotes when the
// refresh interval has passed. Fetch failures do not fail the scan; they are
// reported in MarketView.Warning next to the previous (possibly empty) data.
func (s *Scanner) Scan(ctx context.Context, key string) (*MarketView, error) {
	cat, ok := s.Catalog.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, key)
	}

	locations := make([]string, len(cat.Locations))
	for i, l := range cat.Locations {
		locations[i] = string(l)
	}
	entry, stored, fetchErr := s.Quotes.Refresh(ctx, key, func(ctx context.Context) ([]albion.RawQuote, error) {
		return s.src.FetchPrices(ctx, cat.ItemIDs(), locations)
	})

	view := s.render(cat, entry)
	view.Refreshed = stored
	if fetchErr != nil {
		view.Warning = fetchErr.Error()
	}

	if view.Refreshed && s.Journal != nil && len(view.Items) > 0 {
		id, err := s.Journal.RecordScan(view)
		if err != nil {
			logger.Warn("SCAN", fmt.Sprintf("journal %s: %v", key, err))
		} else {
			view.ScanID = id
		}
	}
	return view, nil
}

// View renders the cached quotes of a category without contacting upstream.
func (s *Scanner) View(key string) (*MarketView, error) {
	cat, ok := s.Catalog.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, key)
	}
	return s.render(cat, s.Quotes.Peek(key)), nil
}

func (s *Scanner) render(cat *catalog.Category, entry albion.Entry[[]albion.RawQuote]) *MarketView {
	view := &MarketView{
		Category:  cat.Key,
		Title:     cat.Title,
		Locations: cat.Locations,
		Rule:      cat.Rule,
		FetchedAt: entry.FetchedAt,
		Items:     []ItemView{},
	}
	now := s.now()
	table := Normalize(entry.Payload, cat.Locations, cat.ItemIDs())
	for _, row := range table.Rows {
		item := s.evaluate(cat, row, now)
		if item.Error != "" {
			view.Errors = append(view.Errors, item.Error)
			logger.Error("SCAN", fmt.Sprintf("%s: %s", cat.Key, item.Error))
		}
		view.Items = append(view.Items, item)
	}
	return view
}

func (s *Scanner) evaluate(cat *catalog.Category, row Row, now time.Time) ItemView {
	item := ItemView{
		ItemID:  row.ItemID,
		IconURL: catalog.IconURL(row.ItemID),
		Prices:  make(map[catalog.Location]int64, len(row.Quotes)),
		Quotes:  row.Quotes,
	}
	for loc, q := range row.Quotes {
		item.Prices[loc] = q.SellPriceMin
	}

	name, err := catalog.FormatItemID(row.ItemID, cat.Label(row.ItemID))
	if err != nil {
		item.Name = row.ItemID
		item.Error = err.Error()
	} else {
		item.Name = name
	}

	rec, err := Recommend(cat.Rule, row)
	if err != nil {
		item.Error = err.Error()
		return item
	}
	ago, err := TimeAgo(rec.Date, now)
	if err != nil {
		if item.Error == "" {
			item.Error = fmt.Sprintf("%s: %v", row.ItemID, err)
		}
	} else {
		rec.TimeAgo = ago
	}
	item.Recommendation = rec
	return item
}

// ScanAll scans every category in catalog order.
func (s *Scanner) ScanAll(ctx context.Context) []*MarketView {
	var views []*MarketView
	for _, c := range s.Catalog.Categories() {
		v, err := s.Scan(ctx, c.Key)
		if err != nil {
			continue
		}
		views = append(views, v)
	}
	return views
}

// Indicator classifies price against the cached averages of (itemID, location).
// Errors are albion.ErrFetchFailure or ErrEmptyHistory so callers can tell
// "no data yet" from "upstream broken".
func (s *Scanner) Indicator(ctx context.Context, itemID string, location catalog.Location, price int64) (Indicator, error) {
	a, err := s.History.Get(ctx, itemID, string(location))
	if err != nil {
		return Indicator{}, err
	}
	return NewIndicator(a, price), nil
}

// GoldOHLC returns the bucketed gold series. A fetch failure with no cached
// series yields ErrEmptyHistory with the warning set.
func (s *Scanner) GoldOHLC(ctx context.Context) (*GoldView, error) {
	entry, fetchErr := s.Gold.GetOrRefresh(ctx, catalog.GoldKey, func(ctx context.Context) ([]albion.GoldPoint, error) {
		return s.src.FetchGold(ctx, s.goldCount)
	})
	view := &GoldView{FetchedAt: entry.FetchedAt, Points: len(entry.Payload), Buckets: []Bucket{}}
	if fetchErr != nil {
		view.Warning = fetchErr.Error()
	}

	series, err := GoldSeries(entry.Payload, s.ohlc)
	if err != nil {
		return view, err
	}
	buckets, err := Aggregate(series, s.ohlc)
	if err != nil {
		return view, err
	}
	view.Buckets = buckets
	return view, nil
}
