package albion

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"gonum.org/v1/gonum/stat"

	"albion-trader/internal/logger"
)

// HistoryBucket is one daily average of /stats/history.
type HistoryBucket struct {
	ItemCount int64   `json:"item_count"`
	AvgPrice  float64 `json:"avg_price"`
	Timestamp string  `json:"timestamp"`
}

// HistorySeries is one element of the /stats/history response.
type HistorySeries struct {
	Location string          `json:"location"`
	ItemID   string          `json:"item_id"`
	Quality  int             `json:"quality"`
	Data     []HistoryBucket `json:"data"`
}

// HistoryURL builds the daily history request path for one item at one location.
func HistoryURL(itemID, location string) string {
	return fmt.Sprintf("/stats/history/%s?locations=%s&time-scale=24", itemID, url.QueryEscape(location))
}

// FetchHistory fetches the daily buckets for an item at a location, most recent last.
// Only the first series of the response is used.
func (c *Client) FetchHistory(ctx context.Context, itemID, location string) ([]HistoryBucket, error) {
	var series []HistorySeries
	if err := c.GetJSON(ctx, "history", HistoryURL(itemID, location), &series); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, nil
	}
	return series[0].Data, nil
}

// HistorySource is the upstream the History Store refreshes from.
type HistorySource interface {
	FetchHistory(ctx context.Context, itemID, location string) ([]HistoryBucket, error)
}

// Averages holds the cached daily and 7-day average price for one (item, location).
type Averages struct {
	DailyAvg    int64     `json:"daily_avg"`
	SevenDayAvg int64     `json:"seven_day_avg"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// ComputeAverages keeps the most recent keep buckets, then returns the last bucket's
// average and the mean of the last min(window, n) averages, both rounded half to even.
func ComputeAverages(buckets []HistoryBucket, keep, window int) (daily, sevenDay int64, err error) {
	if len(buckets) == 0 {
		return 0, 0, ErrEmptyHistory
	}

	sorted := make([]HistoryBucket, len(buckets))
	copy(sorted, buckets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})
	if keep > 0 && len(sorted) > keep {
		sorted = sorted[len(sorted)-keep:]
	}
	if window <= 0 || window > len(sorted) {
		window = len(sorted)
	}

	recent := sorted[len(sorted)-window:]
	prices := make([]float64, len(recent))
	for i, b := range recent {
		prices[i] = b.AvgPrice
	}

	daily = int64(math.RoundToEven(sorted[len(sorted)-1].AvgPrice))
	sevenDay = int64(math.RoundToEven(stat.Mean(prices, nil)))
	return daily, sevenDay, nil
}

type historyKey struct {
	ItemID   string
	Location string
}

// HistoryStore caches Averages per (item, location) with its own TTL.
// Failed or empty refreshes are not cached, so the next call retries.
type HistoryStore struct {
	src    HistorySource
	ttl    time.Duration
	keep   int
	window int

	mu      sync.RWMutex
	entries map[historyKey]Averages
	group   singleflight.Group

	now func() time.Time
}

// NewHistoryStore creates a store that keeps keep buckets and averages over window of them.
func NewHistoryStore(src HistorySource, ttl time.Duration, keep, window int) *HistoryStore {
	return &HistoryStore{
		src:     src,
		ttl:     ttl,
		keep:    keep,
		window:  window,
		entries: make(map[historyKey]Averages),
		now:     time.Now,
	}
}

// Peek returns the cached averages without refreshing.
func (h *HistoryStore) Peek(itemID, location string) (Averages, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	a, ok := h.entries[historyKey{itemID, location}]
	return a, ok
}

// Get returns the averages for (itemID, location), refreshing them when absent or older than the TTL.
// Errors are ErrFetchFailure or ErrEmptyHistory; an older cached entry is left untouched.
func (h *HistoryStore) Get(ctx context.Context, itemID, location string) (Averages, error) {
	key := historyKey{itemID, location}
	if a, ok := h.Peek(itemID, location); ok && h.now().Sub(a.FetchedAt) <= h.ttl {
		logger.Debug("HISTORY", fmt.Sprintf("HIT %s@%s", itemID, location))
		return a, nil
	}

	v, err, _ := h.group.Do(itemID+"|"+location, func() (interface{}, error) {
		if a, ok := h.Peek(itemID, location); ok && h.now().Sub(a.FetchedAt) <= h.ttl {
			return a, nil
		}
		buckets, err := h.src.FetchHistory(ctx, itemID, location)
		if err != nil {
			return Averages{}, asFetchError("history", err)
		}
		daily, seven, err := ComputeAverages(buckets, h.keep, h.window)
		if err != nil {
			return Averages{}, err
		}
		a := Averages{DailyAvg: daily, SevenDayAvg: seven, FetchedAt: h.now()}
		h.mu.Lock()
		h.entries[key] = a
		h.mu.Unlock()
		logger.Debug("HISTORY", fmt.Sprintf("MISS %s@%s daily=%d 7d=%d", itemID, location, daily, seven))
		return a, nil
	})
	if err != nil {
		logger.Warn("HISTORY", fmt.Sprintf("%s@%s: %v", itemID, location, err))
		return Averages{}, err
	}
	return v.(Averages), nil
}

// Len returns the number of cached keys.
func (h *HistoryStore) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
