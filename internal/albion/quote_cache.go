package albion

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"albion-trader/internal/logger"
)

// Entry is the cached payload of one category together with its fetch time.
// A zero FetchedAt means the category was never fetched successfully.
type Entry[T any] struct {
	Payload   T
	FetchedAt time.Time
}

// Fetched reports whether the entry holds a successful fetch.
func (e Entry[T]) Fetched() bool { return !e.FetchedAt.IsZero() }

// RefreshCache is a per-category cache that refetches at most once per interval.
// Payload and timestamp are swapped together under the lock, and a
// singleflight.Group collapses concurrent refreshes of the same key into one call.
type RefreshCache[T any] struct {
	tag      string
	interval time.Duration

	mu      sync.RWMutex
	entries map[string]Entry[T]
	group   singleflight.Group

	now func() time.Time
}

// NewRefreshCache creates an empty cache; tag prefixes its log lines.
func NewRefreshCache[T any](tag string, interval time.Duration) *RefreshCache[T] {
	return &RefreshCache[T]{
		tag:      tag,
		interval: interval,
		entries:  make(map[string]Entry[T]),
		now:      time.Now,
	}
}

// QuoteStore caches raw price snapshots per category.
type QuoteStore = RefreshCache[[]RawQuote]

// NewQuoteStore creates the quote cache with the given minimum refresh interval.
func NewQuoteStore(interval time.Duration) *QuoteStore {
	return NewRefreshCache[[]RawQuote]("QUOTES", interval)
}

// GoldStore caches the gold exchange series.
type GoldStore = RefreshCache[[]GoldPoint]

// NewGoldStore creates the gold series cache.
func NewGoldStore(interval time.Duration) *GoldStore {
	return NewRefreshCache[[]GoldPoint]("GOLD", interval)
}

// Peek returns the cached entry without refreshing.
func (c *RefreshCache[T]) Peek(key string) Entry[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[key]
}

// Due reports whether key would be refetched by GetOrRefresh right now.
func (c *RefreshCache[T]) Due(key string) bool {
	e := c.Peek(key)
	return !e.Fetched() || c.now().Sub(e.FetchedAt) > c.interval
}

// GetOrRefresh returns the entry for key, calling fetch first when more than the
// interval has passed since the last successful fetch:
//  1. Not due → the cached entry, untouched (zero Entry if never fetched)
//  2. Due, fetch succeeds → payload and timestamp replaced together
//  3. Due, fetch fails → previous entry returned with a FetchError; nothing is updated
func (c *RefreshCache[T]) GetOrRefresh(ctx context.Context, key string, fetch func(context.Context) (T, error)) (Entry[T], error) {
	e, _, err := c.Refresh(ctx, key, fetch)
	return e, err
}

// Refresh is GetOrRefresh that also reports whether this call ran fetch and
// stored its result. Callers that joined another caller's in-flight fetch, or
// found the key already refreshed, get false.
func (c *RefreshCache[T]) Refresh(ctx context.Context, key string, fetch func(context.Context) (T, error)) (Entry[T], bool, error) {
	if !c.Due(key) {
		e := c.Peek(key)
		logger.Debug(c.tag, fmt.Sprintf("HIT %s (age %s)", key, c.now().Sub(e.FetchedAt).Round(time.Second)))
		return e, false, nil
	}

	stored := false
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have refreshed while we waited to enter the group.
		if !c.Due(key) {
			return c.Peek(key), nil
		}
		payload, err := fetch(ctx)
		if err != nil {
			return c.Peek(key), asFetchError(key, err)
		}
		e := Entry[T]{Payload: payload, FetchedAt: c.now()}
		c.mu.Lock()
		c.entries[key] = e
		c.mu.Unlock()
		stored = true
		logger.Success(c.tag, fmt.Sprintf("%s updated", key))
		return e, nil
	})
	if err != nil {
		logger.Warn(c.tag, fmt.Sprintf("%s refresh failed, keeping cached data: %v", key, err))
	}
	return v.(Entry[T]), stored, err
}

// Ages returns the age of every fetched key.
func (c *RefreshCache[T]) Ages() map[string]time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	out := make(map[string]time.Duration, len(c.entries))
	for k, e := range c.entries {
		out[k] = now.Sub(e.FetchedAt)
	}
	return out
}

// Keys returns the fetched keys in sorted order.
func (c *RefreshCache[T]) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear drops all entries and returns how many were removed.
func (c *RefreshCache[T]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]Entry[T])
	return n
}
