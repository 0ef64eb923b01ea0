package engine

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"albion-trader/internal/albion"
)

// ErrEmptyHistory means too few points survived filtering to span any time.
// It is the same sentinel the History Store reports.
var ErrEmptyHistory = albion.ErrEmptyHistory

// PricePoint is one sample of a time series.
type PricePoint struct {
	Time  time.Time `json:"timestamp"`
	Price float64   `json:"price"`
}

// Bucket is one OHLC candle.
type Bucket struct {
	Start time.Time `json:"bucket_start"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
	Count int       `json:"count"`
}

// OHLCOptions fixes the bucket count and the sanity band; both bounds are exclusive.
type OHLCOptions struct {
	Buckets  int
	MinPrice float64
	MaxPrice float64
}

func (o OHLCOptions) inBand(price float64) bool {
	return price > o.MinPrice && price < o.MaxPrice
}

// DefaultOHLCOptions is 30 buckets over prices strictly between 1000 and 20000.
func DefaultOHLCOptions() OHLCOptions {
	return OHLCOptions{Buckets: 30, MinPrice: 1000, MaxPrice: 20000}
}

// GoldSeries converts raw gold samples into price points. Samples outside the
// sanity band of opts are dropped before their timestamps are looked at, so an
// outlier with a bad date never fails the series.
func GoldSeries(raw []albion.GoldPoint, opts OHLCOptions) ([]PricePoint, error) {
	out := make([]PricePoint, 0, len(raw))
	for _, p := range raw {
		if !opts.inBand(p.Price) {
			continue
		}
		t, known, err := ParseTimestamp(p.Timestamp)
		if err != nil {
			return nil, err
		}
		if !known {
			return nil, fmt.Errorf("%w: gold sample without timestamp", ErrMalformedTimestamp)
		}
		out = append(out, PricePoint{Time: t, Price: p.Price})
	}
	return out, nil
}

// Aggregate filters outliers, splits the covered time span into opts.Buckets
// equal intervals and summarizes each non-empty interval, oldest first.
// The last point is clamped into the final bucket.
func Aggregate(points []PricePoint, opts OHLCOptions) ([]Bucket, error) {
	if opts.Buckets <= 0 {
		opts.Buckets = DefaultOHLCOptions().Buckets
	}

	kept := make([]PricePoint, 0, len(points))
	for _, p := range points {
		if opts.inBand(p.Price) {
			kept = append(kept, p)
		}
	}
	if len(kept) < 2 {
		return nil, fmt.Errorf("%w: %d points after filtering", ErrEmptyHistory, len(kept))
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Time.Before(kept[j].Time) })

	start := kept[0].Time
	span := kept[len(kept)-1].Time.Sub(start)
	if span <= 0 {
		return nil, fmt.Errorf("%w: all points share one timestamp", ErrEmptyHistory)
	}
	width := span / time.Duration(opts.Buckets)
	if width <= 0 {
		width = 1
	}

	prices := make([][]float64, opts.Buckets)
	for _, p := range kept {
		idx := int(p.Time.Sub(start) / width)
		if idx >= opts.Buckets {
			idx = opts.Buckets - 1
		}
		prices[idx] = append(prices[idx], p.Price)
	}

	var out []Bucket
	for i, ps := range prices {
		if len(ps) == 0 {
			continue
		}
		out = append(out, Bucket{
			Start: start.Add(time.Duration(i) * width),
			Open:  ps[0],
			High:  floats.Max(ps),
			Low:   floats.Min(ps),
			Close: ps[len(ps)-1],
			Count: len(ps),
		})
	}
	return out, nil
}
