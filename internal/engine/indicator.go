package engine

import (
	"fmt"

	"albion-trader/internal/albion"
)

// Trend marks whether the current price sits above an average.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
)

// Marker returns the glyph shown next to an average.
func (t Trend) Marker() string {
	if t == TrendRising {
		return "🔺"
	}
	return "🔻"
}

// Indicator classifies a current price against the cached daily and 7-day averages.
type Indicator struct {
	albion.Averages
	CurrentPrice int64 `json:"current_price"`
	Daily        Trend `json:"daily"`
	Weekly       Trend `json:"weekly"`
}

// NewIndicator compares price against a; each average is judged independently
// and only a strictly higher price counts as rising.
func NewIndicator(a albion.Averages, price int64) Indicator {
	trend := func(avg int64) Trend {
		if price > avg {
			return TrendRising
		}
		return TrendFalling
	}
	return Indicator{
		Averages:     a,
		CurrentPrice: price,
		Daily:        trend(a.DailyAvg),
		Weekly:       trend(a.SevenDayAvg),
	}
}

// String renders the compact badge, e.g. "[D:🔺118 7d:🔻120]".
func (i Indicator) String() string {
	return fmt.Sprintf("[D:%s%d 7d:%s%d]", i.Daily.Marker(), i.DailyAvg, i.Weekly.Marker(), i.SevenDayAvg)
}
