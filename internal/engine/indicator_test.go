package engine

import (
	"testing"

	"albion-trader/internal/albion"
)

func TestNewIndicator(t *testing.T) {
	a := albion.Averages{DailyAvg: 118, SevenDayAvg: 112}
	tests := []struct {
		price      int64
		daily      Trend
		weekly     Trend
		wantString string
	}{
		{120, TrendRising, TrendRising, "[D:🔺118 7d:🔺112]"},
		{115, TrendFalling, TrendRising, "[D:🔻118 7d:🔺112]"},
		{112, TrendFalling, TrendFalling, "[D:🔻118 7d:🔻112]"},
		{118, TrendFalling, TrendRising, "[D:🔻118 7d:🔺112]"},
		{0, TrendFalling, TrendFalling, "[D:🔻118 7d:🔻112]"},
	}
	for _, tt := range tests {
		ind := NewIndicator(a, tt.price)
		if ind.Daily != tt.daily || ind.Weekly != tt.weekly {
			t.Errorf("price %d: daily = %s, weekly = %s; want %s, %s", tt.price, ind.Daily, ind.Weekly, tt.daily, tt.weekly)
		}
		if got := ind.String(); got != tt.wantString {
			t.Errorf("price %d: String() = %q, want %q", tt.price, got, tt.wantString)
		}
	}
}
