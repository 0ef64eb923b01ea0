package albion

import (
	"context"
	"fmt"
)

// GoldPoint is one sample of the silver-per-gold exchange rate.
type GoldPoint struct {
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
}

// GoldURL builds the gold series request path.
func GoldURL(count int) string {
	return fmt.Sprintf("/stats/gold?count=%d", count)
}

// FetchGold fetches the latest count gold samples.
func (c *Client) FetchGold(ctx context.Context, count int) ([]GoldPoint, error) {
	var points []GoldPoint
	if err := c.GetJSON(ctx, "gold", GoldURL(count), &points); err != nil {
		return nil, err
	}
	return points, nil
}
