package albion

import (
	"context"
	"net/url"
	"strings"
)

// SentinelDate is what the price service reports when it has never seen a quote.
const SentinelDate = "0001-01-01T00:00:00"

// RawQuote mirrors one record of /stats/prices.
// Dates are kept as strings: the service omits the zone suffix, and parsing is
// the caller's job so a malformed date can be told apart from SentinelDate.
type RawQuote struct {
	ItemID           string `json:"item_id"`
	City             string `json:"city"`
	Quality          int    `json:"quality"`
	SellPriceMin     int64  `json:"sell_price_min"`
	SellPriceMinDate string `json:"sell_price_min_date"`
	SellPriceMax     int64  `json:"sell_price_max"`
	BuyPriceMin      int64  `json:"buy_price_min"`
	BuyPriceMax      int64  `json:"buy_price_max"`
	BuyPriceMaxDate  string `json:"buy_price_max_date"`
}

// PricesURL builds the snapshot quote request path.
func PricesURL(itemIDs, locations []string) string {
	escaped := make([]string, len(locations))
	for i, l := range locations {
		escaped[i] = url.QueryEscape(l)
	}
	return "/stats/prices/" + strings.Join(itemIDs, ",") +
		"?locations=" + strings.Join(escaped, ",") + "&qualities=1"
}

// FetchPrices fetches the current quotes for itemIDs at locations.
func (c *Client) FetchPrices(ctx context.Context, itemIDs, locations []string) ([]RawQuote, error) {
	var quotes []RawQuote
	if err := c.GetJSON(ctx, "prices", PricesURL(itemIDs, locations), &quotes); err != nil {
		return nil, err
	}
	return quotes, nil
}
