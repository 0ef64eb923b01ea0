package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"albion-trader/internal/catalog"
)

// Action is what the trader should do at the recommended location.
type Action string

const (
	ActionBuyInstant Action = "BUY_INSTANT"
	ActionBuyOrder   Action = "BUY_ORDER"
	ActionSell       Action = "SELL"
)

// Recommendation is the per-item decision for one refresh cycle.
// It depends only on the row and the rule, never on history.
type Recommendation struct {
	ItemID   string           `json:"item_id"`
	Location catalog.Location `json:"location"`
	Price    int64            `json:"price"`
	Action   Action           `json:"action"`
	// Date is the quote timestamp behind Price; TimeAgo is derived from it per request.
	Date    string `json:"date"`
	TimeAgo string `json:"time_ago,omitempty"`
	// Inputs are the effective prices that were compared, per location.
	Inputs map[catalog.Location]float64 `json:"inputs"`
	// NoMarket is set when Price is 0: missing data, not a trade signal.
	NoMarket bool `json:"no_market"`
}

var one = decimal.NewFromInt(1)

// BeatsBuy reports whether candidate undercuts reference by more than the hurdle:
// candidate < reference * (1 - hurdle). Equality resolves to false.
func BeatsBuy(candidate, reference, hurdle decimal.Decimal) bool {
	return candidate.LessThan(reference.Mul(one.Sub(hurdle)))
}

// BeatsSell reports whether candidate exceeds reference by more than the hurdle:
// candidate > reference * (1 + hurdle). Equality resolves to false.
func BeatsSell(candidate, reference, hurdle decimal.Decimal) bool {
	return candidate.GreaterThan(reference.Mul(one.Add(hurdle)))
}

// chooseBuy picks remote only when it has a market and either the local market is
// missing or remote clears the hurdle. Everything else, both-missing included, stays local.
func chooseBuy(remote, local, hurdle decimal.Decimal) bool {
	if !remote.IsPositive() {
		return false
	}
	if !local.IsPositive() {
		return true
	}
	return BeatsBuy(remote, local, hurdle)
}

// Recommend evaluates row under rule.
func Recommend(rule catalog.Rule, row Row) (Recommendation, error) {
	var rec Recommendation
	switch rule.Kind {
	case catalog.RuleBuyInstant:
		rec = recommendBuyInstant(rule, row)
	case catalog.RuleBuyOrderOrInstant:
		rec = recommendBuyOrderOrInstant(rule, row)
	case catalog.RuleSellExport:
		rec = recommendSellExport(rule, row)
	default:
		return Recommendation{}, fmt.Errorf("unknown rule kind %q", rule.Kind)
	}
	rec.ItemID = row.ItemID
	rec.NoMarket = rec.Price == 0
	return rec, nil
}

// recommendBuyInstant compares instant (sell_price_min) prices only.
func recommendBuyInstant(rule catalog.Rule, row Row) Recommendation {
	h := decimal.NewFromFloat(rule.Hurdle)
	rq, lq := row.Quote(rule.Remote), row.Quote(rule.Local)

	pick, q := rule.Local, lq
	if chooseBuy(decimal.NewFromInt(rq.SellPriceMin), decimal.NewFromInt(lq.SellPriceMin), h) {
		pick, q = rule.Remote, rq
	}
	return Recommendation{
		Location: pick,
		Price:    q.SellPriceMin,
		Action:   ActionBuyInstant,
		Date:     q.SellPriceMinDate,
		Inputs: map[catalog.Location]float64{
			rule.Remote: float64(rq.SellPriceMin),
			rule.Local:  float64(lq.SellPriceMin),
		},
	}
}

// orderLimit is the price a buy order must be placed at to outbid buy_price_max,
// fee included. ok is false when there is no standing order to outbid.
func orderLimit(q Quote, fee decimal.Decimal) (limit decimal.Decimal, ok bool) {
	if q.BuyPriceMax <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(q.BuyPriceMax).Mul(fee), true
}

// effectiveBuy is min(instant, order*fee) over the markets that exist, zero if none do.
func effectiveBuy(q Quote, fee decimal.Decimal) decimal.Decimal {
	best := decimal.NewFromInt(q.SellPriceMin)
	if limit, ok := orderLimit(q, fee); ok && (!best.IsPositive() || limit.LessThan(best)) {
		best = limit
	}
	if !best.IsPositive() {
		return decimal.Zero
	}
	return best
}

// recommendBuyOrderOrInstant selects the location on effective price, then
// labels the action for that location on its own quotes.
func recommendBuyOrderOrInstant(rule catalog.Rule, row Row) Recommendation {
	h := decimal.NewFromFloat(rule.Hurdle)
	fee := decimal.NewFromFloat(rule.Fee)
	rq, lq := row.Quote(rule.Remote), row.Quote(rule.Local)
	re, le := effectiveBuy(rq, fee), effectiveBuy(lq, fee)

	pick, q := rule.Local, lq
	if chooseBuy(re, le, h) {
		pick, q = rule.Remote, rq
	}

	rec := Recommendation{
		Location: pick,
		Price:    q.SellPriceMin,
		Action:   ActionBuyInstant,
		Date:     q.SellPriceMinDate,
		Inputs: map[catalog.Location]float64{
			rule.Remote: re.InexactFloat64(),
			rule.Local:  le.InexactFloat64(),
		},
	}
	instant := decimal.NewFromInt(q.SellPriceMin)
	if limit, ok := orderLimit(q, fee); ok && (!instant.IsPositive() || limit.LessThan(instant)) {
		rec.Action = ActionBuyOrder
		rec.Price = limit.IntPart()
		rec.Date = q.BuyPriceMaxDate
	}
	return rec
}

// recommendSellExport finds the best export (ties to the earlier export) and
// sells there only when it beats the local price by more than the hurdle.
func recommendSellExport(rule catalog.Rule, row Row) Recommendation {
	h := decimal.NewFromFloat(rule.Hurdle)
	lq := row.Quote(rule.Local)
	inputs := map[catalog.Location]float64{rule.Local: float64(lq.SellPriceMin)}

	var bestLoc catalog.Location
	var bestQ Quote
	for _, loc := range rule.Exports {
		q := row.Quote(loc)
		inputs[loc] = float64(q.SellPriceMin)
		if bestLoc == "" || q.SellPriceMin > bestQ.SellPriceMin {
			bestLoc, bestQ = loc, q
		}
	}

	pick, q := rule.Local, lq
	best := decimal.NewFromInt(bestQ.SellPriceMin)
	if bestLoc != "" && best.IsPositive() && BeatsSell(best, decimal.NewFromInt(lq.SellPriceMin), h) {
		pick, q = bestLoc, bestQ
	}
	return Recommendation{
		Location: pick,
		Price:    q.SellPriceMin,
		Action:   ActionSell,
		Date:     q.SellPriceMinDate,
		Inputs:   inputs,
	}
}
