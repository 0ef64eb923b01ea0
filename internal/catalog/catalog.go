// Package catalog is the fixed set of trading locations, item categories and
// the decision rule each category is evaluated with.
package catalog

import (
	"fmt"
	"strings"

	"albion-trader/internal/config"
)

// Location is a trading city.
type Location string

const (
	Bridgewatch  Location = "Bridgewatch"
	Martlock     Location = "Martlock"
	Thetford     Location = "Thetford"
	Caerleon     Location = "Caerleon"
	FortSterling Location = "Fort Sterling"
	Lymhurst     Location = "Lymhurst"
)

// Locations lists every known trading city.
var Locations = []Location{Bridgewatch, Martlock, Thetford, Caerleon, FortSterling, Lymhurst}

// ParseLocation matches a city name case-insensitively.
func ParseLocation(name string) (Location, bool) {
	for _, l := range Locations {
		if strings.EqualFold(string(l), strings.TrimSpace(name)) {
			return l, true
		}
	}
	return "", false
}

// Short returns the two-letter code used in compact tables.
func (l Location) Short() string {
	switch l {
	case Bridgewatch:
		return "BW"
	case Martlock:
		return "ML"
	case Thetford:
		return "TF"
	case Caerleon:
		return "CL"
	case FortSterling:
		return "FS"
	case Lymhurst:
		return "LH"
	}
	return string(l)
}

// RuleKind selects one of the hurdle comparisons.
type RuleKind string

const (
	// RuleBuyInstant compares instant prices at a remote and a local location.
	RuleBuyInstant RuleKind = "buy_instant"
	// RuleBuyOrderOrInstant compares min(instant, order*fee) per location.
	RuleBuyOrderOrInstant RuleKind = "buy_order_or_instant"
	// RuleSellExport compares a local sell price against the best of the export candidates.
	RuleSellExport RuleKind = "sell_export"
)

// Rule parameterizes the recommendation for a category.
type Rule struct {
	Kind   RuleKind `json:"kind"`
	Hurdle float64  `json:"hurdle"`
	Fee    float64  `json:"fee,omitempty"` // order placement multiplier, buy_order_or_instant only

	// Local is the default location, chosen on ties and missing markets.
	Local Location `json:"local"`
	// Remote is the transport candidate for buy rules.
	Remote Location `json:"remote,omitempty"`
	// Exports are the sell candidates in tie-break priority order.
	Exports []Location `json:"exports,omitempty"`
}

// Item is a single tradeable catalog entry.
type Item struct {
	ID    string `json:"id"`
	Label string `json:"label"` // category label used by FormatItemID
}

// Category groups items priced together in one upstream request.
type Category struct {
	Key       string     `json:"key"`
	Title     string     `json:"title"`
	Items     []Item     `json:"items"`
	Locations []Location `json:"locations"`
	Rule      Rule       `json:"rule"`
}

// ItemIDs returns the upstream IDs in catalog order.
func (c *Category) ItemIDs() []string {
	ids := make([]string, len(c.Items))
	for i, it := range c.Items {
		ids[i] = it.ID
	}
	return ids
}

// Label returns the display label for an item, falling back to the parsed base name.
func (c *Category) Label(itemID string) string {
	for _, it := range c.Items {
		if it.ID == itemID {
			return it.Label
		}
	}
	if p, err := ParseItemID(itemID); err == nil {
		return p.Base
	}
	return c.Title
}

// Category keys. GoldKey names the exchange-rate series in the quote cache clock.
const (
	HideKey     = "hide"
	LeatherKey  = "leather_high"
	ArtifactKey = "artifacts"
	GoldKey     = "gold"
)

// Catalog is the full set of categories.
type Catalog struct {
	categories []Category
	byKey      map[string]int
}

// New builds the catalog with hurdles and fees taken from cfg.
func New(cfg *config.Config) *Catalog {
	hide := Category{
		Key:       HideKey,
		Title:     "Hide Procurement",
		Items:     tieredItems([]int{4, 5, 6}, "HIDE", "Hide", []int{0, 1, 2}),
		Locations: []Location{Bridgewatch, Martlock},
		Rule: Rule{
			Kind:   RuleBuyOrderOrInstant,
			Hurdle: cfg.HideHurdle,
			Fee:    cfg.OrderFee,
			Local:  Martlock,
			Remote: Bridgewatch,
		},
	}

	leather := Category{
		Key:   LeatherKey,
		Title: "High-Tier Leather Selling",
		Items: []Item{
			{ID: enchanted(4, "LEATHER", 3), Label: "Leather"},
			{ID: enchanted(5, "LEATHER", 2), Label: "Leather"},
			{ID: enchanted(5, "LEATHER", 3), Label: "Leather"},
			{ID: enchanted(6, "LEATHER", 0), Label: "Leather"},
			{ID: enchanted(6, "LEATHER", 1), Label: "Leather"},
			{ID: enchanted(6, "LEATHER", 2), Label: "Leather"},
			{ID: enchanted(7, "LEATHER", 0), Label: "Leather"},
			{ID: enchanted(7, "LEATHER", 1), Label: "Leather"},
			{ID: enchanted(8, "LEATHER", 0), Label: "Leather"},
		},
		Locations: []Location{Martlock, Thetford, Bridgewatch},
		Rule: Rule{
			Kind:    RuleSellExport,
			Hurdle:  cfg.LeatherHurdle,
			Local:   Martlock,
			Exports: []Location{Thetford, Bridgewatch},
		},
	}

	var artifacts []Item
	for _, tier := range []int{5, 6, 7} {
		for _, typ := range []struct{ base, label string }{
			{"RUNE", "Rune"}, {"SOUL", "Soul"}, {"RELIC", "Relic"},
		} {
			artifacts = append(artifacts, Item{ID: enchanted(tier, typ.base, 0), Label: typ.label})
		}
	}
	artifact := Category{
		Key:       ArtifactKey,
		Title:     "Artifact Procurement",
		Items:     artifacts,
		Locations: []Location{Bridgewatch, Caerleon},
		Rule: Rule{
			Kind:   RuleBuyInstant,
			Hurdle: cfg.ArtifactHurdle,
			Local:  Caerleon,
			Remote: Bridgewatch,
		},
	}

	return newCatalog(hide, leather, artifact)
}

func newCatalog(cats ...Category) *Catalog {
	c := &Catalog{categories: cats, byKey: make(map[string]int, len(cats))}
	for i, cat := range cats {
		c.byKey[cat.Key] = i
	}
	return c
}

// Categories returns all categories in display order.
func (c *Catalog) Categories() []Category {
	return c.categories
}

// Get looks up a category by key.
func (c *Catalog) Get(key string) (*Category, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return nil, false
	}
	return &c.categories[i], true
}

// enchanted builds an upstream ID; enchanted variants carry the @n marker the price service expects.
func enchanted(tier int, base string, level int) string {
	if level == 0 {
		return fmt.Sprintf("T%d_%s", tier, base)
	}
	return fmt.Sprintf("T%d_%s_LEVEL%d@%d", tier, base, level, level)
}

func tieredItems(tiers []int, base, label string, levels []int) []Item {
	var items []Item
	for _, t := range tiers {
		for _, l := range levels {
			items = append(items, Item{ID: enchanted(t, base, l), Label: label})
		}
	}
	return items
}
