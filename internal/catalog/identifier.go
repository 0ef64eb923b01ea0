package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedIdentifier means an item ID no longer follows the T<tier>_<NAME>[_LEVEL<n>][@<n>] shape.
// It usually signals a catalog or upstream contract change and must not be defaulted away.
var ErrMalformedIdentifier = errors.New("malformed item identifier")

// IdentifierError carries the offending ID.
type IdentifierError struct {
	ID     string
	Reason string
}

func (e *IdentifierError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrMalformedIdentifier, e.ID, e.Reason)
}

func (e *IdentifierError) Unwrap() error { return ErrMalformedIdentifier }

// ItemID is a parsed catalog identifier.
type ItemID struct {
	Tier    int
	Base    string // e.g. "HIDE", "LEATHER", "RUNE"
	Enchant int    // 0..4
}

var idPattern = regexp.MustCompile(`^T(\d)_([A-Z]+(?:_[A-Z]+)*?)(?:_LEVEL(\d))?(?:@(\d))?$`)

// ParseItemID splits an upstream item ID into tier, base name and enchant level.
func ParseItemID(id string) (ItemID, error) {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return ItemID{}, &IdentifierError{ID: id, Reason: "does not match T<tier>_<NAME>[_LEVEL<n>]"}
	}
	if strings.HasSuffix(m[2], "_LEVEL") {
		return ItemID{}, &IdentifierError{ID: id, Reason: "enchant suffix without a level"}
	}
	tier, _ := strconv.Atoi(m[1])
	if tier < 1 || tier > 8 {
		return ItemID{}, &IdentifierError{ID: id, Reason: "tier out of range"}
	}

	enchant := 0
	if m[3] != "" {
		enchant, _ = strconv.Atoi(m[3])
		if enchant < 1 || enchant > 4 {
			return ItemID{}, &IdentifierError{ID: id, Reason: "enchant level out of range"}
		}
	}
	if m[4] != "" {
		marker, _ := strconv.Atoi(m[4])
		if marker != enchant {
			return ItemID{}, &IdentifierError{ID: id, Reason: "@ marker disagrees with enchant level"}
		}
	}
	return ItemID{Tier: tier, Base: m[2], Enchant: enchant}, nil
}

// FormatItemID renders an ID as "<tier>.<enchant> <label>", e.g. "6.2 Hide".
func FormatItemID(id, label string) (string, error) {
	p, err := ParseItemID(id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d.%d %s", p.Tier, p.Enchant, label), nil
}

// IconURL returns the render service URL for an item icon.
func IconURL(id string) string {
	return "https://render.albiononline.com/v1/item/" + id + ".png?size=32"
}
