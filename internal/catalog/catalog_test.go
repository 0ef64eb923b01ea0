package catalog

import (
	"errors"
	"testing"

	"albion-trader/internal/config"
)

func TestFormatItemID(t *testing.T) {
	tests := []struct {
		id, label, want string
	}{
		{"T6_HIDE_LEVEL2", "Hide", "6.2 Hide"},
		{"T4_HIDE", "Hide", "4.0 Hide"},
		{"T4_HIDE_LEVEL1@1", "Hide", "4.1 Hide"},
		{"T5_LEATHER_LEVEL3@3", "Leather", "5.3 Leather"},
		{"T8_LEATHER_LEVEL4", "Leather", "8.4 Leather"},
		{"T7_RUNE", "Rune", "7.0 Rune"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := FormatItemID(tt.id, tt.label)
			if err != nil {
				t.Fatalf("FormatItemID(%q) error: %v", tt.id, err)
			}
			if got != tt.want {
				t.Errorf("FormatItemID(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestFormatItemID_Malformed(t *testing.T) {
	bad := []string{
		"",
		"HIDE_T4",
		"T4HIDE",
		"T0_HIDE",
		"T9_HIDE",
		"T4_HIDE_LEVEL5",
		"T4_HIDE_LEVEL0",
		"T4_HIDE_LEVEL",
		"T4_HIDE_LEVEL2@1",
		"T4_HIDE@3",
		"t4_hide",
	}
	for _, id := range bad {
		t.Run(id, func(t *testing.T) {
			_, err := FormatItemID(id, "Hide")
			if !errors.Is(err, ErrMalformedIdentifier) {
				t.Fatalf("FormatItemID(%q) err = %v, want ErrMalformedIdentifier", id, err)
			}
			var ie *IdentifierError
			if !errors.As(err, &ie) || ie.ID != id {
				t.Errorf("error does not carry ID %q: %v", id, err)
			}
		})
	}
}

func TestParseItemID_Fields(t *testing.T) {
	p, err := ParseItemID("T5_LEATHER_LEVEL2@2")
	if err != nil {
		t.Fatalf("ParseItemID: %v", err)
	}
	if p.Tier != 5 || p.Base != "LEATHER" || p.Enchant != 2 {
		t.Errorf("ParseItemID = %+v", p)
	}
}

func TestCatalog_Categories(t *testing.T) {
	cat := New(config.Default())

	hide, ok := cat.Get(HideKey)
	if !ok {
		t.Fatal("hide category missing")
	}
	if len(hide.Items) != 9 {
		t.Errorf("hide items = %d, want 9", len(hide.Items))
	}
	if hide.Items[1].ID != "T4_HIDE_LEVEL1@1" {
		t.Errorf("hide.Items[1] = %q, want T4_HIDE_LEVEL1@1", hide.Items[1].ID)
	}
	if hide.Rule.Kind != RuleBuyOrderOrInstant || hide.Rule.Fee != 1.025 || hide.Rule.Hurdle != 0.03 {
		t.Errorf("hide rule = %+v", hide.Rule)
	}

	leather, _ := cat.Get(LeatherKey)
	if len(leather.Items) != 9 || len(leather.Locations) != 3 {
		t.Errorf("leather items/locations = %d/%d, want 9/3", len(leather.Items), len(leather.Locations))
	}
	if leather.Rule.Exports[0] != Thetford {
		t.Errorf("leather export priority = %v, want Thetford first", leather.Rule.Exports)
	}

	art, _ := cat.Get(ArtifactKey)
	if len(art.Items) != 9 || art.Items[0].ID != "T5_RUNE" || art.Items[8].ID != "T7_RELIC" {
		t.Errorf("artifact items = %+v", art.Items)
	}
	if art.Rule.Hurdle != 0.08 || art.Rule.Local != Caerleon {
		t.Errorf("artifact rule = %+v", art.Rule)
	}

	if _, ok := cat.Get("nope"); ok {
		t.Error("unknown key should miss")
	}
}

func TestCatalog_AllIDsParse(t *testing.T) {
	for _, c := range New(config.Default()).Categories() {
		for _, it := range c.Items {
			if _, err := ParseItemID(it.ID); err != nil {
				t.Errorf("%s: %v", c.Key, err)
			}
		}
	}
}

func TestCategoryLabel_Fallback(t *testing.T) {
	cat := New(config.Default())
	art, _ := cat.Get(ArtifactKey)
	if got := art.Label("T6_SOUL"); got != "Soul" {
		t.Errorf("Label(T6_SOUL) = %q, want Soul", got)
	}
	if got := art.Label("T6_SHARD"); got != "SHARD" {
		t.Errorf("Label(T6_SHARD) = %q, want SHARD", got)
	}
}

func TestLocationShort(t *testing.T) {
	if Bridgewatch.Short() != "BW" || Martlock.Short() != "ML" || Thetford.Short() != "TF" || Caerleon.Short() != "CL" {
		t.Error("unexpected short codes")
	}
	if Location("Brecilien").Short() != "Brecilien" {
		t.Error("unknown location should pass through")
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in   string
		want Location
		ok   bool
	}{
		{"Martlock", Martlock, true},
		{"fort sterling", FortSterling, true},
		{" Caerleon ", Caerleon, true},
		{"Brecilien", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseLocation(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLocation(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
