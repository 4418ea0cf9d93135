package rank

import (
	"testing"

	"ranktracker/internal/domain"
)

func TestClassifySignals(t *testing.T) {
	c := NewClassifier(200)

	cases := []struct {
		name   string
		item   domain.ResultItem
		labels []domain.LabelPosition
		want   domain.Placement
	}{
		{
			name: "component type attribute",
			item: domain.ResultItem{ASIN: "B000000001", ComponentType: "sp-sponsored-result"},
			want: domain.PlacementSponsored,
		},
		{
			name: "aria-label badge",
			item: domain.ResultItem{ASIN: "B000000002", BadgeLabels: []string{"Sponsored"}},
			want: domain.PlacementSponsored,
		},
		{
			name: "japanese badge",
			item: domain.ResultItem{ASIN: "B000000003", BadgeLabels: []string{"スポンサー広告"}},
			want: domain.PlacementSponsored,
		},
		{
			name: "sponsor text in card body",
			item: domain.ResultItem{ASIN: "B000000004", Text: "Sponsored ｜ Wireless Earbuds"},
			want: domain.PlacementSponsored,
		},
		{
			name:   "label within proximity",
			item:   domain.ResultItem{ASIN: "B000000005", Y: 480, HasGeometry: true},
			labels: []domain.LabelPosition{{Y: 400, Text: "Sponsored"}},
			want:   domain.PlacementSponsored,
		},
		{
			name:   "label beyond proximity",
			item:   domain.ResultItem{ASIN: "B000000006", Y: 900, HasGeometry: true},
			labels: []domain.LabelPosition{{Y: 400, Text: "Sponsored"}},
			want:   domain.PlacementOrganic,
		},
		{
			name:   "no geometry ignores labels",
			item:   domain.ResultItem{ASIN: "B000000007", Y: 0},
			labels: []domain.LabelPosition{{Y: 10, Text: "Sponsored"}},
			want:   domain.PlacementOrganic,
		},
		{
			name: "plain organic listing",
			item: domain.ResultItem{ASIN: "B000000008", Text: "Stainless Steel Water Bottle 500ml"},
			want: domain.PlacementOrganic,
		},
		{
			name: "missing identifier still classified",
			item: domain.ResultItem{ComponentType: "sp-sponsored-result"},
			want: domain.PlacementSponsored,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(tc.item, tc.labels)
			if got != tc.want {
				t.Fatalf("Classify() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	c := NewClassifier(200)
	item := domain.ResultItem{ASIN: "B0PURE0001", Y: 150, HasGeometry: true}
	labels := []domain.LabelPosition{{Y: 100, Text: "スポンサー"}}

	first := c.Classify(item, labels)
	for i := 0; i < 10; i++ {
		if got := c.Classify(item, labels); got != first {
			t.Fatalf("classification changed between identical calls: %s vs %s", got, first)
		}
	}
}

func TestClassifyConflictingSignals(t *testing.T) {
	// Attribute and proximity both positive is not a conflict: any hit wins.
	c := NewClassifier(200)
	item := domain.ResultItem{
		ASIN:          "B0BOTH0001",
		ComponentType: "s-search-result sp-sponsored",
		Y:             120,
		HasGeometry:   true,
	}
	labels := []domain.LabelPosition{{Y: 100, Text: "Sponsored"}}
	if got := c.Classify(item, labels); got != domain.PlacementSponsored {
		t.Fatalf("want Sponsored, got %s", got)
	}
}

func TestClassifierDefaultThreshold(t *testing.T) {
	c := NewClassifier(0)
	if c.ProximityThreshold != DefaultProximityThreshold {
		t.Fatalf("want default threshold %d, got %v", DefaultProximityThreshold, c.ProximityThreshold)
	}
}
