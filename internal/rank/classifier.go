package rank

import (
	"math"
	"strings"

	"ranktracker/internal/domain"
)

// sponsorLabels are the badge texts that mark a paid slot, per marketplace
// locale. Matching is case-insensitive substring.
var sponsorLabels = []string{"sponsored", "スポンサー"}

// Classifier decides whether one result item is a paid or organic listing.
// Detection combines three independent signals with OR semantics: any single
// hit is enough, and a false positive is preferred over missing an ad.
type Classifier struct {
	// ProximityThreshold is the max vertical distance in pixels between an
	// item and a standalone sponsor label for the item to count as sponsored.
	ProximityThreshold float64
}

// DefaultProximityThreshold matches the layout gap observed between a
// sponsor label and the card it annotates.
const DefaultProximityThreshold = 200

func NewClassifier(proximityThreshold float64) *Classifier {
	if proximityThreshold <= 0 {
		proximityThreshold = DefaultProximityThreshold
	}
	return &Classifier{ProximityThreshold: proximityThreshold}
}

// Classify returns the placement for item. labels are the sponsor labels
// found on the same page, used for the proximity check; pass nil when the
// fetch mode provides no layout geometry.
//
// Checks run in order, first hit wins:
//  1. slot type attribute contains "sponsored"
//  2. a sponsor badge inside the item's own card or text
//  3. a sponsor label within ProximityThreshold pixels of the item
func (c *Classifier) Classify(item domain.ResultItem, labels []domain.LabelPosition) domain.Placement {
	if isSponsorText(item.ComponentType) {
		return domain.PlacementSponsored
	}
	for _, badge := range item.BadgeLabels {
		if isSponsorText(badge) {
			return domain.PlacementSponsored
		}
	}
	if isSponsorText(item.Text) {
		return domain.PlacementSponsored
	}
	if item.HasGeometry {
		for _, l := range labels {
			if math.Abs(l.Y-item.Y) < c.ProximityThreshold {
				return domain.PlacementSponsored
			}
		}
	}
	return domain.PlacementOrganic
}

func isSponsorText(s string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, label := range sponsorLabels {
		if strings.Contains(lower, label) {
			return true
		}
	}
	return false
}
