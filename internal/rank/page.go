package rank

import "ranktracker/internal/domain"

// Mode selects which position projection feeds output rows. Both projections
// are always computed; they are two views over one classification pass.
type Mode string

const (
	// ModeAbsolute reports position among all items plus a separate
	// organic-only figure.
	ModeAbsolute Mode = "absolute"
	// ModeClass reports position within the item's own placement class.
	ModeClass Mode = "class"
)

// ParseMode maps a config string to a Mode, defaulting to ModeAbsolute.
func ParseMode(s string) Mode {
	if s == string(ModeClass) {
		return ModeClass
	}
	return ModeAbsolute
}

// RankPage classifies every item of one result page and assigns positions in
// source order. Items are never re-sorted: the sequence handed in is the
// top-to-bottom rendering order. Every item occupies a rank slot, including
// ones without a parseable identifier.
func RankPage(c *Classifier, items []domain.ResultItem, labels []domain.LabelPosition, page int) []domain.PageRank {
	ranks := make([]domain.PageRank, 0, len(items))
	absolute := 0
	organic := 0
	sponsored := 0

	for _, item := range items {
		absolute++
		placement := c.Classify(item, labels)

		r := domain.PageRank{
			ASIN:      item.ASIN,
			Placement: placement,
			Page:      page,
			Position:  absolute,
		}
		if placement == domain.PlacementOrganic {
			organic++
			r.OrganicPosition = organic
			r.ClassPosition = organic
		} else {
			sponsored++
			r.ClassPosition = sponsored
		}
		ranks = append(ranks, r)
	}
	return ranks
}
