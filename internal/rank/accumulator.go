package rank

import (
	"strings"

	"ranktracker/internal/domain"
)

// Accumulator folds per-page ranks into cumulative positions across one
// keyword's multi-page crawl. Pages must be folded in increasing page order
// because each page's cumulative positions depend on the counts carried
// forward from the pages before it.
//
// One Accumulator belongs to exactly one keyword; keywords processed in
// parallel each get their own.
type Accumulator struct {
	mode    Mode
	targets map[string]struct{}
	records map[string]domain.CumulativeRecord

	// running totals carried across completed pages
	totalAbsolute  int
	totalOrganic   int
	totalSponsored int
	pagesFolded    int
}

func NewAccumulator(mode Mode, targetASINs []string) *Accumulator {
	targets := make(map[string]struct{}, len(targetASINs))
	for _, a := range targetASINs {
		a = strings.ToUpper(strings.TrimSpace(a))
		if a != "" {
			targets[a] = struct{}{}
		}
	}
	return &Accumulator{
		mode:    mode,
		targets: targets,
		records: make(map[string]domain.CumulativeRecord),
	}
}

// FoldPage absorbs one page's ranks into the running totals and records the
// first occurrence of any tracked identifier. An empty ranks slice is a
// legitimate page with zero listings; totals stay unchanged.
func (a *Accumulator) FoldPage(page int, ranks []domain.PageRank) {
	pageAbsolute := 0
	pageOrganic := 0
	pageSponsored := 0

	for _, r := range ranks {
		pageAbsolute++
		if r.Placement == domain.PlacementOrganic {
			pageOrganic++
		} else {
			pageSponsored++
		}

		if r.ASIN == "" {
			continue // occupies a slot but cannot match a target
		}
		if _, tracked := a.targets[r.ASIN]; !tracked {
			continue
		}
		if _, seen := a.records[r.ASIN]; seen {
			continue // first occurrence wins
		}
		a.records[r.ASIN] = a.record(r)
	}

	a.totalAbsolute += pageAbsolute
	a.totalOrganic += pageOrganic
	a.totalSponsored += pageSponsored
	a.pagesFolded++
}

// record builds the cumulative record for a matched item using totals from
// pages strictly before the current one.
func (a *Accumulator) record(r domain.PageRank) domain.CumulativeRecord {
	rec := domain.CumulativeRecord{
		ASIN:      r.ASIN,
		Placement: r.Placement,
		Page:      r.Page,
		Found:     true,
	}
	if r.Placement == domain.PlacementOrganic {
		rec.OrganicPos = a.totalOrganic + r.OrganicPosition
	}
	switch a.mode {
	case ModeClass:
		rec.PagePos = r.ClassPosition
		if r.Placement == domain.PlacementOrganic {
			rec.OverallPos = a.totalOrganic + r.ClassPosition
		} else {
			rec.OverallPos = a.totalSponsored + r.ClassPosition
		}
	default: // ModeAbsolute
		rec.PagePos = r.Position
		rec.OverallPos = a.totalAbsolute + r.Position
	}
	return rec
}

// AllFound reports whether every tracked identifier has a record, letting the
// crawl stop before max pages.
func (a *Accumulator) AllFound() bool {
	return len(a.records) == len(a.targets)
}

// PagesFolded returns how many pages have been absorbed so far.
func (a *Accumulator) PagesFolded() int { return a.pagesFolded }

// Record returns the cumulative record for one identifier. The zero record
// with Found=false is the normal terminal state for an identifier that never
// appeared within the crawled pages.
func (a *Accumulator) Record(asin string) domain.CumulativeRecord {
	asin = strings.ToUpper(strings.TrimSpace(asin))
	if rec, ok := a.records[asin]; ok {
		return rec
	}
	return domain.CumulativeRecord{ASIN: asin}
}

// Targets returns the tracked identifiers in input-normalized form.
func (a *Accumulator) Targets() []string {
	out := make([]string, 0, len(a.targets))
	for t := range a.targets {
		out = append(out, t)
	}
	return out
}
