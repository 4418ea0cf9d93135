package rank

import (
	"sort"
	"strings"
	"time"

	"ranktracker/internal/domain"
)

// Resolve produces exactly one output row per tracked identifier after a
// keyword's crawl completes. Found identifiers carry their cumulative record;
// the rest get explicit not-found rows with all positional fields absent.
// Rows for not-found identifiers are emitted in sorted order so output is
// stable across runs.
func Resolve(keyword string, asins []string, acc *Accumulator, now time.Time) []domain.ResultRow {
	seen := make(map[string]struct{}, len(asins))
	rows := make([]domain.ResultRow, 0, len(asins))

	normalized := make([]string, 0, len(asins))
	for _, a := range asins {
		a = strings.ToUpper(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue // one row per identifier, even if listed twice in input
		}
		seen[a] = struct{}{}
		normalized = append(normalized, a)
	}
	sort.Strings(normalized)

	for _, asin := range normalized {
		rec := acc.Record(asin)
		row := domain.ResultRow{
			Timestamp: now,
			Keyword:   keyword,
			ASIN:      asin,
			Found:     rec.Found,
		}
		if rec.Found {
			row.Placement = string(rec.Placement)
			row.Page = rec.Page
			row.PagePos = rec.PagePos
			row.Rank = rec.OverallPos
			row.OrganicRank = rec.OrganicPos
		}
		rows = append(rows, row)
	}
	return rows
}
