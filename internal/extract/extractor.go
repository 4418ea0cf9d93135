package extract

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ranktracker/internal/domain"
)

// Selectors for the marketplace search results layout.
const (
	resultSelector     = "div[data-component-type='s-search-result'], .s-main-slot div[data-asin], .s-main-slot li[data-asin]"
	badgeSelector      = "span[aria-label], .s-label-popover"
	nextButtonSelector = "a.s-pagination-next"
	disabledClass      = "s-pagination-disabled"
)

// Geometry attributes stamped into the DOM by the browser fetcher before the
// HTML is captured. Plain HTTP fetches carry none of them.
const (
	attrX = "data-rt-x"
	attrY = "data-rt-y"
	attrW = "data-rt-w"
)

// minCardWidth filters out thumbnail-sized duplicates in browser captures.
const minCardWidth = 100

// dupeRadius is the layout distance under which two cards with the same
// identifier are the same visual card reached through nested markup.
const dupeRadius = 50

var whitespaceRe = regexp.MustCompile(`\s+`)

// ParseResults extracts the ordered result items of one search page and
// reports whether the page signals it is the last one. Items keep their
// top-to-bottom source order; when browser geometry is present they are
// ordered by layout position instead, since the DOM order of ad slots does
// not always match the rendered order.
func ParseResults(html string) ([]domain.ResultItem, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false, fmt.Errorf("parse results page: %w", err)
	}

	var items []domain.ResultItem
	doc.Find(resultSelector).Each(func(i int, s *goquery.Selection) {
		asin := strings.ToUpper(strings.TrimSpace(s.AttrOr("data-asin", "")))
		componentType := s.AttrOr("data-component-type", "")
		if asin == "" && !strings.Contains(componentType, "s-search-result") {
			return // separator or widget node, not a listing
		}

		item := domain.ResultItem{
			ASIN:          asin,
			ComponentType: componentType,
			Text:          collapse(s.Text()),
		}
		s.Find(badgeSelector).Each(func(_ int, b *goquery.Selection) {
			label := b.AttrOr("aria-label", "")
			if label == "" {
				label = collapse(b.Text())
			}
			if label != "" {
				item.BadgeLabels = append(item.BadgeLabels, label)
			}
		})

		if y, ok := attrFloat(s, attrY); ok {
			item.Y = y
			item.X, _ = attrFloat(s, attrX)
			item.HasGeometry = true
			if w, ok := attrFloat(s, attrW); ok && w < minCardWidth {
				return
			}
		}
		items = append(items, item)
	})

	if allHaveGeometry(items) {
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Y == items[j].Y {
				return items[i].X < items[j].X
			}
			return items[i].Y < items[j].Y
		})
		items = dropNearDuplicates(items)
	}

	return items, isLastPage(doc), nil
}

// ParseLabels extracts short sponsor-label elements with their stamped
// vertical positions, for the proximity check.
func ParseLabels(html string) ([]domain.LabelPosition, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse labels: %w", err)
	}
	var labels []domain.LabelPosition
	doc.Find("[" + attrY + "]").Each(func(_ int, s *goquery.Selection) {
		text := collapse(s.Text())
		if text == "" {
			text = s.AttrOr("aria-label", "")
		}
		// only short standalone labels, not whole cards containing the word
		if len([]rune(text)) >= 50 || !sponsorText(text) {
			return
		}
		if y, ok := attrFloat(s, attrY); ok {
			labels = append(labels, domain.LabelPosition{Y: y, Text: text})
		}
	})
	return labels, nil
}

func sponsorText(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "sponsored") || strings.Contains(lower, "スポンサー")
}

func isLastPage(doc *goquery.Document) bool {
	next := doc.Find(nextButtonSelector).First()
	if next.Length() == 0 {
		return true
	}
	return strings.Contains(next.AttrOr("class", ""), disabledClass)
}

func attrFloat(s *goquery.Selection, name string) (float64, bool) {
	raw, ok := s.Attr(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func allHaveGeometry(items []domain.ResultItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if !it.HasGeometry {
			return false
		}
	}
	return true
}

// dropNearDuplicates removes repeated cards for the same identifier at
// near-identical coordinates. The same product legitimately appearing twice
// elsewhere on the page is kept.
func dropNearDuplicates(items []domain.ResultItem) []domain.ResultItem {
	type pos struct{ x, y float64 }
	seen := map[string][]pos{}
	out := items[:0]
	for _, it := range items {
		dup := false
		for _, p := range seen[it.ASIN] {
			if it.ASIN != "" && math.Abs(p.y-it.Y) < dupeRadius && math.Abs(p.x-it.X) < dupeRadius {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[it.ASIN] = append(seen[it.ASIN], pos{it.X, it.Y})
		out = append(out, it)
	}
	return out
}
