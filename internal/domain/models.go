package domain

import "time"

// Placement says whether a listing slot was bought or earned.
type Placement string

const (
	PlacementSponsored Placement = "Sponsored"
	PlacementOrganic   Placement = "Organic"
)

// ResultItem is one listing extracted from a search results page. It lives
// only for the duration of one page's ranking pass.
type ResultItem struct {
	ASIN          string   // empty when the product code could not be parsed
	Text          string   // visible text of the listing card
	ComponentType string   // machine-readable slot type attribute, if present
	BadgeLabels   []string // aria-label / badge texts found inside the card
	X             float64
	Y             float64
	HasGeometry   bool // layout coordinates available (browser fetch only)
}

// LabelPosition is a short "Sponsored" label found anywhere on the page,
// recorded with its vertical layout position.
type LabelPosition struct {
	Y    float64
	Text string
}

// PageSnapshot is what a page source hands the tracker for one
// (keyword, page) fetch.
type PageSnapshot struct {
	Items  []ResultItem
	Labels []LabelPosition
	// LastPage is set when the page signals no further results exist.
	LastPage bool
}

// PageRank is the per-item ranking result for one page. All three position
// projections are computed in a single pass; the active rank mode picks
// which ones surface in output rows.
type PageRank struct {
	ASIN      string
	Placement Placement
	Page      int
	// Position counts every item on the page regardless of placement.
	Position int
	// OrganicPosition counts only organic items; 0 for sponsored ones.
	OrganicPosition int
	// ClassPosition counts within the item's own placement class.
	ClassPosition int
}

// CumulativeRecord is the first-occurrence record of a tracked identifier
// within one keyword's multi-page crawl.
type CumulativeRecord struct {
	ASIN        string
	Placement   Placement
	Page        int
	PagePos     int
	OverallPos  int
	OrganicPos  int // cumulative organic rank; 0 unless the match was organic
	Found       bool
}

// ResultRow is one exported row per tracked (identifier, keyword) pair.
// Positional fields are 1-based; zero means absent and serializes empty.
type ResultRow struct {
	Timestamp   time.Time `json:"timestamp"`
	Keyword     string    `json:"keyword"`
	ASIN        string    `json:"asin"`
	Placement   string    `json:"type,omitempty"`
	Found       bool      `json:"found"`
	Page        int       `json:"page,omitempty"`
	PagePos     int       `json:"page_position,omitempty"`
	Rank        int       `json:"rank,omitempty"`
	OrganicRank int       `json:"organic_rank,omitempty"`
}

// KeywordTask is one unit of work for the tracker pool: a keyword plus the
// identifiers to locate in its results.
type KeywordTask struct {
	Keyword  string
	ASINs    []string
	Force    bool // bypass the recently-tracked check
}

// TrackRequest is the API payload submitting keyword tasks.
type TrackRequest struct {
	Keywords []KeywordRequest `json:"keywords"`
	Force    bool             `json:"force"`
}

type KeywordRequest struct {
	Keyword string   `json:"keyword"`
	ASINs   []string `json:"asins"`
}

// RunStatusResponse is the API response for a keyword status query.
type RunStatusResponse struct {
	Keyword    string    `json:"keyword"`
	Status     string    `json:"status"` // "processing", "completed", "failed"
	FailReason string    `json:"fail_reason,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
