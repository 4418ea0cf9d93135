package extract

import (
	"testing"
)

const staticPage = `<!doctype html><html><body>
<div class="s-main-slot">
  <div data-component-type="s-search-result" data-asin="b0aaaaaaa1">
    <span aria-label="Sponsored"></span>
    <h2>Wireless Earbuds Pro</h2>
  </div>
  <div data-component-type="s-search-result" data-asin="B0AAAAAAA2">
    <h2>Budget Earbuds</h2>
  </div>
  <div data-asin="">widget shelf, not a listing</div>
  <div data-component-type="s-search-result" data-asin="">
    <h2>listing with unparseable code</h2>
  </div>
</div>
<a class="s-pagination-next" href="/page2">Next</a>
</body></html>`

func TestParseResultsStatic(t *testing.T) {
	items, last, err := ParseResults(staticPage)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if last {
		t.Fatal("next button enabled, should not be last page")
	}
	if len(items) != 3 {
		t.Fatalf("want 3 items, got %d", len(items))
	}
	if items[0].ASIN != "B0AAAAAAA1" {
		t.Fatalf("asin not normalized: %q", items[0].ASIN)
	}
	if len(items[0].BadgeLabels) == 0 || items[0].BadgeLabels[0] != "Sponsored" {
		t.Fatalf("badge labels missing: %#v", items[0].BadgeLabels)
	}
	if items[0].HasGeometry {
		t.Fatal("static page must carry no geometry")
	}
	if items[2].ASIN != "" {
		t.Fatalf("unidentified listing should keep empty ASIN, got %q", items[2].ASIN)
	}
}

const geometryPage = `<!doctype html><html><body>
<div class="s-main-slot">
  <span data-rt-y="95">スポンサー</span>
  <div data-component-type="s-search-result" data-asin="B0G2" data-rt-x="100" data-rt-y="600" data-rt-w="300">
    <h2>Second by layout</h2>
  </div>
  <div data-component-type="s-search-result" data-asin="B0G1" data-rt-x="100" data-rt-y="100" data-rt-w="300">
    <h2>First by layout</h2>
  </div>
  <div data-component-type="s-search-result" data-asin="B0G1" data-rt-x="110" data-rt-y="120" data-rt-w="300">
    <h2>Nested duplicate of first card</h2>
  </div>
  <div data-component-type="s-search-result" data-asin="B0TINY" data-rt-x="900" data-rt-y="100" data-rt-w="80">
    <h2>Sidebar thumbnail</h2>
  </div>
</div>
<a class="s-pagination-next s-pagination-disabled">Next</a>
</body></html>`

func TestParseResultsGeometry(t *testing.T) {
	items, last, err := ParseResults(geometryPage)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !last {
		t.Fatal("disabled next button must mark last page")
	}
	if len(items) != 2 {
		t.Fatalf("want 2 items after width filter and dedupe, got %d: %#v", len(items), items)
	}
	if items[0].ASIN != "B0G1" || items[1].ASIN != "B0G2" {
		t.Fatalf("items not in layout order: %q, %q", items[0].ASIN, items[1].ASIN)
	}
	if !items[0].HasGeometry || items[0].Y != 100 {
		t.Fatalf("geometry not parsed: %+v", items[0])
	}
}

func TestParseLabels(t *testing.T) {
	labels, err := ParseLabels(geometryPage)
	if err != nil {
		t.Fatalf("parse labels: %v", err)
	}
	if len(labels) != 1 {
		t.Fatalf("want 1 sponsor label, got %d: %#v", len(labels), labels)
	}
	if labels[0].Y != 95 {
		t.Fatalf("label Y = %v, want 95", labels[0].Y)
	}
}

func TestParseLabelsIgnoresLongText(t *testing.T) {
	html := `<html><body><div data-rt-y="10">` +
		`This long paragraph happens to mention Sponsored somewhere in fifty plus characters of text` +
		`</div></body></html>`
	labels, err := ParseLabels(html)
	if err != nil {
		t.Fatalf("parse labels: %v", err)
	}
	if len(labels) != 0 {
		t.Fatalf("long text must not count as a label: %#v", labels)
	}
}

func TestParseResultsEmptyPage(t *testing.T) {
	items, last, err := ParseResults("<html><body></body></html>")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("want no items, got %d", len(items))
	}
	if !last {
		t.Fatal("page without pagination is the last page")
	}
}
