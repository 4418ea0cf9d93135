package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ranktracker/internal/domain"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTargets(t *testing.T) {
	path := writeTemp(t, strings.Join([]string{
		"ASIN,SEARCH TERM,ACTIVE",
		"b0aaa00001,water bottle,yes",
		"B0AAA00002,water bottle,1",
		"B0AAA00003,earbuds,",
		"B0AAA00004,earbuds,no",
		",missing asin,yes",
		"B0AAA00005,,yes",
	}, "\n"))

	tasks, err := LoadTargets(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("want 2 keyword tasks, got %d: %+v", len(tasks), tasks)
	}
	// tasks come back keyword-sorted
	if tasks[0].Keyword != "earbuds" || len(tasks[0].ASINs) != 1 {
		t.Fatalf("earbuds task wrong: %+v", tasks[0])
	}
	if tasks[1].Keyword != "water bottle" || len(tasks[1].ASINs) != 2 {
		t.Fatalf("water bottle task wrong: %+v", tasks[1])
	}
	if tasks[1].ASINs[0] != "B0AAA00001" {
		t.Fatalf("asin not normalized: %q", tasks[1].ASINs[0])
	}
}

func TestLoadTargetsBOMHeader(t *testing.T) {
	path := writeTemp(t, "\uFEFFASIN,SEARCH TERM\nB0AAA00001,bottle\n")
	tasks, err := LoadTargets(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("BOM header not handled: %+v", tasks)
	}
}

func TestLoadTargetsRejectsEmpty(t *testing.T) {
	path := writeTemp(t, "ASIN,SEARCH TERM\n,\n")
	if _, err := LoadTargets(path); err == nil {
		t.Fatal("want error for file with no valid targets")
	}
	path = writeTemp(t, "URL,NAME\nx,y\n")
	if _, err := LoadTargets(path); err == nil {
		t.Fatal("want error for missing columns")
	}
}

func TestCSVWriterStableColumns(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)

	rows := []domain.ResultRow{
		{Timestamp: now, Keyword: "bottle", ASIN: "B0FOUND", Placement: "Organic",
			Found: true, Page: 1, PagePos: 3, Rank: 3, OrganicRank: 3},
		{Timestamp: now, Keyword: "bottle", ASIN: "B0MISSING"},
	}
	if err := w.Export(rows); err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("want one output file: %v %v", entries, err)
	}
	f, err := os.Open(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("want header + 2 rows, got %d", len(records))
	}
	wantHeader := "timestamp,keyword,asin,type,status,page,page_position,rank,organic_rank"
	if strings.Join(records[0], ",") != wantHeader {
		t.Fatalf("header wrong: %v", records[0])
	}
	found := records[1]
	if found[3] != "Organic" || found[4] != "found" || found[5] != "1" ||
		found[6] != "3" || found[7] != "3" || found[8] != "3" {
		t.Fatalf("found row wrong: %v", found)
	}
	missing := records[2]
	if missing[4] != "not found" {
		t.Fatalf("status column wrong: %v", missing)
	}
	if missing[3] != "" {
		t.Fatalf("placement of not-found row must be empty, got %q", missing[3])
	}
	// absent values serialize empty, never zero
	for i := 5; i <= 8; i++ {
		if missing[i] != "" {
			t.Fatalf("column %d of not-found row must be empty, got %q", i, missing[i])
		}
	}
}

func TestCSVWriterNoFileForNoRows(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)
	if err := w.Export(nil); err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("no file expected for zero rows, got %v", entries)
	}
}
