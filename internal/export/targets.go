package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"ranktracker/internal/domain"
)

// LoadTargets reads the tracked-targets CSV. Expected header columns:
// ASIN, SEARCH TERM and optionally ACTIVE (defaulting to active). Rows with
// a missing identifier or keyword are skipped, and identifiers are grouped
// into one task per keyword.
func LoadTargets(path string) ([]domain.KeywordTask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("targets file is empty")
	}

	header := rows[0]
	// tolerate a UTF-8 BOM on the first header cell
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	asinCol, keywordCol, activeCol := -1, -1, -1
	for i, h := range header {
		switch strings.ToUpper(strings.TrimSpace(h)) {
		case "ASIN":
			asinCol = i
		case "SEARCH TERM", "KEYWORD":
			keywordCol = i
		case "ACTIVE":
			activeCol = i
		}
	}
	if asinCol == -1 || keywordCol == -1 {
		return nil, errors.New("targets file must contain ASIN and SEARCH TERM columns")
	}

	grouped := map[string][]string{}
	for _, row := range rows[1:] {
		asin := strings.ToUpper(strings.TrimSpace(cell(row, asinCol)))
		keyword := strings.TrimSpace(cell(row, keywordCol))
		if asin == "" || keyword == "" {
			continue
		}
		if activeCol != -1 && !isActive(cell(row, activeCol)) {
			continue
		}
		grouped[keyword] = append(grouped[keyword], asin)
	}
	if len(grouped) == 0 {
		return nil, errors.New("no valid targets in targets file")
	}

	keywords := make([]string, 0, len(grouped))
	for k := range grouped {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)

	tasks := make([]domain.KeywordTask, 0, len(keywords))
	for _, k := range keywords {
		tasks = append(tasks, domain.KeywordTask{Keyword: k, ASINs: grouped[k]})
	}
	return tasks, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isActive(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "yes", "y", "true", "1":
		return true
	}
	return false
}
