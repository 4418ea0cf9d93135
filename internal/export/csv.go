package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"ranktracker/internal/domain"
)

// csvHeader is the stable column set. It never changes with the active rank
// mode; fields a mode or a not-found row leaves absent are written empty,
// never as zero.
var csvHeader = []string{"timestamp", "keyword", "asin", "type", "status", "page", "page_position", "rank", "organic_rank"}

// CSVWriter appends resolved rows to one timestamped CSV file per run,
// created lazily on the first batch.
type CSVWriter struct {
	dir  string
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

// Export writes one keyword's resolved rows. Safe for concurrent use by the
// tracker workers.
func (c *CSVWriter) Export(rows []domain.ResultRow) error {
	if len(rows) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.w == nil {
		if err := c.open(); err != nil {
			return err
		}
	}
	for _, r := range rows {
		if err := c.w.Write(Record(r)); err != nil {
			return err
		}
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) open() error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	name := fmt.Sprintf("ranks_%s.csv", time.Now().Format("20060102_150405"))
	f, err := os.Create(filepath.Join(c.dir, name))
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	c.file = f
	c.w = csv.NewWriter(f)
	return c.w.Write(csvHeader)
}

// Close flushes and closes the current output file, if one was opened.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return nil
	}
	c.w.Flush()
	err := c.w.Error()
	if cerr := c.file.Close(); err == nil {
		err = cerr
	}
	c.file = nil
	c.w = nil
	return err
}

// Record maps a row to the stable CSV column set.
func Record(r domain.ResultRow) []string {
	status := "not found"
	if r.Found {
		status = "found"
	}
	return []string{
		r.Timestamp.Format(time.RFC3339),
		r.Keyword,
		r.ASIN,
		r.Placement,
		status,
		emptyIfZero(r.Page),
		emptyIfZero(r.PagePos),
		emptyIfZero(r.Rank),
		emptyIfZero(r.OrganicRank),
	}
}

func emptyIfZero(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
