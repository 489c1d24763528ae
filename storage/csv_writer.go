package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bartlomiej-milosz/warsaw-property-analysis/models"
)

// utf8BOM lets spreadsheet tools detect UTF-8 and render Polish characters.
const utf8BOM = "\uFEFF"

// CSVWriter writes rows to a UTF-8 CSV file with a byte order mark.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string, header []string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	if _, err := f.WriteString(utf8BOM); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write bom: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{path: path, file: f, writer: w}, nil
}

// WriteRows appends rows and flushes them to disk.
func (c *CSVWriter) WriteRows(rows [][]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, row := range rows {
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row to %s: %w", c.path, err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		_ = c.file.Close()
		return err
	}
	return c.file.Close()
}

// WriteTable writes t to path, replacing any existing file.
func WriteTable(path string, t *models.Table) error {
	w, err := NewCSVWriter(path, t.Columns)
	if err != nil {
		return err
	}
	if err := w.WriteRows(t.Rows); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// WriteRawCSV writes scraped records in raw column order.
func WriteRawCSV(path string, records []models.RawProperty) error {
	t := models.NewTable(filepath.Base(path), models.RawColumns)
	for _, r := range records {
		t.Append(r.Row())
	}
	return WriteTable(path, t)
}

// RawCSVSink stores each scraped combination as a raw CSV file.
type RawCSVSink struct{}

// SaveRaw implements the scraper's raw sink.
func (RawCSVSink) SaveRaw(path string, records []models.RawProperty) error {
	return WriteRawCSV(path, records)
}
