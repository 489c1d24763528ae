package storage

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bartlomiej-milosz/warsaw-property-analysis/models"
)

// ErrEmptyFile is returned for a CSV file without a header row.
var ErrEmptyFile = errors.New("csv: file has no header")

// ReadTable loads a CSV file with a header row. A leading byte order mark is
// ignored and short rows are padded with Missing.
func ReadTable(path string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if r, _, err := br.ReadRune(); err == nil && r != '\uFEFF' {
		_ = br.UnreadRune()
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header of %q: %w", path, err)
	}

	t := models.NewTable(filepath.Base(path), header)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read %q: %w", path, err)
		}
		t.Append(row)
	}
	return t, nil
}

// ReadRawCSV loads scraped records. Empty cells are treated as absent fields.
func ReadRawCSV(path string) ([]models.RawProperty, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}

	linkIdx := t.ColumnIndex(models.FieldLink)
	records := make([]models.RawProperty, 0, t.Len())
	for _, row := range t.Rows {
		link := ""
		if linkIdx >= 0 {
			link = row[linkIdx]
		}
		r := models.NewRawProperty(strings.TrimSpace(link))
		for i, col := range t.Columns {
			if i == linkIdx || row[i] == models.Missing {
				continue
			}
			r.Set(col, row[i])
		}
		records = append(records, r)
	}
	return records, nil
}

// CSVFile is a CSV file used as an input table.
type CSVFile struct {
	Path string
}

func (f CSVFile) Name() string { return filepath.Base(f.Path) }

func (f CSVFile) Load() (*models.Table, error) { return ReadTable(f.Path) }

// ListCSV returns the .csv files directly inside dir, sorted by name. A
// missing directory yields no files.
func ListCSV(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: list %q: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
