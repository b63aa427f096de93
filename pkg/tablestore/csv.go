package tablestore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// CSVStore keeps each table in a CSV file under a data directory, matching the
// flat-file layout the dashboards were originally fed from. Writes go to a
// temporary file in the same directory followed by an atomic rename, so a
// concurrent reader sees either the previous or the new table, never a
// partially written file.
type CSVStore struct {
	dir string
}

// NewCSVStore ensures the data directory exists and returns the store.
func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &CSVStore{dir: dir}, nil
}

// ReadTable loads all rows from the table's CSV file. A missing file is an
// empty table.
func (s *CSVStore) ReadTable(_ context.Context, name string) ([]Row, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return []Row{}, nil
		}
		return nil, fmt.Errorf("open table %s: %w", name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}
	if len(records) == 0 {
		return []Row{}, nil
	}

	header := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteTable replaces the table's CSV file via temp file and rename.
func (s *CSVStore) WriteTable(_ context.Context, name string, header []string, rows []Row) error {
	if len(header) == 0 {
		header = inferHeader(rows)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	writer := csv.NewWriter(tmp)
	if err := writer.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write header for %s: %w", name, err)
	}
	for _, row := range rows {
		record := make([]string, len(header))
		for i, col := range header {
			record[i] = row[col]
		}
		if err := writer.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("write row for %s: %w", name, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush table %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync table %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file for %s: %w", name, err)
	}

	if err := os.Rename(tmpPath, s.path(name)); err != nil {
		return fmt.Errorf("replace table %s: %w", name, err)
	}
	return nil
}

func (s *CSVStore) path(name string) string {
	return filepath.Join(s.dir, name+".csv")
}

func inferHeader(rows []Row) []string {
	seen := map[string]struct{}{}
	var header []string
	for _, row := range rows {
		for col := range row {
			if _, ok := seen[col]; !ok {
				seen[col] = struct{}{}
				header = append(header, col)
			}
		}
	}
	sort.Strings(header)
	return header
}
