package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
)

// Sheet is a CSV file loaded in memory, with an explicit, validated header
type Sheet struct {
	header  []string
	records [][]string
	index   map[string]int
}

// NewSheet creates a sheet, checking the header has no duplicates and every record matches its width
func NewSheet(header []string, records [][]string) (*Sheet, error) {
	if len(header) == 0 {
		return nil, errors.New("empty header")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		_, exists := index[name]
		if exists {
			return nil, fmt.Errorf("duplicate column %s", name)
		}
		index[name] = i
	}

	for i, record := range records {
		if len(record) != len(header) {
			return nil, fmt.Errorf("record %d has %d fields, expected %d", i, len(record), len(header))
		}
	}

	return &Sheet{
		header:  header,
		records: records,
		index:   index,
	}, nil
}

// ReadCSV loads the file found at path and checks the required columns are present
func ReadCSV(path string, requiredColumns ...string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file '%s': %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read input file '%s': %w", path, err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("input file '%s' is empty", path)
	}

	sheet, err := NewSheet(all[0], all[1:])
	if err != nil {
		return nil, fmt.Errorf("invalid input file '%s': %w", path, err)
	}

	err = sheet.RequireColumns(requiredColumns...)
	if err != nil {
		return nil, fmt.Errorf("invalid input file '%s': %w", path, err)
	}

	return sheet, nil
}

// Header returns the column names
func (s *Sheet) Header() []string {
	return s.header
}

// Records returns the data rows
func (s *Sheet) Records() [][]string {
	return s.records
}

// ColumnIndex returns the position of the named column
func (s *Sheet) ColumnIndex(name string) (int, bool) {
	idx, found := s.index[name]
	return idx, found
}

// RequireColumns returns an error naming every absent column
func (s *Sheet) RequireColumns(names ...string) error {
	missing := make([]string, 0)
	for _, name := range names {
		_, found := s.index[name]
		if !found {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns %v", missing)
	}

	return nil
}
