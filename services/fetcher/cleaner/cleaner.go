package cleaner

import (
	"errors"

	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/output"
)

// Stats counts the rows kept and dropped by Clean
type Stats struct {
	Kept    int
	Dropped int
}

// Clean returns a new sheet holding only the rows without any empty cell
func Clean(sheet *output.Sheet) (*output.Sheet, Stats, error) {
	if sheet == nil {
		return nil, Stats{}, errors.New("nil sheet")
	}

	kept := make([][]string, 0, len(sheet.Records()))
	stats := Stats{}
	for _, record := range sheet.Records() {
		if hasEmptyCell(record) {
			stats.Dropped++
			continue
		}

		kept = append(kept, record)
		stats.Kept++
	}

	cleaned, err := output.NewSheet(sheet.Header(), kept)
	if err != nil {
		return nil, Stats{}, err
	}

	return cleaned, stats, nil
}

func hasEmptyCell(record []string) bool {
	for _, cell := range record {
		if cell == "" {
			return true
		}
	}

	return false
}
