package cleaner

import (
	"testing"

	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	t.Parallel()

	t.Run("nil sheet should error", func(t *testing.T) {
		cleaned, _, err := Clean(nil)
		assert.Nil(t, cleaned)
		assert.Error(t, err)
	})
	t.Run("should drop rows with any empty cell", func(t *testing.T) {
		header := []string{"ID", "UTC", "n1-pm25", "n1-pm10"}
		sheet, err := output.NewSheet(header, [][]string{
			{"0", "4/1/2025 0:00:00", "10", "20"},
			{"1", "4/1/2025 1:00:00", "", "21"},
			{"2", "4/1/2025 2:00:00", "12", ""},
			{"3", "4/1/2025 3:00:00", "13", "0"},
		})
		require.NoError(t, err)

		cleaned, stats, err := Clean(sheet)
		require.NoError(t, err)
		assert.Equal(t, Stats{Kept: 2, Dropped: 2}, stats)
		assert.Equal(t, header, cleaned.Header())
		assert.Equal(t, [][]string{
			{"0", "4/1/2025 0:00:00", "10", "20"},
			{"3", "4/1/2025 3:00:00", "13", "0"},
		}, cleaned.Records())

		// the source sheet is left untouched
		assert.Len(t, sheet.Records(), 4)
	})
	t.Run("all rows empty", func(t *testing.T) {
		sheet, _ := output.NewSheet([]string{"ID", "n1-pm25"}, [][]string{{"0", ""}})
		cleaned, stats, err := Clean(sheet)
		require.NoError(t, err)
		assert.Empty(t, cleaned.Records())
		assert.Equal(t, Stats{Kept: 0, Dropped: 1}, stats)
	})
}
