package aggregator

import (
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

const valuePrecision = 3

// UTCLayout parses the values rendered by FormatUTC
const UTCLayout = "1/2/2006 15:04:05"

// FormatValue renders a metric cell: empty for missing values, otherwise rounded to 3 decimals
// (half away from zero) without trailing zeros, so integral values carry no decimal point
func FormatValue(value null.Float) string {
	if !value.Valid {
		return ""
	}

	return decimal.NewFromFloat(value.Float64).Round(valuePrecision).String()
}

// FormatUTC renders the UTC column as M/D/YYYY H:00:00
func FormatUTC(ts time.Time) string {
	return fmt.Sprintf("%d/%d/%d %d:00:00", int(ts.Month()), ts.Day(), ts.Year(), ts.Hour())
}
