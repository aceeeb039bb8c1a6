package aggregator

import (
	"errors"
	"strconv"
	"time"

	"github.com/guregu/null/v6"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/common"
)

// ResultRow is one hour of the result table. Values follow the schema metric columns order.
type ResultRow struct {
	ID        int
	Timestamp time.Time
	Day       int
	Month     int
	Hour      int
	Values    []null.Float
}

// ResultTable is the hourly template joined with the per channel metric means
type ResultTable struct {
	schema *Schema
	rows   []ResultRow
}

type meanAccumulator struct {
	sum   float64
	count int
}

// Aggregate buckets all readings to the nearest hour (halfway values round up), averages every
// channel metric ignoring missing values and left joins the means onto the template. The result
// always has exactly one row per template slot; readings outside the template or for metrics not
// present in the schema are dropped.
func Aggregate(template []HourlySlot, schema *Schema, batches []common.ChannelBatch) (*ResultTable, error) {
	if schema == nil {
		return nil, errors.New("nil schema")
	}

	numMetrics := len(schema.MetricColumns())
	slotIndex := make(map[int64]int, len(template))
	for i, slot := range template {
		slotIndex[slot.Timestamp.Unix()] = i
	}

	accumulators := make([][]meanAccumulator, len(template))
	for i := range accumulators {
		accumulators[i] = make([]meanAccumulator, numMetrics)
	}

	for _, batch := range batches {
		for _, reading := range batch.Readings {
			hour := reading.Timestamp.UTC().Round(time.Hour)
			rowIdx, found := slotIndex[hour.Unix()]
			if !found {
				continue
			}

			for metric, value := range reading.Values {
				if !value.Valid {
					continue
				}
				colIdx, known := schema.MetricIndex(reading.Channel, metric)
				if !known {
					continue
				}

				acc := &accumulators[rowIdx][colIdx]
				acc.sum += value.Float64
				acc.count++
			}
		}
	}

	rows := make([]ResultRow, 0, len(template))
	for i, slot := range template {
		values := make([]null.Float, numMetrics)
		for j, acc := range accumulators[i] {
			if acc.count > 0 {
				values[j] = null.FloatFrom(acc.sum / float64(acc.count))
			}
		}

		rows = append(rows, ResultRow{
			ID:        i,
			Timestamp: slot.Timestamp,
			Day:       slot.Day,
			Month:     slot.Month,
			Hour:      slot.Hour,
			Values:    values,
		})
	}

	return &ResultTable{
		schema: schema,
		rows:   rows,
	}, nil
}

// Schema returns the table schema
func (rt *ResultTable) Schema() *Schema {
	return rt.schema
}

// Rows returns the table rows
func (rt *ResultTable) Rows() []ResultRow {
	return rt.rows
}

// NumRows returns the number of hourly rows
func (rt *ResultTable) NumRows() int {
	return len(rt.rows)
}

// Header returns the column names
func (rt *ResultTable) Header() []string {
	return rt.schema.Names()
}

// Records renders every row as CSV ready cells
func (rt *ResultTable) Records() [][]string {
	records := make([][]string, 0, len(rt.rows))
	for _, row := range rt.rows {
		record := make([]string, 0, 5+len(row.Values))
		record = append(record,
			strconv.Itoa(row.ID),
			FormatUTC(row.Timestamp),
			strconv.Itoa(row.Day),
			strconv.Itoa(row.Month),
			strconv.Itoa(row.Hour),
		)
		for _, v := range row.Values {
			record = append(record, FormatValue(v))
		}

		records = append(records, record)
	}

	return records
}

// IsInterfaceNil returns true if the value under the interface is nil
func (rt *ResultTable) IsInterfaceNil() bool {
	return rt == nil
}
