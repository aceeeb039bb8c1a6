package coverage

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/aggregator"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/output"
)

const expectedInterval = time.Hour

// ChannelCoverage describes the rows where every metric of a channel is present
type ChannelCoverage struct {
	Channel        string
	Metrics        []string
	Start          time.Time
	End            time.Time
	ValidRecords   int
	CommonInterval time.Duration
	Gaps           []time.Time
}

type sample struct {
	timestamp time.Time
	record    []string
}

// Analyze computes the coverage of every channel found in the sheet's metric columns. Gaps holds the
// timestamp preceding each interval longer than one hour.
func Analyze(sheet *output.Sheet) ([]ChannelCoverage, error) {
	if sheet == nil {
		return nil, errors.New("nil sheet")
	}

	utcIdx, found := sheet.ColumnIndex(aggregator.ColumnUTC)
	if !found {
		return nil, fmt.Errorf("missing required column %s", aggregator.ColumnUTC)
	}

	samples := make([]sample, 0, len(sheet.Records()))
	for i, record := range sheet.Records() {
		ts, err := time.Parse(aggregator.UTCLayout, record[utcIdx])
		if err != nil {
			return nil, fmt.Errorf("record %d: invalid UTC value: %w", i, err)
		}

		samples = append(samples, sample{timestamp: ts, record: record})
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].timestamp.Before(samples[j].timestamp)
	})

	channels, columns := channelColumns(sheet.Header())
	results := make([]ChannelCoverage, 0, len(channels))
	for _, channel := range channels {
		results = append(results, analyzeChannel(channel, columns[channel], sheet.Header(), samples))
	}

	return results, nil
}

func channelColumns(header []string) ([]string, map[string][]int) {
	columns := make(map[string][]int)
	channels := make([]string, 0)
	for i, name := range header {
		if aggregator.IsFixedColumn(name) {
			continue
		}
		channel, _, ok := aggregator.SplitMetricColumnName(name)
		if !ok {
			continue
		}

		_, exists := columns[channel]
		if !exists {
			channels = append(channels, channel)
		}
		columns[channel] = append(columns[channel], i)
	}
	sort.Strings(channels)

	return channels, columns
}

func analyzeChannel(channel string, columns []int, header []string, samples []sample) ChannelCoverage {
	result := ChannelCoverage{
		Channel: channel,
		Metrics: make([]string, 0, len(columns)),
		Gaps:    make([]time.Time, 0),
	}
	for _, idx := range columns {
		_, metric, _ := aggregator.SplitMetricColumnName(header[idx])
		result.Metrics = append(result.Metrics, metric)
	}

	valid := make([]time.Time, 0, len(samples))
	for _, s := range samples {
		if isComplete(s.record, columns) {
			valid = append(valid, s.timestamp)
		}
	}

	result.ValidRecords = len(valid)
	if len(valid) == 0 {
		return result
	}

	result.Start = valid[0]
	result.End = valid[len(valid)-1]

	counts := make(map[time.Duration]int)
	for i := 1; i < len(valid); i++ {
		diff := valid[i].Sub(valid[i-1])
		counts[diff]++
		if diff > expectedInterval {
			result.Gaps = append(result.Gaps, valid[i-1])
		}
	}
	result.CommonInterval = mostCommon(counts)

	return result
}

func isComplete(record []string, columns []int) bool {
	for _, idx := range columns {
		if record[idx] == "" {
			return false
		}
	}

	return true
}

// mostCommon returns the most frequent duration, the smallest one winning ties
func mostCommon(counts map[time.Duration]int) time.Duration {
	var best time.Duration
	bestCount := 0
	for d, c := range counts {
		if c > bestCount || (c == bestCount && d < best) {
			best = d
			bestCount = c
		}
	}

	return best
}
