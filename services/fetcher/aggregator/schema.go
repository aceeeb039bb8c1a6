package aggregator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/config"
)

// Fixed column names, in output order
const (
	ColumnID    = "ID"
	ColumnUTC   = "UTC"
	ColumnDay   = "day"
	ColumnMonth = "month"
	ColumnHour  = "hour"
)

const metricSeparator = "-"

// ColumnKind is the type of the values held by a column
type ColumnKind int

const (
	// KindInteger is used by the ID and calendar columns
	KindInteger ColumnKind = iota
	// KindTimestamp is used by the UTC column
	KindTimestamp
	// KindNullableFloat is used by every channel metric column
	KindNullableFloat
)

// Column describes one output column
type Column struct {
	Name    string
	Kind    ColumnKind
	Channel string
	Metric  string
}

// Schema is the ordered list of the result table columns
type Schema struct {
	columns      []Column
	metricOffset int
	metricIndex  map[string]int
}

var fixedColumns = []string{ColumnID, ColumnUTC, ColumnDay, ColumnMonth, ColumnHour}

// IsFixedColumn returns true for the ID and calendar columns
func IsFixedColumn(name string) bool {
	for _, c := range fixedColumns {
		if c == name {
			return true
		}
	}

	return false
}

// SplitMetricColumnName returns the channel and metric encoded in a metric column name. Metric names
// never contain the separator, so the split happens on its last occurrence.
func SplitMetricColumnName(name string) (string, string, bool) {
	idx := strings.LastIndex(name, metricSeparator)
	if idx <= 0 || idx == len(name)-1 {
		return "", "", false
	}

	return name[:idx], name[idx+1:], true
}

// MetricColumnName returns the column name used for a channel metric
func MetricColumnName(channel string, metric string) string {
	return channel + metricSeparator + metric
}

// NewSchema creates the result schema: the fixed columns followed by one column for every
// channel metric, sorted by name
func NewSchema(channels []config.ChannelConfig) (*Schema, error) {
	if len(channels) == 0 {
		return nil, errors.New("no channels to build the schema from")
	}

	fixed := []Column{
		{Name: ColumnID, Kind: KindInteger},
		{Name: ColumnUTC, Kind: KindTimestamp},
		{Name: ColumnDay, Kind: KindInteger},
		{Name: ColumnMonth, Kind: KindInteger},
		{Name: ColumnHour, Kind: KindInteger},
	}
	reserved := make(map[string]struct{}, len(fixed))
	for _, c := range fixed {
		reserved[c.Name] = struct{}{}
	}

	metrics := make([]Column, 0)
	seen := make(map[string]struct{})
	for _, ch := range channels {
		for _, metric := range ch.Metrics {
			name := MetricColumnName(ch.Name, metric)
			_, isReserved := reserved[name]
			_, isDuplicate := seen[name]
			if isReserved || isDuplicate {
				return nil, fmt.Errorf("duplicate column %s", name)
			}
			seen[name] = struct{}{}

			metrics = append(metrics, Column{
				Name:    name,
				Kind:    KindNullableFloat,
				Channel: ch.Name,
				Metric:  metric,
			})
		}
	}
	sort.Slice(metrics, func(i, j int) bool {
		return metrics[i].Name < metrics[j].Name
	})

	s := &Schema{
		columns:      append(fixed, metrics...),
		metricOffset: len(fixed),
		metricIndex:  make(map[string]int, len(metrics)),
	}
	for i, c := range metrics {
		s.metricIndex[c.Name] = i
	}

	return s, nil
}

// Columns returns all columns, in output order
func (s *Schema) Columns() []Column {
	return append([]Column(nil), s.columns...)
}

// Names returns the column names, in output order
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.columns))
	for _, c := range s.columns {
		names = append(names, c.Name)
	}

	return names
}

// MetricColumns returns only the channel metric columns
func (s *Schema) MetricColumns() []Column {
	return append([]Column(nil), s.columns[s.metricOffset:]...)
}

// MetricIndex returns the position of a channel metric among the metric columns
func (s *Schema) MetricIndex(channel string, metric string) (int, bool) {
	idx, found := s.metricIndex[MetricColumnName(channel, metric)]
	return idx, found
}
