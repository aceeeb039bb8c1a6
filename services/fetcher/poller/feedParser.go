package poller

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/common"
	"github.com/tidwall/gjson"
)

const feedsPath = "feeds"
const createdAtKey = "created_at"

// parseFeeds extracts the readings from a `{"feeds": [...]}` payload. Only the fields present in the
// mapping are kept, renamed to their metric names.
func parseFeeds(body []byte, channelName string, fieldMapping map[string]string) ([]common.RawReading, error) {
	if !gjson.ValidBytes(body) {
		return nil, errMalformedPayload("invalid JSON")
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, errMalformedPayload("top level value is not an object")
	}

	feeds := root.Get(feedsPath)
	if !feeds.Exists() || feeds.Type == gjson.Null {
		return nil, ErrNoData
	}
	if !feeds.IsArray() {
		return nil, errMalformedPayload("feeds is not an array")
	}

	entries := feeds.Array()
	if len(entries) == 0 {
		return nil, ErrNoData
	}

	readings := make([]common.RawReading, 0, len(entries))
	for _, entry := range entries {
		reading, err := parseEntry(entry, channelName, fieldMapping)
		if err != nil {
			return nil, err
		}

		readings = append(readings, reading)
	}

	return readings, nil
}

func parseEntry(entry gjson.Result, channelName string, fieldMapping map[string]string) (common.RawReading, error) {
	if !entry.IsObject() {
		return common.RawReading{}, errMalformedPayload("feed entry is not an object")
	}

	reading := common.RawReading{
		Channel: channelName,
		Values:  make(map[string]null.Float),
	}

	hasTimestamp := false
	var parseErr error
	entry.ForEach(func(key, value gjson.Result) bool {
		if key.Str == createdAtKey {
			ts, err := time.Parse(time.RFC3339, value.String())
			if err != nil {
				parseErr = errMalformedPayload("invalid created_at value " + value.String())
				return false
			}

			reading.Timestamp = ts.UTC()
			hasTimestamp = true
			return true
		}

		metric, found := fieldMapping[key.Str]
		if found {
			reading.Values[metric] = parseNumber(value)
		}

		return true
	})
	if parseErr != nil {
		return common.RawReading{}, parseErr
	}
	if !hasTimestamp {
		return common.RawReading{}, errMalformedPayload("feed entry without created_at")
	}

	return reading, nil
}

// parseNumber returns an invalid value for anything that is not a finite number
func parseNumber(value gjson.Result) null.Float {
	var f float64
	switch value.Type {
	case gjson.Number:
		f = value.Num
	case gjson.String:
		var err error
		f, err = strconv.ParseFloat(strings.TrimSpace(value.Str), 64)
		if err != nil {
			return null.Float{}
		}
	default:
		return null.Float{}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return null.Float{}
	}

	return null.FloatFrom(f)
}
