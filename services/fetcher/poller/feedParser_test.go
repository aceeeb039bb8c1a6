package poller

import (
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var testFieldMapping = map[string]string{
	"field1": "pm25",
	"field2": "pm10",
}

func TestParseFeeds(t *testing.T) {
	t.Parallel()

	t.Run("invalid JSON should error", func(t *testing.T) {
		readings, err := parseFeeds([]byte(`{"feeds": [`), "n1", testFieldMapping)
		assert.Nil(t, readings)
		assert.Equal(t, errMalformedPayload("invalid JSON"), err)
	})
	t.Run("non object should error", func(t *testing.T) {
		readings, err := parseFeeds([]byte(`-1`), "n1", testFieldMapping)
		assert.Nil(t, readings)
		assert.IsType(t, errMalformedPayload(""), err)
	})
	t.Run("missing feeds means no data", func(t *testing.T) {
		_, err := parseFeeds([]byte(`{"channel": {}}`), "n1", testFieldMapping)
		assert.Equal(t, ErrNoData, err)
	})
	t.Run("null feeds means no data", func(t *testing.T) {
		_, err := parseFeeds([]byte(`{"feeds": null}`), "n1", testFieldMapping)
		assert.Equal(t, ErrNoData, err)
	})
	t.Run("empty feeds means no data", func(t *testing.T) {
		_, err := parseFeeds([]byte(`{"feeds": []}`), "n1", testFieldMapping)
		assert.Equal(t, ErrNoData, err)
	})
	t.Run("feeds not an array should error", func(t *testing.T) {
		_, err := parseFeeds([]byte(`{"feeds": {"a": 1}}`), "n1", testFieldMapping)
		assert.IsType(t, errMalformedPayload(""), err)
	})
	t.Run("entry without created_at should error", func(t *testing.T) {
		_, err := parseFeeds([]byte(`{"feeds": [{"field1": "1"}]}`), "n1", testFieldMapping)
		assert.Equal(t, errMalformedPayload("feed entry without created_at"), err)
	})
	t.Run("invalid created_at should error", func(t *testing.T) {
		_, err := parseFeeds([]byte(`{"feeds": [{"created_at": "yesterday", "field1": "1"}]}`), "n1", testFieldMapping)
		assert.IsType(t, errMalformedPayload(""), err)
	})
	t.Run("should work", func(t *testing.T) {
		body := `{"channel": {"id": 481426}, "feeds": [
			{"created_at": "2025-04-01T00:10:00Z", "entry_id": 1, "field1": "10.5", "field2": 22},
			{"created_at": "2025-04-01T03:40:00+02:00", "entry_id": 2, "field1": "abc", "field2": null, "field9": "7"},
			{"created_at": "2025-04-01T02:00:00Z", "entry_id": 3, "field2": " 4 "}
		]}`

		readings, err := parseFeeds([]byte(body), "n1", testFieldMapping)
		require.NoError(t, err)
		require.Len(t, readings, 3)

		assert.Equal(t, "n1", readings[0].Channel)
		assert.Equal(t, time.Date(2025, 4, 1, 0, 10, 0, 0, time.UTC), readings[0].Timestamp)
		assert.Equal(t, null.FloatFrom(10.5), readings[0].Values["pm25"])
		assert.Equal(t, null.FloatFrom(22), readings[0].Values["pm10"])

		assert.Equal(t, time.Date(2025, 4, 1, 1, 40, 0, 0, time.UTC), readings[1].Timestamp)
		pm25, found := readings[1].Values["pm25"]
		assert.True(t, found)
		assert.False(t, pm25.Valid)
		pm10, found := readings[1].Values["pm10"]
		assert.True(t, found)
		assert.False(t, pm10.Valid)
		assert.Len(t, readings[1].Values, 2)

		_, found = readings[2].Values["pm25"]
		assert.False(t, found)
		assert.Equal(t, null.FloatFrom(4), readings[2].Values["pm10"])
	})
}

func TestParseNumber(t *testing.T) {
	t.Parallel()

	body := []byte(`{"a": "1.25", "b": 3, "c": "", "d": "NaN", "e": true, "f": "-2", "g": [1]}`)
	parse := func(key string) null.Float {
		return parseNumber(gjson.GetBytes(body, key))
	}

	assert.Equal(t, null.FloatFrom(1.25), parse("a"))
	assert.Equal(t, null.FloatFrom(3), parse("b"))
	assert.False(t, parse("c").Valid)
	assert.False(t, parse("d").Valid)
	assert.False(t, parse("e").Valid)
	assert.Equal(t, null.FloatFrom(-2), parse("f"))
	assert.False(t, parse("g").Valid)
}
