package scheduler

import (
	"errors"
	"time"

	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/common"
)

var errInvalidRange = errors.New("start date must be before end date")
var errInvalidChunkSize = errors.New("chunk size must be positive")

// chunkScheduler lazily partitions [start, end) into consecutive windows of a fixed duration.
// It is not safe for concurrent use and can not be restarted.
type chunkScheduler struct {
	current time.Time
	end     time.Time
	chunk   time.Duration
}

// NewChunkScheduler creates a new scheduler over [start, end)
func NewChunkScheduler(start time.Time, end time.Time, chunk time.Duration) (*chunkScheduler, error) {
	if !start.Before(end) {
		return nil, errInvalidRange
	}
	if chunk <= 0 {
		return nil, errInvalidChunkSize
	}

	return &chunkScheduler{
		current: start,
		end:     end,
		chunk:   chunk,
	}, nil
}

// Next returns the next window and true, or false once the range is exhausted.
// The last window is clipped to the end date.
func (cs *chunkScheduler) Next() (common.TimeWindow, bool) {
	if !cs.current.Before(cs.end) {
		return common.TimeWindow{}, false
	}

	windowEnd := cs.current.Add(cs.chunk)
	if windowEnd.After(cs.end) {
		windowEnd = cs.end
	}

	window := common.TimeWindow{
		Start: cs.current,
		End:   windowEnd,
	}
	cs.current = windowEnd

	return window, true
}

// Remaining returns the number of windows not yet produced
func (cs *chunkScheduler) Remaining() int {
	left := cs.end.Sub(cs.current)
	if left <= 0 {
		return 0
	}

	n := int(left / cs.chunk)
	if left%cs.chunk != 0 {
		n++
	}

	return n
}

// IsInterfaceNil returns true if the value under the interface is nil
func (cs *chunkScheduler) IsInterfaceNil() bool {
	return cs == nil
}
