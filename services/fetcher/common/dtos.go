package common

import (
	"fmt"
	"time"

	"github.com/guregu/null/v6"
)

// TimeWindow is a half-open [Start, End) sub-range of the requested period
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// String returns the window in a human readable form
func (w TimeWindow) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.DateTime), w.End.Format(time.DateTime))
}

// RawReading holds one remote feed entry for a channel. Metrics absent from the remote payload
// are not present in Values, metrics present but not parsable are stored as an invalid null.Float
type RawReading struct {
	Timestamp time.Time
	Channel   string
	Values    map[string]null.Float
}

// ChannelBatch is the set of readings fetched for a channel inside one window
type ChannelBatch struct {
	Channel  string
	Window   TimeWindow
	Readings []RawReading
}

// RunSummary is returned after a complete fetch run
type RunSummary struct {
	Windows       int
	FailedFetches int
	EmptyFetches  int
	Readings      int
	Rows          int
}

// WindowResult is the outcome of fetching all channels for a window
type WindowResult struct {
	Window  TimeWindow
	Batches []ChannelBatch
	Failed  int
	Empty   int
}
