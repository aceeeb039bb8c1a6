package engine

import (
	"context"

	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/common"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/config"
)

// Poller defines the interface for fetching the channel feeds of one window
type Poller interface {
	// FetchWindow fetches every channel for the window with bounded concurrency and returns once all of
	// them succeeded or failed. Failed or empty channels do not contribute batches.
	FetchWindow(ctx context.Context, window common.TimeWindow, channels []config.ChannelConfig) common.WindowResult

	IsInterfaceNil() bool
}

// Writer defines the interface for persisting the final table
type Writer interface {
	Write(table common.Table) error
	IsInterfaceNil() bool
}
