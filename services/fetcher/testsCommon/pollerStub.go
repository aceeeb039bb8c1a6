package testsCommon

import (
	"context"

	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/common"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/config"
)

// PollerStub -
type PollerStub struct {
	FetchWindowHandler func(ctx context.Context, window common.TimeWindow, channels []config.ChannelConfig) common.WindowResult
}

// FetchWindow -
func (stub *PollerStub) FetchWindow(ctx context.Context, window common.TimeWindow, channels []config.ChannelConfig) common.WindowResult {
	if stub.FetchWindowHandler != nil {
		return stub.FetchWindowHandler(ctx, window, channels)
	}

	return common.WindowResult{Window: window}
}

// IsInterfaceNil -
func (stub *PollerStub) IsInterfaceNil() bool {
	return stub == nil
}
