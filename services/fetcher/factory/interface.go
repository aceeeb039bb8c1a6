package factory

import (
	"context"

	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/common"
)

// Engine defines the fetcher's operations
type Engine interface {
	Process(ctx context.Context) (common.RunSummary, error)
	IsInterfaceNil() bool
}
