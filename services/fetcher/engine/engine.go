package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/aggregator"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/common"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/config"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/scheduler"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("engine")

// ErrNilPoller signals that a nil poller was provided
var ErrNilPoller = errors.New("nil poller")

// ErrNilWriter signals that a nil writer was provided
var ErrNilWriter = errors.New("nil writer")

// fetchEngine walks the configured date range window by window, then aggregates and writes the result
type fetchEngine struct {
	config config.Config
	poller Poller
	writer Writer
}

// NewFetchEngine creates a new engine instance
func NewFetchEngine(cfg config.Config, p Poller, w Writer) (*fetchEngine, error) {
	if check.IfNil(p) {
		return nil, ErrNilPoller
	}
	if check.IfNil(w) {
		return nil, ErrNilWriter
	}

	return &fetchEngine{
		config: cfg,
		poller: p,
		writer: w,
	}, nil
}

// Process runs the whole pipeline once. Windows are fetched strictly one after the other; channel failures
// only leave gaps in the output. Only a cancelled context or a write failure aborts the run.
func (e *fetchEngine) Process(ctx context.Context) (common.RunSummary, error) {
	summary := common.RunSummary{}

	start, end, err := e.config.DateRange()
	if err != nil {
		return summary, err
	}

	template, err := aggregator.BuildHourlyTemplate(start, end)
	if err != nil {
		return summary, err
	}

	schema, err := aggregator.NewSchema(e.config.Channels)
	if err != nil {
		return summary, err
	}

	chunks, err := scheduler.NewChunkScheduler(start, end, e.config.ChunkSize())
	if err != nil {
		return summary, err
	}

	log.Info("starting fetch", "start", start, "end", end, "windows", chunks.Remaining(), "channels", len(e.config.Channels))

	batches := make([]common.ChannelBatch, 0)
	for {
		window, ok := chunks.Next()
		if !ok {
			break
		}

		log.Info("processing window", "window", window.String())

		result := e.poller.FetchWindow(ctx, window, e.config.Channels)
		if ctx.Err() != nil {
			return summary, fmt.Errorf("fetch interrupted at window %s: %w", window.String(), ctx.Err())
		}

		summary.Windows++
		summary.FailedFetches += result.Failed
		summary.EmptyFetches += result.Empty
		for _, batch := range result.Batches {
			summary.Readings += len(batch.Readings)
		}
		batches = append(batches, result.Batches...)
	}

	table, err := aggregator.Aggregate(template, schema, batches)
	if err != nil {
		return summary, err
	}
	if summary.Readings == 0 {
		log.Warn("no data retrieved, the output will only contain empty hourly rows")
	}

	err = e.writer.Write(table)
	if err != nil {
		return summary, err
	}

	summary.Rows = table.NumRows()
	log.Info("processed hourly records", "rows", summary.Rows, "readings", summary.Readings,
		"failed fetches", summary.FailedFetches, "empty fetches", summary.EmptyFetches)

	return summary, nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (e *fetchEngine) IsInterfaceNil() bool {
	return e == nil
}
