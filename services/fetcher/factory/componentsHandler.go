package factory

import (
	"context"

	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/common"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/config"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/engine"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/output"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/poller"
)

type componentsHandler struct {
	poller engine.Poller
	writer engine.Writer
	engine Engine
}

// NewComponentsHandler creates a new components handler. The configuration must be already validated.
func NewComponentsHandler(cfg config.Config) (*componentsHandler, error) {
	argsPoller := poller.ArgsHTTPPoller{
		BaseURL:             cfg.BaseURL,
		TimeScale:           cfg.TimeScale,
		Timeout:             cfg.RequestTimeout(),
		NumWorkers:          cfg.NumWorkers,
		PauseBetweenResults: cfg.PauseBetweenResults(),
		RetryPolicy:         poller.NewRetryPolicy(cfg.Retry.MaxAttempts, cfg.Retry.RetryableStatusCodes, cfg.Retry.BackoffInMillis),
		FieldMapping:        cfg.FieldMapping,
	}
	poll, err := poller.NewHTTPPoller(argsPoller)
	if err != nil {
		return nil, err
	}

	writer, err := output.NewCSVWriter(cfg.OutputFile)
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewFetchEngine(cfg, poll, writer)
	if err != nil {
		return nil, err
	}

	return &componentsHandler{
		poller: poll,
		writer: writer,
		engine: eng,
	}, nil
}

// GetPoller returns the poller component
func (ch *componentsHandler) GetPoller() engine.Poller {
	return ch.poller
}

// GetWriter returns the writer component
func (ch *componentsHandler) GetWriter() engine.Writer {
	return ch.writer
}

// GetEngine returns the engine component
func (ch *componentsHandler) GetEngine() Engine {
	return ch.engine
}

// Process runs the pipeline once
func (ch *componentsHandler) Process(ctx context.Context) (common.RunSummary, error) {
	return ch.engine.Process(ctx)
}
