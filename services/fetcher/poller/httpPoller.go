package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/common"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/config"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("poller")

const queryTimeLayout = "2006-01-02 15:04:05"

// ArgsHTTPPoller defines the HTTP poller arguments
type ArgsHTTPPoller struct {
	BaseURL             string
	TimeScale           int
	Timeout             time.Duration
	NumWorkers          int
	PauseBetweenResults time.Duration
	RetryPolicy         RetryPolicy
	FieldMapping        map[string]string
}

type httpPoller struct {
	client              *http.Client
	baseURL             string
	timeScale           int
	numWorkers          int
	pauseBetweenResults time.Duration
	retryPolicy         RetryPolicy
	fieldMapping        map[string]string
}

type fetchResult struct {
	channel  string
	readings []common.RawReading
	err      error
}

// NewHTTPPoller creates a new HTTP-based poller for ThingSpeak-like channel feeds
func NewHTTPPoller(args ArgsHTTPPoller) (*httpPoller, error) {
	if args.BaseURL == "" {
		return nil, errEmptyBaseURL
	}
	if args.NumWorkers <= 0 {
		return nil, errInvalidNumWorkers
	}
	if args.RetryPolicy.MaxAttempts <= 0 {
		return nil, errInvalidMaxAttempts
	}

	return &httpPoller{
		client: &http.Client{
			Timeout: args.Timeout,
		},
		baseURL:             strings.TrimRight(args.BaseURL, "/"),
		timeScale:           args.TimeScale,
		numWorkers:          args.NumWorkers,
		pauseBetweenResults: args.PauseBetweenResults,
		retryPolicy:         args.RetryPolicy,
		fieldMapping:        args.FieldMapping,
	}, nil
}

// FetchWindow fetches all channels for the provided window using at most NumWorkers concurrent requests.
// Results are consumed in completion order and a pause is observed after each one before the next
// channel is dispatched. It returns only after every channel has either succeeded or failed.
func (p *httpPoller) FetchWindow(ctx context.Context, window common.TimeWindow, channels []config.ChannelConfig) common.WindowResult {
	result := common.WindowResult{
		Window:  window,
		Batches: make([]common.ChannelBatch, 0, len(channels)),
	}

	results := make(chan fetchResult, len(channels))
	next := 0
	inFlight := 0
	dispatch := func() {
		channel := channels[next]
		next++
		inFlight++

		go func() {
			readings, err := p.FetchChannel(ctx, window, channel)
			results <- fetchResult{
				channel:  channel.Name,
				readings: readings,
				err:      err,
			}
		}()
	}

	for next < len(channels) && inFlight < p.numWorkers {
		dispatch()
	}

	for inFlight > 0 {
		res := <-results
		inFlight--

		switch {
		case errors.Is(res.err, ErrNoData):
			log.Info("no data for channel in this period", "channel", res.channel, "window", window.String())
			result.Empty++
		case res.err != nil:
			log.Warn("channel fetch failed", "channel", res.channel, "window", window.String(), "error", res.err)
			result.Failed++
		default:
			log.Debug("channel fetched", "channel", res.channel, "window", window.String(), "readings", len(res.readings))
			result.Batches = append(result.Batches, common.ChannelBatch{
				Channel:  res.channel,
				Window:   window,
				Readings: res.readings,
			})
		}

		sleep(ctx, p.pauseBetweenResults)

		if next < len(channels) {
			dispatch()
		}
	}

	return result
}

// FetchChannel fetches the feed of one channel for the provided window, retrying transient failures
func (p *httpPoller) FetchChannel(ctx context.Context, window common.TimeWindow, channel config.ChannelConfig) ([]common.RawReading, error) {
	feedURL := p.buildURL(window, channel)

	for attempt := 1; ; attempt++ {
		body, err := p.doRequest(ctx, feedURL)
		if err == nil {
			return parseFeeds(body, channel.Name, p.fieldMapping)
		}
		if !p.retryPolicy.ShouldRetry(attempt, err) {
			return nil, fmt.Errorf("%w after %d attempt(s)", err, attempt)
		}

		delay := p.retryPolicy.Delay(attempt)
		log.Debug("retrying channel fetch", "channel", channel.Name, "attempt", attempt, "delay", delay, "error", err)

		if !sleep(ctx, delay) {
			return nil, ctx.Err()
		}
	}
}

func (p *httpPoller) buildURL(window common.TimeWindow, channel config.ChannelConfig) string {
	query := url.Values{}
	query.Set("api_key", channel.APIKey)
	query.Set("start", window.Start.Format(queryTimeLayout))
	query.Set("end", window.End.Format(queryTimeLayout))
	query.Set("timescale", strconv.Itoa(p.timeScale))

	// the feed API expects %20 for the space in the timestamps
	encoded := strings.ReplaceAll(query.Encode(), "+", "%20")

	return fmt.Sprintf("%s/channels/%s/feeds.json?%s", p.baseURL, url.PathEscape(channel.ID), encoded)
}

func (p *httpPoller) doRequest(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errStatusNotOK(resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// sleep waits for the provided duration, returning false if the context ended first
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (p *httpPoller) IsInterfaceNil() bool {
	return p == nil
}
