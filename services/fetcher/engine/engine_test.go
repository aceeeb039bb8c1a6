package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/common"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/config"
	"github.com/iulianpascalau/air-quality-fetcher/services/fetcher/testsCommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

func createTestConfig() config.Config {
	cfg := config.Config{
		StartDate:        "2025-04-01 00:00:00",
		EndDate:          "2025-04-02 00:00:00",
		ChunkSizeInHours: 6,
		OutputFile:       "out.csv",
		Channels: []config.ChannelConfig{
			{Name: "A", ID: "1", Metrics: []string{"pm25"}},
			{Name: "B", ID: "2", Metrics: []string{"pm25", "pm10"}},
		},
	}
	cfg.ApplyDefaults()

	return cfg
}

func TestNewFetchEngine(t *testing.T) {
	t.Parallel()

	t.Run("nil poller should error", func(t *testing.T) {
		engine, err := NewFetchEngine(config.Config{}, nil, &testsCommon.WriterStub{})

		assert.Nil(t, engine)
		assert.True(t, engine.IsInterfaceNil())
		assert.Equal(t, ErrNilPoller, err)
	})
	t.Run("nil writer should error", func(t *testing.T) {
		engine, err := NewFetchEngine(config.Config{}, &testsCommon.PollerStub{}, nil)

		assert.Nil(t, engine)
		assert.True(t, engine.IsInterfaceNil())
		assert.Equal(t, ErrNilWriter, err)
	})
	t.Run("should work", func(t *testing.T) {
		engine, err := NewFetchEngine(config.Config{}, &testsCommon.PollerStub{}, &testsCommon.WriterStub{})

		assert.NotNil(t, engine)
		assert.False(t, engine.IsInterfaceNil())
		assert.Nil(t, err)
	})
}

func TestFetchEngine_Process(t *testing.T) {
	t.Parallel()

	t.Run("invalid date range should error", func(t *testing.T) {
		cfg := createTestConfig()
		cfg.StartDate = "invalid"

		engine, _ := NewFetchEngine(cfg, &testsCommon.PollerStub{}, &testsCommon.WriterStub{})
		_, err := engine.Process(context.Background())
		assert.Error(t, err)
	})
	t.Run("windows are fetched sequentially and in order", func(t *testing.T) {
		var inProgress int32
		var overlapped atomic.Bool
		windows := make([]common.TimeWindow, 0)

		poller := &testsCommon.PollerStub{
			FetchWindowHandler: func(ctx context.Context, window common.TimeWindow, channels []config.ChannelConfig) common.WindowResult {
				if atomic.AddInt32(&inProgress, 1) > 1 {
					overlapped.Store(true)
				}
				defer atomic.AddInt32(&inProgress, -1)

				windows = append(windows, window)
				assert.Len(t, channels, 2)
				time.Sleep(time.Millisecond)

				return common.WindowResult{Window: window}
			},
		}

		engine, _ := NewFetchEngine(createTestConfig(), poller, &testsCommon.WriterStub{})
		summary, err := engine.Process(context.Background())
		require.NoError(t, err)

		assert.False(t, overlapped.Load())
		require.Len(t, windows, 4)
		assert.Equal(t, testStart, windows[0].Start)
		for i := 1; i < len(windows); i++ {
			assert.Equal(t, windows[i-1].End, windows[i].Start)
		}
		assert.Equal(t, testStart.Add(24*time.Hour), windows[3].End)
		assert.Equal(t, 4, summary.Windows)
		assert.Equal(t, 25, summary.Rows)
	})
	t.Run("fetched batches are aggregated and written", func(t *testing.T) {
		poller := &testsCommon.PollerStub{
			FetchWindowHandler: func(ctx context.Context, window common.TimeWindow, channels []config.ChannelConfig) common.WindowResult {
				result := common.WindowResult{Window: window, Failed: 1}
				if window.Start.Equal(testStart) {
					result.Batches = []common.ChannelBatch{
						{
							Channel: "A",
							Window:  window,
							Readings: []common.RawReading{
								{Timestamp: testStart, Channel: "A", Values: map[string]null.Float{"pm25": null.FloatFrom(10)}},
								{Timestamp: testStart.Add(time.Hour), Channel: "A", Values: map[string]null.Float{"pm25": null.FloatFrom(20)}},
							},
						},
					}
				}

				return result
			},
		}

		var written common.Table
		writer := &testsCommon.WriterStub{
			WriteHandler: func(table common.Table) error {
				written = table
				return nil
			},
		}

		engine, _ := NewFetchEngine(createTestConfig(), poller, writer)
		summary, err := engine.Process(context.Background())
		require.NoError(t, err)

		assert.Equal(t, common.RunSummary{
			Windows:       4,
			FailedFetches: 4,
			Readings:      2,
			Rows:          25,
		}, summary)

		require.NotNil(t, written)
		assert.Equal(t, []string{"ID", "UTC", "day", "month", "hour", "A-pm25", "B-pm10", "B-pm25"}, written.Header())
		records := written.Records()
		require.Len(t, records, 25)
		assert.Equal(t, []string{"0", "4/1/2025 0:00:00", "1", "4", "0", "10", "", ""}, records[0])
		assert.Equal(t, []string{"1", "4/1/2025 1:00:00", "1", "4", "1", "20", "", ""}, records[1])
		assert.Equal(t, []string{"24", "4/2/2025 0:00:00", "2", "4", "0", "", "", ""}, records[24])
	})
	t.Run("no data still writes the empty table", func(t *testing.T) {
		writes := 0
		writer := &testsCommon.WriterStub{
			WriteHandler: func(table common.Table) error {
				writes++
				assert.Len(t, table.Records(), 25)
				return nil
			},
		}

		engine, _ := NewFetchEngine(createTestConfig(), &testsCommon.PollerStub{}, writer)
		summary, err := engine.Process(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, writes)
		assert.Equal(t, 0, summary.Readings)
		assert.Equal(t, 25, summary.Rows)
	})
	t.Run("writer failure should abort the run", func(t *testing.T) {
		expectedErr := errors.New("expected error")
		writer := &testsCommon.WriterStub{
			WriteHandler: func(table common.Table) error {
				return expectedErr
			},
		}

		engine, _ := NewFetchEngine(createTestConfig(), &testsCommon.PollerStub{}, writer)
		summary, err := engine.Process(context.Background())
		assert.Equal(t, expectedErr, err)
		assert.Equal(t, 0, summary.Rows)
	})
	t.Run("cancelled context should abort without writing", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		poller := &testsCommon.PollerStub{
			FetchWindowHandler: func(ctx context.Context, window common.TimeWindow, channels []config.ChannelConfig) common.WindowResult {
				calls++
				cancel()
				return common.WindowResult{Window: window}
			},
		}
		writer := &testsCommon.WriterStub{
			WriteHandler: func(table common.Table) error {
				assert.Fail(t, "should not have been called")
				return nil
			},
		}

		engine, _ := NewFetchEngine(createTestConfig(), poller, writer)
		_, err := engine.Process(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
