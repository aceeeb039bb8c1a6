package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DateLayout is the layout used for the StartDate and EndDate values
const DateLayout = "2006-01-02 15:04:05"

const (
	defaultChunkSizeInHours            = 72
	defaultBaseURL                     = "https://api.thingspeak.com"
	defaultTimeScale                   = 60
	defaultRequestTimeoutInSeconds     = 30
	defaultPauseBetweenResultsInMillis = 500
	defaultMaxAttempts                 = 3
)

var (
	defaultRetryableStatusCodes = []int{429, 500, 502, 503, 504}
	defaultBackoffInMillis      = []int{1000, 2000}
	defaultFieldMapping         = map[string]string{
		"field1": "pm25",
		"field2": "pm10",
		"field3": "CO",
		"field4": "NO2",
	}
)

// ChannelConfig defines a single remote telemetry channel
type ChannelConfig struct {
	Name              string   `toml:"Name"`
	ID                string   `toml:"ID"`
	APIKey            string   `toml:"APIKey"`
	APIKeyEnvVariable string   `toml:"APIKeyEnvVariable"`
	Metrics           []string `toml:"Metrics"`
}

// RetryConfig defines how transient remote failures are retried
type RetryConfig struct {
	MaxAttempts          int   `toml:"MaxAttempts"`
	RetryableStatusCodes []int `toml:"RetryableStatusCodes"`
	BackoffInMillis      []int `toml:"BackoffInMillis"`
}

// Config maps to the config.toml file for the fetcher
type Config struct {
	StartDate                   string            `toml:"StartDate"`
	EndDate                     string            `toml:"EndDate"`
	ChunkSizeInHours            int               `toml:"ChunkSizeInHours"`
	OutputFile                  string            `toml:"OutputFile"`
	BaseURL                     string            `toml:"BaseURL"`
	TimeScale                   int               `toml:"TimeScale"`
	NumWorkers                  int               `toml:"NumWorkers"`
	RequestTimeoutInSeconds     uint32            `toml:"RequestTimeoutInSeconds"`
	PauseBetweenResultsInMillis uint32            `toml:"PauseBetweenResultsInMillis"`
	Retry                       RetryConfig       `toml:"Retry"`
	FieldMapping                map[string]string `toml:"FieldMapping"`
	Channels                    []ChannelConfig   `toml:"Channels"`
}

// LoadConfig parses a TOML file into the Config struct
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filepath, err)
	}

	var cfg Config
	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults fills every unset optional value
func (cfg *Config) ApplyDefaults() {
	if cfg.ChunkSizeInHours == 0 {
		cfg.ChunkSizeInHours = defaultChunkSizeInHours
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.TimeScale == 0 {
		cfg.TimeScale = defaultTimeScale
	}
	if cfg.NumWorkers == 0 {
		cfg.NumWorkers = len(cfg.Channels)
	}
	if cfg.RequestTimeoutInSeconds == 0 {
		cfg.RequestTimeoutInSeconds = defaultRequestTimeoutInSeconds
	}
	if cfg.PauseBetweenResultsInMillis == 0 {
		cfg.PauseBetweenResultsInMillis = defaultPauseBetweenResultsInMillis
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = defaultMaxAttempts
	}
	if len(cfg.Retry.RetryableStatusCodes) == 0 {
		cfg.Retry.RetryableStatusCodes = append([]int(nil), defaultRetryableStatusCodes...)
	}
	if len(cfg.Retry.BackoffInMillis) == 0 {
		cfg.Retry.BackoffInMillis = append([]int(nil), defaultBackoffInMillis...)
	}
	if len(cfg.FieldMapping) == 0 {
		cfg.FieldMapping = make(map[string]string, len(defaultFieldMapping))
		for field, metric := range defaultFieldMapping {
			cfg.FieldMapping[field] = metric
		}
	}
	for i := range cfg.Channels {
		if cfg.Channels[i].Name == "" {
			cfg.Channels[i].Name = fmt.Sprintf("n%d", i+1)
		}
	}
}

// Validate checks the configuration for values the pipeline can not work with
func (cfg *Config) Validate() error {
	start, end, err := cfg.DateRange()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("start date %s is not before end date %s", cfg.StartDate, cfg.EndDate)
	}
	if !isHourAligned(start) || !isHourAligned(end) {
		return errors.New("start and end dates must be aligned to a full hour")
	}
	if cfg.ChunkSizeInHours <= 0 {
		return fmt.Errorf("invalid chunk size: %d hours", cfg.ChunkSizeInHours)
	}
	if cfg.NumWorkers <= 0 {
		return fmt.Errorf("invalid number of workers: %d", cfg.NumWorkers)
	}
	if cfg.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("invalid retry max attempts: %d", cfg.Retry.MaxAttempts)
	}
	if cfg.OutputFile == "" {
		return errors.New("empty output file")
	}
	if len(cfg.Channels) == 0 {
		return errors.New("no channels configured")
	}

	knownMetrics := make(map[string]struct{}, len(cfg.FieldMapping))
	for _, metric := range cfg.FieldMapping {
		knownMetrics[metric] = struct{}{}
	}

	names := make(map[string]struct{}, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		if ch.ID == "" {
			return fmt.Errorf("channel %s has an empty ID", ch.Name)
		}
		_, exists := names[ch.Name]
		if exists {
			return fmt.Errorf("duplicate channel name %s", ch.Name)
		}
		names[ch.Name] = struct{}{}

		if len(ch.Metrics) == 0 {
			return fmt.Errorf("channel %s has no metrics", ch.Name)
		}
		for _, metric := range ch.Metrics {
			_, found := knownMetrics[metric]
			if !found {
				return fmt.Errorf("channel %s uses metric %s which is not present in the field mapping", ch.Name, metric)
			}
		}
	}

	return nil
}

// DateRange returns the parsed start and end dates, in UTC
func (cfg *Config) DateRange() (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(DateLayout, cfg.StartDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.ParseInLocation(DateLayout, cfg.EndDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
	}

	return start, end, nil
}

// ChunkSize returns the configured window duration
func (cfg *Config) ChunkSize() time.Duration {
	return time.Duration(cfg.ChunkSizeInHours) * time.Hour
}

// RequestTimeout returns the per-request timeout
func (cfg *Config) RequestTimeout() time.Duration {
	return time.Duration(cfg.RequestTimeoutInSeconds) * time.Second
}

// PauseBetweenResults returns the pause observed after each collected channel result
func (cfg *Config) PauseBetweenResults() time.Duration {
	return time.Duration(cfg.PauseBetweenResultsInMillis) * time.Millisecond
}

// EnvVariables returns the env keys needed to resolve channel credentials
func (cfg *Config) EnvVariables() map[string]string {
	m := make(map[string]string)
	for _, ch := range cfg.Channels {
		if ch.APIKeyEnvVariable != "" {
			m[ch.APIKeyEnvVariable] = ""
		}
	}

	return m
}

// ResolveAPIKeys overrides the channel API keys using the values read from the env file
func (cfg *Config) ResolveAPIKeys(env map[string]string) {
	for i, ch := range cfg.Channels {
		if ch.APIKeyEnvVariable == "" {
			continue
		}
		val, found := env[ch.APIKeyEnvVariable]
		if found {
			cfg.Channels[i].APIKey = val
		}
	}
}

func isHourAligned(t time.Time) bool {
	return t.Equal(t.Truncate(time.Hour))
}
