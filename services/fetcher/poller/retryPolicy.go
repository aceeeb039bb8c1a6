package poller

import (
	"errors"
	"time"
)

// RetryPolicy decides which failed requests are attempted again and how long to wait in between
type RetryPolicy struct {
	MaxAttempts          int
	RetryableStatusCodes []int
	Backoff              []time.Duration
}

// NewRetryPolicy creates a retry policy out of the configured values
func NewRetryPolicy(maxAttempts int, retryableStatusCodes []int, backoffInMillis []int) RetryPolicy {
	backoff := make([]time.Duration, 0, len(backoffInMillis))
	for _, ms := range backoffInMillis {
		backoff = append(backoff, time.Duration(ms)*time.Millisecond)
	}

	return RetryPolicy{
		MaxAttempts:          maxAttempts,
		RetryableStatusCodes: append([]int(nil), retryableStatusCodes...),
		Backoff:              backoff,
	}
}

// ShouldRetry returns true if the error produced by the provided attempt (1-based) deserves another attempt
func (rp RetryPolicy) ShouldRetry(attempt int, err error) bool {
	if attempt >= rp.MaxAttempts {
		return false
	}

	var status errStatusNotOK
	if !errors.As(err, &status) {
		return false
	}

	return rp.IsRetryable(int(status))
}

// IsRetryable returns true if the HTTP status code is considered transient
func (rp RetryPolicy) IsRetryable(statusCode int) bool {
	for _, code := range rp.RetryableStatusCodes {
		if code == statusCode {
			return true
		}
	}

	return false
}

// Delay returns the wait time after the provided failed attempt (1-based). The last configured
// backoff value is reused once the schedule is exhausted.
func (rp RetryPolicy) Delay(attempt int) time.Duration {
	if len(rp.Backoff) == 0 || attempt < 1 {
		return 0
	}
	if attempt > len(rp.Backoff) {
		return rp.Backoff[len(rp.Backoff)-1]
	}

	return rp.Backoff[attempt-1]
}
