package errors

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig configures bounded retry behavior.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (not including the first attempt).
	MaxRetries int

	InitialDelay time.Duration
	MaxDelay     time.Duration

	// Multiplier is the factor by which delay increases after each retry.
	Multiplier float64
}

// DefaultRetryConfig returns the retry schedule used for the index lock.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	}
}

// RetryConfigFor spreads retries over roughly the given timeout.
func RetryConfigFor(timeout time.Duration) RetryConfig {
	cfg := DefaultRetryConfig()
	if timeout <= 0 {
		cfg.MaxRetries = 0
		return cfg
	}

	var total time.Duration
	delay := cfg.InitialDelay
	retries := 0
	for total+delay <= timeout {
		total += delay
		retries++
		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	cfg.MaxRetries = retries
	return cfg
}

// Retry runs fn until it succeeds, MaxRetries is exhausted, or ctx is done.
// Only errors for which IsRetryable reports true are retried.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) || attempt >= cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	if IsRetryable(lastErr) && cfg.MaxRetries > 0 {
		return fmt.Errorf("failed after %d retries: %w", cfg.MaxRetries, lastErr)
	}
	return lastErr
}
