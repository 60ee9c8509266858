// Package retry provides exponential backoff with jitter for transient
// failures, used when connecting to the queue store.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Config holds retry strategy configuration.
type Config struct {
	// MaxAttempts counts the initial attempt too.
	MaxAttempts int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the backoff.
	MaxDelay time.Duration
	// Multiplier is the exponential backoff multiplier.
	Multiplier float64
	// RetryableErrors lists substrings an error message must contain to be
	// retried. Empty means every error is retryable.
	RetryableErrors []string
}

// DefaultConfig returns default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     5,
		InitialDelay:    1 * time.Second,
		MaxDelay:        30 * time.Second,
		Multiplier:      2.0,
		RetryableErrors: []string{},
	}
}

// Do executes fn with retries.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// DoWithResult executes fn with retries and returns its result. The last
// error is returned once attempts are exhausted; a non-retryable error or a
// done context short-circuits immediately.
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T

	if cfg.MaxAttempts <= 0 {
		return zero, fmt.Errorf("MaxAttempts must be greater than 0")
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryableError(err, cfg) {
			return zero, err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(addJitter(calculateDelay(attempt, cfg))):
		}
	}

	return zero, lastErr
}

func calculateDelay(attempt int, cfg Config) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}

// addJitter spreads delays by ±10% so restarting workers don't reconnect in
// lockstep.
func addJitter(delay time.Duration) time.Duration {
	//nolint:gosec // math/rand is sufficient for jitter, no security requirement
	jitter := float64(delay) * 0.1 * (rand.Float64()*2 - 1)
	return delay + time.Duration(jitter)
}

// IsRetryableError reports whether err matches the configured retryable
// patterns. Matching is case-insensitive on the error message.
func IsRetryableError(err error, cfg Config) bool {
	if err == nil {
		return false
	}
	if len(cfg.RetryableErrors) == 0 {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range cfg.RetryableErrors {
		if strings.Contains(msg, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// DefaultPostgresRetryableErrors returns the error patterns worth retrying
// when the queue store is coming up or briefly unreachable.
func DefaultPostgresRetryableErrors() []string {
	return []string{
		"connection refused",
		"i/o timeout",
		"connection reset",
		"server closed the connection",
		"too many connections",
		"database system is starting up",
		"the database system is starting up",
		"connection reset by peer",
		"no connection could be made",
		"network is unreachable",
		"dial tcp",
		"connection timed out",
	}
}

// PostgresConfig returns retry configuration tuned for queue store connections.
func PostgresConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryableErrors = DefaultPostgresRetryableErrors()
	return cfg
}
