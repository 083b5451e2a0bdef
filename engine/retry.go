package engine

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/kbukum/evalgraph/errors"
	"github.com/kbukum/evalgraph/eval"
)

// RetryConfig configures re-evaluation of transiently failing nodes.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per node (including
	// the first). Zero or one disables retries.
	MaxAttempts int
	// InitialBackoff is the initial delay between attempts.
	InitialBackoff time.Duration
	// MaxBackoff is the maximum delay between attempts.
	MaxBackoff time.Duration
	// BackoffFactor is the multiplier for exponential backoff.
	BackoffFactor float64
	// Jitter adds randomness to backoff (0.0 to 1.0).
	Jitter float64
}

// DefaultRetryConfig returns sensible defaults for transient failures.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
	}
}

func (c *RetryConfig) normalize() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 100 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = 2.0
	}
}

// retryable reports whether a node failure is worth another attempt.
func retryable(err error) bool {
	return errors.IsRetryable(err)
}

// computeWithRetry runs fn.Compute up to cfg.MaxAttempts times, backing
// off between attempts on retryable failures. The onRetry hook is called
// before each retry.
func computeWithRetry(
	ctx context.Context,
	cfg RetryConfig,
	key eval.Key,
	run func() (eval.Value, error),
	onRetry func(attempt int, err error, backoff time.Duration),
) (eval.Value, error) {
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, errors.Interrupted(ctx.Err())
		default:
		}

		value, err := run()
		if err == nil {
			return value, nil
		}
		lastErr = err

		if !retryable(err) {
			return nil, err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		backoff := calculateBackoff(attempt, cfg)
		if onRetry != nil {
			onRetry(attempt, err, backoff)
		}

		select {
		case <-ctx.Done():
			return nil, errors.Interrupted(ctx.Err())
		case <-time.After(backoff):
		}
	}

	return nil, lastErr
}

// calculateBackoff computes the exponential backoff with jitter for an attempt.
func calculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	if cfg.Jitter > 0 {
		delta := cfg.Jitter * backoff
		backoff = backoff - delta + rand.Float64()*2*delta
	}
	return time.Duration(backoff)
}
