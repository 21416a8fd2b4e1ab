package retry

import (
	"context"
	"time"

	applogger "StockPulse/pkg/logger"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds a retried operation. Every error is retried; only MaxAttempts stops it.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Jitter randomizes each delay by ±Jitter of its value, in [0,1).
	Jitter float64
	// Logger receives one warning per failed attempt. Nil disables logging.
	Logger *applogger.Logger
}

// DefaultPolicy returns three attempts with 500ms base delay doubling up to 5s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Jitter:      0.5,
	}
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.BaseDelay
	eb.Multiplier = 2
	eb.RandomizationFactor = p.Jitter
	if p.MaxDelay > 0 {
		eb.MaxInterval = p.MaxDelay
	}
	eb.MaxElapsedTime = 0
	eb.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)
}

// Do runs op until it succeeds or the policy is exhausted, returning the last error.
// Context cancellation stops waiting between attempts.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	attempt := 0
	operation := func() (T, error) {
		attempt++
		return op(ctx)
	}

	notify := func(err error, wait time.Duration) {
		if p.Logger == nil {
			return
		}
		p.Logger.Warn("upstream call failed, retrying",
			applogger.Int("attempt", attempt),
			applogger.Int("max_attempts", p.MaxAttempts),
			applogger.Duration("wait_ms", wait),
			applogger.Error(err),
		)
	}

	return backoff.RetryNotifyWithData(operation, p.backOff(ctx), notify)
}
