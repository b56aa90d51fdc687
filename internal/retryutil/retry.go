package retryutil

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultInitialDelay = 50 * time.Millisecond
	defaultMaxDelay     = 2 * time.Second
	defaultMaxTries     = 4
)

type Policy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxTries     uint
}

func (p Policy) normalize() Policy {
	if p.InitialDelay <= 0 {
		p.InitialDelay = defaultInitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	if p.MaxTries == 0 {
		p.MaxTries = defaultMaxTries
	}
	return p
}

// Do runs fn until it succeeds, the policy gives up, or ctx ends. Errors
// wrapped with backoff.Permanent stop the loop immediately.
func Do(ctx context.Context, logger *slog.Logger, name string, policy Policy, fn func(ctx context.Context) error) error {
	if fn == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	policy = policy.normalize()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialDelay
	b.MaxInterval = policy.MaxDelay

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, fn(ctx)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(policy.MaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			if logger != nil {
				logger.Warn(name+"_retry_scheduled", "error", err.Error(), "delay", next.String())
			}
		}),
	)
	if err != nil {
		if logger != nil {
			logger.Error(name+"_retry_failed", "error", err.Error())
		}
		return err
	}
	return nil
}

func Permanent(err error) error {
	return backoff.Permanent(err)
}
