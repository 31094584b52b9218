package image

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/reusedev/draw-studio/config"
)

type RetryPolicy struct {
	QuotaCooldown    time.Duration
	QuotaMaxCooldown time.Duration
	QuotaMargin      time.Duration
	TransientDelay   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		QuotaCooldown:    2 * time.Second,
		QuotaMaxCooldown: 30 * time.Second,
		QuotaMargin:      2 * time.Second,
		TransientDelay:   time.Second,
	}
}

func PolicyFromConfig(c config.Retry) RetryPolicy {
	return RetryPolicy{
		QuotaCooldown:    c.QuotaCooldown,
		QuotaMaxCooldown: c.QuotaMaxCooldown,
		QuotaMargin:      c.QuotaMargin,
		TransientDelay:   c.TransientDelay,
	}
}

// quotaBackOff doubles the quota wait per consecutive quota failure within a
// single dispatch, without jitter.
func (p RetryPolicy) quotaBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.QuotaCooldown
	b.MaxInterval = p.QuotaMaxCooldown
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// delay is the wait before the next attempt after c. A provider hint wins over
// the computed backoff.
func (p RetryPolicy) delay(c Classification, quota backoff.BackOff) time.Duration {
	switch c.Kind {
	case KindQuotaExceeded:
		if c.RetryAfter > 0 {
			return c.RetryAfter + p.QuotaMargin
		}
		d := quota.NextBackOff()
		if d == backoff.Stop {
			return p.QuotaMaxCooldown
		}
		return d
	case KindTransient:
		return p.TransientDelay
	}
	return 0
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
