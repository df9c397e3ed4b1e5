// SPDX-License-Identifier: Apache-2.0

package backoff

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Backoff retries an operation until it succeeds, the retries are exhausted
// or the context is done.
type Backoff interface {
	RetryNotify(Operation, Notify) error
	Retry(Operation) error
}

type (
	Operation func() error
	Notify    func(error, time.Duration)
)

type Config struct {
	Exponential *ExponentialConfig
	Constant    *ConstantConfig
}

type ExponentialConfig struct {
	InitialInterval time.Duration
	// MaxElapsedTime bounds the total time spent retrying. Zero means no
	// bound other than MaxRetries.
	MaxElapsedTime time.Duration
	MaxRetries     uint
}

type ConstantConfig struct {
	Interval   time.Duration
	MaxRetries uint
}

// ErrPermanent marks an error that should not be retried.
var ErrPermanent = errors.New("permanent error, do not retry")

type Provider func(ctx context.Context) Backoff

// NewProvider returns a backoff provider based on the config on input. A nil
// or empty config results in a provider that does not retry.
func NewProvider(cfg *Config) Provider {
	switch {
	case cfg == nil:
		return func(context.Context) Backoff { return NewStopBackoff() }
	case cfg.Constant != nil:
		return func(ctx context.Context) Backoff {
			return NewConstantBackoff(ctx, cfg.Constant)
		}
	case cfg.Exponential != nil:
		return func(ctx context.Context) Backoff {
			return NewExponentialBackoff(ctx, cfg.Exponential)
		}
	default:
		return func(context.Context) Backoff { return NewStopBackoff() }
	}
}

type backOff struct {
	backoff.BackOff
}

func NewExponentialBackoff(ctx context.Context, cfg *ExponentialConfig) Backoff {
	exp := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		exp.InitialInterval = cfg.InitialInterval
	}
	exp.MaxElapsedTime = cfg.MaxElapsedTime
	return newBackoff(ctx, exp, cfg.MaxRetries)
}

func NewConstantBackoff(ctx context.Context, cfg *ConstantConfig) Backoff {
	return newBackoff(ctx, backoff.NewConstantBackOff(cfg.Interval), cfg.MaxRetries)
}

func NewStopBackoff() Backoff {
	return &backOff{BackOff: &backoff.StopBackOff{}}
}

func newBackoff(ctx context.Context, bo backoff.BackOff, maxRetries uint) *backOff {
	if maxRetries > 0 {
		bo = backoff.WithMaxRetries(bo, uint64(maxRetries))
	}
	return &backOff{BackOff: backoff.WithContext(bo, ctx)}
}

func (b *backOff) Retry(op Operation) error {
	return retryNotify(b, op, nil)
}

func (b *backOff) RetryNotify(op Operation, notify Notify) error {
	return retryNotify(b, op, notify)
}

func retryNotify(b backoff.BackOff, op Operation, notify Notify) error {
	boOp := func() error {
		err := op()
		if errors.Is(err, ErrPermanent) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(boOp, b, backoff.Notify(notify))
}
