// SPDX-License-Identifier: Apache-2.0

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/xataio/ftsearch/internal/backoff"
	loglib "github.com/xataio/ftsearch/pkg/log"
	tlslib "github.com/xataio/ftsearch/pkg/tls"
)

// Executor sends commands to redis using go-redis. The connection is forced
// to RESP2 so that search replies keep their flat array shape.
type Executor struct {
	client          goredis.UniversalClient
	logger          loglib.Logger
	backoffProvider backoff.Provider
}

type Config struct {
	URL string
	TLS tlslib.Config
	// ConnectBackoff configures the retries of the initial ping. No retries
	// are made when nil.
	ConnectBackoff *backoff.Config
}

type Option func(*Executor)

const resp2 = 2

var errMissingURL = errors.New("a redis URL must be provided")

func NewExecutor(cfg Config, opts ...Option) (*Executor, error) {
	if cfg.URL == "" {
		return nil, errMissingURL
	}
	redisOpts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	redisOpts.Protocol = resp2

	tlsConfig, err := tlslib.NewConfig(&cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("redis TLS config: %w", err)
	}
	// a rediss:// URL already carries a TLS config
	if tlsConfig != nil {
		redisOpts.TLSConfig = tlsConfig
	}

	e := NewExecutorWithClient(goredis.NewClient(redisOpts), opts...)
	e.backoffProvider = backoff.NewProvider(cfg.ConnectBackoff)
	return e, nil
}

// NewExecutorWithClient wraps an existing client. The client should be
// configured with protocol 2.
func NewExecutorWithClient(client goredis.UniversalClient, opts ...Option) *Executor {
	e := &Executor{
		client:          client,
		logger:          loglib.NewNoopLogger(),
		backoffProvider: backoff.NewProvider(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithLogger(l loglib.Logger) Option {
	return func(e *Executor) {
		e.logger = loglib.NewModuleLogger(l, "redis_executor")
	}
}

// Execute sends the command and returns the raw reply. A nil reply is
// returned as nil without error.
func (e *Executor) Execute(ctx context.Context, args []string) (any, error) {
	cmdArgs := make([]any, 0, len(args))
	for _, a := range args {
		cmdArgs = append(cmdArgs, a)
	}

	reply, err := e.client.Do(ctx, cmdArgs...).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return reply, nil
}

func (e *Executor) Ping(ctx context.Context) error {
	return e.client.Ping(ctx).Err()
}

// Connect pings the server, retrying as configured by the connect backoff.
func (e *Executor) Connect(ctx context.Context) error {
	return waitReady(ctx, e, e.backoffProvider(ctx), e.logger)
}

func (e *Executor) Close() error {
	return e.client.Close()
}

type pinger interface {
	Ping(ctx context.Context) error
}

func waitReady(ctx context.Context, p pinger, bo backoff.Backoff, logger loglib.Logger) error {
	return bo.RetryNotify(
		func() error {
			err := p.Ping(ctx)
			if err != nil && ctx.Err() != nil {
				return fmt.Errorf("%w: %w", backoff.ErrPermanent, err)
			}
			return err
		},
		func(err error, d time.Duration) {
			logger.Warn(err, "redis not ready, retrying", loglib.Fields{"backoff": d})
		})
}
