package redis

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go"
	"github.com/redis/go-redis/v9"
)

var (
	ErrInvalidURL        = errors.New("invalid redis URL")
	ErrNotReady          = errors.New("redis not ready")
	ErrHealthcheckFailed = errors.New("redis healthcheck failed")
)

// Config describes a Redis connection.
type Config struct {
	URL            string        // redis://:password@localhost:6379/0
	PingAttempts   uint          // pings before giving up
	PingInterval   time.Duration // wait between pings
	ConnectTimeout time.Duration // budget for the whole Connect call
}

// Connect opens a client for cfg.URL and pings it until it answers.
// The client is closed again when Connect fails.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, errors.Join(ErrInvalidURL, errors.New("empty URL"))
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client := redis.NewClient(opts)
	err = retry.Do(
		func() error { return client.Ping(ctx).Err() },
		retry.Context(ctx),
		retry.Attempts(max(cfg.PingAttempts, 1)),
		retry.Delay(cfg.PingInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrNotReady, err)
	}
	return client, nil
}

// Healthcheck returns a readiness probe that pings the server.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
