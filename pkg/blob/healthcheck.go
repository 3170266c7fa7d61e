package blob

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dpbiotech/configurator/pkg/redis"
)

// Pinger is implemented by backends that can check their connection cheaply.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthcheck returns a readiness probe for s. Backends implementing Pinger
// are pinged; others are probed by reading key, where ErrNotFound counts as
// healthy.
func Healthcheck(s Storage, key string) func(context.Context) error {
	return func(ctx context.Context) error {
		if p, ok := s.(Pinger); ok {
			return p.Ping(ctx)
		}
		if _, err := s.Read(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		return nil
	}
}

// Ping checks that the base directory is still accessible.
func (s *LocalStorage) Ping(context.Context) error {
	info, err := os.Stat(s.baseDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToRead, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrFailedToRead, s.baseDir)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *RedisStorage) Ping(ctx context.Context) error {
	return redis.Healthcheck(s.client)(ctx)
}
