package blob

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dpbiotech/configurator/pkg/redis"
)

// Storage reads and replaces whole objects by key.
type Storage interface {
	// Read returns the object content, or ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)
	// Write replaces the object content atomically.
	Write(ctx context.Context, key string, data []byte) error
}

// Backend names accepted by Config.Backend.
const (
	BackendLocal  = "local"
	BackendS3     = "s3"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config selects and configures a storage backend.
type Config struct {
	Backend string `env:"LICENSE_STORE_BACKEND" envDefault:"local"`
	Dir     string `env:"LICENSE_STORE_DIR" envDefault:"./data"`

	S3Bucket         string        `env:"LICENSE_STORE_S3_BUCKET"`
	S3Region         string        `env:"LICENSE_STORE_S3_REGION"`
	S3AccessKeyID    string        `env:"LICENSE_STORE_S3_ACCESS_KEY_ID"`
	S3SecretKey      string        `env:"LICENSE_STORE_S3_SECRET_KEY"`
	S3Endpoint       string        `env:"LICENSE_STORE_S3_ENDPOINT"`
	S3ForcePathStyle bool          `env:"LICENSE_STORE_S3_FORCE_PATH_STYLE" envDefault:"false"`
	S3Timeout        time.Duration `env:"LICENSE_STORE_S3_TIMEOUT" envDefault:"15s"`

	RedisURL       string        `env:"LICENSE_STORE_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisPrefix    string        `env:"LICENSE_STORE_REDIS_PREFIX" envDefault:"configurator:"`
	RedisRetries   uint          `env:"LICENSE_STORE_REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RedisRetryWait time.Duration `env:"LICENSE_STORE_REDIS_RETRY_INTERVAL" envDefault:"2s"`
}

// New creates the storage backend named by cfg.Backend.
// The returned closer releases backend connections; it is never nil.
func New(ctx context.Context, cfg Config) (Storage, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(cfg.Backend) {
	case BackendLocal, "":
		s, err := NewLocalStorage(cfg.Dir)
		return s, noop, err

	case BackendS3:
		s, err := NewS3Storage(ctx, S3Config{
			Bucket:         cfg.S3Bucket,
			Region:         cfg.S3Region,
			AccessKeyID:    cfg.S3AccessKeyID,
			SecretKey:      cfg.S3SecretKey,
			Endpoint:       cfg.S3Endpoint,
			ForcePathStyle: cfg.S3ForcePathStyle,
		}, WithS3Timeout(cfg.S3Timeout))
		return s, noop, err

	case BackendRedis:
		client, err := redis.Connect(ctx, redis.Config{
			URL:            cfg.RedisURL,
			PingAttempts:   cfg.RedisRetries,
			PingInterval:   cfg.RedisRetryWait,
			ConnectTimeout: 30 * time.Second,
		})
		if err != nil {
			return nil, noop, err
		}
		return NewRedisStorage(client, cfg.RedisPrefix), client.Close, nil

	case BackendMemory:
		return NewMemoryStorage(), noop, nil

	default:
		return nil, noop, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, cfg.Backend)
	}
}

// cleanKey normalizes a key and rejects anything that could escape the
// storage root.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return path.Clean(key), nil
}
