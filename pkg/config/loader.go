package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cacheMu sync.Mutex
	cache   = make(map[string]any)

	dotenvOnce sync.Once
)

// Option configures Load.
type Option func(*options)

type options struct {
	prefix string
	vars   map[string]string
}

// WithPrefix prepends prefix to every variable name of the struct.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithEnvironment parses vars instead of the process environment. Results
// are not cached.
func WithEnvironment(vars map[string]string) Option {
	return func(o *options) { o.vars = vars }
}

// LoadEnv loads the given .env files, or ./.env when none are given, into the
// process environment. Existing variables win.
func LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		return errors.Join(ErrLoadingEnv, err)
	}
	return nil
}

// Load parses the environment into a T using its env struct tags. The
// optional ./.env file is read once on first use. Process-environment results
// are cached per type and prefix.
//
//	type PaddleConfig struct {
//		APIKey string `env:"PADDLE_API_KEY,required"`
//	}
//	cfg, err := config.Load[PaddleConfig]()
func Load[T any](opts ...Option) (T, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var v T
	parseOpts := env.Options{Prefix: o.prefix}

	if o.vars != nil {
		parseOpts.Environment = o.vars
		if err := env.ParseWithOptions(&v, parseOpts); err != nil {
			return v, errors.Join(ErrParsingConfig, err)
		}
		return v, nil
	}

	dotenvOnce.Do(func() {
		// A missing .env file is normal outside development.
		_ = godotenv.Load()
	})

	key := o.prefix + "|" + typeName[T]()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[key]; ok {
		return cached.(T), nil
	}
	if err := env.ParseWithOptions(&v, parseOpts); err != nil {
		return v, errors.Join(ErrParsingConfig, err)
	}
	cache[key] = v
	return v, nil
}

// MustLoad is Load that panics on error.
func MustLoad[T any](opts ...Option) T {
	v, err := Load[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
	return v
}

// Reset drops all cached configurations.
func Reset() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	clear(cache)
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
