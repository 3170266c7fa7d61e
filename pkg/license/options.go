package license

import (
	"log/slog"
	"time"
)

// Option configures a Store.
type Option func(*Store)

// WithKey sets the storage key of the snapshot. Default is "licenses.csv".
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock sets the time source used when an activation carries no
// occurrence time.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithFeatures sets the feature columns always written to the snapshot, even
// when no record has them yet.
func WithFeatures(features ...string) Option {
	return func(s *Store) {
		s.known = append(s.known, features...)
	}
}

// WithRetry sets how often a failed flush is retried and the initial backoff
// delay. Attempts below 1 are treated as 1.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(s *Store) {
		s.attempts = max(attempts, 1)
		s.delay = delay
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFlushObserver registers a callback invoked after every snapshot write
// with its duration and result.
func WithFlushObserver(fn func(d time.Duration, err error)) Option {
	return func(s *Store) {
		s.observe = fn
	}
}
