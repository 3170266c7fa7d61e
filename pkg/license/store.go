package license

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/avast/retry-go"

	"github.com/dpbiotech/configurator/pkg/blob"
	"github.com/dpbiotech/configurator/pkg/logger"
	"github.com/dpbiotech/configurator/pkg/statemachine"
)

// Storage persists the snapshot. blob.Storage implementations satisfy it.
type Storage interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
}

// Activation is a completed payment bound to a serial number.
type Activation struct {
	Serial   string
	Features []string
	// OccurredAt is the payment time. Zero means the store clock.
	OccurredAt time.Time
}

// Store is the in-memory license index backed by a CSV snapshot.
// A transition becomes visible only after it is persisted.
type Store struct {
	storage   Storage
	key       string
	known     []string
	now       func() time.Time
	attempts  uint
	delay     time.Duration
	logger    *slog.Logger
	observe   func(time.Duration, error)
	lifecycle *statemachine.Machine[Status, Event]

	mu      sync.RWMutex
	records map[string]Record

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	// writeMu serializes snapshot writes.
	writeMu sync.Mutex
}

// Open builds a store and loads the snapshot once. A missing snapshot is an
// empty store.
func Open(ctx context.Context, storage Storage, opts ...Option) (*Store, error) {
	if storage == nil {
		return nil, fmt.Errorf("%w: nil storage", ErrFailedToLoad)
	}

	s := &Store{
		storage:   storage,
		key:       "licenses.csv",
		now:       time.Now,
		attempts:  3,
		delay:     100 * time.Millisecond,
		logger:    slog.Default(),
		lifecycle: lifecycle(),
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}

	data, err := storage.Read(ctx, s.key)
	switch {
	case errors.Is(err, blob.ErrNotFound):
		data = nil
	case err != nil:
		return nil, errors.Join(ErrFailedToLoad, err)
	}

	records, err := DecodeCSV(data)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoad, err)
	}
	s.records = records

	s.logger.InfoContext(ctx, "license snapshot loaded",
		logger.Component("license"),
		slog.String("key", s.key),
		slog.Int("records", len(records)),
	)

	return s, nil
}

// Get returns the record for serial or ErrNotFound.
func (s *Store) Get(serial string) (Record, error) {
	serial = NormalizeSerial(serial)

	s.mu.RLock()
	rec, ok := s.records[serial]
	s.mu.RUnlock()

	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, serial)
	}
	return rec.Clone(), nil
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// All returns a copy of every record ordered by serial.
func (s *Store) All() []Record {
	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, serial := range slices.Sorted(maps.Keys(s.records)) {
		out = append(out, s.records[serial].Clone())
	}
	s.mu.RUnlock()
	return out
}

// ApplyActivation records a completed payment for the serial. Unseen serials
// are created. A payment dated on or after the current activation date makes
// the license valid for one calendar year from that date; an older payment
// delivered late only merges its features. Purchased features are always
// merged into the active set.
//
// The new record is written to the snapshot before it becomes visible to
// readers. When the write still fails after retries nothing changes and the
// error wraps ErrPersist.
func (s *Store) ApplyActivation(ctx context.Context, a Activation) (Record, error) {
	serial := NormalizeSerial(a.Serial)
	if serial == "" {
		return Record{}, ErrInvalidSerial
	}

	lock := s.serialLock(serial)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	prev, existed := s.records[serial]
	s.mu.RUnlock()

	next := prev.Clone()
	if !existed {
		next = Record{Serial: serial, Status: StatusNotActive, Features: make(FeatureSet)}
	}

	occurred := a.OccurredAt
	if occurred.IsZero() {
		occurred = s.now()
	}

	to, err := s.lifecycle.Fire(ctx, next.Status, EventActivate, &payment{
		record:   &next,
		date:     dateOf(occurred),
		features: a.Features,
	})
	if err != nil {
		if errors.Is(err, statemachine.ErrNoTransition) || errors.Is(err, statemachine.ErrTransitionRejected) {
			return Record{}, fmt.Errorf("%w: %s is %s", ErrTransitionNotAllowed, serial, next.Status)
		}
		return Record{}, err
	}
	next.Status = to

	if err := s.persist(ctx, next); err != nil {
		s.logger.ErrorContext(ctx, "license activation not applied",
			logger.Component("license"),
			logger.Serial(serial),
			logger.Error(err),
		)
		return Record{}, errors.Join(ErrPersist, err)
	}

	s.logger.InfoContext(ctx, "license activated",
		logger.Component("license"),
		logger.Serial(serial),
		slog.String("status", string(next.Status)),
		logger.Features(next.Features.Sorted()),
		slog.String("expires", next.Expires.Format(DateLayout)),
	)

	return next.Clone(), nil
}

// Flush writes the full snapshot once.
func (s *Store) Flush(ctx context.Context) error {
	return s.flush(ctx, nil)
}

// flush writes the committed records plus staged, if any, and publishes staged
// once the write succeeded. writeMu is held across write and publish so a
// later snapshot always contains every published record.
func (s *Store) flush(ctx context.Context, staged *Record) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	start := time.Now()
	err := s.write(ctx, staged)
	if err == nil && staged != nil {
		s.mu.Lock()
		s.records[staged.Serial] = *staged
		s.mu.Unlock()
	}
	if s.observe != nil {
		s.observe(time.Since(start), err)
	}
	return err
}

func (s *Store) write(ctx context.Context, staged *Record) error {
	s.mu.RLock()
	records := make([]Record, 0, len(s.records)+1)
	for serial, r := range s.records {
		if staged != nil && serial == staged.Serial {
			continue
		}
		records = append(records, r)
	}
	s.mu.RUnlock()
	if staged != nil {
		records = append(records, *staged)
	}

	data, err := EncodeCSV(records, s.known)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	return s.storage.Write(ctx, s.key, data)
}

// persist writes staged with exponential backoff and publishes it on success.
func (s *Store) persist(ctx context.Context, staged Record) error {
	return retry.Do(
		func() error { return s.flush(ctx, &staged) },
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.WarnContext(ctx, "license snapshot flush failed, retrying",
				logger.Component("license"),
				logger.RetryCount(int(n)+1),
				logger.Error(err),
			)
		}),
	)
}

func (s *Store) serialLock(serial string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if s.locks[serial] == nil {
		s.locks[serial] = &sync.Mutex{}
	}
	return s.locks[serial]
}
