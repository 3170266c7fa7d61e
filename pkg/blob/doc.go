// Package blob stores whole named objects (snapshots) on pluggable backends.
//
// Unlike a general file store, blob only knows how to read and fully replace one
// object by key. That is all a snapshot-style store needs, and every backend can
// implement it atomically:
//
//   - LocalStorage writes to a temporary file in the same directory and renames
//     it over the target, so readers never observe a partial snapshot.
//   - S3Storage uses PutObject, which replaces the object in one request.
//   - RedisStorage uses SET on a single key.
//   - MemoryStorage keeps objects in process memory and is meant for tests.
//
// Read returns ErrNotFound when the key has never been written, so callers can
// treat a missing snapshot as an empty data set.
//
// # Configuration
//
// New selects a backend from Config, which is populated from the environment:
//
//	cfg := config.MustLoad[blob.Config]()
//	storage, closeStorage, err := blob.New(ctx, cfg)
//
// Healthcheck turns any backend into a readiness probe.
package blob
