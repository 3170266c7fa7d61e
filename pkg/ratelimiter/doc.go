// Package ratelimiter implements token bucket rate limiting with HTTP
// middleware. MemoryStore keeps buckets per process; RedisStore shares them
// between instances through an atomic Lua script.
//
// A bucket holds up to Capacity tokens and regains RefillRate tokens every
// RefillInterval. Each request takes one token; a request finding the bucket
// empty is denied without draining it further.
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//	bucket, err := ratelimiter.NewBucket(store, cfg)
//	r.With(ratelimiter.Middleware(bucket, ratelimiter.ByClientIP)).Post("/checkout", h)
package ratelimiter
