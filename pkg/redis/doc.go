// Package redis opens go-redis clients for the Redis snapshot backend.
//
// Connect pings until the server answers or the attempts run out, so a
// service started next to its Redis container does not fail on the first
// refused connection. Healthcheck adapts a client to a readiness probe.
package redis
