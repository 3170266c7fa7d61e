package webhook

import (
	"sync"
	"time"
)

// CircuitState is the state of a CircuitBreaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

var circuitStateNames = [...]string{"closed", "open", "half-open"}

func (s CircuitState) String() string {
	if s < 0 || int(s) >= len(circuitStateNames) {
		return "unknown"
	}
	return circuitStateNames[s]
}

// BreakerConfig tunes a CircuitBreaker.
type BreakerConfig struct {
	// Consecutive failures that open the circuit.
	FailureThreshold int `env:"ACTIVATION_WEBHOOK_BREAKER_FAILURES" envDefault:"5"`
	// Successful probes needed to close it again.
	SuccessThreshold int `env:"ACTIVATION_WEBHOOK_BREAKER_SUCCESSES" envDefault:"2"`
	// Time the circuit stays open before a probe is let through.
	Cooldown time.Duration `env:"ACTIVATION_WEBHOOK_BREAKER_COOLDOWN" envDefault:"30s"`
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 2
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	return c
}

// CircuitBreaker stops deliveries to an endpoint that keeps failing. Once the
// cooldown has passed, probes are let through; enough successful probes close
// the circuit and a single failed one opens it again.
// Safe for concurrent use.
type CircuitBreaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    CircuitState
	streak   int
	openedAt time.Time
}

// NewCircuitBreaker returns a closed breaker. Zero config fields fall back to
// 5 failures, 2 successes and a 30s cooldown.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg.withDefaults(), now: time.Now}
}

// Allow reports whether a delivery may be attempted. An open circuit whose
// cooldown has elapsed moves to half-open.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != CircuitOpen {
		return true
	}
	if cb.now().Sub(cb.openedAt) < cb.cfg.Cooldown {
		return false
	}
	cb.state = CircuitHalfOpen
	cb.streak = 0
	return true
}

// Done records the outcome of an allowed delivery.
func (cb *CircuitBreaker) Done(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.fail()
		return
	}

	switch cb.state {
	case CircuitClosed:
		cb.streak = 0
	case CircuitHalfOpen:
		cb.streak++
		if cb.streak >= cb.cfg.SuccessThreshold {
			cb.state = CircuitClosed
			cb.streak = 0
		}
	}
}

func (cb *CircuitBreaker) fail() {
	switch cb.state {
	case CircuitHalfOpen:
		cb.trip()
	case CircuitClosed:
		cb.streak++
		if cb.streak >= cb.cfg.FailureThreshold {
			cb.trip()
		}
	}
}

func (cb *CircuitBreaker) trip() {
	cb.state = CircuitOpen
	cb.streak = 0
	cb.openedAt = cb.now()
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
