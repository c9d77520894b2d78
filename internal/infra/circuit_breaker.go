package infra

import (
	"errors"
	"sync"
	"time"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Sits in front of the SMTP relay so a dead mail server fails jobs fast and
// they go to retry/DLQ instead of holding workers on dial timeouts.
//
// States:
//   - Closed:    sends go through; FailureThreshold consecutive failures trip it
//   - Open:      Execute fails at once until OpenTimeout has elapsed
//   - Half-Open: sends are tried again; SuccessThreshold successes close it,
//     a single failure reopens it

// CBState is the breaker position.
type CBState int

const (
	CBClosed   CBState = iota // sends flow
	CBOpen                    // tripped, every send rejected
	CBHalfOpen                // trial sends after the cool-down
)

// String is the name reported in logs and on /health.
func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Execute without calling fn.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds the thresholds; zero values take the defaults.
type CircuitBreakerConfig struct {
	FailureThreshold int           // consecutive failures before opening (default 3)
	SuccessThreshold int           // half-open successes before closing (default 1)
	OpenTimeout      time.Duration // cool-down before trial sends (default 1m)
}

// DefaultCBConfig suits the SMTP relay: three strikes, one minute off.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      time.Minute,
	}
}

// CircuitBreaker is safe for concurrent use.
type CircuitBreaker struct {
	mu        sync.Mutex
	cfg       CircuitBreakerConfig
	state     CBState
	failures  int       // consecutive, reset on success
	successes int       // counted only while half-open
	openedAt  time.Time // start of the current cool-down
	now       func() time.Time
}

// NewCircuitBreaker starts closed.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg, state: CBClosed, now: time.Now}
}

// State reports the position, moving Open to Half-Open once the cool-down is over.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentLocked()
}

// currentLocked must be called with mu held.
func (cb *CircuitBreaker) currentLocked() CBState {
	if cb.state == CBOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.state = CBHalfOpen
		cb.successes = 0
	}
	return cb.state
}

// Execute runs fn unless the breaker is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.currentLocked() == CBOpen {
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.failures++
		// A failed trial send reopens at once.
		if cb.state == CBHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
			cb.state = CBOpen
			cb.openedAt = cb.now()
			cb.failures = 0
		}
		return err
	}

	cb.failures = 0
	if cb.state == CBHalfOpen {
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.state = CBClosed
			cb.successes = 0
		}
	}
	return nil
}
