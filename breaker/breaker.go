// Package breaker implements a circuit breaker for external collaborators.
// Repeated failures open the circuit; calls are rejected until a cooldown
// elapses, after which a single probe call decides whether to close again.
package breaker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/medsafe/medsafe-api/logging"
)

// State of the circuit.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// ErrOpen is returned by Allow while the circuit is open.
var ErrOpen = errors.New("circuit breaker is open")

// Breaker guards one external collaborator. Safe for concurrent use.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// New creates a closed breaker. threshold is the number of consecutive
// failures that opens the circuit; cooldown is how long it stays open before
// a probe call is allowed.
func New(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{
		name:      name,
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		state:     StateClosed,
	}
}

// Allow reports whether a call may proceed. While half-open only one probe
// call at a time is admitted; the rest are rejected with ErrOpen.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return fmt.Errorf("%s: %w", b.name, ErrOpen)
		}
		b.state = StateHalfOpen
		b.probing = true
		logging.Info("Circuit breaker half-open, probing", "breaker", b.name)
		return nil
	case StateHalfOpen:
		if b.probing {
			return fmt.Errorf("%s: %w", b.name, ErrOpen)
		}
		b.probing = true
		return nil
	}
	return nil
}

// Success records a successful call and closes the circuit.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateClosed {
		logging.Info("Circuit breaker closed after successful probe", "breaker", b.name)
	}
	b.state = StateClosed
	b.failures = 0
	b.probing = false
}

// Failure records a failed call. Reaching the threshold, or failing the
// half-open probe, opens the circuit.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.probing = false

	if b.state == StateHalfOpen || b.failures >= b.threshold {
		if b.state != StateOpen {
			logging.Warn("Circuit breaker opened",
				"breaker", b.name,
				"consecutive_failures", b.failures,
				"cooldown", b.cooldown.String())
		}
		b.state = StateOpen
		b.openedAt = b.now()
	}
}

// State returns the current state without mutating it.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Name returns the collaborator name the breaker guards.
func (b *Breaker) Name() string {
	return b.name
}
