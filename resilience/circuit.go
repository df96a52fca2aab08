package resilience

import (
	"context"
	"sync"
	"time"
)

// State is the circuit breaker position.
type State int

const (
	// StateClosed lets provider calls through normally.
	StateClosed State = iota
	// StateOpen rejects every call without contacting the provider.
	StateOpen
	// StateHalfOpen lets a limited number of probe calls through to see
	// whether the provider has recovered.
	StateHalfOpen
)

var stateNames = [...]string{"closed", "open", "half-open"}

// String returns the lowercase state name.
func (s State) String() string {
	if s < StateClosed || s > StateHalfOpen {
		return "unknown"
	}
	return stateNames[s]
}

// CircuitBreakerConfig configures when the breaker trips and recovers.
type CircuitBreakerConfig struct {
	// MaxFailures is how many consecutive failures open the circuit.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long an open circuit waits before probing the
	// provider again. Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxRequests caps probe calls while half-open. Default: 1
	HalfOpenMaxRequests int

	// OnStateChange is notified on every transition.
	OnStateChange func(from, to State)

	// IsFailure decides whether an error counts against the provider.
	// Default: provider-side failures (timeouts, unavailability, rate
	// limits, model errors, unknown) count; caller mistakes classified
	// as invalid input do not trip the breaker.
	IsFailure func(err error) bool
}

// defaultIsFailure blames the provider for everything except invalid
// input, which is the caller's fault and says nothing about upstream
// health.
func defaultIsFailure(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err).Kind != KindInvalidInput
}

// CircuitBreaker stops hammering a provider that keeps failing,
// converting repeated upstream errors into fast local rejections.
//
// Contract:
//   - Closed: calls pass; MaxFailures consecutive failures open it.
//   - Open: calls fail with ErrCircuitOpen until ResetTimeout elapses.
//   - Half-open: up to HalfOpenMaxRequests probes pass; one success
//     closes the circuit, one failure reopens it.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
	probes      int
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = defaultIsFailure
	}

	return &CircuitBreaker{config: config, state: StateClosed}
}

// Execute runs one provider call through the breaker. When the circuit
// is open the call is rejected with ErrCircuitOpen without reaching
// the provider.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := op(ctx)
	cb.record(err)
	return err
}

// State reports the current position, accounting for an elapsed reset
// timeout.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

// Reset forces the circuit closed and clears its counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	from := cb.state
	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
	cb.probes = 0

	if from != StateClosed && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, StateClosed)
	}
}

// Metrics returns a snapshot of the breaker counters.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerMetrics{
		State:       cb.currentStateLocked(),
		Failures:    cb.failures,
		Successes:   cb.successes,
		LastFailure: cb.lastFailure,
	}
}

// admit decides whether the next call may reach the provider.
func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentStateLocked() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.probes >= cb.config.HalfOpenMaxRequests {
			return ErrCircuitOpen
		}
		cb.probes++
	}
	return nil
}

// record folds a call outcome into the breaker state.
func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := cb.config.IsFailure(err)
	from := cb.state

	switch cb.state {
	case StateClosed:
		if !failed {
			cb.failures = 0
			break
		}
		cb.failures++
		cb.lastFailure = time.Now()
		if cb.failures >= cb.config.MaxFailures {
			cb.state = StateOpen
		}

	case StateHalfOpen:
		if failed {
			// The probe failed; restart the open-state timer.
			cb.lastFailure = time.Now()
			cb.state = StateOpen
			break
		}
		cb.successes++
		cb.state = StateClosed
		cb.failures = 0
		cb.successes = 0
	}

	if from != cb.state && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, cb.state)
	}
}

// currentStateLocked flips an open circuit to half-open once the reset
// timeout has elapsed. Callers must hold cb.mu.
func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && time.Since(cb.lastFailure) >= cb.config.ResetTimeout {
		cb.state = StateHalfOpen
		cb.probes = 0
		if cb.config.OnStateChange != nil {
			cb.config.OnStateChange(StateOpen, StateHalfOpen)
		}
	}
	return cb.state
}

// CircuitBreakerMetrics is a snapshot of breaker counters.
type CircuitBreakerMetrics struct {
	State       State
	Failures    int
	Successes   int
	LastFailure time.Time
}
