package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"support-finder/internal/logger"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker open")
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

type CircuitState string

const (
	StateClosed   CircuitState = "closed"    // Normal operation
	StateOpen     CircuitState = "open"      // Failing, reject requests
	StateHalfOpen CircuitState = "half-open" // Testing if service recovered
)

// CircuitBreaker stops calling the completion service after repeated failures
// so callers go straight to their local fallback until the cooldown passes.
type CircuitBreaker struct {
	mu                   sync.Mutex
	state                CircuitState
	failureCount         int
	consecutiveSuccesses int
	inFlightProbes       int
	lastFailureTime      time.Time

	failureThreshold int           // Failures before opening
	successThreshold int           // Successes to close from half-open
	cooldown         time.Duration // How long to stay open
	halfOpenMax      int           // Max concurrent probes in half-open

	now func() time.Time
	log logger.Logger
}

func NewCircuitBreaker(failureThreshold int, cooldown time.Duration, log logger.Logger) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 3
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: failureThreshold,
		successThreshold: 2,
		cooldown:         cooldown,
		halfOpenMax:      1,
		now:              time.Now,
		log:              log.WithFields(map[string]interface{}{"component": "circuit_breaker"}),
	}
}

// Call runs fn unless the circuit is open. Cancellation by the caller is not
// counted as a service failure.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}
	err := fn()
	cb.afterRequest(err)
	return err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) < cb.cooldown {
			return ErrCircuitOpen
		}
		cb.setState(StateHalfOpen)
		cb.consecutiveSuccesses = 0
		cb.inFlightProbes = 0
		fallthrough
	case StateHalfOpen:
		if cb.inFlightProbes >= cb.halfOpenMax {
			return ErrTooManyRequests
		}
		cb.inFlightProbes++
	}
	return nil
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen && cb.inFlightProbes > 0 {
		cb.inFlightProbes--
	}
	if errors.Is(err, context.Canceled) {
		return
	}

	if err != nil {
		cb.failureCount++
		cb.consecutiveSuccesses = 0
		cb.lastFailureTime = cb.now()
		switch cb.state {
		case StateClosed:
			if cb.failureCount >= cb.failureThreshold {
				cb.setState(StateOpen)
			}
		case StateHalfOpen:
			cb.setState(StateOpen)
		}
		return
	}

	cb.consecutiveSuccesses++
	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		if cb.consecutiveSuccesses >= cb.successThreshold {
			cb.setState(StateClosed)
			cb.failureCount = 0
		}
	}
}

func (cb *CircuitBreaker) setState(next CircuitState) {
	prev := cb.state
	cb.state = next
	if prev != next {
		cb.log.Warn("circuit state changed", map[string]interface{}{
			"from":     string(prev),
			"to":       string(next),
			"failures": cb.failureCount,
		})
	}
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) IsOpen() bool {
	return cb.State() == StateOpen
}

// Reset manually resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(StateClosed)
	cb.failureCount = 0
	cb.consecutiveSuccesses = 0
	cb.inFlightProbes = 0
}
