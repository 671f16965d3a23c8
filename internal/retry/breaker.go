package retry

import (
	"sync"
	"time"
)

// Breaker gates retry attempts and supplies inter-attempt delays. An open
// circuit stops the retry loop immediately.
type Breaker interface {
	CanExecute(key string) bool
	RecordSuccess(key string)
	RecordFailure(key string, err error)
	CalculateBackoff(attempt int) time.Duration
}

const (
	defaultFailureThreshold = 5
	defaultCooldown         = 30 * time.Second
	defaultBaseDelay        = 500 * time.Millisecond
	defaultMaxDelay         = 30 * time.Second
)

// CircuitBreaker is the default Breaker: a per-key failure counter that
// opens the circuit for a cooldown once the threshold is hit, with
// exponential backoff between attempts.
type CircuitBreaker struct {
	mu        sync.Mutex
	failures  map[string]int
	openUntil map[string]time.Time

	threshold int
	cooldown  time.Duration
	baseDelay time.Duration
	maxDelay  time.Duration
	now       func() time.Time
}

// BreakerOption adjusts a CircuitBreaker at construction.
type BreakerOption func(*CircuitBreaker)

// WithFailureThreshold sets how many consecutive failures open the
// circuit. Non-positive values keep the default.
func WithFailureThreshold(n int) BreakerOption {
	return func(b *CircuitBreaker) {
		if n > 0 {
			b.threshold = n
		}
	}
}

// WithCooldown sets how long an opened circuit stays open.
// Non-positive values keep the default.
func WithCooldown(d time.Duration) BreakerOption {
	return func(b *CircuitBreaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

func NewCircuitBreaker(opts ...BreakerOption) *CircuitBreaker {
	b := &CircuitBreaker{
		failures:  make(map[string]int),
		openUntil: make(map[string]time.Time),
		threshold: defaultFailureThreshold,
		cooldown:  defaultCooldown,
		baseDelay: defaultBaseDelay,
		maxDelay:  defaultMaxDelay,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *CircuitBreaker) CanExecute(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	until, ok := b.openUntil[key]
	if !ok {
		return true
	}
	if b.now().After(until) {
		delete(b.openUntil, key)
		b.failures[key] = 0
		return true
	}
	return false
}

func (b *CircuitBreaker) RecordSuccess(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, key)
	delete(b.openUntil, key)
}

func (b *CircuitBreaker) RecordFailure(key string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[key]++
	if b.failures[key] >= b.threshold {
		b.openUntil[key] = b.now().Add(b.cooldown)
	}
}

func (b *CircuitBreaker) CalculateBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := b.baseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= b.maxDelay {
			return b.maxDelay
		}
	}
	return delay
}
