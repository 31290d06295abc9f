package payment

import (
	"context"
	"sync"
	"time"
)

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// Breaker wraps a Gateway with a circuit breaker.  After maxFailures
// consecutive transport or 5xx failures it rejects calls with ErrUnavailable until
// resetTimeout has passed, then lets one probe through.
type Breaker struct {
	next         Gateway
	maxFailures  int
	resetTimeout time.Duration
	now          func() time.Time

	mu          sync.Mutex
	state       breakerState
	failures    int
	lastFailure time.Time
}

// NewBreaker returns a Breaker around next.
func NewBreaker(next Gateway, maxFailures int, resetTimeout time.Duration) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Breaker{next: next, maxFailures: maxFailures, resetTimeout: resetTimeout, now: time.Now}
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case stateOpen:
		if b.now().Sub(b.lastFailure) <= b.resetTimeout {
			return false
		}
		b.state = stateHalfOpen
		return true
	case stateHalfOpen:
		// one probe at a time
		return false
	}
	return true
}

// record updates the state after a call.  Client errors count as a
// healthy gateway.
func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !gatewayFault(err) {
		b.state = stateClosed
		b.failures = 0
		return
	}
	b.failures++
	b.lastFailure = b.now()
	if b.state == stateHalfOpen || b.failures >= b.maxFailures {
		b.state = stateOpen
	}
}

// Open reports whether the breaker currently rejects calls.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == stateOpen && b.now().Sub(b.lastFailure) <= b.resetTimeout
}

func (b *Breaker) CreateCharge(ctx context.Context, req ChargeRequest) (Charge, error) {
	if !b.allow() {
		return Charge{}, ErrUnavailable
	}
	c, err := b.next.CreateCharge(ctx, req)
	b.record(err)
	return c, err
}

func (b *Breaker) TransactionStatus(ctx context.Context, transactionID string) (Status, error) {
	if !b.allow() {
		return Status{}, ErrUnavailable
	}
	s, err := b.next.TransactionStatus(ctx, transactionID)
	b.record(err)
	return s, err
}
