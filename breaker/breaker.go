package breaker

import (
	"errors"
	"sync"
	"time"
)

/* Circuit breaker guarding calls to a degraded downstream dependency.
 * Counts consecutive failures; at the threshold it opens and fails fast
 * for a cooldown period, then half-opens to let a single probe through
 * before fully closing again.
 */

// State of the breaker
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when the breaker refuses a call without attempting it
var ErrOpen = errors.New("circuit breaker open")

type Breaker struct {
	mu sync.Mutex

	name      string
	threshold int
	cooldown  time.Duration

	state       State
	failures    int
	lastFailure time.Time
	probing     bool

	// now is injectable for tests
	now func() time.Time
}

// New creates a breaker that opens after threshold consecutive failures
// and stays open for the cooldown period
func New(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{
		name:      name,
		threshold: threshold,
		cooldown:  cooldown,
		state:     Closed,
		now:       time.Now,
	}
}

/* Do runs fn under the breaker. When open, fn is not attempted and ErrOpen
 * comes back immediately. When half-open, exactly one caller gets to probe;
 * concurrent callers during the probe fail fast.
 */
func (b *Breaker) Do(fn func() error) error {
	if !b.allow() {
		return ErrOpen
	}

	err := fn()
	if err != nil {
		b.failure()
		return err
	}
	b.success()
	return nil
}

// State returns the current breaker state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.lastFailure) > b.cooldown {
		return HalfOpen
	}
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case Open:
		if b.now().Sub(b.lastFailure) > b.cooldown {
			b.state = HalfOpen
			b.probing = true
			return true
		}
		return false
	case HalfOpen:
		// A single probe is already in flight
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
	return true
}

func (b *Breaker) success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.probing = false
	b.state = Closed
}

func (b *Breaker) failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()
	b.probing = false

	if b.state == HalfOpen || b.failures >= b.threshold {
		b.state = Open
	}
}
