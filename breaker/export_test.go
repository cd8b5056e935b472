package breaker

import "time"

// SetNow overrides the breaker clock in tests
func (b *Breaker) SetNow(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}
