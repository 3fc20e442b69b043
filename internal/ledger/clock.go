package ledger

import (
	"sync"
	"time"
)

// Clock supplies activity timestamps.
type Clock interface {
	Now() time.Time
}

// monotonicClock never returns a time earlier than one it already returned,
// even if the wall clock steps backwards.
type monotonicClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewMonotonicClock wraps now (time.Now when nil).
func NewMonotonicClock(now func() time.Time) Clock {
	if now == nil {
		now = time.Now
	}
	return &monotonicClock{now: now}
}

func (c *monotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC()
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}
