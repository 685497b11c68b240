package ratelimiter

import (
	"sync"
	"time"
)

// Limiter lets one action through per interval. It is used to throttle
// progress reporting while a body is being streamed.
type Limiter struct {
	mu          sync.Mutex
	interval    time.Duration
	lastAllowed time.Time
	now         func() time.Time
}

// New creates a new rate limiter with the specified interval.
// A non-positive interval allows every call.
func New(interval time.Duration) *Limiter {
	return &Limiter{
		interval: interval,
		now:      time.Now,
	}
}

// NewStarted creates a limiter whose first window begins now, so the first
// Allow succeeds only after a full interval.
func NewStarted(interval time.Duration) *Limiter {
	l := New(interval)
	l.lastAllowed = l.now()
	return l
}

// Allow reports whether an action may run now and, if so, records it.
// When blocked it also returns the remaining wait.
func (l *Limiter) Allow() (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	since := now.Sub(l.lastAllowed)

	if l.lastAllowed.IsZero() || since >= l.interval {
		l.lastAllowed = now
		return true, 0
	}

	return false, l.interval - since
}

// Reset clears the limiter state, allowing the next action immediately.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.lastAllowed = time.Time{}
	l.mu.Unlock()
}

// Interval returns the configured rate limit interval.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
