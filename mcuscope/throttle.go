package main

import (
	"sync"
	"time"
)

// frameInterval caps scope redraws at roughly 60 FPS.
const frameInterval = 16 * time.Millisecond

// throttle accepts at most one event per interval.
type throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func newThrottle(interval time.Duration) *throttle {
	return &throttle{interval: interval}
}

// allow reports whether an event at now should pass, recording it if so.
func (t *throttle) allow(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}
