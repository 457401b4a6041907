package sweep

import (
	"sync"
	"time"
)

// Sweep names used as throttle keys.
const (
	SweepResets     = "resets"
	SweepForceClose = "force-close"
)

const defaultInterval = 60 * time.Second

// Throttle allows each named sweep to run at most once per interval. It
// replaces ambient "last ran at" state with an explicit component that can
// be shared between the HTTP triggers and the background runner.
type Throttle struct {
	mu       sync.Mutex
	lastRun  map[string]time.Time
	interval time.Duration
	now      func() time.Time
}

func NewThrottle() *Throttle {
	return &Throttle{
		lastRun:  make(map[string]time.Time),
		interval: defaultInterval,
		now:      time.Now,
	}
}

// Allow reports whether the named sweep may run now, and if so records the
// run. Callers that are denied simply skip this cycle.
func (t *Throttle) Allow(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.lastRun[name]; ok && now.Sub(last) < t.interval {
		return false
	}
	t.lastRun[name] = now
	return true
}
