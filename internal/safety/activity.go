package safety

import (
	"sync"
	"time"
)

// ActivityTracker records the last time a human touched the controls.
// The control surface pings it; the user-presence check reads it.
type ActivityTracker struct {
	mu   sync.Mutex
	last time.Time
}

func NewActivityTracker() *ActivityTracker {
	return &ActivityTracker{last: time.Now()}
}

func (a *ActivityTracker) Touch() {
	a.mu.Lock()
	a.last = time.Now()
	a.mu.Unlock()
}

func (a *ActivityTracker) Last() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}
