// Sliding-window rate decisions for the application pipeline.
// The limiter holds only policy: the event history is supplied by the
// caller (the queue's application ledger), so hourly/daily counts and
// the "last application time" can never drift apart.

package ratelimit

import (
	"fmt"
	"time"
)

// Window is a named counting window, e.g. at most 5 events per hour.
type Window struct {
	Name     string
	Max      int
	Duration time.Duration
}

// Decision is the limiter's answer. When not allowed, NextAllowedAt is
// the earliest instant a retry could succeed.
type Decision struct {
	Allowed       bool
	Reason        string
	NextAllowedAt time.Time
}

type Limiter struct {
	minDelay time.Duration
	windows  []Window
}

// New builds a limiter. Windows are evaluated in the order given; the
// first exceeded one short-circuits.
func New(minDelay time.Duration, windows ...Window) *Limiter {
	return &Limiter{minDelay: minDelay, windows: windows}
}

// Default mirrors the shipped policy: hourly and daily caps.
func Default(minDelay time.Duration, maxPerHour, maxPerDay int) *Limiter {
	return New(minDelay,
		Window{Name: "hourly", Max: maxPerHour, Duration: time.Hour},
		Window{Name: "daily", Max: maxPerDay, Duration: 24 * time.Hour},
	)
}

// CanProceed is a pure function of the supplied history and clock. It
// never records anything; the caller appends to the ledger after the
// operation actually runs.
func (l *Limiter) CanProceed(history []time.Time, now time.Time) Decision {
	//minimum spacing between consecutive operations
	if last, ok := newest(history); ok && l.minDelay > 0 {
		if now.Sub(last) < l.minDelay {
			next := last.Add(l.minDelay)
			return Decision{
				Reason:        fmt.Sprintf("minimum delay active, retry after %s", next.Format("15:04:05")),
				NextAllowedAt: next,
			}
		}
	}

	for _, w := range l.windows {
		count := 0
		var oldest time.Time
		for _, ts := range history {
			if now.Sub(ts) < w.Duration {
				count++
				if oldest.IsZero() || ts.Before(oldest) {
					oldest = ts
				}
			}
		}
		if count >= w.Max {
			next := oldest.Add(w.Duration)
			return Decision{
				Reason:        fmt.Sprintf("%s limit reached (%d/%d), retry after %s", w.Name, count, w.Max, next.Format("15:04:05")),
				NextAllowedAt: next,
			}
		}
	}

	return Decision{Allowed: true}
}

func newest(history []time.Time) (time.Time, bool) {
	if len(history) == 0 {
		return time.Time{}, false
	}
	last := history[0]
	for _, ts := range history[1:] {
		if ts.After(last) {
			last = ts
		}
	}
	return last, true
}
