package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanProceed_EmptyHistoryAllows(t *testing.T) {
	lim := Default(3*time.Second, 5, 20)
	d := lim.CanProceed(nil, time.Now())
	assert.True(t, d.Allowed)
	assert.Empty(t, d.Reason)
}

func TestCanProceed_HourlyWindowMath(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lim := New(0, Window{Name: "hourly", Max: 5, Duration: time.Hour})

	//exactly 5 events inside the last hour
	oldest := now.Add(-50 * time.Minute)
	history := []time.Time{
		oldest,
		now.Add(-40 * time.Minute),
		now.Add(-30 * time.Minute),
		now.Add(-20 * time.Minute),
		now.Add(-10 * time.Minute),
	}

	d := lim.CanProceed(history, now)
	assert.False(t, d.Allowed)
	assert.Equal(t, oldest.Add(time.Hour), d.NextAllowedAt)
	assert.Contains(t, d.Reason, "hourly limit reached (5/5)")
}

func TestCanProceed_AgedOutEventsDoNotCount(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lim := New(0, Window{Name: "hourly", Max: 5, Duration: time.Hour})

	history := []time.Time{
		now.Add(-2 * time.Hour), //outside the window
		now.Add(-90 * time.Minute),
		now.Add(-40 * time.Minute),
		now.Add(-30 * time.Minute),
		now.Add(-20 * time.Minute),
	}

	d := lim.CanProceed(history, now)
	assert.True(t, d.Allowed)
}

func TestCanProceed_MinimumDelay(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-1 * time.Second)
	lim := New(3*time.Second, Window{Name: "hourly", Max: 100, Duration: time.Hour})

	d := lim.CanProceed([]time.Time{last}, now)
	assert.False(t, d.Allowed)
	assert.Equal(t, last.Add(3*time.Second), d.NextAllowedAt)
	assert.Contains(t, d.Reason, "minimum delay active")
}

func TestCanProceed_MinDelayUsesNewestEvent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lim := New(time.Minute, Window{Name: "hourly", Max: 100, Duration: time.Hour})

	//history deliberately unsorted
	history := []time.Time{
		now.Add(-30 * time.Second),
		now.Add(-10 * time.Minute),
		now.Add(-5 * time.Minute),
	}

	d := lim.CanProceed(history, now)
	assert.False(t, d.Allowed)
	assert.Equal(t, now.Add(-30*time.Second).Add(time.Minute), d.NextAllowedAt)
}

func TestCanProceed_FirstExceededWindowWins(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lim := New(0,
		Window{Name: "hourly", Max: 2, Duration: time.Hour},
		Window{Name: "daily", Max: 2, Duration: 24 * time.Hour},
	)

	history := []time.Time{now.Add(-10 * time.Minute), now.Add(-20 * time.Minute)}

	d := lim.CanProceed(history, now)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "hourly")
}
