package safety

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func passing(name string) Check {
	return Check{
		Name: name,
		Run: func(ctx context.Context) CheckResult {
			return CheckResult{Name: name, Safe: true}
		},
	}
}

func failing(name, reason, rec string) Check {
	return Check{
		Name:           name,
		Recommendation: rec,
		Run: func(ctx context.Context) CheckResult {
			return CheckResult{Name: name, Reason: reason}
		},
	}
}

func TestEvaluate_AllPass(t *testing.T) {
	gate := NewGate(passing("a"), passing("b"), passing("c"), passing("d"))

	v := gate.Evaluate(context.Background())
	assert.True(t, v.Safe)
	assert.Equal(t, 100, v.Confidence)
	assert.Len(t, v.Checks, 4)
	assert.Empty(t, v.Reason)
}

func TestEvaluate_SingleFailureSurfacesReason(t *testing.T) {
	gate := NewGate(
		passing("challenge"),
		failing("suspicious-state", "page has only 12 DOM nodes, load looks blocked", "check the account"),
		passing("load-time"),
		passing("user-presence"),
	)

	v := gate.Evaluate(context.Background())
	assert.False(t, v.Safe)
	assert.Equal(t, "page has only 12 DOM nodes, load looks blocked", v.Reason)
	assert.Equal(t, "check the account", v.Recommendation)
	assert.Len(t, v.Checks, 4, "all results retained for diagnostics")
}

func TestEvaluate_FirstFailingCheckWins(t *testing.T) {
	gate := NewGate(
		failing("challenge", "captcha visible", "solve it"),
		failing("load-time", "too slow", "cool off"),
	)

	v := gate.Evaluate(context.Background())
	assert.False(t, v.Safe)
	assert.Equal(t, "captcha visible", v.Reason)
	assert.Equal(t, "solve it", v.Recommendation)
}

func TestUserPresenceCheck(t *testing.T) {
	tracker := NewActivityTracker()

	check := UserPresenceCheck(tracker, 30*time.Minute)
	assert.True(t, check.Run(context.Background()).Safe)

	//simulate an idle session
	tracker.mu.Lock()
	tracker.last = time.Now().Add(-time.Hour)
	tracker.mu.Unlock()

	res := check.Run(context.Background())
	assert.False(t, res.Safe)
	assert.Contains(t, res.Reason, "no user activity")

	tracker.Touch()
	assert.True(t, check.Run(context.Background()).Safe)
}
