package safety

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// isVisible is evaluated inside the page: an element only counts when it
// actually renders (display, visibility, opacity, nonzero box).
const isVisibleJS = `(selector) => {
	const els = document.querySelectorAll(selector);
	for (const el of els) {
		const style = window.getComputedStyle(el);
		const rect = el.getBoundingClientRect();
		if (style.display !== 'none' && style.visibility !== 'hidden' &&
			style.opacity !== '0' && rect.width > 0 && rect.height > 0) {
			return true;
		}
	}
	return false;
}`

var challengeSelectors = []string{
	"iframe[src*='captcha']",
	"iframe[title*='challenge']",
	"#captcha-internal",
	".challenge-dialog",
	"[data-test-id='challenge']",
	"form#challenge-form",
}

var blockedSelectors = []string{
	".blocked-page",
	"[data-test-id='account-restricted']",
	".suspended-account",
	".error-page--restricted",
}

// ChallengeCheck detects visible captcha/verification walls. Its failure
// needs a human, so the recommendation says so.
func ChallengeCheck(page playwright.Page) Check {
	return Check{
		Name:           "challenge",
		Recommendation: "resolve the verification challenge manually before resuming",
		Run: func(ctx context.Context) CheckResult {
			for _, sel := range challengeSelectors {
				visible, err := page.Evaluate(isVisibleJS, sel)
				if err != nil {
					continue
				}
				if v, ok := visible.(bool); ok && v {
					return CheckResult{Name: "challenge", Reason: fmt.Sprintf("verification challenge present (%s)", sel)}
				}
			}
			return CheckResult{Name: "challenge", Safe: true}
		},
	}
}

// SuspiciousStateCheck looks for blocked/suspended markers and for
// pages with implausibly few DOM nodes, which usually means a blocked
// or failed load.
func SuspiciousStateCheck(page playwright.Page) Check {
	return Check{
		Name:           "suspicious-state",
		Recommendation: "check the account status in a normal browser session",
		Run: func(ctx context.Context) CheckResult {
			for _, sel := range blockedSelectors {
				visible, err := page.Evaluate(isVisibleJS, sel)
				if err != nil {
					continue
				}
				if v, ok := visible.(bool); ok && v {
					return CheckResult{Name: "suspicious-state", Reason: fmt.Sprintf("blocked/restricted indicator present (%s)", sel)}
				}
			}

			count, err := page.Evaluate("() => document.querySelectorAll('*').length")
			if err == nil {
				if n, ok := toInt(count); ok && n < 50 {
					return CheckResult{Name: "suspicious-state", Reason: fmt.Sprintf("page has only %d DOM nodes, load looks blocked", n)}
				}
			}
			return CheckResult{Name: "suspicious-state", Safe: true}
		},
	}
}

// LoadTimeCheck flags anomalously slow page loads, a common side effect
// of interstitials and throttling.
func LoadTimeCheck(page playwright.Page, loadLimit, domReadyLimit time.Duration) Check {
	return Check{
		Name:           "load-time",
		Recommendation: "slow down and let the session cool off",
		Run: func(ctx context.Context) CheckResult {
			timing, err := page.Evaluate(`() => {
				const t = performance.timing;
				return {
					load: t.loadEventEnd > 0 ? t.loadEventEnd - t.navigationStart : 0,
					ready: t.domContentLoadedEventEnd > 0 ? t.domContentLoadedEventEnd - t.navigationStart : 0,
				};
			}`)
			if err != nil {
				//can't read timings: treat as safe rather than wedging the pipeline
				return CheckResult{Name: "load-time", Safe: true}
			}

			m, ok := timing.(map[string]interface{})
			if !ok {
				return CheckResult{Name: "load-time", Safe: true}
			}
			if load, ok := toInt(m["load"]); ok && load > int(loadLimit.Milliseconds()) {
				return CheckResult{Name: "load-time", Reason: fmt.Sprintf("page load took %dms (limit %dms)", load, loadLimit.Milliseconds())}
			}
			if ready, ok := toInt(m["ready"]); ok && ready > int(domReadyLimit.Milliseconds()) {
				return CheckResult{Name: "load-time", Reason: fmt.Sprintf("dom ready took %dms (limit %dms)", ready, domReadyLimit.Milliseconds())}
			}
			return CheckResult{Name: "load-time", Safe: true}
		},
	}
}

// UserPresenceCheck fails when nobody has touched the controls for too
// long; unattended automation is exactly what gets accounts flagged.
func UserPresenceCheck(activity *ActivityTracker, maxIdle time.Duration) Check {
	return Check{
		Name:           "user-presence",
		Recommendation: "confirm you are supervising the session, then resume",
		Run: func(ctx context.Context) CheckResult {
			idle := time.Since(activity.Last())
			if idle > maxIdle {
				return CheckResult{Name: "user-presence", Reason: fmt.Sprintf("no user activity for %s (limit %s)", idle.Round(time.Second), maxIdle)}
			}
			return CheckResult{Name: "user-presence", Safe: true}
		},
	}
}

// PageChecks is the standard battery for a live page.
func PageChecks(page playwright.Page, activity *ActivityTracker, loadLimit, domReadyLimit, maxIdle time.Duration) []Check {
	return []Check{
		ChallengeCheck(page),
		SuspiciousStateCheck(page),
		LoadTimeCheck(page, loadLimit, domReadyLimit),
		UserPresenceCheck(activity, maxIdle),
	}
}

// playwright's Evaluate returns numbers as int or float64 depending on value
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
