package utils

import (
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

// RandomDelay pauses for a jittered interval between min and max
// milliseconds. A fixed cadence between actions is a bot fingerprint.
func RandomDelay(min, max int) {
	ms := min
	if max > min {
		ms += rand.Intn(max - min)
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// MouseJiggle drifts the cursor to a random viewport point in a few
// small hops, keeping the session from looking idle.
func MouseJiggle(page playwright.Page) {
	targetX := float64(100 + rand.Intn(900))
	targetY := float64(100 + rand.Intn(500))

	hops := 2 + rand.Intn(3)
	for i := 1; i <= hops; i++ {
		frac := float64(i) / float64(hops)
		jitter := float64(rand.Intn(20) - 10)
		page.Mouse().Move(targetX*frac+jitter, targetY*frac+jitter)
		RandomDelay(40, 120)
	}
}

// SmoothScroll works down the page in uneven wheel bursts with a small
// upward correction, then jumps to the bottom to trigger lazy loading.
func SmoothScroll(page playwright.Page) {
	bursts := 2 + rand.Intn(3)
	for i := 0; i < bursts; i++ {
		page.Mouse().Wheel(0, float64(300+rand.Intn(400)))
		RandomDelay(400, 900)
	}

	page.Mouse().Wheel(0, float64(-(100 + rand.Intn(200))))
	RandomDelay(300, 700)

	page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")
	RandomDelay(500, 1000)
}
