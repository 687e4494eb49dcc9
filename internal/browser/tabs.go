package browser

import (
	"fmt"
	"log"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Tabs is the page-context boundary: one tab per job URL, exclusively
// owned by the current application attempt for its duration.
type Tabs struct {
	mu   sync.Mutex
	ctx  playwright.BrowserContext
	open map[string]playwright.Page
}

func NewTabs(ctx playwright.BrowserContext) *Tabs {
	return &Tabs{
		ctx:  ctx,
		open: make(map[string]playwright.Page),
	}
}

// GetOrCreateTab returns the tab already showing url, or opens a new one
// and navigates it there.
func (t *Tabs) GetOrCreateTab(url string) (playwright.Page, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if page, ok := t.open[url]; ok && !page.IsClosed() {
		return page, nil
	}

	page, err := t.ctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		page.Close()
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	t.open[url] = page
	return page, nil
}

// WaitForLoad blocks until the load event or the timeout.
func (t *Tabs) WaitForLoad(page playwright.Page, timeoutMs float64) error {
	return page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateLoad,
		Timeout: playwright.Float(timeoutMs),
	})
}

// RunInPage is the explicit boundary crossing into the document: the
// function is serialized, executed in the page, and only a serializable
// result comes back.
func (t *Tabs) RunInPage(page playwright.Page, js string, arg interface{}) (interface{}, error) {
	return page.Evaluate(js, arg)
}

func (t *Tabs) CloseTab(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	page, ok := t.open[url]
	if !ok {
		return
	}
	delete(t.open, url)
	if !page.IsClosed() {
		if err := page.Close(); err != nil {
			log.Printf("⚠️ Failed to close tab for %s: %v", url, err)
		}
	}
}

func (t *Tabs) CloseAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for url, page := range t.open {
		delete(t.open, url)
		if !page.IsClosed() {
			page.Close()
		}
	}
}
