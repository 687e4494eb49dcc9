package linkedin

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/playwright-community/playwright-go"

	"go-easyapply-automation/internal/config"
	"go-easyapply-automation/internal/scraper"
	"go-easyapply-automation/utils"
)

var cardSelectors = scraper.CardSelectors{
	Card:      "li.scaffold-layout__list-item, li.jobs-search-results__list-item",
	Title:     []string{".job-card-list__title", ".job-card-container__link strong"},
	Company:   []string{".job-card-container__primary-description", ".artdeco-entity-lockup__subtitle"},
	Location:  []string{".job-card-container__metadata-item"},
	Link:      []string{"a.job-card-container__link"},
	EasyApply: []string{"li-icon[type='linkedin-bug']", ".job-card-container__apply-method"},
}

type Scraper struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Scraper {
	return &Scraper{cfg: cfg}
}

func (s *Scraper) Name() string {
	return "LinkedIn"
}

func (s *Scraper) Scrape(ctx context.Context, page playwright.Page) ([]scraper.Listing, error) {
	var listings []scraper.Listing
	log.Println("💼 Searching LinkedIn Jobs (Authenticated)...")

	//warm up phase & login check
	log.Println("🏠 Navigating to LinkedIn Feed for warm-up...")
	if _, err := page.Goto("https://www.linkedin.com/feed/", playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return nil, fmt.Errorf("failed to load linkedin feed: %w", err)
	}

	if _, err := page.WaitForSelector("#global-nav", playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		return nil, fmt.Errorf("login verification failed - global nav not found")
	}
	log.Println("✅ Login confirmed.")

	utils.RandomDelay(2000, 4000)
	utils.MouseJiggle(page)

	for _, keyword := range s.cfg.Keywords {
		if ctx.Err() != nil {
			return listings, ctx.Err()
		}
		log.Printf("\n🔑 Processing Keyword: %q", keyword)

		//f_AL=true filters to easy-apply listings only
		searchURL := fmt.Sprintf(
			"https://www.linkedin.com/jobs/search/?f_AL=true&f_TPR=r2592000&keywords=%s&refresh=true",
			url.QueryEscape(keyword),
		)

		log.Printf("  🌐 Visiting Job Search: %s", searchURL)
		if _, err := page.Goto(searchURL, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(30000),
		}); err != nil {
			log.Printf("    ⚠️ Failed to load job search page: %v", err)
			continue
		}

		if _, err := page.WaitForSelector(cardSelectors.Card, playwright.PageWaitForSelectorOptions{
			Timeout: playwright.Float(15000),
		}); err != nil {
			log.Println("    ⚠️ Job list not found or empty.")
			continue
		}
		utils.RandomDelay(2000, 3000)
		utils.SmoothScroll(page)

		//snapshot the rendered list and extract the cards offline
		html, err := page.Content()
		if err != nil {
			log.Printf("    ⚠️ Failed to snapshot page: %v", err)
			continue
		}

		found, err := scraper.ParseListingCards(html, s.Name(), "https://www.linkedin.com", cardSelectors)
		if err != nil {
			log.Printf("    ⚠️ Failed to parse listing cards: %v", err)
			continue
		}
		log.Printf("    📄 Found %d potential jobs.", len(found))

		//cap detail visits per keyword
		maxScan := 10
		if len(found) < maxScan {
			maxScan = len(found)
		}
		for _, l := range found[:maxScan] {
			detailed, err := s.enrichDetail(page, l)
			if err != nil {
				log.Printf("      ⚠️ Job detail error: %v", err)
				continue
			}
			listings = append(listings, detailed)
			utils.RandomDelay(1500, 3500)
		}
	}
	return listings, nil
}

// enrichDetail opens the job page in a side tab to pick up description,
// id and a definitive easy-apply signal.
func (s *Scraper) enrichDetail(page playwright.Page, l scraper.Listing) (scraper.Listing, error) {
	jobPage, err := page.Context().NewPage()
	if err != nil {
		return l, fmt.Errorf("failed to create new page: %w", err)
	}
	defer jobPage.Close()

	if _, err := jobPage.Goto(l.URL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return l, err
	}

	if _, err := jobPage.WaitForSelector(".job-details-jobs-unified-top-card__job-title, h1", playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		return l, fmt.Errorf("job details not found")
	}

	if title, err := jobPage.Locator(".job-details-jobs-unified-top-card__job-title, h1").First().InnerText(); err == nil {
		l.Title = strings.TrimSpace(title)
	}
	if company, err := jobPage.Locator(".job-details-jobs-unified-top-card__company-name").First().InnerText(); err == nil {
		l.Company = strings.TrimSpace(company)
	}

	//the apply button on the detail page is the authoritative signal
	applyBtn := jobPage.Locator("button.jobs-apply-button, button[aria-label*='Easy Apply']").First()
	if visible, err := applyBtn.IsVisible(); err == nil && visible {
		l.HasEasyApply = true
	}

	//expand and read the description
	showMoreBtn := jobPage.Locator("button[data-testid=\"expandable-text-button\"]")
	if isVisible, _ := showMoreBtn.IsVisible(); isVisible {
		showMoreBtn.Click(playwright.LocatorClickOptions{
			Force: playwright.Bool(true),
		})
		utils.RandomDelay(400, 800)
	}
	descEl := jobPage.Locator("#job-details, .jobs-description__content").First()
	if count, _ := descEl.Count(); count > 0 {
		if desc, err := descEl.InnerText(); err == nil {
			l.Description = desc
		}
	}

	//job id from the canonical URL path: /jobs/view/<id>
	parts := strings.Split(strings.TrimRight(l.URL, "/"), "/")
	l.ID = parts[len(parts)-1]

	return l, nil
}
