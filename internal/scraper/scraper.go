// Define an interface for all scrapers
// Ensure consistency

package scraper

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Listing is one discovered job posting. HasEasyApply gates whether it
// can ever enter the application queue.
type Listing struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Location     string    `json:"location"`
	Salary       string    `json:"salary,omitempty"`
	URL          string    `json:"url"`
	Description  string    `json:"description,omitempty"`
	Source       string    `json:"source"`
	PostedDate   string    `json:"posted_date,omitempty"`
	HasEasyApply bool      `json:"has_easy_apply"`
	ExtractedAt  time.Time `json:"extracted_at"`
	MatchScore   int       `json:"match_score"`
}

//Scraper defines the interface that all platform scrapers must implement
type Scraper interface {
	//Scrape jobs from the platform
	Scrape(ctx context.Context, page playwright.Page) ([]Listing, error)

	//Name is the platform name
	Name() string
}
