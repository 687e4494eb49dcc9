package scraper

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// CardSelectors describes where listing fields live inside one result
// card. Site packages supply their own selector sets.
type CardSelectors struct {
	Card      string
	Title     []string
	Company   []string
	Location  []string
	Salary    []string
	Link      []string
	EasyApply []string
}

// ParseListingCards extracts listings from a page HTML snapshot. Taking
// a snapshot and parsing it with goquery is much cheaper than a locator
// round-trip per field, and it keeps the field extraction testable
// offline.
func ParseListingCards(html, source, baseURL string, sel CardSelectors) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var listings []Listing
	doc.Find(sel.Card).Each(func(_ int, card *goquery.Selection) {
		url := extractAttr(card, sel.Link, "href")
		if url == "" {
			return
		}
		if !strings.HasPrefix(url, "http") {
			url = baseURL + url
		}

		l := Listing{
			Title:        ExtractField(card, sel.Title),
			Company:      ExtractField(card, sel.Company),
			Location:     ExtractField(card, sel.Location),
			Salary:       ExtractField(card, sel.Salary),
			URL:          CanonicalURL(url),
			Source:       source,
			HasEasyApply: exists(card, sel.EasyApply),
			ExtractedAt:  time.Now(),
		}
		if l.Title == "" {
			return
		}
		listings = append(listings, l)
	})
	return listings, nil
}

// ExtractField returns the first selector's non-empty trimmed text.
func ExtractField(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(s.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func extractAttr(s *goquery.Selection, selectors []string, attr string) string {
	for _, sel := range selectors {
		if v, ok := s.Find(sel).First().Attr(attr); ok && v != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func exists(s *goquery.Selection, selectors []string) bool {
	for _, sel := range selectors {
		if s.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}

// CanonicalURL strips query parameters. Job boards attach tracking
// params (?refId=..., ?trackingId=...) that make the same job look like
// different URLs and break deduplication.
func CanonicalURL(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}
