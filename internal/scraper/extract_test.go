package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSelectors = CardSelectors{
	Card:      "li.job-card",
	Title:     []string{".job-title", "h3"},
	Company:   []string{".company-name"},
	Location:  []string{".job-location"},
	Salary:    []string{".salary"},
	Link:      []string{"a.job-link"},
	EasyApply: []string{".easy-apply-badge"},
}

const cardsHTML = `
<ul>
  <li class="job-card">
    <a class="job-link" href="/jobs/view/123?refId=abc&trackingId=xyz"></a>
    <h3>Golang Developer</h3>
    <span class="company-name">Acme Corp</span>
    <span class="job-location">Ho Chi Minh City</span>
    <span class="easy-apply-badge">Easy Apply</span>
  </li>
  <li class="job-card">
    <a class="job-link" href="https://jobs.example.com/view/456"></a>
    <span class="job-title">Backend Engineer</span>
    <span class="company-name">Globex</span>
    <span class="salary">1500 USD</span>
  </li>
  <li class="job-card">
    <!-- no link: skipped -->
    <h3>Phantom Job</h3>
  </li>
</ul>`

func TestParseListingCards(t *testing.T) {
	listings, err := ParseListingCards(cardsHTML, "LinkedIn", "https://www.linkedin.com", testSelectors)
	require.NoError(t, err)
	require.Len(t, listings, 2)

	first := listings[0]
	assert.Equal(t, "Golang Developer", first.Title)
	assert.Equal(t, "Acme Corp", first.Company)
	assert.Equal(t, "Ho Chi Minh City", first.Location)
	assert.Equal(t, "https://www.linkedin.com/jobs/view/123", first.URL, "tracking params stripped, base prepended")
	assert.True(t, first.HasEasyApply)
	assert.False(t, first.ExtractedAt.IsZero())

	second := listings[1]
	assert.Equal(t, "Backend Engineer", second.Title, "falls back through the selector list")
	assert.Equal(t, "1500 USD", second.Salary)
	assert.False(t, second.HasEasyApply)
}

func TestCanonicalURL(t *testing.T) {
	assert.Equal(t, "https://x.com/job/1", CanonicalURL("https://x.com/job/1?refId=a&t=b"))
	assert.Equal(t, "https://x.com/job/1", CanonicalURL("https://x.com/job/1"))
}
