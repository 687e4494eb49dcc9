package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go-easyapply-automation/internal/profile"
	"go-easyapply-automation/internal/scraper"
)

func testMatcher() *Matcher {
	return NewMatcher(
		[]string{"golang", "go developer"},
		[]string{"Hồ Chí Minh", "Can Tho"},
	)
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		FullName: "Tran Minh Quan",
		Email:    "quan@example.com",
		Skills:   []string{"Docker", "Kubernetes", "PostgreSQL", "gRPC"},
	}
}

func TestScore(t *testing.T) {
	m := testMatcher()
	p := testProfile()

	tests := []struct {
		name     string
		listing  scraper.Listing
		expected int
	}{
		{
			name: "strong match",
			listing: scraper.Listing{
				Title:        "Junior Golang Developer",
				Description:  "Docker, Kubernetes, gRPC",
				Location:     "Ho Chi Minh City",
				HasEasyApply: true,
			},
			//keyword 30 + level 20 + location 20 + 3 skills 15 + easy apply 10
			expected: 95,
		},
		{
			name: "senior penalty floors the score",
			listing: scraper.Listing{
				Title:       "Senior Golang Architect, 7+ years",
				Description: "Remote",
			},
			//keyword 30 + remote 10 - penalty 50
			expected: 0,
		},
		{
			name: "remote tier scores lower than configured location",
			listing: scraper.Listing{
				Title:    "Golang Developer",
				Location: "Remote",
			},
			expected: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := m.Score(tt.listing, p)
			assert.Equal(t, tt.expected, score)
		})
	}
}

func TestScore_DiacriticFolding(t *testing.T) {
	m := testMatcher()
	p := testProfile()

	withDiacritics := scraper.Listing{Title: "Golang Developer", Location: "Thành phố Hồ Chí Minh"}
	without := scraper.Listing{Title: "Golang Developer", Location: "Ho Chi Minh"}

	assert.Equal(t, m.Score(without, p), m.Score(withDiacritics, p))
}

func TestShouldInclude(t *testing.T) {
	m := testMatcher()
	p := testProfile()

	good := scraper.Listing{
		Title:        "Junior Golang Developer",
		Location:     "Can Tho",
		HasEasyApply: true,
	}
	assert.True(t, m.ShouldInclude(good, p, 50))

	noEasyApply := good
	noEasyApply.HasEasyApply = false
	assert.False(t, m.ShouldInclude(noEasyApply, p, 50), "easy apply is a hard precondition")

	stale := good
	stale.PostedDate = time.Now().AddDate(0, -6, 0).Format("2006-01-02")
	assert.False(t, m.ShouldInclude(stale, p, 50))
}

func TestIsRecentListing(t *testing.T) {
	assert.True(t, IsRecentListing(""))
	assert.True(t, IsRecentListing("Past month"))
	assert.True(t, IsRecentListing(time.Now().AddDate(0, 0, -10).Format("2006-01-02")))
	assert.False(t, IsRecentListing(time.Now().AddDate(0, 0, -90).Format("2006-01-02")))
	assert.False(t, IsRecentListing("2019-01-01"))
}
