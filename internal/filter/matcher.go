package filter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"go-easyapply-automation/internal/profile"
	"go-easyapply-automation/internal/scraper"
)

var (
	includeRegex    = regexp.MustCompile(`(?i)\b(fresher|intern|junior|entry[\s-]?level|graduate|trainee|mid[\s-]?level)\b`)
	excludeRegex    = regexp.MustCompile(`(?i)\b(senior|lead|manager|principal|staff|architect)\b`)
	experienceRegex = regexp.MustCompile(`(?i)\b([5-9]|\d{2,})\s*(\+|plus)?\s*(năm|nam|years?|yoe)\b`)
	remoteRegex     = regexp.MustCompile(`(?i)\b(remote|từ xa|work from home|wfh)\b`)
)

// Matcher scores listings against the applicant profile. Scores are
// 0..100; the enqueue threshold comes from config.
type Matcher struct {
	keywords  []string
	locations []string
}

func NewMatcher(keywords, locations []string) *Matcher {
	return &Matcher{keywords: keywords, locations: locations}
}

func (m *Matcher) Score(l scraper.Listing, p *profile.Profile) int {
	score := 0
	text := fold(strings.ToLower(l.Title + " " + l.Description + " " + l.Company))

	//configured search keywords in title/description (+30)
	for _, kw := range m.keywords {
		if strings.Contains(text, fold(strings.ToLower(kw))) {
			score += 30
			break
		}
	}

	//level match (+20)
	if includeRegex.MatchString(text) {
		score += 20
	}

	//location tiers
	location := fold(strings.ToLower(l.Location))
	if m.matchesLocation(location) || m.matchesLocation(text) {
		score += 20
	} else if remoteRegex.MatchString(location) || remoteRegex.MatchString(text) {
		score += 10
	}

	//profile skill overlap, up to +20
	skillHits := 0
	for _, skill := range p.Skills {
		if strings.Contains(text, fold(strings.ToLower(skill))) {
			skillHits++
		}
	}
	if skillHits > 4 {
		skillHits = 4
	}
	score += skillHits * 5

	//easy apply is the whole point of the pipeline (+10)
	if l.HasEasyApply {
		score += 10
	}

	//penalty: requires more experience than the profile has (-50)
	if experienceRegex.MatchString(text) || excludeRegex.MatchString(text) {
		score -= 50
	}

	//score normalizing
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

// ShouldInclude is the enqueue-side filter.
func (m *Matcher) ShouldInclude(l scraper.Listing, p *profile.Profile, minScore int) bool {
	if !l.HasEasyApply {
		return false
	}
	if !IsRecentListing(l.PostedDate) {
		return false
	}
	return m.Score(l, p) >= minScore
}

func (m *Matcher) matchesLocation(haystack string) bool {
	for _, loc := range m.locations {
		if strings.Contains(haystack, fold(strings.ToLower(loc))) {
			return true
		}
	}
	return false
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold strips diacritics so "Hồ Chí Minh" matches "Ho Chi Minh".
func fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}
