package filter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const maxListingAge = 60 * 24 * time.Hour

var (
	isoDateRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	yearOnlyRegex = regexp.MustCompile(`\b(20\d{2})\b`)
)

// IsRecentListing accepts listings posted within the last 60 days.
// Job boards emit dates in several shapes; unparseable ones pass
// through rather than silently dropping real listings.
func IsRecentListing(dateStr string) bool {
	if dateStr == "" || dateStr == "N/A" || dateStr == "Recent" || strings.Contains(strings.ToLower(dateStr), "past month") {
		return true
	}

	now := time.Now()

	//Case 1: ISO format "2026-01-27" or 2026-01-27T...
	if isoDateRegex.MatchString(dateStr) {
		if jobDate, err := time.Parse("2006-01-02", dateStr[:10]); err == nil {
			return withinAge(now, jobDate)
		}
	}

	//case 2: dd/mm/yyyy
	if strings.Contains(dateStr, "/") {
		parts := strings.Split(dateStr, "/")
		if len(parts) >= 3 {
			day, _ := strconv.Atoi(parts[0])
			month, _ := strconv.Atoi(parts[1])
			year, _ := strconv.Atoi(parts[2])
			return withinAge(now, time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC))
		}
	}

	//case 3: year only fallback
	if match := yearOnlyRegex.FindStringSubmatch(dateStr); match != nil {
		year, _ := strconv.Atoi(match[1])
		return year == now.Year() || year == now.Year()-1
	}

	//default
	return true
}

func withinAge(now, jobDate time.Time) bool {
	diff := now.Sub(jobDate)
	if diff > maxListingAge {
		return false
	}
	//reject future dates beyond 2 days (timezone slop)
	if diff < -2*24*time.Hour {
		return false
	}
	return true
}
