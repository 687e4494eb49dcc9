package formdriver

import (
	"regexp"
	"strings"

	"go-easyapply-automation/internal/profile"
)

// Kind is the inferred purpose of a form field; it decides which
// profile value goes in.
type Kind string

const (
	KindPhone      Kind = "phone"
	KindEmail      Kind = "email"
	KindName       Kind = "name"
	KindLocation   Kind = "location"
	KindSalary     Kind = "salary"
	KindExperience Kind = "experience"
	KindLinkedIn   Kind = "linkedin"
	KindWebsite    Kind = "website"
	KindFreeText   Kind = "freetext"
	KindUnknown    Kind = "unknown"
)

type fieldRule struct {
	pattern *regexp.Regexp
	kind    Kind
}

// Ordered rule table, first match wins. More specific patterns sit
// above the generic ones (e.g. linkedin before website, salary before
// experience since "expected salary" mentions neither).
var fieldRules = []fieldRule{
	{regexp.MustCompile(`(?i)\b(phone|mobile|tel|số điện thoại)\b`), KindPhone},
	{regexp.MustCompile(`(?i)\b(e-?mail)\b`), KindEmail},
	{regexp.MustCompile(`(?i)\b(full\s*name|first\s*name|last\s*name|your\s*name|họ tên)\b`), KindName},
	{regexp.MustCompile(`(?i)\b(city|location|address|country|nơi ở)\b`), KindLocation},
	{regexp.MustCompile(`(?i)\b(salary|compensation|expected\s*pay|mức lương)\b`), KindSalary},
	{regexp.MustCompile(`(?i)\b(years?\s*(of\s*)?experience|yoe|kinh nghiệm)\b`), KindExperience},
	{regexp.MustCompile(`(?i)\b(linkedin)\b`), KindLinkedIn},
	{regexp.MustCompile(`(?i)\b(website|portfolio|github|personal\s*site)\b`), KindWebsite},
	{regexp.MustCompile(`(?i)\b(cover\s*letter|summary|about\s*(you|yourself)|why\s*(do\s*)?you|additional\s*information|message)\b`), KindFreeText},
}

// InferKind classifies a field from its name/id/placeholder/aria-label
// and associated label text.
func InferKind(f Field) Kind {
	haystack := strings.ToLower(strings.Join([]string{f.Name, f.ID, f.Placeholder, f.AriaLabel, f.Label}, " "))

	//input types are the strongest signal when present
	switch f.Type {
	case "tel":
		return KindPhone
	case "email":
		return KindEmail
	}

	for _, r := range fieldRules {
		if r.pattern.MatchString(haystack) {
			return r.kind
		}
	}
	return KindUnknown
}

// ResolveValue picks the profile value for a kind. An empty return
// means "leave the field alone" — we never force a value we don't have.
func ResolveValue(kind Kind, p *profile.Profile) string {
	switch kind {
	case KindPhone:
		return p.Phone
	case KindEmail:
		return p.Email
	case KindName:
		return p.FullName
	case KindLocation:
		return p.Location
	case KindSalary:
		return p.DesiredSalary
	case KindExperience:
		return p.YearsExperienceString()
	case KindLinkedIn:
		return p.LinkedIn
	case KindWebsite:
		return p.Portfolio
	case KindFreeText:
		return p.Summary
	default:
		return ""
	}
}

// BestOption finds the select option whose label or value textually
// overlaps the resolved value, case-insensitive. No match means the
// field keeps its default.
func BestOption(options []Option, value string) (Option, bool) {
	needle := strings.ToLower(strings.TrimSpace(value))
	if needle == "" {
		return Option{}, false
	}

	for _, opt := range options {
		label := strings.ToLower(strings.TrimSpace(opt.Label))
		val := strings.ToLower(strings.TrimSpace(opt.Value))
		if label != "" && (strings.Contains(label, needle) || strings.Contains(needle, label)) {
			return opt, true
		}
		if val != "" && (strings.Contains(val, needle) || strings.Contains(needle, val)) {
			return opt, true
		}
	}
	return Option{}, false
}
