package formdriver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-easyapply-automation/internal/profile"
)

func testProfile() *profile.Profile {
	return &profile.Profile{
		FullName:        "Tran Minh Quan",
		Email:           "quan@example.com",
		Phone:           "+84 901 234 567",
		Location:        "Ho Chi Minh City",
		YearsExperience: 2,
		DesiredSalary:   "1500 USD",
		Summary:         "Backend developer focused on Go services.",
		LinkedIn:        "https://linkedin.com/in/quan",
		Portfolio:       "https://quan.dev",
	}
}

func TestInferKind(t *testing.T) {
	tests := []struct {
		name     string
		field    Field
		expected Kind
	}{
		{"phone by name", Field{Name: "phoneNumber"}, KindPhone},
		{"phone by input type", Field{Type: "tel", Name: "contact"}, KindPhone},
		{"email by type", Field{Type: "email"}, KindEmail},
		{"email by placeholder", Field{Placeholder: "Your email"}, KindEmail},
		{"name by label", Field{Label: "Full name"}, KindName},
		{"location by aria", Field{AriaLabel: "City or location"}, KindLocation},
		{"salary", Field{Label: "Expected salary"}, KindSalary},
		{"experience", Field{Label: "Years of experience with Go"}, KindExperience},
		{"linkedin before website", Field{Name: "linkedin_url"}, KindLinkedIn},
		{"portfolio", Field{Label: "Portfolio or website"}, KindWebsite},
		{"cover letter", Field{Placeholder: "Why do you want this job?"}, KindFreeText},
		{"unknown", Field{Name: "x42"}, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InferKind(tt.field))
		})
	}
}

func TestResolveValue(t *testing.T) {
	p := testProfile()

	assert.Equal(t, "+84 901 234 567", ResolveValue(KindPhone, p))
	assert.Equal(t, "quan@example.com", ResolveValue(KindEmail, p))
	assert.Equal(t, "2", ResolveValue(KindExperience, p))
	assert.Equal(t, "", ResolveValue(KindUnknown, p), "unknown kinds resolve to empty and get skipped")
}

func TestResolveValue_MissingProfileData(t *testing.T) {
	p := &profile.Profile{FullName: "A", Email: "a@b.c"}
	assert.Equal(t, "", ResolveValue(KindPhone, p))
	assert.Equal(t, "", ResolveValue(KindExperience, p), "zero years resolves empty")
}

func TestBestOption(t *testing.T) {
	options := []Option{
		{Value: "", Label: "Select an option"},
		{Value: "hcm", Label: "Ho Chi Minh City"},
		{Value: "hn", Label: "Ha Noi"},
		{Value: "remote", Label: "Remote"},
	}

	opt, ok := BestOption(options, "Ho Chi Minh City")
	assert.True(t, ok)
	assert.Equal(t, "hcm", opt.Value)

	//partial overlap, case-insensitive
	opt, ok = BestOption(options, "remote work")
	assert.True(t, ok)
	assert.Equal(t, "remote", opt.Value)

	_, ok = BestOption(options, "Da Nang")
	assert.False(t, ok, "no arbitrary selection when nothing matches")

	_, ok = BestOption(options, "")
	assert.False(t, ok)
}
