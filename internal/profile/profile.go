package profile

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go-easyapply-automation/internal/storage"
)

const storageKey = "profile"

// Profile holds the applicant data used to answer form fields.
// Loaded from the secret store so contact details stay encrypted at rest.
type Profile struct {
	FullName        string   `json:"full_name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Location        string   `json:"location"`
	CurrentTitle    string   `json:"current_title"`
	YearsExperience int      `json:"years_experience"`
	DesiredSalary   string   `json:"desired_salary"`
	Summary         string   `json:"summary"`
	LinkedIn        string   `json:"linkedin,omitempty"`
	Portfolio       string   `json:"portfolio,omitempty"`
	Skills          []string `json:"skills"`
}

func Load(store storage.Store) (*Profile, error) {
	data, err := store.Get(storageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func Save(store storage.Store, p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	return store.Put(storageKey, data)
}

func (p *Profile) Validate() error {
	if strings.TrimSpace(p.FullName) == "" {
		return fmt.Errorf("profile: full_name is required")
	}
	if strings.TrimSpace(p.Email) == "" {
		return fmt.Errorf("profile: email is required")
	}
	return nil
}

// YearsExperienceString is what goes into "years of experience" inputs.
func (p *Profile) YearsExperienceString() string {
	if p.YearsExperience <= 0 {
		return ""
	}
	return strconv.Itoa(p.YearsExperience)
}
