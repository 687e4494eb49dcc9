package formdriver

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Default container selectors for the easy-apply modal family.
var defaultContainerSelectors = []string{
	".jobs-easy-apply-modal",
	"div[data-test-modal]",
	".jobs-easy-apply-content",
	".artdeco-modal",
}

var nextSelectors = []string{
	"button[aria-label*='Continue to next step']",
	"button[data-easy-apply-next-button]",
	"button[aria-label*='Next']",
	"button:has-text('Next')",
	"button:has-text('Continue')",
	"button:has-text('Review')",
}

var submitSelectors = []string{
	"button[aria-label*='Submit application']",
	"button:has-text('Submit application')",
	"button:has-text('Submit')",
	"button:has-text('Apply')",
}

// PageSurface implements Surface on a live playwright page.
type PageSurface struct {
	page               playwright.Page
	containerSelectors []string
	container          playwright.Locator
	refs               map[string]playwright.Locator
	next               playwright.Locator
	submit             playwright.Locator
}

func NewPageSurface(page playwright.Page, containerSelectors ...string) *PageSurface {
	if len(containerSelectors) == 0 {
		containerSelectors = defaultContainerSelectors
	}
	return &PageSurface{
		page:               page,
		containerSelectors: containerSelectors,
		refs:               make(map[string]playwright.Locator),
	}
}

func (s *PageSurface) DetectContainer(ctx context.Context) (bool, error) {
	for _, sel := range s.containerSelectors {
		loc := s.page.Locator(sel).First()
		visible, err := loc.IsVisible()
		if err != nil {
			continue
		}
		if visible {
			s.container = loc
			return true, nil
		}
	}
	return false, nil
}

func (s *PageSurface) Fields(ctx context.Context) ([]Field, error) {
	if s.container == nil {
		return nil, fmt.Errorf("no form container detected")
	}

	locs, err := s.container.Locator("input:not([type='hidden']), textarea, select").All()
	if err != nil {
		return nil, fmt.Errorf("failed to query inputs: %w", err)
	}

	s.refs = make(map[string]playwright.Locator)
	var fields []Field
	for i, loc := range locs {
		visible, err := loc.IsVisible()
		if err != nil || !visible {
			continue
		}
		enabled, err := loc.IsEnabled()
		if err != nil || !enabled {
			continue
		}
		editable, err := loc.IsEditable()
		if err != nil || !editable {
			continue
		}

		tag, err := loc.Evaluate("el => el.tagName.toLowerCase()", nil)
		if err != nil {
			continue
		}

		f := Field{Ref: fmt.Sprintf("field-%d", i)}
		switch tag {
		case "textarea":
			f.Type = "textarea"
		case "select":
			f.Type = "select"
		default:
			f.Type, _ = loc.GetAttribute("type")
		}

		f.Name, _ = loc.GetAttribute("name")
		f.ID, _ = loc.GetAttribute("id")
		f.Placeholder, _ = loc.GetAttribute("placeholder")
		f.AriaLabel, _ = loc.GetAttribute("aria-label")
		f.Value, _ = loc.InputValue()

		//associated label text, if any
		if f.ID != "" {
			labelLoc := s.page.Locator(fmt.Sprintf("label[for='%s']", f.ID)).First()
			if count, _ := labelLoc.Count(); count > 0 {
				f.Label, _ = labelLoc.InnerText()
			}
		}

		if f.Type == "select" {
			opts, err := loc.Locator("option").All()
			if err == nil {
				for _, o := range opts {
					value, _ := o.GetAttribute("value")
					label, _ := o.InnerText()
					f.Options = append(f.Options, Option{Value: value, Label: label})
				}
			}
		}

		s.refs[f.Ref] = loc
		fields = append(fields, f)
	}
	return fields, nil
}

func (s *PageSurface) FillText(ctx context.Context, ref, value string) error {
	loc, ok := s.refs[ref]
	if !ok {
		return fmt.Errorf("unknown field ref %s", ref)
	}
	return loc.Fill(value)
}

func (s *PageSurface) TypeText(ctx context.Context, ref, value string, delay time.Duration) error {
	loc, ok := s.refs[ref]
	if !ok {
		return fmt.Errorf("unknown field ref %s", ref)
	}
	if err := loc.Click(); err != nil {
		return err
	}
	return loc.PressSequentially(value, playwright.LocatorPressSequentiallyOptions{
		Delay: playwright.Float(float64(delay.Milliseconds())),
	})
}

func (s *PageSurface) SelectOption(ctx context.Context, ref, value string) error {
	loc, ok := s.refs[ref]
	if !ok {
		return fmt.Errorf("unknown field ref %s", ref)
	}
	_, err := loc.SelectOption(playwright.SelectOptionValues{Values: &[]string{value}})
	return err
}

func (s *PageSurface) NextControl(ctx context.Context) (bool, bool, error) {
	loc := s.findControl(nextSelectors)
	if loc == nil {
		return false, false, nil
	}
	s.next = loc
	enabled, err := loc.IsEnabled()
	if err != nil {
		return true, false, err
	}
	return true, enabled, nil
}

func (s *PageSurface) ClickNext(ctx context.Context) error {
	if s.next == nil {
		return fmt.Errorf("no next control located")
	}
	return s.next.Click()
}

func (s *PageSurface) SubmitControl(ctx context.Context) (bool, error) {
	loc := s.findControl(submitSelectors)
	if loc == nil {
		return false, nil
	}
	s.submit = loc
	return true, nil
}

func (s *PageSurface) ClickSubmit(ctx context.Context) error {
	if s.submit == nil {
		return fmt.Errorf("no submit control located")
	}
	return s.submit.Click()
}

func (s *PageSurface) PageText(ctx context.Context) (string, error) {
	return s.page.Locator("body").InnerText()
}

// findControl scans within the container first, then the whole page
// (confirmation dialogs often render outside the original modal).
func (s *PageSurface) findControl(selectors []string) playwright.Locator {
	scopes := []playwright.Locator{}
	if s.container != nil {
		scopes = append(scopes, s.container)
	}
	scopes = append(scopes, s.page.Locator("body"))

	for _, scope := range scopes {
		for _, sel := range selectors {
			loc := scope.Locator(sel).First()
			visible, err := loc.IsVisible()
			if err == nil && visible {
				return loc
			}
		}
	}
	return nil
}
