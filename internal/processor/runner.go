package processor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-easyapply-automation/internal/browser"
	"go-easyapply-automation/internal/formdriver"
	"go-easyapply-automation/internal/profile"
	"go-easyapply-automation/internal/queue"
	"go-easyapply-automation/internal/safety"
	"go-easyapply-automation/utils"
)

var applySelectors = []string{
	"button.jobs-apply-button",
	"button[aria-label*='Easy Apply']",
	"button:has-text('Easy Apply')",
}

// SafetyLimits are the thresholds for the per-page safety battery.
type SafetyLimits struct {
	PageLoadLimit time.Duration
	DomReadyLimit time.Duration
	MaxUserIdle   time.Duration
}

// FormRunner owns one application attempt end to end: open the job tab,
// open the easy-apply modal, drive the form, close the tab.
type FormRunner struct {
	tabs     *browser.Tabs
	prof     *profile.Profile
	cfg      formdriver.Config
	activity *safety.ActivityTracker
	limits   SafetyLimits
	debugger *utils.ScreenShotDebugger
}

func NewFormRunner(tabs *browser.Tabs, prof *profile.Profile, cfg formdriver.Config, activity *safety.ActivityTracker, limits SafetyLimits) *FormRunner {
	return &FormRunner{
		tabs:     tabs,
		prof:     prof,
		cfg:      cfg,
		activity: activity,
		limits:   limits,
		debugger: utils.NewScreenShotDebugger(),
	}
}

func (r *FormRunner) Run(ctx context.Context, job queue.JobRef) formdriver.Result {
	page, err := r.tabs.GetOrCreateTab(job.URL)
	if err != nil {
		return formdriver.Result{Error: fmt.Sprintf("failed to open job page: %v", err)}
	}
	//the tab is exclusively ours until the attempt ends
	defer r.tabs.CloseTab(job.URL)

	if err := r.tabs.WaitForLoad(page, 30000); err != nil {
		return formdriver.Result{Error: fmt.Sprintf("job page never finished loading: %v", err)}
	}

	gate := safety.NewGate(safety.PageChecks(page, r.activity, r.limits.PageLoadLimit, r.limits.DomReadyLimit, r.limits.MaxUserIdle)...)

	//gate before the very first interaction too
	if v := gate.Evaluate(ctx); !v.Safe {
		return formdriver.Result{Error: "safety gate: " + v.Reason}
	}

	utils.MouseJiggle(page)
	if err := r.openApplyModal(page); err != nil {
		r.debugger.CaptureAndLog(page, "apply-button", fmt.Sprintf("Could not open apply modal for %q", job.Title))
		return formdriver.Result{Error: err.Error()}
	}

	surface := formdriver.NewPageSurface(page)
	driver := formdriver.New(surface, gate, r.cfg)

	res := driver.Run(ctx, job.Title, r.prof)
	if !res.Success {
		r.debugger.CaptureAndLog(page, "form-abort", fmt.Sprintf("Form attempt failed for %q: %s", job.Title, res.Error))
	}
	return res
}

func (r *FormRunner) openApplyModal(page playwright.Page) error {
	for _, sel := range applySelectors {
		loc := page.Locator(sel).First()
		visible, err := loc.IsVisible()
		if err != nil || !visible {
			continue
		}
		utils.RandomDelay(400, 1200)
		if err := loc.Click(); err != nil {
			return fmt.Errorf("failed to click apply button: %v", err)
		}
		log.Println("   🖱 Opened easy-apply modal")
		return nil
	}
	return fmt.Errorf("no easy-apply button on page")
}
