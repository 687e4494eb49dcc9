// Bounded state machine that drives a multi-step application form.
// The number of steps is unknown upfront; every wait has an attempt
// ceiling and the safety gate is consulted before every interaction.

package formdriver

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"go-easyapply-automation/internal/profile"
	"go-easyapply-automation/internal/safety"
)

type State string

const (
	StateIdle         State = "idle"
	StateDetecting    State = "detecting"
	StateStepActive   State = "step-active"
	StateAdvancing    State = "advancing"
	StateSubmitting   State = "submitting"
	StateAwaitConfirm State = "awaiting-confirmation"
	StateCompleted    State = "completed"
	StateAborted      State = "aborted"
)

// Result is the driver's terminal contract: either the confirmation
// signal was observed, or the attempt failed. No partial successes.
type Result struct {
	Success     bool
	Error       string
	SubmittedAt time.Time
	Steps       int
}

type Gate interface {
	Evaluate(ctx context.Context) safety.Verdict
}

type Config struct {
	DetectAttempts  int
	DetectInterval  time.Duration
	ConfirmAttempts int
	ConfirmInterval time.Duration
	MaxSteps        int
	SimulateTyping  bool
	TypeKeyDelay    time.Duration
	FieldDelayMin   time.Duration
	FieldDelayMax   time.Duration
}

func DefaultConfig() Config {
	return Config{
		DetectAttempts:  10,
		DetectInterval:  1500 * time.Millisecond,
		ConfirmAttempts: 15,
		ConfirmInterval: 1500 * time.Millisecond,
		MaxSteps:        20,
		SimulateTyping:  false,
		TypeKeyDelay:    80 * time.Millisecond,
		FieldDelayMin:   200 * time.Millisecond,
		FieldDelayMax:   600 * time.Millisecond,
	}
}

// Phrases that confirm the application went through. The page gives no
// structured response, so text is all we have.
var confirmationPhrases = []string{
	"application sent",
	"application submitted",
	"your application was sent",
	"successfully applied",
	"thank you for applying",
	"ứng tuyển thành công",
	"đã gửi hồ sơ",
}

type Driver struct {
	surface Surface
	gate    Gate
	cfg     Config
	state   State
	sleep   func(time.Duration)
}

func New(surface Surface, gate Gate, cfg Config) *Driver {
	return &Driver{
		surface: surface,
		gate:    gate,
		cfg:     cfg,
		state:   StateIdle,
		sleep:   time.Sleep,
	}
}

// Run drives one application attempt from detection to confirmation.
func (d *Driver) Run(ctx context.Context, jobTitle string, p *profile.Profile) Result {
	log.Printf("📝 Starting application form for %q", jobTitle)

	//--- Detecting ---
	d.state = StateDetecting
	found := false
	for attempt := 0; attempt < d.cfg.DetectAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return d.abort("cancelled while detecting form: " + err.Error())
		}
		ok, err := d.surface.DetectContainer(ctx)
		if err != nil {
			return d.abort(fmt.Sprintf("form detection error: %v", err))
		}
		if ok {
			found = true
			break
		}
		d.sleep(d.cfg.DetectInterval)
	}
	if !found {
		return d.abort("application form not found")
	}

	//--- Steps ---
	steps := 0
	for {
		if steps >= d.cfg.MaxSteps {
			return d.abortAt(steps, fmt.Sprintf("form exceeded %d steps, bailing out", d.cfg.MaxSteps))
		}
		d.state = StateStepActive
		steps++

		if err := d.fillStep(ctx, p); err != nil {
			return d.abortAt(steps, err.Error())
		}

		//--- Advancing ---
		d.state = StateAdvancing
		present, enabled, err := d.surface.NextControl(ctx)
		if err != nil {
			return d.abortAt(steps, fmt.Sprintf("failed to inspect next control: %v", err))
		}
		if !present {
			//no continue control means this was the last step
			break
		}
		if !enabled {
			return d.abortAt(steps, "continue control present but disabled (required field unanswered?)")
		}

		if res, ok := d.gateCheck(ctx, steps); !ok {
			return res
		}
		if err := d.surface.ClickNext(ctx); err != nil {
			return d.abortAt(steps, fmt.Sprintf("failed to advance form: %v", err))
		}
		log.Printf("   ➡️ Advanced to step %d", steps+1)
		d.randomFieldDelay()
	}

	//--- Submitting ---
	d.state = StateSubmitting
	if res, ok := d.gateCheck(ctx, steps); !ok {
		return res
	}
	present, err := d.surface.SubmitControl(ctx)
	if err != nil {
		return d.abortAt(steps, fmt.Sprintf("failed to inspect submit control: %v", err))
	}
	if !present {
		return d.abortAt(steps, "no submit button")
	}
	if err := d.surface.ClickSubmit(ctx); err != nil {
		return d.abortAt(steps, fmt.Sprintf("failed to submit: %v", err))
	}

	//--- AwaitingConfirmation ---
	d.state = StateAwaitConfirm
	for attempt := 0; attempt < d.cfg.ConfirmAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return d.abortAt(steps, "cancelled while awaiting confirmation: "+err.Error())
		}
		text, err := d.surface.PageText(ctx)
		if err == nil {
			lower := strings.ToLower(text)
			for _, phrase := range confirmationPhrases {
				if strings.Contains(lower, phrase) {
					d.state = StateCompleted
					log.Printf("✅ Application confirmed for %q (%d steps)", jobTitle, steps)
					return Result{Success: true, SubmittedAt: time.Now(), Steps: steps}
				}
			}
		}
		d.sleep(d.cfg.ConfirmInterval)
	}
	return d.abortAt(steps, "no confirmation signal observed after submit")
}

// fillStep extracts and fills the fields of the active step.
func (d *Driver) fillStep(ctx context.Context, p *profile.Profile) error {
	fields, err := d.surface.Fields(ctx)
	if err != nil {
		return fmt.Errorf("failed to extract fields: %v", err)
	}

	for _, f := range fields {
		kind := InferKind(f)
		value := ResolveValue(kind, p)
		if value == "" {
			//never force a value we can't confidently fill
			continue
		}
		if f.Value != "" {
			//already answered (prefilled by the site or a previous pass)
			continue
		}

		if v := d.gate.Evaluate(ctx); !v.Safe {
			return fmt.Errorf("safety gate: %s", v.Reason)
		}

		if f.selectable() {
			opt, ok := BestOption(f.Options, value)
			if !ok {
				//no textual overlap: leave the default rather than guessing
				continue
			}
			if err := d.surface.SelectOption(ctx, f.Ref, opt.Value); err != nil {
				return fmt.Errorf("failed to select option for %s field: %v", kind, err)
			}
		} else if d.cfg.SimulateTyping && (f.multiline() || f.Type == "text" || f.Type == "") {
			if err := d.surface.TypeText(ctx, f.Ref, value, d.cfg.TypeKeyDelay); err != nil {
				return fmt.Errorf("failed to type into %s field: %v", kind, err)
			}
		} else {
			if err := d.surface.FillText(ctx, f.Ref, value); err != nil {
				return fmt.Errorf("failed to fill %s field: %v", kind, err)
			}
		}

		d.randomFieldDelay()
	}
	return nil
}

func (d *Driver) gateCheck(ctx context.Context, steps int) (Result, bool) {
	v := d.gate.Evaluate(ctx)
	if v.Safe {
		return Result{}, true
	}
	res := d.abortAt(steps, "safety gate: "+v.Reason)
	return res, false
}

func (d *Driver) randomFieldDelay() {
	span := d.cfg.FieldDelayMax - d.cfg.FieldDelayMin
	if span <= 0 {
		d.sleep(d.cfg.FieldDelayMin)
		return
	}
	d.sleep(d.cfg.FieldDelayMin + time.Duration(rand.Int63n(int64(span))))
}

func (d *Driver) abort(msg string) Result {
	return d.abortAt(0, msg)
}

func (d *Driver) abortAt(steps int, msg string) Result {
	d.state = StateAborted
	log.Printf("🛑 Form attempt aborted: %s", msg)
	return Result{Error: msg, Steps: steps}
}
