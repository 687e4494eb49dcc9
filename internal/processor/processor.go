// The single drain loop: pulls the queue head, gates it through the
// rate limiter and safety gate, hands it to the form driver and records
// the outcome. At most one loop runs at any time.

package processor

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"go-easyapply-automation/internal/formdriver"
	"go-easyapply-automation/internal/queue"
	"go-easyapply-automation/internal/ratelimit"
	"go-easyapply-automation/internal/safety"
	"go-easyapply-automation/internal/telemetry"
)

// Runner executes one application attempt against the live page.
type Runner interface {
	Run(ctx context.Context, job queue.JobRef) formdriver.Result
}

type Limiter interface {
	CanProceed(history []time.Time, now time.Time) ratelimit.Decision
}

type Gate interface {
	Evaluate(ctx context.Context) safety.Verdict
}

// Notifier is fire-and-forget; failures never touch queue state.
type Notifier interface {
	ApplicationOutcome(job queue.JobRef, success bool, errMsg string)
	SafetyStop(reason, recommendation string)
}

type Config struct {
	//ResumeFloor avoids busy-looping on short rate-limit windows
	ResumeFloor  time.Duration
	ItemDelayMin time.Duration
	ItemDelayMax time.Duration
}

func DefaultConfig() Config {
	return Config{
		ResumeFloor:  time.Minute,
		ItemDelayMin: 3 * time.Second,
		ItemDelayMax: 8 * time.Second,
	}
}

type Processor struct {
	q        *queue.Queue
	limiter  Limiter
	gate     Gate
	runner   Runner
	notifier Notifier
	cfg      Config

	mu      sync.Mutex
	running bool
	paused  bool
	timer   *time.Timer

	now   func() time.Time
	sleep func(time.Duration)
}

func New(q *queue.Queue, limiter Limiter, gate Gate, runner Runner, notifier Notifier, cfg Config) *Processor {
	return &Processor{
		q:        q,
		limiter:  limiter,
		gate:     gate,
		runner:   runner,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Process drains the queue. A second call while a loop is active is a
// no-op: processing is strictly single-flight.
func (p *Processor) Process(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()

	p.q.SetProcessing(true)
	defer func() {
		p.q.SetProcessing(false)
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		if p.isPaused() {
			log.Println("⏸ Processor paused, exiting drain loop")
			return
		}

		head := p.q.DequeueNext()
		if head == nil {
			log.Println("📭 Queue drained")
			return
		}
		telemetry.QueueDepthGauge.Set(float64(p.q.Len()))

		//rate limiting is a scheduling deferral, never an attempt
		decision := p.limiter.CanProceed(p.q.EventTimes(), p.now())
		if !decision.Allowed {
			telemetry.RateDeferredTotal.Inc()
			wait := time.Until(decision.NextAllowedAt)
			if wait < p.cfg.ResumeFloor {
				wait = p.cfg.ResumeFloor
			}
			log.Printf("⏳ %s — resuming in %s", decision.Reason, wait.Round(time.Second))
			p.scheduleResume(ctx, wait)
			return
		}

		//safety denials need external attention; no self-reschedule
		verdict := p.gate.Evaluate(ctx)
		if !verdict.Safe {
			telemetry.SafetyStopsTotal.Inc()
			log.Printf("🚨 Safety gate blocked processing: %s", verdict.Reason)
			if p.notifier != nil {
				p.notifier.SafetyStop(verdict.Reason, verdict.Recommendation)
			}
			return
		}

		if err := p.q.MarkProcessing(head.ID); err != nil {
			//someone cancelled it between peek and claim; move on
			log.Printf("⚠️ Could not claim item: %v", err)
			continue
		}

		start := p.now()
		res := p.runItem(ctx, head.Job)

		if res.Success {
			telemetry.CompletedTotal.Inc()
			if err := p.q.MarkCompleted(head.ID, p.now().Sub(start)); err != nil {
				log.Printf("⚠️ Failed to record completion: %v", err)
			}
		} else {
			telemetry.FailedTotal.Inc()
			if err := p.q.MarkFailed(head.ID, res.Error); err != nil {
				log.Printf("⚠️ Failed to record failure: %v", err)
			}
		}
		if p.notifier != nil {
			p.notifier.ApplicationOutcome(head.Job, res.Success, res.Error)
		}

		//spread the load; a fixed cadence is a fingerprint
		p.sleep(p.interItemDelay())
	}
}

// runItem shields the loop from a misbehaving driver: a panic becomes
// this item's failure, never a crash of the whole pipeline.
func (p *Processor) runItem(ctx context.Context, job queue.JobRef) (res formdriver.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("💥 Recovered panic while processing %q: %v", job.Title, r)
			res = formdriver.Result{Error: fmt.Sprintf("unexpected error: %v", r)}
		}
	}()
	return p.runner.Run(ctx, job)
}

// Pause stops the loop after the in-flight item; there is no preemption.
func (p *Processor) Pause() {
	p.mu.Lock()
	p.paused = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()
	log.Println("⏸ Processor pause requested")
}

// Resume clears the pause flag and kicks a drain.
func (p *Processor) Resume(ctx context.Context) {
	p.mu.Lock()
	p.paused = false
	p.mu.Unlock()
	log.Println("▶️ Processor resumed")
	go p.Process(ctx)
}

func (p *Processor) isPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *Processor) scheduleResume(ctx context.Context, wait time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(wait, func() {
		p.Process(ctx)
	})
}

func (p *Processor) interItemDelay() time.Duration {
	span := p.cfg.ItemDelayMax - p.cfg.ItemDelayMin
	if span <= 0 {
		return p.cfg.ItemDelayMin
	}
	return p.cfg.ItemDelayMin + time.Duration(rand.Int63n(int64(span)))
}
