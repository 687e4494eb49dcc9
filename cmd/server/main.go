package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go-easyapply-automation/internal/browser"
	"go-easyapply-automation/internal/config"
	"go-easyapply-automation/internal/control"
	"go-easyapply-automation/internal/database"
	"go-easyapply-automation/internal/formdriver"
	"go-easyapply-automation/internal/notify"
	"go-easyapply-automation/internal/processor"
	"go-easyapply-automation/internal/profile"
	"go-easyapply-automation/internal/queue"
	"go-easyapply-automation/internal/ratelimit"
	"go-easyapply-automation/internal/safety"
	"go-easyapply-automation/internal/storage"
)

// archivingNotifier fans outcomes out to telegram and, when configured,
// the Postgres archive.
type archivingNotifier struct {
	bot  *notify.Bot
	repo *database.Repository
	q    *queue.Queue
}

func (n *archivingNotifier) ApplicationOutcome(job queue.JobRef, success bool, errMsg string) {
	n.bot.ApplicationOutcome(job, success, errMsg)
	if n.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	//the newest ledger entry is the one we just produced
	for _, entry := range n.q.History(1) {
		if err := n.repo.RecordApplication(ctx, entry); err != nil {
			log.Printf("⚠️ Failed to archive application: %v", err)
		}
	}
}

func (n *archivingNotifier) SafetyStop(reason, recommendation string) {
	n.bot.SafetyStop(reason, recommendation)
}

func main() {
	//load config
	cfg := config.Load()
	log.Println("🔧 Config loaded.")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//init telegram bot
	bot, err := notify.NewBot(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Fatalf("❌ Failed to init Telegram Bot: %v", err)
	}
	log.Println("🤖 Telegram Bot initialized.")

	//durable state lives in per-key JSON files under the data dir
	store, err := storage.NewFileStore(cfg.DataPath)
	if err != nil {
		log.Fatalf("❌ Failed to open data store: %v", err)
	}

	prof, err := profile.Load(store)
	if err != nil {
		log.Fatalf("❌ Failed to load applicant profile (seed it with Save first): %v", err)
	}
	log.Printf("👤 Profile loaded for %s", prof.FullName)

	q, err := queue.New(store, cfg.MaxAttempts)
	if err != nil {
		log.Fatalf("❌ Failed to load queue: %v", err)
	}

	limiter := ratelimit.Default(
		time.Duration(cfg.MinDelaySeconds)*time.Second,
		cfg.MaxPerHour,
		cfg.MaxPerDay,
	)

	//optional long-term archive
	var repo *database.Repository
	if cfg.DatabaseURL != "" {
		repo, err = database.ConnectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("⚠️ Archive database unavailable, continuing without it: %v", err)
		} else {
			defer repo.Close()
			log.Println("🗄 Archive database connected.")
		}
	}

	//browser session
	pwManager, err := browser.NewPlaywright()
	if err != nil {
		log.Fatalf("❌ Failed to init Playwright: %v", err)
	}
	defer pwManager.Close()

	cookies, err := browser.LoadCookies(filepath.Join(cfg.CookiesPath, "cookies-linkedin.json"))
	if err != nil {
		log.Printf("⚠️ Could not load linkedin cookies: %v. Continuing unauthenticated.", err)
	} else {
		log.Printf("🍪 Loaded linkedin cookies (%d)", len(cookies))
	}

	browserCtx, err := pwManager.NewContext(cookies)
	if err != nil {
		log.Fatalf("❌ Failed to create browser context: %v", err)
	}
	tabs := browser.NewTabs(browserCtx)
	defer tabs.CloseAll()
	log.Println("✅ Browser initialized successfully!")

	activity := safety.NewActivityTracker()

	driverCfg := formdriver.DefaultConfig()
	driverCfg.MaxSteps = cfg.MaxFormSteps
	driverCfg.SimulateTyping = cfg.SimulateTyping

	limits := processor.SafetyLimits{
		PageLoadLimit: time.Duration(cfg.PageLoadLimitSecs) * time.Second,
		DomReadyLimit: time.Duration(cfg.DomReadyLimitSecs) * time.Second,
		MaxUserIdle:   time.Duration(cfg.UserIdleLimitMins) * time.Minute,
	}
	runner := processor.NewFormRunner(tabs, prof, driverCfg, activity, limits)

	//page-level checks run per attempt inside the runner; the loop-level
	//gate only needs the user-presence signal
	loopGate := safety.NewGate(safety.UserPresenceCheck(activity, limits.MaxUserIdle))

	procCfg := processor.DefaultConfig()
	procCfg.ItemDelayMin = time.Duration(cfg.ItemDelayMinMs) * time.Millisecond
	procCfg.ItemDelayMax = time.Duration(cfg.ItemDelayMaxMs) * time.Millisecond

	notifier := &archivingNotifier{bot: bot, repo: repo, q: q}
	proc := processor.New(q, limiter, loopGate, runner, notifier, procCfg)

	//resume whatever survived the last shutdown
	if q.Len() > 0 {
		log.Printf("▶️ %d items pending, starting drain", q.Len())
		go proc.Process(ctx)
	}

	srv := control.NewServer(q, proc, activity)
	if err := srv.Run(ctx, cfg.ListenAddr); err != nil {
		log.Fatalf("❌ Control server failed: %v", err)
	}

	bot.SendStatus("Application pipeline stopped.")
	log.Println("👋 Shut down cleanly.")
}
