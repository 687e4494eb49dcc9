package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go-easyapply-automation/internal/browser"
	"go-easyapply-automation/internal/config"
	"go-easyapply-automation/internal/database"
	"go-easyapply-automation/internal/dedup"
	"go-easyapply-automation/internal/filter"
	"go-easyapply-automation/internal/notify"
	"go-easyapply-automation/internal/profile"
	"go-easyapply-automation/internal/queue"
	"go-easyapply-automation/internal/scraper"
	"go-easyapply-automation/internal/scraper/linkedin"
	"go-easyapply-automation/internal/storage"
)

func main() {
	//load config
	cfg := config.Load()
	log.Printf("🔧 Config loaded. Keywords: %v", cfg.Keywords)

	//init telegram bot
	bot, err := notify.NewBot(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		log.Fatalf("❌ Failed to init Telegram Bot: %v", err)
	}
	log.Println("🤖 Telegram Bot initialized.")

	//setup context with timeout = 10 mins
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	log.Println("🚀 Starting EasyApply discovery run...")

	store, err := storage.NewFileStore(cfg.DataPath)
	if err != nil {
		log.Fatalf("❌ Failed to open data store: %v", err)
	}
	prof, err := profile.Load(store)
	if err != nil {
		log.Fatalf("❌ Failed to load applicant profile: %v", err)
	}
	q, err := queue.New(store, cfg.MaxAttempts)
	if err != nil {
		log.Fatalf("❌ Failed to load queue: %v", err)
	}

	//init playwright manager
	pwManager, err := browser.NewPlaywright()
	if err != nil {
		log.Fatalf("❌ Failed to init Playwright: %v", err)
	}
	//close playwright manager when application stops
	defer pwManager.Close()

	//load cookies
	cookies, err := browser.LoadCookies(filepath.Join(cfg.CookiesPath, "cookies-linkedin.json"))
	if err != nil {
		log.Fatalf("❌ Could not load linkedin cookies (authenticated scraping requires them): %v", err)
	}
	log.Printf("🍪 Loaded linkedin cookies (%d)", len(cookies))

	//create new browser context with cookies
	browserCtx, err := pwManager.NewContext(cookies)
	if err != nil {
		log.Fatalf("❌ Failed to create browser context: %v", err)
	}

	//create new page
	page, err := browserCtx.NewPage()
	if err != nil {
		log.Fatalf("❌ Failed to create new page: %v", err)
	}
	log.Println("✅ Browser initialized successfully!")

	//optional long-term archive
	var repo *database.Repository
	if cfg.DatabaseURL != "" {
		repo, err = database.ConnectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("⚠️ Archive database unavailable, continuing without it: %v", err)
		} else {
			defer repo.Close()
		}
	}

	//run the scraper
	s := linkedin.New(cfg)
	log.Printf("\n▶️ Starting scraper: %s", s.Name())
	listings, err := s.Scrape(ctx, page)
	if err != nil {
		log.Printf("❌ Error running scraper %s: %v", s.Name(), err)
	}

	//score and filter listings
	matcher := filter.NewMatcher(cfg.Keywords, cfg.Locations)
	var filtered []scraper.Listing
	for _, l := range listings {
		l.MatchScore = matcher.Score(l, prof)
		if matcher.ShouldInclude(l, prof, cfg.MinScore) {
			filtered = append(filtered, l)
		}
	}

	//sort listings by score
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].MatchScore > filtered[j].MatchScore
	})
	log.Printf("Filtered: %d/%d listings (sorted by score)", len(filtered), len(listings))

	//dedup listings
	jobCache := dedup.NewJobCache(cfg.CachePath)
	var unseen []scraper.Listing
	for _, l := range filtered {
		if !jobCache.IsSeen(l.URL) {
			unseen = append(unseen, l)
		}
	}
	log.Printf("🔍 Deduplication: %d total -> %d unseen listings", len(filtered), len(unseen))

	//enqueue the unseen listings, announce each on telegram
	enqueued := 0
	var seenURLs []string
	for _, l := range unseen {
		priority := queue.PriorityNormal
		if l.MatchScore >= 80 {
			priority = queue.PriorityHigh
		}

		_, err := q.Enqueue(queue.JobRef{
			ID:           l.ID,
			URL:          l.URL,
			Title:        l.Title,
			Company:      l.Company,
			HasEasyApply: l.HasEasyApply,
		}, priority)
		if err != nil {
			log.Printf("⚠️ Skipped %q: %v", l.Title, err)
			continue
		}
		enqueued++
		seenURLs = append(seenURLs, l.URL)

		log.Printf("  [%d/100] %s @ %s", l.MatchScore, l.Title, l.Company)
		bot.SendListing(l)

		if repo != nil {
			if err := repo.SaveListing(ctx, &l); err != nil {
				log.Printf("⚠️ Failed to archive listing: %v", err)
			}
		}
	}
	jobCache.Add(seenURLs)
	log.Printf("💾 Marked %d listings as seen", len(seenURLs))

	//keep a local record of the run
	if len(unseen) > 0 {
		saveListings(unseen, cfg.DataPath)
	}

	statusMsg := fmt.Sprintf("✅ Discovery finished: %d scraped, %d matched, %d queued.", len(listings), len(filtered), enqueued)
	bot.SendStatus(statusMsg)
	log.Println(statusMsg)
}

// saveListings dumps the run's new listings to a dated JSON file.
func saveListings(listings []scraper.Listing, dataPath string) {
	outDir := filepath.Join(dataPath, "runs")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Printf("⚠️ Failed to create runs directory: %v", err)
		return
	}

	outFile := filepath.Join(outDir, fmt.Sprintf("listings_%s.json", time.Now().Format("2006-01-02_15-04-05")))
	data, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		log.Printf("⚠️ Failed to marshal listings: %v", err)
		return
	}
	if err := os.WriteFile(outFile, data, 0644); err != nil {
		log.Printf("⚠️ Failed to write listings file: %v", err)
		return
	}
	log.Printf("📝 Saved %d listings to %s", len(listings), outFile)
}
