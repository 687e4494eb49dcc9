// Load envs from .env
// Load YAML config
// Validate config
// Provide default values

package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-easyapply-automation/internal/storage"
)

type Config struct {
	TelegramToken  string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`
	DatabaseURL    string `yaml:"database_url" env:"DATABASE_URL"`
	//Search criteria
	Keywords  []string `yaml:"keywords"`
	Locations []string `yaml:"locations"`
	MinScore  int      `yaml:"min_score"`
	//Paths
	CookiesPath string `yaml:"cookies_path"`
	CachePath   string `yaml:"cache_path"`
	DataPath    string `yaml:"data_path"`
	//Control surface
	ListenAddr string `yaml:"listen_addr"`
	//Application pipeline
	MaxAttempts       int  `yaml:"max_attempts"`
	MaxPerHour        int  `yaml:"max_per_hour"`
	MaxPerDay         int  `yaml:"max_per_day"`
	MinDelaySeconds   int  `yaml:"min_delay_seconds"`
	ItemDelayMinMs    int  `yaml:"item_delay_min_ms"`
	ItemDelayMaxMs    int  `yaml:"item_delay_max_ms"`
	SimulateTyping    bool `yaml:"simulate_typing"`
	MaxFormSteps      int  `yaml:"max_form_steps"`
	UserIdleLimitMins int  `yaml:"user_idle_limit_minutes"`
	PageLoadLimitSecs int  `yaml:"page_load_limit_seconds"`
	DomReadyLimitSecs int  `yaml:"dom_ready_limit_seconds"`
}

func Load() *Config {
	_ = godotenv.Load()

	//Load yaml config
	cfg := &Config{}

	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Printf("Warning: Could not read config.yaml: %v", err)
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Fatalf("Error parsing config.yaml: %v", err)
		}
	}

	//Override with env vars
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			log.Fatalf("Invalid TELEGRAM_CHAT_ID: %v", err)
		}
		cfg.TelegramChatID = id
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}

	//secrets absent from env and yaml may live in the OS keyring
	secrets := storage.NewSecretStore()
	if cfg.TelegramToken == "" {
		if v, err := secrets.Get("telegram_token"); err == nil {
			cfg.TelegramToken = string(v)
		}
	}
	if cfg.DatabaseURL == "" {
		if v, err := secrets.Get("database_url"); err == nil {
			cfg.DatabaseURL = string(v)
		}
	}

	//Set default values if not set
	if cfg.CookiesPath == "" {
		cfg.CookiesPath = "../.cookies"
	}

	if cfg.CachePath == "" {
		cfg.CachePath = "../.cache"
	}

	if cfg.DataPath == "" {
		cfg.DataPath = "../.data"
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8090"
	}

	if cfg.MinScore == 0 {
		cfg.MinScore = 50
	}

	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}

	if cfg.MaxPerHour == 0 {
		cfg.MaxPerHour = 5
	}

	if cfg.MaxPerDay == 0 {
		cfg.MaxPerDay = 20
	}

	if cfg.MinDelaySeconds == 0 {
		cfg.MinDelaySeconds = 180
	}

	if cfg.ItemDelayMinMs == 0 {
		cfg.ItemDelayMinMs = 3000
	}

	if cfg.ItemDelayMaxMs == 0 {
		cfg.ItemDelayMaxMs = 8000
	}

	if cfg.MaxFormSteps == 0 {
		cfg.MaxFormSteps = 20
	}

	if cfg.UserIdleLimitMins == 0 {
		cfg.UserIdleLimitMins = 30
	}

	if cfg.PageLoadLimitSecs == 0 {
		cfg.PageLoadLimitSecs = 10
	}

	if cfg.DomReadyLimitSecs == 0 {
		cfg.DomReadyLimitSecs = 5
	}

	//Validate required fields
	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}

	if cfg.TelegramChatID == 0 {
		log.Fatal("TELEGRAM_CHAT_ID is required")
	}

	return cfg
}
