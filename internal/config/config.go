package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration. Values are read once from the
// environment (with optional .env support) and injected at construction;
// nothing reads the environment after Load returns.
type Config struct {
	// Google Cloud
	ProjectID     string
	Dataset       string
	ArchiveBucket string

	// AI collaborator
	GeminiAPIKey string
	GeminiModel  string
	AITimeout    time.Duration
	AIMaxRetries int

	// Mail collaborator
	GmailAccessToken string
	FetchBatchSize   int64

	// Sync behavior
	SyncOverlap     time.Duration
	MaxMessageChars int
	Timezone        string

	// Ledger
	LookaheadDays int

	LogLevel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present; in production the variables come from
// the process environment.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		ProjectID:        os.Getenv("GCP_PROJECT_ID"),
		Dataset:          getEnv("BQ_DATASET", "grip"),
		ArchiveBucket:    os.Getenv("ARCHIVE_BUCKET"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GmailAccessToken: os.Getenv("GMAIL_ACCESS_TOKEN"),
		Timezone:         getEnv("APP_TIMEZONE", "Asia/Kolkata"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.AITimeout, err = getEnvDuration("AI_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.SyncOverlap, err = getEnvDuration("SYNC_OVERLAP", time.Hour); err != nil {
		return nil, err
	}
	if cfg.AIMaxRetries, err = getEnvInt("AI_MAX_RETRIES", 2); err != nil {
		return nil, err
	}
	if cfg.MaxMessageChars, err = getEnvInt("MAX_MESSAGE_CHARS", 3000); err != nil {
		return nil, err
	}
	if cfg.LookaheadDays, err = getEnvInt("LOOKAHEAD_DAYS", 30); err != nil {
		return nil, err
	}
	batch, err := getEnvInt("FETCH_BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}
	cfg.FetchBatchSize = int64(batch)

	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("config: GCP_PROJECT_ID is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
