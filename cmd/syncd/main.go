package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gripfin/grip/internal/ai"
	"github.com/gripfin/grip/internal/archive"
	"github.com/gripfin/grip/internal/classify"
	"github.com/gripfin/grip/internal/config"
	"github.com/gripfin/grip/internal/extract"
	"github.com/gripfin/grip/internal/logger"
	"github.com/gripfin/grip/internal/mail"
	"github.com/gripfin/grip/internal/router"
	"github.com/gripfin/grip/internal/sanitize"
	"github.com/gripfin/grip/internal/store"
	"github.com/gripfin/grip/internal/sync"
)

// lookups joins the two read-side repos the orchestrator consults.
type lookups struct {
	*store.MerchantMappingRepo
	*store.SubcategoryRepo
}

func main() {
	userID := flag.String("user", "", "user to sync (required)")
	interval := flag.Duration("interval", 0, "re-run every interval; 0 runs once and exits")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Configuration load failed")
	}
	log := logger.NewWithLevel(cfg.LogLevel)

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	client, err := store.NewClient(ctx, cfg.ProjectID, cfg.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("BigQuery client failed")
	}
	defer client.Close()

	fetcher, err := mail.NewGmailFetcher(ctx, cfg.GmailAccessToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Gmail fetcher failed")
	}

	gemini, err := ai.NewGemini(ctx, ai.Config{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.GeminiModel,
		Timeout:    cfg.AITimeout,
		MaxRetries: cfg.AIMaxRetries,
		Categories: extract.CategoryContext(),
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Gemini client failed")
	}
	if !gemini.Enabled() {
		log.Warn().Msg("GEMINI_API_KEY not set, running rule-only")
	}

	var archiver sync.Archiver
	if cfg.ArchiveBucket != "" {
		a, err := archive.New(ctx, cfg.ArchiveBucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Archive client failed")
		}
		defer a.Close()
		archiver = a
	}

	resolver := router.New(
		classify.New(classify.DefaultConfig()),
		extract.New(extract.DefaultConfig()),
		sanitize.New(),
		gemini,
		cfg.MaxMessageChars,
	)

	trigger := "manual"
	if *interval > 0 {
		trigger = "scheduled"
	}

	orch := sync.NewOrchestrator(sync.Options{
		Fetcher:   fetcher,
		Store:     store.NewTransactionRepo(client),
		Runs:      store.NewSyncRunRepo(client),
		Lookups:   lookups{store.NewMerchantMappingRepo(client), store.NewSubcategoryRepo(client)},
		Resolver:  resolver,
		Linker:    store.NewInvestmentRepo(client),
		Notifier:  sync.NewLogNotifier(log),
		Archiver:  archiver,
		Overlap:   cfg.SyncOverlap,
		BatchSize: cfg.FetchBatchSize,
		Trigger:   trigger,
	})

	log.Info().Str("user_id", *userID).Msg("Starting sync service")

	runOnce := func() {
		runCtx, runCancel := context.WithTimeout(ctx, 10*time.Minute)
		defer runCancel()
		report, err := orch.Run(runCtx, *userID)
		if err != nil {
			log.Error().Err(err).Msg("Sync run failed")
			return
		}
		log.Info().
			Str("run_id", report.RunID).
			Str("status", report.Status).
			Int("processed", report.Processed).
			Msg("Sync run finished")
	}

	runOnce()
	if *interval <= 0 {
		return
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runOnce()
		case <-quit:
			log.Info().Msg("Shutting down sync service...")
			cancel()
			return
		}
	}
}
