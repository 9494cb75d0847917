package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gripfin/grip/internal/config"
	"github.com/gripfin/grip/internal/domain"
	"github.com/gripfin/grip/internal/ledger"
	"github.com/gripfin/grip/internal/logger"
	"github.com/gripfin/grip/internal/store"
)

// ledgerStore joins the repos behind the builder's read interface.
type ledgerStore struct {
	*store.ObligationRepo
	*store.ExclusionRepo
	*store.TransactionRepo
}

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "view":
		runView(log)
	case "add":
		runAdd(log)
	case "paid":
		runPaid(log)
	case "exclude":
		runExclude(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Grip Ledger CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  ledger <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  view      Show the upcoming obligations ledger")
	fmt.Println("  add       Declare a new bill")
	fmt.Println("  paid      Mark a bill as paid")
	fmt.Println("  exclude   Hide a detected recurring payment")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'ledger <command> -h' for more information on a command.")
}

func setup(log zerolog.Logger) (context.Context, context.CancelFunc, *config.Config, *store.Client) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration load failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	ctx = logger.WithContext(ctx, log)

	client, err := store.NewClient(ctx, cfg.ProjectID, cfg.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("BigQuery client failed")
	}
	return ctx, cancel, cfg, client
}

// localNow anchors due-date arithmetic to the configured timezone; "today"
// in Asia/Kolkata is not "today" in UTC for several hours a day.
func localNow(log zerolog.Logger, tz string) func() time.Time {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", tz).Msg("Invalid APP_TIMEZONE")
	}
	return func() time.Time { return time.Now().In(loc) }
}

func runView(log zerolog.Logger) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	userID := fs.String("user", "", "user ID (required)")
	days := fs.Int("days", 0, "lookahead window in days (default from config)")
	all := fs.Bool("all", false, "include paid, skipped, and covered rows")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx, cancel, cfg, client := setup(log)
	defer cancel()
	defer client.Close()

	lookahead := cfg.LookaheadDays
	if *days > 0 {
		lookahead = *days
	}

	builder := ledger.NewBuilderAt(ledgerStore{
		store.NewObligationRepo(client),
		store.NewExclusionRepo(client),
		store.NewTransactionRepo(client),
	}, localNow(log, cfg.Timezone))
	led, err := builder.Build(ctx, *userID, lookahead, *all)
	if err != nil {
		log.Fatal().Err(err).Msg("Ledger build failed")
	}

	fmt.Printf("%-12s %-34s %10s  %-10s %s\n", "DUE", "TITLE", "AMOUNT", "STATUS", "CATEGORY")
	for _, item := range led.Items {
		category := item.Category
		if item.Subcategory != "" {
			category += " / " + item.Subcategory
		}
		fmt.Printf("%-12s %-34s %10.2f  %-10s %s\n",
			item.DueDate.Format("2006-01-02"), item.Title, item.Amount, item.Status, category)
	}
	fmt.Printf("\nUnpaid total:    %10.2f\n", led.UnpaidTotal)
	fmt.Printf("Projected total: %10.2f\n", led.ProjectedTotal)
}

func runAdd(log zerolog.Logger) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	userID := fs.String("user", "", "user ID (required)")
	title := fs.String("title", "", "bill title (required)")
	amount := fs.Float64("amount", 0, "bill amount (required)")
	due := fs.String("due", "", "due date, YYYY-MM-DD (required)")
	recurring := fs.Bool("recurring", false, "repeats monthly")
	day := fs.Int("day", 0, "recurrence day of month (defaults to due date's day)")
	category := fs.String("category", "", "category")
	subcategory := fs.String("subcategory", "", "subcategory")
	fs.Parse(os.Args[2:])

	if *userID == "" || *title == "" || *amount == 0 || *due == "" {
		log.Fatal().Msg("Error: --user, --title, --amount, and --due are required")
	}
	dueDate, err := time.Parse("2006-01-02", *due)
	if err != nil {
		log.Fatal().Err(err).Msg("Error: --due must be YYYY-MM-DD")
	}

	ctx, cancel, cfg, client := setup(log)
	defer cancel()
	defer client.Close()

	svc := ledger.NewServiceAt(store.NewObligationRepo(client), localNow(log, cfg.Timezone))
	ob, err := svc.Create(ctx, *userID, ledger.CreateInput{
		Title:         *title,
		Amount:        *amount,
		DueDate:       dueDate,
		IsRecurring:   *recurring,
		RecurrenceDay: *day,
		Category:      *category,
		Subcategory:   *subcategory,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Creating bill failed")
	}
	fmt.Printf("Created bill %s (%s due %s)\n", ob.ID, ob.Title, ob.DueDate.Format("2006-01-02"))
}

func runPaid(log zerolog.Logger) {
	fs := flag.NewFlagSet("paid", flag.ExitOnError)
	userID := fs.String("user", "", "user ID (required)")
	billID := fs.String("bill", "", "bill ID (required)")
	fs.Parse(os.Args[2:])

	if *userID == "" || *billID == "" {
		log.Fatal().Msg("Error: --user and --bill are required")
	}

	ctx, cancel, cfg, client := setup(log)
	defer cancel()
	defer client.Close()

	svc := ledger.NewServiceAt(store.NewObligationRepo(client), localNow(log, cfg.Timezone))
	ob, err := svc.MarkPaid(ctx, *userID, *billID)
	if err != nil {
		log.Fatal().Err(err).Msg("Marking bill paid failed")
	}
	if ob.IsRecurring {
		fmt.Printf("Paid. Next due %s\n", ob.DueDate.Format("2006-01-02"))
	} else {
		fmt.Println("Paid.")
	}
}

func runExclude(log zerolog.Logger) {
	fs := flag.NewFlagSet("exclude", flag.ExitOnError)
	userID := fs.String("user", "", "user ID (required)")
	scope := fs.String("scope", "", "SKIP | MANUAL_PAID | PERMANENT (required)")
	txnID := fs.String("txn", "", "source transaction ID (SKIP and MANUAL_PAID)")
	merchant := fs.String("merchant", "", "merchant pattern (PERMANENT; * matches any)")
	subcategory := fs.String("subcategory", "", "subcategory pattern (PERMANENT; * matches any)")
	fs.Parse(os.Args[2:])

	if *userID == "" || *scope == "" {
		log.Fatal().Msg("Error: --user and --scope are required")
	}
	parsedScope, err := domain.ParseExclusionScope(*scope)
	if err != nil {
		log.Fatal().Str("scope", *scope).Msg("Error: scope must be SKIP, MANUAL_PAID or PERMANENT")
	}

	ctx, cancel, _, client := setup(log)
	defer cancel()
	defer client.Close()

	repo := store.NewExclusionRepo(client)
	err = repo.CreateExclusion(ctx, *userID, domain.ExclusionRule{
		ID:                  uuid.NewString(),
		SourceTransactionID: *txnID,
		MerchantPattern:     *merchant,
		SubcategoryPattern:  *subcategory,
		Scope:               parsedScope,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Creating exclusion failed")
	}
	fmt.Println("Exclusion created.")
}
