package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/gripfin/grip/internal/classify"
	"github.com/gripfin/grip/internal/domain"
	"github.com/gripfin/grip/internal/logger"
	"github.com/gripfin/grip/internal/mail"
	"github.com/gripfin/grip/internal/store"
)

// TransactionStore is the persistence surface the orchestrator writes to.
type TransactionStore interface {
	ExistsByFingerprint(ctx context.Context, userID, fingerprint string) (bool, error)
	Create(ctx context.Context, t domain.Transaction) error
}

// RunLog records sync runs and supplies the fetch watermark.
type RunLog interface {
	StartRun(ctx context.Context, runID, userID, trigger string, start time.Time) error
	FinishRun(ctx context.Context, runID, status string, recordsProcessed int, errMsg, summary string) error
	LastAdvancingStart(ctx context.Context, userID string) (time.Time, error)
}

// Lookups supplies per-merchant overrides and subcategory metadata. Results
// are cached for the life of the orchestrator.
type Lookups interface {
	GetMapping(ctx context.Context, userID, merchant string) (domain.MerchantMapping, bool, error)
	IsSurety(ctx context.Context, subcategory string) (bool, error)
}

// Resolver turns a raw message into an extraction candidate.
type Resolver interface {
	Resolve(ctx context.Context, msg domain.RawMessage) (domain.ExtractionCandidate, classify.Verdict)
}

// InvestmentLinker associates a stored transaction with an investment
// holding when one matches. Failures are logged, never fatal.
type InvestmentLinker interface {
	Link(ctx context.Context, t domain.Transaction) error
}

// Notifier tells the user their mailbox connection broke.
type Notifier interface {
	NotifyDisconnected(ctx context.Context, userID string) error
}

// Archiver stores raw message bodies for later replay.
type Archiver interface {
	Store(ctx context.Context, fingerprint, body string) error
}

// Orchestrator drives one ingestion pass: fetch, dedup, resolve, persist.
type Orchestrator struct {
	fetcher  mail.Fetcher
	store    TransactionStore
	runs     RunLog
	lookups  Lookups
	resolver Resolver
	linker   InvestmentLinker
	notifier Notifier
	archiver Archiver

	overlap   time.Duration
	batchSize int64
	trigger   string
	now       func() time.Time

	lookupCache *cache.Cache
}

// Options collects the orchestrator dependencies. Linker, Notifier, and
// Archiver are optional.
type Options struct {
	Fetcher   mail.Fetcher
	Store     TransactionStore
	Runs      RunLog
	Lookups   Lookups
	Resolver  Resolver
	Linker    InvestmentLinker
	Notifier  Notifier
	Archiver  Archiver
	Overlap   time.Duration
	BatchSize int64
	// Trigger labels who initiated runs in the run log.
	Trigger string
}

func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Overlap <= 0 {
		opts.Overlap = time.Hour
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.Trigger == "" {
		opts.Trigger = "manual"
	}
	return &Orchestrator{
		fetcher:     opts.Fetcher,
		store:       opts.Store,
		runs:        opts.Runs,
		lookups:     opts.Lookups,
		resolver:    opts.Resolver,
		linker:      opts.Linker,
		notifier:    opts.Notifier,
		archiver:    opts.Archiver,
		overlap:     opts.Overlap,
		batchSize:   opts.BatchSize,
		trigger:     opts.Trigger,
		now:         time.Now,
		lookupCache: cache.New(10*time.Minute, 30*time.Minute),
	}
}

// RecordSummary describes one persisted transaction for the run report.
type RecordSummary struct {
	Fingerprint string
	Merchant    string
	Amount      float64
	Source      domain.CandidateSource
}

// Report summarizes a completed run.
type Report struct {
	RunID            string
	Status           string
	Fetched          int
	DedupSkipped     int
	ExtractionFailed int
	ZeroAmountSkip   int
	Processed        int
	Records          []RecordSummary
}

// Run executes one ingestion pass for the user. Individual message failures
// are counted and skipped; only fetch-level failures abort the run.
func (o *Orchestrator) Run(ctx context.Context, userID string) (*Report, error) {
	log := logger.FromContext(ctx)
	report := &Report{RunID: uuid.NewString()}
	start := o.now()

	if err := o.runs.StartRun(ctx, report.RunID, userID, o.trigger, start); err != nil {
		return nil, fmt.Errorf("Run: starting run log: %w", err)
	}

	watermark, err := o.runs.LastAdvancingStart(ctx, userID)
	if err != nil {
		o.finish(ctx, report, store.RunStatusFailed, err.Error())
		return report, fmt.Errorf("Run: loading watermark: %w", err)
	}
	after := watermark
	if !after.IsZero() {
		after = after.Add(-o.overlap)
	}

	msgs, err := o.fetcher.Fetch(ctx, after, o.batchSize)
	if err != nil {
		if errors.Is(err, mail.ErrCredentialRevoked) {
			log.Warn().Str("user_id", userID).Msg("mailbox credential revoked, disconnecting")
			if o.notifier != nil {
				if nerr := o.notifier.NotifyDisconnected(ctx, userID); nerr != nil {
					log.Error().Err(nerr).Msg("disconnect notification failed")
				}
			}
			o.finish(ctx, report, store.RunStatusDisconnected, err.Error())
			return report, fmt.Errorf("Run: fetching messages: %w", err)
		}
		o.finish(ctx, report, store.RunStatusFailed, err.Error())
		return report, fmt.Errorf("Run: fetching messages: %w", err)
	}
	report.Fetched = len(msgs)

	for _, msg := range msgs {
		if err := o.processMessage(ctx, userID, msg, report); err != nil {
			log.Error().Err(err).Str("message_id", msg.ID).Msg("message processing failed")
			report.ExtractionFailed++
		}
	}

	o.finish(ctx, report, store.RunStatusSuccess, "")
	log.Info().
		Str("run_id", report.RunID).
		Int("fetched", report.Fetched).
		Int("processed", report.Processed).
		Int("dedup_skipped", report.DedupSkipped).
		Int("zero_amount_skipped", report.ZeroAmountSkip).
		Int("extraction_failed", report.ExtractionFailed).
		Msg("sync run complete")
	return report, nil
}

func (o *Orchestrator) processMessage(ctx context.Context, userID string, msg domain.RawMessage, report *Report) error {
	log := logger.FromContext(ctx)
	fp := Fingerprint(msg)

	exists, err := o.store.ExistsByFingerprint(ctx, userID, fp)
	if err != nil {
		return fmt.Errorf("processMessage: dedup check: %w", err)
	}
	if exists {
		report.DedupSkipped++
		return nil
	}

	cand, verdict := o.resolver.Resolve(ctx, msg)
	if cand.Amount == 0 {
		if cand.Source == domain.SourceFallback {
			report.ExtractionFailed++
			log.Debug().
				Str("message_id", msg.ID).
				Str("reject_reason", string(verdict.Reason)).
				Msg("no amount recovered, message dropped")
		} else {
			report.ZeroAmountSkip++
		}
		return nil
	}

	txn, err := o.buildTransaction(ctx, userID, fp, msg, cand)
	if err != nil {
		return fmt.Errorf("processMessage: building transaction: %w", err)
	}

	if err := o.store.Create(ctx, txn); err != nil {
		return fmt.Errorf("processMessage: persisting transaction: %w", err)
	}
	report.Processed++
	report.Records = append(report.Records, RecordSummary{
		Fingerprint: fp,
		Merchant:    txn.Merchant,
		Amount:      txn.Amount,
		Source:      cand.Source,
	})

	if o.archiver != nil {
		if err := o.archiver.Store(ctx, fp, msg.Text()); err != nil {
			log.Warn().Err(err).Str("fingerprint", fp).Msg("archive write failed")
		}
	}
	if o.linker != nil {
		if err := o.linker.Link(ctx, txn); err != nil {
			log.Warn().Err(err).Str("transaction_id", txn.ID).Msg("investment link failed")
		}
	}
	return nil
}

func (o *Orchestrator) buildTransaction(ctx context.Context, userID, fp string, msg domain.RawMessage, cand domain.ExtractionCandidate) (domain.Transaction, error) {
	txn := domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Fingerprint: fp,
		Date:        msg.Delivered,
		Currency:    cand.Currency,
		Merchant:    cand.Merchant,
		Category:    cand.Category,
		Subcategory: cand.Subcategory,
		AccountKind: cand.AccountKind,
	}
	if cand.Date != nil {
		txn.Date = *cand.Date
	}

	mapping, found, err := o.mappingFor(ctx, userID, cand.Merchant)
	if err != nil {
		return domain.Transaction{}, err
	}
	if found {
		if mapping.Category != "" {
			txn.Category = mapping.Category
		}
		if mapping.Subcategory != "" {
			txn.Subcategory = mapping.Subcategory
		}
	}

	// Debits post negative unless this is income arriving via a debit-worded
	// alert (refunds, cashbacks categorized as Income stay positive).
	amount := math.Abs(cand.Amount)
	if cand.Direction == domain.DirectionDebit && txn.Category != "Income" {
		amount = -amount
	}
	txn.Amount = amount

	surety, err := o.suretyFor(ctx, txn.Subcategory)
	if err != nil {
		return domain.Transaction{}, err
	}
	txn.IsSurety = surety

	return txn, nil
}

func (o *Orchestrator) mappingFor(ctx context.Context, userID, merchant string) (domain.MerchantMapping, bool, error) {
	if merchant == "" || o.lookups == nil {
		return domain.MerchantMapping{}, false, nil
	}
	key := "mapping:" + userID + ":" + merchant
	type cached struct {
		mapping domain.MerchantMapping
		found   bool
	}
	if v, ok := o.lookupCache.Get(key); ok {
		c := v.(cached)
		return c.mapping, c.found, nil
	}
	mapping, found, err := o.lookups.GetMapping(ctx, userID, merchant)
	if err != nil {
		return domain.MerchantMapping{}, false, fmt.Errorf("mappingFor: %w", err)
	}
	o.lookupCache.SetDefault(key, cached{mapping: mapping, found: found})
	return mapping, found, nil
}

func (o *Orchestrator) suretyFor(ctx context.Context, subcategory string) (bool, error) {
	if subcategory == "" || o.lookups == nil {
		return false, nil
	}
	key := "surety:" + subcategory
	if v, ok := o.lookupCache.Get(key); ok {
		return v.(bool), nil
	}
	surety, err := o.lookups.IsSurety(ctx, subcategory)
	if err != nil {
		return false, fmt.Errorf("suretyFor: %w", err)
	}
	o.lookupCache.SetDefault(key, surety)
	return surety, nil
}

func (o *Orchestrator) finish(ctx context.Context, report *Report, status, errMsg string) {
	report.Status = status
	if err := o.runs.FinishRun(ctx, report.RunID, status, report.Processed, errMsg, report.countersJSON()); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("run_id", report.RunID).Msg("finishing run log failed")
	}
}

// countersJSON renders the run counters for the run-log summary column.
func (r *Report) countersJSON() string {
	b, err := json.Marshal(map[string]int{
		"fetched":             r.Fetched,
		"dedup_skipped":       r.DedupSkipped,
		"extraction_failed":   r.ExtractionFailed,
		"zero_amount_skipped": r.ZeroAmountSkip,
		"processed":           r.Processed,
	})
	if err != nil {
		return ""
	}
	return string(b)
}
