package sync

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gripfin/grip/internal/ai"
	"github.com/gripfin/grip/internal/classify"
	"github.com/gripfin/grip/internal/domain"
	"github.com/gripfin/grip/internal/extract"
	"github.com/gripfin/grip/internal/mail"
	"github.com/gripfin/grip/internal/router"
	"github.com/gripfin/grip/internal/sanitize"
	"github.com/gripfin/grip/internal/store"
)

type mockFetcher struct {
	msgs      []domain.RawMessage
	err       error
	lastAfter time.Time
}

func (m *mockFetcher) Fetch(ctx context.Context, after time.Time, max int64) ([]domain.RawMessage, error) {
	m.lastAfter = after
	return m.msgs, m.err
}

type mockTxnStore struct {
	existing  map[string]bool
	created   []domain.Transaction
	createErr func(t domain.Transaction) error
}

func (m *mockTxnStore) ExistsByFingerprint(ctx context.Context, userID, fingerprint string) (bool, error) {
	return m.existing[fingerprint], nil
}

func (m *mockTxnStore) Create(ctx context.Context, t domain.Transaction) error {
	if m.createErr != nil {
		if err := m.createErr(t); err != nil {
			return err
		}
	}
	m.created = append(m.created, t)
	return nil
}

type mockRunLog struct {
	watermark     time.Time
	started       bool
	startTrigger  string
	finishStatus  string
	finishCount   int
	finishSummary string
}

func (m *mockRunLog) StartRun(ctx context.Context, runID, userID, trigger string, start time.Time) error {
	m.started = true
	m.startTrigger = trigger
	return nil
}

func (m *mockRunLog) FinishRun(ctx context.Context, runID, status string, recordsProcessed int, errMsg, summary string) error {
	m.finishStatus = status
	m.finishCount = recordsProcessed
	m.finishSummary = summary
	return nil
}

func (m *mockRunLog) LastAdvancingStart(ctx context.Context, userID string) (time.Time, error) {
	return m.watermark, nil
}

type mockLookups struct {
	mappings     map[string]domain.MerchantMapping
	sureties     map[string]bool
	mappingCalls int
}

func (m *mockLookups) GetMapping(ctx context.Context, userID, merchant string) (domain.MerchantMapping, bool, error) {
	m.mappingCalls++
	mapping, ok := m.mappings[merchant]
	return mapping, ok, nil
}

func (m *mockLookups) IsSurety(ctx context.Context, subcategory string) (bool, error) {
	return m.sureties[subcategory], nil
}

type mockResolver struct {
	candidates map[string]domain.ExtractionCandidate
}

func (m *mockResolver) Resolve(ctx context.Context, msg domain.RawMessage) (domain.ExtractionCandidate, classify.Verdict) {
	return m.candidates[msg.ID], classify.Verdict{Accepted: true, Reason: classify.ReasonPassed}
}

type mockNotifier struct {
	notified []string
}

func (m *mockNotifier) NotifyDisconnected(ctx context.Context, userID string) error {
	m.notified = append(m.notified, userID)
	return nil
}

func testMessage(id string) domain.RawMessage {
	return domain.RawMessage{
		ID:        id,
		Delivered: time.Date(2026, time.August, 10, 9, 0, 0, 0, time.UTC),
		Subject:   "Transaction alert",
		Body:      "body",
	}
}

func debitCandidate(amount float64, merchant string) domain.ExtractionCandidate {
	return domain.ExtractionCandidate{
		Amount:      amount,
		Currency:    "INR",
		Merchant:    merchant,
		Category:    "Food",
		Subcategory: "Food Delivery",
		AccountKind: domain.AccountSavings,
		Direction:   domain.DirectionDebit,
		Source:      domain.SourceRule,
		Confident:   true,
	}
}

func TestRunPersistsSignedDebit(t *testing.T) {
	fetcher := &mockFetcher{msgs: []domain.RawMessage{testMessage("m1")}}
	txns := &mockTxnStore{}
	runs := &mockRunLog{watermark: time.Date(2026, time.August, 9, 12, 0, 0, 0, time.UTC)}
	o := NewOrchestrator(Options{
		Fetcher:  fetcher,
		Store:    txns,
		Runs:     runs,
		Lookups:  &mockLookups{},
		Resolver: &mockResolver{candidates: map[string]domain.ExtractionCandidate{"m1": debitCandidate(240, "Swiggy")}},
		Overlap:  time.Hour,
	})

	report, err := o.Run(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Processed != 1 || len(txns.created) != 1 {
		t.Fatalf("processed = %d created = %d, want 1/1", report.Processed, len(txns.created))
	}
	txn := txns.created[0]
	if txn.Amount != -240 {
		t.Errorf("amount = %v, want -240 for a debit", txn.Amount)
	}
	if txn.Fingerprint == "" || txn.ID == "" {
		t.Errorf("transaction missing identity: %+v", txn)
	}
	if runs.finishStatus != store.RunStatusSuccess || runs.finishCount != 1 {
		t.Errorf("run log = %s/%d, want SUCCESS/1", runs.finishStatus, runs.finishCount)
	}
	if runs.startTrigger != "manual" {
		t.Errorf("trigger = %q, want the manual default", runs.startTrigger)
	}
	if !strings.Contains(runs.finishSummary, `"processed":1`) {
		t.Errorf("summary = %q, want processed count recorded", runs.finishSummary)
	}

	wantAfter := runs.watermark.Add(-time.Hour)
	if !fetcher.lastAfter.Equal(wantAfter) {
		t.Errorf("fetch after = %s, want watermark minus overlap %s", fetcher.lastAfter, wantAfter)
	}
}

func TestRunIncomeStaysPositive(t *testing.T) {
	cand := debitCandidate(5000, "Acme Refunds")
	cand.Category = "Income"
	fetcher := &mockFetcher{msgs: []domain.RawMessage{testMessage("m1")}}
	txns := &mockTxnStore{}
	o := NewOrchestrator(Options{
		Fetcher:  fetcher,
		Store:    txns,
		Runs:     &mockRunLog{},
		Lookups:  &mockLookups{},
		Resolver: &mockResolver{candidates: map[string]domain.ExtractionCandidate{"m1": cand}},
	})

	if _, err := o.Run(context.Background(), "u1"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if txns.created[0].Amount != 5000 {
		t.Errorf("amount = %v, want positive for Income", txns.created[0].Amount)
	}
}

func TestRunDedupSkipsKnownFingerprint(t *testing.T) {
	msg := testMessage("m1")
	fetcher := &mockFetcher{msgs: []domain.RawMessage{msg}}
	txns := &mockTxnStore{existing: map[string]bool{Fingerprint(msg): true}}
	runs := &mockRunLog{}
	o := NewOrchestrator(Options{
		Fetcher:  fetcher,
		Store:    txns,
		Runs:     runs,
		Lookups:  &mockLookups{},
		Resolver: &mockResolver{candidates: map[string]domain.ExtractionCandidate{"m1": debitCandidate(240, "Swiggy")}},
	})

	report, err := o.Run(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.DedupSkipped != 1 || report.Processed != 0 || len(txns.created) != 0 {
		t.Errorf("report = %+v created = %d, want pure dedup skip", report, len(txns.created))
	}
	if runs.finishCount != 0 {
		t.Errorf("records_processed = %d, want 0 so the watermark does not advance", runs.finishCount)
	}
}

func TestRunZeroAmountAccounting(t *testing.T) {
	fallback := domain.ExtractionCandidate{Source: domain.SourceFallback}
	zeroRule := domain.ExtractionCandidate{Source: domain.SourceRule}
	fetcher := &mockFetcher{msgs: []domain.RawMessage{testMessage("m1"), testMessage("m2")}}
	txns := &mockTxnStore{}
	o := NewOrchestrator(Options{
		Fetcher: fetcher,
		Store:   txns,
		Runs:    &mockRunLog{},
		Lookups: &mockLookups{},
		Resolver: &mockResolver{candidates: map[string]domain.ExtractionCandidate{
			"m1": fallback,
			"m2": zeroRule,
		}},
	})

	report, err := o.Run(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.ExtractionFailed != 1 || report.ZeroAmountSkip != 1 {
		t.Errorf("failed/zero = %d/%d, want 1/1", report.ExtractionFailed, report.ZeroAmountSkip)
	}
	if len(txns.created) != 0 {
		t.Errorf("created = %d, want nothing persisted", len(txns.created))
	}
}

type scriptedAI struct {
	extractFunc func(ctx context.Context, text string) (*ai.Extraction, error)
}

func (s *scriptedAI) Enabled() bool { return true }

func (s *scriptedAI) ExtractTransaction(ctx context.Context, text string) (*ai.Extraction, error) {
	return s.extractFunc(ctx, text)
}

func (s *scriptedAI) EnrichMerchant(ctx context.Context, text string, amount float64) (*ai.Enrichment, error) {
	return nil, errors.New("enrichment not expected")
}

func TestRunZeroAmountAccountingThroughRouter(t *testing.T) {
	aiClient := &scriptedAI{
		extractFunc: func(ctx context.Context, text string) (*ai.Extraction, error) {
			if strings.Contains(text, "Netflix") {
				return &ai.Extraction{Merchant: "Netflix", Category: "Entertainment"}, nil
			}
			return &ai.Extraction{Merchant: "UNKNOWN"}, nil
		},
	}
	resolver := router.New(
		classify.New(classify.DefaultConfig()),
		extract.New(extract.DefaultConfig()),
		sanitize.New(),
		aiClient,
		3000,
	)

	// Both messages fail the sender gate and take the full AI path; only
	// the recognized zero-amount result counts as a zero-amount skip.
	recognized := testMessage("m1")
	recognized.Sender = "info@netflix.example"
	recognized.Subject = "Your plan has changed"
	recognized.Body = "Your Netflix plan was updated. No charge was made today."

	unrecognized := testMessage("m2")
	unrecognized.Sender = "deals@randomshop.example"
	unrecognized.Subject = "Weekly roundup"
	unrecognized.Body = "Here is what happened this week."

	fetcher := &mockFetcher{msgs: []domain.RawMessage{recognized, unrecognized}}
	txns := &mockTxnStore{}
	o := NewOrchestrator(Options{
		Fetcher:  fetcher,
		Store:    txns,
		Runs:     &mockRunLog{},
		Lookups:  &mockLookups{},
		Resolver: resolver,
	})

	report, err := o.Run(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.ZeroAmountSkip != 1 || report.ExtractionFailed != 1 {
		t.Errorf("zero/failed = %d/%d, want 1/1", report.ZeroAmountSkip, report.ExtractionFailed)
	}
	if len(txns.created) != 0 {
		t.Errorf("created = %d, want nothing persisted", len(txns.created))
	}
}

func TestRunCredentialRevokedAborts(t *testing.T) {
	fetcher := &mockFetcher{err: mail.ErrCredentialRevoked}
	runs := &mockRunLog{}
	notifier := &mockNotifier{}
	o := NewOrchestrator(Options{
		Fetcher:  fetcher,
		Store:    &mockTxnStore{},
		Runs:     runs,
		Lookups:  &mockLookups{},
		Resolver: &mockResolver{},
		Notifier: notifier,
	})

	_, err := o.Run(context.Background(), "u1")
	if !errors.Is(err, mail.ErrCredentialRevoked) {
		t.Fatalf("Run() error = %v, want ErrCredentialRevoked", err)
	}
	if len(notifier.notified) != 1 || notifier.notified[0] != "u1" {
		t.Errorf("notified = %v, want exactly [u1]", notifier.notified)
	}
	if runs.finishStatus != store.RunStatusDisconnected {
		t.Errorf("run status = %s, want DISCONNECTED", runs.finishStatus)
	}
}

func TestRunMappingOverrideAndSuretyFlag(t *testing.T) {
	fetcher := &mockFetcher{msgs: []domain.RawMessage{testMessage("m1")}}
	txns := &mockTxnStore{}
	lookups := &mockLookups{
		mappings: map[string]domain.MerchantMapping{
			"Swiggy": {Merchant: "Swiggy", Category: "Investment", Subcategory: "Mutual Fund SIP"},
		},
		sureties: map[string]bool{"Mutual Fund SIP": true},
	}
	o := NewOrchestrator(Options{
		Fetcher:  fetcher,
		Store:    txns,
		Runs:     &mockRunLog{},
		Lookups:  lookups,
		Resolver: &mockResolver{candidates: map[string]domain.ExtractionCandidate{"m1": debitCandidate(2000, "Swiggy")}},
	})

	if _, err := o.Run(context.Background(), "u1"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	txn := txns.created[0]
	if txn.Category != "Investment" || txn.Subcategory != "Mutual Fund SIP" {
		t.Errorf("mapping override not applied: %+v", txn)
	}
	if !txn.IsSurety {
		t.Error("IsSurety = false, want true via subcategory")
	}
}

func TestRunLookupCache(t *testing.T) {
	fetcher := &mockFetcher{msgs: []domain.RawMessage{testMessage("m1"), testMessage("m2")}}
	txns := &mockTxnStore{}
	lookups := &mockLookups{}
	o := NewOrchestrator(Options{
		Fetcher: fetcher,
		Store:   txns,
		Runs:    &mockRunLog{},
		Lookups: lookups,
		Resolver: &mockResolver{candidates: map[string]domain.ExtractionCandidate{
			"m1": debitCandidate(240, "Swiggy"),
			"m2": debitCandidate(310, "Swiggy"),
		}},
	})

	if _, err := o.Run(context.Background(), "u1"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if lookups.mappingCalls != 1 {
		t.Errorf("mapping lookups = %d, want 1 (second served from cache)", lookups.mappingCalls)
	}
}

func TestRunPerMessageFailureIsolated(t *testing.T) {
	fetcher := &mockFetcher{msgs: []domain.RawMessage{testMessage("m1"), testMessage("m2")}}
	txns := &mockTxnStore{
		createErr: func(txn domain.Transaction) error {
			if txn.Merchant == "Swiggy" {
				return errors.New("insert quota exceeded")
			}
			return nil
		},
	}
	runs := &mockRunLog{}
	o := NewOrchestrator(Options{
		Fetcher: fetcher,
		Store:   txns,
		Runs:    runs,
		Lookups: &mockLookups{},
		Resolver: &mockResolver{candidates: map[string]domain.ExtractionCandidate{
			"m1": debitCandidate(240, "Swiggy"),
			"m2": debitCandidate(310, "Zomato"),
		}},
	})

	report, err := o.Run(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Run() error = %v, want per-message isolation", err)
	}
	if report.Processed != 1 || report.ExtractionFailed != 1 {
		t.Errorf("report = %+v, want 1 processed, 1 failed", report)
	}
	if len(txns.created) != 1 || txns.created[0].Merchant != "Zomato" {
		t.Errorf("created = %+v, want only the Zomato row", txns.created)
	}
}

func TestRunFetcherErrorFailsRun(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("gmail 500")}
	runs := &mockRunLog{}
	o := NewOrchestrator(Options{
		Fetcher:  fetcher,
		Store:    &mockTxnStore{},
		Runs:     runs,
		Lookups:  &mockLookups{},
		Resolver: &mockResolver{},
	})

	if _, err := o.Run(context.Background(), "u1"); err == nil {
		t.Fatal("Run() error = nil, want fetch failure surfaced")
	}
	if runs.finishStatus != store.RunStatusFailed {
		t.Errorf("run status = %s, want FAILED", runs.finishStatus)
	}
}

func TestRunZeroWatermarkFetchesFromEpoch(t *testing.T) {
	fetcher := &mockFetcher{}
	o := NewOrchestrator(Options{
		Fetcher:  fetcher,
		Store:    &mockTxnStore{},
		Runs:     &mockRunLog{},
		Lookups:  &mockLookups{},
		Resolver: &mockResolver{},
	})

	if _, err := o.Run(context.Background(), "u1"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !fetcher.lastAfter.IsZero() {
		t.Errorf("after = %s, want zero time on first run", fetcher.lastAfter)
	}
}
