package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gripfin/grip/internal/ai"
	"github.com/gripfin/grip/internal/classify"
	"github.com/gripfin/grip/internal/domain"
	"github.com/gripfin/grip/internal/extract"
	"github.com/gripfin/grip/internal/sanitize"
)

// mockAI is a test double for the collaborator boundary.
type mockAI struct {
	enabled     bool
	extractFunc func(ctx context.Context, text string) (*ai.Extraction, error)
	enrichFunc  func(ctx context.Context, text string, amount float64) (*ai.Enrichment, error)

	extractCalls int
	enrichCalls  int
	lastText     string
}

func (m *mockAI) Enabled() bool { return m.enabled }

func (m *mockAI) ExtractTransaction(ctx context.Context, text string) (*ai.Extraction, error) {
	m.extractCalls++
	m.lastText = text
	return m.extractFunc(ctx, text)
}

func (m *mockAI) EnrichMerchant(ctx context.Context, text string, amount float64) (*ai.Enrichment, error) {
	m.enrichCalls++
	m.lastText = text
	return m.enrichFunc(ctx, text, amount)
}

func newRouter(mock *mockAI) *Router {
	return New(
		classify.New(classify.DefaultConfig()),
		extract.New(extract.DefaultConfig()),
		sanitize.New(),
		mock,
		3000,
	)
}

func confidentMsg() domain.RawMessage {
	return domain.RawMessage{
		ID:      "msg-1",
		Sender:  "alerts@axisbank.com",
		Subject: "Transaction alert",
		Body:    "Rs. 1,499.00 has been debited from your a/c XX1234 at NETFLIX on 05-08-2026. Ref 99812.",
	}
}

func TestResolveRuleConfidentSkipsAI(t *testing.T) {
	mock := &mockAI{enabled: true}
	r := newRouter(mock)

	cand, verdict := r.Resolve(context.Background(), confidentMsg())

	if !verdict.Accepted {
		t.Fatalf("verdict = %+v, want accepted", verdict)
	}
	if cand.Source != domain.SourceRule || !cand.Confident {
		t.Errorf("candidate source = %s confident = %v, want RULE confident", cand.Source, cand.Confident)
	}
	if cand.Amount != 1499.00 || cand.Merchant != "Netflix" {
		t.Errorf("candidate = %+v, want amount 1499 merchant Netflix", cand)
	}
	if mock.extractCalls != 0 || mock.enrichCalls != 0 {
		t.Errorf("AI called %d/%d times, want none", mock.extractCalls, mock.enrichCalls)
	}
}

func TestResolveRejectedMessageDisabledAI(t *testing.T) {
	mock := &mockAI{enabled: false}
	r := newRouter(mock)

	msg := domain.RawMessage{
		ID:      "msg-2",
		Sender:  "deals@randomshop.example",
		Subject: "Huge savings inside",
		Body:    "Shop today and save big.",
	}
	cand, verdict := r.Resolve(context.Background(), msg)

	if verdict.Accepted {
		t.Fatal("verdict accepted, want rejection")
	}
	if cand.Source != domain.SourceFallback || cand.Amount != 0 {
		t.Errorf("candidate = %+v, want zero-amount fallback", cand)
	}
	if mock.extractCalls != 0 {
		t.Errorf("ExtractTransaction called %d times with disabled AI", mock.extractCalls)
	}
}

func TestResolveRejectedMessageFullAI(t *testing.T) {
	mock := &mockAI{
		enabled: true,
		extractFunc: func(ctx context.Context, text string) (*ai.Extraction, error) {
			return &ai.Extraction{
				Amount:      899,
				Currency:    "INR",
				Merchant:    "Spotify",
				Category:    "Entertainment",
				Subcategory: "Subscriptions",
				AccountKind: "SAVINGS",
				Direction:   "DEBIT",
			}, nil
		},
	}
	r := newRouter(mock)

	msg := domain.RawMessage{
		ID:      "msg-3",
		Sender:  "receipts@spotify.example",
		Subject: "Your Spotify receipt",
		Body:    "Dear Ramesh Kumar, your subscription of Rs. 899 was renewed using card XXXX9921.",
	}
	cand, _ := r.Resolve(context.Background(), msg)

	if cand.Source != domain.SourceAIFull {
		t.Fatalf("source = %s, want AI_FULL", cand.Source)
	}
	if cand.Amount != 899 || cand.Merchant != "Spotify" {
		t.Errorf("candidate = %+v, want 899/Spotify", cand)
	}
	if mock.extractCalls != 1 {
		t.Errorf("ExtractTransaction calls = %d, want 1", mock.extractCalls)
	}
	if strings.Contains(mock.lastText, "Ramesh Kumar") || strings.Contains(mock.lastText, "XXXX9921") {
		t.Errorf("outbound text not sanitized: %q", mock.lastText)
	}
}

func TestResolveEnrichmentPath(t *testing.T) {
	mock := &mockAI{
		enabled: true,
		enrichFunc: func(ctx context.Context, text string, amount float64) (*ai.Enrichment, error) {
			if amount != 25000.00 {
				t.Errorf("enrich amount = %v, want 25000", amount)
			}
			return &ai.Enrichment{Merchant: "Acme Payroll", Category: "Income", Subcategory: "Salary"}, nil
		},
	}
	r := newRouter(mock)

	// Confident amount, no extractable merchant.
	msg := domain.RawMessage{
		ID:      "msg-4",
		Sender:  "alerts@axisbank.com",
		Subject: "Credit alert",
		Body:    "INR 25,000.00 has been credited to your a/c XX8876 by NEFT.",
	}
	cand, _ := r.Resolve(context.Background(), msg)

	if cand.Source != domain.SourceRuleEnriched {
		t.Fatalf("source = %s, want RULE_ENRICHED", cand.Source)
	}
	if cand.Amount != 25000.00 {
		t.Errorf("amount = %v, want rule amount preserved", cand.Amount)
	}
	if cand.Merchant != "Acme Payroll" || cand.Category != "Income" {
		t.Errorf("candidate = %+v, want enriched merchant/category", cand)
	}
	if mock.extractCalls != 0 {
		t.Errorf("full extraction called on enrichment path")
	}
}

func TestResolveEnrichmentFailureDegradesToRule(t *testing.T) {
	mock := &mockAI{
		enabled: true,
		enrichFunc: func(ctx context.Context, text string, amount float64) (*ai.Enrichment, error) {
			return nil, errors.New("upstream 503")
		},
	}
	r := newRouter(mock)

	msg := domain.RawMessage{
		ID:      "msg-5",
		Sender:  "alerts@axisbank.com",
		Subject: "Credit alert",
		Body:    "INR 25,000.00 has been credited to your a/c XX8876 by NEFT.",
	}
	cand, _ := r.Resolve(context.Background(), msg)

	if cand.Source != domain.SourceRule || !cand.Confident {
		t.Errorf("candidate = %+v, want confident rule result", cand)
	}
	if cand.Merchant != "UNKNOWN" {
		t.Errorf("merchant = %q, want UNKNOWN placeholder", cand.Merchant)
	}
	if cand.Amount != 25000.00 {
		t.Errorf("amount = %v, want 25000", cand.Amount)
	}
}

func TestResolveBareAmountFailureKeepsLowConfidence(t *testing.T) {
	mock := &mockAI{
		enabled: true,
		extractFunc: func(ctx context.Context, text string) (*ai.Extraction, error) {
			return nil, errors.New("upstream 503")
		},
	}
	r := newRouter(mock)

	// Passes the gate but only the bare last-resort amount pattern matches.
	msg := domain.RawMessage{
		ID:      "msg-6",
		Sender:  "alerts@axisbank.com",
		Subject: "Account alert",
		Body:    "An amount of value INR 2,000 was transferred. Available balance INR 58,000.",
	}
	cand, verdict := r.Resolve(context.Background(), msg)

	if !verdict.Accepted {
		t.Fatalf("verdict = %+v, want accepted", verdict)
	}
	if cand.Source != domain.SourceRule || cand.Confident {
		t.Errorf("candidate source = %s confident = %v, want RULE low-confidence", cand.Source, cand.Confident)
	}
	if cand.Amount != 2000 {
		t.Errorf("amount = %v, want 2000", cand.Amount)
	}
	if mock.extractCalls != 1 {
		t.Errorf("ExtractTransaction calls = %d, want exactly 1", mock.extractCalls)
	}
}

func TestResolveZeroAmountKeepsAIFields(t *testing.T) {
	mock := &mockAI{
		enabled: true,
		extractFunc: func(ctx context.Context, text string) (*ai.Extraction, error) {
			return &ai.Extraction{
				Merchant:    "Netflix",
				Category:    "Entertainment",
				Subcategory: "Subscriptions",
			}, nil
		},
	}
	r := newRouter(mock)

	msg := domain.RawMessage{
		ID:      "msg-8",
		Sender:  "info@netflix.example",
		Subject: "Your plan has changed",
		Body:    "Your Netflix plan was updated. No charge was made today.",
	}
	cand, _ := r.Resolve(context.Background(), msg)

	if cand.Source != domain.SourceAIFull {
		t.Fatalf("source = %s, want AI_FULL for recognized zero-amount result", cand.Source)
	}
	if cand.Amount != 0 {
		t.Errorf("amount = %v, want 0", cand.Amount)
	}
	if cand.Merchant != "Netflix" || cand.Category != "Entertainment" {
		t.Errorf("candidate = %+v, want AI merchant and category preserved", cand)
	}
}

func TestResolveZeroAmountUnknownMerchantFallsBack(t *testing.T) {
	mock := &mockAI{
		enabled: true,
		extractFunc: func(ctx context.Context, text string) (*ai.Extraction, error) {
			return &ai.Extraction{Merchant: "UNKNOWN"}, nil
		},
	}
	r := newRouter(mock)

	msg := domain.RawMessage{
		ID:      "msg-9",
		Sender:  "unknown@somewhere.example",
		Subject: "Notice",
		Body:    "Nothing actionable here.",
	}
	cand, _ := r.Resolve(context.Background(), msg)

	if cand.Source != domain.SourceFallback || cand.Merchant != "UNKNOWN" {
		t.Errorf("candidate = %+v, want zero-amount fallback", cand)
	}
}

func TestResolveNotATransaction(t *testing.T) {
	mock := &mockAI{
		enabled: true,
		extractFunc: func(ctx context.Context, text string) (*ai.Extraction, error) {
			return &ai.Extraction{NotATransaction: true}, nil
		},
	}
	r := newRouter(mock)

	msg := domain.RawMessage{
		ID:      "msg-7",
		Sender:  "unknown@newsletter.example",
		Subject: "Weekly digest",
		Body:    "Here is what happened this week.",
	}
	cand, _ := r.Resolve(context.Background(), msg)

	if cand.Source != domain.SourceFallback || cand.Amount != 0 {
		t.Errorf("candidate = %+v, want zero-amount fallback", cand)
	}
}
