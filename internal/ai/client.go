// Package ai wraps the Gemini collaborator behind two narrow operations:
// full transaction extraction and merchant/category enrichment. Calls carry
// an explicit timeout; only transient server-side failures are retried, and
// a definitive negative answer is never retried.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"google.golang.org/genai"
)

var (
	// ErrUnavailable reports that the collaborator could not be reached or
	// kept failing past the retry budget.
	ErrUnavailable = errors.New("ai: collaborator unavailable")
	// ErrMalformedResponse reports a successful call whose content did not
	// match the expected schema.
	ErrMalformedResponse = errors.New("ai: malformed response")
)

// Extraction is the full-extraction response schema.
type Extraction struct {
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	Merchant         string  `json:"merchant_name"`
	Category         string  `json:"category"`
	Subcategory      string  `json:"sub_category"`
	AccountKind      string  `json:"account_type"`
	Direction        string  `json:"transaction_type"`
	NotATransaction  bool    `json:"-"`
}

// Enrichment is the merchant/category-only response schema used when the
// rule engine already trusts the amount.
type Enrichment struct {
	Merchant    string `json:"merchant_name"`
	Category    string `json:"category"`
	Subcategory string `json:"sub_category"`
}

// Config for the Gemini client.
type Config struct {
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	// Categories is the taxonomy rendered into prompts, one
	// "Category: [Sub, ...]" line per category.
	Categories []string
}

// Gemini is the concrete collaborator client.
type Gemini struct {
	client     *genai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	categories []string
	log        zerolog.Logger
}

// NewGemini builds the client. An empty API key yields a disabled client:
// Enabled reports false and callers degrade to their fallback path without
// any network attempt.
func NewGemini(ctx context.Context, cfg Config, log zerolog.Logger) (*Gemini, error) {
	g := &Gemini{
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		categories: cfg.Categories,
		log:        log,
	}
	if cfg.APIKey == "" {
		return g, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGemini: create genai client: %w", err)
	}
	g.client = client
	return g, nil
}

// Enabled reports whether the collaborator is configured for use.
func (g *Gemini) Enabled() bool {
	return g.client != nil
}

// ExtractTransaction asks the model for a full extraction of the sanitized
// text. A literal null answer means the model decided the text is not a
// transaction; NotATransaction is set and no error is returned.
func (g *Gemini) ExtractTransaction(ctx context.Context, text string) (*Extraction, error) {
	raw, err := g.generateJSON(ctx, buildExtractionPrompt(text, g.categories))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return &Extraction{NotATransaction: true}, nil
	}
	var out Extraction
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding extraction: %v", ErrMalformedResponse, err)
	}
	out.Currency = orDefault(out.Currency, "INR")
	out.Merchant = orDefault(out.Merchant, "UNKNOWN")
	out.Category = orDefault(out.Category, "Uncategorized")
	out.Subcategory = orDefault(out.Subcategory, "Uncategorized")
	out.AccountKind = orDefault(out.AccountKind, "SAVINGS")
	out.Direction = orDefault(out.Direction, "DEBIT")
	return &out, nil
}

// EnrichMerchant asks only for merchant and category; the already-trusted
// amount is pinned in the prompt and never taken from the response.
func (g *Gemini) EnrichMerchant(ctx context.Context, text string, amount float64) (*Enrichment, error) {
	raw, err := g.generateJSON(ctx, buildEnrichmentPrompt(text, amount, g.categories))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: model returned null for enrichment", ErrMalformedResponse)
	}
	var out Enrichment
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding enrichment: %v", ErrMalformedResponse, err)
	}
	return &out, nil
}

// generateJSON runs one prompt under the configured timeout and retry
// budget. It returns the cleaned JSON object bytes, or nil when the model
// answered a literal null.
func (g *Gemini) generateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	if g.client == nil {
		return nil, ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	var rawText string
	backoff := retry.WithMaxRetries(uint64(g.maxRetries), retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
		if err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		rawText = resp.Text()
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTransient(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("ai: generate content: %w", err)
	}

	clean := cleanModelJSON(rawText)
	if clean == "" || strings.EqualFold(clean, "null") {
		return nil, nil
	}
	if !json.Valid([]byte(clean)) {
		g.log.Warn().Str("raw", sampleOf(rawText)).Msg("model returned non-JSON content")
		return nil, fmt.Errorf("%w: response is not valid JSON", ErrMalformedResponse)
	}
	return json.RawMessage(clean), nil
}

// isTransient reports whether err is a server-side transient failure (5xx or
// deadline) worth one more attempt. Validation and quota rejections are
// definitive and never retried.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 500
	}
	return false
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func sampleOf(s string) string {
	if len(s) > 120 {
		return s[:120]
	}
	return s
}
