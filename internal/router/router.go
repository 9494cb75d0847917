// Package router decides how much to trust the rule engine's output for a
// message: accept it as-is, enrich the weak fields via the AI collaborator,
// or fall back to a full AI extraction. Text is sanitized before any call
// crosses the collaborator boundary.
package router

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gripfin/grip/internal/ai"
	"github.com/gripfin/grip/internal/classify"
	"github.com/gripfin/grip/internal/domain"
	"github.com/gripfin/grip/internal/extract"
	"github.com/gripfin/grip/internal/logger"
	"github.com/gripfin/grip/internal/sanitize"
)

// AI is the collaborator contract the router needs. Implemented by ai.Gemini
// and by mocks in tests.
type AI interface {
	Enabled() bool
	ExtractTransaction(ctx context.Context, text string) (*ai.Extraction, error)
	EnrichMerchant(ctx context.Context, text string, amount float64) (*ai.Enrichment, error)
}

// Router is the confidence policy. Immutable after construction.
type Router struct {
	classifier *classify.Classifier
	extractor  *extract.Extractor
	sanitizer  *sanitize.Sanitizer
	ai         AI
	maxChars   int
}

func New(classifier *classify.Classifier, extractor *extract.Extractor, sanitizer *sanitize.Sanitizer, aiClient AI, maxChars int) *Router {
	return &Router{
		classifier: classifier,
		extractor:  extractor,
		sanitizer:  sanitizer,
		ai:         aiClient,
		maxChars:   maxChars,
	}
}

// Resolve turns one raw message into an extraction candidate. It always
// returns a candidate: upstream AI failures degrade to a rule-only or
// zero-amount fallback result and are never surfaced as errors. A zero
// Amount tells the caller to skip persistence.
func (r *Router) Resolve(ctx context.Context, msg domain.RawMessage) (domain.ExtractionCandidate, classify.Verdict) {
	log := logger.FromContext(ctx)

	verdict := r.classifier.Classify(msg.Subject, msg.Body, msg.Sender)
	if !verdict.Accepted {
		log.Debug().
			Str("message_id", msg.ID).
			Str("reason", string(verdict.Reason)).
			Msg("classifier rejected message, trying full AI extraction")
		return r.fullAI(ctx, msg, log), verdict
	}

	fields, err := r.extractor.Extract(msg.Subject, msg.Body)
	if err != nil {
		// No amount pattern matched at all; the rule engine has nothing.
		log.Debug().Str("message_id", msg.ID).Msg("rule extraction found no amount, trying full AI extraction")
		return r.fullAI(ctx, msg, log), verdict
	}

	candidate := candidateFromFields(fields)

	switch {
	case fields.AmountConfident && fields.Merchant != "":
		// Rule-confident: no external call.
		candidate.Source = domain.SourceRule
		candidate.Confident = true
		return candidate, verdict

	case fields.AmountConfident:
		// Amount is trustworthy but the merchant is not; ask only for the
		// weak fields and keep the rule-derived amount untouched.
		return r.enrich(ctx, msg, candidate, log), verdict

	default:
		// The amount itself came from the bare last-resort pattern; a full
		// re-extraction is worth one attempt. On failure keep the
		// low-confidence rule result rather than discarding the message.
		full := r.fullAI(ctx, msg, log)
		if full.Source == domain.SourceAIFull && full.Amount > 0 {
			return full, verdict
		}
		candidate.Source = domain.SourceRule
		candidate.Confident = false
		return candidate, verdict
	}
}

// enrich issues a merchant/category-only call. Enrichment failures degrade
// to the rule-only candidate.
func (r *Router) enrich(ctx context.Context, msg domain.RawMessage, candidate domain.ExtractionCandidate, log zerolog.Logger) domain.ExtractionCandidate {
	candidate.Source = domain.SourceRule
	candidate.Confident = true
	if candidate.Merchant == "" {
		candidate.Merchant = "UNKNOWN"
	}
	if !r.ai.Enabled() {
		return candidate
	}

	enriched, err := r.ai.EnrichMerchant(ctx, r.outbound(msg), candidate.Amount)
	if err != nil {
		log.Warn().Err(err).Str("message_id", msg.ID).Msg("merchant enrichment failed, keeping rule result")
		return candidate
	}
	if m := strings.TrimSpace(enriched.Merchant); m != "" {
		candidate.Merchant = m
	}
	if c := strings.TrimSpace(enriched.Category); c != "" {
		candidate.Category = c
	}
	if s := strings.TrimSpace(enriched.Subcategory); s != "" {
		candidate.Subcategory = s
	}
	candidate.Source = domain.SourceRuleEnriched
	return candidate
}

// fullAI issues exactly one full extraction attempt. Every failure mode,
// including a disabled collaborator, yields the zero-amount fallback.
func (r *Router) fullAI(ctx context.Context, msg domain.RawMessage, log zerolog.Logger) domain.ExtractionCandidate {
	if !r.ai.Enabled() {
		return fallbackCandidate()
	}

	extracted, err := r.ai.ExtractTransaction(ctx, r.outbound(msg))
	if err != nil {
		log.Warn().Err(err).Str("message_id", msg.ID).Msg("full AI extraction failed, using fallback")
		return fallbackCandidate()
	}
	if extracted.NotATransaction {
		return fallbackCandidate()
	}
	if extracted.Amount == 0 {
		merchant := strings.TrimSpace(extracted.Merchant)
		if merchant == "" || strings.EqualFold(merchant, "UNKNOWN") || strings.EqualFold(merchant, "UNCATEGORIZED") {
			return fallbackCandidate()
		}
		// The model recognized the transaction but found no amount. Keep
		// its fields so the caller can account the skip separately from a
		// failed extraction.
		c := fallbackCandidate()
		c.Merchant = merchant
		if extracted.Category != "" {
			c.Category = extracted.Category
		}
		if extracted.Subcategory != "" {
			c.Subcategory = extracted.Subcategory
		}
		c.Source = domain.SourceAIFull
		return c
	}

	candidate := domain.ExtractionCandidate{
		Amount:      abs(extracted.Amount),
		Currency:    extracted.Currency,
		Merchant:    extracted.Merchant,
		Category:    extracted.Category,
		Subcategory: extracted.Subcategory,
		AccountKind: accountKindOf(extracted.AccountKind),
		Direction:   directionOf(extracted.Direction),
		Source:      domain.SourceAIFull,
		Confident:   true,
	}
	return candidate
}

// outbound prepares the sanitized, truncated text sent across the
// collaborator boundary. The message itself is never modified.
func (r *Router) outbound(msg domain.RawMessage) string {
	text := msg.Body
	if text == "" {
		text = msg.Snippet
	}
	return sanitize.Truncate(r.sanitizer.Sanitize(msg.Subject+"\n"+text), r.maxChars)
}

func candidateFromFields(f extract.Fields) domain.ExtractionCandidate {
	merchant := f.Merchant
	if merchant == "" {
		merchant = "UNKNOWN"
	}
	return domain.ExtractionCandidate{
		Amount:      f.Amount,
		Currency:    "INR",
		Merchant:    merchant,
		Category:    f.Category,
		Subcategory: f.Subcategory,
		AccountKind: f.AccountKind,
		Direction:   f.Direction,
		Date:        f.Date,
	}
}

// fallbackCandidate is the zero-amount sentinel: callers must treat a zero
// amount as "skip, do not persist".
func fallbackCandidate() domain.ExtractionCandidate {
	return domain.ExtractionCandidate{
		Amount:      0,
		Currency:    "INR",
		Merchant:    "UNKNOWN",
		Category:    "Uncategorized",
		Subcategory: "Uncategorized",
		AccountKind: domain.AccountSavings,
		Direction:   domain.DirectionDebit,
		Source:      domain.SourceFallback,
	}
}

func accountKindOf(s string) domain.AccountKind {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(domain.AccountCreditCard):
		return domain.AccountCreditCard
	case string(domain.AccountCash):
		return domain.AccountCash
	default:
		return domain.AccountSavings
	}
}

func directionOf(s string) domain.Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(domain.DirectionCredit)) {
		return domain.DirectionCredit
	}
	return domain.DirectionDebit
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
