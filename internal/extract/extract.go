// Package extract pulls transaction fields out of notification text using
// ordered pattern cascades: for every field the patterns run from most to
// least specific and the first match wins.
package extract

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gripfin/grip/internal/domain"
)

// ErrNoAmount signals that no amount pattern matched at all; the caller is
// expected to escalate to the AI collaborator. It is distinct from a
// legitimate zero amount, which the patterns cannot produce.
var ErrNoAmount = errors.New("extract: no amount pattern matched")

// Fields is the raw rule-engine output for one message. Merchant is empty
// when no structural pattern produced a plausible name.
type Fields struct {
	Amount          float64
	AmountConfident bool
	Merchant        string
	Direction       domain.Direction
	AccountKind     domain.AccountKind
	Category        string
	Subcategory     string
	Date            *time.Time
}

// Config carries the pattern cascades and category tables. All slices are
// ordered; order is semantic.
type Config struct {
	AmountPatterns     []*regexp.Regexp
	MerchantPatterns   []*regexp.Regexp
	MerchantReject     *regexp.Regexp
	MerchantCategories []categoryEntry
	KeywordCategories  []categoryEntry
}

// DefaultConfig returns the stock cascades for Indian bank alert formats.
func DefaultConfig() Config {
	return Config{
		AmountPatterns:     defaultAmountPatterns,
		MerchantPatterns:   defaultMerchantPatterns,
		MerchantReject:     merchantRejectPattern,
		MerchantCategories: defaultMerchantCategories,
		KeywordCategories:  defaultKeywordCategories,
	}
}

// Extractor runs the cascades. Immutable after construction, safe for
// concurrent use.
type Extractor struct {
	cfg Config
}

func New(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract runs every cascade over the message. The subject participates in
// amount/merchant extraction because many banks put the figures there; dates
// are only read from the body to avoid send-date noise.
func (e *Extractor) Extract(subject, body string) (Fields, error) {
	fullText := "Subject: " + subject + "\n" + body

	amount, confident, ok := e.extractAmount(fullText)
	if !ok {
		return Fields{}, ErrNoAmount
	}

	f := Fields{
		Amount:          amount,
		AmountConfident: confident,
		Merchant:        e.extractMerchant(fullText),
		Direction:       e.detectDirection(fullText),
		AccountKind:     e.detectAccountKind(fullText),
		Date:            e.extractDate(body),
	}
	f.Category, f.Subcategory = e.Categorize(f.Merchant, fullText)
	return f, nil
}

// extractAmount walks the amount cascade. The match is confident unless it
// came from the trailing bare currency-number pattern.
func (e *Extractor) extractAmount(text string) (amount float64, confident, ok bool) {
	for i, p := range e.cfg.AmountPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := strings.ReplaceAll(m[1], ",", "")
		v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "."), 64)
		if err != nil || v <= 0 {
			continue
		}
		return v, i < len(e.cfg.AmountPatterns)-1, true
	}
	return 0, false, false
}

// extractMerchant walks the merchant cascade, rejecting candidates that are
// bank-name artifacts or implausibly short.
func (e *Extractor) extractMerchant(text string) string {
	for _, p := range e.cfg.MerchantPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		merchant := strings.TrimSpace(whitespacePattern.ReplaceAllString(m[1], " "))
		if len(merchant) < 2 {
			continue
		}
		if e.cfg.MerchantReject.MatchString(merchant) {
			continue
		}
		return titleCase(merchant)
	}
	return ""
}

func (e *Extractor) extractDate(body string) *time.Time {
	for _, dp := range defaultDatePatterns {
		m := dp.re.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		for _, layout := range dp.layouts {
			if t, err := time.Parse(layout, m[1]); err == nil {
				return &t
			}
		}
	}
	return nil
}

// detectDirection defaults to debit: the overwhelming majority of bank
// alerts are debits, and credit wording is explicit when present.
func (e *Extractor) detectDirection(text string) domain.Direction {
	if creditPattern.MatchString(text) {
		return domain.DirectionCredit
	}
	return domain.DirectionDebit
}

func (e *Extractor) detectAccountKind(text string) domain.AccountKind {
	if creditCardPattern.MatchString(text) {
		return domain.AccountCreditCard
	}
	return domain.AccountSavings
}

// Categorize resolves (category, subcategory) for a merchant: curated
// merchant table first, then keyword table against the merchant name, then
// keyword table against the whole message.
func (e *Extractor) Categorize(merchant, fullText string) (string, string) {
	merchantLower := strings.ToLower(merchant)

	for _, entry := range e.cfg.MerchantCategories {
		if strings.Contains(merchantLower, entry.Token) {
			return entry.Category, entry.Subcategory
		}
	}
	for _, entry := range e.cfg.KeywordCategories {
		if strings.Contains(merchantLower, entry.Token) {
			return entry.Category, entry.Subcategory
		}
	}
	textLower := strings.ToLower(fullText)
	for _, entry := range e.cfg.KeywordCategories {
		if strings.Contains(textLower, entry.Token) {
			return entry.Category, entry.Subcategory
		}
	}
	return "Uncategorized", "Uncategorized"
}

func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	startOfWord := true
	for _, r := range strings.ToLower(s) {
		if startOfWord && unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
			startOfWord = false
		} else {
			b.WriteRune(r)
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' {
				startOfWord = true
			}
		}
	}
	return b.String()
}
