package domain

import (
	"fmt"
	"strings"
	"time"
)

// Direction is the flow of money in a transaction.
type Direction string

const (
	DirectionDebit  Direction = "DEBIT"
	DirectionCredit Direction = "CREDIT"
)

// AccountKind is the kind of account a notification refers to.
type AccountKind string

const (
	AccountSavings    AccountKind = "SAVINGS"
	AccountCreditCard AccountKind = "CREDIT_CARD"
	AccountCash       AccountKind = "CASH"
)

// CandidateSource records which path produced an extraction candidate.
type CandidateSource string

const (
	SourceRule         CandidateSource = "RULE"
	SourceRuleEnriched CandidateSource = "RULE_ENRICHED"
	SourceAIFull       CandidateSource = "AI_FULL"
	SourceFallback     CandidateSource = "FALLBACK"
)

// RawMessage is a notification message as delivered by the mail collaborator.
// It is transient: it either yields a Transaction or is discarded.
type RawMessage struct {
	ID        string
	Delivered time.Time
	Sender    string
	Subject   string
	Body      string
	Snippet   string
}

// Text returns the content used for field extraction; the subject often
// carries the amount when the body is a stub.
func (m RawMessage) Text() string {
	return "Subject: " + m.Subject + "\n" + m.Body
}

// ExtractionCandidate is the normalized result of running one message
// through the classifier, extractor and confidence router. Amount is an
// unsigned magnitude; the orchestrator decides the sign. A zero Amount
// means "do not persist".
type ExtractionCandidate struct {
	Amount      float64
	Currency    string
	Merchant    string
	Category    string
	Subcategory string
	AccountKind AccountKind
	Direction   Direction
	Date        *time.Time
	Source      CandidateSource
	Confident   bool
}

// Transaction is a persisted, immutable transaction record. Amount is
// signed: debits are negative unless the category is Income.
type Transaction struct {
	ID          string
	UserID      string
	Fingerprint string
	Date        time.Time
	Amount      float64
	Currency    string
	Merchant    string
	Category    string
	Subcategory string
	AccountKind AccountKind
	IsSurety    bool
	Remarks     string
}

// Obligation is a declared bill, one-time or recurring.
type Obligation struct {
	ID            string
	UserID        string
	Title         string
	Amount        float64
	DueDate       time.Time
	IsPaid        bool
	IsRecurring   bool
	RecurrenceDay int // 0 means unset; defaults to DueDate's day
	Category      string
	Subcategory   string
}

// ExclusionScope identifies how broadly an exclusion rule applies.
type ExclusionScope string

const (
	// ExclusionSkip hides one projection derived from one source transaction.
	ExclusionSkip ExclusionScope = "SKIP"
	// ExclusionManualPaid marks one source transaction's projection as settled outside the system.
	ExclusionManualPaid ExclusionScope = "MANUAL_PAID"
	// ExclusionPermanent suppresses every projection matching a merchant/subcategory pattern pair.
	ExclusionPermanent ExclusionScope = "PERMANENT"
)

// ParseExclusionScope validates a user-supplied scope string. An unknown
// scope is an error; a rule outside the enum would never match anything.
func ParseExclusionScope(s string) (ExclusionScope, error) {
	switch scope := ExclusionScope(strings.ToUpper(strings.TrimSpace(s))); scope {
	case ExclusionSkip, ExclusionManualPaid, ExclusionPermanent:
		return scope, nil
	default:
		return "", fmt.Errorf("ParseExclusionScope: unknown scope %q", s)
	}
}

// ExclusionRule is a user-created rule that suppresses auto-detected
// obligations. Rules never expire on their own.
type ExclusionRule struct {
	ID                  string
	UserID              string
	SourceTransactionID string
	MerchantPattern     string // PERMANENT only; empty or "*" matches all
	SubcategoryPattern  string // PERMANENT only; empty or "*" matches all
	Scope               ExclusionScope
}

// LedgerType distinguishes declared bills from inferred recurring payments.
type LedgerType string

const (
	LedgerBill      LedgerType = "BILL"
	LedgerSuretyTxn LedgerType = "SURETY_TXN"
)

// LedgerStatus is the computed state of one ledger row.
type LedgerStatus string

const (
	StatusOverdue    LedgerStatus = "OVERDUE"
	StatusPending    LedgerStatus = "PENDING"
	StatusProjected  LedgerStatus = "PROJECTED"
	StatusPaid       LedgerStatus = "PAID"
	StatusSkipped    LedgerStatus = "SKIPPED"
	StatusTerminated LedgerStatus = "TERMINATED"
	StatusCovered    LedgerStatus = "COVERED"
)

// LedgerItem is one derived obligation row. Items are never persisted; the
// ledger is rebuilt from obligations, exclusions and transactions on demand.
type LedgerItem struct {
	ID                  string
	Title               string
	Amount              float64
	DueDate             time.Time
	Type                LedgerType
	Status              LedgerStatus
	Category            string
	Subcategory         string
	SourceTransactionID string
}

// Ledger is the assembled obligation ledger. Totals are sums of magnitudes
// and therefore never negative.
type Ledger struct {
	UnpaidTotal    float64
	ProjectedTotal float64
	Items          []LedgerItem
}

// MerchantMapping is a user-declared category override keyed by merchant name.
type MerchantMapping struct {
	Merchant    string
	Category    string
	Subcategory string
}
