package store

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/gripfin/grip/internal/domain"
)

type transactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED
	Fingerprint   string `bigquery:"fingerprint"`    // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	Amount          float64    `bigquery:"amount"`           // REQUIRED, signed
	Currency        string     `bigquery:"currency"`         // REQUIRED

	Merchant    string              `bigquery:"merchant_name"` // REQUIRED
	Category    bigquery.NullString `bigquery:"category"`
	Subcategory bigquery.NullString `bigquery:"sub_category"`
	AccountKind bigquery.NullString `bigquery:"account_type"`

	IsSurety bool                `bigquery:"is_surety"`
	Remarks  bigquery.NullString `bigquery:"remarks"`

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

func transactionToRow(t domain.Transaction) *transactionRow {
	return &transactionRow{
		TransactionID:   t.ID,
		UserID:          t.UserID,
		Fingerprint:     t.Fingerprint,
		TransactionDate: civil.DateOf(t.Date),
		Amount:          t.Amount,
		Currency:        t.Currency,
		Merchant:        t.Merchant,
		Category:        nullString(t.Category),
		Subcategory:     nullString(t.Subcategory),
		AccountKind:     nullString(string(t.AccountKind)),
		IsSurety:        t.IsSurety,
		Remarks:         nullString(t.Remarks),
		CreatedTS:       time.Now().UTC(),
	}
}

func (r *transactionRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:          r.TransactionID,
		UserID:      r.UserID,
		Fingerprint: r.Fingerprint,
		Date:        r.TransactionDate.In(time.UTC),
		Amount:      r.Amount,
		Currency:    r.Currency,
		Merchant:    r.Merchant,
		Category:    r.Category.StringVal,
		Subcategory: r.Subcategory.StringVal,
		AccountKind: domain.AccountKind(r.AccountKind.StringVal),
		IsSurety:    r.IsSurety,
		Remarks:     r.Remarks.StringVal,
	}
}

type obligationRow struct {
	BillID string `bigquery:"bill_id"` // REQUIRED
	UserID string `bigquery:"user_id"` // REQUIRED

	Title   string     `bigquery:"title"`    // REQUIRED
	Amount  float64    `bigquery:"amount"`   // REQUIRED
	DueDate civil.Date `bigquery:"due_date"` // REQUIRED

	IsPaid        bool               `bigquery:"is_paid"`
	IsRecurring   bool               `bigquery:"is_recurring"`
	RecurrenceDay bigquery.NullInt64 `bigquery:"recurrence_day"`

	Category    bigquery.NullString `bigquery:"category"`
	Subcategory bigquery.NullString `bigquery:"sub_category"`

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

func obligationToRow(ob domain.Obligation) *obligationRow {
	r := &obligationRow{
		BillID:      ob.ID,
		UserID:      ob.UserID,
		Title:       ob.Title,
		Amount:      ob.Amount,
		DueDate:     civil.DateOf(ob.DueDate),
		IsPaid:      ob.IsPaid,
		IsRecurring: ob.IsRecurring,
		Category:    nullString(ob.Category),
		Subcategory: nullString(ob.Subcategory),
		CreatedTS:   time.Now().UTC(),
	}
	if ob.RecurrenceDay > 0 {
		r.RecurrenceDay = bigquery.NullInt64{Int64: int64(ob.RecurrenceDay), Valid: true}
	}
	return r
}

func (r *obligationRow) toDomain() domain.Obligation {
	return domain.Obligation{
		ID:            r.BillID,
		UserID:        r.UserID,
		Title:         r.Title,
		Amount:        r.Amount,
		DueDate:       r.DueDate.In(time.UTC),
		IsPaid:        r.IsPaid,
		IsRecurring:   r.IsRecurring,
		RecurrenceDay: int(r.RecurrenceDay.Int64),
		Category:      r.Category.StringVal,
		Subcategory:   r.Subcategory.StringVal,
	}
}

type exclusionRow struct {
	ExclusionID string `bigquery:"exclusion_id"` // REQUIRED
	UserID      string `bigquery:"user_id"`      // REQUIRED

	SourceTransactionID bigquery.NullString `bigquery:"source_transaction_id"`
	MerchantPattern     bigquery.NullString `bigquery:"merchant_pattern"`
	SubcategoryPattern  bigquery.NullString `bigquery:"sub_category_pattern"`
	Scope               string              `bigquery:"scope"` // REQUIRED

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

func exclusionToRow(userID string, ex domain.ExclusionRule) *exclusionRow {
	return &exclusionRow{
		ExclusionID:         ex.ID,
		UserID:              userID,
		SourceTransactionID: nullString(ex.SourceTransactionID),
		MerchantPattern:     nullString(ex.MerchantPattern),
		SubcategoryPattern:  nullString(ex.SubcategoryPattern),
		Scope:               string(ex.Scope),
		CreatedTS:           time.Now().UTC(),
	}
}

func (r *exclusionRow) toDomain() domain.ExclusionRule {
	return domain.ExclusionRule{
		ID:                  r.ExclusionID,
		SourceTransactionID: r.SourceTransactionID.StringVal,
		MerchantPattern:     r.MerchantPattern.StringVal,
		SubcategoryPattern:  r.SubcategoryPattern.StringVal,
		Scope:               domain.ExclusionScope(r.Scope),
	}
}

type syncRunRow struct {
	RunID   string `bigquery:"run_id"`  // REQUIRED
	UserID  string `bigquery:"user_id"` // REQUIRED
	Trigger string `bigquery:"trigger"` // manual | scheduled

	StartTS time.Time              `bigquery:"start_ts"` // REQUIRED
	EndTS   bigquery.NullTimestamp `bigquery:"end_ts"`

	Status           string              `bigquery:"status"` // RUNNING | SUCCESS | FAILED | DISCONNECTED
	RecordsProcessed bigquery.NullInt64  `bigquery:"records_processed"`
	Error            bigquery.NullString `bigquery:"error"`
	Summary          bigquery.NullString `bigquery:"summary"` // JSON counters blob
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}
