package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/gripfin/grip/internal/domain"
)

// TransactionRepo persists and queries ingested transactions.
type TransactionRepo struct {
	c *Client
}

func NewTransactionRepo(c *Client) *TransactionRepo {
	return &TransactionRepo{c: c}
}

// ExistsByFingerprint reports whether a transaction with the given
// fingerprint has already been recorded for the user.
func (r *TransactionRepo) ExistsByFingerprint(ctx context.Context, userID, fingerprint string) (bool, error) {
	q := r.c.bq.Query(fmt.Sprintf(`
		SELECT COUNT(*) AS n
		FROM %s
		WHERE user_id = @user_id
		  AND fingerprint = @fingerprint
	`, r.c.ref(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "fingerprint", Value: fingerprint},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("ExistsByFingerprint: query read: %w", err)
	}
	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil {
		return false, fmt.Errorf("ExistsByFingerprint: iter next: %w", err)
	}
	return row.N > 0, nil
}

// Create inserts a single transaction via the streaming inserter.
func (r *TransactionRepo) Create(ctx context.Context, t domain.Transaction) error {
	inserter := r.c.table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, []*transactionRow{transactionToRow(t)}); err != nil {
		return fmt.Errorf("Create: inserting transaction: %w", err)
	}
	return nil
}

// QueryByUserAndDateRange returns the user's transactions with dates in
// [from, to), newest first.
func (r *TransactionRepo) QueryByUserAndDateRange(ctx context.Context, userID string, from, to time.Time) ([]domain.Transaction, error) {
	q := r.c.bq.Query(fmt.Sprintf(`
		SELECT
			transaction_id, user_id, fingerprint, transaction_date,
			amount, currency, merchant_name, category, sub_category,
			account_type, is_surety, remarks, created_ts
		FROM %s
		WHERE user_id = @user_id
		  AND transaction_date >= @from_date
		  AND transaction_date < @to_date
		ORDER BY transaction_date DESC, created_ts DESC
	`, r.c.ref(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "from_date", Value: from.Format(dateFormat)},
		{Name: "to_date", Value: to.Format(dateFormat)},
	}
	return r.collect(ctx, q, "QueryByUserAndDateRange")
}

// QuerySuretyCandidates returns the user's debit transactions within
// [from, to) that are flagged as recurring-payment indicators, either on
// the transaction itself or through a surety-marked subcategory.
func (r *TransactionRepo) QuerySuretyCandidates(ctx context.Context, userID string, from, to time.Time) ([]domain.Transaction, error) {
	q := r.c.bq.Query(fmt.Sprintf(`
		SELECT
			t.transaction_id, t.user_id, t.fingerprint, t.transaction_date,
			t.amount, t.currency, t.merchant_name, t.category, t.sub_category,
			t.account_type, t.is_surety, t.remarks, t.created_ts
		FROM %s t
		LEFT JOIN %s s
		  ON LOWER(t.sub_category) = LOWER(s.name)
		WHERE t.user_id = @user_id
		  AND t.transaction_date >= @from_date
		  AND t.transaction_date < @to_date
		  AND t.amount < 0
		  AND (t.is_surety OR IFNULL(s.is_surety, FALSE))
		ORDER BY t.transaction_date
	`, r.c.ref(transactionsTable), r.c.ref(subcategoriesTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "from_date", Value: from.Format(dateFormat)},
		{Name: "to_date", Value: to.Format(dateFormat)},
	}
	return r.collect(ctx, q, "QuerySuretyCandidates")
}

func (r *TransactionRepo) collect(ctx context.Context, q *bigquery.Query, op string) ([]domain.Transaction, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: query read: %w", op, err)
	}
	var txns []domain.Transaction
	for {
		var row transactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iter next: %w", op, err)
		}
		txns = append(txns, row.toDomain())
	}
	return txns, nil
}
