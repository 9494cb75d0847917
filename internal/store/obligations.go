package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/gripfin/grip/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// ObligationRepo persists declared bills.
type ObligationRepo struct {
	c *Client
}

func NewObligationRepo(c *Client) *ObligationRepo {
	return &ObligationRepo{c: c}
}

func (r *ObligationRepo) CreateObligation(ctx context.Context, ob domain.Obligation) error {
	inserter := r.c.table(obligationsTable).Inserter()
	if err := inserter.Put(ctx, []*obligationRow{obligationToRow(ob)}); err != nil {
		return fmt.Errorf("CreateObligation: inserting bill: %w", err)
	}
	return nil
}

func (r *ObligationRepo) GetObligation(ctx context.Context, userID, id string) (domain.Obligation, error) {
	q := r.c.bq.Query(fmt.Sprintf(`
		SELECT
			bill_id, user_id, title, amount, due_date,
			is_paid, is_recurring, recurrence_day, category, sub_category, created_ts
		FROM %s
		WHERE user_id = @user_id
		  AND bill_id = @bill_id
		LIMIT 1
	`, r.c.ref(obligationsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "bill_id", Value: id},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return domain.Obligation{}, fmt.Errorf("GetObligation: query read: %w", err)
	}
	var row obligationRow
	if err := it.Next(&row); err == iterator.Done {
		return domain.Obligation{}, fmt.Errorf("GetObligation: bill %s: %w", id, ErrNotFound)
	} else if err != nil {
		return domain.Obligation{}, fmt.Errorf("GetObligation: iter next: %w", err)
	}
	return row.toDomain(), nil
}

func (r *ObligationRepo) ListObligations(ctx context.Context, userID string) ([]domain.Obligation, error) {
	return r.list(ctx, userID, "ListObligations", "")
}

// ListUnpaidObligations returns bills whose current instance is unsettled.
func (r *ObligationRepo) ListUnpaidObligations(ctx context.Context, userID string) ([]domain.Obligation, error) {
	return r.list(ctx, userID, "ListUnpaidObligations", "AND NOT is_paid")
}

func (r *ObligationRepo) ListRecurringObligations(ctx context.Context, userID string) ([]domain.Obligation, error) {
	return r.list(ctx, userID, "ListRecurringObligations", "AND is_recurring")
}

func (r *ObligationRepo) list(ctx context.Context, userID, op, filter string) ([]domain.Obligation, error) {
	q := r.c.bq.Query(fmt.Sprintf(`
		SELECT
			bill_id, user_id, title, amount, due_date,
			is_paid, is_recurring, recurrence_day, category, sub_category, created_ts
		FROM %s
		WHERE user_id = @user_id
		%s
		ORDER BY due_date
	`, r.c.ref(obligationsTable), filter))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: query read: %w", op, err)
	}
	var obs []domain.Obligation
	for {
		var row obligationRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iter next: %w", op, err)
		}
		obs = append(obs, row.toDomain())
	}
	return obs, nil
}

// UpdateObligation rewrites the mutable fields of an existing bill.
func (r *ObligationRepo) UpdateObligation(ctx context.Context, ob domain.Obligation) error {
	q := r.c.bq.Query(fmt.Sprintf(`
		UPDATE %s
		SET title = @title,
		    amount = @amount,
		    due_date = @due_date,
		    is_paid = @is_paid,
		    is_recurring = @is_recurring,
		    recurrence_day = @recurrence_day,
		    category = @category,
		    sub_category = @sub_category
		WHERE user_id = @user_id
		  AND bill_id = @bill_id
	`, r.c.ref(obligationsTable)))
	var rday bigquery.NullInt64
	if ob.RecurrenceDay > 0 {
		rday = bigquery.NullInt64{Int64: int64(ob.RecurrenceDay), Valid: true}
	}
	q.Parameters = []bigquery.QueryParameter{
		{Name: "title", Value: ob.Title},
		{Name: "amount", Value: ob.Amount},
		{Name: "due_date", Value: civil.DateOf(ob.DueDate)},
		{Name: "is_paid", Value: ob.IsPaid},
		{Name: "is_recurring", Value: ob.IsRecurring},
		{Name: "recurrence_day", Value: rday},
		{Name: "category", Value: nullString(ob.Category)},
		{Name: "sub_category", Value: nullString(ob.Subcategory)},
		{Name: "user_id", Value: ob.UserID},
		{Name: "bill_id", Value: ob.ID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("UpdateObligation: running update: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("UpdateObligation: waiting for update: %w", err)
	}
	if status.Err() != nil {
		return fmt.Errorf("UpdateObligation: update job: %w", status.Err())
	}
	return nil
}
