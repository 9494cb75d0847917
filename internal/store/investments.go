package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/gripfin/grip/internal/domain"
)

const investmentsTable = "investments"

// InvestmentRepo associates ingested transactions with investment holdings.
type InvestmentRepo struct {
	c *Client
}

func NewInvestmentRepo(c *Client) *InvestmentRepo {
	return &InvestmentRepo{c: c}
}

// Link attaches the transaction to a holding whose name matches the
// merchant, recording the latest contribution. Matching no holding is not
// an error.
func (r *InvestmentRepo) Link(ctx context.Context, t domain.Transaction) error {
	if t.Merchant == "" || t.Merchant == "UNKNOWN" {
		return nil
	}
	q := r.c.bq.Query(fmt.Sprintf(`
		UPDATE %s
		SET last_transaction_id = @transaction_id,
		    last_contribution_ts = CURRENT_TIMESTAMP()
		WHERE user_id = @user_id
		  AND CONTAINS_SUBSTR(LOWER(@merchant_name), LOWER(name))
	`, r.c.ref(investmentsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: t.ID},
		{Name: "user_id", Value: t.UserID},
		{Name: "merchant_name", Value: t.Merchant},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("Link: running update: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("Link: waiting for update: %w", err)
	}
	if status.Err() != nil {
		return fmt.Errorf("Link: update job: %w", status.Err())
	}
	return nil
}
