package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/gripfin/grip/internal/domain"
)

// ExclusionRepo persists the rules that hide inferred recurring payments
// from the ledger.
type ExclusionRepo struct {
	c *Client
}

func NewExclusionRepo(c *Client) *ExclusionRepo {
	return &ExclusionRepo{c: c}
}

func (r *ExclusionRepo) CreateExclusion(ctx context.Context, userID string, ex domain.ExclusionRule) error {
	inserter := r.c.table(exclusionsTable).Inserter()
	if err := inserter.Put(ctx, []*exclusionRow{exclusionToRow(userID, ex)}); err != nil {
		return fmt.Errorf("CreateExclusion: inserting exclusion: %w", err)
	}
	return nil
}

func (r *ExclusionRepo) ListExclusions(ctx context.Context, userID string) ([]domain.ExclusionRule, error) {
	q := r.c.bq.Query(fmt.Sprintf(`
		SELECT
			exclusion_id, user_id, source_transaction_id,
			merchant_pattern, sub_category_pattern, scope, created_ts
		FROM %s
		WHERE user_id = @user_id
		ORDER BY created_ts
	`, r.c.ref(exclusionsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListExclusions: query read: %w", err)
	}
	var rules []domain.ExclusionRule
	for {
		var row exclusionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListExclusions: iter next: %w", err)
		}
		rules = append(rules, row.toDomain())
	}
	return rules, nil
}
