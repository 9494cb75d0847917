package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/gripfin/grip/internal/domain"
)

// MerchantMappingRepo reads user-declared category overrides.
type MerchantMappingRepo struct {
	c *Client
}

func NewMerchantMappingRepo(c *Client) *MerchantMappingRepo {
	return &MerchantMappingRepo{c: c}
}

// GetMapping looks up a category override for the merchant, matched
// case-insensitively. ok is false when no override exists.
func (r *MerchantMappingRepo) GetMapping(ctx context.Context, userID, merchant string) (domain.MerchantMapping, bool, error) {
	q := r.c.bq.Query(fmt.Sprintf(`
		SELECT merchant_name, category, sub_category
		FROM %s
		WHERE user_id = @user_id
		  AND LOWER(merchant_name) = LOWER(@merchant_name)
		LIMIT 1
	`, r.c.ref(merchantMappingsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "merchant_name", Value: merchant},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return domain.MerchantMapping{}, false, fmt.Errorf("GetMapping: query read: %w", err)
	}
	var row struct {
		Merchant    string              `bigquery:"merchant_name"`
		Category    bigquery.NullString `bigquery:"category"`
		Subcategory bigquery.NullString `bigquery:"sub_category"`
	}
	if err := it.Next(&row); err == iterator.Done {
		return domain.MerchantMapping{}, false, nil
	} else if err != nil {
		return domain.MerchantMapping{}, false, fmt.Errorf("GetMapping: iter next: %w", err)
	}
	return domain.MerchantMapping{
		Merchant:    row.Merchant,
		Category:    row.Category.StringVal,
		Subcategory: row.Subcategory.StringVal,
	}, true, nil
}

// SubcategoryRepo reads subcategory metadata.
type SubcategoryRepo struct {
	c *Client
}

func NewSubcategoryRepo(c *Client) *SubcategoryRepo {
	return &SubcategoryRepo{c: c}
}

// IsSurety reports whether the subcategory marks its transactions as
// recurring-payment indicators.
func (r *SubcategoryRepo) IsSurety(ctx context.Context, subcategory string) (bool, error) {
	if subcategory == "" {
		return false, nil
	}
	q := r.c.bq.Query(fmt.Sprintf(`
		SELECT is_surety
		FROM %s
		WHERE LOWER(name) = LOWER(@name)
		LIMIT 1
	`, r.c.ref(subcategoriesTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "name", Value: subcategory},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("IsSurety: query read: %w", err)
	}
	var row struct {
		IsSurety bool `bigquery:"is_surety"`
	}
	if err := it.Next(&row); err == iterator.Done {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("IsSurety: iter next: %w", err)
	}
	return row.IsSurety, nil
}
