package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

const (
	transactionsTable     = "transactions"
	obligationsTable      = "bills"
	exclusionsTable       = "bill_exclusions"
	syncRunsTable         = "sync_runs"
	merchantMappingsTable = "merchant_mappings"
	subcategoriesTable    = "subcategories"

	dateFormat = "2006-01-02"
)

// Client wraps a BigQuery connection scoped to one dataset. All repositories
// share it.
type Client struct {
	bq      *bigquery.Client
	dataset string
}

func NewClient(ctx context.Context, projectID, dataset string) (*Client, error) {
	bq, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewClient: bigquery client: %w", err)
	}
	return &Client{bq: bq, dataset: dataset}, nil
}

// NewClientWith wraps an existing BigQuery client, for tests.
func NewClientWith(bq *bigquery.Client, dataset string) *Client {
	return &Client{bq: bq, dataset: dataset}
}

func (c *Client) Close() error {
	return c.bq.Close()
}

func (c *Client) table(name string) *bigquery.Table {
	return c.bq.Dataset(c.dataset).Table(name)
}

// ref renders a backtick-qualified table reference for query text.
func (c *Client) ref(name string) string {
	return fmt.Sprintf("`%s.%s`", c.dataset, name)
}
