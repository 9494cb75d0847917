package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// Sync run terminal statuses.
const (
	RunStatusRunning      = "RUNNING"
	RunStatusSuccess      = "SUCCESS"
	RunStatusFailed       = "FAILED"
	RunStatusDisconnected = "DISCONNECTED"
)

// SyncRunRepo records the audit trail of ingestion runs. The most recent
// successful run that actually processed records anchors the next run's
// fetch window.
type SyncRunRepo struct {
	c *Client
}

func NewSyncRunRepo(c *Client) *SyncRunRepo {
	return &SyncRunRepo{c: c}
}

// StartRun inserts a RUNNING row for the given run.
func (r *SyncRunRepo) StartRun(ctx context.Context, runID, userID, trigger string, start time.Time) error {
	row := &syncRunRow{
		RunID:   runID,
		UserID:  userID,
		Trigger: trigger,
		StartTS: start.UTC(),
		Status:  RunStatusRunning,
	}
	inserter := r.c.table(syncRunsTable).Inserter()
	if err := inserter.Put(ctx, []*syncRunRow{row}); err != nil {
		return fmt.Errorf("StartRun: inserting run: %w", err)
	}
	return nil
}

// FinishRun closes out a run with its terminal status, record count, and
// a JSON counters summary. errMsg is empty on success.
func (r *SyncRunRepo) FinishRun(ctx context.Context, runID, status string, recordsProcessed int, errMsg, summary string) error {
	q := r.c.bq.Query(fmt.Sprintf(`
		UPDATE %s
		SET end_ts = CURRENT_TIMESTAMP(),
		    status = @status,
		    records_processed = @records_processed,
		    error = @error,
		    summary = @summary
		WHERE run_id = @run_id
	`, r.c.ref(syncRunsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: status},
		{Name: "records_processed", Value: int64(recordsProcessed)},
		{Name: "error", Value: nullString(errMsg)},
		{Name: "summary", Value: nullString(summary)},
		{Name: "run_id", Value: runID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("FinishRun: running update: %w", err)
	}
	status2, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("FinishRun: waiting for update: %w", err)
	}
	if status2.Err() != nil {
		return fmt.Errorf("FinishRun: update job: %w", status2.Err())
	}
	return nil
}

// LastAdvancingStart returns the start timestamp of the most recent
// successful run that processed at least one record. The zero time means
// no such run exists yet.
func (r *SyncRunRepo) LastAdvancingStart(ctx context.Context, userID string) (time.Time, error) {
	q := r.c.bq.Query(fmt.Sprintf(`
		SELECT start_ts
		FROM %s
		WHERE user_id = @user_id
		  AND status = @status
		  AND records_processed > 0
		ORDER BY start_ts DESC
		LIMIT 1
	`, r.c.ref(syncRunsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "status", Value: RunStatusSuccess},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("LastAdvancingStart: query read: %w", err)
	}
	var row struct {
		StartTS time.Time `bigquery:"start_ts"`
	}
	if err := it.Next(&row); err == iterator.Done {
		return time.Time{}, nil
	} else if err != nil {
		return time.Time{}, fmt.Errorf("LastAdvancingStart: iter next: %w", err)
	}
	return row.StartTS, nil
}
