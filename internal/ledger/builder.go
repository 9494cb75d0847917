package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gripfin/grip/internal/domain"
	"github.com/gripfin/grip/internal/logger"
)

// Store is the read-side persistence contract the builder needs. The five
// queries are independent of one another and are dispatched concurrently.
type Store interface {
	ListUnpaidObligations(ctx context.Context, userID string) ([]domain.Obligation, error)
	ListRecurringObligations(ctx context.Context, userID string) ([]domain.Obligation, error)
	ListExclusions(ctx context.Context, userID string) ([]domain.ExclusionRule, error)
	// QuerySuretyCandidates returns transactions flagged surety-eligible
	// (explicit flag or surety-marked subcategory) within [from, to).
	QuerySuretyCandidates(ctx context.Context, userID string, from, to time.Time) ([]domain.Transaction, error)
}

// Builder assembles the obligation ledger on demand.
type Builder struct {
	store Store
	now   func() time.Time
}

func NewBuilder(store Store) *Builder {
	return &Builder{store: store, now: time.Now}
}

// NewBuilderAt injects a clock, for tests and deterministic replays.
func NewBuilderAt(store Store, now func() time.Time) *Builder {
	return &Builder{store: store, now: now}
}

// Build produces the full obligation ledger for a user: unpaid declared
// bills, projected next instances of recurring bills, and surety rows
// inferred from the previous period's transactions. includeHidden surfaces
// rows that are normally suppressed (paid, skipped, terminated, covered);
// hidden rows never contribute to totals either way.
func (b *Builder) Build(ctx context.Context, userID string, lookaheadDays int, includeHidden bool) (*domain.Ledger, error) {
	log := logger.FromContext(ctx)
	today := midnight(b.now())
	horizon := today.AddDate(0, 0, lookaheadDays)

	prevStart, prevEnd := monthBounds(today.AddDate(0, -1, 0))
	curStart, curEnd := monthBounds(today)

	var (
		unpaid     []domain.Obligation
		recurring  []domain.Obligation
		exclusions []domain.ExclusionRule
		prevTxns   []domain.Transaction
		curTxns    []domain.Transaction
	)

	// None of these reads depends on another's result; fan out and join.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		unpaid, err = b.store.ListUnpaidObligations(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		recurring, err = b.store.ListRecurringObligations(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		exclusions, err = b.store.ListExclusions(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		prevTxns, err = b.store.QuerySuretyCandidates(gctx, userID, prevStart, prevEnd)
		return err
	})
	g.Go(func() (err error) {
		curTxns, err = b.store.QuerySuretyCandidates(gctx, userID, curStart, curEnd)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("Build: loading ledger inputs: %w", err)
	}

	ledger := &domain.Ledger{}
	covered := make(map[string]bool)

	// 1. Unpaid declared bills, one-time or recurring.
	for _, ob := range unpaid {
		status := domain.StatusPending
		if ob.DueDate.Before(today) {
			status = domain.StatusOverdue
		}
		ledger.Items = append(ledger.Items, billItem(ob.ID, ob.Title, ob, ob.DueDate, status))
		ledger.UnpaidTotal += math.Abs(ob.Amount)
		if ob.IsRecurring {
			covered[signatureOf(ob.Subcategory, ob.Amount)] = true
		}
	}

	// 2. Projected next instances of recurring bills inside the horizon.
	for _, ob := range recurring {
		next := NextOccurrence(recurrenceDayOf(ob), today)
		if next.Before(today) || next.After(horizon) {
			continue
		}
		// The current unpaid instance is already listed above; only a
		// genuinely future instance is a projection.
		if !next.After(midnight(ob.DueDate)) && !ob.IsPaid {
			continue
		}
		ledger.Items = append(ledger.Items,
			billItem("proj-"+ob.ID, ob.Title+" (Projected)", ob, next, domain.StatusProjected))
		ledger.ProjectedTotal += math.Abs(ob.Amount)
		covered[signatureOf(ob.Subcategory, ob.Amount)] = true
	}

	// 3. Inferred recurring payments from transaction history.
	matched := matchSureties(matchInput{
		today:             today,
		horizon:           horizon,
		previous:          prevTxns,
		current:           curTxns,
		coveredSignatures: covered,
		exclusions:        exclusions,
		includeHidden:     includeHidden,
	})
	ledger.Items = append(ledger.Items, matched.items...)
	ledger.UnpaidTotal += matched.unpaidTotal
	ledger.ProjectedTotal += matched.projectedTotal

	log.Debug().
		Str("user_id", userID).
		Int("items", len(ledger.Items)).
		Float64("unpaid_total", ledger.UnpaidTotal).
		Float64("projected_total", ledger.ProjectedTotal).
		Msg("obligation ledger assembled")

	return ledger, nil
}

func billItem(id, title string, ob domain.Obligation, due time.Time, status domain.LedgerStatus) domain.LedgerItem {
	return domain.LedgerItem{
		ID:          id,
		Title:       title,
		Amount:      math.Abs(ob.Amount),
		DueDate:     due,
		Type:        domain.LedgerBill,
		Status:      status,
		Category:    ob.Category,
		Subcategory: ob.Subcategory,
	}
}

func recurrenceDayOf(ob domain.Obligation) int {
	if ob.RecurrenceDay > 0 {
		return ob.RecurrenceDay
	}
	return ob.DueDate.Day()
}

// monthBounds returns [first day of t's month, first day of next month).
func monthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}
