package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gripfin/grip/internal/domain"
	"github.com/gripfin/grip/internal/logger"
)

// ObligationStore is the write-side persistence contract for declared bills.
type ObligationStore interface {
	CreateObligation(ctx context.Context, ob domain.Obligation) error
	GetObligation(ctx context.Context, userID, id string) (domain.Obligation, error)
	UpdateObligation(ctx context.Context, ob domain.Obligation) error
}

// Service manages declared obligations.
type Service struct {
	store ObligationStore
	now   func() time.Time
}

func NewService(store ObligationStore) *Service {
	return &Service{store: store, now: time.Now}
}

func NewServiceAt(store ObligationStore, now func() time.Time) *Service {
	return &Service{store: store, now: now}
}

// CreateInput carries the caller-supplied fields of a new obligation.
type CreateInput struct {
	Title         string
	Amount        float64
	DueDate       time.Time
	IsRecurring   bool
	RecurrenceDay int
	Category      string
	Subcategory   string
}

// Create registers a new obligation. A recurring bill without an explicit
// recurrence day defaults to the day-of-month of its due date.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (domain.Obligation, error) {
	if in.Title == "" {
		return domain.Obligation{}, fmt.Errorf("Create: title is required")
	}
	ob := domain.Obligation{
		ID:            uuid.NewString(),
		UserID:        userID,
		Title:         in.Title,
		Amount:        in.Amount,
		DueDate:       midnight(in.DueDate),
		IsRecurring:   in.IsRecurring,
		RecurrenceDay: in.RecurrenceDay,
		Category:      in.Category,
		Subcategory:   in.Subcategory,
	}
	if ob.IsRecurring && ob.RecurrenceDay == 0 {
		ob.RecurrenceDay = ob.DueDate.Day()
	}
	if err := s.store.CreateObligation(ctx, ob); err != nil {
		return domain.Obligation{}, fmt.Errorf("Create: saving obligation: %w", err)
	}
	return ob, nil
}

// UpdateInput holds optional field updates; nil pointers leave the stored
// value untouched.
type UpdateInput struct {
	Title         *string
	Amount        *float64
	DueDate       *time.Time
	IsRecurring   *bool
	RecurrenceDay *int
	Category      *string
	Subcategory   *string
}

func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (domain.Obligation, error) {
	ob, err := s.store.GetObligation(ctx, userID, id)
	if err != nil {
		return domain.Obligation{}, fmt.Errorf("Update: loading obligation: %w", err)
	}
	if in.Title != nil {
		ob.Title = *in.Title
	}
	if in.Amount != nil {
		ob.Amount = *in.Amount
	}
	if in.DueDate != nil {
		ob.DueDate = midnight(*in.DueDate)
	}
	if in.IsRecurring != nil {
		ob.IsRecurring = *in.IsRecurring
	}
	if in.RecurrenceDay != nil {
		ob.RecurrenceDay = *in.RecurrenceDay
	}
	if in.Category != nil {
		ob.Category = *in.Category
	}
	if in.Subcategory != nil {
		ob.Subcategory = *in.Subcategory
	}
	if ob.IsRecurring && ob.RecurrenceDay == 0 {
		ob.RecurrenceDay = ob.DueDate.Day()
	}
	if err := s.store.UpdateObligation(ctx, ob); err != nil {
		return domain.Obligation{}, fmt.Errorf("Update: saving obligation: %w", err)
	}
	return ob, nil
}

// MarkPaid settles the current instance of an obligation. One-time bills
// simply flip to paid. Recurring bills roll forward: the due date advances
// to the next occurrence after today, and if that lands on or before the
// current due date (paid early in the cycle) it is pushed one cycle past
// the due date instead. The paid flag resets so the next instance shows up
// as pending.
func (s *Service) MarkPaid(ctx context.Context, userID, id string) (domain.Obligation, error) {
	log := logger.FromContext(ctx)
	ob, err := s.store.GetObligation(ctx, userID, id)
	if err != nil {
		return domain.Obligation{}, fmt.Errorf("MarkPaid: loading obligation: %w", err)
	}

	if !ob.IsRecurring {
		ob.IsPaid = true
	} else {
		rday := recurrenceDayOf(ob)
		next := NextOccurrence(rday, midnight(s.now()))
		if !next.After(midnight(ob.DueDate)) {
			// Paid early in the cycle: advance to the first occurrence
			// strictly after the current due date.
			next = NextOccurrence(rday, midnight(ob.DueDate).AddDate(0, 0, 1))
		}
		ob.DueDate = next
		ob.IsPaid = false
	}

	if err := s.store.UpdateObligation(ctx, ob); err != nil {
		return domain.Obligation{}, fmt.Errorf("MarkPaid: saving obligation: %w", err)
	}
	log.Info().
		Str("obligation_id", ob.ID).
		Bool("recurring", ob.IsRecurring).
		Time("due_date", ob.DueDate).
		Msg("obligation marked paid")
	return ob, nil
}
