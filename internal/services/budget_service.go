package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// BudgetService edits a category's budget history and resolves effective
// budgets. The period kind and start day are app-wide settings fixed at
// construction; changing them while versions exist is a configuration error
// the service does not attempt to repair.
type BudgetService struct {
	storage  *storage.SQLiteRepository
	kind     core.PeriodKind
	startDay int

	mu sync.Mutex
}

func NewBudgetService(storage *storage.SQLiteRepository, kind core.PeriodKind, startDay int) (*BudgetService, error) {
	if !kind.Valid() {
		return nil, core.ErrInvalidPeriodKind
	}
	return &BudgetService{
		storage:  storage,
		kind:     kind,
		startDay: startDay,
	}, nil
}

// SetCategoryBudget sets the budget for the period containing periodStart.
//
// Editing a past period must affect only that period: before the new amount
// is written, the pre-edit effective amount is frozen as a checkpoint version
// at the start of the following period, unless a version already sits there.
// A resolved "no budget" is checkpointed as an explicit zero-amount version,
// so giving a past period a budget cannot leak one into later periods.
// Exactly one checkpoint is written no matter how far in the past the edited
// period lies.
//
// The version for the edited period itself is an upsert: editing the same
// period twice updates in place and can never produce duplicate versions.
func (s *BudgetService) SetCategoryBudget(ctx context.Context, categoryID int64, periodStart time.Time, amount core.Money, now time.Time) error {
	if amount.Cents < 0 {
		return core.ErrInvalidAmount
	}

	period := core.PeriodRange(periodStart, s.kind, s.startDay)
	nextStart := core.NextPeriodStart(periodStart, s.kind, s.startDay)
	retroactive := core.IsPastPeriod(periodStart, s.kind, s.startDay, now)

	s.mu.Lock()
	defer s.mu.Unlock()

	var checkpointed bool
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		category, err := q.GetCategory(ctx, categoryID)
		if err != nil {
			return err
		}

		if retroactive {
			exists, err := q.HasBudgetVersionAt(ctx, categoryID, nextStart)
			if err != nil {
				return err
			}
			if !exists {
				versions, err := q.ListBudgetVersions(ctx, categoryID)
				if err != nil {
					return err
				}
				preEdit := core.ResolveBudget(versions, category.LegacyLimit, period.Start)
				carried := core.Money{}
				if preEdit.HasBudget() {
					carried = preEdit.Amount
				}
				if err := q.UpsertBudgetVersion(ctx, categoryID, carried, nextStart); err != nil {
					return err
				}
				checkpointed = true
			}
		}

		return q.UpsertBudgetVersion(ctx, categoryID, amount, period.Start)
	})
	if err != nil {
		return fmt.Errorf("set budget for category %d: %w", categoryID, err)
	}

	slog.InfoContext(ctx, "Budget set",
		"category_id", categoryID,
		"period_start", period.Start.Format("2006-01-02"),
		"amount_cents", amount.Cents,
		"retroactive", retroactive,
		"checkpointed", checkpointed)

	return nil
}

// RemoveCategoryBudget removes the limit for one period by storing an
// explicit zero-amount version. It goes through the same checkpoint logic:
// removing a past limit does not remove it from the periods after it.
func (s *BudgetService) RemoveCategoryBudget(ctx context.Context, categoryID int64, periodStart time.Time, now time.Time) error {
	return s.SetCategoryBudget(ctx, categoryID, periodStart, core.Money{}, now)
}

// ResolveEffectiveBudget resolves the budget effective for the period
// containing periodStart.
func (s *BudgetService) ResolveEffectiveBudget(ctx context.Context, categoryID int64, periodStart time.Time) (core.BudgetResolution, error) {
	period := core.PeriodRange(periodStart, s.kind, s.startDay)

	q := s.storage.Queries()
	category, err := q.GetCategory(ctx, categoryID)
	if err != nil {
		return core.BudgetResolution{}, fmt.Errorf("resolve budget for category %d: %w", categoryID, err)
	}
	versions, err := q.ListBudgetVersions(ctx, categoryID)
	if err != nil {
		return core.BudgetResolution{}, fmt.Errorf("resolve budget for category %d: %w", categoryID, err)
	}
	return core.ResolveBudget(versions, category.LegacyLimit, period.Start), nil
}

// PeriodFor exposes the period containing reference under the configured
// kind and start day.
func (s *BudgetService) PeriodFor(reference time.Time) core.Period {
	return core.PeriodRange(reference, s.kind, s.startDay)
}

// Kind returns the configured period kind.
func (s *BudgetService) Kind() core.PeriodKind {
	return s.kind
}
