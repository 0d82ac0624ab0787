package services

import (
	"context"
	"fmt"
	"time"

	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// ReportService sums the ledger per category and period for display. It
// consumes the ledger invariant that balances already reflect the ledger, so
// it never recomputes balances itself. Summaries are cached per period start
// and dropped wholesale after any write.
type ReportService struct {
	storage   *storage.SQLiteRepository
	kind      core.PeriodKind
	startDay  int
	summaries *cache.LRUCache[core.PeriodSummary]
}

func NewReportService(storage *storage.SQLiteRepository, kind core.PeriodKind, startDay int) *ReportService {
	return &ReportService{
		storage:   storage,
		kind:      kind,
		startDay:  startDay,
		summaries: cache.NewLRUCache[core.PeriodSummary](64, 5*time.Minute),
	}
}

// Invalidate drops all cached summaries. Called after every successful
// ledger or budget mutation.
func (s *ReportService) Invalidate() {
	s.summaries.Clear()
}

// CacheCleaner exposes the summary cache for periodic expiry sweeps.
func (s *ReportService) CacheCleaner() cache.Cleaner {
	return s.summaries
}

// PeriodSummary builds the overview for the period containing reference:
// expense totals per category, each category's effective budget, and the
// period's income/expense totals.
func (s *ReportService) PeriodSummary(ctx context.Context, reference time.Time) (core.PeriodSummary, error) {
	period := core.PeriodRange(reference, s.kind, s.startDay)
	key := string(s.kind) + "|" + period.Start.Format("2006-01-02")

	if summary, ok := s.summaries.Get(key); ok {
		return summary, nil
	}

	q := s.storage.Queries()

	categories, err := q.ListCategories(ctx)
	if err != nil {
		return core.PeriodSummary{}, fmt.Errorf("period summary: %w", err)
	}
	spends, err := q.SumExpensesByCategory(ctx, period.Start, period.End)
	if err != nil {
		return core.PeriodSummary{}, fmt.Errorf("period summary: %w", err)
	}
	spentByCategory := make(map[int64]int64, len(spends))
	for _, spend := range spends {
		spentByCategory[spend.CategoryID] = spend.TotalCents
	}

	summary := core.PeriodSummary{Period: period, Kind: s.kind}

	for _, category := range categories {
		versions, err := q.ListBudgetVersions(ctx, category.ID)
		if err != nil {
			return core.PeriodSummary{}, fmt.Errorf("period summary: %w", err)
		}
		budget := core.ResolveBudget(versions, category.LegacyLimit, period.Start)
		line := core.CategoryBudgetLine{
			CategoryID: category.ID,
			Name:       category.Name,
			Spent:      core.Money{Cents: spentByCategory[category.ID]},
			Budget:     budget,
		}
		if budget.HasBudget() {
			summary.TotalBudget.Cents += budget.Amount.Cents
		}
		summary.Categories = append(summary.Categories, line)
	}

	expenses, err := q.SumByTypeInRange(ctx, core.Expense, period.Start, period.End)
	if err != nil {
		return core.PeriodSummary{}, fmt.Errorf("period summary: %w", err)
	}
	income, err := q.SumByTypeInRange(ctx, core.Income, period.Start, period.End)
	if err != nil {
		return core.PeriodSummary{}, fmt.Errorf("period summary: %w", err)
	}
	summary.TotalExpenses = core.Money{Cents: expenses}
	summary.TotalIncome = core.Money{Cents: income}

	s.summaries.Set(key, summary)
	return summary, nil
}
