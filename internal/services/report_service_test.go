package services

import (
	"context"
	"testing"

	"bilancio/internal/core"
)

func TestPeriodSummary(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ledger := NewLedgerService(repo, nil)
	budgets := newMonthlyBudgetService(t, repo)
	reports := NewReportService(repo, core.PeriodMonth, 1)

	acc := seedAccount(t, ledger, "Checking", 100000)
	groceries := seedCategory(t, repo, "Groceries", nil)
	hobby := seedCategory(t, repo, "Hobby", nil)

	if err := budgets.SetCategoryBudget(ctx, groceries.ID, day(2024, 6, 1), core.Money{Cents: 40000}, day(2024, 6, 5)); err != nil {
		t.Fatalf("SetCategoryBudget() error = %v", err)
	}

	record := func(typ core.TransactionType, cents int64, cat *int64, d int) {
		t.Helper()
		if _, err := ledger.RecordTransaction(ctx, RecordTransactionParams{
			Amount:     core.Money{Cents: cents},
			Date:       day(2024, 6, d),
			Type:       typ,
			CategoryID: cat,
			AccountID:  acc.ID,
		}); err != nil {
			t.Fatalf("RecordTransaction() error = %v", err)
		}
	}
	record(core.Expense, 1500, &groceries.ID, 3)
	record(core.Expense, 2500, &groceries.ID, 20)
	record(core.Expense, 1000, &hobby.ID, 10)
	record(core.Income, 200000, nil, 1)
	// Outside the June period; must not appear in the summary.
	if _, err := ledger.RecordTransaction(ctx, RecordTransactionParams{
		Amount: core.Money{Cents: 9999}, Date: day(2024, 7, 2), Type: core.Expense,
		CategoryID: &groceries.ID, AccountID: acc.ID,
	}); err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}

	summary, err := reports.PeriodSummary(ctx, day(2024, 6, 15))
	if err != nil {
		t.Fatalf("PeriodSummary() error = %v", err)
	}

	if !summary.Period.Start.Equal(day(2024, 6, 1)) || !summary.Period.End.Equal(day(2024, 7, 1)) {
		t.Errorf("period = %v..%v, want June 2024", summary.Period.Start, summary.Period.End)
	}
	if summary.TotalExpenses.Cents != 5000 {
		t.Errorf("TotalExpenses = %d, want 5000", summary.TotalExpenses.Cents)
	}
	if summary.TotalIncome.Cents != 200000 {
		t.Errorf("TotalIncome = %d, want 200000", summary.TotalIncome.Cents)
	}
	if summary.TotalBudget.Cents != 40000 {
		t.Errorf("TotalBudget = %d, want 40000 (only groceries has one)", summary.TotalBudget.Cents)
	}

	lines := map[int64]core.CategoryBudgetLine{}
	for _, line := range summary.Categories {
		lines[line.CategoryID] = line
	}
	g := lines[groceries.ID]
	if g.Spent.Cents != 4000 {
		t.Errorf("groceries spent = %d, want 4000", g.Spent.Cents)
	}
	if g.Budget.Source != core.BudgetVersioned || g.Budget.Amount.Cents != 40000 {
		t.Errorf("groceries budget = %v/%d, want versioned/40000", g.Budget.Source, g.Budget.Amount.Cents)
	}
	h := lines[hobby.ID]
	if h.Spent.Cents != 1000 {
		t.Errorf("hobby spent = %d, want 1000", h.Spent.Cents)
	}
	if h.Budget.HasBudget() {
		t.Errorf("hobby budget source = %v, want none", h.Budget.Source)
	}
}

func TestPeriodSummary_CacheInvalidation(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ledger := NewLedgerService(repo, nil)
	reports := NewReportService(repo, core.PeriodMonth, 1)

	acc := seedAccount(t, ledger, "Checking", 10000)
	cat := seedCategory(t, repo, "Groceries", nil)

	if _, err := ledger.RecordTransaction(ctx, RecordTransactionParams{
		Amount: core.Money{Cents: 1000}, Date: day(2024, 6, 5), Type: core.Expense,
		CategoryID: &cat.ID, AccountID: acc.ID,
	}); err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}

	first, err := reports.PeriodSummary(ctx, day(2024, 6, 15))
	if err != nil {
		t.Fatalf("PeriodSummary() error = %v", err)
	}
	if first.TotalExpenses.Cents != 1000 {
		t.Fatalf("TotalExpenses = %d, want 1000", first.TotalExpenses.Cents)
	}

	if _, err := ledger.RecordTransaction(ctx, RecordTransactionParams{
		Amount: core.Money{Cents: 500}, Date: day(2024, 6, 6), Type: core.Expense,
		CategoryID: &cat.ID, AccountID: acc.ID,
	}); err != nil {
		t.Fatalf("RecordTransaction() error = %v", err)
	}

	// Without invalidation the cached summary is served.
	stale, err := reports.PeriodSummary(ctx, day(2024, 6, 15))
	if err != nil {
		t.Fatalf("PeriodSummary() error = %v", err)
	}
	if stale.TotalExpenses.Cents != 1000 {
		t.Errorf("cached TotalExpenses = %d, want stale 1000", stale.TotalExpenses.Cents)
	}

	reports.Invalidate()

	fresh, err := reports.PeriodSummary(ctx, day(2024, 6, 15))
	if err != nil {
		t.Fatalf("PeriodSummary() error = %v", err)
	}
	if fresh.TotalExpenses.Cents != 1500 {
		t.Errorf("TotalExpenses after invalidate = %d, want 1500", fresh.TotalExpenses.Cents)
	}
}
