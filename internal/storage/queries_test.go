package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"bilancio/internal/core"
)

func newTestQueries(t *testing.T) *Queries {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo.Queries()
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAccountRoundTrip(t *testing.T) {
	ctx := context.Background()
	q := newTestQueries(t)

	created, err := q.CreateAccount(ctx, core.Account{
		Name:      "Checking",
		Balance:   core.Money{Cents: 12345},
		SortOrder: 2,
		CreatedAt: date(2024, time.January, 1),
	})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if created.ID == 0 {
		t.Fatal("CreateAccount() returned zero ID")
	}

	got, err := q.GetAccount(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if got.Name != "Checking" || got.Balance.Cents != 12345 || got.SortOrder != 2 {
		t.Errorf("GetAccount() = %+v, want name/balance/sort of the created account", got)
	}
	if !got.CreatedAt.Equal(date(2024, time.January, 1)) {
		t.Errorf("CreatedAt = %v, want 2024-01-01", got.CreatedAt)
	}

	if _, err := q.GetAccount(ctx, 9999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetAccount(missing) error = %v, want ErrNotFound", err)
	}
}

func TestAdjustAccountBalance(t *testing.T) {
	ctx := context.Background()
	q := newTestQueries(t)
	a, err := q.CreateAccount(ctx, core.Account{Name: "Checking", CreatedAt: date(2024, time.January, 1)})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	if err := q.AdjustAccountBalance(ctx, a.ID, 500); err != nil {
		t.Fatalf("AdjustAccountBalance(+500) error = %v", err)
	}
	if err := q.AdjustAccountBalance(ctx, a.ID, -200); err != nil {
		t.Fatalf("AdjustAccountBalance(-200) error = %v", err)
	}

	got, err := q.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if got.Balance.Cents != 300 {
		t.Errorf("balance = %d, want 300", got.Balance.Cents)
	}

	if err := q.AdjustAccountBalance(ctx, 9999, 100); !errors.Is(err, core.ErrMissingAccount) {
		t.Errorf("AdjustAccountBalance(missing) error = %v, want ErrMissingAccount", err)
	}
}

func TestListAccounts_ArchivedFilter(t *testing.T) {
	ctx := context.Background()
	q := newTestQueries(t)

	active, _ := q.CreateAccount(ctx, core.Account{Name: "Active", CreatedAt: date(2024, time.January, 1)})
	dormant, _ := q.CreateAccount(ctx, core.Account{Name: "Dormant", CreatedAt: date(2024, time.January, 1)})
	if err := q.SetAccountArchived(ctx, dormant.ID, true); err != nil {
		t.Fatalf("SetAccountArchived() error = %v", err)
	}

	visible, err := q.ListAccounts(ctx, false)
	if err != nil {
		t.Fatalf("ListAccounts(false) error = %v", err)
	}
	if len(visible) != 1 || visible[0].ID != active.ID {
		t.Errorf("ListAccounts(false) = %d accounts, want only the active one", len(visible))
	}

	all, err := q.ListAccounts(ctx, true)
	if err != nil {
		t.Fatalf("ListAccounts(true) error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListAccounts(true) = %d accounts, want 2", len(all))
	}
}

func TestUpsertBudgetVersion_InPlace(t *testing.T) {
	ctx := context.Background()
	q := newTestQueries(t)
	c, err := q.CreateCategory(ctx, core.Category{Name: "Hobby", IsCustom: true})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	jan := date(2024, time.January, 1)

	if err := q.UpsertBudgetVersion(ctx, c.ID, core.Money{Cents: 10000}, jan); err != nil {
		t.Fatalf("UpsertBudgetVersion() error = %v", err)
	}
	// Same period start again: the amount updates, no second row appears.
	if err := q.UpsertBudgetVersion(ctx, c.ID, core.Money{Cents: 20000}, jan); err != nil {
		t.Fatalf("UpsertBudgetVersion() second error = %v", err)
	}

	versions, err := q.ListBudgetVersions(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListBudgetVersions() error = %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("version count = %d, want 1", len(versions))
	}
	if versions[0].Amount.Cents != 20000 {
		t.Errorf("amount = %d, want 20000", versions[0].Amount.Cents)
	}
	if !versions[0].EffectiveFrom.Equal(jan) {
		t.Errorf("EffectiveFrom = %v, want %v", versions[0].EffectiveFrom, jan)
	}
}

func TestHasBudgetVersionAt(t *testing.T) {
	ctx := context.Background()
	q := newTestQueries(t)
	c, _ := q.CreateCategory(ctx, core.Category{Name: "Hobby", IsCustom: true})
	jan := date(2024, time.January, 1)

	ok, err := q.HasBudgetVersionAt(ctx, c.ID, jan)
	if err != nil || ok {
		t.Fatalf("HasBudgetVersionAt(empty) = %v, %v, want false, nil", ok, err)
	}

	if err := q.UpsertBudgetVersion(ctx, c.ID, core.Money{Cents: 100}, jan); err != nil {
		t.Fatalf("UpsertBudgetVersion() error = %v", err)
	}

	ok, err = q.HasBudgetVersionAt(ctx, c.ID, jan)
	if err != nil || !ok {
		t.Errorf("HasBudgetVersionAt(jan) = %v, %v, want true, nil", ok, err)
	}
	ok, err = q.HasBudgetVersionAt(ctx, c.ID, date(2024, time.February, 1))
	if err != nil || ok {
		t.Errorf("HasBudgetVersionAt(feb) = %v, %v, want false, nil", ok, err)
	}
}

func TestDeleteCategory_CascadesBudgetVersions(t *testing.T) {
	ctx := context.Background()
	q := newTestQueries(t)
	c, _ := q.CreateCategory(ctx, core.Category{Name: "Hobby", IsCustom: true})
	if err := q.UpsertBudgetVersion(ctx, c.ID, core.Money{Cents: 100}, date(2024, time.January, 1)); err != nil {
		t.Fatalf("UpsertBudgetVersion() error = %v", err)
	}

	if err := q.DeleteCategory(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}

	versions, err := q.ListBudgetVersions(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListBudgetVersions() error = %v", err)
	}
	if len(versions) != 0 {
		t.Errorf("version count after cascade = %d, want 0", len(versions))
	}
}

func TestCategoryLegacyLimit(t *testing.T) {
	ctx := context.Background()
	q := newTestQueries(t)

	limit := core.Money{Cents: 5000}
	withLimit, err := q.CreateCategory(ctx, core.Category{Name: "Groceries", LegacyLimit: &limit, IsCustom: true})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	without, err := q.CreateCategory(ctx, core.Category{Name: "Misc", IsCustom: true})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	got, err := q.GetCategory(ctx, withLimit.ID)
	if err != nil {
		t.Fatalf("GetCategory() error = %v", err)
	}
	if got.LegacyLimit == nil || got.LegacyLimit.Cents != 5000 {
		t.Errorf("LegacyLimit = %v, want 5000", got.LegacyLimit)
	}

	got, err = q.GetCategory(ctx, without.ID)
	if err != nil {
		t.Fatalf("GetCategory() error = %v", err)
	}
	if got.LegacyLimit != nil {
		t.Errorf("LegacyLimit = %v, want nil", got.LegacyLimit)
	}
}

func TestDefaultCategoriesSeeded(t *testing.T) {
	ctx := context.Background()
	q := newTestQueries(t)

	cats, err := q.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(cats) == 0 {
		t.Fatal("ListCategories() empty, want migration-seeded defaults")
	}
	for _, c := range cats {
		if c.IsCustom {
			t.Errorf("seeded category %q marked custom", c.Name)
		}
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	q := newTestQueries(t)
	a, _ := q.CreateAccount(ctx, core.Account{Name: "Checking", CreatedAt: date(2024, time.January, 1)})
	c, _ := q.CreateCategory(ctx, core.Category{Name: "Hobby", IsCustom: true})

	created, err := q.CreateTransaction(ctx, core.Transaction{
		Amount:     core.Money{Cents: 1250},
		Date:       date(2024, time.March, 5),
		Type:       core.Expense,
		CategoryID: &c.ID,
		AccountID:  a.ID,
		Note:       "paint",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	got, err := q.GetTransaction(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if got.Amount.Cents != 1250 || got.Type != core.Expense || got.Note != "paint" {
		t.Errorf("GetTransaction() = %+v, want the created transaction", got)
	}
	if got.CategoryID == nil || *got.CategoryID != c.ID {
		t.Errorf("CategoryID = %v, want %d", got.CategoryID, c.ID)
	}
	if got.TargetAccountID != nil {
		t.Errorf("TargetAccountID = %v, want nil", got.TargetAccountID)
	}
	if !got.Date.Equal(date(2024, time.March, 5)) {
		t.Errorf("Date = %v, want 2024-03-05", got.Date)
	}

	if _, err := q.GetTransaction(ctx, 9999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetTransaction(missing) error = %v, want ErrNotFound", err)
	}
	if err := q.UpdateTransaction(ctx, core.Transaction{ID: 9999, Type: core.Income, Date: date(2024, time.March, 1), Amount: core.Money{Cents: 1}, AccountID: a.ID}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateTransaction(missing) error = %v, want ErrNotFound", err)
	}
	if err := q.DeleteTransaction(ctx, 9999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteTransaction(missing) error = %v, want ErrNotFound", err)
	}
}

func TestListTransactionsByAccount_IncludesTargets(t *testing.T) {
	ctx := context.Background()
	q := newTestQueries(t)
	a, _ := q.CreateAccount(ctx, core.Account{Name: "A", CreatedAt: date(2024, time.January, 1)})
	b, _ := q.CreateAccount(ctx, core.Account{Name: "B", CreatedAt: date(2024, time.January, 1)})

	if _, err := q.CreateTransaction(ctx, core.Transaction{
		Amount: core.Money{Cents: 100}, Date: date(2024, time.March, 1), Type: core.Income, AccountID: a.ID,
	}); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if _, err := q.CreateTransaction(ctx, core.Transaction{
		Amount: core.Money{Cents: 200}, Date: date(2024, time.March, 2), Type: core.Transfer,
		AccountID: b.ID, TargetAccountID: &a.ID,
	}); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	txs, err := q.ListTransactionsByAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListTransactionsByAccount() error = %v", err)
	}
	if len(txs) != 2 {
		t.Errorf("transactions touching A = %d, want 2 (source + transfer target)", len(txs))
	}
}

func TestSumExpensesByCategory(t *testing.T) {
	ctx := context.Background()
	q := newTestQueries(t)
	a, _ := q.CreateAccount(ctx, core.Account{Name: "Checking", CreatedAt: date(2024, time.January, 1)})
	groceries, _ := q.CreateCategory(ctx, core.Category{Name: "Groceries", IsCustom: true})
	hobby, _ := q.CreateCategory(ctx, core.Category{Name: "Hobby", IsCustom: true})

	seed := []struct {
		cents int64
		cat   *int64
		typ   core.TransactionType
		day   int
	}{
		{1000, &groceries.ID, core.Expense, 5},
		{2000, &groceries.ID, core.Expense, 10},
		{500, &hobby.ID, core.Expense, 12},
		{9000, nil, core.Income, 15},
		{700, &groceries.ID, core.Expense, 35}, // next month, outside the range
	}
	for _, s := range seed {
		if _, err := q.CreateTransaction(ctx, core.Transaction{
			Amount:     core.Money{Cents: s.cents},
			Date:       date(2024, time.March, 1).AddDate(0, 0, s.day-1),
			Type:       s.typ,
			CategoryID: s.cat,
			AccountID:  a.ID,
		}); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	sums, err := q.SumExpensesByCategory(ctx, date(2024, time.March, 1), date(2024, time.April, 1))
	if err != nil {
		t.Fatalf("SumExpensesByCategory() error = %v", err)
	}
	byCategory := map[int64]int64{}
	for _, s := range sums {
		byCategory[s.CategoryID] = s.TotalCents
	}
	if byCategory[groceries.ID] != 3000 {
		t.Errorf("groceries total = %d, want 3000", byCategory[groceries.ID])
	}
	if byCategory[hobby.ID] != 500 {
		t.Errorf("hobby total = %d, want 500", byCategory[hobby.ID])
	}

	income, err := q.SumByTypeInRange(ctx, core.Income, date(2024, time.March, 1), date(2024, time.April, 1))
	if err != nil {
		t.Fatalf("SumByTypeInRange() error = %v", err)
	}
	if income != 9000 {
		t.Errorf("income total = %d, want 9000", income)
	}

	empty, err := q.SumByTypeInRange(ctx, core.Transfer, date(2024, time.March, 1), date(2024, time.April, 1))
	if err != nil {
		t.Fatalf("SumByTypeInRange() error = %v", err)
	}
	if empty != 0 {
		t.Errorf("transfer total = %d, want 0", empty)
	}
}

func TestListAllTransactions_Ordered(t *testing.T) {
	ctx := context.Background()
	q := newTestQueries(t)
	a, _ := q.CreateAccount(ctx, core.Account{Name: "Checking", CreatedAt: date(2024, time.January, 1)})

	// Inserted out of date order.
	for _, d := range []int{10, 2, 7} {
		if _, err := q.CreateTransaction(ctx, core.Transaction{
			Amount: core.Money{Cents: 100}, Date: date(2024, time.March, d), Type: core.Income, AccountID: a.ID,
		}); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	txs, err := q.ListAllTransactions(ctx)
	if err != nil {
		t.Fatalf("ListAllTransactions() error = %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("transaction count = %d, want 3", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].Date.Before(txs[i-1].Date) {
			t.Errorf("transactions out of date order: %v before %v", txs[i].Date, txs[i-1].Date)
		}
	}
}
