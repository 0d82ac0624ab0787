package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bilancio/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every query can run either
// standalone or inside a repository transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the SQL statements of the store.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const timeLayout = time.RFC3339

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

// --- accounts ---

func (q *Queries) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO accounts (name, balance_cents, archived, sort_order, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		a.Name, a.Balance.Cents, boolToInt(a.Archived), a.SortOrder, encodeTime(a.CreatedAt))
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account id: %w", err)
	}
	return a, nil
}

func (q *Queries) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, name, balance_cents, archived, sort_order, created_at
		 FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (q *Queries) ListAccounts(ctx context.Context, includeArchived bool) ([]core.Account, error) {
	query := `SELECT id, name, balance_cents, archived, sort_order, created_at
	          FROM accounts`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY sort_order, id`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// AdjustAccountBalance applies a signed delta in cents to a stored balance.
func (q *Queries) AdjustAccountBalance(ctx context.Context, id int64, deltaCents int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?`, deltaCents, id)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust balance rows: %w", err)
	}
	if n == 0 {
		return core.ErrMissingAccount
	}
	return nil
}

func (q *Queries) SetAccountArchived(ctx context.Context, id int64, archived bool) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET archived = ? WHERE id = ?`, boolToInt(archived), id)
	if err != nil {
		return fmt.Errorf("archive account: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) DeleteAccount(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireRow(res)
}

// --- categories ---

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	var legacy any
	if c.LegacyLimit != nil {
		legacy = c.LegacyLimit.Cents
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO categories (name, legacy_limit_cents, is_custom) VALUES (?, ?, ?)`,
		c.Name, legacy, boolToInt(c.IsCustom))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	return c, nil
}

func (q *Queries) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, name, legacy_limit_cents, is_custom FROM categories WHERE id = ?`, id)
	return scanCategory(row)
}

func (q *Queries) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, legacy_limit_cents, is_custom FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

// --- budget versions ---

func (q *Queries) ListBudgetVersions(ctx context.Context, categoryID int64) ([]core.BudgetVersion, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, category_id, amount_cents, effective_from
		 FROM budget_versions WHERE category_id = ? ORDER BY effective_from`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list budget versions: %w", err)
	}
	defer rows.Close()

	var versions []core.BudgetVersion
	for rows.Next() {
		var v core.BudgetVersion
		var from string
		if err := rows.Scan(&v.ID, &v.CategoryID, &v.Amount.Cents, &from); err != nil {
			return nil, fmt.Errorf("scan budget version: %w", err)
		}
		if v.EffectiveFrom, err = decodeTime(from); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// HasBudgetVersionAt reports whether a version exists for the exact period
// start date.
func (q *Queries) HasBudgetVersionAt(ctx context.Context, categoryID int64, effectiveFrom time.Time) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx,
		`SELECT 1 FROM budget_versions WHERE category_id = ? AND effective_from = ?`,
		categoryID, encodeTime(effectiveFrom)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check budget version: %w", err)
	}
	return true, nil
}

// UpsertBudgetVersion inserts a version or updates the amount in place when
// one already exists for (category, effective_from). The UNIQUE constraint
// makes a duplicate pair unconstructible.
func (q *Queries) UpsertBudgetVersion(ctx context.Context, categoryID int64, amount core.Money, effectiveFrom time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO budget_versions (category_id, amount_cents, effective_from)
		 VALUES (?, ?, ?)
		 ON CONFLICT(category_id, effective_from) DO UPDATE SET amount_cents = excluded.amount_cents`,
		categoryID, amount.Cents, encodeTime(effectiveFrom))
	if err != nil {
		return fmt.Errorf("upsert budget version: %w", err)
	}
	return nil
}

// --- transactions ---

func (q *Queries) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO transactions (amount_cents, date, type, category_id, account_id, target_account_id, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Amount.Cents, encodeTime(t.Date), string(t.Type),
		nullableID(t.CategoryID), t.AccountID, nullableID(t.TargetAccountID), t.Note)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	return t, nil
}

func (q *Queries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, amount_cents, date, type, category_id, account_id, target_account_id, note
		 FROM transactions WHERE id = ?`, id)
	return scanTransaction(row)
}

func (q *Queries) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE transactions
		 SET amount_cents = ?, date = ?, type = ?, category_id = ?, account_id = ?, target_account_id = ?, note = ?
		 WHERE id = ?`,
		t.Amount.Cents, encodeTime(t.Date), string(t.Type),
		nullableID(t.CategoryID), t.AccountID, nullableID(t.TargetAccountID), t.Note, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

// ListTransactionsByAccount returns every transaction touching the account as
// source or transfer target.
func (q *Queries) ListTransactionsByAccount(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, amount_cents, date, type, category_id, account_id, target_account_id, note
		 FROM transactions WHERE account_id = ? OR target_account_id = ? ORDER BY date, id`,
		accountID, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions by account: %w", err)
	}
	return collectTransactions(rows)
}

func (q *Queries) ListTransactionsByCategory(ctx context.Context, categoryID int64) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, amount_cents, date, type, category_id, account_id, target_account_id, note
		 FROM transactions WHERE category_id = ? ORDER BY date, id`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list transactions by category: %w", err)
	}
	return collectTransactions(rows)
}

// ListAllTransactions returns every transaction ordered by date.
func (q *Queries) ListAllTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, amount_cents, date, type, category_id, account_id, target_account_id, note
		 FROM transactions ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list all transactions: %w", err)
	}
	return collectTransactions(rows)
}

// ListTransactionsInRange returns transactions with from <= date < to.
func (q *Queries) ListTransactionsInRange(ctx context.Context, from, to time.Time) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, amount_cents, date, type, category_id, account_id, target_account_id, note
		 FROM transactions WHERE date >= ? AND date < ? ORDER BY date, id`,
		encodeTime(from), encodeTime(to))
	if err != nil {
		return nil, fmt.Errorf("list transactions in range: %w", err)
	}
	return collectTransactions(rows)
}

// CategorySpend is an expense total grouped by category.
type CategorySpend struct {
	CategoryID int64
	TotalCents int64
}

// SumExpensesByCategory totals expense transactions per category inside
// [from, to).
func (q *Queries) SumExpensesByCategory(ctx context.Context, from, to time.Time) ([]CategorySpend, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT category_id, SUM(amount_cents)
		 FROM transactions
		 WHERE type = 'expense' AND category_id IS NOT NULL AND date >= ? AND date < ?
		 GROUP BY category_id`,
		encodeTime(from), encodeTime(to))
	if err != nil {
		return nil, fmt.Errorf("sum expenses by category: %w", err)
	}
	defer rows.Close()

	var sums []CategorySpend
	for rows.Next() {
		var s CategorySpend
		if err := rows.Scan(&s.CategoryID, &s.TotalCents); err != nil {
			return nil, fmt.Errorf("scan category spend: %w", err)
		}
		sums = append(sums, s)
	}
	return sums, rows.Err()
}

// SumByTypeInRange totals transaction amounts of one type inside [from, to).
func (q *Queries) SumByTypeInRange(ctx context.Context, typ core.TransactionType, from, to time.Time) (int64, error) {
	var total sql.NullInt64
	err := q.db.QueryRowContext(ctx,
		`SELECT SUM(amount_cents) FROM transactions WHERE type = ? AND date >= ? AND date < ?`,
		string(typ), encodeTime(from), encodeTime(to)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum by type: %w", err)
	}
	return total.Int64, nil
}

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var a core.Account
	var archived int
	var createdAt string
	err := row.Scan(&a.ID, &a.Name, &a.Balance.Cents, &archived, &a.SortOrder, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.Archived = archived != 0
	if a.CreatedAt, err = decodeTime(createdAt); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

func scanCategory(row rowScanner) (core.Category, error) {
	var c core.Category
	var legacy sql.NullInt64
	var isCustom int
	err := row.Scan(&c.ID, &c.Name, &legacy, &isCustom)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	if legacy.Valid {
		c.LegacyLimit = &core.Money{Cents: legacy.Int64}
	}
	c.IsCustom = isCustom != 0
	return c, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var dateStr, typ string
	var categoryID, targetID sql.NullInt64
	err := row.Scan(&t.ID, &t.Amount.Cents, &dateStr, &typ, &categoryID, &t.AccountID, &targetID, &t.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = core.TransactionType(typ)
	if categoryID.Valid {
		v := categoryID.Int64
		t.CategoryID = &v
	}
	if targetID.Valid {
		v := targetID.Int64
		t.TargetAccountID = &v
	}
	if t.Date, err = decodeTime(dateStr); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
