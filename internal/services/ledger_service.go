// Package services orchestrates domain logic over storage: the ledger engine,
// the budget editor and the aggregation reporter.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// LedgerService applies and reverts the balance effect of transactions and
// keeps stored account balances consistent with the ledger. Every mutation
// runs inside a single database transaction, and the mutex serializes the
// single logical writer.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client

	mu sync.Mutex
}

func NewLedgerService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// RecordTransactionParams holds the input for recording a new transaction.
type RecordTransactionParams struct {
	Amount          core.Money
	Date            time.Time
	Type            core.TransactionType
	CategoryID      *int64
	AccountID       int64
	TargetAccountID *int64
	Note            string
}

// RecordTransaction validates the input, applies the balance effect and
// inserts the record as one atomic unit. Nothing is stored if any step fails.
func (s *LedgerService) RecordTransaction(ctx context.Context, params RecordTransactionParams) (core.Transaction, error) {
	tx := core.Transaction{
		Amount:          params.Amount,
		Date:            params.Date.UTC(),
		Type:            params.Type,
		CategoryID:      params.CategoryID,
		AccountID:       params.AccountID,
		TargetAccountID: params.TargetAccountID,
		Note:            params.Note,
	}
	if tx.Type == core.Transfer {
		// The original app ignores a category picked before switching to
		// transfer; transfers are never categorized.
		tx.CategoryID = nil
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	effect, err := core.ApplyEffect(tx)
	if err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stored core.Transaction
	err = s.storage.InTx(ctx, func(q *storage.Queries) error {
		if tx.CategoryID != nil {
			if _, err := q.GetCategory(ctx, *tx.CategoryID); err != nil {
				return fmt.Errorf("transaction category: %w", err)
			}
		}
		if err := s.applyEffect(ctx, q, tx, effect); err != nil {
			return err
		}
		stored, err = q.CreateTransaction(ctx, tx)
		return err
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", stored.ID,
		"type", string(stored.Type),
		"amount_cents", stored.Amount.Cents,
		"account_id", stored.AccountID)

	s.publishEvent(ctx, amqp.EventTransactionRecorded, stored.ID)
	return stored, nil
}

// EditTransactionParams holds the optional field changes for an edit. Nil
// fields are left untouched. Type and accounts cannot change; the client
// deletes and re-records instead.
type EditTransactionParams struct {
	Amount     *core.Money
	Date       *time.Time
	CategoryID *int64
	Note       *string
}

// EditTransaction reverts the old balance effect, mutates the record and
// applies the new effect, all inside one database transaction. The ledger is
// never observable in a half-applied state.
func (s *LedgerService) EditTransaction(ctx context.Context, id int64, params EditTransactionParams) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated core.Transaction
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		old, err := q.GetTransaction(ctx, id)
		if err != nil {
			return err
		}

		revert, err := core.RevertEffect(old)
		if err != nil {
			return err
		}

		updated = old
		if params.Amount != nil {
			updated.Amount = *params.Amount
		}
		if params.Date != nil {
			updated.Date = params.Date.UTC()
		}
		if params.CategoryID != nil {
			if updated.Type != core.Expense {
				return core.ErrMissingCategory
			}
			if _, err := q.GetCategory(ctx, *params.CategoryID); err != nil {
				return fmt.Errorf("transaction category: %w", err)
			}
			v := *params.CategoryID
			updated.CategoryID = &v
		}
		if params.Note != nil {
			updated.Note = *params.Note
		}
		if err := updated.Validate(); err != nil {
			return err
		}

		apply, err := core.ApplyEffect(updated)
		if err != nil {
			return err
		}

		if err := s.applyEffect(ctx, q, old, revert); err != nil {
			return err
		}
		if err := s.applyEffect(ctx, q, updated, apply); err != nil {
			return err
		}
		return q.UpdateTransaction(ctx, updated)
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("edit transaction %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Transaction edited", "id", id, "amount_cents", updated.Amount.Cents)

	s.publishEvent(ctx, amqp.EventTransactionUpdated, id)
	return updated, nil
}

// DeleteTransaction reverts the balance effect and removes the record.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		tx, err := q.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		revert, err := core.RevertEffect(tx)
		if err != nil {
			return err
		}
		if err := s.applyEffect(ctx, q, tx, revert); err != nil {
			return err
		}
		return q.DeleteTransaction(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)

	s.publishEvent(ctx, amqp.EventTransactionDeleted, id)
	return nil
}

// GetTransaction returns one transaction by ID.
func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.storage.Queries().GetTransaction(ctx, id)
}

// ListTransactions returns transactions with from <= date < to.
func (s *LedgerService) ListTransactions(ctx context.Context, from, to time.Time) ([]core.Transaction, error) {
	return s.storage.Queries().ListTransactionsInRange(ctx, from, to)
}

// CreateAccount stores a new account with an opening balance. The opening
// balance is not a transaction; it seeds the running balance at genesis.
func (s *LedgerService) CreateAccount(ctx context.Context, name string, openingBalance core.Money, sortOrder int) (core.Account, error) {
	account := core.Account{
		Name:      name,
		Balance:   openingBalance,
		SortOrder: sortOrder,
		CreatedAt: time.Now().UTC(),
	}
	if err := account.Validate(); err != nil {
		return core.Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stored core.Account
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		var err error
		stored, err = q.CreateAccount(ctx, account)
		return err
	})
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "Account created", "id", stored.ID, "name", stored.Name)
	return stored, nil
}

// ListAccounts returns accounts, optionally including archived ones.
func (s *LedgerService) ListAccounts(ctx context.Context, includeArchived bool) ([]core.Account, error) {
	return s.storage.Queries().ListAccounts(ctx, includeArchived)
}

// GetAccount returns one account by ID.
func (s *LedgerService) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	return s.storage.Queries().GetAccount(ctx, id)
}

// SetAccountArchived flags an account without touching its transactions.
func (s *LedgerService) SetAccountArchived(ctx context.Context, id int64, archived bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		return q.SetAccountArchived(ctx, id, archived)
	})
	if err != nil {
		return fmt.Errorf("archive account %d: %w", id, err)
	}
	return nil
}

// DeleteAccount removes an account and every transaction referencing it as
// source or transfer target. Each cascaded transaction has its effect
// reverted first so sibling accounts touched by transfers stay consistent.
func (s *LedgerService) DeleteAccount(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetAccount(ctx, id); err != nil {
			return err
		}
		txs, err := q.ListTransactionsByAccount(ctx, id)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			revert, err := core.RevertEffect(tx)
			if err != nil {
				return err
			}
			if err := s.applyEffect(ctx, q, tx, revert); err != nil {
				return err
			}
			if err := q.DeleteTransaction(ctx, tx.ID); err != nil {
				return err
			}
		}
		removed = len(txs)
		return q.DeleteAccount(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Account deleted", "id", id, "cascaded_transactions", removed)

	s.publishEvent(ctx, amqp.EventAccountDeleted, id)
	return nil
}

// CreateCategory stores a user-created category. User categories are always
// deletable; the non-deletable defaults are seeded by migration.
func (s *LedgerService) CreateCategory(ctx context.Context, name string, legacyLimit *core.Money) (core.Category, error) {
	category := core.Category{
		Name:        name,
		LegacyLimit: legacyLimit,
		IsCustom:    true,
	}
	if err := category.Validate(); err != nil {
		return core.Category{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stored core.Category
	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		var err error
		stored, err = q.CreateCategory(ctx, category)
		return err
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return stored, nil
}

// ListCategories returns all categories.
func (s *LedgerService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.storage.Queries().ListCategories(ctx)
}

// DeleteCategory removes a user-created category together with its
// transactions (effects reverted) and budget history. Default categories are
// not deletable.
func (s *LedgerService) DeleteCategory(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.storage.InTx(ctx, func(q *storage.Queries) error {
		category, err := q.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		if !category.IsCustom {
			return core.ErrCategoryNotDeletable
		}
		txs, err := q.ListTransactionsByCategory(ctx, id)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			revert, err := core.RevertEffect(tx)
			if err != nil {
				return err
			}
			if err := s.applyEffect(ctx, q, tx, revert); err != nil {
				return err
			}
			if err := q.DeleteTransaction(ctx, tx.ID); err != nil {
				return err
			}
		}
		// budget_versions rows go with the category via FK cascade.
		return q.DeleteCategory(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}

	s.publishEvent(ctx, amqp.EventCategoryDeleted, id)
	return nil
}

// applyEffect writes an already-computed effect to the affected balances.
func (s *LedgerService) applyEffect(ctx context.Context, q *storage.Queries, tx core.Transaction, effect core.Effect) error {
	if err := q.AdjustAccountBalance(ctx, tx.AccountID, effect.SourceDelta); err != nil {
		return err
	}
	if effect.TargetDelta != 0 && tx.TargetAccountID != nil {
		if err := q.AdjustAccountBalance(ctx, *tx.TargetAccountID, effect.TargetDelta); err != nil {
			return err
		}
	}
	return nil
}

func (s *LedgerService) publishEvent(ctx context.Context, kind string, id int64) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishLedgerEvent(ctx, kind, id); err != nil {
		// The ledger mutation already committed; export lag is acceptable.
		slog.ErrorContext(ctx, "Failed to publish ledger event", "kind", kind, "id", id, "error", err)
	}
}
