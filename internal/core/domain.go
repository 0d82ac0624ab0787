package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense  TransactionType = "expense"
	Income   TransactionType = "income"
	Transfer TransactionType = "transfer"
)

type (
	TransactionType string

	// Account is a user-visible money container. Balance is derived from the
	// transaction ledger but stored; only the ledger service may change it.
	Account struct {
		ID        int64
		Name      string
		Balance   Money // signed
		Archived  bool
		SortOrder int
		CreatedAt time.Time
	}

	// Category groups expense transactions and carries the budget history.
	// LegacyLimit is the pre-versioning flat limit used as a resolver fallback.
	Category struct {
		ID          int64
		Name        string
		LegacyLimit *Money
		IsCustom    bool
	}

	// BudgetVersion is one step of a category's budget step function: Amount
	// applies from EffectiveFrom until a later version overrides it.
	// At most one version exists per (category, EffectiveFrom).
	BudgetVersion struct {
		ID            int64
		CategoryID    int64
		Amount        Money
		EffectiveFrom time.Time
	}

	// Transaction holds a positive amount; the sign of its balance effect is
	// implied by Type. CategoryID is required for expenses and absent for
	// transfers. TargetAccountID is set for transfers only.
	Transaction struct {
		ID              int64
		Amount          Money
		Date            time.Time
		Type            TransactionType
		CategoryID      *int64
		AccountID       int64
		TargetAccountID *int64
		Note            string
	}
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidType            = errors.New("invalid transaction type")
	ErrSameAccountTransfer    = errors.New("transfer source and target are the same account")
	ErrMissingAccount         = errors.New("account not found")
	ErrMissingTargetAccount   = errors.New("transfer requires a target account")
	ErrMissingCategory        = errors.New("expense requires a category")
	ErrNotFound               = errors.New("not found")
	ErrEmptyName              = errors.New("empty name")
	ErrCategoryNotDeletable   = errors.New("default categories cannot be deleted")
	ErrDuplicateBudgetVersion = errors.New("duplicate budget version for period start")
	ErrInvalidPeriodKind      = errors.New("invalid period kind")
)

func (t TransactionType) Valid() bool {
	switch t {
	case Expense, Income, Transfer:
		return true
	}
	return false
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return errors.New("account name too long (max 100 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if len(t.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	switch t.Type {
	case Expense:
		if t.CategoryID == nil {
			return ErrMissingCategory
		}
	case Transfer:
		if t.TargetAccountID == nil {
			return ErrMissingTargetAccount
		}
		if *t.TargetAccountID == t.AccountID {
			return ErrSameAccountTransfer
		}
	}
	return nil
}
