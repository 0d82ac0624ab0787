package http

import (
	"time"

	"bilancio/internal/core"
)

// Wire representations. Monetary amounts travel as decimal strings so
// clients never do float math on cents.

type transactionDTO struct {
	ID              int64  `json:"id"`
	Amount          string `json:"amount"`
	Date            string `json:"date"`
	Type            string `json:"type"`
	CategoryID      *int64 `json:"category_id,omitempty"`
	AccountID       int64  `json:"account_id"`
	TargetAccountID *int64 `json:"target_account_id,omitempty"`
	Note            string `json:"note,omitempty"`
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:              t.ID,
		Amount:          t.Amount.String(),
		Date:            t.Date.UTC().Format(time.RFC3339),
		Type:            string(t.Type),
		CategoryID:      t.CategoryID,
		AccountID:       t.AccountID,
		TargetAccountID: t.TargetAccountID,
		Note:            t.Note,
	}
}

type accountDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Balance   string `json:"balance"`
	Archived  bool   `json:"archived"`
	SortOrder int    `json:"sort_order"`
	CreatedAt string `json:"created_at"`
}

func toAccountDTO(a core.Account) accountDTO {
	return accountDTO{
		ID:        a.ID,
		Name:      a.Name,
		Balance:   a.Balance.String(),
		Archived:  a.Archived,
		SortOrder: a.SortOrder,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type categoryDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	LegacyLimit *string `json:"legacy_limit,omitempty"`
	IsCustom    bool    `json:"is_custom"`
}

func toCategoryDTO(c core.Category) categoryDTO {
	dto := categoryDTO{
		ID:       c.ID,
		Name:     c.Name,
		IsCustom: c.IsCustom,
	}
	if c.LegacyLimit != nil {
		s := c.LegacyLimit.String()
		dto.LegacyLimit = &s
	}
	return dto
}

type budgetDTO struct {
	Source        string  `json:"source"`
	Amount        *string `json:"amount,omitempty"`
	EffectiveFrom *string `json:"effective_from,omitempty"`
}

func toBudgetDTO(res core.BudgetResolution) budgetDTO {
	dto := budgetDTO{Source: string(res.Source)}
	if res.HasBudget() {
		amount := res.Amount.String()
		dto.Amount = &amount
	}
	if res.Source == core.BudgetVersioned {
		from := res.EffectiveFrom.UTC().Format(time.RFC3339)
		dto.EffectiveFrom = &from
	}
	return dto
}

type periodDTO struct {
	Kind  string `json:"kind"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func toPeriodDTO(kind core.PeriodKind, p core.Period) periodDTO {
	return periodDTO{
		Kind:  string(kind),
		Start: p.Start.UTC().Format(time.RFC3339),
		End:   p.End.UTC().Format(time.RFC3339),
	}
}

type categoryLineDTO struct {
	CategoryID int64     `json:"category_id"`
	Name       string    `json:"name"`
	Spent      string    `json:"spent"`
	Budget     budgetDTO `json:"budget"`
}

type summaryDTO struct {
	Period        periodDTO         `json:"period"`
	TotalExpenses string            `json:"total_expenses"`
	TotalIncome   string            `json:"total_income"`
	TotalBudget   string            `json:"total_budget"`
	Categories    []categoryLineDTO `json:"categories"`
}

func toSummaryDTO(s core.PeriodSummary) summaryDTO {
	dto := summaryDTO{
		Period:        toPeriodDTO(s.Kind, s.Period),
		TotalExpenses: s.TotalExpenses.String(),
		TotalIncome:   s.TotalIncome.String(),
		TotalBudget:   s.TotalBudget.String(),
		Categories:    make([]categoryLineDTO, 0, len(s.Categories)),
	}
	for _, line := range s.Categories {
		dto.Categories = append(dto.Categories, categoryLineDTO{
			CategoryID: line.CategoryID,
			Name:       line.Name,
			Spent:      line.Spent.String(),
			Budget:     toBudgetDTO(line.Budget),
		})
	}
	return dto
}
