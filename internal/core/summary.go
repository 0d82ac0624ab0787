package core

// CategoryBudgetLine is one category's spending against its effective budget
// for a period.
type CategoryBudgetLine struct {
	CategoryID int64
	Name       string
	Spent      Money
	Budget     BudgetResolution
}

// PeriodSummary is a compact overview of one accounting period.
type PeriodSummary struct {
	Period        Period
	Kind          PeriodKind
	TotalExpenses Money
	TotalIncome   Money
	TotalBudget   Money // sum of resolved budgets, unbudgeted categories excluded
	Categories    []CategoryBudgetLine
}
