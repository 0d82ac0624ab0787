package core

import (
	"sort"
	"time"
)

const (
	BudgetNone      BudgetSource = "none"
	BudgetLegacy    BudgetSource = "legacy"
	BudgetVersioned BudgetSource = "versioned"
)

// NoBudgetEpsilonCents is the threshold at or below which a stored limit
// resolves as "no budget". Zero-amount versions are still stored so that
// checkpointing over a removed limit behaves correctly.
const NoBudgetEpsilonCents = 1

// BudgetSource tells where a resolved budget amount came from.
type BudgetSource string

// BudgetResolution is the result of resolving a category's effective budget
// for a period start. "No budget" is an explicit variant, never a zero amount.
type BudgetResolution struct {
	Source        BudgetSource
	Amount        Money
	EffectiveFrom time.Time // set only for BudgetVersioned
}

// HasBudget reports whether a limit applies at all.
func (r BudgetResolution) HasBudget() bool {
	return r.Source != BudgetNone
}

// NoBudget is the explicit "unbudgeted" resolution.
func NoBudget() BudgetResolution {
	return BudgetResolution{Source: BudgetNone}
}

// ResolveBudget resolves the budget amount effective for a category at
// periodStart. The versions form a step function over time: the version with
// the greatest EffectiveFrom that is not after periodStart wins. With no
// matching version the category's legacy flat limit applies, and with neither
// the category is unbudgeted for that period.
//
// Uniqueness of (category, EffectiveFrom) is the editor's responsibility;
// the resolver assumes it.
func ResolveBudget(versions []BudgetVersion, legacyLimit *Money, periodStart time.Time) BudgetResolution {
	sorted := make([]BudgetVersion, len(versions))
	copy(sorted, versions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom.After(sorted[j].EffectiveFrom)
	})

	for _, v := range sorted {
		if v.EffectiveFrom.After(periodStart) {
			continue
		}
		if v.Amount.Cents <= NoBudgetEpsilonCents {
			return NoBudget()
		}
		return BudgetResolution{
			Source:        BudgetVersioned,
			Amount:        v.Amount,
			EffectiveFrom: v.EffectiveFrom,
		}
	}

	if legacyLimit != nil && legacyLimit.Cents > NoBudgetEpsilonCents {
		return BudgetResolution{Source: BudgetLegacy, Amount: *legacyLimit}
	}
	return NoBudget()
}
