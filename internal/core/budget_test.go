package core

import (
	"testing"
	"time"
)

func money(cents int64) *Money {
	return &Money{Cents: cents}
}

func version(categoryID int64, cents int64, from time.Time) BudgetVersion {
	return BudgetVersion{CategoryID: categoryID, Amount: Money{Cents: cents}, EffectiveFrom: from}
}

func TestResolveBudget_StepFunction(t *testing.T) {
	jan := date(2024, time.January, 1)
	feb := date(2024, time.February, 1)
	mar := date(2024, time.March, 1)

	versions := []BudgetVersion{
		version(1, 10000, jan),
		version(1, 20000, mar),
	}

	tests := []struct {
		name        string
		periodStart time.Time
		wantSource  BudgetSource
		wantCents   int64
	}{
		{"before first version", date(2023, time.December, 1), BudgetNone, 0},
		{"exactly at first version", jan, BudgetVersioned, 10000},
		{"between versions inherits earlier", feb, BudgetVersioned, 10000},
		{"at later version", mar, BudgetVersioned, 20000},
		{"after later version inherits forward", date(2024, time.June, 1), BudgetVersioned, 20000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveBudget(versions, nil, tt.periodStart)
			if got.Source != tt.wantSource {
				t.Errorf("ResolveBudget().Source = %v, want %v", got.Source, tt.wantSource)
			}
			if got.HasBudget() && got.Amount.Cents != tt.wantCents {
				t.Errorf("ResolveBudget().Amount = %d, want %d", got.Amount.Cents, tt.wantCents)
			}
		})
	}
}

func TestResolveBudget_LegacyFallback(t *testing.T) {
	jan := date(2024, time.January, 1)

	// No versions at all: legacy limit applies.
	got := ResolveBudget(nil, money(5000), jan)
	if got.Source != BudgetLegacy || got.Amount.Cents != 5000 {
		t.Errorf("ResolveBudget() = %+v, want legacy 5000", got)
	}

	// A version on or before the period start shadows the legacy limit.
	versions := []BudgetVersion{version(1, 7000, jan)}
	got = ResolveBudget(versions, money(5000), jan)
	if got.Source != BudgetVersioned || got.Amount.Cents != 7000 {
		t.Errorf("ResolveBudget() = %+v, want versioned 7000", got)
	}

	// A version strictly after the period start does not; legacy still applies.
	versions = []BudgetVersion{version(1, 7000, date(2024, time.February, 1))}
	got = ResolveBudget(versions, money(5000), jan)
	if got.Source != BudgetLegacy || got.Amount.Cents != 5000 {
		t.Errorf("ResolveBudget() = %+v, want legacy 5000", got)
	}
}

func TestResolveBudget_EpsilonIsNoBudget(t *testing.T) {
	jan := date(2024, time.January, 1)

	// A stored zero-amount version resolves to "no budget" and also shadows
	// the legacy limit: removal is a real step, not an absence.
	versions := []BudgetVersion{version(1, 0, jan)}
	got := ResolveBudget(versions, money(5000), jan)
	if got.HasBudget() {
		t.Errorf("ResolveBudget() = %+v, want no budget", got)
	}

	versions = []BudgetVersion{version(1, NoBudgetEpsilonCents, jan)}
	if got := ResolveBudget(versions, nil, jan); got.HasBudget() {
		t.Errorf("amount at epsilon should resolve as no budget, got %+v", got)
	}

	// Legacy limit at or below epsilon is equally no budget.
	if got := ResolveBudget(nil, money(1), jan); got.HasBudget() {
		t.Errorf("legacy limit at epsilon should resolve as no budget, got %+v", got)
	}
}

// Inserting a version at X must never change resolution for period starts
// strictly before X.
func TestResolveBudget_Monotonicity(t *testing.T) {
	jan := date(2024, time.January, 1)
	feb := date(2024, time.February, 1)
	mar := date(2024, time.March, 1)

	before := []BudgetVersion{version(1, 10000, jan)}
	after := append(append([]BudgetVersion{}, before...), version(1, 99900, mar))

	for _, start := range []time.Time{jan, feb, date(2024, time.February, 15)} {
		was := ResolveBudget(before, money(3000), start)
		now := ResolveBudget(after, money(3000), start)
		if was != now {
			t.Errorf("resolution at %v changed from %+v to %+v after inserting a later version", start, was, now)
		}
	}
}
