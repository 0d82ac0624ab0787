package core

// Effect is the signed balance impact of one transaction, in cents.
// SourceDelta applies to the source account; TargetDelta applies to the
// transfer target and is zero for expenses and incomes.
type Effect struct {
	SourceDelta int64
	TargetDelta int64
}

// Inverse returns the effect that exactly undoes e.
func (e Effect) Inverse() Effect {
	return Effect{SourceDelta: -e.SourceDelta, TargetDelta: -e.TargetDelta}
}

// ApplyEffect computes the balance deltas of recording t:
// expense subtracts from the source, income adds to it, transfer moves the
// amount from source to target. A transfer onto its own source account is
// rejected before any effect is produced.
func ApplyEffect(t Transaction) (Effect, error) {
	if err := t.Amount.Validate(); err != nil {
		return Effect{}, err
	}
	switch t.Type {
	case Expense:
		return Effect{SourceDelta: -t.Amount.Cents}, nil
	case Income:
		return Effect{SourceDelta: t.Amount.Cents}, nil
	case Transfer:
		if t.TargetAccountID == nil {
			return Effect{}, ErrMissingTargetAccount
		}
		if *t.TargetAccountID == t.AccountID {
			return Effect{}, ErrSameAccountTransfer
		}
		return Effect{SourceDelta: -t.Amount.Cents, TargetDelta: t.Amount.Cents}, nil
	}
	return Effect{}, ErrInvalidType
}

// RevertEffect computes the deltas that undo a previously applied t.
// RevertEffect(t) is the exact inverse of ApplyEffect(t) for identical input.
func RevertEffect(t Transaction) (Effect, error) {
	e, err := ApplyEffect(t)
	if err != nil {
		return Effect{}, err
	}
	return e.Inverse(), nil
}
