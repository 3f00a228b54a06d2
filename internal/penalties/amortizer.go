package penalties

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dialadrink/ledger/internal/money"
)

// TxStore is the slice of penalty storage an amortization pass needs. The
// submission approval transaction implements it, so penalty rows are locked
// and reduced inside the same transaction that flips the submission status.
type TxStore interface {
	// ListOpenForUpdate returns the driver's penalties with balance > 0,
	// oldest first, with their rows locked for the calling transaction.
	ListOpenForUpdate(ctx context.Context, driverID int64) ([]Penalty, error)
	// ReduceBalance decrements a penalty's remaining balance.
	ReduceBalance(ctx context.Context, penaltyID int64, by decimal.Decimal) error
}

// Result reports how an incoming settlement amount was consumed.
type Result struct {
	Applied   decimal.Decimal
	Remainder decimal.Decimal
}

// Amortize applies an incoming settlement amount against the driver's open
// penalties, oldest first, and returns what was applied and what remains for
// the general wallet. Invoked exactly once per approval transition; the
// one-way status CAS upstream is what makes replay impossible.
func Amortize(ctx context.Context, store TxStore, driverID int64, incoming decimal.Decimal) (Result, error) {
	res := Result{Applied: decimal.Zero, Remainder: incoming}
	if !incoming.IsPositive() {
		return res, nil
	}

	open, err := store.ListOpenForUpdate(ctx, driverID)
	if err != nil {
		return Result{}, fmt.Errorf("penalties: list open: %w", err)
	}

	for _, p := range open {
		if !res.Remainder.IsPositive() {
			break
		}
		cut := money.Min(p.Balance, res.Remainder)
		if err := store.ReduceBalance(ctx, p.ID, cut); err != nil {
			return Result{}, fmt.Errorf("penalties: reduce balance of %d: %w", p.ID, err)
		}
		res.Applied = res.Applied.Add(cut)
		res.Remainder = res.Remainder.Sub(cut)
	}

	return res, nil
}
