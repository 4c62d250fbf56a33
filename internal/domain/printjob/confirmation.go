package printjob

import (
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
)

// ConfirmationContext is the snapshot presented to the user when checkout
// enters confirmation: the balance read at that moment, the job cost, the
// projected balance after debit and the shortfall to top up.
//
// After a top-up the context must be rebuilt from a fresh balance read,
// never recomputed from a stale snapshot.
type ConfirmationContext struct {
	Balance          valueobject.Money `json:"current_balance"`
	Cost             valueobject.Money `json:"printing_cost"`
	ProjectedBalance valueobject.Money `json:"new_balance"`
	Shortfall        valueobject.Money `json:"shortfall"`
}

// NewConfirmationContext builds a confirmation snapshot from a balance
// read and a job cost. Shortfall is max(0, cost - balance).
func NewConfirmationContext(balance, cost valueobject.Money) (ConfirmationContext, error) {
	projected, err := balance.Sub(cost)
	if err != nil {
		return ConfirmationContext{}, err
	}
	shortfall, err := cost.Sub(balance)
	if err != nil {
		return ConfirmationContext{}, err
	}
	if shortfall.IsNegative() {
		shortfall = valueobject.Zero(cost.Currency())
	}
	return ConfirmationContext{
		Balance:          balance,
		Cost:             cost,
		ProjectedBalance: projected,
		Shortfall:        shortfall,
	}, nil
}

// CanConfirm reports whether the debit may be attempted: the projected
// balance must not be negative. The UI blocks confirmation rather than
// relying on the debit failing.
func (c ConfirmationContext) CanConfirm() bool {
	return !c.ProjectedBalance.IsNegative()
}

// NeedsTopUp reports whether a top-up is required before confirming
func (c ConfirmationContext) NeedsTopUp() bool {
	return c.Shortfall.IsPositive()
}
