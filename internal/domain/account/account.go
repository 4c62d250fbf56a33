package account

import (
	"time"

	"github.com/smartprint/backend/internal/domain/shared"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
)

// Account is the wallet-bearing user account. The balance is the single
// write-authority: it is mutated only through Debit and Credit, and
// persisted with optimistic locking so two concurrent debits can never
// both succeed when only one could be afforded.
type Account struct {
	shared.BaseAggregateRoot
	UID     string            `gorm:"uniqueIndex;not null"`
	Email   string            `gorm:"not null"`
	Name    string            `gorm:"not null"`
	Balance valueobject.Money `gorm:"type:numeric;not null"`
}

// NewAccount creates a new account with the given opening balance
func NewAccount(uid, email, name string, openingBalance valueobject.Money) (*Account, error) {
	if uid == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account UID cannot be empty")
	}
	if email == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account email cannot be empty")
	}
	if openingBalance.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Opening balance cannot be negative")
	}
	if name == "" {
		name = "User"
	}
	return &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UID:               uid,
		Email:             email,
		Name:              name,
		Balance:           openingBalance,
	}, nil
}

// Debit subtracts amount from the balance. Fails with
// shared.ErrInsufficientBalance if the balance cannot cover the amount;
// the balance is never observed negative.
func (a *Account) Debit(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Debit amount must be positive")
	}
	if a.Balance.LessThan(amount) {
		return shared.ErrInsufficientBalance
	}
	newBalance, err := a.Balance.Sub(amount)
	if err != nil {
		return err
	}
	a.Balance = newBalance
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

// Credit adds amount to the balance
func (a *Account) Credit(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}
	newBalance, err := a.Balance.Add(amount)
	if err != nil {
		return err
	}
	a.Balance = newBalance
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
	return nil
}

// HasSufficientBalance reports whether the balance covers amount
func (a *Account) HasSufficientBalance(amount valueobject.Money) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}
