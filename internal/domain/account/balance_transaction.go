package account

import (
	"github.com/google/uuid"
	"github.com/smartprint/backend/internal/domain/shared"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
)

// BalanceTransactionType represents the direction of a balance movement
type BalanceTransactionType string

const (
	// TransactionTypeDebit is a balance deduction for a confirmed print job
	TransactionTypeDebit BalanceTransactionType = "DEBIT"
	// TransactionTypeCredit is a verified top-up credit
	TransactionTypeCredit BalanceTransactionType = "CREDIT"
	// TransactionTypeInitial is the opening balance grant for a new account
	TransactionTypeInitial BalanceTransactionType = "INITIAL"
)

// IsValid checks if the transaction type is a valid value
func (t BalanceTransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDebit, TransactionTypeCredit, TransactionTypeInitial:
		return true
	}
	return false
}

// BalanceTransaction is the immutable audit record of one balance
// movement. SourceID ties a credit to its gateway order so a verified
// payment is applied at most once.
type BalanceTransaction struct {
	shared.BaseEntity
	AccountID     uuid.UUID              `gorm:"type:uuid;not null;index"`
	Type          BalanceTransactionType `gorm:"not null"`
	Amount        valueobject.Money      `gorm:"type:numeric;not null"`
	BalanceBefore valueobject.Money      `gorm:"type:numeric;not null"`
	BalanceAfter  valueobject.Money      `gorm:"type:numeric;not null"`
	SourceType    string                 `gorm:"not null"`
	SourceID      string                 `gorm:"index"`
}

// NewBalanceTransaction creates a balance transaction record
func NewBalanceTransaction(
	accountID uuid.UUID,
	txType BalanceTransactionType,
	amount, balanceBefore, balanceAfter valueobject.Money,
	sourceType, sourceID string,
) (*BalanceTransaction, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown transaction type: "+string(txType))
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount cannot be negative")
	}
	return &BalanceTransaction{
		BaseEntity:    shared.NewBaseEntity(),
		AccountID:     accountID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		SourceType:    sourceType,
		SourceID:      sourceID,
	}, nil
}
