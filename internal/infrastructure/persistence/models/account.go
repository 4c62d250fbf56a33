package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartprint/backend/internal/domain/account"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
)

// AccountModel is the persistence model for wallet accounts
type AccountModel struct {
	AggregateModel
	UID     string          `gorm:"type:varchar(128);not null;uniqueIndex"`
	Email   string          `gorm:"type:varchar(320);not null"`
	Name    string          `gorm:"type:varchar(200);not null"`
	Balance decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account
func (m *AccountModel) ToDomain() *account.Account {
	return &account.Account{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		UID:               m.UID,
		Email:             m.Email,
		Name:              m.Name,
		Balance:           valueobject.NewMoneyINR(m.Balance),
	}
}

// AccountModelFromDomain converts a domain Account to the persistence model
func AccountModelFromDomain(a *account.Account) *AccountModel {
	m := &AccountModel{
		UID:     a.UID,
		Email:   a.Email,
		Name:    a.Name,
		Balance: a.Balance.Amount(),
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

// BalanceTransactionModel is the persistence model for the balance
// audit trail
type BalanceTransactionModel struct {
	BaseModel
	AccountID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type          string          `gorm:"type:varchar(20);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SourceType    string          `gorm:"type:varchar(50);not null"`
	SourceID      string          `gorm:"type:varchar(128);index"`
}

// TableName returns the table name for GORM
func (BalanceTransactionModel) TableName() string {
	return "balance_transactions"
}

// ToDomain converts the persistence model to a domain BalanceTransaction
func (m *BalanceTransactionModel) ToDomain() *account.BalanceTransaction {
	return &account.BalanceTransaction{
		BaseEntity:    m.BaseModel.ToDomain(),
		AccountID:     m.AccountID,
		Type:          account.BalanceTransactionType(m.Type),
		Amount:        valueobject.NewMoneyINR(m.Amount),
		BalanceBefore: valueobject.NewMoneyINR(m.BalanceBefore),
		BalanceAfter:  valueobject.NewMoneyINR(m.BalanceAfter),
		SourceType:    m.SourceType,
		SourceID:      m.SourceID,
	}
}

// BalanceTransactionModelFromDomain converts a domain BalanceTransaction
// to the persistence model
func BalanceTransactionModelFromDomain(tx *account.BalanceTransaction) *BalanceTransactionModel {
	m := &BalanceTransactionModel{
		AccountID:     tx.AccountID,
		Type:          string(tx.Type),
		Amount:        tx.Amount.Amount(),
		BalanceBefore: tx.BalanceBefore.Amount(),
		BalanceAfter:  tx.BalanceAfter.Amount(),
		SourceType:    tx.SourceType,
		SourceID:      tx.SourceID,
	}
	m.FromDomainBaseEntity(tx.BaseEntity)
	return m
}
