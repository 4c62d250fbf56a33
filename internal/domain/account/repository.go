package account

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages Account persistence
type Repository interface {
	// FindByUID finds an account by its auth UID, nil if not found
	FindByUID(ctx context.Context, uid string) (*Account, error)

	// Create persists a new account
	Create(ctx context.Context, account *Account) error

	// Save updates an account without a version check
	Save(ctx context.Context, account *Account) error

	// SaveWithLock updates an account with an optimistic version check.
	// Returns shared.ErrConcurrencyConflict if another writer committed
	// first; callers re-read and retry or abort.
	SaveWithLock(ctx context.Context, account *Account) error
}

// BalanceTransactionRepository manages the balance audit trail
type BalanceTransactionRepository interface {
	// Create persists a balance transaction record
	Create(ctx context.Context, tx *BalanceTransaction) error

	// FindByAccount lists transactions for an account, newest first
	FindByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]BalanceTransaction, error)

	// FindBySourceID finds a transaction by its source reference
	// (e.g. a gateway order id), nil if not found
	FindBySourceID(ctx context.Context, sourceID string) (*BalanceTransaction, error)
}
