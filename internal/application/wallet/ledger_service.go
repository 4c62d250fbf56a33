package wallet

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/smartprint/backend/internal/domain/account"
	"github.com/smartprint/backend/internal/domain/shared"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
)

// maxDebitRetries bounds the optimistic-lock retry loop. Each retry
// re-reads the account, so a stale balance never decides a debit.
const maxDebitRetries = 3

// Source types recorded on balance transactions
const (
	SourceTypeSignupGrant  = "SIGNUP_GRANT"
	SourceTypePrintJob     = "PRINT_JOB"
	SourceTypeGatewayTopUp = "GATEWAY_TOPUP"
)

// LedgerService is the single write path to wallet balances. Every
// balance movement goes through it and leaves an audit transaction.
type LedgerService struct {
	accounts       account.Repository
	transactions   account.BalanceTransactionRepository
	initialBalance valueobject.Money
	logger         *zap.Logger
}

// NewLedgerService creates a ledger service. initialBalance is granted
// to accounts on first contact.
func NewLedgerService(
	accounts account.Repository,
	transactions account.BalanceTransactionRepository,
	initialBalance valueobject.Money,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		accounts:       accounts,
		transactions:   transactions,
		initialBalance: initialBalance,
		logger:         logger,
	}
}

// EnsureAccount returns the account for uid, creating it with the
// initial balance grant on first contact.
func (s *LedgerService) EnsureAccount(ctx context.Context, uid, email, name string) (*account.Account, error) {
	existing, err := s.accounts.FindByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	acct, err := account.NewAccount(uid, email, name, s.initialBalance)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		// Lost a creation race; the winner's row is authoritative.
		raced, findErr := s.accounts.FindByUID(ctx, uid)
		if findErr == nil && raced != nil {
			return raced, nil
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if s.initialBalance.IsPositive() {
		tx, err := account.NewBalanceTransaction(
			acct.ID, account.TransactionTypeInitial,
			s.initialBalance, valueobject.Zero(s.initialBalance.Currency()), s.initialBalance,
			SourceTypeSignupGrant, uid,
		)
		if err != nil {
			return nil, err
		}
		if err := s.transactions.Create(ctx, tx); err != nil {
			return nil, fmt.Errorf("failed to record initial grant: %w", err)
		}
	}

	s.logger.Info("account created with initial grant",
		zap.String("uid", uid),
		zap.String("balance", acct.Balance.StringFixed()),
	)
	return acct, nil
}

// Balance returns the current balance for uid
func (s *LedgerService) Balance(ctx context.Context, uid string) (valueobject.Money, error) {
	acct, err := s.accounts.FindByUID(ctx, uid)
	if err != nil {
		return valueobject.Money{}, fmt.Errorf("failed to look up account: %w", err)
	}
	if acct == nil {
		return valueobject.Money{}, shared.ErrNotFound
	}
	return acct.Balance, nil
}

// Debit atomically subtracts amount from the account balance and records
// a DEBIT transaction. The read-check-write is protected by optimistic
// locking: a concurrent balance change forces a re-read, so of two
// racing debits that only one balance could cover, exactly one succeeds
// and the other fails with shared.ErrInsufficientBalance.
func (s *LedgerService) Debit(ctx context.Context, uid string, amount valueobject.Money, sourceType, sourceID string) (*account.BalanceTransaction, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Debit amount must be positive")
	}

	var lastErr error
	for attempt := 0; attempt < maxDebitRetries; attempt++ {
		acct, err := s.accounts.FindByUID(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("failed to look up account: %w", err)
		}
		if acct == nil {
			return nil, shared.ErrNotFound
		}

		balanceBefore := acct.Balance
		if err := acct.Debit(amount); err != nil {
			return nil, err
		}

		if err := s.accounts.SaveWithLock(ctx, acct); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				lastErr = err
				s.logger.Debug("debit lost optimistic lock, retrying",
					zap.String("uid", uid),
					zap.Int("attempt", attempt+1),
				)
				continue
			}
			return nil, fmt.Errorf("failed to save account: %w", err)
		}

		tx, err := account.NewBalanceTransaction(
			acct.ID, account.TransactionTypeDebit,
			amount, balanceBefore, acct.Balance,
			sourceType, sourceID,
		)
		if err != nil {
			return nil, err
		}
		if err := s.transactions.Create(ctx, tx); err != nil {
			return nil, fmt.Errorf("failed to record debit: %w", err)
		}

		s.logger.Info("wallet debited",
			zap.String("uid", uid),
			zap.String("amount", amount.StringFixed()),
			zap.String("balance", acct.Balance.StringFixed()),
		)
		return tx, nil
	}

	// Losing the lock every attempt means the balance kept moving under
	// us; the caller must re-read it and decide again, same as when the
	// money was short to begin with.
	s.logger.Warn("debit abandoned after retries",
		zap.String("uid", uid),
		zap.Int("attempts", maxDebitRetries),
		zap.Error(lastErr),
	)
	return nil, shared.ErrInsufficientBalance
}

// Credit atomically adds amount to the account balance and records a
// CREDIT transaction.
func (s *LedgerService) Credit(ctx context.Context, uid string, amount valueobject.Money, sourceType, sourceID string) (*account.BalanceTransaction, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}

	var lastErr error
	for attempt := 0; attempt < maxDebitRetries; attempt++ {
		acct, err := s.accounts.FindByUID(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("failed to look up account: %w", err)
		}
		if acct == nil {
			return nil, shared.ErrNotFound
		}

		balanceBefore := acct.Balance
		if err := acct.Credit(amount); err != nil {
			return nil, err
		}

		if err := s.accounts.SaveWithLock(ctx, acct); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("failed to save account: %w", err)
		}

		tx, err := account.NewBalanceTransaction(
			acct.ID, account.TransactionTypeCredit,
			amount, balanceBefore, acct.Balance,
			sourceType, sourceID,
		)
		if err != nil {
			return nil, err
		}
		if err := s.transactions.Create(ctx, tx); err != nil {
			return nil, fmt.Errorf("failed to record credit: %w", err)
		}

		s.logger.Info("wallet credited",
			zap.String("uid", uid),
			zap.String("amount", amount.StringFixed()),
			zap.String("balance", acct.Balance.StringFixed()),
		)
		return tx, nil
	}
	return nil, lastErr
}

// History lists the most recent balance transactions for uid
func (s *LedgerService) History(ctx context.Context, uid string, limit int) ([]account.BalanceTransaction, error) {
	acct, err := s.accounts.FindByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if acct == nil {
		return nil, shared.ErrNotFound
	}
	return s.transactions.FindByAccount(ctx, acct.ID, limit)
}
