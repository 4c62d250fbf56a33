package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smartprint/backend/internal/domain/account"
	"github.com/smartprint/backend/internal/domain/payment"
	"github.com/smartprint/backend/internal/domain/shared"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
)

// MockAccountRepository is a mock implementation of account.Repository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByUID(ctx context.Context, uid string) (*account.Account, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, acct *account.Account) error {
	args := m.Called(ctx, acct)
	return args.Error(0)
}

func (m *MockAccountRepository) Save(ctx context.Context, acct *account.Account) error {
	args := m.Called(ctx, acct)
	return args.Error(0)
}

func (m *MockAccountRepository) SaveWithLock(ctx context.Context, acct *account.Account) error {
	args := m.Called(ctx, acct)
	return args.Error(0)
}

// MockBalanceTransactionRepository is a mock implementation of
// account.BalanceTransactionRepository
type MockBalanceTransactionRepository struct {
	mock.Mock
}

func (m *MockBalanceTransactionRepository) Create(ctx context.Context, tx *account.BalanceTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockBalanceTransactionRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]account.BalanceTransaction, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]account.BalanceTransaction), args.Error(1)
}

func (m *MockBalanceTransactionRepository) FindBySourceID(ctx context.Context, sourceID string) (*account.BalanceTransaction, error) {
	args := m.Called(ctx, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.BalanceTransaction), args.Error(1)
}

// MockGateway is a mock implementation of payment.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateOrder(ctx context.Context, amount valueobject.Money) (*payment.Order, error) {
	args := m.Called(ctx, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Order), args.Error(1)
}

func (m *MockGateway) VerifySignature(v payment.Verification) error {
	args := m.Called(v)
	return args.Error(0)
}

func inr(amount float64) valueobject.Money {
	return valueobject.NewMoneyINRFromFloat(amount)
}

func testAccount(t *testing.T, balance float64) *account.Account {
	t.Helper()
	acct, err := account.NewAccount("uid-1", "jo@example.com", "Jo", inr(balance))
	require.NoError(t, err)
	return acct
}

func newLedger(accounts *MockAccountRepository, txs *MockBalanceTransactionRepository) *LedgerService {
	return NewLedgerService(accounts, txs, inr(100), nil)
}

func TestEnsureAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("returns existing account without granting again", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		txs := new(MockBalanceTransactionRepository)
		existing := testAccount(t, 42)
		accounts.On("FindByUID", ctx, "uid-1").Return(existing, nil)

		acct, err := newLedger(accounts, txs).EnsureAccount(ctx, "uid-1", "jo@example.com", "Jo")

		require.NoError(t, err)
		assert.True(t, acct.Balance.Equal(inr(42)))
		accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		txs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("creates account with initial grant on first contact", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		txs := new(MockBalanceTransactionRepository)
		accounts.On("FindByUID", ctx, "uid-1").Return(nil, nil)
		accounts.On("Create", ctx, mock.AnythingOfType("*account.Account")).Return(nil)
		txs.On("Create", ctx, mock.AnythingOfType("*account.BalanceTransaction")).Return(nil)

		acct, err := newLedger(accounts, txs).EnsureAccount(ctx, "uid-1", "jo@example.com", "Jo")

		require.NoError(t, err)
		assert.True(t, acct.Balance.Equal(inr(100)))

		recorded := txs.Calls[0].Arguments.Get(1).(*account.BalanceTransaction)
		assert.Equal(t, account.TransactionTypeInitial, recorded.Type)
		assert.True(t, recorded.Amount.Equal(inr(100)))
		assert.True(t, recorded.BalanceBefore.IsZero())
		assert.True(t, recorded.BalanceAfter.Equal(inr(100)))
		assert.Equal(t, SourceTypeSignupGrant, recorded.SourceType)
	})

	t.Run("lost creation race falls back to the winner's row", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		txs := new(MockBalanceTransactionRepository)
		winner := testAccount(t, 100)
		accounts.On("FindByUID", ctx, "uid-1").Return(nil, nil).Once()
		accounts.On("Create", ctx, mock.Anything).Return(shared.ErrAlreadyExists)
		accounts.On("FindByUID", ctx, "uid-1").Return(winner, nil).Once()

		acct, err := newLedger(accounts, txs).EnsureAccount(ctx, "uid-1", "jo@example.com", "Jo")

		require.NoError(t, err)
		assert.Same(t, winner, acct)
		txs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestLedgerDebit(t *testing.T) {
	ctx := context.Background()

	t.Run("debits and records the transaction", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		txs := new(MockBalanceTransactionRepository)
		acct := testAccount(t, 100)
		accounts.On("FindByUID", ctx, "uid-1").Return(acct, nil)
		accounts.On("SaveWithLock", ctx, acct).Return(nil)
		txs.On("Create", ctx, mock.AnythingOfType("*account.BalanceTransaction")).Return(nil)

		tx, err := newLedger(accounts, txs).Debit(ctx, "uid-1", inr(2.5), SourceTypePrintJob, "job-1")

		require.NoError(t, err)
		assert.True(t, acct.Balance.Equal(inr(97.5)))
		assert.Equal(t, account.TransactionTypeDebit, tx.Type)
		assert.True(t, tx.BalanceBefore.Equal(inr(100)))
		assert.True(t, tx.BalanceAfter.Equal(inr(97.5)))
		assert.Equal(t, "job-1", tx.SourceID)
	})

	t.Run("insufficient balance aborts without writing", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		txs := new(MockBalanceTransactionRepository)
		acct := testAccount(t, 1)
		accounts.On("FindByUID", ctx, "uid-1").Return(acct, nil)

		_, err := newLedger(accounts, txs).Debit(ctx, "uid-1", inr(2), SourceTypePrintJob, "job-1")

		assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
		assert.True(t, acct.Balance.Equal(inr(1)))
		accounts.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		txs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("re-reads and retries after a lost optimistic lock", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		txs := new(MockBalanceTransactionRepository)
		stale := testAccount(t, 100)
		fresh := testAccount(t, 80)
		accounts.On("FindByUID", ctx, "uid-1").Return(stale, nil).Once()
		accounts.On("SaveWithLock", ctx, stale).Return(shared.ErrConcurrencyConflict).Once()
		accounts.On("FindByUID", ctx, "uid-1").Return(fresh, nil).Once()
		accounts.On("SaveWithLock", ctx, fresh).Return(nil).Once()
		txs.On("Create", ctx, mock.AnythingOfType("*account.BalanceTransaction")).Return(nil)

		tx, err := newLedger(accounts, txs).Debit(ctx, "uid-1", inr(10), SourceTypePrintJob, "job-1")

		require.NoError(t, err)
		assert.True(t, tx.BalanceBefore.Equal(inr(80)))
		assert.True(t, tx.BalanceAfter.Equal(inr(70)))
	})

	t.Run("gives up after exhausting retries", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		txs := new(MockBalanceTransactionRepository)
		accounts.On("FindByUID", ctx, "uid-1").Return(testAccount(t, 100), nil)
		accounts.On("SaveWithLock", ctx, mock.Anything).Return(shared.ErrConcurrencyConflict)

		_, err := newLedger(accounts, txs).Debit(ctx, "uid-1", inr(10), SourceTypePrintJob, "job-1")

		// surfaced as an insufficient-balance failure so the caller
		// re-reads the moving balance instead of seeing a lock error
		assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
		accounts.AssertNumberOfCalls(t, "SaveWithLock", maxDebitRetries)
		txs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown account", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		txs := new(MockBalanceTransactionRepository)
		accounts.On("FindByUID", ctx, "ghost").Return(nil, nil)

		_, err := newLedger(accounts, txs).Debit(ctx, "ghost", inr(10), SourceTypePrintJob, "job-1")

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestLedgerCredit(t *testing.T) {
	ctx := context.Background()

	t.Run("credits and records the transaction", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		txs := new(MockBalanceTransactionRepository)
		acct := testAccount(t, 10)
		accounts.On("FindByUID", ctx, "uid-1").Return(acct, nil)
		accounts.On("SaveWithLock", ctx, acct).Return(nil)
		txs.On("Create", ctx, mock.AnythingOfType("*account.BalanceTransaction")).Return(nil)

		tx, err := newLedger(accounts, txs).Credit(ctx, "uid-1", inr(50), SourceTypeGatewayTopUp, "order_1")

		require.NoError(t, err)
		assert.True(t, acct.Balance.Equal(inr(60)))
		assert.Equal(t, account.TransactionTypeCredit, tx.Type)
		assert.Equal(t, "order_1", tx.SourceID)
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		txs := new(MockBalanceTransactionRepository)

		_, err := newLedger(accounts, txs).Credit(ctx, "uid-1", inr(0), SourceTypeGatewayTopUp, "order_1")

		require.Error(t, err)
		assert.Equal(t, "INVALID_AMOUNT", shared.CodeOf(err))
	})
}

func TestTopUpCreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("delegates to the gateway", func(t *testing.T) {
		gateway := new(MockGateway)
		gateway.On("CreateOrder", ctx, inr(150)).Return(&payment.Order{
			OrderID:  "order_abc",
			KeyID:    "rzp_test_key",
			Amount:   15000,
			Currency: valueobject.INR,
		}, nil)

		svc := NewTopUpService(gateway, nil, nil, nil)
		order, err := svc.CreateOrder(ctx, inr(150))

		require.NoError(t, err)
		assert.Equal(t, "order_abc", order.OrderID)
		assert.Equal(t, int64(15000), order.Amount)
	})

	t.Run("rejects non-positive amounts before the gateway", func(t *testing.T) {
		gateway := new(MockGateway)

		svc := NewTopUpService(gateway, nil, nil, nil)
		_, err := svc.CreateOrder(ctx, inr(0))

		assert.ErrorIs(t, err, payment.ErrInvalidAmount)
		gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})
}

func TestTopUpVerify(t *testing.T) {
	ctx := context.Background()
	proof := payment.Verification{
		OrderID:   "order_abc",
		PaymentID: "pay_123",
		Signature: "deadbeef",
	}

	t.Run("verified proof credits the wallet once", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		txs := new(MockBalanceTransactionRepository)
		gateway := new(MockGateway)
		acct := testAccount(t, 10)
		accounts.On("FindByUID", ctx, "uid-1").Return(acct, nil)
		accounts.On("SaveWithLock", ctx, acct).Return(nil)
		txs.On("FindBySourceID", ctx, "order_abc").Return(nil, nil)
		txs.On("Create", ctx, mock.AnythingOfType("*account.BalanceTransaction")).Return(nil)
		gateway.On("VerifySignature", proof).Return(nil)

		svc := NewTopUpService(gateway, newLedger(accounts, txs), txs, nil)
		err := svc.Verify(ctx, "uid-1", inr(50), proof)

		require.NoError(t, err)
		assert.True(t, acct.Balance.Equal(inr(60)))
	})

	t.Run("replayed proof is acknowledged without a second credit", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		txs := new(MockBalanceTransactionRepository)
		gateway := new(MockGateway)
		prior := &account.BalanceTransaction{SourceID: "order_abc"}
		txs.On("FindBySourceID", ctx, "order_abc").Return(prior, nil)
		gateway.On("VerifySignature", proof).Return(nil)

		svc := NewTopUpService(gateway, newLedger(accounts, txs), txs, nil)
		err := svc.Verify(ctx, "uid-1", inr(50), proof)

		require.NoError(t, err)
		accounts.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		txs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("bad signature has no balance effect", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		txs := new(MockBalanceTransactionRepository)
		gateway := new(MockGateway)
		gateway.On("VerifySignature", proof).Return(payment.ErrInvalidSignature)

		svc := NewTopUpService(gateway, newLedger(accounts, txs), txs, nil)
		err := svc.Verify(ctx, "uid-1", inr(50), proof)

		assert.ErrorIs(t, err, payment.ErrInvalidSignature)
		accounts.AssertNotCalled(t, "FindByUID", mock.Anything, mock.Anything)
		txs.AssertNotCalled(t, "FindBySourceID", mock.Anything, mock.Anything)
	})

	t.Run("incomplete proof rejected before the gateway", func(t *testing.T) {
		gateway := new(MockGateway)

		svc := NewTopUpService(gateway, nil, nil, nil)
		err := svc.Verify(ctx, "uid-1", inr(50), payment.Verification{OrderID: "order_abc"})

		assert.ErrorIs(t, err, payment.ErrVerificationFields)
		gateway.AssertNotCalled(t, "VerifySignature", mock.Anything)
	})

	t.Run("gateway errors pass through", func(t *testing.T) {
		gateway := new(MockGateway)
		boom := errors.New("gateway down")
		gateway.On("CreateOrder", ctx, inr(20)).Return(nil, boom)

		svc := NewTopUpService(gateway, nil, nil, nil)
		_, err := svc.CreateOrder(ctx, inr(20))

		assert.ErrorIs(t, err, boom)
	})
}
