package account

import (
	"testing"

	"github.com/google/uuid"
	"github.com/smartprint/backend/internal/domain/shared"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccount(t *testing.T, balance float64) *Account {
	t.Helper()
	acct, err := NewAccount("uid-1", "user@example.com", "Test User", valueobject.NewMoneyINRFromFloat(balance))
	require.NoError(t, err)
	return acct
}

func TestNewAccount(t *testing.T) {
	t.Run("valid account", func(t *testing.T) {
		acct := newTestAccount(t, 100)
		assert.Equal(t, "100.00", acct.Balance.StringFixed())
		assert.Equal(t, 1, acct.GetVersion())
	})

	t.Run("defaults empty name", func(t *testing.T) {
		acct, err := NewAccount("uid-1", "user@example.com", "", valueobject.ZeroINR())
		require.NoError(t, err)
		assert.Equal(t, "User", acct.Name)
	})

	t.Run("rejects missing uid", func(t *testing.T) {
		_, err := NewAccount("", "user@example.com", "U", valueobject.ZeroINR())
		assert.Error(t, err)
	})

	t.Run("rejects negative opening balance", func(t *testing.T) {
		_, err := NewAccount("uid-1", "user@example.com", "U", valueobject.NewMoneyINRFromFloat(-1))
		assert.Error(t, err)
	})
}

func TestAccountDebit(t *testing.T) {
	t.Run("success leaves exact remainder", func(t *testing.T) {
		acct := newTestAccount(t, 10)
		require.NoError(t, acct.Debit(valueobject.NewMoneyINRFromFloat(2.5)))
		assert.Equal(t, "7.50", acct.Balance.StringFixed())
		assert.Equal(t, 2, acct.GetVersion())
	})

	t.Run("insufficient balance fails whole operation", func(t *testing.T) {
		acct := newTestAccount(t, 10)
		err := acct.Debit(valueobject.NewMoneyINRFromFloat(12))
		assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
		assert.Equal(t, "10.00", acct.Balance.StringFixed())
		assert.Equal(t, 1, acct.GetVersion())
	})

	t.Run("debit of entire balance allowed", func(t *testing.T) {
		acct := newTestAccount(t, 10)
		require.NoError(t, acct.Debit(valueobject.NewMoneyINRFromFloat(10)))
		assert.True(t, acct.Balance.IsZero())
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		acct := newTestAccount(t, 10)
		assert.Error(t, acct.Debit(valueobject.ZeroINR()))
		assert.Error(t, acct.Debit(valueobject.NewMoneyINRFromFloat(-1)))
	})
}

func TestAccountCredit(t *testing.T) {
	acct := newTestAccount(t, 10)
	require.NoError(t, acct.Credit(valueobject.NewMoneyINRFromFloat(5)))
	assert.Equal(t, "15.00", acct.Balance.StringFixed())

	assert.Error(t, acct.Credit(valueobject.ZeroINR()))
}

func TestAccountHasSufficientBalance(t *testing.T) {
	acct := newTestAccount(t, 10)
	assert.True(t, acct.HasSufficientBalance(valueobject.NewMoneyINRFromFloat(10)))
	assert.False(t, acct.HasSufficientBalance(valueobject.NewMoneyINRFromFloat(10.01)))
}

func TestNewBalanceTransaction(t *testing.T) {
	accountID := uuid.New()

	t.Run("valid transaction", func(t *testing.T) {
		tx, err := NewBalanceTransaction(
			accountID,
			TransactionTypeCredit,
			valueobject.NewMoneyINRFromFloat(5),
			valueobject.NewMoneyINRFromFloat(10),
			valueobject.NewMoneyINRFromFloat(15),
			"RAZORPAY_ORDER",
			"order_123",
		)
		require.NoError(t, err)
		assert.Equal(t, "order_123", tx.SourceID)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		_, err := NewBalanceTransaction(
			accountID,
			BalanceTransactionType("BONUS"),
			valueobject.ZeroINR(), valueobject.ZeroINR(), valueobject.ZeroINR(),
			"", "",
		)
		assert.Error(t, err)
	})

	t.Run("nil account rejected", func(t *testing.T) {
		_, err := NewBalanceTransaction(
			uuid.Nil,
			TransactionTypeDebit,
			valueobject.ZeroINR(), valueobject.ZeroINR(), valueobject.ZeroINR(),
			"", "",
		)
		assert.Error(t, err)
	})
}
