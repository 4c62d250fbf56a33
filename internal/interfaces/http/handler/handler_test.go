package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartprint/backend/internal/application/wallet"
	"github.com/smartprint/backend/internal/domain/account"
	"github.com/smartprint/backend/internal/domain/payment"
	"github.com/smartprint/backend/internal/domain/shared"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
	"github.com/smartprint/backend/internal/infrastructure/auth"
	"github.com/smartprint/backend/internal/infrastructure/config"
	"github.com/smartprint/backend/internal/interfaces/http/middleware"
)

type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*account.Account
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{accounts: make(map[string]*account.Account)}
}

func (r *memAccountRepo) FindByUID(ctx context.Context, uid string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[uid], nil
}

func (r *memAccountRepo) Create(ctx context.Context, acct *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[acct.UID]; ok {
		return shared.ErrAlreadyExists
	}
	r.accounts[acct.UID] = acct
	return nil
}

func (r *memAccountRepo) Save(ctx context.Context, acct *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[acct.UID] = acct
	return nil
}

func (r *memAccountRepo) SaveWithLock(ctx context.Context, acct *account.Account) error {
	return r.Save(ctx, acct)
}

type memTxRepo struct {
	mu  sync.Mutex
	txs []*account.BalanceTransaction
}

func (r *memTxRepo) Create(ctx context.Context, tx *account.BalanceTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs = append(r.txs, tx)
	return nil
}

func (r *memTxRepo) FindByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]account.BalanceTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []account.BalanceTransaction
	for i := len(r.txs) - 1; i >= 0; i-- {
		if r.txs[i].AccountID == accountID {
			out = append(out, *r.txs[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memTxRepo) FindBySourceID(ctx context.Context, sourceID string) (*account.BalanceTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.txs {
		if tx.SourceID == sourceID {
			return tx, nil
		}
	}
	return nil, nil
}

type stubGateway struct {
	rejectSignature bool
	orderErr        error
}

func (g *stubGateway) CreateOrder(ctx context.Context, amount valueobject.Money) (*payment.Order, error) {
	if g.orderErr != nil {
		return nil, g.orderErr
	}
	return &payment.Order{
		OrderID:  "order_test",
		KeyID:    "rzp_test_key",
		Amount:   amount.Paise(),
		Currency: valueobject.INR,
	}, nil
}

func (g *stubGateway) VerifySignature(v payment.Verification) error {
	if g.rejectSignature {
		return payment.ErrInvalidSignature
	}
	return nil
}

type apiFixture struct {
	router  *gin.Engine
	token   string
	gateway *stubGateway
	txs     *memTxRepo
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	accounts := newMemAccountRepo()
	txs := &memTxRepo{}
	ledger := wallet.NewLedgerService(accounts, txs, valueobject.NewMoneyINRFromFloat(100), zap.NewNop())
	gateway := &stubGateway{}
	topUp := wallet.NewTopUpService(gateway, ledger, txs, zap.NewNop())

	jwtSvc := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars-long",
		AccessTokenExpiration: time.Hour,
		Issuer:                "smartprint-backend",
	})
	token, _, err := jwtSvc.IssueToken("uid-1", "user@example.com", "Asha")
	require.NoError(t, err)

	r := gin.New()
	api := r.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(jwtSvc))
	NewPaymentHandler(ledger, topUp, zap.NewNop()).RegisterRoutes(api)
	NewWalletHandler(ledger, zap.NewNop()).RegisterRoutes(api)

	return &apiFixture{router: r, token: token, gateway: gateway, txs: txs}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestBalanceCreatesAccountWithInitialGrant(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/wallet/balance", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "100.00", body["balance"])
	assert.Equal(t, "INR", body["currency"])
}

func TestBalanceRequiresAuth(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/wallet/balance", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"detail"`)
}

func TestCreateOrderReturnsGatewayOrder(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/payments/create-order", map[string]any{"amount": 50})

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "order_test", body["order_id"])
	assert.Equal(t, "rzp_test_key", body["key_id"])
	assert.EqualValues(t, 5000, body["amount"])
	assert.Equal(t, "INR", body["currency"])
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/payments/create-order", map[string]any{"amount": -5})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"detail"`)
}

func TestCreateOrderSurfacesGatewayFailure(t *testing.T) {
	f := newAPIFixture(t)
	f.gateway.orderErr = payment.ErrGatewayRequest

	w := f.do(t, http.MethodPost, "/api/payments/create-order", map[string]any{"amount": 50})

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")
}

func TestVerifyCreditsWalletOnce(t *testing.T) {
	f := newAPIFixture(t)

	proof := map[string]any{
		"razorpay_order_id":   "order_test",
		"razorpay_payment_id": "pay_123",
		"razorpay_signature":  "sig",
		"amount":              50,
	}

	w := f.do(t, http.MethodPost, "/api/payments/verify", proof)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])

	// Replayed proof is acknowledged without a second credit.
	w = f.do(t, http.MethodPost, "/api/payments/verify", proof)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/wallet/balance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "150.00", decode(t, w)["balance"])
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	f := newAPIFixture(t)
	f.gateway.rejectSignature = true

	w := f.do(t, http.MethodPost, "/api/payments/verify", map[string]any{
		"razorpay_order_id":   "order_test",
		"razorpay_payment_id": "pay_123",
		"razorpay_signature":  "forged",
		"amount":              50,
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "verification failed")

	w = f.do(t, http.MethodGet, "/api/wallet/balance", nil)
	assert.Equal(t, "100.00", decode(t, w)["balance"])
}

func TestVerifyRejectsIncompletePayload(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/payments/verify", map[string]any{
		"razorpay_order_id": "order_test",
		"amount":            50,
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "incomplete")
}

func TestTransactionsListsNewestFirst(t *testing.T) {
	f := newAPIFixture(t)

	// EnsureAccount records the initial grant; the verify adds a credit.
	w := f.do(t, http.MethodPost, "/api/payments/verify", map[string]any{
		"razorpay_order_id":   "order_test",
		"razorpay_payment_id": "pay_123",
		"razorpay_signature":  "sig",
		"amount":              25,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/wallet/transactions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	txs, ok := body["transactions"].([]any)
	require.True(t, ok)
	require.Len(t, txs, 2)

	first := txs[0].(map[string]any)
	assert.Equal(t, "CREDIT", first["type"])
	assert.Equal(t, "order_test", first["source_id"])
	assert.Equal(t, "125.00", first["balance_after"])
}

func TestTransactionsRejectsBadLimit(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/wallet/transactions?limit=zero", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
