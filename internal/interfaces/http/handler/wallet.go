package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smartprint/backend/internal/application/wallet"
	"github.com/smartprint/backend/internal/interfaces/http/dto"
)

// WalletHandler exposes wallet balance and audit trail reads.
type WalletHandler struct {
	BaseHandler
	ledger *wallet.LedgerService
	logger *zap.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(ledger *wallet.LedgerService, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		ledger: ledger,
		logger: logger,
	}
}

// RegisterRoutes registers wallet routes
func (h *WalletHandler) RegisterRoutes(rg *gin.RouterGroup) {
	walletGroup := rg.Group("/wallet")
	{
		walletGroup.GET("/balance", h.Balance)
		walletGroup.GET("/transactions", h.Transactions)
	}
}

// Balance returns the current wallet balance. The account is created
// with the initial grant on first authenticated contact.
func (h *WalletHandler) Balance(c *gin.Context) {
	id, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	acct, err := h.ledger.EnsureAccount(c.Request.Context(), id.UID, id.Email, id.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.BalanceResponse{
		Balance:  acct.Balance.StringFixed(),
		Currency: string(acct.Balance.Currency()),
	})
}

// Transactions returns the most recent wallet transactions, newest
// first. Optional ?limit= caps the page size.
func (h *WalletHandler) Transactions(c *gin.Context) {
	id, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	ctx := c.Request.Context()
	if _, err := h.ledger.EnsureAccount(ctx, id.UID, id.Email, id.Name); err != nil {
		h.HandleError(c, err)
		return
	}

	txs, err := h.ledger.History(ctx, id.UID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	entries := make([]dto.TransactionEntry, 0, len(txs))
	for _, tx := range txs {
		entries = append(entries, dto.TransactionEntry{
			ID:            tx.ID.String(),
			Type:          string(tx.Type),
			Amount:        tx.Amount.StringFixed(),
			BalanceBefore: tx.BalanceBefore.StringFixed(),
			BalanceAfter:  tx.BalanceAfter.StringFixed(),
			SourceType:    tx.SourceType,
			SourceID:      tx.SourceID,
			CreatedAt:     tx.CreatedAt,
		})
	}

	h.Success(c, dto.TransactionsResponse{Transactions: entries})
}
