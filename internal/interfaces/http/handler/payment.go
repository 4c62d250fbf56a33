package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smartprint/backend/internal/application/wallet"
	"github.com/smartprint/backend/internal/domain/payment"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
	"github.com/smartprint/backend/internal/interfaces/http/dto"
)

// PaymentHandler exposes the gateway top-up endpoints.
type PaymentHandler struct {
	BaseHandler
	ledger *wallet.LedgerService
	topUp  *wallet.TopUpService
	logger *zap.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(ledger *wallet.LedgerService, topUp *wallet.TopUpService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		ledger: ledger,
		topUp:  topUp,
		logger: logger,
	}
}

// RegisterRoutes registers payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("/create-order", h.CreateOrder)
		payments.POST("/verify", h.Verify)
	}
}

// CreateOrder creates a gateway order for a wallet top-up. The amount
// arrives in rupees and goes to the gateway in paise.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	id, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "amount must be a positive number")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.ledger.EnsureAccount(ctx, id.UID, id.Email, id.Name); err != nil {
		h.HandleError(c, err)
		return
	}

	order, err := h.topUp.CreateOrder(ctx, valueobject.NewMoneyINRFromFloat(req.Amount))
	if err != nil {
		h.logger.Warn("top-up order creation failed",
			zap.String("uid", id.UID),
			zap.Float64("amount", req.Amount),
			zap.Error(err))
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.CreateOrderResponse{
		OrderID:  order.OrderID,
		KeyID:    order.KeyID,
		Amount:   order.Amount,
		Currency: string(order.Currency),
	})
}

// Verify checks the gateway completion proof and credits the wallet
// exactly once per order.
func (h *PaymentHandler) Verify(c *gin.Context) {
	id, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "verification payload is incomplete")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.ledger.EnsureAccount(ctx, id.UID, id.Email, id.Name); err != nil {
		h.HandleError(c, err)
		return
	}

	err := h.topUp.Verify(ctx, id.UID, valueobject.NewMoneyINRFromFloat(req.Amount), payment.Verification{
		OrderID:   req.RazorpayOrderID,
		PaymentID: req.RazorpayPaymentID,
		Signature: req.RazorpaySignature,
	})
	if err != nil {
		h.logger.Warn("top-up verification failed",
			zap.String("uid", id.UID),
			zap.String("order_id", req.RazorpayOrderID),
			zap.Error(err))
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.VerifyPaymentResponse{
		Success: true,
		Message: "payment verified and wallet credited",
	})
}
