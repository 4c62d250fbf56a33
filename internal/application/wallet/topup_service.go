package wallet

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/smartprint/backend/internal/domain/account"
	"github.com/smartprint/backend/internal/domain/payment"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
)

// TopUpService drives the gateway top-up flow: create an order for the
// chosen amount, then credit the wallet once the completion proof
// verifies. Credits are idempotent per gateway order.
type TopUpService struct {
	gateway      payment.Gateway
	ledger       *LedgerService
	transactions account.BalanceTransactionRepository
	logger       *zap.Logger
}

// NewTopUpService creates a top-up service
func NewTopUpService(
	gateway payment.Gateway,
	ledger *LedgerService,
	transactions account.BalanceTransactionRepository,
	logger *zap.Logger,
) *TopUpService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopUpService{
		gateway:      gateway,
		ledger:       ledger,
		transactions: transactions,
		logger:       logger,
	}
}

// CreateOrder creates a gateway order for the given top-up amount
func (s *TopUpService) CreateOrder(ctx context.Context, amount valueobject.Money) (*payment.Order, error) {
	if !amount.IsPositive() {
		return nil, payment.ErrInvalidAmount
	}
	order, err := s.gateway.CreateOrder(ctx, amount)
	if err != nil {
		return nil, err
	}
	s.logger.Info("top-up order created",
		zap.String("order_id", order.OrderID),
		zap.Int64("amount_paise", order.Amount),
	)
	return order, nil
}

// Verify checks the gateway completion proof and credits the wallet.
// A proof that fails signature verification has no balance effect. A
// proof for an order that was already credited is acknowledged without
// crediting again.
func (s *TopUpService) Verify(ctx context.Context, uid string, amount valueobject.Money, v payment.Verification) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return payment.ErrInvalidAmount
	}
	if err := s.gateway.VerifySignature(v); err != nil {
		s.logger.Warn("top-up verification rejected",
			zap.String("uid", uid),
			zap.String("order_id", v.OrderID),
			zap.Error(err),
		)
		return err
	}

	applied, err := s.transactions.FindBySourceID(ctx, v.OrderID)
	if err != nil {
		return fmt.Errorf("failed to check for prior credit: %w", err)
	}
	if applied != nil {
		s.logger.Info("top-up already credited, skipping",
			zap.String("uid", uid),
			zap.String("order_id", v.OrderID),
		)
		return nil
	}

	if _, err := s.ledger.Credit(ctx, uid, amount, SourceTypeGatewayTopUp, v.OrderID); err != nil {
		return fmt.Errorf("failed to credit verified top-up: %w", err)
	}
	s.logger.Info("top-up credited",
		zap.String("uid", uid),
		zap.String("order_id", v.OrderID),
		zap.String("amount", amount.StringFixed()),
	)
	return nil
}
