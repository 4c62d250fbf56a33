package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/smartprint/backend/internal/domain/shared/valueobject"
)

var (
	ErrInvalidAmount      = errors.New("payment: top-up amount must be positive")
	ErrGatewayRequest     = errors.New("payment: gateway request failed")
	ErrInvalidResponse    = errors.New("payment: invalid gateway response")
	ErrInvalidSignature   = errors.New("payment: signature verification failed")
	ErrVerificationFields = errors.New("payment: verification payload is incomplete")
)

// GatewayError carries the detail message returned by the gateway on a
// non-success response so it can be surfaced to the user verbatim.
type GatewayError struct {
	StatusCode int
	Detail     string
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("payment: gateway returned status %d", e.StatusCode)
	}
	return e.Detail
}

// Order is a gateway payment order, created server-side and consumed
// exactly once by the gateway's checkout flow.
type Order struct {
	OrderID  string               `json:"order_id"`
	KeyID    string               `json:"key_id"`
	Amount   int64                `json:"amount"` // minor currency unit (paise)
	Currency valueobject.Currency `json:"currency"`
	Receipt  string               `json:"receipt,omitempty"`
}

// Verification is the proof produced by the gateway when the user
// completes checkout. It must pass server-side signature verification
// before any balance effect is trusted.
type Verification struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// Validate checks the verification payload carries all fields
func (v Verification) Validate() error {
	if v.OrderID == "" || v.PaymentID == "" || v.Signature == "" {
		return ErrVerificationFields
	}
	return nil
}

// Gateway abstracts the external payment processor. Implementations
// create orders and verify completion signatures; they never credit the
// wallet themselves - the application layer decides balance effects.
type Gateway interface {
	// CreateOrder creates a top-up order for the given amount
	CreateOrder(ctx context.Context, amount valueobject.Money) (*Order, error)

	// VerifySignature checks the completion proof against the gateway
	// secret. Returns ErrInvalidSignature on mismatch.
	VerifySignature(v Verification) error
}
