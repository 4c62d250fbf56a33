package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/smartprint/backend/internal/domain/payment"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
)

// RazorpayAdapter implements the payment.Gateway interface for Razorpay
type RazorpayAdapter struct {
	config     *RazorpayConfig
	httpClient *http.Client
}

// NewRazorpayAdapter creates a new Razorpay adapter
func NewRazorpayAdapter(config *RazorpayConfig) (*RazorpayAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &RazorpayAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.timeout(),
		},
	}, nil
}

// CreateOrder creates a payment order in Razorpay. The amount is given
// in the major currency unit and sent to the gateway in paise.
func (a *RazorpayAdapter) CreateOrder(ctx context.Context, amount valueobject.Money) (*payment.Order, error) {
	if !amount.IsPositive() {
		return nil, payment.ErrInvalidAmount
	}

	reqBody := razorpayOrderRequest{
		Amount:   amount.Paise(),
		Currency: string(a.config.currency()),
		Receipt:  "rcpt_" + uuid.NewString(),
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("razorpay: failed to marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.baseURL()+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("razorpay: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(a.config.KeyID, a.config.KeySecret)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrGatewayRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("razorpay: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &payment.GatewayError{
			StatusCode: resp.StatusCode,
			Detail:     parseErrorDetail(body),
		}
	}

	var orderResp razorpayOrderResponse
	if err := json.Unmarshal(body, &orderResp); err != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrInvalidResponse, err)
	}
	if orderResp.ID == "" {
		return nil, payment.ErrInvalidResponse
	}

	return &payment.Order{
		OrderID:  orderResp.ID,
		KeyID:    a.config.KeyID,
		Amount:   orderResp.Amount,
		Currency: valueobject.Currency(orderResp.Currency),
		Receipt:  orderResp.Receipt,
	}, nil
}

// VerifySignature checks the checkout completion proof: the signature
// must be the hex HMAC-SHA256 of "orderID|paymentID" under the key
// secret. Comparison is constant time.
func (a *RazorpayAdapter) VerifySignature(v payment.Verification) error {
	if err := v.Validate(); err != nil {
		return err
	}

	mac := hmac.New(sha256.New, []byte(a.config.KeySecret))
	mac.Write([]byte(v.OrderID + "|" + v.PaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(v.Signature)) {
		return payment.ErrInvalidSignature
	}
	return nil
}

// parseErrorDetail extracts the gateway-provided description from an
// error body, falling back to the raw body text.
func parseErrorDetail(body []byte) string {
	var errResp razorpayErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Description != "" {
		return errResp.Error.Description
	}
	return string(body)
}
