package dto

// CreateOrderRequest is the body of POST /api/payments/create-order.
// Amount is in rupees.
type CreateOrderRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// CreateOrderResponse returns the gateway order the client hands to the
// checkout widget. Amount is in paise, as the gateway expects.
type CreateOrderResponse struct {
	OrderID  string `json:"order_id"`
	KeyID    string `json:"key_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// VerifyPaymentRequest is the body of POST /api/payments/verify. Field
// names follow the gateway's checkout callback payload.
type VerifyPaymentRequest struct {
	RazorpayOrderID   string  `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string  `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string  `json:"razorpay_signature" binding:"required"`
	Amount            float64 `json:"amount" binding:"required,gt=0"`
}

// VerifyPaymentResponse acknowledges a verified (or rejected) top-up.
type VerifyPaymentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
