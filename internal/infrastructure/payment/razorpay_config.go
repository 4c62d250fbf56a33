package payment

import (
	"errors"
	"time"

	"github.com/smartprint/backend/internal/domain/shared/valueobject"
)

const (
	// DefaultRazorpayBaseURL is the production Razorpay API endpoint
	DefaultRazorpayBaseURL = "https://api.razorpay.com"
	// DefaultRequestTimeout bounds one gateway round trip
	DefaultRequestTimeout = 30 * time.Second
)

// RazorpayConfig holds the Razorpay gateway credentials and settings
type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Currency  valueobject.Currency
	Timeout   time.Duration
}

// Validate checks the configuration is usable
func (c *RazorpayConfig) Validate() error {
	if c == nil {
		return errors.New("razorpay: config is nil")
	}
	if c.KeyID == "" {
		return errors.New("razorpay: key ID is required")
	}
	if c.KeySecret == "" {
		return errors.New("razorpay: key secret is required")
	}
	return nil
}

// baseURL returns the configured endpoint or the production default
func (c *RazorpayConfig) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return DefaultRazorpayBaseURL
}

// currency returns the configured currency or the system default
func (c *RazorpayConfig) currency() valueobject.Currency {
	if c.Currency != "" {
		return c.Currency
	}
	return valueobject.DefaultCurrency
}

// timeout returns the configured timeout or the default
func (c *RazorpayConfig) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultRequestTimeout
}
