package dto

import "time"

// BalanceResponse is the body of GET /api/wallet/balance. Balance is a
// fixed two-decimal rupee string.
type BalanceResponse struct {
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// TransactionEntry is one row of the wallet audit trail.
type TransactionEntry struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Amount        string    `json:"amount"`
	BalanceBefore string    `json:"balance_before"`
	BalanceAfter  string    `json:"balance_after"`
	SourceType    string    `json:"source_type"`
	SourceID      string    `json:"source_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// TransactionsResponse is the body of GET /api/wallet/transactions.
type TransactionsResponse struct {
	Transactions []TransactionEntry `json:"transactions"`
}
