package domain

import "time"

// PaymentMode is how a client settles bookings.
type PaymentMode string

const (
	PaymentPrepaid  PaymentMode = "prepaid"  // wallet debited on confirmation
	PaymentPostpaid PaymentMode = "postpaid" // invoiced externally
)

// Client represents a requesting client (person or agency).
type Client struct {
	ID   int64
	Name string

	PaymentMode PaymentMode

	// Balance is the prepaid wallet balance. It is mutated only through
	// the wallet ledger (append-only transactions + running balance).
	Balance float64

	// PriceOverrides holds per-service custom prices negotiated with the
	// client. They take precedence over catalog list prices.
	PriceOverrides map[string]float64

	// Address is the geocoded client/agency address. Coords is nil when
	// the address has never been geocoded.
	Address string
	Coords  *Coordinates

	// BlockedAgentIDs lists agents this client refuses to work with.
	BlockedAgentIDs []int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsPrepaid reports whether the client settles through the wallet.
func (c *Client) IsPrepaid() bool {
	return c.PaymentMode == PaymentPrepaid
}

// HasBlocked reports whether the client has blocklisted the agent.
func (c *Client) HasBlocked(agentID int64) bool {
	for _, id := range c.BlockedAgentIDs {
		if id == agentID {
			return true
		}
	}
	return false
}

// PriceOverride returns the client's custom price for a service id.
func (c *Client) PriceOverride(serviceID string) (float64, bool) {
	price, ok := c.PriceOverrides[serviceID]
	return price, ok
}

// TransactionType classifies wallet ledger entries.
type TransactionType string

const (
	TransactionDebit  TransactionType = "debit"
	TransactionCredit TransactionType = "credit"
	TransactionRefund TransactionType = "refund"
)

// WalletTransaction is one immutable row of the client wallet ledger.
type WalletTransaction struct {
	ID           int64
	ClientID     int64
	Amount       float64 // signed: negative for debits, positive for credits
	Type         TransactionType
	Description  string
	BalanceAfter float64
	CreatedAt    time.Time
}
