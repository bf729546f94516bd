package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction types accepted by the ledger.
const (
	TransactionBuy  = "BUY"
	TransactionSell = "SELL"
)

// Transaction is an immutable ledger entry. Entries are append-only and
// never mutated or deleted once recorded; CreatedAt breaks ties between
// transactions recorded for the same calendar day.
type Transaction struct {
	ID              uuid.UUID `json:"id"`
	PortfolioID     uuid.UUID `json:"portfolio_id"`
	Ticker          string    `json:"ticker"`
	Type            string    `json:"transaction_type"`
	Quantity        int       `json:"quantity"`
	Price           float64   `json:"price"`
	Fees            float64   `json:"fees"`
	TransactionDate time.Time `json:"transaction_date"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// QuantityChange is a signed holding delta derived from one transaction,
// used to replay a portfolio's history against daily prices.
type QuantityChange struct {
	Date     time.Time
	Quantity int
}
