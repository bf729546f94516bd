package models

import (
	"time"

	"github.com/google/uuid"
)

// Holding is the derived aggregate for one (portfolio, ticker) pair.
// Quantity is always positive: a holding that would reach zero is deleted
// instead of being kept around. BuyPrice is the running weighted-average
// purchase price rounded to 2 decimal places.
type Holding struct {
	PortfolioID uuid.UUID `json:"portfolio_id"`
	Ticker      string    `json:"ticker"`
	Quantity    int       `json:"quantity"`
	BuyPrice    float64   `json:"buy_price"`
	BuyDate     time.Time `json:"buy_date"`
}

// PricedHolding is a holding decorated with current market data. All
// pointer fields are nil when the price could not be obtained; that is a
// degraded-data state, not an error.
type PricedHolding struct {
	Holding         Holding  `json:"holding"`
	CurrentPrice    *float64 `json:"current_price"`
	CurrentValue    *float64 `json:"current_value"`
	Currency        *string  `json:"currency"`
	GainLoss        *float64 `json:"gain_loss"`
	GainLossPercent *float64 `json:"gain_loss_percent"`
}

// PortfolioSummary aggregates priced holdings into portfolio-level totals.
type PortfolioSummary struct {
	TotalValue      float64 `json:"total_value"`
	TotalCost       float64 `json:"total_cost"`
	GainLoss        float64 `json:"gain_loss"`
	GainLossPercent float64 `json:"gain_loss_percent"`
}

// TimeSeries holds parallel sequences of ISO date labels and portfolio
// values, one entry per trading date, ascending.
type TimeSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// AllocationChart holds per-ticker percentage weights of the portfolio's
// current value, in holding order.
type AllocationChart struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}
