package marketdata

import (
	"context"
	"time"
)

// Quote is a point-in-time price for one ticker.
type Quote struct {
	Ticker   string
	Name     string
	Price    float64
	Currency string
	Time     time.Time
}

// Client is the narrow market-data surface the rest of the application
// depends on. Production uses the Yahoo Finance adapter; tests substitute
// deterministic fakes.
type Client interface {
	GetQuote(ctx context.Context, ticker string) (*Quote, error)
	GetDailyHistory(ctx context.Context, tickers []string, start, end time.Time) (*PriceTable, error)
}
