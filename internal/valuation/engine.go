package valuation

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pwalczyk/PortfolioTracker/internal/marketdata"
	"github.com/pwalczyk/PortfolioTracker/internal/models"
)

// LedgerService is the slice of the ledger the engine consumes.
type LedgerService interface {
	HoldingsByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]models.Holding, error)
	AggregateForSeries(ctx context.Context, portfolioID uuid.UUID, asOf time.Time) (map[string][]models.QuantityChange, error)
}

// QuoteService returns the current price and currency for a ticker. The
// implementation may refresh a stale snapshot behind this call; an error
// means "price unavailable", which degrades the holding's computed fields
// to null instead of failing the request.
type QuoteService interface {
	CurrentPrice(ctx context.Context, ticker string) (float64, string, error)
}

// HistoryProvider returns daily closing prices for a set of tickers.
type HistoryProvider interface {
	GetDailyHistory(ctx context.Context, tickers []string, start, end time.Time) (*marketdata.PriceTable, error)
}

// Engine turns holdings and prices into money figures, and quantity-change
// events plus historical prices into a portfolio value time series.
type Engine struct {
	ledger  LedgerService
	quotes  QuoteService
	history HistoryProvider
	now     func() time.Time
}

func NewEngine(ledger LedgerService, quotes QuoteService, history HistoryProvider) *Engine {
	return &Engine{
		ledger:  ledger,
		quotes:  quotes,
		history: history,
		now:     time.Now,
	}
}

// PriceHoldings decorates every holding of the portfolio with current
// market data. Money figures are rounded to 2 decimals at this output
// boundary only.
func (e *Engine) PriceHoldings(ctx context.Context, portfolioID uuid.UUID) ([]models.PricedHolding, error) {
	holdings, err := e.ledger.HoldingsByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	priced := make([]models.PricedHolding, 0, len(holdings))
	for _, holding := range holdings {
		price, currency, err := e.quotes.CurrentPrice(ctx, holding.Ticker)
		if err != nil {
			// Degraded-data state: the holding stays visible, its
			// computed fields are null.
			priced = append(priced, models.PricedHolding{Holding: holding})
			continue
		}

		currentValue := float64(holding.Quantity) * price
		costBasis := float64(holding.Quantity) * holding.BuyPrice
		gainLoss := currentValue - costBasis
		gainLossPercent := 0.0
		if costBasis != 0 {
			gainLossPercent = gainLoss / costBasis * 100
		}

		priced = append(priced, models.PricedHolding{
			Holding:         holding,
			CurrentPrice:    round2Ptr(price),
			CurrentValue:    round2Ptr(currentValue),
			Currency:        &currency,
			GainLoss:        round2Ptr(gainLoss),
			GainLossPercent: round2Ptr(gainLossPercent),
		})
	}
	return priced, nil
}

// Summarize aggregates priced holdings into portfolio totals. Holdings
// with an unavailable price contribute 0 to the total value but keep
// their cost basis in the total cost.
func (e *Engine) Summarize(priced []models.PricedHolding) models.PortfolioSummary {
	totalValue := 0.0
	totalCost := 0.0
	for _, item := range priced {
		if item.CurrentValue != nil {
			totalValue += *item.CurrentValue
		}
		if item.Holding.Quantity > 0 && item.Holding.BuyPrice != 0 {
			totalCost += float64(item.Holding.Quantity) * item.Holding.BuyPrice
		}
	}

	gainLoss := totalValue - totalCost
	gainLossPercent := 0.0
	if totalCost != 0 {
		gainLossPercent = gainLoss / totalCost * 100
	}

	return models.PortfolioSummary{
		TotalValue:      models.Round2(totalValue),
		TotalCost:       models.Round2(totalCost),
		GainLoss:        models.Round2(gainLoss),
		GainLossPercent: models.Round2(gainLossPercent),
	}
}

// Allocation computes each holding's percent weight of the portfolio's
// current value. Holdings without a price weigh 0.
func (e *Engine) Allocation(priced []models.PricedHolding) models.AllocationChart {
	chart := models.AllocationChart{Labels: []string{}, Values: []float64{}}

	totalValue := 0.0
	for _, item := range priced {
		if item.CurrentValue != nil {
			totalValue += *item.CurrentValue
		}
	}

	for _, item := range priced {
		chart.Labels = append(chart.Labels, item.Holding.Ticker)
		weight := 0.0
		if totalValue > 0 && item.CurrentValue != nil {
			weight = *item.CurrentValue / totalValue * 100
		}
		chart.Values = append(chart.Values, models.Round2(weight))
	}
	return chart
}

// TimeSeries reconstructs the portfolio's daily value over the last
// windowDays days by replaying quantity changes against historical daily
// closes. An empty ledger or empty price data yields an empty series; a
// ticker missing both Close and Adjusted Close columns is a hard error.
func (e *Engine) TimeSeries(ctx context.Context, portfolioID uuid.UUID, windowDays int) (models.TimeSeries, error) {
	empty := models.TimeSeries{Labels: []string{}, Values: []float64{}}

	end := e.now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -windowDays)

	changes, err := e.ledger.AggregateForSeries(ctx, portfolioID, end)
	if err != nil {
		return empty, err
	}
	if len(changes) == 0 {
		return empty, nil
	}

	tickers := make([]string, 0, len(changes))
	for ticker := range changes {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	table, err := e.history.GetDailyHistory(ctx, tickers, start, end)
	if err != nil {
		return empty, err
	}
	if table.Empty() {
		return empty, nil
	}

	values := make([]float64, len(table.Dates))
	for _, ticker := range tickers {
		closes, err := table.CloseColumn(ticker)
		if err != nil {
			return empty, err
		}

		quantities := dailyQuantities(changes[ticker], table.Dates, start)
		for i := range table.Dates {
			values[i] += float64(quantities[i]) * closes[i]
		}
	}

	series := models.TimeSeries{
		Labels: make([]string, len(table.Dates)),
		Values: make([]float64, len(table.Dates)),
	}
	for i, d := range table.Dates {
		series.Labels[i] = d.Format("2006-01-02")
		series.Values[i] = models.Round2(values[i])
	}
	return series, nil
}

// dailyQuantities reconstructs the held quantity per trading date. The
// starting quantity is the sum of all deltas strictly before the window;
// deltas inside the window apply on the first trading date on or after
// their event date (an event on a non-trading day takes effect on the
// next trading day), and the running quantity carries forward otherwise.
func dailyQuantities(events []models.QuantityChange, dates []time.Time, windowStart time.Time) []int {
	quantity := 0
	var relevant []models.QuantityChange
	for _, event := range events {
		if event.Date.Before(windowStart) {
			quantity += event.Quantity
		} else {
			relevant = append(relevant, event)
		}
	}

	quantities := make([]int, len(dates))
	eventIndex := 0
	for i, current := range dates {
		for eventIndex < len(relevant) && !relevant[eventIndex].Date.After(current) {
			quantity += relevant[eventIndex].Quantity
			eventIndex++
		}
		quantities[i] = quantity
	}
	return quantities
}

func round2Ptr(v float64) *float64 {
	rounded := models.Round2(v)
	return &rounded
}
