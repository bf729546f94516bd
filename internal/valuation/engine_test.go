package valuation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwalczyk/PortfolioTracker/internal/marketdata"
	"github.com/pwalczyk/PortfolioTracker/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeLedger struct {
	holdings []models.Holding
	changes  map[string][]models.QuantityChange
}

func (f *fakeLedger) HoldingsByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]models.Holding, error) {
	return f.holdings, nil
}

func (f *fakeLedger) AggregateForSeries(ctx context.Context, portfolioID uuid.UUID, asOf time.Time) (map[string][]models.QuantityChange, error) {
	return f.changes, nil
}

type fakeQuotes struct {
	prices map[string]float64
}

func (f *fakeQuotes) CurrentPrice(ctx context.Context, ticker string) (float64, string, error) {
	price, ok := f.prices[ticker]
	if !ok {
		return 0, "", errors.New("quote unavailable")
	}
	return price, "$", nil
}

type fakeHistory struct {
	table *marketdata.PriceTable
	err   error
}

func (f *fakeHistory) GetDailyHistory(ctx context.Context, tickers []string, start, end time.Time) (*marketdata.PriceTable, error) {
	return f.table, f.err
}

func newTestEngine(ledger *fakeLedger, quotes *fakeQuotes, history *fakeHistory, now time.Time) *Engine {
	engine := NewEngine(ledger, quotes, history)
	engine.now = func() time.Time { return now }
	return engine
}

func TestPriceHoldings_ComputesGainLoss(t *testing.T) {
	portfolioID := uuid.New()
	ledger := &fakeLedger{
		holdings: []models.Holding{
			{PortfolioID: portfolioID, Ticker: "AAPL", Quantity: 10, BuyPrice: 100},
		},
	}
	engine := newTestEngine(ledger, &fakeQuotes{prices: map[string]float64{"AAPL": 125.456}}, &fakeHistory{}, day(2024, time.June, 1))

	priced, err := engine.PriceHoldings(context.Background(), portfolioID)
	require.NoError(t, err)
	require.Len(t, priced, 1)

	require.NotNil(t, priced[0].CurrentPrice)
	assert.Equal(t, 125.46, *priced[0].CurrentPrice)
	assert.Equal(t, 1254.56, *priced[0].CurrentValue)
	assert.Equal(t, 254.56, *priced[0].GainLoss)
	assert.Equal(t, 25.46, *priced[0].GainLossPercent)
	assert.Equal(t, "$", *priced[0].Currency)
}

func TestPriceHoldings_UnavailablePriceDegrades(t *testing.T) {
	portfolioID := uuid.New()
	ledger := &fakeLedger{
		holdings: []models.Holding{
			{PortfolioID: portfolioID, Ticker: "AAPL", Quantity: 10, BuyPrice: 100},
			{PortfolioID: portfolioID, Ticker: "MSFT", Quantity: 5, BuyPrice: 200},
		},
	}
	engine := newTestEngine(ledger, &fakeQuotes{prices: map[string]float64{"AAPL": 110}}, &fakeHistory{}, day(2024, time.June, 1))

	priced, err := engine.PriceHoldings(context.Background(), portfolioID)
	require.NoError(t, err, "unavailable price must not fail the request")
	require.Len(t, priced, 2)

	assert.NotNil(t, priced[0].CurrentValue)
	assert.Nil(t, priced[1].CurrentPrice)
	assert.Nil(t, priced[1].CurrentValue)
	assert.Nil(t, priced[1].Currency)
	assert.Nil(t, priced[1].GainLoss)
	assert.Nil(t, priced[1].GainLossPercent)
}

func TestPriceHoldings_ZeroCostBasis(t *testing.T) {
	portfolioID := uuid.New()
	ledger := &fakeLedger{
		holdings: []models.Holding{
			{PortfolioID: portfolioID, Ticker: "FREE", Quantity: 3, BuyPrice: 0},
		},
	}
	engine := newTestEngine(ledger, &fakeQuotes{prices: map[string]float64{"FREE": 10}}, &fakeHistory{}, day(2024, time.June, 1))

	priced, err := engine.PriceHoldings(context.Background(), portfolioID)
	require.NoError(t, err)
	require.Len(t, priced, 1)

	require.NotNil(t, priced[0].GainLossPercent)
	assert.Equal(t, 0.0, *priced[0].GainLossPercent, "zero cost basis yields 0 percent, not an error")
	assert.Equal(t, 30.0, *priced[0].GainLoss)
}

func TestSummarize_MixedAvailability(t *testing.T) {
	value := 1000.0
	priced := []models.PricedHolding{
		{
			Holding:      models.Holding{Ticker: "AAPL", Quantity: 10, BuyPrice: 80},
			CurrentValue: &value,
		},
		{
			// Price unavailable: contributes 0 to value, full cost basis to cost.
			Holding: models.Holding{Ticker: "MSFT", Quantity: 4, BuyPrice: 50},
		},
	}
	engine := NewEngine(nil, nil, nil)

	summary := engine.Summarize(priced)
	assert.Equal(t, 1000.0, summary.TotalValue)
	assert.Equal(t, 1000.0, summary.TotalCost) // 10*80 + 4*50
	assert.Equal(t, 0.0, summary.GainLoss)
	assert.Equal(t, 0.0, summary.GainLossPercent)
}

func TestSummarize_Empty(t *testing.T) {
	engine := NewEngine(nil, nil, nil)

	summary := engine.Summarize(nil)
	assert.Equal(t, models.PortfolioSummary{}, summary)
}

func TestAllocation(t *testing.T) {
	appleValue := 750.0
	microsoftValue := 250.0
	priced := []models.PricedHolding{
		{Holding: models.Holding{Ticker: "AAPL"}, CurrentValue: &appleValue},
		{Holding: models.Holding{Ticker: "MSFT"}, CurrentValue: &microsoftValue},
		{Holding: models.Holding{Ticker: "NOPX"}},
	}
	engine := NewEngine(nil, nil, nil)

	chart := engine.Allocation(priced)
	assert.Equal(t, []string{"AAPL", "MSFT", "NOPX"}, chart.Labels)
	assert.Equal(t, []float64{75, 25, 0}, chart.Values)
}

func TestTimeSeries_EmptyLedger(t *testing.T) {
	engine := newTestEngine(&fakeLedger{}, &fakeQuotes{}, &fakeHistory{}, day(2024, time.June, 1))

	series, err := engine.TimeSeries(context.Background(), uuid.New(), 30)
	require.NoError(t, err)
	assert.Equal(t, models.TimeSeries{Labels: []string{}, Values: []float64{}}, series)
}

func TestTimeSeries_EmptyPriceData(t *testing.T) {
	ledger := &fakeLedger{
		changes: map[string][]models.QuantityChange{
			"AAPL": {{Date: day(2024, time.May, 1), Quantity: 10}},
		},
	}
	engine := newTestEngine(ledger, &fakeQuotes{}, &fakeHistory{table: &marketdata.PriceTable{}}, day(2024, time.June, 1))

	series, err := engine.TimeSeries(context.Background(), uuid.New(), 30)
	require.NoError(t, err)
	assert.Empty(t, series.Labels)
	assert.Empty(t, series.Values)
}

func TestTimeSeries_ReconstructsDailyQuantities(t *testing.T) {
	now := day(2024, time.June, 11)

	// 5 trading dates inside the 10-day window; the sell lands on day 5.
	dates := []time.Time{
		day(2024, time.June, 3),
		day(2024, time.June, 4),
		day(2024, time.June, 5),
		day(2024, time.June, 6),
		day(2024, time.June, 7),
	}
	table := &marketdata.PriceTable{
		Dates: dates,
		Series: map[string]marketdata.Columns{
			"AAPL": {Close: []float64{10, 10, 10, 10, 10}},
		},
	}
	ledger := &fakeLedger{
		changes: map[string][]models.QuantityChange{
			"AAPL": {
				// Before the window: contributes to the starting quantity only.
				{Date: day(2024, time.April, 2), Quantity: 10},
				{Date: day(2024, time.June, 7), Quantity: -4},
			},
		},
	}
	engine := newTestEngine(ledger, &fakeQuotes{}, &fakeHistory{table: table}, now)

	series, err := engine.TimeSeries(context.Background(), uuid.New(), 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-06-03", "2024-06-04", "2024-06-05", "2024-06-06", "2024-06-07"}, series.Labels)
	// Quantity 10 for days 1-4, 6 from day 5 onward.
	assert.Equal(t, []float64{100, 100, 100, 100, 60}, series.Values)
}

func TestTimeSeries_MultiTickerAndSameDayDeltas(t *testing.T) {
	now := day(2024, time.June, 11)
	dates := []time.Time{
		day(2024, time.June, 5),
		day(2024, time.June, 6),
	}
	table := &marketdata.PriceTable{
		Dates: dates,
		Series: map[string]marketdata.Columns{
			"AAPL": {Close: []float64{2, 3}},
			// No Close column: Adjusted Close is the fallback.
			"MSFT": {AdjClose: []float64{5, 5}},
		},
	}
	ledger := &fakeLedger{
		changes: map[string][]models.QuantityChange{
			"AAPL": {
				// Two deltas on the same trading date both apply that day.
				{Date: day(2024, time.June, 5), Quantity: 10},
				{Date: day(2024, time.June, 5), Quantity: -4},
			},
			"MSFT": {{Date: day(2024, time.June, 6), Quantity: 2}},
		},
	}
	engine := newTestEngine(ledger, &fakeQuotes{}, &fakeHistory{table: table}, now)

	series, err := engine.TimeSeries(context.Background(), uuid.New(), 10)
	require.NoError(t, err)

	// June 5: 6*2. June 6: 6*3 + 2*5.
	assert.Equal(t, []float64{12, 28}, series.Values)
}

func TestTimeSeries_MissingCloseColumnIsFatal(t *testing.T) {
	now := day(2024, time.June, 11)
	table := &marketdata.PriceTable{
		Dates: []time.Time{day(2024, time.June, 5)},
		Series: map[string]marketdata.Columns{
			"AAPL": {},
		},
	}
	ledger := &fakeLedger{
		changes: map[string][]models.QuantityChange{
			"AAPL": {{Date: day(2024, time.June, 5), Quantity: 1}},
		},
	}
	engine := newTestEngine(ledger, &fakeQuotes{}, &fakeHistory{table: table}, now)

	_, err := engine.TimeSeries(context.Background(), uuid.New(), 10)
	var missing *marketdata.MissingCloseError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "AAPL", missing.Ticker)
}
