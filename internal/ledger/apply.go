package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/pwalczyk/PortfolioTracker/internal/models"
)

// applyBuy returns the holding state after a buy. A nil current holding
// starts from quantity 0 and price 0. The new average buy price is the
// quantity-weighted blend of the old position and the new lot, rounded to
// 2 decimal places; the buy date always moves to the transaction date,
// regardless of the chronological order transactions are applied in.
func applyBuy(current *models.Holding, t *models.Transaction) *models.Holding {
	holding := models.Holding{
		PortfolioID: t.PortfolioID,
		Ticker:      t.Ticker,
	}
	if current != nil {
		holding.Quantity = current.Quantity
		holding.BuyPrice = current.BuyPrice
	}

	oldValue := decimal.NewFromFloat(holding.BuyPrice).Mul(decimal.NewFromInt(int64(holding.Quantity)))
	newValue := decimal.NewFromFloat(t.Price).Mul(decimal.NewFromInt(int64(t.Quantity)))
	newQuantity := holding.Quantity + t.Quantity

	holding.BuyPrice = oldValue.Add(newValue).
		Div(decimal.NewFromInt(int64(newQuantity))).
		Round(2).
		InexactFloat64()
	holding.Quantity = newQuantity
	holding.BuyDate = t.TransactionDate
	return &holding
}

// applySell returns the holding state after a sell, or nil when the sell
// closes the position entirely. The average buy price is deliberately not
// recomputed on sells. The preconditions mirror ValidateSell; the caller
// runs this under a row lock, so the re-check catches concurrent
// submissions the form-level validation could not see.
func applySell(current *models.Holding, t *models.Transaction) (*models.Holding, error) {
	if current == nil {
		return nil, &NoHoldingError{Ticker: t.Ticker, Requested: t.Quantity}
	}
	if current.Quantity < t.Quantity {
		return nil, &InsufficientQuantityError{Ticker: t.Ticker, Requested: t.Quantity, Owned: current.Quantity}
	}

	remaining := current.Quantity - t.Quantity
	if remaining == 0 {
		return nil, nil
	}
	holding := *current
	holding.Quantity = remaining
	return &holding, nil
}
