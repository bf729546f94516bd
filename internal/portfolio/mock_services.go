package portfolios

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pwalczyk/PortfolioTracker/internal/models"
)

type MockPortfolioService struct {
	Portfolios map[uuid.UUID]Portfolio
	ShouldFail bool
}

func (m *MockPortfolioService) CreatePortfolio(_ context.Context, userID string, name, description string) (*Portfolio, error) {
	if m.ShouldFail {
		return nil, ErrPortfolioNameTaken
	}
	portfolio := &Portfolio{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	return portfolio, nil
}

func (m *MockPortfolioService) GetPortfolio(_ context.Context, portfolioID uuid.UUID, userID string) (*Portfolio, error) {
	portfolio, ok := m.Portfolios[portfolioID]
	if !ok {
		return nil, ErrPortfolioNotFound
	}
	if portfolio.UserID != userID {
		return nil, ErrUnauthorizedAccess
	}
	return &portfolio, nil
}

func (m *MockPortfolioService) GetAllPortfolios(_ context.Context, userID string) ([]PortfolioDTO, error) {
	var list []PortfolioDTO
	for _, p := range m.Portfolios {
		if p.UserID == userID {
			list = append(list, PortfolioDTO{ID: p.ID, Name: p.Name, Description: p.Description})
		}
	}
	return list, nil
}

func (m *MockPortfolioService) UpdatePortfolio(context.Context, uuid.UUID, string, *string, *string) error {
	panic("implement me")
}

func (m *MockPortfolioService) DeletePortfolio(context.Context, uuid.UUID, string) error {
	panic("implement me")
}

func (m *MockPortfolioService) CheckPortfolioOwnership(_ context.Context, portfolioID uuid.UUID, userID string) (bool, error) {
	portfolio, ok := m.Portfolios[portfolioID]
	if !ok {
		return false, nil
	}
	return portfolio.UserID == userID, nil
}

type MockLedgerService struct {
	Transactions []models.Transaction
	ApplyErr     error
	SellErr      error
	Applied      []*models.Transaction
}

func (m *MockLedgerService) Apply(_ context.Context, transaction *models.Transaction) error {
	if m.ApplyErr != nil {
		return m.ApplyErr
	}
	m.Applied = append(m.Applied, transaction)
	return nil
}

func (m *MockLedgerService) ValidateSell(context.Context, uuid.UUID, string, int) error {
	return m.SellErr
}

func (m *MockLedgerService) AggregateForSeries(context.Context, uuid.UUID, time.Time) (map[string][]models.QuantityChange, error) {
	panic("implement me")
}

func (m *MockLedgerService) HoldingsByPortfolio(context.Context, uuid.UUID) ([]models.Holding, error) {
	panic("implement me")
}

func (m *MockLedgerService) TransactionsByPortfolio(_ context.Context, portfolioID uuid.UUID) ([]models.Transaction, error) {
	var result []models.Transaction
	for _, t := range m.Transactions {
		if t.PortfolioID == portfolioID {
			result = append(result, t)
		}
	}
	return result, nil
}

type MockStockService struct {
	Registered []string
	RegisterErr error
}

func (m *MockStockService) CurrentPrice(context.Context, string) (float64, string, error) {
	panic("implement me")
}

func (m *MockStockService) Register(_ context.Context, ticker string) (*models.Stock, error) {
	if m.RegisterErr != nil {
		return nil, m.RegisterErr
	}
	m.Registered = append(m.Registered, ticker)
	return &models.Stock{Ticker: ticker}, nil
}

func (m *MockStockService) RefreshStalePrices(context.Context) error {
	panic("implement me")
}

type MockValuationService struct {
	Priced    []models.PricedHolding
	Series    models.TimeSeries
	PriceErr  error
	SeriesErr error
}

func (m *MockValuationService) PriceHoldings(context.Context, uuid.UUID) ([]models.PricedHolding, error) {
	if m.PriceErr != nil {
		return nil, m.PriceErr
	}
	return m.Priced, nil
}

func (m *MockValuationService) Summarize([]models.PricedHolding) models.PortfolioSummary {
	return models.PortfolioSummary{}
}

func (m *MockValuationService) Allocation([]models.PricedHolding) models.AllocationChart {
	return models.AllocationChart{Labels: []string{}, Values: []float64{}}
}

func (m *MockValuationService) TimeSeries(context.Context, uuid.UUID, int) (models.TimeSeries, error) {
	if m.SeriesErr != nil {
		return models.TimeSeries{}, m.SeriesErr
	}
	return m.Series, nil
}
