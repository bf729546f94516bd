package ledger

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pwalczyk/PortfolioTracker/internal/models"
)

// MockTransactionRepository serves canned transactions for unit tests.
type MockTransactionRepository struct {
	Transactions []models.Transaction
}

func (m *MockTransactionRepository) BeginTransaction(ctx context.Context) (*sql.Tx, error) {
	panic("implement me")
}

func (m *MockTransactionRepository) SaveWithTransaction(ctx context.Context, tx *sql.Tx, transaction *models.Transaction) error {
	panic("implement me")
}

func (m *MockTransactionRepository) FindByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]models.Transaction, error) {
	var result []models.Transaction
	for _, t := range m.Transactions {
		if t.PortfolioID == portfolioID {
			result = append(result, t)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].TransactionDate.Equal(result[j].TransactionDate) {
			return result[i].TransactionDate.After(result[j].TransactionDate)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockTransactionRepository) FindByPortfolioUpTo(ctx context.Context, portfolioID uuid.UUID, asOf time.Time) ([]models.Transaction, error) {
	var result []models.Transaction
	for _, t := range m.Transactions {
		if t.PortfolioID == portfolioID && !t.TransactionDate.After(asOf) {
			result = append(result, t)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].TransactionDate.Equal(result[j].TransactionDate) {
			return result[i].TransactionDate.Before(result[j].TransactionDate)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// MockHoldingRepository keeps holdings in a ticker-keyed map.
type MockHoldingRepository struct {
	Holdings map[string]models.Holding
}

func (m *MockHoldingRepository) FindForUpdate(ctx context.Context, tx *sql.Tx, portfolioID uuid.UUID, ticker string) (*models.Holding, error) {
	panic("implement me")
}

func (m *MockHoldingRepository) UpsertWithTransaction(ctx context.Context, tx *sql.Tx, holding *models.Holding) error {
	panic("implement me")
}

func (m *MockHoldingRepository) DeleteWithTransaction(ctx context.Context, tx *sql.Tx, portfolioID uuid.UUID, ticker string) error {
	panic("implement me")
}

func (m *MockHoldingRepository) Find(ctx context.Context, portfolioID uuid.UUID, ticker string) (*models.Holding, error) {
	holding, ok := m.Holdings[ticker]
	if !ok || holding.PortfolioID != portfolioID {
		return nil, sql.ErrNoRows
	}
	return &holding, nil
}

func (m *MockHoldingRepository) FindByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]models.Holding, error) {
	var holdings []models.Holding
	for _, h := range m.Holdings {
		if h.PortfolioID == portfolioID {
			holdings = append(holdings, h)
		}
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Ticker < holdings[j].Ticker })
	return holdings, nil
}
