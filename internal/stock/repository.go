package stock

import (
	"context"
	"database/sql"
	"time"

	"github.com/pwalczyk/PortfolioTracker/internal/models"
)

type Repository interface {
	GetByTicker(ctx context.Context, ticker string) (*models.Stock, error)
	GetOrCreate(ctx context.Context, ticker string) (*models.Stock, bool, error)
	UpdateSnapshot(ctx context.Context, stock *models.Stock) error
	FindStale(ctx context.Context, cutoff time.Time) ([]models.Stock, error)
}

type stockRepository struct {
	db *sql.DB
}

func NewStockRepository(db *sql.DB) Repository {
	return &stockRepository{db: db}
}

func (r *stockRepository) GetByTicker(ctx context.Context, ticker string) (*models.Stock, error) {
	query := `SELECT ticker, name, currency, last_price, last_update FROM stocks WHERE ticker = $1`

	var s models.Stock
	err := r.db.QueryRowContext(ctx, query, ticker).
		Scan(&s.Ticker, &s.Name, &s.Currency, &s.LastPrice, &s.LastUpdate)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *stockRepository) GetOrCreate(ctx context.Context, ticker string) (*models.Stock, bool, error) {
	insert := `INSERT INTO stocks (ticker, last_update) VALUES ($1, $2) ON CONFLICT (ticker) DO NOTHING`
	result, err := r.db.ExecContext(ctx, insert, ticker, time.Now())
	if err != nil {
		return nil, false, err
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	stock, err := r.GetByTicker(ctx, ticker)
	if err != nil {
		return nil, false, err
	}
	return stock, inserted > 0, nil
}

func (r *stockRepository) UpdateSnapshot(ctx context.Context, stock *models.Stock) error {
	query := `UPDATE stocks SET name = $1, currency = $2, last_price = $3, last_update = $4 WHERE ticker = $5`
	_, err := r.db.ExecContext(ctx, query, stock.Name, stock.Currency, stock.LastPrice, stock.LastUpdate, stock.Ticker)
	return err
}

func (r *stockRepository) FindStale(ctx context.Context, cutoff time.Time) ([]models.Stock, error) {
	query := `SELECT ticker, name, currency, last_price, last_update FROM stocks
              WHERE last_update < $1 OR last_price IS NULL ORDER BY ticker`

	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stocks []models.Stock
	for rows.Next() {
		var s models.Stock
		if err := rows.Scan(&s.Ticker, &s.Name, &s.Currency, &s.LastPrice, &s.LastUpdate); err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}
