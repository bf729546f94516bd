package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/pwalczyk/PortfolioTracker/internal/models"
)

type TransactionRepository interface {
	BeginTransaction(ctx context.Context) (*sql.Tx, error)
	SaveWithTransaction(ctx context.Context, tx *sql.Tx, transaction *models.Transaction) error
	FindByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]models.Transaction, error)
	FindByPortfolioUpTo(ctx context.Context, portfolioID uuid.UUID, asOf time.Time) ([]models.Transaction, error)
}

type HoldingRepository interface {
	FindForUpdate(ctx context.Context, tx *sql.Tx, portfolioID uuid.UUID, ticker string) (*models.Holding, error)
	UpsertWithTransaction(ctx context.Context, tx *sql.Tx, holding *models.Holding) error
	DeleteWithTransaction(ctx context.Context, tx *sql.Tx, portfolioID uuid.UUID, ticker string) error
	Find(ctx context.Context, portfolioID uuid.UUID, ticker string) (*models.Holding, error)
	FindByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]models.Holding, error)
}

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) BeginTransaction(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

func (r *transactionRepository) SaveWithTransaction(ctx context.Context, tx *sql.Tx, transaction *models.Transaction) error {
	query := `
        INSERT INTO transactions (id, portfolio_id, ticker, transaction_type, quantity, price, fees, transaction_date, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := tx.ExecContext(ctx, query, transaction.ID, transaction.PortfolioID, transaction.Ticker,
		transaction.Type, transaction.Quantity, transaction.Price, transaction.Fees,
		transaction.TransactionDate, transaction.Notes, transaction.CreatedAt)
	return err
}

func (r *transactionRepository) FindByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]models.Transaction, error) {
	query := `SELECT id, portfolio_id, ticker, transaction_type, quantity, price, fees, transaction_date, notes, created_at
              FROM transactions WHERE portfolio_id = $1
              ORDER BY transaction_date DESC, created_at DESC`
	return r.queryTransactions(ctx, query, portfolioID)
}

func (r *transactionRepository) FindByPortfolioUpTo(ctx context.Context, portfolioID uuid.UUID, asOf time.Time) ([]models.Transaction, error) {
	// Insertion order breaks ties between same-day transactions.
	query := `SELECT id, portfolio_id, ticker, transaction_type, quantity, price, fees, transaction_date, notes, created_at
              FROM transactions WHERE portfolio_id = $1 AND transaction_date <= $2
              ORDER BY transaction_date ASC, created_at ASC`
	return r.queryTransactions(ctx, query, portfolioID, asOf)
}

func (r *transactionRepository) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(&t.ID, &t.PortfolioID, &t.Ticker, &t.Type, &t.Quantity, &t.Price, &t.Fees,
			&t.TransactionDate, &t.Notes, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

type holdingRepository struct {
	db *sql.DB
}

func NewHoldingRepository(db *sql.DB) HoldingRepository {
	return &holdingRepository{db: db}
}

func (r *holdingRepository) FindForUpdate(ctx context.Context, tx *sql.Tx, portfolioID uuid.UUID, ticker string) (*models.Holding, error) {
	// FOR UPDATE serializes concurrent mutations of one (portfolio, ticker)
	// pair so the weighted-average price stays consistent.
	query := `SELECT portfolio_id, ticker, quantity, buy_price, buy_date
              FROM holdings WHERE portfolio_id = $1 AND ticker = $2 FOR UPDATE`

	var h models.Holding
	err := tx.QueryRowContext(ctx, query, portfolioID, ticker).
		Scan(&h.PortfolioID, &h.Ticker, &h.Quantity, &h.BuyPrice, &h.BuyDate)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *holdingRepository) UpsertWithTransaction(ctx context.Context, tx *sql.Tx, holding *models.Holding) error {
	query := `
        INSERT INTO holdings (portfolio_id, ticker, quantity, buy_price, buy_date)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (portfolio_id, ticker)
        DO UPDATE SET quantity = EXCLUDED.quantity, buy_price = EXCLUDED.buy_price, buy_date = EXCLUDED.buy_date
    `
	_, err := tx.ExecContext(ctx, query, holding.PortfolioID, holding.Ticker, holding.Quantity, holding.BuyPrice, holding.BuyDate)
	return err
}

func (r *holdingRepository) DeleteWithTransaction(ctx context.Context, tx *sql.Tx, portfolioID uuid.UUID, ticker string) error {
	query := `DELETE FROM holdings WHERE portfolio_id = $1 AND ticker = $2`
	_, err := tx.ExecContext(ctx, query, portfolioID, ticker)
	return err
}

func (r *holdingRepository) Find(ctx context.Context, portfolioID uuid.UUID, ticker string) (*models.Holding, error) {
	query := `SELECT portfolio_id, ticker, quantity, buy_price, buy_date
              FROM holdings WHERE portfolio_id = $1 AND ticker = $2`

	var h models.Holding
	err := r.db.QueryRowContext(ctx, query, portfolioID, ticker).
		Scan(&h.PortfolioID, &h.Ticker, &h.Quantity, &h.BuyPrice, &h.BuyDate)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *holdingRepository) FindByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]models.Holding, error) {
	query := `SELECT portfolio_id, ticker, quantity, buy_price, buy_date
              FROM holdings WHERE portfolio_id = $1 ORDER BY ticker`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []models.Holding
	for rows.Next() {
		var h models.Holding
		if err := rows.Scan(&h.PortfolioID, &h.Ticker, &h.Quantity, &h.BuyPrice, &h.BuyDate); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}
