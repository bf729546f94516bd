package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/pwalczyk/PortfolioTracker/internal/models"
)

// Service keeps the (portfolio, ticker) holdings consistent with the
// append-only transaction ledger and produces the replayable event stream
// the valuation engine reconstructs history from.
type Service interface {
	Apply(ctx context.Context, transaction *models.Transaction) error
	ValidateSell(ctx context.Context, portfolioID uuid.UUID, ticker string, quantity int) error
	AggregateForSeries(ctx context.Context, portfolioID uuid.UUID, asOf time.Time) (map[string][]models.QuantityChange, error)
	HoldingsByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]models.Holding, error)
	TransactionsByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]models.Transaction, error)
}

type service struct {
	transactionRepo TransactionRepository
	holdingRepo     HoldingRepository
}

func NewLedgerService(transactionRepo TransactionRepository, holdingRepo HoldingRepository) Service {
	return &service{
		transactionRepo: transactionRepo,
		holdingRepo:     holdingRepo,
	}
}

// Apply records one transaction and folds it into the holding for its
// (portfolio, ticker) pair. The ledger insert and the holding
// upsert/delete happen inside a single SQL transaction: a crash cannot
// leave a transaction recorded without its holding effect, or vice versa.
func (s *service) Apply(ctx context.Context, transaction *models.Transaction) error {
	if transaction.Type != models.TransactionBuy && transaction.Type != models.TransactionSell {
		return ErrUnknownTransactionType
	}
	if transaction.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if transaction.Price < 0 || transaction.Fees < 0 {
		return ErrInvalidPrice
	}

	tx, err := s.transactionRepo.BeginTransaction(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Printf("Failed to roll back ledger transaction: %v", err)
		}
	}()

	current, err := s.holdingRepo.FindForUpdate(ctx, tx, transaction.PortfolioID, transaction.Ticker)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to lock holding: %w", err)
	}

	var updated *models.Holding
	switch transaction.Type {
	case models.TransactionBuy:
		updated = applyBuy(current, transaction)
	case models.TransactionSell:
		updated, err = applySell(current, transaction)
		if err != nil {
			return err
		}
	}

	if err := s.transactionRepo.SaveWithTransaction(ctx, tx, transaction); err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	if updated != nil {
		err = s.holdingRepo.UpsertWithTransaction(ctx, tx, updated)
	} else {
		err = s.holdingRepo.DeleteWithTransaction(ctx, tx, transaction.PortfolioID, transaction.Ticker)
	}
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}

	return tx.Commit()
}

// ValidateSell is the pre-apply check the request boundary runs so sell
// errors surface as field messages before anything is written.
func (s *service) ValidateSell(ctx context.Context, portfolioID uuid.UUID, ticker string, quantity int) error {
	holding, err := s.holdingRepo.Find(ctx, portfolioID, ticker)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &NoHoldingError{Ticker: ticker, Requested: quantity}
		}
		return err
	}
	if holding.Quantity < quantity {
		return &InsufficientQuantityError{Ticker: ticker, Requested: quantity, Owned: holding.Quantity}
	}
	return nil
}

// AggregateForSeries maps each ticker to its ordered quantity deltas up to
// asOf: buys contribute +quantity, sells -quantity. Pure read, no
// persisted state is touched.
func (s *service) AggregateForSeries(ctx context.Context, portfolioID uuid.UUID, asOf time.Time) (map[string][]models.QuantityChange, error) {
	transactions, err := s.transactionRepo.FindByPortfolioUpTo(ctx, portfolioID, asOf)
	if err != nil {
		return nil, err
	}

	changes := make(map[string][]models.QuantityChange)
	for _, t := range transactions {
		delta := t.Quantity
		if t.Type == models.TransactionSell {
			delta = -t.Quantity
		}
		changes[t.Ticker] = append(changes[t.Ticker], models.QuantityChange{
			Date:     t.TransactionDate,
			Quantity: delta,
		})
	}
	return changes, nil
}

func (s *service) HoldingsByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]models.Holding, error) {
	return s.holdingRepo.FindByPortfolio(ctx, portfolioID)
}

func (s *service) TransactionsByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]models.Transaction, error) {
	return s.transactionRepo.FindByPortfolio(ctx, portfolioID)
}
