package portfolios

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pwalczyk/PortfolioTracker/internal/ledger"
	"github.com/pwalczyk/PortfolioTracker/internal/marketdata"
	"github.com/pwalczyk/PortfolioTracker/internal/models"
	"github.com/pwalczyk/PortfolioTracker/internal/stock"
)

const (
	defaultSeriesDays = 365
	maxSeriesDays     = 5 * 365
)

// ValuationService is the slice of the valuation engine the HTTP boundary
// consumes.
type ValuationService interface {
	PriceHoldings(ctx context.Context, portfolioID uuid.UUID) ([]models.PricedHolding, error)
	Summarize(priced []models.PricedHolding) models.PortfolioSummary
	Allocation(priced []models.PricedHolding) models.AllocationChart
	TimeSeries(ctx context.Context, portfolioID uuid.UUID, windowDays int) (models.TimeSeries, error)
}

type PortfolioHandler struct {
	portfolioService Service
	ledgerService    ledger.Service
	stockService     stock.Service
	valuation        ValuationService
	respondJSON      func(w http.ResponseWriter, status int, payload interface{})
	respondError     func(w http.ResponseWriter, status int, message string)
}

func NewPortfolioHandler(
	portfolioService Service,
	ledgerService ledger.Service,
	stockService stock.Service,
	valuation ValuationService,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string),
) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		ledgerService:    ledgerService,
		stockService:     stockService,
		valuation:        valuation,
		respondJSON:      respondJSON,
		respondError:     respondError,
	}
}

type createPortfolioRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type portfolioResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type createTransactionRequest struct {
	Ticker          string  `json:"ticker"`
	TransactionType string  `json:"transaction_type"`
	Quantity        int     `json:"quantity"`
	Price           float64 `json:"price"`
	Fees            float64 `json:"fees"`
	TransactionDate string  `json:"transaction_date"`
	Notes           string  `json:"notes"`
}

func (h *PortfolioHandler) getUserIDReq(w http.ResponseWriter, r *http.Request) string {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return ""
	}
	return userID
}

// requirePortfolio resolves the path portfolio and enforces ownership.
// A false return means the response has already been written.
func (h *PortfolioHandler) requirePortfolio(w http.ResponseWriter, r *http.Request, userID string) (uuid.UUID, bool) {
	portfolioID := r.Context().Value("portfolioID").(uuid.UUID)

	owned, err := h.portfolioService.CheckPortfolioOwnership(r.Context(), portfolioID, userID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to check portfolio ownership")
		return uuid.Nil, false
	}
	if !owned {
		h.respondError(w, http.StatusNotFound, "Portfolio not found")
		return uuid.Nil, false
	}
	return portfolioID, true
}

func (h *PortfolioHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}

	var req createPortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		h.respondError(w, http.StatusBadRequest, "Portfolio name is required")
		return
	}

	portfolio, err := h.portfolioService.CreatePortfolio(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, ErrPortfolioNameTaken) {
			h.respondError(w, http.StatusConflict, "Portfolio name already exists")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to create portfolio")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Portfolio successfully created.",
		"data": portfolioResponse{
			ID:          portfolio.ID.String(),
			Name:        portfolio.Name,
			Description: portfolio.Description,
			CreatedAt:   portfolio.CreatedAt,
			UpdatedAt:   portfolio.UpdatedAt,
		},
	})
}

func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}
	portfolioID := r.Context().Value("portfolioID").(uuid.UUID)

	portfolio, err := h.portfolioService.GetPortfolio(r.Context(), portfolioID, userID)
	if err != nil {
		if errors.Is(err, ErrPortfolioNotFound) {
			h.respondError(w, http.StatusNotFound, "Portfolio not found")
			return
		}
		if errors.Is(err, ErrUnauthorizedAccess) {
			h.respondError(w, http.StatusUnauthorized, "Unauthorized access to portfolio")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve portfolio")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data": portfolioResponse{
			ID:          portfolio.ID.String(),
			Name:        portfolio.Name,
			Description: portfolio.Description,
			CreatedAt:   portfolio.CreatedAt,
			UpdatedAt:   portfolio.UpdatedAt,
		},
	})
}

func (h *PortfolioHandler) GetAllPortfolios(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}

	portfolioList, err := h.portfolioService.GetAllPortfolios(r.Context(), userID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve portfolios list")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   portfolioList,
	})
}

func (h *PortfolioHandler) UpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}
	portfolioID := r.Context().Value("portfolioID").(uuid.UUID)

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Name == nil && req.Description == nil {
		h.respondError(w, http.StatusBadRequest, "At least one field (name or description) must be provided for update")
		return
	}
	if req.Name != nil && *req.Name == "" {
		h.respondError(w, http.StatusBadRequest, "Portfolio name cannot be empty")
		return
	}

	err := h.portfolioService.UpdatePortfolio(r.Context(), portfolioID, userID, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, ErrPortfolioNotFound) {
			h.respondError(w, http.StatusNotFound, "Portfolio not found")
			return
		}
		if errors.Is(err, ErrPortfolioNameTaken) {
			h.respondError(w, http.StatusConflict, "Portfolio with this name already exists")
			return
		}
		if errors.Is(err, ErrUnauthorizedAccess) {
			h.respondError(w, http.StatusUnauthorized, "Unauthorized access to portfolio")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to update portfolio")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Portfolio successfully updated.",
	})
}

func (h *PortfolioHandler) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}
	portfolioID := r.Context().Value("portfolioID").(uuid.UUID)

	err := h.portfolioService.DeletePortfolio(r.Context(), portfolioID, userID)
	if err != nil {
		if errors.Is(err, ErrPortfolioNotFound) {
			h.respondError(w, http.StatusNotFound, "Portfolio not found")
			return
		}
		if errors.Is(err, ErrUnauthorizedAccess) {
			h.respondError(w, http.StatusUnauthorized, "Unauthorized access to portfolio")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to delete portfolio")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Portfolio deleted successfully.",
	})
}

func (h *PortfolioHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}
	portfolioID, ok := h.requirePortfolio(w, r, userID)
	if !ok {
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if req.Ticker == "" {
		h.respondError(w, http.StatusBadRequest, "Ticker is required")
		return
	}
	if req.TransactionType != models.TransactionBuy && req.TransactionType != models.TransactionSell {
		h.respondError(w, http.StatusBadRequest, "Transaction type must be BUY or SELL")
		return
	}
	if req.Quantity <= 0 {
		h.respondError(w, http.StatusBadRequest, "Quantity must be greater than 0")
		return
	}
	if req.Price < 0 || req.Fees < 0 {
		h.respondError(w, http.StatusBadRequest, "Price and fees must not be negative")
		return
	}

	transactionDate, err := parseTransactionDate(req.TransactionDate)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid transaction date format, expected YYYY-MM-DD")
		return
	}

	registered, err := h.stockService.Register(r.Context(), req.Ticker)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to register stock")
		return
	}

	if req.TransactionType == models.TransactionSell {
		if err := h.ledgerService.ValidateSell(r.Context(), portfolioID, registered.Ticker, req.Quantity); err != nil {
			if ledger.IsSellValidationError(err) {
				h.respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			h.respondError(w, http.StatusInternalServerError, "Failed to validate transaction")
			return
		}
	}

	transaction := &models.Transaction{
		ID:              uuid.New(),
		PortfolioID:     portfolioID,
		Ticker:          registered.Ticker,
		Type:            req.TransactionType,
		Quantity:        req.Quantity,
		Price:           req.Price,
		Fees:            req.Fees,
		TransactionDate: transactionDate,
		Notes:           req.Notes,
		CreatedAt:       time.Now(),
	}

	if err := h.ledgerService.Apply(r.Context(), transaction); err != nil {
		// Concurrent submissions can invalidate a sell between the
		// pre-check and the locked apply.
		if ledger.IsSellValidationError(err) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to record transaction")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "success",
		"data":   transaction,
	})
}

func (h *PortfolioHandler) GetAllTransactions(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}
	portfolioID, ok := h.requirePortfolio(w, r, userID)
	if !ok {
		return
	}

	transactions, err := h.ledgerService.TransactionsByPortfolio(r.Context(), portfolioID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve transactions")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   transactions,
	})
}

func (h *PortfolioHandler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}
	portfolioID, ok := h.requirePortfolio(w, r, userID)
	if !ok {
		return
	}

	priced, err := h.valuation.PriceHoldings(r.Context(), portfolioID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to price holdings")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"holdings":   priced,
			"summary":    h.valuation.Summarize(priced),
			"allocation": h.valuation.Allocation(priced),
		},
	})
}

func (h *PortfolioHandler) GetValueSeries(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}
	portfolioID, ok := h.requirePortfolio(w, r, userID)
	if !ok {
		return
	}

	days := defaultSeriesDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxSeriesDays {
			h.respondError(w, http.StatusBadRequest, "Invalid days parameter")
			return
		}
		days = parsed
	}

	series, err := h.valuation.TimeSeries(r.Context(), portfolioID, days)
	if err != nil {
		var missing *marketdata.MissingCloseError
		if errors.As(err, &missing) {
			// A silently-wrong historical chart is worse than a visible failure.
			h.respondError(w, http.StatusBadGateway, missing.Error())
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to compute value series")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   series,
	})
}

func parseTransactionDate(raw string) (time.Time, error) {
	if len(raw) == 10 {
		return time.Parse("2006-01-02", raw)
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC().Truncate(24 * time.Hour), nil
}
