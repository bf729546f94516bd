package portfolios

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwalczyk/PortfolioTracker/internal/ledger"
	"github.com/pwalczyk/PortfolioTracker/internal/marketdata"
	"github.com/pwalczyk/PortfolioTracker/internal/models"
)

func newTestHandler(portfolioService Service, ledgerService *MockLedgerService, stockService *MockStockService, valuation *MockValuationService) *PortfolioHandler {
	if ledgerService == nil {
		ledgerService = &MockLedgerService{}
	}
	if stockService == nil {
		stockService = &MockStockService{}
	}
	if valuation == nil {
		valuation = &MockValuationService{}
	}
	return NewPortfolioHandler(portfolioService, ledgerService, stockService, valuation, respondJSON, respondError)
}

func requestWithUser(method, target, body, userID string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), "userID", userID))
	}
	return req
}

func withPortfolioID(req *http.Request, portfolioID uuid.UUID) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), "portfolioID", portfolioID))
}

func decodeResponse(t *testing.T, res *http.Response) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	return payload
}

func TestCreatePortfolio_Success(t *testing.T) {
	mockService := &MockPortfolioService{}
	handler := newTestHandler(mockService, nil, nil, nil)

	req := requestWithUser(http.MethodPost, "/api/portfolios", `{"name":"Growth","description":"Long term"}`, "user-1")
	w := httptest.NewRecorder()
	handler.CreatePortfolio(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusCreated, res.StatusCode)
	payload := decodeResponse(t, res)
	assert.Equal(t, "success", payload["status"])
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, "Growth", data["name"])
}

func TestCreatePortfolio_MissingName(t *testing.T) {
	handler := newTestHandler(&MockPortfolioService{}, nil, nil, nil)

	req := requestWithUser(http.MethodPost, "/api/portfolios", `{"description":"no name"}`, "user-1")
	w := httptest.NewRecorder()
	handler.CreatePortfolio(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "Portfolio name is required", decodeResponse(t, res)["message"])
}

func TestCreatePortfolio_NameTaken(t *testing.T) {
	handler := newTestHandler(&MockPortfolioService{ShouldFail: true}, nil, nil, nil)

	req := requestWithUser(http.MethodPost, "/api/portfolios", `{"name":"Growth"}`, "user-1")
	w := httptest.NewRecorder()
	handler.CreatePortfolio(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestCreatePortfolio_Unauthorized(t *testing.T) {
	handler := newTestHandler(&MockPortfolioService{}, nil, nil, nil)

	req := requestWithUser(http.MethodPost, "/api/portfolios", `{"name":"Growth"}`, "")
	w := httptest.NewRecorder()
	handler.CreatePortfolio(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestGetPortfolio_NotFound(t *testing.T) {
	handler := newTestHandler(&MockPortfolioService{Portfolios: map[uuid.UUID]Portfolio{}}, nil, nil, nil)

	req := requestWithUser(http.MethodGet, "/api/portfolios/abc", "", "user-1")
	req = withPortfolioID(req, uuid.New())
	w := httptest.NewRecorder()
	handler.GetPortfolio(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestCreateTransaction_Buy(t *testing.T) {
	portfolioID := uuid.New()
	mockService := &MockPortfolioService{Portfolios: map[uuid.UUID]Portfolio{
		portfolioID: {ID: portfolioID, UserID: "user-1", Name: "Growth"},
	}}
	ledgerService := &MockLedgerService{}
	stockService := &MockStockService{}
	handler := newTestHandler(mockService, ledgerService, stockService, nil)

	body := `{"ticker":"AAPL","transaction_type":"BUY","quantity":5,"price":190.5,"transaction_date":"2026-08-20"}`
	req := requestWithUser(http.MethodPost, "/api/portfolios/x/transactions", body, "user-1")
	req = withPortfolioID(req, portfolioID)
	w := httptest.NewRecorder()
	handler.CreateTransaction(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusCreated, res.StatusCode)
	require.Len(t, ledgerService.Applied, 1)
	applied := ledgerService.Applied[0]
	assert.Equal(t, "AAPL", applied.Ticker)
	assert.Equal(t, models.TransactionBuy, applied.Type)
	assert.Equal(t, 5, applied.Quantity)
	assert.Equal(t, []string{"AAPL"}, stockService.Registered)
}

func TestCreateTransaction_SellRejected(t *testing.T) {
	portfolioID := uuid.New()
	mockService := &MockPortfolioService{Portfolios: map[uuid.UUID]Portfolio{
		portfolioID: {ID: portfolioID, UserID: "user-1"},
	}}
	ledgerService := &MockLedgerService{
		SellErr: &ledger.InsufficientQuantityError{Ticker: "AAPL", Requested: 10, Owned: 4},
	}
	handler := newTestHandler(mockService, ledgerService, nil, nil)

	body := `{"ticker":"AAPL","transaction_type":"SELL","quantity":10,"price":190.5,"transaction_date":"2026-08-20"}`
	req := requestWithUser(http.MethodPost, "/api/portfolios/x/transactions", body, "user-1")
	req = withPortfolioID(req, portfolioID)
	w := httptest.NewRecorder()
	handler.CreateTransaction(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	message := decodeResponse(t, res)["message"].(string)
	assert.Contains(t, message, "You only have 4 shares")
	assert.Empty(t, ledgerService.Applied)
}

func TestCreateTransaction_InvalidType(t *testing.T) {
	portfolioID := uuid.New()
	mockService := &MockPortfolioService{Portfolios: map[uuid.UUID]Portfolio{
		portfolioID: {ID: portfolioID, UserID: "user-1"},
	}}
	handler := newTestHandler(mockService, nil, nil, nil)

	body := `{"ticker":"AAPL","transaction_type":"HOLD","quantity":1,"price":1,"transaction_date":"2026-08-20"}`
	req := requestWithUser(http.MethodPost, "/api/portfolios/x/transactions", body, "user-1")
	req = withPortfolioID(req, portfolioID)
	w := httptest.NewRecorder()
	handler.CreateTransaction(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCreateTransaction_InvalidDate(t *testing.T) {
	portfolioID := uuid.New()
	mockService := &MockPortfolioService{Portfolios: map[uuid.UUID]Portfolio{
		portfolioID: {ID: portfolioID, UserID: "user-1"},
	}}
	handler := newTestHandler(mockService, nil, nil, nil)

	body := `{"ticker":"AAPL","transaction_type":"BUY","quantity":1,"price":1,"transaction_date":"20/08/2026"}`
	req := requestWithUser(http.MethodPost, "/api/portfolios/x/transactions", body, "user-1")
	req = withPortfolioID(req, portfolioID)
	w := httptest.NewRecorder()
	handler.CreateTransaction(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCreateTransaction_ForeignPortfolio(t *testing.T) {
	portfolioID := uuid.New()
	mockService := &MockPortfolioService{Portfolios: map[uuid.UUID]Portfolio{
		portfolioID: {ID: portfolioID, UserID: "someone-else"},
	}}
	handler := newTestHandler(mockService, nil, nil, nil)

	body := `{"ticker":"AAPL","transaction_type":"BUY","quantity":1,"price":1,"transaction_date":"2026-08-20"}`
	req := requestWithUser(http.MethodPost, "/api/portfolios/x/transactions", body, "user-1")
	req = withPortfolioID(req, portfolioID)
	w := httptest.NewRecorder()
	handler.CreateTransaction(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestGetHoldings_Success(t *testing.T) {
	portfolioID := uuid.New()
	mockService := &MockPortfolioService{Portfolios: map[uuid.UUID]Portfolio{
		portfolioID: {ID: portfolioID, UserID: "user-1"},
	}}
	price := 190.5
	valuation := &MockValuationService{
		Priced: []models.PricedHolding{
			{Holding: models.Holding{Ticker: "AAPL", Quantity: 5, BuyPrice: 150}, CurrentPrice: &price},
		},
	}
	handler := newTestHandler(mockService, nil, nil, valuation)

	req := requestWithUser(http.MethodGet, "/api/portfolios/x/holdings", "", "user-1")
	req = withPortfolioID(req, portfolioID)
	w := httptest.NewRecorder()
	handler.GetHoldings(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	payload := decodeResponse(t, res)
	data := payload["data"].(map[string]interface{})
	holdings := data["holdings"].([]interface{})
	require.Len(t, holdings, 1)
	assert.Contains(t, data, "summary")
	assert.Contains(t, data, "allocation")
}

func TestGetValueSeries_InvalidDays(t *testing.T) {
	portfolioID := uuid.New()
	mockService := &MockPortfolioService{Portfolios: map[uuid.UUID]Portfolio{
		portfolioID: {ID: portfolioID, UserID: "user-1"},
	}}
	handler := newTestHandler(mockService, nil, nil, nil)

	req := requestWithUser(http.MethodGet, "/api/portfolios/x/value-series?days=-5", "", "user-1")
	req = withPortfolioID(req, portfolioID)
	w := httptest.NewRecorder()
	handler.GetValueSeries(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGetValueSeries_MissingPrices(t *testing.T) {
	portfolioID := uuid.New()
	mockService := &MockPortfolioService{Portfolios: map[uuid.UUID]Portfolio{
		portfolioID: {ID: portfolioID, UserID: "user-1"},
	}}
	valuation := &MockValuationService{SeriesErr: &marketdata.MissingCloseError{Ticker: "AAPL"}}
	handler := newTestHandler(mockService, nil, nil, valuation)

	req := requestWithUser(http.MethodGet, "/api/portfolios/x/value-series", "", "user-1")
	req = withPortfolioID(req, portfolioID)
	w := httptest.NewRecorder()
	handler.GetValueSeries(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	assert.Contains(t, decodeResponse(t, res)["message"], "AAPL")
}

func TestGetValueSeries_Success(t *testing.T) {
	portfolioID := uuid.New()
	mockService := &MockPortfolioService{Portfolios: map[uuid.UUID]Portfolio{
		portfolioID: {ID: portfolioID, UserID: "user-1"},
	}}
	valuation := &MockValuationService{
		Series: models.TimeSeries{Labels: []string{"2026-08-20"}, Values: []float64{952.5}},
	}
	handler := newTestHandler(mockService, nil, nil, valuation)

	req := requestWithUser(http.MethodGet, "/api/portfolios/x/value-series?days=30", "", "user-1")
	req = withPortfolioID(req, portfolioID)
	w := httptest.NewRecorder()
	handler.GetValueSeries(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	data := decodeResponse(t, res)["data"].(map[string]interface{})
	labels := data["labels"].([]interface{})
	assert.Equal(t, []interface{}{"2026-08-20"}, labels)
}
