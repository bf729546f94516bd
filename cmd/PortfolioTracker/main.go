package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/pwalczyk/PortfolioTracker/internal/auth"
	database "github.com/pwalczyk/PortfolioTracker/internal/db"
	"github.com/pwalczyk/PortfolioTracker/internal/ledger"
	"github.com/pwalczyk/PortfolioTracker/internal/marketdata"
	portfolios "github.com/pwalczyk/PortfolioTracker/internal/portfolio"
	"github.com/pwalczyk/PortfolioTracker/internal/stock"
	"github.com/pwalczyk/PortfolioTracker/internal/valuation"
)

type Response struct {
	Message string `json:"message"`
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("Started %s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r)

		log.Printf("Completed %s in %v", r.URL.Path, time.Since(start))
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	})
}

type Server struct {
	router           *http.ServeMux
	portfolioHandler *portfolios.PortfolioHandler
	jwtManager       auth.JWTManagerInterface
}

func NewServer(portfolioHandler *portfolios.PortfolioHandler, jwtManager auth.JWTManagerInterface) *Server {
	return &Server{
		portfolioHandler: portfolioHandler,
		jwtManager:       jwtManager,
		router:           http.NewServeMux(),
	}
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(Response{Message: "Path not found"})
}

func checkConfiguration() error {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		return errors.New("no JWT_SECRET Provided")
	}
	return nil
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ready",
	})
}

func (s *Server) RegisterRoutes() {
	withAuth := auth.JWTAccessTokenMiddleware(s.jwtManager)

	// Public routes
	publicRoutes := http.NewServeMux()
	publicRoutes.Handle("GET /api/ready", http.HandlerFunc(s.handleReady))

	// Protected routes (using JWT Access Token Middleware)
	protectedRoutes := http.NewServeMux()

	// PORTFOLIOS API
	protectedRoutes.Handle("POST /api/protected/portfolios",
		withAuth(http.HandlerFunc(s.portfolioHandler.CreatePortfolio)))

	protectedRoutes.Handle("GET /api/protected/portfolios",
		withAuth(http.HandlerFunc(s.portfolioHandler.GetAllPortfolios)))

	protectedRoutes.Handle("GET /api/protected/portfolios/{portfolioID}",
		withAuth(s.portfolioHandler.ValidatePathParamsMiddleware(http.HandlerFunc(s.portfolioHandler.GetPortfolio), "portfolioID")))

	protectedRoutes.Handle("PUT /api/protected/portfolios/{portfolioID}",
		withAuth(s.portfolioHandler.ValidatePathParamsMiddleware(http.HandlerFunc(s.portfolioHandler.UpdatePortfolio), "portfolioID")))

	protectedRoutes.Handle("DELETE /api/protected/portfolios/{portfolioID}",
		withAuth(s.portfolioHandler.ValidatePathParamsMiddleware(http.HandlerFunc(s.portfolioHandler.DeletePortfolio), "portfolioID")))

	// TRANSACTIONS API
	protectedRoutes.Handle("POST /api/protected/portfolios/{portfolioID}/transactions",
		withAuth(s.portfolioHandler.ValidatePathParamsMiddleware(http.HandlerFunc(s.portfolioHandler.CreateTransaction), "portfolioID")))

	protectedRoutes.Handle("GET /api/protected/portfolios/{portfolioID}/transactions",
		withAuth(s.portfolioHandler.ValidatePathParamsMiddleware(http.HandlerFunc(s.portfolioHandler.GetAllTransactions), "portfolioID")))

	// VALUATION API
	protectedRoutes.Handle("GET /api/protected/portfolios/{portfolioID}/holdings",
		withAuth(s.portfolioHandler.ValidatePathParamsMiddleware(http.HandlerFunc(s.portfolioHandler.GetHoldings), "portfolioID")))

	protectedRoutes.Handle("GET /api/protected/portfolios/{portfolioID}/value-series",
		withAuth(s.portfolioHandler.ValidatePathParamsMiddleware(http.HandlerFunc(s.portfolioHandler.GetValueSeries), "portfolioID")))

	// Main router
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/api/", publicRoutes)
	mainRouter.Handle("/api/protected/", protectedRoutes)
	mainRouter.Handle("/", http.HandlerFunc(notFoundHandler))

	s.router = mainRouter
}

func main() {
	if err := checkConfiguration(); err != nil {
		log.Fatalf("Missing configuration, update to start server")
	}

	dbService, err := database.NewDBService()
	if err != nil {
		log.Fatalf("Could not initialize database: %v", err)
	}
	defer dbService.Close()

	marketClient := marketdata.NewYahooClient()

	jwtManager := auth.NewJWTManager()

	stockRepo := stock.NewStockRepository(dbService.DB)
	stockService := stock.NewStockService(stockRepo, marketClient, stock.DefaultRefreshDelta)

	transactionRepo := ledger.NewTransactionRepository(dbService.DB)
	holdingRepo := ledger.NewHoldingRepository(dbService.DB)
	ledgerService := ledger.NewLedgerService(transactionRepo, holdingRepo)

	valuationEngine := valuation.NewEngine(ledgerService, stockService, marketClient)

	portfolioRepo := portfolios.NewPortfolioRepository(dbService.DB)
	portfolioService := portfolios.NewPortfolioService(portfolioRepo)

	portfolioHandler := portfolios.NewPortfolioHandler(
		portfolioService,
		ledgerService,
		stockService,
		valuationEngine,
		respondJSON,
		respondError,
	)

	server := NewServer(portfolioHandler, jwtManager)
	server.RegisterRoutes()

	if err := StartPriceRefreshScheduler(stockService); err != nil {
		log.Fatalf("Scheduler didn't start, stoping the app ...")
	}

	handler := loggingMiddleware(http.HandlerFunc(server.router.ServeHTTP))
	log.Println("Server starting on port 8080...")
	if err := http.ListenAndServe(":8080", handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func StartPriceRefreshScheduler(stockService stock.Service) error {
	c := cron.New()
	_, err := c.AddFunc("@every 5m", func() {
		err := stockService.RefreshStalePrices(context.Background())
		if err != nil {
			log.Printf("Error refreshing stock prices: %v", err)
		} else {
			log.Println("Stock prices refreshed successfully.")
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	return nil
}
