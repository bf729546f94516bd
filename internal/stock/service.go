package stock

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/pwalczyk/PortfolioTracker/internal/marketdata"
	"github.com/pwalczyk/PortfolioTracker/internal/models"
)

// DefaultRefreshDelta is the staleness threshold for cached price
// snapshots: a snapshot older than this triggers a refresh attempt.
const DefaultRefreshDelta = 15 * time.Minute

// quoteTimeout bounds the blocking external quote call so the synchronous
// read path never hangs on a slow source.
const quoteTimeout = 5 * time.Second

var ErrPriceUnavailable = errors.New("price unavailable")
var ErrStockNotFound = errors.New("stock not found")

// currencySymbols maps ISO codes to the display symbols the presentation
// layer shows next to money figures. Unknown codes pass through as-is.
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"CZK": "Kč",
	"JPY": "¥",
	"CHF": "CHF",
	"CAD": "C$",
	"AUD": "A$",
	"CNY": "¥",
	"INR": "₹",
	"KRW": "₩",
	"BRL": "R$",
	"MXN": "$",
	"ZAR": "R",
	"SEK": "kr",
	"NOK": "kr",
	"TRY": "₺",
	"PLN": "zł",
}

// Service owns the per-ticker price snapshot cache: fresh snapshots are
// served directly, stale ones are refreshed against the market-data
// source, and a failed refresh degrades to the last known price.
type Service interface {
	CurrentPrice(ctx context.Context, ticker string) (float64, string, error)
	Register(ctx context.Context, ticker string) (*models.Stock, error)
	RefreshStalePrices(ctx context.Context) error
}

type service struct {
	stockRepo    Repository
	market       marketdata.Client
	refreshDelta time.Duration
}

func NewStockService(stockRepo Repository, market marketdata.Client, refreshDelta time.Duration) Service {
	if refreshDelta <= 0 {
		refreshDelta = DefaultRefreshDelta
	}
	return &service{
		stockRepo:    stockRepo,
		market:       market,
		refreshDelta: refreshDelta,
	}
}

// CurrentPrice returns the cached snapshot price when fresh, refreshing it
// first when stale or empty. A failed refresh falls back to the last known
// price; only a ticker with no price at all yields ErrPriceUnavailable.
func (s *service) CurrentPrice(ctx context.Context, ticker string) (float64, string, error) {
	stock, err := s.stockRepo.GetByTicker(ctx, strings.ToUpper(ticker))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", ErrStockNotFound
		}
		return 0, "", err
	}

	cutoff := time.Now().Add(-s.refreshDelta)
	if stock.LastPrice == nil || stock.LastUpdate.Before(cutoff) {
		if refreshed, err := s.refresh(ctx, stock); err != nil {
			log.Printf("Price refresh failed for %s, falling back to last known price: %v", stock.Ticker, err)
		} else {
			stock = refreshed
		}
	}

	if stock.LastPrice == nil {
		return 0, "", ErrPriceUnavailable
	}
	currency := ""
	if stock.Currency != nil {
		currency = *stock.Currency
	}
	return *stock.LastPrice, currency, nil
}

// Register makes sure a stock row exists for ticker, filling in name,
// currency and price from the quote source. A failed fetch still leaves
// the bare ticker registered.
func (s *service) Register(ctx context.Context, ticker string) (*models.Stock, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	stock, created, err := s.stockRepo.GetOrCreate(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if !created && stock.LastPrice != nil {
		return stock, nil
	}

	refreshed, err := s.refresh(ctx, stock)
	if err != nil {
		log.Printf("Ticker %s registered, but fetching quote data failed: %v", ticker, err)
		return stock, nil
	}
	return refreshed, nil
}

// RefreshStalePrices refreshes every snapshot past the staleness
// threshold. Individual failures are logged and skipped.
func (s *service) RefreshStalePrices(ctx context.Context) error {
	stale, err := s.stockRepo.FindStale(ctx, time.Now().Add(-s.refreshDelta))
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	refreshed := 0
	for i := range stale {
		if _, err := s.refresh(ctx, &stale[i]); err != nil {
			log.Printf("Failed to refresh price for %s: %v", stale[i].Ticker, err)
			continue
		}
		refreshed++
	}
	log.Printf("Refreshed %d of %d stale stock prices", refreshed, len(stale))
	return nil
}

func (s *service) refresh(ctx context.Context, stock *models.Stock) (*models.Stock, error) {
	quoteCtx, cancel := context.WithTimeout(ctx, quoteTimeout)
	defer cancel()

	quote, err := s.market.GetQuote(quoteCtx, stock.Ticker)
	if err != nil {
		return nil, err
	}

	updated := *stock
	updated.LastPrice = &quote.Price
	updated.LastUpdate = time.Now()
	if quote.Name != "" {
		updated.Name = quote.Name
	}
	if quote.Currency != "" {
		symbol := symbolForCurrency(quote.Currency)
		updated.Currency = &symbol
	}

	if err := s.stockRepo.UpdateSnapshot(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func symbolForCurrency(code string) string {
	if symbol, ok := currencySymbols[code]; ok {
		return symbol
	}
	return code
}
