package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo rejects requests without a browser-like user agent.
const yahooUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// YahooClient fetches quotes and daily price history from the Yahoo
// Finance chart API.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewYahooClient() *YahooClient {
	return &YahooClient{
		baseURL:    defaultYahooBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewYahooClientWithBaseURL is used by tests to point the client at a
// local server.
func NewYahooClientWithBaseURL(baseURL string) *YahooClient {
	c := NewYahooClient()
	c.baseURL = baseURL
	return c
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				ShortName          string  `json:"shortName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *YahooClient) fetchChart(ctx context.Context, ticker string, params url.Values) (*chartResponse, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", yahooUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error querying chart API for %s: %s", ticker, resp.Status)
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s", ticker, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart API returned no result for %s", ticker)
	}
	return &chart, nil
}

// GetQuote returns the latest known price for ticker.
func (c *YahooClient) GetQuote(ctx context.Context, ticker string) (*Quote, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", "1d")

	chart, err := c.fetchChart(ctx, ticker, params)
	if err != nil {
		return nil, err
	}

	meta := chart.Chart.Result[0].Meta
	symbol := meta.Symbol
	if symbol == "" {
		symbol = ticker
	}
	return &Quote{
		Ticker:   symbol,
		Name:     meta.ShortName,
		Price:    meta.RegularMarketPrice,
		Currency: meta.Currency,
		Time:     time.Unix(meta.RegularMarketTime, 0).UTC(),
	}, nil
}

// GetDailyHistory returns daily closing prices for every ticker across
// [start, end], merged on the union of trading dates.
func (c *YahooClient) GetDailyHistory(ctx context.Context, tickers []string, start, end time.Time) (*PriceTable, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", fmt.Sprintf("%d", start.Unix()))
	// period2 is exclusive on the source side, push it one day past end.
	params.Set("period2", fmt.Sprintf("%d", end.AddDate(0, 0, 1).Unix()))

	all := make([]tickerBars, 0, len(tickers))
	for _, ticker := range tickers {
		chart, err := c.fetchChart(ctx, ticker, params)
		if err != nil {
			return nil, err
		}
		all = append(all, chartToBars(ticker, chart))
	}
	return buildTable(all), nil
}

func chartToBars(requested string, chart *chartResponse) tickerBars {
	result := chart.Chart.Result[0]

	// A single-ticker flat response may omit the symbol; fall back to the
	// ticker the caller asked for.
	ticker := result.Meta.Symbol
	if ticker == "" {
		ticker = requested
	}

	var closes []*float64
	if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}
	var adjCloses []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjCloses = result.Indicators.AdjClose[0].AdjClose
	}

	bars := tickerBars{
		ticker:   ticker,
		hasClose: closes != nil,
		hasAdj:   adjCloses != nil,
	}
	for i, ts := range result.Timestamp {
		day := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		var closeVal, adjVal *float64
		if i < len(closes) {
			closeVal = closes[i]
		}
		if i < len(adjCloses) {
			adjVal = adjCloses[i]
		}
		// Rows where the source has no price at all are dropped.
		if closeVal == nil && adjVal == nil {
			continue
		}
		bars.dates = append(bars.dates, day)
		if bars.hasClose {
			v := 0.0
			if closeVal != nil {
				v = *closeVal
			} else if adjVal != nil {
				v = *adjVal
			}
			bars.close = append(bars.close, v)
		}
		if bars.hasAdj {
			v := 0.0
			if adjVal != nil {
				v = *adjVal
			} else if closeVal != nil {
				v = *closeVal
			}
			bars.adjClose = append(bars.adjClose, v)
		}
	}
	return bars
}
