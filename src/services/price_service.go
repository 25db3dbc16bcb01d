package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"regexp"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/yieldly/backend/src/logger"
	"github.com/username/yieldly/backend/src/models"
	"github.com/username/yieldly/backend/src/store"
	"github.com/username/yieldly/backend/src/utils"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const quoteUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string  `json:"symbol"`
			RegularMarketPrice float64 `json:"regularMarketPrice"`
			Currency           string  `json:"currency"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"quoteResponse"`
}

// priceServiceImpl fetches quotes from Yahoo Finance. Requests share a cookie
// jar and a crumb token; fetches are sequential and throttled so a refresh
// never bursts against the third-party rate limit.
type priceServiceImpl struct {
	httpClient http.Client
	crumb      string // Yahoo's crumb for authenticated quote requests

	limiter    *rate.Limiter
	quoteCache *cache.Cache

	ledger    *store.LedgerStore
	stockInfo *store.StockInfoStore
}

// NewPriceService creates the quote fetch adapter. requestsPerSecond bounds
// the per-ticker fetch pace; cacheTTL is how long a fetched price is reused
// before Yahoo is asked again.
func NewPriceService(ledger *store.LedgerStore, stockInfo *store.StockInfoStore, requestsPerSecond float64, cacheTTL, clientTimeout time.Duration) PriceService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	s := &priceServiceImpl{
		httpClient: http.Client{
			Jar:     jar,
			Timeout: clientTimeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		quoteCache: cache.New(cacheTTL, 2*cacheTTL),
		ledger:     ledger,
		stockInfo:  stockInfo,
	}

	if err := s.initializeYahooSession(); err != nil {
		logger.L.Error("Failed to initialize Yahoo Finance session. Price fetching may fail.", "error", err)
	}

	return s
}

// initializeYahooSession visits a Yahoo Finance page to get necessary cookies and the crumb.
func (s *priceServiceImpl) initializeYahooSession() error {
	logger.L.Info("Initializing Yahoo Finance session to get crumb and cookies...")
	initURL := "https://finance.yahoo.com/quote/VHYL.L"
	req, err := http.NewRequest("GET", initURL, nil)
	if err != nil {
		return err
	}
	// A valid User-Agent is crucial.
	req.Header.Set("User-Agent", quoteUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make initial request to Yahoo: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read Yahoo response body: %w", err)
	}

	re := regexp.MustCompile(`"CrumbStore":{"crumb":"(.*?)"}`)
	matches := re.FindStringSubmatch(string(body))
	if len(matches) < 2 {
		return fmt.Errorf("could not find crumb in Yahoo Finance response. The page structure may have changed")
	}

	s.crumb = matches[1]
	logger.L.Info("Successfully obtained Yahoo Finance crumb.")
	return nil
}

// RefreshPortfolioPrices fetches a current quote for every ticker the
// portfolio has transacted in and writes it into the stock reference rows.
// Tickers are fetched one at a time behind the limiter; a failed ticker is
// recorded and the rest continue.
func (s *priceServiceImpl) RefreshPortfolioPrices(ctx context.Context, portfolioID int64) (*models.RefreshResult, error) {
	tickers, err := s.ledger.DistinctTickers(portfolioID)
	if err != nil {
		return nil, err
	}
	if len(tickers) == 0 {
		return &models.RefreshResult{Message: "No tickers to refresh"}, nil
	}

	if s.crumb == "" {
		logger.L.Warn("Yahoo crumb is missing, attempting to re-initialize session.")
		if err := s.initializeYahooSession(); err != nil {
			return nil, fmt.Errorf("failed to re-initialize Yahoo session: %w", err)
		}
	}

	result := &models.RefreshResult{}
	for _, ticker := range tickers {
		price, err := s.currentPrice(ctx, ticker)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("price refresh cancelled: %w", ctx.Err())
			}
			logger.L.Warn("Quote fetch failed", "ticker", ticker, "error", err)
			result.Errors = append(result.Errors, models.TickerError{Ticker: ticker, Error: err.Error()})
			continue
		}

		if err := s.stockInfo.SetMarketPrice(portfolioID, ticker, price); err != nil {
			result.Errors = append(result.Errors, models.TickerError{Ticker: ticker, Error: err.Error()})
			continue
		}
		result.Updated++
	}

	result.Message = fmt.Sprintf("Updated prices for %d of %d tickers", result.Updated, len(tickers))
	logger.L.Info("Price refresh finished", "portfolioID", portfolioID, "updated", result.Updated, "failed", len(result.Errors))
	return result, nil
}

// currentPrice returns the market price for a ticker, from the short-lived
// quote cache when possible.
func (s *priceServiceImpl) currentPrice(ctx context.Context, ticker string) (float64, error) {
	if cached, found := s.quoteCache.Get(ticker); found {
		return cached.(float64), nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	price, err := s.fetchQuote(ctx, ticker)
	if err != nil {
		return 0, err
	}
	price = utils.RoundFloat(price, 2)
	s.quoteCache.Set(ticker, price, cache.DefaultExpiration)
	return price, nil
}

// fetchQuote uses Yahoo's v7 quote endpoint, which requires the crumb.
func (s *priceServiceImpl) fetchQuote(ctx context.Context, ticker string) (float64, error) {
	quoteURL := fmt.Sprintf("https://query2.finance.yahoo.com/v7/finance/quote?symbols=%s&crumb=%s", ticker, s.crumb)
	req, err := http.NewRequestWithContext(ctx, "GET", quoteURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", quoteUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call Yahoo quote API for ticker %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("yahoo quote API returned non-OK status %d for ticker %s. Body: %s", resp.StatusCode, ticker, string(bodyBytes))
	}

	var quoteData yahooQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quoteData); err != nil {
		return 0, fmt.Errorf("failed to decode Yahoo quote response for ticker %s: %w", ticker, err)
	}

	if quoteData.QuoteResponse.Error != nil || len(quoteData.QuoteResponse.Result) == 0 {
		return 0, fmt.Errorf("yahoo quote API returned an error or no result for ticker %s", ticker)
	}

	return quoteData.QuoteResponse.Result[0].RegularMarketPrice, nil
}
