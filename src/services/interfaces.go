package services

import (
	"context"
	"errors"
	"io"

	"github.com/username/yieldly/backend/src/models"
)

var ErrParsingFailed = errors.New("parsing failed")

// PortfolioService is the core orchestration surface: it turns the stored
// ledger into derived holding summaries and runs CSV import batches.
type PortfolioService interface {
	GetPortfolioSummary(portfolioID int64) ([]models.HoldingSummary, error)
	ImportCSV(reader io.Reader) (*models.ImportResult, error)
}

// PriceService fetches current market quotes and writes them into the stock
// reference rows. One ticker's failure never aborts the remaining tickers.
type PriceService interface {
	RefreshPortfolioPrices(ctx context.Context, portfolioID int64) (*models.RefreshResult, error)
}
