package services

import (
	"fmt"
	"io"
	"sort"

	"github.com/username/yieldly/backend/src/logger"
	"github.com/username/yieldly/backend/src/models"
	"github.com/username/yieldly/backend/src/parsers"
	"github.com/username/yieldly/backend/src/processors"
	"github.com/username/yieldly/backend/src/store"
)

type portfolioServiceImpl struct {
	portfolios       *store.PortfolioStore
	ledger           *store.LedgerStore
	stockInfo        *store.StockInfoStore
	csvParser        *parsers.CSVParser
	holdingProcessor *processors.HoldingProcessor
}

func NewPortfolioService(
	portfolios *store.PortfolioStore,
	ledger *store.LedgerStore,
	stockInfo *store.StockInfoStore,
	csvParser *parsers.CSVParser,
	holdingProcessor *processors.HoldingProcessor,
) PortfolioService {
	return &portfolioServiceImpl{
		portfolios:       portfolios,
		ledger:           ledger,
		stockInfo:        stockInfo,
		csvParser:        csvParser,
		holdingProcessor: holdingProcessor,
	}
}

// GetPortfolioSummary recomputes the holding summaries from the current
// ledger snapshot. Nothing derived is cached or stored, so the result can
// never go stale relative to the transaction log.
func (s *portfolioServiceImpl) GetPortfolioSummary(portfolioID int64) ([]models.HoldingSummary, error) {
	if _, err := s.portfolios.Get(portfolioID); err != nil {
		return nil, err
	}

	transactions, err := s.ledger.ListByPortfolio(portfolioID)
	if err != nil {
		return nil, fmt.Errorf("error loading ledger for portfolio %d: %w", portfolioID, err)
	}
	refs, err := s.stockInfo.ListByPortfolio(portfolioID)
	if err != nil {
		return nil, fmt.Errorf("error loading stock info for portfolio %d: %w", portfolioID, err)
	}

	return s.holdingProcessor.Process(transactions, refs), nil
}

// ImportCSV parses delimited text and appends each valid row to the ledger.
// Row-level failures (bad format, unknown portfolio code, rejected insert)
// are collected per line and never abort the batch.
func (s *portfolioServiceImpl) ImportCSV(reader io.Reader) (*models.ImportResult, error) {
	rows, rowErrors, err := s.csvParser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	result := &models.ImportResult{Success: true}
	result.Details.Errors = rowErrors

	// Portfolio codes repeat across rows; resolve each code once.
	portfolioByCode := make(map[string]int64)

	for _, row := range rows {
		portfolioID, ok := portfolioByCode[row.PortfolioCode]
		if !ok {
			portfolio, err := s.portfolios.GetByCode(row.PortfolioCode)
			if err == store.ErrPortfolioNotFound {
				result.Details.Errors = append(result.Details.Errors, models.ImportRowError{
					Line:  row.Line,
					Error: fmt.Sprintf("Portfolio '%s' not found", row.PortfolioCode),
				})
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("error resolving portfolio code %q: %w", row.PortfolioCode, err)
			}
			portfolioID = portfolio.ID
			portfolioByCode[row.PortfolioCode] = portfolioID
		}

		_, err := s.ledger.Insert(models.Transaction{
			PortfolioID: portfolioID,
			Ticker:      row.Ticker,
			Type:        row.Type,
			Quantity:    row.Quantity,
			Price:       row.Price,
			Total:       row.Total,
			Date:        row.Date,
		})
		if err != nil {
			result.Details.Errors = append(result.Details.Errors, models.ImportRowError{
				Line:  row.Line,
				Error: err.Error(),
			})
			continue
		}

		result.Details.Imported = append(result.Details.Imported, models.ImportedRow{
			Line:      row.Line,
			Symbol:    row.Ticker,
			Portfolio: row.PortfolioCode,
			Date:      row.Date,
		})
	}

	sort.Slice(result.Details.Errors, func(i, j int) bool {
		return result.Details.Errors[i].Line < result.Details.Errors[j].Line
	})
	result.Imported = len(result.Details.Imported)
	result.Errors = len(result.Details.Errors)
	logger.L.Info("CSV import finished", "imported", result.Imported, "errors", result.Errors)
	return result, nil
}
