package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/username/yieldly/backend/src/models"
)

// StockInfoStore persists the mutable per-(portfolio, ticker) reference rows:
// latest market price and the declared dividend schedule.
type StockInfoStore struct {
	db *sql.DB
}

func NewStockInfoStore(db *sql.DB) *StockInfoStore {
	return &StockInfoStore{db: db}
}

// Get fetches the reference row for one ticker. sql.ErrNoRows is passed
// through so callers can distinguish "no row yet" from a query failure.
func (s *StockInfoStore) Get(portfolioID int64, ticker string) (models.StockInfo, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	var (
		info             models.StockInfo
		marketPrice      sql.NullFloat64
		frequency        sql.NullString
		perShare         sql.NullFloat64
		lastDividendDate sql.NullString
	)
	err := s.db.QueryRow(`SELECT portfolio_id, ticker, market_price, dividend_frequency, dividend_per_share, last_dividend_date
		FROM stock_info WHERE portfolio_id = ? AND ticker = ?`, portfolioID, ticker).
		Scan(&info.PortfolioID, &info.Ticker, &marketPrice, &frequency, &perShare, &lastDividendDate)
	if err != nil {
		return models.StockInfo{}, err
	}
	info.MarketPrice = marketPrice.Float64
	info.DividendFrequency = models.DividendFrequency(frequency.String)
	info.DividendPerShare = perShare.Float64
	info.LastDividendDate = lastDividendDate.String
	return info, nil
}

// Upsert applies a partial update to the reference row, creating it on first
// write. The merge is explicit: nil fields keep the stored value, non-nil
// fields overwrite it.
func (s *StockInfoStore) Upsert(portfolioID int64, ticker string, update models.StockInfoUpdate) (models.StockInfo, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return models.StockInfo{}, ErrMissingFields
	}

	info, err := s.Get(portfolioID, ticker)
	if err == sql.ErrNoRows {
		info = models.StockInfo{PortfolioID: portfolioID, Ticker: ticker}
	} else if err != nil {
		return models.StockInfo{}, fmt.Errorf("error reading stock info for %s: %w", ticker, err)
	}

	if update.MarketPrice != nil {
		info.MarketPrice = *update.MarketPrice
	}
	if update.DividendFrequency != nil {
		info.DividendFrequency = models.DividendFrequency(*update.DividendFrequency)
	}
	if update.DividendPerShare != nil {
		info.DividendPerShare = *update.DividendPerShare
	}
	if update.LastDividendDate != nil {
		info.LastDividendDate = *update.LastDividendDate
	}

	_, err = s.db.Exec(`INSERT INTO stock_info (portfolio_id, ticker, market_price, dividend_frequency, dividend_per_share, last_dividend_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(portfolio_id, ticker) DO UPDATE SET
			market_price = excluded.market_price,
			dividend_frequency = excluded.dividend_frequency,
			dividend_per_share = excluded.dividend_per_share,
			last_dividend_date = excluded.last_dividend_date,
			updated_at = CURRENT_TIMESTAMP`,
		portfolioID, ticker, info.MarketPrice, string(info.DividendFrequency), info.DividendPerShare, info.LastDividendDate)
	if err != nil {
		return models.StockInfo{}, fmt.Errorf("error upserting stock info for %s: %w", ticker, err)
	}
	return info, nil
}

// SetMarketPrice overwrites only the market price, used by the quote refresh.
func (s *StockInfoStore) SetMarketPrice(portfolioID int64, ticker string, price float64) error {
	_, err := s.Upsert(portfolioID, ticker, models.StockInfoUpdate{MarketPrice: &price})
	return err
}

// ListByPortfolio returns all reference rows for a portfolio. Tickers with no
// row simply have no entry; the aggregation engine treats that as "unset".
func (s *StockInfoStore) ListByPortfolio(portfolioID int64) ([]models.StockInfo, error) {
	rows, err := s.db.Query(`SELECT portfolio_id, ticker, market_price, dividend_frequency, dividend_per_share, last_dividend_date
		FROM stock_info WHERE portfolio_id = ?`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("error querying stock info for portfolio %d: %w", portfolioID, err)
	}
	defer rows.Close()

	var infos []models.StockInfo
	for rows.Next() {
		var (
			info             models.StockInfo
			marketPrice      sql.NullFloat64
			frequency        sql.NullString
			perShare         sql.NullFloat64
			lastDividendDate sql.NullString
		)
		if err := rows.Scan(&info.PortfolioID, &info.Ticker, &marketPrice, &frequency, &perShare, &lastDividendDate); err != nil {
			return nil, fmt.Errorf("error scanning stock info row for portfolio %d: %w", portfolioID, err)
		}
		info.MarketPrice = marketPrice.Float64
		info.DividendFrequency = models.DividendFrequency(frequency.String)
		info.DividendPerShare = perShare.Float64
		info.LastDividendDate = lastDividendDate.String
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over stock info rows for portfolio %d: %w", portfolioID, err)
	}
	return infos, nil
}
