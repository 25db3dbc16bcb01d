package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/username/yieldly/backend/src/models"
)

// LedgerStore persists the append-only transaction ledger. Rows are immutable
// once written; the only mutation is an explicit delete by id.
type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// Insert appends a transaction and assigns its id. Ticker and type are
// normalized to uppercase; the type must be one of the closed enum. No other
// validation happens here: total is stored as given, independent of
// quantity*price, so dividend rows can carry a cash amount with no shares.
func (s *LedgerStore) Insert(tx models.Transaction) (models.Transaction, error) {
	if tx.PortfolioID == 0 || tx.Ticker == "" || tx.Type == "" || tx.Date == "" {
		return models.Transaction{}, ErrMissingFields
	}
	tx.Ticker = strings.ToUpper(strings.TrimSpace(tx.Ticker))
	tx.Type = models.TransactionType(strings.ToUpper(strings.TrimSpace(string(tx.Type))))
	if !tx.Type.IsValid() {
		return models.Transaction{}, fmt.Errorf("%w: %q", ErrInvalidTransactionType, tx.Type)
	}

	res, err := s.db.Exec(`INSERT INTO transactions (portfolio_id, ticker, type, quantity, price, total, date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.PortfolioID, tx.Ticker, tx.Type, tx.Quantity, tx.Price, tx.Total, tx.Date)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed") {
			return models.Transaction{}, ErrPortfolioNotFound
		}
		return models.Transaction{}, fmt.Errorf("error inserting transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Transaction{}, fmt.Errorf("error reading new transaction id: %w", err)
	}
	tx.ID = id
	return tx, nil
}

// ListByPortfolio returns a portfolio's transactions, newest first, for the
// history view. The aggregation engine is order-insensitive.
func (s *LedgerStore) ListByPortfolio(portfolioID int64) ([]models.Transaction, error) {
	rows, err := s.db.Query(`SELECT id, portfolio_id, ticker, type, quantity, price, total, date, created_at
		FROM transactions
		WHERE portfolio_id = ?
		ORDER BY date DESC, created_at DESC`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions for portfolio %d: %w", portfolioID, err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		scanErr := rows.Scan(&tx.ID, &tx.PortfolioID, &tx.Ticker, &tx.Type, &tx.Quantity, &tx.Price, &tx.Total, &tx.Date, &tx.CreatedAt)
		if scanErr != nil {
			return nil, fmt.Errorf("error scanning transaction row for portfolio %d: %w", portfolioID, scanErr)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transaction rows for portfolio %d: %w", portfolioID, err)
	}
	return transactions, nil
}

// Delete removes a transaction by id. The holding summary is derived on read,
// so no recomputation or cascade is needed.
func (s *LedgerStore) Delete(id int64) error {
	res, err := s.db.Exec("DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("error deleting transaction %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking delete result for transaction %d: %w", id, err)
	}
	if affected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// DistinctTickers returns the tickers a portfolio has ever transacted in,
// sorted alphabetically. Used by the price refresh.
func (s *LedgerStore) DistinctTickers(portfolioID int64) ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT ticker FROM transactions WHERE portfolio_id = ? ORDER BY ticker ASC", portfolioID)
	if err != nil {
		return nil, fmt.Errorf("error querying tickers for portfolio %d: %w", portfolioID, err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("error scanning ticker row for portfolio %d: %w", portfolioID, err)
		}
		tickers = append(tickers, ticker)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over ticker rows for portfolio %d: %w", portfolioID, err)
	}
	return tickers, nil
}
