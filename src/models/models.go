package models

// TransactionType classifies a ledger entry. Any value outside this set is
// rejected at the API boundary and never reaches the aggregation engine.
type TransactionType string

const (
	TypeBuy              TransactionType = "BUY"
	TypeSell             TransactionType = "SELL"
	TypeDividend         TransactionType = "DIVIDEND"
	TypeDividendReinvest TransactionType = "DIVIDEND_REINVEST"
)

// IsValid reports whether t is one of the four recognized transaction types.
func (t TransactionType) IsValid() bool {
	switch t {
	case TypeBuy, TypeSell, TypeDividend, TypeDividendReinvest:
		return true
	}
	return false
}

// IsAcquisition reports whether the transaction adds shares to the position.
// Reinvested dividends count: the cash was never received, it was immediately
// repurchased.
func (t TransactionType) IsAcquisition() bool {
	return t == TypeBuy || t == TypeDividendReinvest
}

// DividendFrequency is the declared payout schedule for a stock. Unrecognized
// values are not an error: they annualize to zero payments.
type DividendFrequency string

const (
	FrequencyMonthly    DividendFrequency = "Monthly"
	FrequencyQuarterly  DividendFrequency = "Quarterly"
	FrequencySemiAnnual DividendFrequency = "Semi-Annual"
	FrequencyAnnual     DividendFrequency = "Annual"
)

// PaymentsPerYear returns the annualization multiplier for the frequency.
func (f DividendFrequency) PaymentsPerYear() float64 {
	switch f {
	case FrequencyMonthly:
		return 12
	case FrequencyQuarterly:
		return 4
	case FrequencySemiAnnual:
		return 2
	case FrequencyAnnual:
		return 1
	}
	return 0
}

// Portfolio groups transactions under a short unique code (e.g. "RRSP").
type Portfolio struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	DisplayOrder int64  `json:"display_order"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// Transaction is one immutable ledger entry. Total is stored independently of
// quantity*price so dividend rows can carry a cash amount with no shares.
type Transaction struct {
	ID          int64           `json:"id"`
	PortfolioID int64           `json:"portfolio_id"`
	Ticker      string          `json:"ticker"`
	Type        TransactionType `json:"type"`
	Quantity    float64         `json:"quantity"`
	Price       float64         `json:"price"`
	Total       float64         `json:"total"`
	Date        string          `json:"date"` // YYYY-MM-DD, the logical transaction date
	CreatedAt   string          `json:"created_at,omitempty"`
}

// StockInfo is the mutable per-(portfolio, ticker) reference row. Zero/empty
// values mean "not set", never "known to be zero".
type StockInfo struct {
	PortfolioID       int64             `json:"portfolio_id"`
	Ticker            string            `json:"ticker"`
	MarketPrice       float64           `json:"market_price"`
	DividendFrequency DividendFrequency `json:"dividend_frequency"`
	DividendPerShare  float64           `json:"dividend_per_share"`
	LastDividendDate  string            `json:"last_dividend_date"`
}

// StockInfoUpdate carries a partial reference update. Nil fields keep the
// stored value; non-nil fields overwrite it.
type StockInfoUpdate struct {
	MarketPrice       *float64 `json:"market_price"`
	DividendFrequency *string  `json:"dividend_frequency"`
	DividendPerShare  *float64 `json:"dividend_per_share"`
	LastDividendDate  *string  `json:"last_dividend_date"`
}

// HoldingSummary is the derived view of one ticker inside a portfolio. It is
// recomputed from the ledger on every read and never persisted.
type HoldingSummary struct {
	Ticker        string  `json:"ticker"`
	Shares        float64 `json:"shares"`
	BuyPrice      float64 `json:"buy_price"`
	MarketPrice   float64 `json:"market_price"`
	SalePrice     float64 `json:"sale_price"`
	BuyTotal      float64 `json:"buy_total"`
	MarketValue   float64 `json:"market_value"`
	SaleTotal     float64 `json:"sale_total"`
	DividendsPaid float64 `json:"dividends_paid"`
	Return        float64 `json:"return"`
	ReturnPercent float64 `json:"return_percent"`

	DividendFrequency DividendFrequency `json:"dividend_frequency"`
	DividendPerShare  float64           `json:"dividend_per_share"`
	LastDividendDate  string            `json:"last_dividend_date"`
	NextPayout        float64           `json:"next_payout"`
	AnnualPayout      float64           `json:"annual_payout"`
	DividendYield     float64           `json:"dividend_yield"`
}

// ImportedRow records one CSV line that was successfully imported.
type ImportedRow struct {
	Line      int    `json:"line"`
	Symbol    string `json:"symbol"`
	Portfolio string `json:"portfolio"`
	Date      string `json:"date"`
}

// ImportRowError records one CSV line that was rejected. A row error never
// aborts the rest of the batch.
type ImportRowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// ImportResult summarizes a CSV import batch.
type ImportResult struct {
	Success  bool          `json:"success"`
	Imported int           `json:"imported"`
	Errors   int           `json:"errors"`
	Details  ImportDetails `json:"details"`
}

type ImportDetails struct {
	Imported []ImportedRow    `json:"imported"`
	Errors   []ImportRowError `json:"errors"`
}

// TickerError records a single ticker's failure during a price refresh.
type TickerError struct {
	Ticker string `json:"ticker"`
	Error  string `json:"error"`
}

// RefreshResult summarizes a portfolio price refresh. Updated counts tickers
// whose market price was written; failures are reported per ticker.
type RefreshResult struct {
	Message string        `json:"message"`
	Updated int           `json:"updated"`
	Errors  []TickerError `json:"errors,omitempty"`
}
