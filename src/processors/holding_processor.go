package processors

import (
	"sort"

	"github.com/username/yieldly/backend/src/models"
)

// HoldingProcessor aggregates a portfolio's transaction ledger into per-ticker
// holding summaries. It is a pure computation: it performs no I/O, holds no
// state, and always produces the same output for the same input snapshot.
type HoldingProcessor struct{}

func NewHoldingProcessor() *HoldingProcessor {
	return &HoldingProcessor{}
}

// Process groups transactions by ticker, joins the reference rows and derives
// one HoldingSummary per ticker. A ticker is included iff it still holds
// shares or has at least one sale; fully exited positions stay visible so
// their realized return is reported. Output is sorted by ticker.
//
// Divisions degrade to zero instead of erroring: no shares bought means no
// average buy price, no market value means no yield. A ticker without a
// reference row gets unset (zero/empty) market and dividend fields.
func (p *HoldingProcessor) Process(transactions []models.Transaction, refs []models.StockInfo) []models.HoldingSummary {
	byTicker := groupByTicker(transactions)
	refByTicker := make(map[string]models.StockInfo, len(refs))
	for _, ref := range refs {
		refByTicker[ref.Ticker] = ref
	}

	summaries := make([]models.HoldingSummary, 0, len(byTicker))
	for ticker, txs := range byTicker {
		ref := refByTicker[ticker] // zero value when absent: market/dividend fields unset
		if summary, ok := summarizeTicker(ticker, txs, ref); ok {
			summaries = append(summaries, summary)
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Ticker < summaries[j].Ticker
	})
	return summaries
}

func summarizeTicker(ticker string, txs []models.Transaction, ref models.StockInfo) (models.HoldingSummary, bool) {
	var sharesBought, sharesSold float64
	var buyTotal, saleTotal, dividendsPaid float64

	for _, tx := range txs {
		switch {
		case tx.Type.IsAcquisition():
			sharesBought += tx.Quantity
			buyTotal += tx.Total
		case tx.Type == models.TypeSell:
			sharesSold += tx.Quantity
			saleTotal += tx.Total
		case tx.Type == models.TypeDividend:
			dividendsPaid += tx.Total
		}
	}

	shares := sharesBought - sharesSold
	if shares <= 0 && sharesSold <= 0 {
		return models.HoldingSummary{}, false
	}

	s := models.HoldingSummary{
		Ticker:        ticker,
		Shares:        shares,
		BuyTotal:      buyTotal,
		SaleTotal:     saleTotal,
		DividendsPaid: dividendsPaid,

		MarketPrice:       ref.MarketPrice,
		DividendFrequency: ref.DividendFrequency,
		DividendPerShare:  ref.DividendPerShare,
		LastDividendDate:  ref.LastDividendDate,
	}

	if sharesBought > 0 {
		s.BuyPrice = buyTotal / sharesBought
	}
	if sharesSold > 0 {
		s.SalePrice = saleTotal / sharesSold
	}

	s.MarketValue = shares * ref.MarketPrice
	s.Return = s.MarketValue + saleTotal + dividendsPaid - buyTotal
	if buyTotal > 0 {
		s.ReturnPercent = (s.Return / buyTotal) * 100
	}

	s.NextPayout = shares * ref.DividendPerShare
	s.AnnualPayout = s.NextPayout * ref.DividendFrequency.PaymentsPerYear()
	if s.MarketValue > 0 {
		s.DividendYield = (s.AnnualPayout / s.MarketValue) * 100
	}

	return s, true
}

func groupByTicker(transactions []models.Transaction) map[string][]models.Transaction {
	grouped := make(map[string][]models.Transaction)
	for _, tx := range transactions {
		if tx.Ticker == "" {
			continue
		}
		grouped[tx.Ticker] = append(grouped[tx.Ticker], tx)
	}
	return grouped
}
