package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/username/yieldly/backend/src/database"
	"github.com/username/yieldly/backend/src/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.InitDB(":memory:")
	if err != nil {
		t.Fatalf("failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestPortfolio(t *testing.T, s *PortfolioStore, name, code string) models.Portfolio {
	t.Helper()
	p, err := s.Create(name, code)
	if err != nil {
		t.Fatalf("failed to create portfolio %s: %v", code, err)
	}
	return p
}

func TestPortfolioCreateNormalizesCode(t *testing.T) {
	db := newTestDB(t)
	s := NewPortfolioStore(db)

	p := createTestPortfolio(t, s, "Retirement", " rrsp ")
	if p.Code != "RRSP" {
		t.Errorf("code = %q, want RRSP", p.Code)
	}
	if p.ID == 0 {
		t.Error("expected a non-zero id")
	}
}

func TestPortfolioCreateDuplicateCode(t *testing.T) {
	db := newTestDB(t)
	s := NewPortfolioStore(db)

	createTestPortfolio(t, s, "Retirement", "RRSP")
	_, err := s.Create("Other", "rrsp")
	if !errors.Is(err, ErrDuplicatePortfolioCode) {
		t.Errorf("err = %v, want ErrDuplicatePortfolioCode", err)
	}
}

func TestPortfolioCreateMissingFields(t *testing.T) {
	db := newTestDB(t)
	s := NewPortfolioStore(db)

	if _, err := s.Create("", "RRSP"); !errors.Is(err, ErrMissingFields) {
		t.Errorf("err = %v, want ErrMissingFields for empty name", err)
	}
	if _, err := s.Create("Retirement", ""); !errors.Is(err, ErrMissingFields) {
		t.Errorf("err = %v, want ErrMissingFields for empty code", err)
	}
}

func TestPortfolioGetByCodeCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	s := NewPortfolioStore(db)

	created := createTestPortfolio(t, s, "Retirement", "RRSP")
	got, err := s.GetByCode("rrsp")
	if err != nil {
		t.Fatalf("GetByCode returned error: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("got id %d, want %d", got.ID, created.ID)
	}

	if _, err := s.GetByCode("NOPE"); !errors.Is(err, ErrPortfolioNotFound) {
		t.Errorf("err = %v, want ErrPortfolioNotFound", err)
	}
}

func TestPortfolioListOrdering(t *testing.T) {
	db := newTestDB(t)
	s := NewPortfolioStore(db)

	a := createTestPortfolio(t, s, "Alpha", "AAA")
	b := createTestPortfolio(t, s, "Beta", "BBB")
	if err := s.UpdateOrder(b.ID, -1); err != nil {
		t.Fatalf("UpdateOrder returned error: %v", err)
	}

	portfolios, err := s.List()
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(portfolios) != 2 {
		t.Fatalf("expected 2 portfolios, got %d", len(portfolios))
	}
	if portfolios[0].ID != b.ID || portfolios[1].ID != a.ID {
		t.Errorf("order = [%s %s], want [BBB AAA]", portfolios[0].Code, portfolios[1].Code)
	}
}

func TestPortfolioDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioStore(db)
	ledger := NewLedgerStore(db)
	stockInfo := NewStockInfoStore(db)

	p := createTestPortfolio(t, portfolios, "Retirement", "RRSP")
	if _, err := ledger.Insert(models.Transaction{
		PortfolioID: p.ID, Ticker: "AAPL", Type: models.TypeBuy,
		Quantity: 1, Price: 100, Total: 100, Date: "2024-01-01",
	}); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	price := 101.0
	if _, err := stockInfo.Upsert(p.ID, "AAPL", models.StockInfoUpdate{MarketPrice: &price}); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	if err := portfolios.Delete(p.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	transactions, err := ledger.ListByPortfolio(p.ID)
	if err != nil {
		t.Fatalf("ListByPortfolio returned error: %v", err)
	}
	if len(transactions) != 0 {
		t.Errorf("expected transactions to cascade, got %d rows", len(transactions))
	}
	infos, err := stockInfo.ListByPortfolio(p.ID)
	if err != nil {
		t.Fatalf("ListByPortfolio returned error: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("expected stock info to cascade, got %d rows", len(infos))
	}

	if err := portfolios.Delete(p.ID); !errors.Is(err, ErrPortfolioNotFound) {
		t.Errorf("second delete err = %v, want ErrPortfolioNotFound", err)
	}
}

func TestLedgerInsertNormalizesAndValidates(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioStore(db)
	ledger := NewLedgerStore(db)

	p := createTestPortfolio(t, portfolios, "Retirement", "RRSP")

	tx, err := ledger.Insert(models.Transaction{
		PortfolioID: p.ID, Ticker: " aapl ", Type: "buy",
		Quantity: 10, Price: 150, Total: 1500, Date: "2024-01-01",
	})
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if tx.Ticker != "AAPL" {
		t.Errorf("ticker = %q, want AAPL", tx.Ticker)
	}
	if tx.Type != models.TypeBuy {
		t.Errorf("type = %q, want BUY", tx.Type)
	}
	if tx.ID == 0 {
		t.Error("expected a non-zero id")
	}

	_, err = ledger.Insert(models.Transaction{
		PortfolioID: p.ID, Ticker: "AAPL", Type: "SPLIT",
		Quantity: 1, Date: "2024-01-01",
	})
	if !errors.Is(err, ErrInvalidTransactionType) {
		t.Errorf("err = %v, want ErrInvalidTransactionType", err)
	}

	_, err = ledger.Insert(models.Transaction{
		PortfolioID: p.ID, Ticker: "AAPL", Type: models.TypeBuy,
	})
	if !errors.Is(err, ErrMissingFields) {
		t.Errorf("err = %v, want ErrMissingFields", err)
	}

	_, err = ledger.Insert(models.Transaction{
		PortfolioID: 9999, Ticker: "AAPL", Type: models.TypeBuy,
		Quantity: 1, Price: 1, Total: 1, Date: "2024-01-01",
	})
	if !errors.Is(err, ErrPortfolioNotFound) {
		t.Errorf("err = %v, want ErrPortfolioNotFound for unknown portfolio", err)
	}
}

func TestLedgerTotalStoredIndependently(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioStore(db)
	ledger := NewLedgerStore(db)

	p := createTestPortfolio(t, portfolios, "Retirement", "RRSP")

	// Dividend row: cash total, no shares.
	tx, err := ledger.Insert(models.Transaction{
		PortfolioID: p.ID, Ticker: "KO", Type: models.TypeDividend,
		Total: 12.34, Date: "2024-02-01",
	})
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if tx.Quantity != 0 || tx.Total != 12.34 {
		t.Errorf("stored quantity/total = %v/%v, want 0/12.34", tx.Quantity, tx.Total)
	}

	transactions, err := ledger.ListByPortfolio(p.ID)
	if err != nil {
		t.Fatalf("ListByPortfolio returned error: %v", err)
	}
	if len(transactions) != 1 || transactions[0].Total != 12.34 {
		t.Errorf("round-tripped rows = %+v", transactions)
	}
}

func TestLedgerListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioStore(db)
	ledger := NewLedgerStore(db)

	p := createTestPortfolio(t, portfolios, "Retirement", "RRSP")
	dates := []string{"2024-01-01", "2024-03-01", "2024-02-01"}
	for _, d := range dates {
		if _, err := ledger.Insert(models.Transaction{
			PortfolioID: p.ID, Ticker: "AAPL", Type: models.TypeBuy,
			Quantity: 1, Price: 1, Total: 1, Date: d,
		}); err != nil {
			t.Fatalf("Insert returned error: %v", err)
		}
	}

	transactions, err := ledger.ListByPortfolio(p.ID)
	if err != nil {
		t.Fatalf("ListByPortfolio returned error: %v", err)
	}
	want := []string{"2024-03-01", "2024-02-01", "2024-01-01"}
	for i, tx := range transactions {
		if tx.Date != want[i] {
			t.Errorf("row %d date = %s, want %s", i, tx.Date, want[i])
		}
	}
}

func TestLedgerDeleteNotFound(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerStore(db)

	if err := ledger.Delete(42); !errors.Is(err, ErrTransactionNotFound) {
		t.Errorf("err = %v, want ErrTransactionNotFound", err)
	}
}

func TestLedgerDistinctTickers(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioStore(db)
	ledger := NewLedgerStore(db)

	p := createTestPortfolio(t, portfolios, "Retirement", "RRSP")
	for _, ticker := range []string{"MSFT", "AAPL", "MSFT", "KO"} {
		if _, err := ledger.Insert(models.Transaction{
			PortfolioID: p.ID, Ticker: ticker, Type: models.TypeBuy,
			Quantity: 1, Price: 1, Total: 1, Date: "2024-01-01",
		}); err != nil {
			t.Fatalf("Insert returned error: %v", err)
		}
	}

	tickers, err := ledger.DistinctTickers(p.ID)
	if err != nil {
		t.Fatalf("DistinctTickers returned error: %v", err)
	}
	want := []string{"AAPL", "KO", "MSFT"}
	if len(tickers) != len(want) {
		t.Fatalf("tickers = %v, want %v", tickers, want)
	}
	for i := range want {
		if tickers[i] != want[i] {
			t.Errorf("tickers = %v, want %v", tickers, want)
			break
		}
	}
}

func TestStockInfoUpsertMergesPartialUpdates(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioStore(db)
	stockInfo := NewStockInfoStore(db)

	p := createTestPortfolio(t, portfolios, "Retirement", "RRSP")

	price := 150.0
	info, err := stockInfo.Upsert(p.ID, "aapl", models.StockInfoUpdate{MarketPrice: &price})
	if err != nil {
		t.Fatalf("first Upsert returned error: %v", err)
	}
	if info.Ticker != "AAPL" {
		t.Errorf("ticker = %q, want AAPL", info.Ticker)
	}
	if info.MarketPrice != 150 {
		t.Errorf("market price = %v, want 150", info.MarketPrice)
	}

	// Second write touches only the dividend schedule; price must survive.
	frequency := "Quarterly"
	perShare := 0.24
	info, err = stockInfo.Upsert(p.ID, "AAPL", models.StockInfoUpdate{
		DividendFrequency: &frequency,
		DividendPerShare:  &perShare,
	})
	if err != nil {
		t.Fatalf("second Upsert returned error: %v", err)
	}
	if info.MarketPrice != 150 {
		t.Errorf("market price after partial update = %v, want 150", info.MarketPrice)
	}
	if info.DividendFrequency != models.FrequencyQuarterly || info.DividendPerShare != 0.24 {
		t.Errorf("dividend fields = %q/%v", info.DividendFrequency, info.DividendPerShare)
	}

	stored, err := stockInfo.Get(p.ID, "AAPL")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if stored != info {
		t.Errorf("stored = %+v, want %+v", stored, info)
	}
}

func TestStockInfoGetNoRow(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioStore(db)
	stockInfo := NewStockInfoStore(db)

	p := createTestPortfolio(t, portfolios, "Retirement", "RRSP")
	if _, err := stockInfo.Get(p.ID, "AAPL"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestStockInfoSetMarketPrice(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioStore(db)
	stockInfo := NewStockInfoStore(db)

	p := createTestPortfolio(t, portfolios, "Retirement", "RRSP")
	if err := stockInfo.SetMarketPrice(p.ID, "AAPL", 199.99); err != nil {
		t.Fatalf("SetMarketPrice returned error: %v", err)
	}

	info, err := stockInfo.Get(p.ID, "AAPL")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if info.MarketPrice != 199.99 {
		t.Errorf("market price = %v, want 199.99", info.MarketPrice)
	}
}

func TestStockInfoScopedPerPortfolio(t *testing.T) {
	db := newTestDB(t)
	portfolios := NewPortfolioStore(db)
	stockInfo := NewStockInfoStore(db)

	a := createTestPortfolio(t, portfolios, "Alpha", "AAA")
	b := createTestPortfolio(t, portfolios, "Beta", "BBB")

	priceA, priceB := 10.0, 20.0
	if _, err := stockInfo.Upsert(a.ID, "AAPL", models.StockInfoUpdate{MarketPrice: &priceA}); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if _, err := stockInfo.Upsert(b.ID, "AAPL", models.StockInfoUpdate{MarketPrice: &priceB}); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	infoA, err := stockInfo.Get(a.ID, "AAPL")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	infoB, err := stockInfo.Get(b.ID, "AAPL")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if infoA.MarketPrice != 10 || infoB.MarketPrice != 20 {
		t.Errorf("prices = %v/%v, want 10/20", infoA.MarketPrice, infoB.MarketPrice)
	}
}
