package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/yieldly/backend/src/logger"
	"github.com/username/yieldly/backend/src/models"
	"github.com/username/yieldly/backend/src/services"
	"github.com/username/yieldly/backend/src/store"
	"github.com/username/yieldly/backend/src/utils"
)

// StockHandler covers the mutable per-(portfolio, ticker) reference data:
// manual edits through the upsert, and bulk updates through the price refresh.
type StockHandler struct {
	portfolios   *store.PortfolioStore
	stockInfo    *store.StockInfoStore
	priceService services.PriceService
}

func NewStockHandler(portfolios *store.PortfolioStore, stockInfo *store.StockInfoStore, priceService services.PriceService) *StockHandler {
	return &StockHandler{
		portfolios:   portfolios,
		stockInfo:    stockInfo,
		priceService: priceService,
	}
}

// HandleUpsertStockInfo applies a partial update to a ticker's reference row.
// Omitted fields keep their stored value; the first write creates the row.
func (h *StockHandler) HandleUpsertStockInfo(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid portfolio id", http.StatusBadRequest)
		return
	}
	ticker := r.PathValue("ticker")
	if ticker == "" {
		utils.SendJSONError(w, "Ticker is required", http.StatusBadRequest)
		return
	}
	if _, err := h.portfolios.Get(portfolioID); err != nil {
		utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
		return
	}

	var update models.StockInfoUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	info, err := h.stockInfo.Upsert(portfolioID, ticker, update)
	if err != nil {
		logger.L.Error("Failed to upsert stock info", "portfolioID", portfolioID, "ticker", ticker, "error", err)
		utils.SendJSONError(w, "Failed to update stock info", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, info)
}

// HandleRefreshPrices fetches current quotes for every ticker the portfolio
// has transacted in. Partial failures are reported per ticker, not as a
// request failure.
func (h *StockHandler) HandleRefreshPrices(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid portfolio id", http.StatusBadRequest)
		return
	}
	if _, err := h.portfolios.Get(portfolioID); err != nil {
		utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
		return
	}

	result, err := h.priceService.RefreshPortfolioPrices(r.Context(), portfolioID)
	if err != nil {
		logger.L.Error("Price refresh failed", "portfolioID", portfolioID, "error", err)
		utils.SendJSONError(w, "Failed to refresh prices", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}
