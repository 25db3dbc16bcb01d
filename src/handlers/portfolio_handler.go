package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/username/yieldly/backend/src/logger"
	"github.com/username/yieldly/backend/src/models"
	"github.com/username/yieldly/backend/src/services"
	"github.com/username/yieldly/backend/src/store"
	"github.com/username/yieldly/backend/src/utils"
)

type PortfolioHandler struct {
	portfolios       *store.PortfolioStore
	portfolioService services.PortfolioService
}

func NewPortfolioHandler(portfolios *store.PortfolioStore, portfolioService services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolios:       portfolios,
		portfolioService: portfolioService,
	}
}

func (h *PortfolioHandler) HandleListPortfolios(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.portfolios.List()
	if err != nil {
		logger.L.Error("Failed to list portfolios", "error", err)
		utils.SendJSONError(w, "Failed to retrieve portfolios", http.StatusInternalServerError)
		return
	}
	if portfolios == nil {
		portfolios = []models.Portfolio{}
	}
	utils.WriteJSON(w, http.StatusOK, portfolios)
}

func (h *PortfolioHandler) HandleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Code == "" {
		utils.SendJSONError(w, "Name and code are required", http.StatusBadRequest)
		return
	}

	portfolio, err := h.portfolios.Create(req.Name, req.Code)
	if err == store.ErrDuplicatePortfolioCode {
		utils.SendJSONError(w, "Portfolio code already exists", http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.L.Error("Failed to create portfolio", "name", req.Name, "error", err)
		utils.SendJSONError(w, "Failed to create portfolio", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, portfolio)
}

func (h *PortfolioHandler) HandleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid portfolio id", http.StatusBadRequest)
		return
	}

	switch err := h.portfolios.Delete(id); err {
	case nil:
		utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Portfolio deleted"})
	case store.ErrPortfolioNotFound:
		utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
	default:
		logger.L.Error("Failed to delete portfolio", "portfolioID", id, "error", err)
		utils.SendJSONError(w, "Failed to delete portfolio", http.StatusInternalServerError)
	}
}

func (h *PortfolioHandler) HandleUpdatePortfolioOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid portfolio id", http.StatusBadRequest)
		return
	}

	var req struct {
		DisplayOrder int64 `json:"display_order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	switch err := h.portfolios.UpdateOrder(id, req.DisplayOrder); err {
	case nil:
		utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Portfolio order updated"})
	case store.ErrPortfolioNotFound:
		utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
	default:
		logger.L.Error("Failed to update portfolio order", "portfolioID", id, "error", err)
		utils.SendJSONError(w, "Failed to update portfolio order", http.StatusInternalServerError)
	}
}

// HandleGetPortfolioSummary returns the aggregated holdings for a portfolio.
// The summary is derived from the ledger on every call.
func (h *PortfolioHandler) HandleGetPortfolioSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.SendJSONError(w, "Invalid portfolio id", http.StatusBadRequest)
		return
	}

	summaries, err := h.portfolioService.GetPortfolioSummary(id)
	if err == store.ErrPortfolioNotFound {
		utils.SendJSONError(w, "Portfolio not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.L.Error("Failed to compute portfolio summary", "portfolioID", id, "error", err)
		utils.SendJSONError(w, "Failed to compute portfolio summary", http.StatusInternalServerError)
		return
	}
	if summaries == nil {
		summaries = []models.HoldingSummary{}
	}
	utils.WriteJSON(w, http.StatusOK, summaries)
}

// pathID parses a numeric path value.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}
